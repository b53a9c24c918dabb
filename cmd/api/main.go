package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/hoteleiro/breakfast-pass/internal/domain"
	"github.com/hoteleiro/breakfast-pass/internal/http/handlers"
	imw "github.com/hoteleiro/breakfast-pass/internal/http/middleware"
	"github.com/hoteleiro/breakfast-pass/internal/platform/clock"
	"github.com/hoteleiro/breakfast-pass/internal/platform/token"
	"github.com/hoteleiro/breakfast-pass/internal/ratelimit"
	"github.com/hoteleiro/breakfast-pass/internal/repo/postgres"
	"github.com/hoteleiro/breakfast-pass/internal/service"
	"github.com/hoteleiro/breakfast-pass/pkg/config"
	"github.com/hoteleiro/breakfast-pass/pkg/database"
	"github.com/hoteleiro/breakfast-pass/pkg/events"
	"github.com/hoteleiro/breakfast-pass/pkg/logger"
	mw "github.com/hoteleiro/breakfast-pass/pkg/middleware"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	clk, err := clock.NewSystem(cfg.Timezone)
	if err != nil {
		logger.Error("Failed to load hotel timezone", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Event bus is best-effort telemetry; run without it if unreachable.
	var bus events.Publisher = events.NoopPublisher{}
	if cfg.NATS.URL != "" {
		natsBus, err := events.NewNATSPublisher(cfg.NATS.URL)
		if err != nil {
			logger.Warn("Failed to connect to NATS, events disabled", "error", err)
		} else {
			bus = natsBus
			defer natsBus.Close()
		}
	}

	// Rate limit counters: process-local by default, Redis when instances
	// must share windows.
	var limiterStore ratelimit.Store = ratelimit.NewMemoryStore(clk)
	if cfg.RateLimit.Backend == "redis" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			logger.Error("Invalid REDIS_URL", "error", err)
			os.Exit(1)
		}
		limiterStore = ratelimit.NewRedisStore(redis.NewClient(opts))
	}
	limiter := ratelimit.New(limiterStore)

	// Token services fail here, at startup, when a secret is missing.
	sessions, err := token.NewSessionService(cfg.Auth.SessionSecret, cfg.Auth.SessionTTL)
	if err != nil {
		logger.Error("Failed to build session service", "error", err)
		os.Exit(1)
	}
	qrTokens, err := token.NewQrService(cfg.Auth.SessionSecret, cfg.Auth.QrTokenTTL, cfg.Auth.QrMaxSkew)
	if err != nil {
		logger.Error("Failed to build qr token service", "error", err)
		os.Exit(1)
	}

	guestRepo := postgres.NewGuestRepo(pool)

	authSvc := service.NewAuthService(sessions, clk, bus, cfg.Auth)
	guestSvc := service.NewGuestService(guestRepo, clk, bus)
	qrSvc := service.NewQrService(guestRepo, qrTokens, clk, bus)
	redemptionSvc := service.NewRedemptionService(guestRepo, qrTokens, clk, bus)

	authH := handlers.NewAuthHandler(authSvc, cfg.Server.TLSEnabled)
	guestsH := handlers.NewGuestsHandler(guestSvc)
	qrH := handlers.NewQrHandler(qrSvc)
	consumeH := handlers.NewConsumeHandler(redemptionSvc)

	loginRL := imw.NewRateLimiter(limiter, imw.RateLimitConfig{
		Namespace: "auth",
		Requests:  cfg.RateLimit.LoginMax,
		Window:    cfg.RateLimit.LoginWindow,
	})
	issueRL := imw.NewRateLimiter(limiter, imw.RateLimitConfig{
		Namespace: "qr",
		Requests:  cfg.RateLimit.IssueMax,
		Window:    cfg.RateLimit.IssueWindow,
	})

	staff := []domain.Role{domain.RoleReception, domain.RoleRestaurant, domain.RoleValidator}

	r := chi.NewRouter()
	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("breakfast-pass"))
	r.Use(mw.Logging)
	r.Use(mw.Health)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/auth", func(r chi.Router) {
		r.With(loginRL.Middleware()).Post("/login", authH.Login)
		r.Post("/logout", authH.Logout)
		r.Get("/me", authH.Me)
	})

	r.With(issueRL.Middleware()).Post("/qr/issue", qrH.Issue)

	r.With(imw.RequireRole(authSvc, domain.RoleValidator)).Post("/consume", consumeH.Consume)

	r.Route("/guests", func(r chi.Router) {
		r.With(imw.RequireRole(authSvc, staff...)).Get("/", guestsH.List)
		r.With(imw.RequireRole(authSvc, staff...)).Get("/stats", guestsH.Stats)
		r.With(imw.RequireRole(authSvc, staff...)).Get("/{id}", guestsH.Get)
		r.With(imw.RequireRole(authSvc, domain.RoleReception)).Post("/import", guestsH.Import)
		r.With(imw.RequireRole(authSvc, domain.RoleReception, domain.RoleValidator)).Patch("/{id}", guestsH.Update)
		r.With(imw.RequireRole(authSvc, domain.RoleReception)).Delete("/{id}", guestsH.Delete)
		r.With(imw.RequireRole(authSvc, domain.RoleReception)).Delete("/", guestsH.DeleteAll)
	})

	// Public room lookup for guest self-service.
	r.Get("/rooms/{room}/guests", guestsH.Room)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down breakfast-pass...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Shutdown error", "error", err)
		}
	}()

	logger.Info("Starting breakfast-pass", "port", cfg.Server.Port, "timezone", cfg.Timezone)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
}
