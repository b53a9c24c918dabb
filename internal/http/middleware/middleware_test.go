package middleware_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hoteleiro/breakfast-pass/internal/domain"
	mw "github.com/hoteleiro/breakfast-pass/internal/http/middleware"
	"github.com/hoteleiro/breakfast-pass/internal/platform/clock"
	"github.com/hoteleiro/breakfast-pass/internal/platform/token"
	"github.com/hoteleiro/breakfast-pass/internal/ratelimit"
)

type stubVerifier struct {
	claims *token.SessionClaims
	err    error
}

func (v stubVerifier) Verify(string) (*token.SessionClaims, error) {
	return v.claims, v.err
}

func okHandler(hit *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*hit = true
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireRoleWithoutCookieIs401(t *testing.T) {
	var hit bool
	h := mw.RequireRole(stubVerifier{}, domain.RoleValidator)(okHandler(&hit))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/consume", nil))

	if rec.Code != http.StatusUnauthorized || hit {
		t.Fatalf("got %d (hit=%v), want 401 without reaching the handler", rec.Code, hit)
	}
}

func TestRequireRoleWithBadTokenIs401(t *testing.T) {
	var hit bool
	verifier := stubVerifier{err: errors.New("bad token")}
	h := mw.RequireRole(verifier, domain.RoleValidator)(okHandler(&hit))

	req := httptest.NewRequest(http.MethodPost, "/consume", nil)
	req.AddCookie(&http.Cookie{Name: mw.SessionCookieName, Value: "tampered"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized || hit {
		t.Fatalf("got %d (hit=%v), want 401", rec.Code, hit)
	}
}

func TestRequireRoleWithWrongRoleIs403(t *testing.T) {
	var hit bool
	verifier := stubVerifier{claims: &token.SessionClaims{Role: domain.RoleRestaurant}}
	h := mw.RequireRole(verifier, domain.RoleValidator)(okHandler(&hit))

	req := httptest.NewRequest(http.MethodPost, "/consume", nil)
	req.AddCookie(&http.Cookie{Name: mw.SessionCookieName, Value: "valid-but-wrong-role"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden || hit {
		t.Fatalf("got %d (hit=%v), want 403", rec.Code, hit)
	}
}

func TestRequireRolePassesClaimsThrough(t *testing.T) {
	verifier := stubVerifier{claims: &token.SessionClaims{Role: domain.RoleValidator}}

	var got *token.SessionClaims
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = mw.Session(r)
		w.WriteHeader(http.StatusOK)
	})
	h := mw.RequireRole(verifier, domain.RoleValidator, domain.RoleReception)(inner)

	req := httptest.NewRequest(http.MethodPost, "/consume", nil)
	req.AddCookie(&http.Cookie{Name: mw.SessionCookieName, Value: "valid"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("got %d, want 200", rec.Code)
	}
	if got == nil || got.Role != domain.RoleValidator {
		t.Fatalf("claims not propagated: %+v", got)
	}
}

func TestRateLimitMiddlewareReturns429WithRetryAfter(t *testing.T) {
	loc, _ := time.LoadLocation("America/Sao_Paulo")
	clk := clock.Fixed{T: time.Date(2025, 3, 17, 8, 30, 0, 0, loc)}
	limiter := ratelimit.New(ratelimit.NewMemoryStore(clk))

	rl := mw.NewRateLimiter(limiter, mw.RateLimitConfig{
		Namespace: "auth",
		Requests:  2,
		Window:    time.Minute,
	})

	var hits int
	h := rl.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusOK)
	}))

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = "203.0.113.7:5123"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	for i := 0; i < 2; i++ {
		if rec := send(); rec.Code != http.StatusOK {
			t.Fatalf("request %d: got %d, want 200", i+1, rec.Code)
		}
	}

	rec := send()
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("got %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatal("429 must carry a Retry-After header")
	}
	if hits != 2 {
		t.Fatalf("handler ran %d times, want 2", hits)
	}
}

func TestRateLimitKeysByClientIP(t *testing.T) {
	loc, _ := time.LoadLocation("America/Sao_Paulo")
	clk := clock.Fixed{T: time.Date(2025, 3, 17, 8, 30, 0, 0, loc)}
	limiter := ratelimit.New(ratelimit.NewMemoryStore(clk))

	rl := mw.NewRateLimiter(limiter, mw.RateLimitConfig{
		Namespace: "qr",
		Requests:  1,
		Window:    time.Minute,
	})
	h := rl.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/qr/issue", nil)
		req.RemoteAddr = ip + ":40000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	if send("203.0.113.1") != http.StatusOK {
		t.Fatal("first client's first request must pass")
	}
	if send("203.0.113.1") != http.StatusTooManyRequests {
		t.Fatal("first client's second request must be limited")
	}
	if send("203.0.113.2") != http.StatusOK {
		t.Fatal("second client must have its own budget")
	}
}

func TestClientIPHeaders(t *testing.T) {
	cases := []struct {
		name   string
		setup  func(r *http.Request)
		expect string
	}{
		{
			"x-forwarded-for first hop",
			func(r *http.Request) { r.Header.Set("X-Forwarded-For", "198.51.100.9, 10.0.0.1") },
			"198.51.100.9",
		},
		{
			"x-real-ip",
			func(r *http.Request) { r.Header.Set("X-Real-IP", "198.51.100.10") },
			"198.51.100.10",
		},
		{
			"remote addr fallback",
			func(r *http.Request) { r.RemoteAddr = "198.51.100.11:61234" },
			"198.51.100.11",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			tc.setup(req)
			if got := mw.ClientIP(req); got != tc.expect {
				t.Fatalf("got %q, want %q", got, tc.expect)
			}
		})
	}
}
