package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/hoteleiro/breakfast-pass/internal/domain"
	"github.com/hoteleiro/breakfast-pass/internal/http/response"
	"github.com/hoteleiro/breakfast-pass/internal/service"
	"github.com/hoteleiro/breakfast-pass/pkg/logger"
)

// GuestsHandler is the roster CRUD surface for reception. Everything here
// is ordinary record editing; the redemption protocol never goes through
// these endpoints.
type GuestsHandler struct {
	Guests *service.GuestService
}

func NewGuestsHandler(guests *service.GuestService) *GuestsHandler {
	return &GuestsHandler{Guests: guests}
}

func (h *GuestsHandler) List(w http.ResponseWriter, r *http.Request) {
	gs, err := h.Guests.List(r.Context())
	if err != nil {
		logger.ErrorContext(r.Context(), "Failed to list guests", "error", err)
		response.InternalError(w, "Failed to list guests.")
		return
	}
	if gs == nil {
		gs = []domain.Guest{}
	}
	response.WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "data": gs})
}

func (h *GuestsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	g, err := h.Guests.Get(r.Context(), id)
	if err != nil {
		logger.ErrorContext(r.Context(), "Failed to load guest", "error", err, "guest_id", id)
		response.InternalError(w, "Failed to load guest.")
		return
	}
	if g == nil {
		response.NotFound(w, "Guest not found.")
		return
	}
	response.WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "data": g})
}

// Room is the public self-service lookup: a guest enters their room number
// (and optionally their name) to find themselves. Only the PublicGuest
// projection leaves the server.
func (h *GuestsHandler) Room(w http.ResponseWriter, r *http.Request) {
	room := strings.TrimSpace(chi.URLParam(r, "room"))
	if room == "" {
		response.BadRequest(w, "room is required.")
		return
	}

	name := r.URL.Query().Get("name")
	gs, err := h.Guests.ListRoom(r.Context(), room, name)
	if err != nil {
		logger.ErrorContext(r.Context(), "Failed to list room guests", "error", err, "room", room)
		response.InternalError(w, "Failed to list room guests.")
		return
	}
	response.WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "data": gs})
}

func (h *GuestsHandler) Import(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Guests []domain.Guest `json:"guests"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "Invalid request body.")
		return
	}

	mode := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("mode")))
	if mode == "" {
		mode = service.ImportModeUpsert
	}

	out, err := h.Guests.Import(r.Context(), mode, in.Guests)
	if err != nil {
		if errors.Is(err, service.ErrBadImportMode) {
			response.BadRequest(w, "mode must be upsert or replace.")
			return
		}
		logger.ErrorContext(r.Context(), "Roster import failed", "error", err, "mode", mode)
		response.InternalError(w, "Roster import failed.")
		return
	}
	if out == nil {
		out = []domain.Guest{}
	}
	response.WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "data": out})
}

func (h *GuestsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var upd domain.GuestUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		response.BadRequest(w, "Invalid request body.")
		return
	}

	g, err := h.Guests.Update(r.Context(), id, &upd)
	if err != nil {
		logger.ErrorContext(r.Context(), "Failed to update guest", "error", err, "guest_id", id)
		response.InternalError(w, "Failed to update guest.")
		return
	}
	if g == nil {
		response.NotFound(w, "Guest not found.")
		return
	}
	response.WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "data": g})
}

func (h *GuestsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	deleted, err := h.Guests.Delete(r.Context(), id)
	if err != nil {
		logger.ErrorContext(r.Context(), "Failed to delete guest", "error", err, "guest_id", id)
		response.InternalError(w, "Failed to delete guest.")
		return
	}
	if !deleted {
		response.NotFound(w, "Guest not found.")
		return
	}
	response.WriteJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h *GuestsHandler) DeleteAll(w http.ResponseWriter, r *http.Request) {
	n, err := h.Guests.DeleteAll(r.Context())
	if err != nil {
		logger.ErrorContext(r.Context(), "Failed to clear roster", "error", err)
		response.InternalError(w, "Failed to clear roster.")
		return
	}
	response.WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "deleted": n})
}

func (h *GuestsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Guests.Stats(r.Context())
	if err != nil {
		logger.ErrorContext(r.Context(), "Failed to compute stats", "error", err)
		response.InternalError(w, "Failed to compute stats.")
		return
	}
	response.WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "data": stats})
}
