package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hoteleiro/breakfast-pass/internal/domain"
	"github.com/hoteleiro/breakfast-pass/internal/http/response"
	"github.com/hoteleiro/breakfast-pass/internal/platform/token"
	"github.com/hoteleiro/breakfast-pass/internal/service"
	"github.com/hoteleiro/breakfast-pass/pkg/logger"
)

type QrHandler struct {
	Qr *service.QrService
}

func NewQrHandler(qr *service.QrService) *QrHandler {
	return &QrHandler{Qr: qr}
}

// Issue mints a redemption token for a guest. Unauthenticated by design:
// guests reach it from the room lookup flow. The rate limiter and the
// issuance window are the gates.
func (h *QrHandler) Issue(w http.ResponseWriter, r *http.Request) {
	var in struct {
		GuestID string `json:"guestId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "Invalid request body.")
		return
	}

	tok, err := h.Qr.IssueForGuest(r.Context(), in.GuestID)
	switch {
	case err == nil:
	case errors.Is(err, token.ErrEmptyGuestID):
		response.BadRequest(w, "guestId is required.")
		return
	case errors.Is(err, domain.ErrWindowClosed):
		response.WriteError(w, http.StatusForbidden,
			"QR codes are only issued during breakfast hours: Mon-Sat 06:00-10:00, Sun 07:00-10:00.",
			response.CodeWindowClosed)
		return
	case errors.Is(err, domain.ErrGuestNotFound):
		response.NotFound(w, "Guest not found.")
		return
	case errors.Is(err, domain.ErrNotEntitled):
		response.WriteError(w, http.StatusBadRequest, "Guest has no breakfast entitlement.", response.CodeNotEntitled)
		return
	case errors.Is(err, domain.ErrAlreadyConsumed):
		response.WriteError(w, http.StatusConflict, "Breakfast already used today.", response.CodeAlreadyConsumed)
		return
	default:
		logger.ErrorContext(r.Context(), "QR issuance failed", "error", err)
		response.InternalError(w, "Internal error while issuing QR token.")
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "token": tok})
}
