package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/hoteleiro/breakfast-pass/internal/domain"
	"github.com/hoteleiro/breakfast-pass/internal/http/response"
	"github.com/hoteleiro/breakfast-pass/internal/service"
	"github.com/hoteleiro/breakfast-pass/pkg/logger"
)

type ConsumeHandler struct {
	Redemptions *service.RedemptionService
}

func NewConsumeHandler(redemptions *service.RedemptionService) *ConsumeHandler {
	return &ConsumeHandler{Redemptions: redemptions}
}

// Consume redeems a scanned QR token. Routed behind RequireRole(VALIDAR).
// Business outcomes (not found, not entitled, already consumed) map to
// their own statuses and codes so the scanner UI can speak precisely.
func (h *ConsumeHandler) Consume(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Token   string `json:"token"`
		Confirm bool   `json:"confirm"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "Invalid request body.")
		return
	}

	if strings.TrimSpace(in.Token) == "" {
		response.BadRequest(w, "token is required.")
		return
	}

	guest, err := h.Redemptions.Redeem(r.Context(), in.Token, in.Confirm)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrNotConfirmed):
		response.WriteError(w, http.StatusBadRequest, "Confirmation required to validate consumption.", response.CodeNotConfirmed)
		return
	case errors.Is(err, domain.ErrExpiredToken):
		response.WriteError(w, http.StatusUnauthorized, "Token expired.", response.CodeExpiredToken)
		return
	case errors.Is(err, domain.ErrInvalidToken):
		response.WriteError(w, http.StatusBadRequest, "Invalid token.", response.CodeInvalidToken)
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
	case errors.Is(err, domain.ErrTransientConflict):
		response.WriteError(w, http.StatusConflict, "Could not record consumption right now. Try again.", response.CodeTransientConflict)
		return
	default:
		logger.ErrorContext(r.Context(), "Redemption failed", "error", err)
		response.InternalError(w, "Internal error while consuming QR token.")
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"success": true,
		"data":    guest,
	})
}
