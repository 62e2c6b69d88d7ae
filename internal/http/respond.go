package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/WALKERIS/visionrpweb/internal/cart"
	"github.com/WALKERIS/visionrpweb/internal/catalog"
	"github.com/WALKERIS/visionrpweb/internal/checkout"
	"github.com/WALKERIS/visionrpweb/internal/identity"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", slog.Any("err", err))
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// handleServiceError converts domain errors to HTTP status codes.
func handleServiceError(w http.ResponseWriter, err error) {
	var persistErr *checkout.PersistError
	switch {
	case errors.As(err, &persistErr):
		respondJSON(w, http.StatusBadGateway, ErrorResponse{
			Error:   persistErr.UserMessage(),
			Code:    "order_not_saved",
			Details: persistErr.PaymentID,
		})
	case errors.Is(err, identity.ErrUnauthenticated):
		respondError(w, http.StatusUnauthorized, "unauthenticated", "Please sign in to complete your purchase")
	case errors.Is(err, checkout.ErrEmptyCart):
		respondError(w, http.StatusBadRequest, "empty_cart", err.Error())
	case errors.Is(err, checkout.ErrInvalidPayment):
		respondError(w, http.StatusBadRequest, "invalid_payment", err.Error())
	case errors.Is(err, checkout.ErrPaymentNotCaptured):
		respondError(w, http.StatusPaymentRequired, "payment_not_captured", err.Error())
	case errors.Is(err, cart.ErrInvalidItem):
		respondError(w, http.StatusBadRequest, "invalid_item", err.Error())
	case errors.Is(err, cart.ErrCartLocked):
		respondError(w, http.StatusConflict, "cart_locked", err.Error())
	case errors.Is(err, checkout.ErrCheckoutNotOpen):
		respondError(w, http.StatusConflict, "checkout_not_open", err.Error())
	case errors.Is(err, checkout.ErrPaymentNotOwned):
		respondError(w, http.StatusConflict, "payment_not_owned", err.Error())
	case errors.Is(err, checkout.ErrPaymentReused):
		respondError(w, http.StatusConflict, "payment_reused", err.Error())
	case errors.Is(err, catalog.ErrVehicleNotFound):
		respondError(w, http.StatusNotFound, "vehicle_not_found", err.Error())
	case errors.Is(err, cart.ErrItemNotFound):
		respondError(w, http.StatusNotFound, "item_not_found", err.Error())
	default:
		slog.Error("unhandled service error", slog.Any("err", err))
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

const maxBodySize = 1 << 20 // 1MB

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(dst)
}
