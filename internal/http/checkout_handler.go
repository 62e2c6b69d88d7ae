package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/WALKERIS/visionrpweb/internal/cart"
	"github.com/WALKERIS/visionrpweb/internal/checkout"
	"github.com/WALKERIS/visionrpweb/internal/domain"
	"github.com/WALKERIS/visionrpweb/internal/visitor"
)

const msgPaymentSuccess = "Payment successful! Order confirmed."

// Checkout is the order-recording flow behind the payment widget.
type Checkout interface {
	Open(c *cart.Store, who checkout.Identity) (domain.CartSnapshot, error)
	Close(c *cart.Store) domain.CartSnapshot
	Amount(c *cart.Store) (string, error)
	Approve(ctx context.Context, c *cart.Store, who checkout.Identity, approval checkout.Approval) (domain.Order, error)
}

var _ Checkout = (*checkout.Service)(nil)

type CheckoutHandler struct {
	checkout Checkout
	timeout  time.Duration
	log      *slog.Logger
}

func NewCheckoutHandler(c Checkout, timeout time.Duration, log *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		checkout: c,
		timeout:  timeout,
		log:      log.With(slog.String("component", "checkout_handler")),
	}
}

type CreateOrderResponseDTO struct {
	Value string `json:"value"`
}

type ApproveRequestDTO struct {
	ID     string `json:"id"`
	Status string `json:"status,omitempty"`
}

type ApproveResponseDTO struct {
	OrderID uuid.UUID `json:"order_id"`
	Total   string    `json:"total"`
	Message string    `json:"message"`
}

// POST /api/checkout
func (h *CheckoutHandler) Open(w http.ResponseWriter, r *http.Request) {
	v := visitorFromContext(r.Context())
	snap, err := h.checkout.Open(v.Cart, v.Identity)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

// DELETE /api/checkout
func (h *CheckoutHandler) Close(w http.ResponseWriter, r *http.Request) {
	v := visitorFromContext(r.Context())
	respondJSON(w, http.StatusOK, h.checkout.Close(v.Cart))
}

// POST /api/checkout/orders
func (h *CheckoutHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	v := visitorFromContext(r.Context())
	amount, err := h.checkout.Amount(v.Cart)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, CreateOrderResponseDTO{Value: amount})
}

// POST /api/checkout/approve
func (h *CheckoutHandler) Approve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req ApproveRequestDTO
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	v := visitorFromContext(r.Context())
	order, err := h.checkout.Approve(ctx, v.Cart, v.Identity, checkout.Approval{ID: req.ID, Status: req.Status})
	if err != nil {
		h.log.WarnContext(ctx, "approval not recorded",
			slog.String("visitor_id", v.ID),
			slog.String("payment_id", req.ID),
			slog.Any("err", err))
		handleServiceError(w, err)
		return
	}

	v.AddFlash(visitor.FlashSuccess, msgPaymentSuccess)
	respondJSON(w, http.StatusOK, ApproveResponseDTO{
		OrderID: order.ID,
		Total:   order.TotalAmount.StringFixed(2),
		Message: msgPaymentSuccess,
	})
}
