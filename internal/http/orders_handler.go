package http

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/WALKERIS/visionrpweb/internal/domain"
	"github.com/WALKERIS/visionrpweb/internal/identity"
)

// OrderHistory lists a user's recorded orders, newest first.
type OrderHistory interface {
	ListOrdersByUserID(ctx context.Context, userID uuid.UUID) ([]domain.Order, error)
}

type OrdersHandler struct {
	orders  OrderHistory
	timeout time.Duration
}

func NewOrdersHandler(orders OrderHistory, timeout time.Duration) *OrdersHandler {
	return &OrdersHandler{
		orders:  orders,
		timeout: timeout,
	}
}

type OrderItemDTO struct {
	VehicleID string `json:"vehicle_id"`
	Quantity  int    `json:"quantity"`
	Price     string `json:"price"`
}

type OrderResponseDTO struct {
	ID          string         `json:"id"`
	PaymentID   string         `json:"payment_id"`
	TotalAmount string         `json:"total_amount"`
	Status      string         `json:"status"`
	Items       []OrderItemDTO `json:"items"`
	CreatedAt   string         `json:"created_at"`
}

// GET /api/orders
func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	v := visitorFromContext(r.Context())
	user, err := v.Identity.RequireUser()
	if err != nil {
		handleServiceError(w, identity.ErrUnauthenticated)
		return
	}

	orders, err := h.orders.ListOrdersByUserID(ctx, user.ID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	dtos := make([]OrderResponseDTO, 0, len(orders))
	for _, o := range orders {
		dtos = append(dtos, convertOrder(o))
	}
	respondJSON(w, http.StatusOK, dtos)
}

func convertOrder(o domain.Order) OrderResponseDTO {
	items := make([]OrderItemDTO, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderItemDTO{
			VehicleID: it.VehicleID,
			Quantity:  it.Quantity,
			Price:     it.Price.StringFixed(2),
		})
	}
	return OrderResponseDTO{
		ID:          o.ID.String(),
		PaymentID:   o.PaymentID,
		TotalAmount: o.TotalAmount.StringFixed(2),
		Status:      o.Status.String(),
		Items:       items,
		CreatedAt:   o.CreatedAt.Format(time.RFC3339),
	}
}
