package checkout

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/WALKERIS/visionrpweb/internal/cart"
	"github.com/WALKERIS/visionrpweb/internal/domain"
	"github.com/WALKERIS/visionrpweb/internal/repository"
)

type OrderStore interface {
	CreateOrder(ctx context.Context, order domain.Order) (domain.Order, error)
	GetOrderByPaymentID(ctx context.Context, paymentID string) (domain.Order, error)
}

// Identity is the signed-in state checkout depends on.
type Identity interface {
	RequireUser() (domain.User, error)
}

// Approval is the payment widget's confirmation of a captured payment.
// An empty Status is treated as captured.
type Approval struct {
	ID     string `json:"id"`
	Status string `json:"status,omitempty"`
}

const PaymentCompleted = "COMPLETED"

func (a Approval) captured() bool {
	return a.Status == "" || strings.EqualFold(a.Status, PaymentCompleted)
}

type Service struct {
	orders    OrderStore
	log       *slog.Logger
	timeout   time.Duration
	approvals singleflight.Group
}

func NewService(orders OrderStore, log *slog.Logger, timeout time.Duration) *Service {
	if log == nil {
		log = slog.Default()
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Service{orders: orders, log: log, timeout: timeout}
}

// Open locks the cart and returns the snapshot the payment is taken against.
// Anonymous visitors are refused before the cart is touched.
func (s *Service) Open(c *cart.Store, who Identity) (domain.CartSnapshot, error) {
	if _, err := who.RequireUser(); err != nil {
		return domain.CartSnapshot{}, ErrUnauthenticated
	}
	if c.Snapshot().IsEmpty() {
		return domain.CartSnapshot{}, ErrEmptyCart
	}
	snap := c.Lock()
	if snap.IsEmpty() {
		c.Unlock()
		return domain.CartSnapshot{}, ErrEmptyCart
	}
	return snap, nil
}

// Close abandons checkout and unlocks the cart.
func (s *Service) Close(c *cart.Store) domain.CartSnapshot {
	return c.Unlock()
}

// Amount is the value for the widget's create-order callback: the cart total
// at the time of the call, with two decimals.
func (s *Service) Amount(c *cart.Store) (string, error) {
	snap := c.Snapshot()
	if !snap.Locked {
		return "", ErrCheckoutNotOpen
	}
	if snap.IsEmpty() {
		return "", ErrEmptyCart
	}
	return c.Total().StringFixed(2), nil
}

// Approve records the order for a captured payment. It requires a signed-in
// user and writes nothing otherwise. The cart is cleared only once the order,
// its items and its outbox event are stored. Approving a payment that is
// already recorded returns the stored order, and clears the cart only when
// it still holds exactly what that order was paid for.
func (s *Service) Approve(ctx context.Context, c *cart.Store, who Identity, approval Approval) (domain.Order, error) {
	user, err := who.RequireUser()
	if err != nil {
		return domain.Order{}, ErrUnauthenticated
	}
	if approval.ID == "" {
		return domain.Order{}, ErrInvalidPayment
	}
	if !approval.captured() {
		return domain.Order{}, ErrPaymentNotCaptured
	}

	// persistence runs to completion once the payment is captured
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	v, err, _ := s.approvals.Do(approval.ID, func() (any, error) {
		return s.approve(ctx, c, user, approval.ID)
	})
	if err != nil {
		return domain.Order{}, err
	}
	return v.(domain.Order), nil
}

func (s *Service) approve(ctx context.Context, c *cart.Store, user domain.User, paymentID string) (domain.Order, error) {
	log := s.log.With(slog.String("payment_id", paymentID), slog.String("user_id", user.ID.String()))

	snap := c.Snapshot()
	if !snap.Locked || snap.IsEmpty() {
		existing, err := s.existing(ctx, user, paymentID)
		if err == nil {
			return existing, nil
		}
		if !snap.Locked {
			return domain.Order{}, ErrCheckoutNotOpen
		}
		return domain.Order{}, ErrEmptyCart
	}

	created, err := s.orders.CreateOrder(ctx, newOrder(user, paymentID, snap))
	if errors.Is(err, repository.ErrDuplicatePayment) {
		existing, lookupErr := s.existing(ctx, user, paymentID)
		if lookupErr != nil {
			log.ErrorContext(ctx, "duplicate payment lookup failed", slog.Any("err", lookupErr))
			return domain.Order{}, &PersistError{PaymentID: paymentID, Err: lookupErr}
		}
		if !paidFor(existing, snap) {
			log.WarnContext(ctx, "payment already recorded for a different cart",
				slog.String("order_id", existing.ID.String()))
			return domain.Order{}, ErrPaymentReused
		}
		log.InfoContext(ctx, "payment already recorded", slog.String("order_id", existing.ID.String()))
		c.CompleteCheckout()
		return existing, nil
	}
	if err != nil {
		log.ErrorContext(ctx, "failed to persist order", slog.Any("err", err))
		return domain.Order{}, &PersistError{PaymentID: paymentID, Err: err}
	}

	c.CompleteCheckout()
	log.InfoContext(ctx, "order completed",
		slog.String("order_id", created.ID.String()),
		slog.String("total", created.TotalAmount.String()),
		slog.Int("items", len(created.Items)))
	return created, nil
}

func (s *Service) existing(ctx context.Context, user domain.User, paymentID string) (domain.Order, error) {
	order, err := s.orders.GetOrderByPaymentID(ctx, paymentID)
	if err != nil {
		return domain.Order{}, err
	}
	if order.UserID != user.ID {
		return domain.Order{}, ErrPaymentNotOwned
	}
	return order, nil
}

// paidFor reports whether order covers exactly the lines in snap.
func paidFor(order domain.Order, snap domain.CartSnapshot) bool {
	if len(order.Items) != len(snap.Lines) || !order.TotalAmount.Equal(snap.Total) {
		return false
	}
	want := make(map[string]domain.OrderItem, len(order.Items))
	for _, it := range order.Items {
		want[it.VehicleID] = it
	}
	for _, l := range snap.Lines {
		it, ok := want[l.VehicleID]
		if !ok || it.Quantity != l.Quantity || !it.Price.Equal(l.Price) {
			return false
		}
	}
	return true
}

func newOrder(user domain.User, paymentID string, snap domain.CartSnapshot) domain.Order {
	items := make([]domain.OrderItem, 0, len(snap.Lines))
	for _, l := range snap.Lines {
		items = append(items, domain.OrderItem{
			VehicleID: l.VehicleID,
			Quantity:  l.Quantity,
			Price:     l.Price,
		})
	}
	return domain.Order{
		UserID:      user.ID,
		TotalAmount: snap.Total,
		Status:      domain.OrderStatusCompleted,
		PaymentID:   paymentID,
		Items:       items,
	}
}
