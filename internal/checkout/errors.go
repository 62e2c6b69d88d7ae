package checkout

import (
	"errors"
	"fmt"

	"github.com/WALKERIS/visionrpweb/internal/identity"
)

var (
	ErrUnauthenticated    = identity.ErrUnauthenticated
	ErrEmptyCart          = errors.New("cart is empty, nothing to checkout")
	ErrCheckoutNotOpen    = errors.New("checkout is not open")
	ErrInvalidPayment     = errors.New("payment confirmation has no id")
	ErrPaymentNotCaptured = errors.New("payment was not captured")
	ErrPersistFailed      = errors.New("order could not be saved")
	ErrPaymentNotOwned    = errors.New("payment belongs to another user")
	ErrPaymentReused      = errors.New("payment was already recorded for a different cart")
)

// PersistError reports a captured payment whose order could not be stored.
// The cart is kept so the approval can be retried.
type PersistError struct {
	PaymentID string
	Err       error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist order for payment %s: %v", e.PaymentID, e.Err)
}

func (e *PersistError) Unwrap() []error {
	return []error{ErrPersistFailed, e.Err}
}

// UserMessage is safe to show to the visitor.
func (e *PersistError) UserMessage() string {
	return fmt.Sprintf("Your payment was received but we could not confirm your order. Please try again or contact support with payment reference %s.", e.PaymentID)
}
