package cart

import "errors"

var (
	ErrCartLocked   = errors.New("cart is locked for checkout")
	ErrItemNotFound = errors.New("item not in cart")
	ErrInvalidItem  = errors.New("invalid cart item")
)
