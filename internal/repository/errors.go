package repository

import "errors"

var (
	ErrOrderNotFound    = errors.New("order not found")
	ErrDuplicatePayment = errors.New("order for this payment already exists")
	ErrEventNotFound    = errors.New("outbox event not found")
)
