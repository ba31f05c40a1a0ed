package order

import "errors"

var (
	// ErrNotFound is returned when no order matches the lookup session id
	ErrNotFound = errors.New("no order found")

	// ErrRefundNotConfirmed is returned when a refund notification carries a
	// provider status other than the refund confirmation status
	ErrRefundNotConfirmed = errors.New("refund status is not payment_created")

	// ErrInvalidQuery is returned when order query validation fails
	ErrInvalidQuery = errors.New("invalid orders query")
)
