// Package apperr defines the error taxonomy shared by the service and API
// layers. Services wrap these sentinels with context via fmt.Errorf("%w");
// handlers map them to HTTP statuses with errors.Is. Any storage error that
// is not one of these is treated as a storage failure and surfaced as 500.
package apperr

import "errors"

var (
	// ErrNotFound signals an unknown product code, cart entry or order.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput signals a malformed email or non-positive quantity.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmptyCart signals checkout against a session with no cart entries.
	ErrEmptyCart = errors.New("cart is empty")

	// ErrConflict signals a violated uniqueness invariant, e.g. assigning a
	// second category to a product.
	ErrConflict = errors.New("conflict")
)
