package models

import (
	"errors"
	"fmt"
)

// Expected, recoverable failures. Handlers and callers discriminate with
// errors.Is / errors.As; anything else is treated as a storage failure.
var (
	ErrEmptyCart            = errors.New("cart is empty")
	ErrNoValidItems         = errors.New("no valid items in cart")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	ErrOrderNotFound        = errors.New("order not found")
	ErrItemNotFound         = errors.New("item not found")
	ErrCategoryNotFound     = errors.New("category not found")

	// ErrCategoryHasItems refuses category deletion while items remain.
	// Deletion is refused, never cascaded.
	ErrCategoryHasItems = errors.New("category still has items")
)

// ValidationError carries a human-readable reason for a rejected input
// (blank name, duplicate name in scope, negative price, ...).
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// Validationf builds a ValidationError from a format string.
func Validationf(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}
