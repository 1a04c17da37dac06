package service

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidQuantity reports a quantity outside [1, 99]. Quantity 0 is
	// rejected too; callers must use remove instead.
	ErrInvalidQuantity = errors.New("quantity must be between 1 and 99")

	ErrProductNotFound  = errors.New("product not found")
	ErrCartItemNotFound = errors.New("cart item not found")

	// ErrNotCartOwner reports that the item exists but belongs to a cart the
	// resolved identity does not own.
	ErrNotCartOwner = errors.New("cart item belongs to another cart")

	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
)

// InsufficientStockError reports a stock-limited failure. MaxAddable is the
// largest quantity the caller could still add (floored at 0), so clients can
// offer a corrected retry instead of a generic out-of-stock message.
type InsufficientStockError struct {
	Available  int
	MaxAddable int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("only %d items available in stock", e.Available)
}

func newInsufficientStockError(available, inCart int) *InsufficientStockError {
	maxAddable := available - inCart
	if maxAddable < 0 {
		maxAddable = 0
	}
	return &InsufficientStockError{Available: available, MaxAddable: maxAddable}
}
