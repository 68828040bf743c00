package shop

import (
	"errors"
	"fmt"
)

var (
	// ErrPriceNotFound means no price list entry exists for the product,
	// not even for the retail tier. Checkout-affecting callers must treat
	// this as a hard stop, never as a zero price.
	ErrPriceNotFound = errors.New("no price configured for product")

	ErrInvalidQuantity = errors.New("quantity must be a positive integer")
	ErrEmptyOrder      = errors.New("order has no valid items")
	ErrInvalidAddress  = errors.New("shipping address is incomplete")
	ErrInvalidCoupon   = errors.New("coupon is not applicable")
	ErrCartNotFound    = errors.New("cart not found")
	ErrOrderNotFound   = errors.New("order not found")
	ErrProductNotFound = errors.New("product not found")

	// ErrWebhookSignature means the provider signature over the raw body
	// did not verify; the payload was not inspected.
	ErrWebhookSignature = errors.New("webhook signature verification failed")

	ErrPaymentProvider = errors.New("payment provider failure")
)

// StorageError wraps a backing-store failure, preserving the driver's
// diagnostic for the caller instead of masking it.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}
