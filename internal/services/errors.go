package services

import "errors"

// Error classes map business-rule failures to HTTP statuses at the handler
// boundary. Every user-visible failure carries a short machine-parseable
// reason distinct from log detail.
type ErrorClass int

const (
	// ClassValidation marks malformed or missing input (400).
	ClassValidation ErrorClass = iota
	// ClassNotFound marks an absent or inactive referenced entity (404).
	ClassNotFound
	// ClassPermission marks an acting user who is not the resource owner
	// or lacks the role (403).
	ClassPermission
	// ClassConflict marks duplicate resources and exhausted limits (400).
	ClassConflict
	// ClassState marks operations invalid for the current lifecycle state (400).
	ClassState
	// ClassGateway marks external payment provider failures (500).
	ClassGateway
)

// Error is a classified business error.
type Error struct {
	Class  ErrorClass
	Reason string
}

func (e *Error) Error() string {
	return e.Reason
}

// NewValidationError reports malformed or missing input.
func NewValidationError(reason string) error {
	return &Error{Class: ClassValidation, Reason: reason}
}

// NewNotFoundError reports an absent or inactive entity.
func NewNotFoundError(reason string) error {
	return &Error{Class: ClassNotFound, Reason: reason}
}

// NewPermissionError reports an ownership or role failure.
func NewPermissionError(reason string) error {
	return &Error{Class: ClassPermission, Reason: reason}
}

// NewConflictError reports a duplicate resource or exhausted limit.
func NewConflictError(reason string) error {
	return &Error{Class: ClassConflict, Reason: reason}
}

// NewStateError reports an operation invalid for the current state.
func NewStateError(reason string) error {
	return &Error{Class: ClassState, Reason: reason}
}

// NewGatewayError reports a payment provider failure.
func NewGatewayError(reason string) error {
	return &Error{Class: ClassGateway, Reason: reason}
}

// ClassOf extracts the class of a business error; ok is false for
// unclassified errors, which callers treat as internal.
func ClassOf(err error) (ErrorClass, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Class, true
	}
	return 0, false
}

// Shared sentinel-style errors used across services.
var (
	ErrEmptyCart           = NewValidationError("cart is empty")
	ErrCartNotFound        = NewValidationError("cart not found")
	ErrCouponNotFound      = NewNotFoundError("invalid coupon code")
	ErrCouponNotValid      = NewValidationError("coupon is not valid")
	ErrCouponUsageExceeded = NewConflictError("coupon usage limit exceeded")
	ErrInvalidAddress      = NewValidationError("invalid address")
	ErrInsufficientStock   = NewConflictError("insufficient stock")
	ErrOrderNotFound       = NewNotFoundError("order not found")
	ErrOrderAlreadyPaid    = NewStateError("order is already paid")
	ErrPaymentNotFound     = NewNotFoundError("payment not found")
	ErrInvalidRefundState  = NewStateError("payment cannot be refunded")
	ErrRefundExceedsAmount = NewConflictError("refund amount exceeds remaining amount")
	ErrShipmentNotFound    = NewNotFoundError("shipment not found")
	ErrInvalidStatus       = NewValidationError("invalid status")
)
