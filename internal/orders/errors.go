package orders

import "errors"

var (
	ErrValidation        = errors.New("invalid order")
	ErrNotFound          = errors.New("order not found")
	ErrIllegalTransition = errors.New("illegal status transition")
	// ErrParse marks malformed timestamps and locations. It never leaves
	// aggregation or dispatch.
	ErrParse = errors.New("parse error")
)
