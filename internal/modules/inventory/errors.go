package inventory

import "errors"

var (
	ErrNotFound         = errors.New("transaction not found")
	ErrMaterialNotFound = errors.New("material not found")
	ErrInvalidQuantity  = errors.New("quantity must be a positive integer")
	ErrValidation       = errors.New("validation error")
)
