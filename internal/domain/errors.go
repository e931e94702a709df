package domain

import "errors"

// Domain errors for the inventory ledger
var (
	ErrRecordNotFound       = errors.New("stock record not found")
	ErrRecordExists         = errors.New("stock record already exists")
	ErrRecordBusy           = errors.New("stock record is busy")
	ErrInvalidProductID     = errors.New("invalid product id")
	ErrInvalidQuantity      = errors.New("invalid quantity: must not be negative")
	ErrInvalidThreshold     = errors.New("invalid threshold: must not be negative")
	ErrInvalidMovementType  = errors.New("invalid movement type")
	ErrInvalidReferenceType = errors.New("invalid reference type")
	ErrMissingReason        = errors.New("movement reason is required")
	ErrMissingActor         = errors.New("performed by is required")
	ErrVariantNotFound      = errors.New("variant not found")
	ErrDuplicateVariant     = errors.New("variant already exists on record")
	ErrInvalidUnitPrice     = errors.New("invalid unit price: must not be negative")
)
