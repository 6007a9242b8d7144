package service

import "errors"

var (
	ErrValidation  = errors.New("validation")  // 400
	ErrNotFound    = errors.New("not found")   // 404
	ErrConflict    = errors.New("conflict")    // 409
	ErrGateway     = errors.New("gateway")     // 502
	ErrPersistence = errors.New("persistence") // 500

	// ErrPaymentUnknown: the gateway may have captured the payment; reconcile before retrying.
	ErrPaymentUnknown = errors.New("payment outcome unknown") // 202

	// Product registration sub-kinds, all validation failures.
	ErrDuplicateName  = errors.New("duplicate product name")
	ErrMissingOptions = errors.New("product has no options")
	ErrMissingImages  = errors.New("product has no images")
)
