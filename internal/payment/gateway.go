// Package payment talks to the card payment gateway.
package payment

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrUnknownOutcome means the request may or may not have reached the gateway.
// The payment has to be reconciled with a lookup, never treated as failed.
var ErrUnknownOutcome = errors.New("payment gateway outcome unknown")

// Gateway statuses of a payment.
const (
	StatusDone     = "DONE"
	StatusCanceled = "CANCELED"
	StatusAborted  = "ABORTED"
	StatusExpired  = "EXPIRED"
)

type ConfirmRequest struct {
	PaymentKey string `json:"paymentKey"`
	OrderID    string `json:"orderId"`
	Amount     int64  `json:"amount"`
}

type Result struct {
	PaymentKey  string
	OrderID     string
	Status      string
	Method      string
	TotalAmount int64
	ApprovedAt  time.Time
}

type Gateway interface {
	Confirm(ctx context.Context, req ConfirmRequest) (*Result, error)
	Lookup(ctx context.Context, paymentKey string) (*Result, error)
}

// GatewayError is a definite failure: the gateway answered with an error status or a body we cannot use.
type GatewayError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *GatewayError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("payment gateway: status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("payment gateway: status %d: %s: %s", e.StatusCode, e.Code, e.Message)
}

func (e *GatewayError) NotFound() bool {
	return e.StatusCode == 404
}
