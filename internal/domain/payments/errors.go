package payments

import (
	"errors"
	"fmt"
)

var (
	ErrPaymentNotFound       = errors.New("payment not found")
	ErrRegistrationNotFound  = errors.New("registration not found")
	ErrAccessDenied          = errors.New("payment does not belong to user")
	ErrRegistrationCancelled = errors.New("registration is cancelled")
	ErrPaymentExists         = errors.New("registration already has a payment")
	ErrAlreadyPaid           = errors.New("payment already processed")
	ErrMissingTransactionID  = errors.New("payment has no gateway transaction reference")
	ErrUnsupportedMethod     = errors.New("payment method not supported by gateway")
	ErrChargeNotFound        = errors.New("charge not found at gateway")
)

// GatewayError is a gateway call that failed or was denied. Message carries
// the provider-supplied text when available so handlers can show it to the
// payer.
type GatewayError struct {
	Operation string
	Message   string
}

func (e *GatewayError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("payment gateway %s failed", e.Operation)
	}
	return fmt.Sprintf("payment gateway %s failed: %s", e.Operation, e.Message)
}

// NewGatewayError builds a GatewayError with a generic message fallback.
func NewGatewayError(operation, message string) *GatewayError {
	if message == "" {
		message = "the payment provider could not process the request"
	}
	return &GatewayError{Operation: operation, Message: message}
}
