package payments

import "context"

// Payer identifies who the charge is collected from, for the gateway's
// customer record.
type Payer struct {
	Name  string
	Email string
}

// ChargeRequest is a normalized outbound charge creation.
type ChargeRequest struct {
	OrderRef    string // registration ULID, the gateway's MerchantOrderId
	Method      Method
	AmountCents int64
	Currency    string
	Payer       Payer

	// Card fields, only for MethodCreditCard. The charge is authorized
	// only; capture happens in a separate step.
	CardToken    string
	Installments int
}

// ChargeResult is the fixed result shape of gateway mutations. Transport
// and provider failures come back as Success=false with Error set; they are
// never raw errors, so callers present one uniform message to the payer.
type ChargeResult struct {
	Success        bool
	ChargeID       string
	ProviderStatus int
	Status         Status // normalized from ProviderStatus
	Pix            *PixArtifacts
	Boleto         *BoletoArtifacts
	Card           *CardArtifacts
	Error          string
}

// ChargeState is the provider-side view of an existing charge.
type ChargeState struct {
	ChargeID       string
	ProviderStatus int
	Status         Status
}

// Gateway abstracts the external payment provider. Implemented by
// internal/gateway/cielo.
//
// CreateCharge returns ErrUnsupportedMethod without any network call for
// methods the provider cannot process. It is never retried by callers; a
// duplicate call could create a duplicate charge.
//
// GetCharge is an idempotent read: it returns (nil, nil) when the provider
// does not know the charge, so callers can tell "unknown" from "error".
type Gateway interface {
	CreateCharge(ctx context.Context, req ChargeRequest) (ChargeResult, error)
	CaptureCharge(ctx context.Context, chargeID string, amountCents int64) ChargeResult
	VoidCharge(ctx context.Context, chargeID string, amountCents int64) ChargeResult
	GetCharge(ctx context.Context, chargeID string) (*ChargeState, error)
}
