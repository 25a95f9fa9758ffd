package payments

import "time"

// Status is the lifecycle state of a payment attempt. Transitions are
// enforced by the ledger; see CanTransition.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusPaid     Status = "PAID"
	StatusFailed   Status = "FAILED"
	StatusRefunded Status = "REFUNDED"
)

// Method is the payment method chosen by the payer. Crypto is declared so
// the API can name it in errors, but the gateway does not support it and
// charge creation fails fast.
type Method string

const (
	MethodCreditCard Method = "credit_card"
	MethodPix        Method = "pix"
	MethodBoleto     Method = "boleto"
	MethodCrypto     Method = "crypto"
)

// ValidMethod reports whether m is a method the API accepts at all
// (supported or not by the gateway).
func ValidMethod(m Method) bool {
	switch m {
	case MethodCreditCard, MethodPix, MethodBoleto, MethodCrypto:
		return true
	}
	return false
}

// Payment is one attempt to collect money for a registration. At most one
// payment exists per registration (UNIQUE constraint in storage).
type Payment struct {
	ID             string // ULID
	RegistrationID string
	UserID         string // payer; authorization subject for confirm/process
	Method         Method
	AmountCents    int64
	Status         Status
	TransactionID  string // gateway charge id
	Metadata       Metadata
	PaidAt         *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Metadata is the typed snapshot of gateway artifacts plus the trail of
// reconciliation evidence. Exactly one of Pix/Boleto/Card is set, keyed by
// the payment method.
type Metadata struct {
	Pix            *PixArtifacts    `json:"pix,omitempty"`
	Boleto         *BoletoArtifacts `json:"boleto,omitempty"`
	Card           *CardArtifacts   `json:"card,omitempty"`
	Reconciliation []Evidence       `json:"reconciliation,omitempty"`
}

// PixArtifacts carries what the payer needs to complete a PIX transfer.
type PixArtifacts struct {
	QRCodeBase64 string    `json:"qr_code_base64,omitempty"`
	QRCodeText   string    `json:"qr_code_text,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// BoletoArtifacts carries the printable boleto references.
type BoletoArtifacts struct {
	URL           string    `json:"url,omitempty"`
	DigitableLine string    `json:"digitable_line,omitempty"`
	Barcode       string    `json:"barcode,omitempty"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// CardArtifacts carries card authorization references, including the 3-DS
// challenge URL when the issuer requires authentication.
type CardArtifacts struct {
	Brand             string `json:"brand,omitempty"`
	AuthenticationURL string `json:"authentication_url,omitempty"`
	AuthorizationCode string `json:"authorization_code,omitempty"`
	TID               string `json:"tid,omitempty"`
}

// Evidence records one reconciliation of local state against the gateway.
// Appended on every ledger transition, never rewritten.
type Evidence struct {
	ProviderStatus int       `json:"provider_status"`
	Source         string    `json:"source"` // "confirm", "poll", "webhook", "sweep"
	ReturnCode     string    `json:"return_code,omitempty"`
	ReturnMessage  string    `json:"return_message,omitempty"`
	ReconciledAt   time.Time `json:"reconciled_at"`
}

// ArtifactExpiry returns when the pending charge stops being payable, or
// false for methods without an expiring artifact.
func (p *Payment) ArtifactExpiry() (time.Time, bool) {
	switch {
	case p.Metadata.Pix != nil && !p.Metadata.Pix.ExpiresAt.IsZero():
		return p.Metadata.Pix.ExpiresAt, true
	case p.Metadata.Boleto != nil && !p.Metadata.Boleto.ExpiresAt.IsZero():
		return p.Metadata.Boleto.ExpiresAt, true
	}
	return time.Time{}, false
}
