package cielo

import "github.com/inscrevo/server/internal/domain/payments"

// Provider status codes, per the Cielo transaction lifecycle.
const (
	StatusNotFinished      = 0
	StatusAuthorized       = 1
	StatusPaymentConfirmed = 2
	StatusDenied           = 3
	StatusVoided           = 10
	StatusRefunded         = 11
	StatusPending          = 12
	StatusAborted          = 13
	StatusScheduled        = 20
)

// NormalizeStatus maps a raw provider status code to a local payment
// status. The table is closed: raw codes never leave this package.
// Unrecognized codes map to PENDING, never to PAID: an unmapped code must
// never be treated as money received.
func NormalizeStatus(code int) payments.Status {
	switch code {
	case StatusPaymentConfirmed:
		return payments.StatusPaid
	case StatusDenied, StatusVoided, StatusAborted:
		return payments.StatusFailed
	case StatusRefunded:
		return payments.StatusRefunded
	case StatusNotFinished, StatusAuthorized, StatusPending, StatusScheduled:
		return payments.StatusPending
	default:
		return payments.StatusPending
	}
}
