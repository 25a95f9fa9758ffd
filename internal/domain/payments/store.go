package payments

import (
	"context"
	"time"

	"github.com/inscrevo/server/internal/domain/registrations"
)

// Store is the storage contract for payments. Implemented by
// internal/storage/postgres.
//
// WithTx runs fn inside one database transaction; the Store passed to fn
// routes all calls through that transaction. GetPaymentForUpdate takes a
// row lock (SELECT ... FOR UPDATE) so concurrent status writers serialize
// per payment row; it is only meaningful inside WithTx.
type Store interface {
	InsertPayment(ctx context.Context, p *Payment) error
	GetPayment(ctx context.Context, id string) (*Payment, error)
	GetPaymentForUpdate(ctx context.Context, id string) (*Payment, error)
	GetPaymentByTransactionID(ctx context.Context, transactionID string) (*Payment, error)
	GetPaymentByRegistrationID(ctx context.Context, registrationID string) (*Payment, error)
	UpdatePayment(ctx context.Context, id string, status Status, metadata Metadata, paidAt *time.Time) error
	ListPaymentsByUser(ctx context.Context, userID string) ([]Payment, error)

	// ListStalePending returns PENDING payments created before cutoff,
	// oldest first, for the reconciliation sweep.
	ListStalePending(ctx context.Context, cutoff time.Time, limit int) ([]Payment, error)

	GetRegistration(ctx context.Context, id string) (*registrations.Registration, error)
	UpdateRegistrationStatus(ctx context.Context, id string, status registrations.Status) error

	WithTx(ctx context.Context, fn func(ctx context.Context, s Store) error) error
}
