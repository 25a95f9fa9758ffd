package registrations

import "context"

// Repository is the storage contract for registrations. Implemented by
// internal/storage/postgres.
type Repository interface {
	Insert(ctx context.Context, reg *Registration) error
	GetByID(ctx context.Context, id string) (*Registration, error)
	ListByUser(ctx context.Context, userID string) ([]Registration, error)
	UpdateStatus(ctx context.Context, id string, status Status) error

	// HasPaidPayment reports whether the registration has a payment in
	// PAID status. Used to block cancellation after money moved.
	HasPaidPayment(ctx context.Context, registrationID string) (bool, error)
}
