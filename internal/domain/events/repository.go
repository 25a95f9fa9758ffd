package events

import (
	"context"
	"errors"
)

var (
	ErrEventNotFound    = errors.New("event not found")
	ErrModalityNotFound = errors.New("modality not found")
)

// Repository is the storage contract for events. Implemented by
// internal/storage/postgres.
type Repository interface {
	List(ctx context.Context, filters Filters, pagination Pagination) (ListResult, error)
	GetByULID(ctx context.Context, ulid string) (*Event, error)
	GetModalityByULID(ctx context.Context, ulid string) (*Modality, error)
}
