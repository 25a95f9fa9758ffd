package events

import "time"

// Event is a published event open for registration.
type Event struct {
	ID          string // ULID
	Name        string
	Description string
	City        string
	Region      string
	Venue       string
	StartsAt    time.Time
	EndsAt      time.Time
	Published   bool
	Modalities  []Modality
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Modality is one way to participate in an event (distance, category),
// with its own price and kit.
type Modality struct {
	ID             string // ULID
	EventID        string
	Name           string
	DistanceMeters int
	PriceCents     int64
	KitDescription string
	CreatedAt      time.Time
}

// Filters narrows an event listing.
type Filters struct {
	StartDate *time.Time
	EndDate   *time.Time
	City      string
	Region    string
	Query     string
}

// Pagination is cursor-based: After is the ULID of the last event on the
// previous page.
type Pagination struct {
	Limit int
	After string
}

// ListResult is one page of events plus the cursor for the next page.
type ListResult struct {
	Events     []Event
	NextCursor string
}
