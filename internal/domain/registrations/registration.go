package registrations

import "time"

// Status is the lifecycle state of a registration. A registration is never
// deleted, only cancelled.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
)

// Registration is a user's intent to participate in an event modality,
// together with the money breakdown the payment will collect.
type Registration struct {
	ID          string // ULID
	EventID     string
	ModalityID  string
	UserID      string  // participant / payer
	InvitedByID *string // set when someone registered this user
	Status      Status

	BaseAmountCents  int64
	ServiceFeeCents  int64
	DiscountCents    int64
	FinalAmountCents int64

	PayerName  string
	PayerEmail string

	CreatedAt time.Time
	UpdatedAt time.Time
}
