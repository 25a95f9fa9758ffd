package registrations

import (
	"context"
	"fmt"
	"time"

	"github.com/inscrevo/server/internal/audit"
	"github.com/inscrevo/server/internal/domain/events"
	"github.com/inscrevo/server/internal/domain/ids"
	"github.com/rs/zerolog"
)

// DefaultServiceFeeBps is the platform service fee in basis points of the
// modality price.
const DefaultServiceFeeBps = 500 // 5%

// Service coordinates registration creation and cancellation.
type Service struct {
	repo          Repository
	eventsRepo    events.Repository
	auditLogger   *audit.Logger
	serviceFeeBps int64
	logger        zerolog.Logger
}

func NewService(repo Repository, eventsRepo events.Repository, auditLogger *audit.Logger, logger zerolog.Logger) *Service {
	return &Service{
		repo:          repo,
		eventsRepo:    eventsRepo,
		auditLogger:   auditLogger,
		serviceFeeBps: DefaultServiceFeeBps,
		logger:        logger.With().Str("component", "registrations").Logger(),
	}
}

// CreateParams describes a new registration. ParticipantUserID is set when
// the acting user registers someone else; the acting user is then recorded
// as the inviter.
type CreateParams struct {
	EventID           string
	ModalityID        string
	ParticipantUserID string
	ParticipantName   string
	ParticipantEmail  string
	DiscountCents     int64
}

// Create registers a participant for an event modality and computes the
// monetary breakdown from the modality price.
func (s *Service) Create(ctx context.Context, actingUserID string, params CreateParams) (*Registration, error) {
	event, err := s.eventsRepo.GetByULID(ctx, params.EventID)
	if err != nil {
		return nil, fmt.Errorf("load event: %w", err)
	}
	if !event.Published || time.Now().After(event.StartsAt) {
		return nil, ErrEventClosed
	}

	modality, err := s.eventsRepo.GetModalityByULID(ctx, params.ModalityID)
	if err != nil {
		return nil, fmt.Errorf("load modality: %w", err)
	}
	if modality.EventID != event.ID {
		return nil, events.ErrModalityNotFound
	}

	participantID := actingUserID
	var invitedBy *string
	if params.ParticipantUserID != "" && params.ParticipantUserID != actingUserID {
		participantID = params.ParticipantUserID
		inviter := actingUserID
		invitedBy = &inviter
	}

	base := modality.PriceCents
	fee := base * s.serviceFeeBps / 10000
	discount := params.DiscountCents
	if discount < 0 {
		discount = 0
	}
	if discount > base+fee {
		discount = base + fee
	}

	reg := &Registration{
		ID:               ids.MustNewULID(),
		EventID:          event.ID,
		ModalityID:       modality.ID,
		UserID:           participantID,
		InvitedByID:      invitedBy,
		Status:           StatusPending,
		BaseAmountCents:  base,
		ServiceFeeCents:  fee,
		DiscountCents:    discount,
		FinalAmountCents: base + fee - discount,
		PayerName:        params.ParticipantName,
		PayerEmail:       params.ParticipantEmail,
	}

	if err := s.repo.Insert(ctx, reg); err != nil {
		return nil, fmt.Errorf("insert registration: %w", err)
	}

	s.logger.Info().
		Str("registration_id", reg.ID).
		Str("event_id", event.ID).
		Str("modality_id", modality.ID).
		Int64("final_amount_cents", reg.FinalAmountCents).
		Msg("registration created")
	s.auditLogger.LogSuccess("registration.created", actingUserID, "registration", reg.ID, map[string]string{
		"event_id": event.ID,
	})

	return reg, nil
}

// Get returns a registration if the acting user owns it or invited its
// participant.
func (s *Service) Get(ctx context.Context, actingUserID, registrationID string) (*Registration, error) {
	reg, err := s.repo.GetByID(ctx, registrationID)
	if err != nil {
		return nil, err
	}
	if !canAccess(reg, actingUserID) {
		return nil, ErrAccessDenied
	}
	return reg, nil
}

// ListForUser returns the registrations where the user is the participant.
func (s *Service) ListForUser(ctx context.Context, userID string) ([]Registration, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Cancel marks a registration CANCELLED. Blocked once a payment is PAID;
// refunds go through the payment flow, not here.
func (s *Service) Cancel(ctx context.Context, actingUserID, registrationID string) (*Registration, error) {
	reg, err := s.repo.GetByID(ctx, registrationID)
	if err != nil {
		return nil, err
	}
	if !canAccess(reg, actingUserID) {
		return nil, ErrAccessDenied
	}
	if reg.Status == StatusCancelled {
		return nil, ErrAlreadyCancelled
	}

	paid, err := s.repo.HasPaidPayment(ctx, reg.ID)
	if err != nil {
		return nil, fmt.Errorf("check payments: %w", err)
	}
	if paid {
		return nil, ErrAlreadyPaid
	}

	if err := s.repo.UpdateStatus(ctx, reg.ID, StatusCancelled); err != nil {
		return nil, fmt.Errorf("cancel registration: %w", err)
	}
	reg.Status = StatusCancelled

	s.logger.Info().Str("registration_id", reg.ID).Msg("registration cancelled")
	s.auditLogger.LogSuccess("registration.cancelled", actingUserID, "registration", reg.ID, nil)

	return reg, nil
}

func canAccess(reg *Registration, userID string) bool {
	if reg.UserID == userID {
		return true
	}
	return reg.InvitedByID != nil && *reg.InvitedByID == userID
}
