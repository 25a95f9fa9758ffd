package registrations

import (
	"context"
	"testing"
	"time"

	"github.com/inscrevo/server/internal/audit"
	"github.com/inscrevo/server/internal/domain/events"
	"github.com/inscrevo/server/internal/domain/ids"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	regs     map[string]*Registration
	paid     map[string]bool
	inserted []*Registration
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{regs: map[string]*Registration{}, paid: map[string]bool{}}
}

func (f *fakeRepo) Insert(_ context.Context, reg *Registration) error {
	f.regs[reg.ID] = reg
	f.inserted = append(f.inserted, reg)
	return nil
}

func (f *fakeRepo) GetByID(_ context.Context, id string) (*Registration, error) {
	reg, ok := f.regs[id]
	if !ok {
		return nil, ErrRegistrationNotFound
	}
	copied := *reg
	return &copied, nil
}

func (f *fakeRepo) ListByUser(_ context.Context, userID string) ([]Registration, error) {
	var out []Registration
	for _, reg := range f.regs {
		if reg.UserID == userID {
			out = append(out, *reg)
		}
	}
	return out, nil
}

func (f *fakeRepo) UpdateStatus(_ context.Context, id string, status Status) error {
	reg, ok := f.regs[id]
	if !ok {
		return ErrRegistrationNotFound
	}
	reg.Status = status
	return nil
}

func (f *fakeRepo) HasPaidPayment(_ context.Context, registrationID string) (bool, error) {
	return f.paid[registrationID], nil
}

type fakeEventsRepo struct {
	event    *events.Event
	modality *events.Modality
}

func (f *fakeEventsRepo) List(context.Context, events.Filters, events.Pagination) (events.ListResult, error) {
	return events.ListResult{}, nil
}

func (f *fakeEventsRepo) GetByULID(_ context.Context, ulid string) (*events.Event, error) {
	if f.event == nil || f.event.ID != ulid {
		return nil, events.ErrEventNotFound
	}
	return f.event, nil
}

func (f *fakeEventsRepo) GetModalityByULID(_ context.Context, ulid string) (*events.Modality, error) {
	if f.modality == nil || f.modality.ID != ulid {
		return nil, events.ErrModalityNotFound
	}
	return f.modality, nil
}

func newTestService(repo *fakeRepo, eventsRepo *fakeEventsRepo) *Service {
	return NewService(repo, eventsRepo, audit.NewLogger(), zerolog.Nop())
}

func openEventFixture() (*events.Event, *events.Modality) {
	eventID := ids.MustNewULID()
	modality := &events.Modality{
		ID:         ids.MustNewULID(),
		EventID:    eventID,
		Name:       "10K",
		PriceCents: 10000,
	}
	event := &events.Event{
		ID:        eventID,
		Name:      "Corrida da Cidade",
		Published: true,
		StartsAt:  time.Now().Add(30 * 24 * time.Hour),
	}
	return event, modality
}

func TestCreateComputesAmounts(t *testing.T) {
	event, modality := openEventFixture()
	repo := newFakeRepo()
	svc := newTestService(repo, &fakeEventsRepo{event: event, modality: modality})

	reg, err := svc.Create(context.Background(), "user-1", CreateParams{
		EventID:          event.ID,
		ModalityID:       modality.ID,
		ParticipantName:  "Ana Souza",
		ParticipantEmail: "ana@example.com",
	})
	require.NoError(t, err)
	require.Equal(t, StatusPending, reg.Status)
	require.Equal(t, int64(10000), reg.BaseAmountCents)
	require.Equal(t, int64(500), reg.ServiceFeeCents)
	require.Equal(t, int64(10500), reg.FinalAmountCents)
	require.Equal(t, "user-1", reg.UserID)
	require.Nil(t, reg.InvitedByID)
	require.NoError(t, ids.ValidateULID(reg.ID))
}

func TestCreateOnBehalfRecordsInviter(t *testing.T) {
	event, modality := openEventFixture()
	repo := newFakeRepo()
	svc := newTestService(repo, &fakeEventsRepo{event: event, modality: modality})

	reg, err := svc.Create(context.Background(), "inviter-1", CreateParams{
		EventID:           event.ID,
		ModalityID:        modality.ID,
		ParticipantUserID: "friend-1",
		ParticipantName:   "Bruno Lima",
		ParticipantEmail:  "bruno@example.com",
	})
	require.NoError(t, err)
	require.Equal(t, "friend-1", reg.UserID)
	require.NotNil(t, reg.InvitedByID)
	require.Equal(t, "inviter-1", *reg.InvitedByID)
}

func TestCreateRejectsClosedEvent(t *testing.T) {
	event, modality := openEventFixture()
	event.StartsAt = time.Now().Add(-time.Hour)
	svc := newTestService(newFakeRepo(), &fakeEventsRepo{event: event, modality: modality})

	_, err := svc.Create(context.Background(), "user-1", CreateParams{
		EventID:    event.ID,
		ModalityID: modality.ID,
	})
	require.ErrorIs(t, err, ErrEventClosed)
}

func TestCreateRejectsModalityFromAnotherEvent(t *testing.T) {
	event, modality := openEventFixture()
	modality.EventID = ids.MustNewULID()
	svc := newTestService(newFakeRepo(), &fakeEventsRepo{event: event, modality: modality})

	_, err := svc.Create(context.Background(), "user-1", CreateParams{
		EventID:    event.ID,
		ModalityID: modality.ID,
	})
	require.ErrorIs(t, err, events.ErrModalityNotFound)
}

func TestCreateClampsDiscount(t *testing.T) {
	event, modality := openEventFixture()
	svc := newTestService(newFakeRepo(), &fakeEventsRepo{event: event, modality: modality})

	reg, err := svc.Create(context.Background(), "user-1", CreateParams{
		EventID:       event.ID,
		ModalityID:    modality.ID,
		DiscountCents: 999999,
	})
	require.NoError(t, err)
	require.Equal(t, int64(0), reg.FinalAmountCents)
}

func TestCancel(t *testing.T) {
	event, modality := openEventFixture()
	repo := newFakeRepo()
	svc := newTestService(repo, &fakeEventsRepo{event: event, modality: modality})

	reg, err := svc.Create(context.Background(), "user-1", CreateParams{
		EventID:    event.ID,
		ModalityID: modality.ID,
	})
	require.NoError(t, err)

	cancelled, err := svc.Cancel(context.Background(), "user-1", reg.ID)
	require.NoError(t, err)
	require.Equal(t, StatusCancelled, cancelled.Status)

	_, err = svc.Cancel(context.Background(), "user-1", reg.ID)
	require.ErrorIs(t, err, ErrAlreadyCancelled)
}

func TestCancelDeniedForStranger(t *testing.T) {
	event, modality := openEventFixture()
	repo := newFakeRepo()
	svc := newTestService(repo, &fakeEventsRepo{event: event, modality: modality})

	reg, err := svc.Create(context.Background(), "user-1", CreateParams{
		EventID:    event.ID,
		ModalityID: modality.ID,
	})
	require.NoError(t, err)

	_, err = svc.Cancel(context.Background(), "someone-else", reg.ID)
	require.ErrorIs(t, err, ErrAccessDenied)
}

func TestCancelBlockedAfterPayment(t *testing.T) {
	event, modality := openEventFixture()
	repo := newFakeRepo()
	svc := newTestService(repo, &fakeEventsRepo{event: event, modality: modality})

	reg, err := svc.Create(context.Background(), "user-1", CreateParams{
		EventID:    event.ID,
		ModalityID: modality.ID,
	})
	require.NoError(t, err)
	repo.paid[reg.ID] = true

	_, err = svc.Cancel(context.Background(), "user-1", reg.ID)
	require.ErrorIs(t, err, ErrAlreadyPaid)
}

func TestGetAllowsInviter(t *testing.T) {
	event, modality := openEventFixture()
	repo := newFakeRepo()
	svc := newTestService(repo, &fakeEventsRepo{event: event, modality: modality})

	reg, err := svc.Create(context.Background(), "inviter-1", CreateParams{
		EventID:           event.ID,
		ModalityID:        modality.ID,
		ParticipantUserID: "friend-1",
	})
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), "inviter-1", reg.ID)
	require.NoError(t, err)
	require.Equal(t, reg.ID, got.ID)

	_, err = svc.Get(context.Background(), "stranger", reg.ID)
	require.ErrorIs(t, err, ErrAccessDenied)
}
