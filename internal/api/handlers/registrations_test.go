package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/inscrevo/server/internal/audit"
	"github.com/inscrevo/server/internal/domain/events"
	"github.com/inscrevo/server/internal/domain/registrations"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const (
	testEventID    = "01JC0EVENT0000000000000000"
	testModalityID = "01JC0MODAL0000000000000000"
)

type memRegistrationsRepo struct {
	regs map[string]*registrations.Registration
	paid bool
}

func newMemRegistrationsRepo() *memRegistrationsRepo {
	return &memRegistrationsRepo{regs: map[string]*registrations.Registration{}}
}

func (m *memRegistrationsRepo) Insert(_ context.Context, reg *registrations.Registration) error {
	reg.CreatedAt = time.Now().UTC()
	copied := *reg
	m.regs[reg.ID] = &copied
	return nil
}

func (m *memRegistrationsRepo) GetByID(_ context.Context, id string) (*registrations.Registration, error) {
	reg, ok := m.regs[id]
	if !ok {
		return nil, registrations.ErrRegistrationNotFound
	}
	copied := *reg
	return &copied, nil
}

func (m *memRegistrationsRepo) ListByUser(_ context.Context, userID string) ([]registrations.Registration, error) {
	var out []registrations.Registration
	for _, reg := range m.regs {
		if reg.UserID == userID {
			out = append(out, *reg)
		}
	}
	return out, nil
}

func (m *memRegistrationsRepo) UpdateStatus(_ context.Context, id string, status registrations.Status) error {
	reg, ok := m.regs[id]
	if !ok {
		return registrations.ErrRegistrationNotFound
	}
	reg.Status = status
	return nil
}

func (m *memRegistrationsRepo) HasPaidPayment(_ context.Context, registrationID string) (bool, error) {
	return m.paid, nil
}

type memEventsRepo struct {
	events     map[string]*events.Event
	modalities map[string]*events.Modality
}

func newMemEventsRepo() *memEventsRepo {
	return &memEventsRepo{
		events:     map[string]*events.Event{},
		modalities: map[string]*events.Modality{},
	}
}

func (m *memEventsRepo) List(_ context.Context, _ events.Filters, _ events.Pagination) (events.ListResult, error) {
	result := events.ListResult{}
	for _, event := range m.events {
		result.Events = append(result.Events, *event)
	}
	return result, nil
}

func (m *memEventsRepo) GetByULID(_ context.Context, ulid string) (*events.Event, error) {
	event, ok := m.events[ulid]
	if !ok {
		return nil, events.ErrEventNotFound
	}
	copied := *event
	return &copied, nil
}

func (m *memEventsRepo) GetModalityByULID(_ context.Context, ulid string) (*events.Modality, error) {
	modality, ok := m.modalities[ulid]
	if !ok {
		return nil, events.ErrModalityNotFound
	}
	copied := *modality
	return &copied, nil
}

func seedOpenEvent(repo *memEventsRepo) {
	repo.events[testEventID] = &events.Event{
		ID:        testEventID,
		Name:      "Corrida da Primavera",
		City:      "Curitiba",
		Published: true,
		StartsAt:  time.Now().Add(30 * 24 * time.Hour),
		EndsAt:    time.Now().Add(31 * 24 * time.Hour),
	}
	repo.modalities[testModalityID] = &events.Modality{
		ID:         testModalityID,
		EventID:    testEventID,
		Name:       "10K",
		PriceCents: 10000,
	}
}

func newRegistrationsHandler(t *testing.T, repo *memRegistrationsRepo, eventsRepo *memEventsRepo) *RegistrationsHandler {
	t.Helper()
	service := registrations.NewService(repo, eventsRepo, audit.NewLogger(), zerolog.Nop())
	return NewRegistrationsHandler(service, "test")
}

func TestCreateRegistrationComputesAmounts(t *testing.T) {
	repo := newMemRegistrationsRepo()
	eventsRepo := newMemEventsRepo()
	seedOpenEvent(eventsRepo)
	handler := newRegistrationsHandler(t, repo, eventsRepo)

	body := `{"event_id":"` + testEventID + `","modality_id":"` + testModalityID +
		`","participant_name":"Ana Souza","participant_email":"ana@example.com"}`
	req := authedRequest(http.MethodPost, "/api/v1/registrations", body)
	res := httptest.NewRecorder()

	handler.Create(res, req)

	require.Equal(t, http.StatusCreated, res.Code)
	var resp registrationResponse
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &resp))
	require.Equal(t, int64(10000), resp.BaseAmountCents)
	require.Equal(t, int64(500), resp.ServiceFeeCents)
	require.Equal(t, int64(10500), resp.FinalAmountCents)
	require.Equal(t, testUserID, resp.UserID)
}

func TestCreateRegistrationRejectsMissingEmail(t *testing.T) {
	handler := newRegistrationsHandler(t, newMemRegistrationsRepo(), newMemEventsRepo())

	body := `{"event_id":"` + testEventID + `","modality_id":"` + testModalityID +
		`","participant_name":"Ana Souza"}`
	req := authedRequest(http.MethodPost, "/api/v1/registrations", body)
	res := httptest.NewRecorder()

	handler.Create(res, req)
	require.Equal(t, http.StatusBadRequest, res.Code)
}

func TestCancelRegistrationBlockedAfterPayment(t *testing.T) {
	repo := newMemRegistrationsRepo()
	repo.paid = true
	repo.regs[testRegID] = &registrations.Registration{
		ID:     testRegID,
		UserID: testUserID,
		Status: registrations.StatusConfirmed,
	}
	handler := newRegistrationsHandler(t, repo, newMemEventsRepo())

	req := authedRequest(http.MethodPost, "/api/v1/registrations/"+testRegID+"/cancel", "")
	req.SetPathValue("id", testRegID)
	res := httptest.NewRecorder()

	handler.Cancel(res, req)
	require.Equal(t, http.StatusConflict, res.Code)
}

func TestCancelRegistrationDeniedForStranger(t *testing.T) {
	repo := newMemRegistrationsRepo()
	repo.regs[testRegID] = &registrations.Registration{
		ID:     testRegID,
		UserID: "01JC0OTHER0000000000000000",
		Status: registrations.StatusPending,
	}
	handler := newRegistrationsHandler(t, repo, newMemEventsRepo())

	req := authedRequest(http.MethodPost, "/api/v1/registrations/"+testRegID+"/cancel", "")
	req.SetPathValue("id", testRegID)
	res := httptest.NewRecorder()

	handler.Cancel(res, req)
	require.Equal(t, http.StatusForbidden, res.Code)
}

func TestListMineReturnsOwnRegistrations(t *testing.T) {
	repo := newMemRegistrationsRepo()
	repo.regs[testRegID] = &registrations.Registration{
		ID:     testRegID,
		UserID: testUserID,
		Status: registrations.StatusPending,
	}
	handler := newRegistrationsHandler(t, repo, newMemEventsRepo())

	req := authedRequest(http.MethodGet, "/api/v1/registrations/me", "")
	res := httptest.NewRecorder()

	handler.ListMine(res, req)

	require.Equal(t, http.StatusOK, res.Code)
	require.True(t, strings.Contains(res.Body.String(), testRegID))
}
