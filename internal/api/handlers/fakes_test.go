package handlers

import (
	"context"
	"time"

	"github.com/inscrevo/server/internal/domain/payments"
	"github.com/inscrevo/server/internal/domain/registrations"
)

// memStore is a minimal in-memory payments.Store for handler tests.
type memStore struct {
	payments      map[string]*payments.Payment
	registrations map[string]*registrations.Registration
}

func newMemStore() *memStore {
	return &memStore{
		payments:      map[string]*payments.Payment{},
		registrations: map[string]*registrations.Registration{},
	}
}

func (m *memStore) InsertPayment(_ context.Context, p *payments.Payment) error {
	for _, existing := range m.payments {
		if existing.RegistrationID == p.RegistrationID {
			return payments.ErrPaymentExists
		}
	}
	p.CreatedAt = time.Now().UTC()
	copied := *p
	m.payments[p.ID] = &copied
	return nil
}

func (m *memStore) GetPayment(_ context.Context, id string) (*payments.Payment, error) {
	p, ok := m.payments[id]
	if !ok {
		return nil, payments.ErrPaymentNotFound
	}
	copied := *p
	return &copied, nil
}

func (m *memStore) GetPaymentForUpdate(ctx context.Context, id string) (*payments.Payment, error) {
	return m.GetPayment(ctx, id)
}

func (m *memStore) GetPaymentByTransactionID(_ context.Context, transactionID string) (*payments.Payment, error) {
	for _, p := range m.payments {
		if p.TransactionID == transactionID {
			copied := *p
			return &copied, nil
		}
	}
	return nil, payments.ErrPaymentNotFound
}

func (m *memStore) GetPaymentByRegistrationID(_ context.Context, registrationID string) (*payments.Payment, error) {
	for _, p := range m.payments {
		if p.RegistrationID == registrationID {
			copied := *p
			return &copied, nil
		}
	}
	return nil, payments.ErrPaymentNotFound
}

func (m *memStore) UpdatePayment(_ context.Context, id string, status payments.Status, metadata payments.Metadata, paidAt *time.Time) error {
	p, ok := m.payments[id]
	if !ok {
		return payments.ErrPaymentNotFound
	}
	p.Status = status
	p.Metadata = metadata
	p.PaidAt = paidAt
	return nil
}

func (m *memStore) ListPaymentsByUser(_ context.Context, userID string) ([]payments.Payment, error) {
	var out []payments.Payment
	for _, p := range m.payments {
		if p.UserID == userID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *memStore) ListStalePending(_ context.Context, cutoff time.Time, limit int) ([]payments.Payment, error) {
	var out []payments.Payment
	for _, p := range m.payments {
		if p.Status == payments.StatusPending && p.CreatedAt.Before(cutoff) && len(out) < limit {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *memStore) GetRegistration(_ context.Context, id string) (*registrations.Registration, error) {
	reg, ok := m.registrations[id]
	if !ok {
		return nil, payments.ErrRegistrationNotFound
	}
	copied := *reg
	return &copied, nil
}

func (m *memStore) UpdateRegistrationStatus(_ context.Context, id string, status registrations.Status) error {
	reg, ok := m.registrations[id]
	if !ok {
		return payments.ErrRegistrationNotFound
	}
	reg.Status = status
	return nil
}

func (m *memStore) WithTx(ctx context.Context, fn func(ctx context.Context, s payments.Store) error) error {
	return fn(ctx, m)
}

// stubGateway returns scripted results.
type stubGateway struct {
	createResult payments.ChargeResult
	createErr    error

	captureResult payments.ChargeResult

	getState *payments.ChargeState
	getErr   error
}

func (g *stubGateway) CreateCharge(_ context.Context, req payments.ChargeRequest) (payments.ChargeResult, error) {
	if req.Method == payments.MethodCrypto {
		return payments.ChargeResult{}, payments.ErrUnsupportedMethod
	}
	return g.createResult, g.createErr
}

func (g *stubGateway) CaptureCharge(_ context.Context, chargeID string, amountCents int64) payments.ChargeResult {
	return g.captureResult
}

func (g *stubGateway) VoidCharge(_ context.Context, chargeID string, amountCents int64) payments.ChargeResult {
	return payments.ChargeResult{Success: true, ChargeID: chargeID}
}

func (g *stubGateway) GetCharge(_ context.Context, chargeID string) (*payments.ChargeState, error) {
	return g.getState, g.getErr
}
