package payments

import (
	"context"
	"errors"
	"time"

	"github.com/inscrevo/server/internal/domain/registrations"
)

// fakeStore is an in-memory Store. WithTx runs fn against the same store;
// transactional atomicity is exercised in the integration suite.
type fakeStore struct {
	payments      map[string]*Payment
	registrations map[string]*registrations.Registration

	regStatusUpdates int
	insertErr        error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		payments:      map[string]*Payment{},
		registrations: map[string]*registrations.Registration{},
	}
}

func (f *fakeStore) addRegistration(reg *registrations.Registration) {
	f.registrations[reg.ID] = reg
}

func (f *fakeStore) InsertPayment(_ context.Context, p *Payment) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	for _, existing := range f.payments {
		if existing.RegistrationID == p.RegistrationID {
			return ErrPaymentExists
		}
	}
	p.CreatedAt = time.Now().UTC()
	copied := *p
	f.payments[p.ID] = &copied
	return nil
}

func (f *fakeStore) GetPayment(_ context.Context, id string) (*Payment, error) {
	p, ok := f.payments[id]
	if !ok {
		return nil, ErrPaymentNotFound
	}
	copied := *p
	return &copied, nil
}

func (f *fakeStore) GetPaymentForUpdate(ctx context.Context, id string) (*Payment, error) {
	return f.GetPayment(ctx, id)
}

func (f *fakeStore) GetPaymentByTransactionID(_ context.Context, transactionID string) (*Payment, error) {
	for _, p := range f.payments {
		if p.TransactionID == transactionID {
			copied := *p
			return &copied, nil
		}
	}
	return nil, ErrPaymentNotFound
}

func (f *fakeStore) GetPaymentByRegistrationID(_ context.Context, registrationID string) (*Payment, error) {
	for _, p := range f.payments {
		if p.RegistrationID == registrationID {
			copied := *p
			return &copied, nil
		}
	}
	return nil, ErrPaymentNotFound
}

func (f *fakeStore) UpdatePayment(_ context.Context, id string, status Status, metadata Metadata, paidAt *time.Time) error {
	p, ok := f.payments[id]
	if !ok {
		return ErrPaymentNotFound
	}
	p.Status = status
	p.Metadata = metadata
	p.PaidAt = paidAt
	p.UpdatedAt = time.Now().UTC()
	return nil
}

func (f *fakeStore) ListPaymentsByUser(_ context.Context, userID string) ([]Payment, error) {
	var out []Payment
	for _, p := range f.payments {
		if p.UserID == userID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeStore) ListStalePending(_ context.Context, cutoff time.Time, limit int) ([]Payment, error) {
	var out []Payment
	for _, p := range f.payments {
		if p.Status == StatusPending && p.CreatedAt.Before(cutoff) {
			out = append(out, *p)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeStore) GetRegistration(_ context.Context, id string) (*registrations.Registration, error) {
	reg, ok := f.registrations[id]
	if !ok {
		return nil, ErrRegistrationNotFound
	}
	copied := *reg
	return &copied, nil
}

func (f *fakeStore) UpdateRegistrationStatus(_ context.Context, id string, status registrations.Status) error {
	reg, ok := f.registrations[id]
	if !ok {
		return ErrRegistrationNotFound
	}
	reg.Status = status
	f.regStatusUpdates++
	return nil
}

func (f *fakeStore) WithTx(ctx context.Context, fn func(ctx context.Context, s Store) error) error {
	return fn(ctx, f)
}

// fakeGateway scripts gateway responses per operation and counts calls.
type fakeGateway struct {
	createResult ChargeResult
	createErr    error
	createCalls  int

	captureResult ChargeResult
	captureCalls  int

	getState *ChargeState
	getErr   error
	getCalls int
}

func (f *fakeGateway) CreateCharge(_ context.Context, req ChargeRequest) (ChargeResult, error) {
	f.createCalls++
	if req.Method == MethodCrypto {
		return ChargeResult{}, ErrUnsupportedMethod
	}
	return f.createResult, f.createErr
}

func (f *fakeGateway) CaptureCharge(_ context.Context, chargeID string, amountCents int64) ChargeResult {
	f.captureCalls++
	return f.captureResult
}

func (f *fakeGateway) VoidCharge(_ context.Context, chargeID string, amountCents int64) ChargeResult {
	return ChargeResult{Success: true, ChargeID: chargeID}
}

func (f *fakeGateway) GetCharge(_ context.Context, chargeID string) (*ChargeState, error) {
	f.getCalls++
	return f.getState, f.getErr
}

var errBoom = errors.New("boom")
