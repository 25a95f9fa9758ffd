package payments

import (
	"context"
	"testing"

	"github.com/inscrevo/server/internal/audit"
	"github.com/inscrevo/server/internal/domain/registrations"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// normalizeForTest mirrors the gateway's provider code table.
func normalizeForTest(code int) Status {
	switch code {
	case 2:
		return StatusPaid
	case 3, 10, 13:
		return StatusFailed
	case 11:
		return StatusRefunded
	default:
		return StatusPending
	}
}

func newTestReconciler(store *fakeStore) *Reconciler {
	ledger := NewLedger(store, audit.NewLogger(), zerolog.Nop())
	return NewReconciler(store, normalizeForTest, ledger, zerolog.Nop())
}

func TestHandleNotificationAppliesPaid(t *testing.T) {
	store := newFakeStore()
	payment := seedPendingPayment(t, store)
	rec := newTestReconciler(store)

	outcome, err := rec.HandleNotification(context.Background(), Notification{
		ChargeID:       payment.TransactionID,
		ProviderStatus: 2,
		ReturnCode:     "00",
		ReturnMessage:  "Approved",
	})
	require.NoError(t, err)
	require.Equal(t, OutcomeApplied, outcome)

	got, err := store.GetPayment(context.Background(), payment.ID)
	require.NoError(t, err)
	require.Equal(t, StatusPaid, got.Status)
	require.Len(t, got.Metadata.Reconciliation, 1)
	require.Equal(t, "webhook", got.Metadata.Reconciliation[0].Source)
	require.Equal(t, "00", got.Metadata.Reconciliation[0].ReturnCode)

	reg, err := store.GetRegistration(context.Background(), payment.RegistrationID)
	require.NoError(t, err)
	require.Equal(t, registrations.StatusConfirmed, reg.Status)
}

func TestHandleNotificationUnknownChargeDropped(t *testing.T) {
	store := newFakeStore()
	rec := newTestReconciler(store)

	outcome, err := rec.HandleNotification(context.Background(), Notification{
		ChargeID:       "never-created",
		ProviderStatus: 2,
	})
	require.NoError(t, err, "unknown charge must not error: the provider would retry forever")
	require.Equal(t, OutcomeUnknownCharge, outcome)
}

func TestHandleNotificationDuplicateStatusNoOp(t *testing.T) {
	store := newFakeStore()
	payment := seedPendingPayment(t, store)
	rec := newTestReconciler(store)

	_, err := rec.HandleNotification(context.Background(), Notification{
		ChargeID:       payment.TransactionID,
		ProviderStatus: 2,
	})
	require.NoError(t, err)

	outcome, err := rec.HandleNotification(context.Background(), Notification{
		ChargeID:       payment.TransactionID,
		ProviderStatus: 2,
	})
	require.NoError(t, err)
	require.Equal(t, OutcomeDuplicate, outcome)

	got, err := store.GetPayment(context.Background(), payment.ID)
	require.NoError(t, err)
	require.Len(t, got.Metadata.Reconciliation, 1, "duplicate adds no evidence")
	require.Equal(t, 1, store.regStatusUpdates)
}

func TestHandleNotificationIllegalTransitionRejected(t *testing.T) {
	store := newFakeStore()
	payment := seedPendingPayment(t, store)
	rec := newTestReconciler(store)

	_, err := rec.HandleNotification(context.Background(), Notification{
		ChargeID:       payment.TransactionID,
		ProviderStatus: 3, // denied
	})
	require.NoError(t, err)

	outcome, err := rec.HandleNotification(context.Background(), Notification{
		ChargeID:       payment.TransactionID,
		ProviderStatus: 2, // late "confirmed" after denial
	})
	require.NoError(t, err)
	require.Equal(t, OutcomeRejected, outcome)

	got, err := store.GetPayment(context.Background(), payment.ID)
	require.NoError(t, err)
	require.Equal(t, StatusFailed, got.Status)
}

func TestHandleNotificationFailedLeavesRegistrationPending(t *testing.T) {
	store := newFakeStore()
	payment := seedPendingPayment(t, store)
	rec := newTestReconciler(store)

	outcome, err := rec.HandleNotification(context.Background(), Notification{
		ChargeID:       payment.TransactionID,
		ProviderStatus: 10, // voided
	})
	require.NoError(t, err)
	require.Equal(t, OutcomeApplied, outcome)

	reg, err := store.GetRegistration(context.Background(), payment.RegistrationID)
	require.NoError(t, err)
	require.Equal(t, registrations.StatusPending, reg.Status)
}

func TestHandleNotificationUnknownCodeStaysPending(t *testing.T) {
	store := newFakeStore()
	payment := seedPendingPayment(t, store)
	rec := newTestReconciler(store)

	outcome, err := rec.HandleNotification(context.Background(), Notification{
		ChargeID:       payment.TransactionID,
		ProviderStatus: 99,
	})
	require.NoError(t, err)
	require.Equal(t, OutcomeDuplicate, outcome, "unknown code normalizes to PENDING, already the current status")

	got, err := store.GetPayment(context.Background(), payment.ID)
	require.NoError(t, err)
	require.Equal(t, StatusPending, got.Status)
}
