package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/inscrevo/server/internal/api/middleware"
	"github.com/inscrevo/server/internal/audit"
	"github.com/inscrevo/server/internal/domain/payments"
	"github.com/inscrevo/server/internal/domain/registrations"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const (
	testWebhookSecret = "whsec-test"
	testUserID        = "01JC0USER00000000000000000"
	testRegID         = "01JC0REG000000000000000000"
	testPaymentID     = "01JC0PAY000000000000000000"
)

func normalizeForTest(code int) payments.Status {
	switch code {
	case 2:
		return payments.StatusPaid
	case 3, 10, 13:
		return payments.StatusFailed
	case 11:
		return payments.StatusRefunded
	default:
		return payments.StatusPending
	}
}

func newPaymentsHandler(t *testing.T, store *memStore, gw *stubGateway) *PaymentsHandler {
	t.Helper()
	logger := zerolog.Nop()
	auditLogger := audit.NewLogger()
	ledger := payments.NewLedger(store, auditLogger, logger)
	service := payments.NewService(store, gw, ledger, auditLogger, logger)
	reconciler := payments.NewReconciler(store, normalizeForTest, ledger, logger)
	return NewPaymentsHandler(service, reconciler, testWebhookSecret, "test")
}

func seedRegistration(store *memStore) {
	store.registrations[testRegID] = &registrations.Registration{
		ID:               testRegID,
		UserID:           testUserID,
		Status:           registrations.StatusPending,
		FinalAmountCents: 10500,
		PayerName:        "Ana Souza",
		PayerEmail:       "ana@example.com",
	}
}

func seedPayment(store *memStore, status payments.Status) {
	store.payments[testPaymentID] = &payments.Payment{
		ID:             testPaymentID,
		RegistrationID: testRegID,
		UserID:         testUserID,
		Method:         payments.MethodPix,
		AmountCents:    10500,
		Status:         status,
		TransactionID:  "charge-1",
		CreatedAt:      time.Now().UTC(),
	}
}

func authedRequest(method, target, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	ctx := context.WithValue(req.Context(), middleware.UserIDKey, testUserID)
	return req.WithContext(ctx)
}

func TestCreatePaymentReturnsPendingPayment(t *testing.T) {
	store := newMemStore()
	seedRegistration(store)
	gw := &stubGateway{createResult: payments.ChargeResult{
		Success:        true,
		ChargeID:       "charge-1",
		ProviderStatus: 12,
		Status:         payments.StatusPending,
		Pix:            &payments.PixArtifacts{QRCodeText: "000201pix"},
	}}
	handler := newPaymentsHandler(t, store, gw)

	req := authedRequest(http.MethodPost, "/api/v1/payments",
		`{"registration_id":"`+testRegID+`","method":"pix"}`)
	res := httptest.NewRecorder()

	handler.Create(res, req)

	require.Equal(t, http.StatusCreated, res.Code)
	var resp paymentResponse
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &resp))
	require.Equal(t, testRegID, resp.RegistrationID)
	require.Equal(t, "PENDING", resp.Status)
	require.Equal(t, "charge-1", resp.TransactionID)
	require.NotNil(t, resp.Metadata.Pix)
}

func TestCreatePaymentRejectsBadMethod(t *testing.T) {
	handler := newPaymentsHandler(t, newMemStore(), &stubGateway{})

	req := authedRequest(http.MethodPost, "/api/v1/payments",
		`{"registration_id":"`+testRegID+`","method":"cash"}`)
	res := httptest.NewRecorder()

	handler.Create(res, req)
	require.Equal(t, http.StatusBadRequest, res.Code)
	require.Contains(t, res.Header().Get("Content-Type"), "application/problem+json")
}

func TestCreatePaymentConflictOnSecondAttempt(t *testing.T) {
	store := newMemStore()
	seedRegistration(store)
	seedPayment(store, payments.StatusPending)
	handler := newPaymentsHandler(t, store, &stubGateway{})

	req := authedRequest(http.MethodPost, "/api/v1/payments",
		`{"registration_id":"`+testRegID+`","method":"pix"}`)
	res := httptest.NewRecorder()

	handler.Create(res, req)
	require.Equal(t, http.StatusConflict, res.Code)
}

func TestCreatePaymentGatewayDenialIs502(t *testing.T) {
	store := newMemStore()
	seedRegistration(store)
	gw := &stubGateway{createResult: payments.ChargeResult{Success: false, Error: "insufficient funds"}}
	handler := newPaymentsHandler(t, store, gw)

	req := authedRequest(http.MethodPost, "/api/v1/payments",
		`{"registration_id":"`+testRegID+`","method":"credit_card","card_token":"tok"}`)
	res := httptest.NewRecorder()

	handler.Create(res, req)

	require.Equal(t, http.StatusBadGateway, res.Code)
	require.Contains(t, res.Body.String(), "insufficient funds")
	require.Empty(t, store.payments, "no payment row on failed charge creation")
}

func TestConfirmAlreadyPaidConflicts(t *testing.T) {
	store := newMemStore()
	seedRegistration(store)
	seedPayment(store, payments.StatusPaid)
	handler := newPaymentsHandler(t, store, &stubGateway{})

	req := authedRequest(http.MethodPost, "/api/v1/payments/confirm",
		`{"payment_id":"`+testPaymentID+`"}`)
	res := httptest.NewRecorder()

	handler.Confirm(res, req)
	require.Equal(t, http.StatusConflict, res.Code)
}

func TestGetPaymentNotFound(t *testing.T) {
	handler := newPaymentsHandler(t, newMemStore(), &stubGateway{})

	req := authedRequest(http.MethodGet, "/api/v1/payments/"+testPaymentID, "")
	req.SetPathValue("id", testPaymentID)
	res := httptest.NewRecorder()

	handler.Get(res, req)
	require.Equal(t, http.StatusNotFound, res.Code)
}

func TestRegistrationSummaryIncludesPayment(t *testing.T) {
	store := newMemStore()
	seedRegistration(store)
	seedPayment(store, payments.StatusPending)
	handler := newPaymentsHandler(t, store, &stubGateway{})

	req := authedRequest(http.MethodGet, "/api/v1/registrations/"+testRegID+"/summary", "")
	req.SetPathValue("id", testRegID)
	res := httptest.NewRecorder()

	handler.RegistrationSummary(res, req)

	require.Equal(t, http.StatusOK, res.Code)
	var resp summaryResponse
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &resp))
	require.Equal(t, int64(10500), resp.FinalAmountCents)
	require.NotNil(t, resp.Payment)
	require.Equal(t, testPaymentID, resp.Payment.ID)
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	store := newMemStore()
	handler := newPaymentsHandler(t, store, &stubGateway{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook",
		strings.NewReader(`{"charge_id":"charge-1","provider_status":2}`))
	req.Header.Set("X-Webhook-Signature", "wrong")
	res := httptest.NewRecorder()

	handler.Webhook(res, req)

	require.Equal(t, http.StatusOK, res.Code)
	require.JSONEq(t, `{"received":false}`, res.Body.String())
}

func TestWebhookEmptySecretNeverVerifies(t *testing.T) {
	store := newMemStore()
	seedRegistration(store)
	seedPayment(store, payments.StatusPending)

	logger := zerolog.Nop()
	auditLogger := audit.NewLogger()
	ledger := payments.NewLedger(store, auditLogger, logger)
	service := payments.NewService(store, &stubGateway{}, ledger, auditLogger, logger)
	reconciler := payments.NewReconciler(store, normalizeForTest, ledger, logger)
	handler := NewPaymentsHandler(service, reconciler, "", "test")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook",
		strings.NewReader(`{"charge_id":"charge-1","provider_status":2}`))
	res := httptest.NewRecorder()

	handler.Webhook(res, req)

	require.Equal(t, http.StatusOK, res.Code)
	require.JSONEq(t, `{"received":false}`, res.Body.String())
	require.Equal(t, payments.StatusPending, store.payments[testPaymentID].Status,
		"unsigned notification must not drive the ledger")
	require.Equal(t, registrations.StatusPending, store.registrations[testRegID].Status)
}

func TestWebhookRejectsEmptyBody(t *testing.T) {
	handler := newPaymentsHandler(t, newMemStore(), &stubGateway{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook", nil)
	req.Header.Set("X-Webhook-Signature", testWebhookSecret)
	res := httptest.NewRecorder()

	handler.Webhook(res, req)

	require.Equal(t, http.StatusOK, res.Code)
	require.JSONEq(t, `{"received":false}`, res.Body.String())
}

func TestWebhookAppliesPaidAndConfirmsRegistration(t *testing.T) {
	store := newMemStore()
	seedRegistration(store)
	seedPayment(store, payments.StatusPending)
	handler := newPaymentsHandler(t, store, &stubGateway{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook",
		strings.NewReader(`{"charge_id":"charge-1","provider_status":2,"order_ref":"`+testRegID+`"}`))
	req.Header.Set("X-Webhook-Signature", testWebhookSecret)
	res := httptest.NewRecorder()

	handler.Webhook(res, req)

	require.Equal(t, http.StatusOK, res.Code)
	require.JSONEq(t, `{"received":true}`, res.Body.String())
	require.Equal(t, payments.StatusPaid, store.payments[testPaymentID].Status)
	require.Equal(t, registrations.StatusConfirmed, store.registrations[testRegID].Status)
}

func TestWebhookUnknownChargeStillAccepted(t *testing.T) {
	handler := newPaymentsHandler(t, newMemStore(), &stubGateway{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook",
		strings.NewReader(`{"charge_id":"stranger","provider_status":2}`))
	req.Header.Set("X-Webhook-Signature", testWebhookSecret)
	res := httptest.NewRecorder()

	handler.Webhook(res, req)

	require.Equal(t, http.StatusOK, res.Code)
	require.JSONEq(t, `{"received":true}`, res.Body.String())
}
