package handlers

import (
	"crypto/subtle"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/inscrevo/server/internal/api/middleware"
	"github.com/inscrevo/server/internal/api/problem"
	"github.com/inscrevo/server/internal/domain/payments"
)

// PaymentsHandler exposes the payment lifecycle over HTTP.
type PaymentsHandler struct {
	Service       *payments.Service
	Reconciler    *payments.Reconciler
	WebhookSecret string
	Env           string

	validate *validator.Validate
}

func NewPaymentsHandler(service *payments.Service, reconciler *payments.Reconciler, webhookSecret, env string) *PaymentsHandler {
	return &PaymentsHandler{
		Service:       service,
		Reconciler:    reconciler,
		WebhookSecret: webhookSecret,
		Env:           env,
		validate:      validator.New(),
	}
}

type createPaymentRequest struct {
	RegistrationID string `json:"registration_id" validate:"required,len=26"`
	Method         string `json:"method" validate:"required,oneof=credit_card pix boleto crypto"`
	CardToken      string `json:"card_token,omitempty"`
	Installments   int    `json:"installments,omitempty" validate:"omitempty,min=1,max=12"`
}

type paymentResponse struct {
	ID             string            `json:"id"`
	RegistrationID string            `json:"registration_id"`
	Method         string            `json:"method"`
	AmountCents    int64             `json:"amount_cents"`
	Status         string            `json:"status"`
	TransactionID  string            `json:"transaction_id,omitempty"`
	Metadata       payments.Metadata `json:"metadata"`
	PaidAt         *time.Time        `json:"paid_at,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
}

func toPaymentResponse(p *payments.Payment) paymentResponse {
	return paymentResponse{
		ID:             p.ID,
		RegistrationID: p.RegistrationID,
		Method:         string(p.Method),
		AmountCents:    p.AmountCents,
		Status:         string(p.Status),
		TransactionID:  p.TransactionID,
		Metadata:       p.Metadata,
		PaidAt:         p.PaidAt,
		CreatedAt:      p.CreatedAt,
	}
}

// Create handles POST /api/v1/payments.
func (h *PaymentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problemValidation, "Invalid request", err, h.Env)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problemValidation, "Invalid request", err, h.Env)
		return
	}

	payment, err := h.Service.Create(r.Context(), middleware.UserID(r.Context()), payments.CreateParams{
		RegistrationID: req.RegistrationID,
		Method:         payments.Method(req.Method),
		CardToken:      req.CardToken,
		Installments:   req.Installments,
	})
	if err != nil {
		writeDomainError(w, r, err, h.Env)
		return
	}

	writeJSON(w, http.StatusCreated, toPaymentResponse(payment))
}

type confirmPaymentRequest struct {
	PaymentID string `json:"payment_id" validate:"required,len=26"`
}

// Confirm handles POST /api/v1/payments/confirm.
func (h *PaymentsHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	var req confirmPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problemValidation, "Invalid request", err, h.Env)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problemValidation, "Invalid request", err, h.Env)
		return
	}

	payment, err := h.Service.Confirm(r.Context(), middleware.UserID(r.Context()), req.PaymentID)
	if err != nil {
		writeDomainError(w, r, err, h.Env)
		return
	}

	writeJSON(w, http.StatusOK, toPaymentResponse(payment))
}

type processPaymentRequest struct {
	PaymentID     string `json:"payment_id" validate:"required,len=26"`
	TransactionID string `json:"transaction_id,omitempty"`
}

// Process handles POST /api/v1/payments/process, the polling path for
// clients that cannot rely on webhooks.
func (h *PaymentsHandler) Process(w http.ResponseWriter, r *http.Request) {
	var req processPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problemValidation, "Invalid request", err, h.Env)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problemValidation, "Invalid request", err, h.Env)
		return
	}

	payment, err := h.Service.Process(r.Context(), middleware.UserID(r.Context()), req.PaymentID, req.TransactionID)
	if err != nil {
		writeDomainError(w, r, err, h.Env)
		return
	}

	writeJSON(w, http.StatusOK, toPaymentResponse(payment))
}

// Get handles GET /api/v1/payments/{id}.
func (h *PaymentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	payment, err := h.Service.FindOne(r.Context(), middleware.UserID(r.Context()), pathParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentResponse(payment))
}

// ListMine handles GET /api/v1/payments/me.
func (h *PaymentsHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	items, err := h.Service.ListForUser(r.Context(), middleware.UserID(r.Context()))
	if err != nil {
		writeDomainError(w, r, err, h.Env)
		return
	}

	out := make([]paymentResponse, 0, len(items))
	for i := range items {
		out = append(out, toPaymentResponse(&items[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": out})
}

type summaryResponse struct {
	RegistrationID   string           `json:"registration_id"`
	Status           string           `json:"status"`
	BaseAmountCents  int64            `json:"base_amount_cents"`
	ServiceFeeCents  int64            `json:"service_fee_cents"`
	DiscountCents    int64            `json:"discount_cents"`
	FinalAmountCents int64            `json:"final_amount_cents"`
	Payment          *paymentResponse `json:"payment,omitempty"`
}

// RegistrationSummary handles GET /api/v1/registrations/{id}/summary.
func (h *PaymentsHandler) RegistrationSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Service.RegistrationSummary(r.Context(), middleware.UserID(r.Context()), pathParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err, h.Env)
		return
	}

	resp := summaryResponse{
		RegistrationID:   summary.Registration.ID,
		Status:           string(summary.Registration.Status),
		BaseAmountCents:  summary.Registration.BaseAmountCents,
		ServiceFeeCents:  summary.Registration.ServiceFeeCents,
		DiscountCents:    summary.Registration.DiscountCents,
		FinalAmountCents: summary.Registration.FinalAmountCents,
	}
	if summary.Payment != nil {
		payment := toPaymentResponse(summary.Payment)
		resp.Payment = &payment
	}
	writeJSON(w, http.StatusOK, resp)
}

type webhookPayload struct {
	ChargeID       string `json:"charge_id"`
	ProviderStatus int    `json:"provider_status"`
	OrderRef       string `json:"order_ref"`
	ReturnCode     string `json:"return_code"`
	ReturnMessage  string `json:"return_message"`
}

// Webhook handles POST /api/v1/payments/webhook. The provider retries on
// non-2xx, so every outcome this system cannot act on still answers 200;
// the received flag tells the operator which events were rejected at the
// door. Signature is a shared secret in the X-Webhook-Signature header.
func (h *PaymentsHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	// An empty configured secret never verifies; otherwise an unsigned
	// request would compare equal to it.
	signature := r.Header.Get("X-Webhook-Signature")
	if h.WebhookSecret == "" ||
		subtle.ConstantTimeCompare([]byte(signature), []byte(h.WebhookSecret)) != 1 {
		writeJSON(w, http.StatusOK, map[string]bool{"received": false})
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil || len(body) == 0 {
		writeJSON(w, http.StatusOK, map[string]bool{"received": false})
		return
	}

	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil || payload.ChargeID == "" {
		writeJSON(w, http.StatusOK, map[string]bool{"received": false})
		return
	}

	_, err = h.Reconciler.HandleNotification(r.Context(), payments.Notification{
		ChargeID:       payload.ChargeID,
		ProviderStatus: payload.ProviderStatus,
		OrderRef:       payload.OrderRef,
		ReturnCode:     payload.ReturnCode,
		ReturnMessage:  payload.ReturnMessage,
	})
	if err != nil {
		// Storage failure: a 500 here is correct, the provider retry may
		// succeed once the database recovers.
		problem.Write(w, r, http.StatusInternalServerError, problemServerError, "Server error", err, h.Env)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}
