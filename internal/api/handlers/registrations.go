package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/inscrevo/server/internal/api/middleware"
	"github.com/inscrevo/server/internal/api/problem"
	"github.com/inscrevo/server/internal/domain/registrations"
)

type RegistrationsHandler struct {
	Service *registrations.Service
	Env     string

	validate *validator.Validate
}

func NewRegistrationsHandler(service *registrations.Service, env string) *RegistrationsHandler {
	return &RegistrationsHandler{Service: service, Env: env, validate: validator.New()}
}

type createRegistrationRequest struct {
	EventID           string `json:"event_id" validate:"required,len=26"`
	ModalityID        string `json:"modality_id" validate:"required,len=26"`
	ParticipantUserID string `json:"participant_user_id,omitempty"`
	ParticipantName   string `json:"participant_name" validate:"required,max=200"`
	ParticipantEmail  string `json:"participant_email" validate:"required,email"`
	DiscountCents     int64  `json:"discount_cents,omitempty" validate:"omitempty,min=0"`
}

type registrationResponse struct {
	ID               string    `json:"id"`
	EventID          string    `json:"event_id"`
	ModalityID       string    `json:"modality_id"`
	UserID           string    `json:"user_id"`
	InvitedByID      *string   `json:"invited_by_id,omitempty"`
	Status           string    `json:"status"`
	BaseAmountCents  int64     `json:"base_amount_cents"`
	ServiceFeeCents  int64     `json:"service_fee_cents"`
	DiscountCents    int64     `json:"discount_cents"`
	FinalAmountCents int64     `json:"final_amount_cents"`
	CreatedAt        time.Time `json:"created_at"`
}

func toRegistrationResponse(reg *registrations.Registration) registrationResponse {
	return registrationResponse{
		ID:               reg.ID,
		EventID:          reg.EventID,
		ModalityID:       reg.ModalityID,
		UserID:           reg.UserID,
		InvitedByID:      reg.InvitedByID,
		Status:           string(reg.Status),
		BaseAmountCents:  reg.BaseAmountCents,
		ServiceFeeCents:  reg.ServiceFeeCents,
		DiscountCents:    reg.DiscountCents,
		FinalAmountCents: reg.FinalAmountCents,
		CreatedAt:        reg.CreatedAt,
	}
}

// Create handles POST /api/v1/registrations.
func (h *RegistrationsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRegistrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problemValidation, "Invalid request", err, h.Env)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problemValidation, "Invalid request", err, h.Env)
		return
	}

	reg, err := h.Service.Create(r.Context(), middleware.UserID(r.Context()), registrations.CreateParams{
		EventID:           req.EventID,
		ModalityID:        req.ModalityID,
		ParticipantUserID: req.ParticipantUserID,
		ParticipantName:   req.ParticipantName,
		ParticipantEmail:  req.ParticipantEmail,
		DiscountCents:     req.DiscountCents,
	})
	if err != nil {
		writeDomainError(w, r, err, h.Env)
		return
	}

	writeJSON(w, http.StatusCreated, toRegistrationResponse(reg))
}

// Get handles GET /api/v1/registrations/{id}.
func (h *RegistrationsHandler) Get(w http.ResponseWriter, r *http.Request) {
	reg, err := h.Service.Get(r.Context(), middleware.UserID(r.Context()), pathParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, toRegistrationResponse(reg))
}

// ListMine handles GET /api/v1/registrations/me.
func (h *RegistrationsHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	items, err := h.Service.ListForUser(r.Context(), middleware.UserID(r.Context()))
	if err != nil {
		writeDomainError(w, r, err, h.Env)
		return
	}

	out := make([]registrationResponse, 0, len(items))
	for i := range items {
		out = append(out, toRegistrationResponse(&items[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": out})
}

// Cancel handles POST /api/v1/registrations/{id}/cancel.
func (h *RegistrationsHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	reg, err := h.Service.Cancel(r.Context(), middleware.UserID(r.Context()), pathParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, toRegistrationResponse(reg))
}
