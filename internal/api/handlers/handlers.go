package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/inscrevo/server/internal/api/problem"
	"github.com/inscrevo/server/internal/domain/events"
	"github.com/inscrevo/server/internal/domain/payments"
	"github.com/inscrevo/server/internal/domain/registrations"
)

const (
	problemValidation  = "https://inscrevo.app/problems/validation-error"
	problemNotFound    = "https://inscrevo.app/problems/not-found"
	problemForbidden   = "https://inscrevo.app/problems/forbidden"
	problemConflict    = "https://inscrevo.app/problems/conflict"
	problemGateway     = "https://inscrevo.app/problems/gateway-failure"
	problemServerError = "https://inscrevo.app/problems/server-error"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func pathParam(r *http.Request, key string) string {
	if r == nil {
		return ""
	}
	return r.PathValue(key)
}

// writeDomainError maps a domain error onto the problem taxonomy. Anything
// unrecognized is a 500.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error, env string) {
	var gwErr *payments.GatewayError
	if errors.As(err, &gwErr) {
		problem.Write(w, r, http.StatusBadGateway, problemGateway, "Payment provider error", err, env,
			problem.WithDetail(gwErr.Message))
		return
	}

	switch {
	case errors.Is(err, payments.ErrPaymentNotFound),
		errors.Is(err, payments.ErrRegistrationNotFound),
		errors.Is(err, payments.ErrChargeNotFound),
		errors.Is(err, registrations.ErrRegistrationNotFound),
		errors.Is(err, events.ErrEventNotFound),
		errors.Is(err, events.ErrModalityNotFound):
		problem.Write(w, r, http.StatusNotFound, problemNotFound, "Not found", err, env)
	case errors.Is(err, payments.ErrAccessDenied),
		errors.Is(err, registrations.ErrAccessDenied):
		problem.Write(w, r, http.StatusForbidden, problemForbidden, "Access denied", err, env)
	case errors.Is(err, payments.ErrPaymentExists),
		errors.Is(err, payments.ErrAlreadyPaid),
		errors.Is(err, payments.ErrRegistrationCancelled),
		errors.Is(err, registrations.ErrAlreadyCancelled),
		errors.Is(err, registrations.ErrAlreadyPaid),
		errors.Is(err, registrations.ErrEventClosed):
		problem.Write(w, r, http.StatusConflict, problemConflict, "Conflict", err, env)
	case errors.Is(err, payments.ErrUnsupportedMethod),
		errors.Is(err, payments.ErrMissingTransactionID):
		problem.Write(w, r, http.StatusUnprocessableEntity, problemValidation, "Invalid request", err, env)
	default:
		problem.Write(w, r, http.StatusInternalServerError, problemServerError, "Server error", err, env)
	}
}
