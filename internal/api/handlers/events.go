package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/inscrevo/server/internal/api/problem"
	"github.com/inscrevo/server/internal/domain/events"
	"github.com/inscrevo/server/internal/domain/ids"
)

type EventsHandler struct {
	Service *events.Service
	Env     string
}

func NewEventsHandler(service *events.Service, env string) *EventsHandler {
	return &EventsHandler{Service: service, Env: env}
}

type modalityResponse struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	DistanceMeters int    `json:"distance_meters,omitempty"`
	PriceCents     int64  `json:"price_cents"`
	KitDescription string `json:"kit_description,omitempty"`
}

type eventResponse struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	City        string             `json:"city,omitempty"`
	Region      string             `json:"region,omitempty"`
	Venue       string             `json:"venue,omitempty"`
	StartsAt    time.Time          `json:"starts_at"`
	EndsAt      time.Time          `json:"ends_at"`
	Modalities  []modalityResponse `json:"modalities,omitempty"`
}

type eventListResponse struct {
	Items      []eventResponse `json:"items"`
	NextCursor string          `json:"next_cursor,omitempty"`
}

func toEventResponse(event *events.Event) eventResponse {
	resp := eventResponse{
		ID:          event.ID,
		Name:        event.Name,
		Description: event.Description,
		City:        event.City,
		Region:      event.Region,
		Venue:       event.Venue,
		StartsAt:    event.StartsAt,
		EndsAt:      event.EndsAt,
	}
	for _, m := range event.Modalities {
		resp.Modalities = append(resp.Modalities, modalityResponse{
			ID:             m.ID,
			Name:           m.Name,
			DistanceMeters: m.DistanceMeters,
			PriceCents:     m.PriceCents,
			KitDescription: m.KitDescription,
		})
	}
	return resp
}

// List handles GET /api/v1/events.
func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	filters, pagination, err := events.ParseFilters(r.URL.Query())
	if err != nil {
		problem.Write(w, r, http.StatusBadRequest, problemValidation, "Invalid request", err, h.Env)
		return
	}

	result, err := h.Service.List(r.Context(), filters, pagination)
	if err != nil {
		problem.Write(w, r, http.StatusInternalServerError, problemServerError, "Server error", err, h.Env)
		return
	}

	items := make([]eventResponse, 0, len(result.Events))
	for i := range result.Events {
		items = append(items, toEventResponse(&result.Events[i]))
	}
	writeJSON(w, http.StatusOK, eventListResponse{Items: items, NextCursor: result.NextCursor})
}

// Get handles GET /api/v1/events/{id}.
func (h *EventsHandler) Get(w http.ResponseWriter, r *http.Request) {
	ulidValue := strings.TrimSpace(pathParam(r, "id"))
	if err := ids.ValidateULID(ulidValue); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problemValidation, "Invalid request",
			events.FilterError{Field: "id", Message: "invalid ULID"}, h.Env)
		return
	}

	event, err := h.Service.GetByULID(r.Context(), ulidValue)
	if err != nil {
		if errors.Is(err, events.ErrEventNotFound) {
			problem.Write(w, r, http.StatusNotFound, problemNotFound, "Not found", err, h.Env)
			return
		}
		problem.Write(w, r, http.StatusInternalServerError, problemServerError, "Server error", err, h.Env)
		return
	}

	writeJSON(w, http.StatusOK, toEventResponse(event))
}
