package events

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/inscrevo/server/internal/domain/ids"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, filters Filters, pagination Pagination) (ListResult, error) {
	return s.repo.List(ctx, filters, pagination)
}

func (s *Service) GetByULID(ctx context.Context, ulid string) (*Event, error) {
	return s.repo.GetByULID(ctx, ulid)
}

func (s *Service) GetModalityByULID(ctx context.Context, ulid string) (*Modality, error) {
	return s.repo.GetModalityByULID(ctx, ulid)
}

// FilterError reports an invalid listing filter back to the HTTP layer.
type FilterError struct {
	Field   string
	Message string
}

func (e FilterError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// ParseFilters builds Filters and Pagination from listing query parameters.
func ParseFilters(values url.Values) (Filters, Pagination, error) {
	filters := Filters{}
	pagination := Pagination{Limit: 50}

	startDate, err := parseDate("startDate", values.Get("startDate"))
	if err != nil {
		return filters, pagination, err
	}
	endDate, err := parseDate("endDate", values.Get("endDate"))
	if err != nil {
		return filters, pagination, err
	}
	if startDate != nil && endDate != nil && endDate.Before(*startDate) {
		return filters, pagination, FilterError{Field: "endDate", Message: "must be on or after startDate"}
	}
	filters.StartDate = startDate
	filters.EndDate = endDate

	filters.City = strings.TrimSpace(values.Get("city"))
	filters.Region = strings.TrimSpace(values.Get("region"))
	filters.Query = strings.TrimSpace(values.Get("q"))

	limit, err := parseLimit(values)
	if err != nil {
		return filters, pagination, err
	}
	pagination.Limit = limit

	after := strings.TrimSpace(values.Get("after"))
	if after != "" {
		if err := ids.ValidateULID(after); err != nil {
			return filters, pagination, FilterError{Field: "after", Message: "must be a valid ULID (e.g., 01HQZX3Y4K6F7G8H9J0K1M2N3P)"}
		}
	}
	pagination.After = after

	return filters, pagination, nil
}

func parseDate(field string, value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, FilterError{Field: field, Message: "must be an ISO date (YYYY-MM-DD)"}
	}
	return &t, nil
}

func parseLimit(values url.Values) (int, error) {
	raw := strings.TrimSpace(values.Get("limit"))
	if raw == "" {
		return 50, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		return 0, FilterError{Field: "limit", Message: "must be a positive integer"}
	}
	if limit > 100 {
		limit = 100
	}
	return limit, nil
}
