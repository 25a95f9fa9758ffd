package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/inscrevo/server/internal/domain/events"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ events.Repository = (*EventRepository)(nil)

type EventRepository struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

func NewEventRepository(pool *pgxpool.Pool) *EventRepository {
	return &EventRepository{pool: pool}
}

func (r *EventRepository) queryer() queryer {
	if r.tx != nil {
		return r.tx
	}
	return r.pool
}

func (r *EventRepository) List(ctx context.Context, filters events.Filters, pagination events.Pagination) (events.ListResult, error) {
	limit := pagination.Limit
	if limit <= 0 {
		limit = 50
	}
	limitPlusOne := limit + 1

	rows, err := r.queryer().Query(ctx, `
SELECT id, name, description, city, region, venue, starts_at, ends_at, published, created_at, updated_at
  FROM events
 WHERE published
   AND ($1::timestamptz IS NULL OR starts_at >= $1::timestamptz)
   AND ($2::timestamptz IS NULL OR starts_at <= $2::timestamptz)
   AND ($3 = '' OR city ILIKE '%' || $3 || '%')
   AND ($4 = '' OR region ILIKE '%' || $4 || '%')
   AND ($5 = '' OR name ILIKE '%' || $5 || '%' OR description ILIKE '%' || $5 || '%')
   AND ($6 = '' OR id > $6)
 ORDER BY id
 LIMIT $7`,
		filters.StartDate, filters.EndDate, filters.City, filters.Region, filters.Query,
		pagination.After, limitPlusOne,
	)
	if err != nil {
		return events.ListResult{}, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var page []events.Event
	for rows.Next() {
		var e events.Event
		err := rows.Scan(&e.ID, &e.Name, &e.Description, &e.City, &e.Region, &e.Venue,
			&e.StartsAt, &e.EndsAt, &e.Published, &e.CreatedAt, &e.UpdatedAt)
		if err != nil {
			return events.ListResult{}, fmt.Errorf("scan event: %w", err)
		}
		page = append(page, e)
	}
	if err := rows.Err(); err != nil {
		return events.ListResult{}, fmt.Errorf("iterate events: %w", err)
	}

	result := events.ListResult{Events: page}
	if len(page) > limit {
		result.Events = page[:limit]
		result.NextCursor = page[limit-1].ID
	}

	for i := range result.Events {
		modalities, err := r.listModalities(ctx, result.Events[i].ID)
		if err != nil {
			return events.ListResult{}, err
		}
		result.Events[i].Modalities = modalities
	}

	return result, nil
}

func (r *EventRepository) GetByULID(ctx context.Context, ulid string) (*events.Event, error) {
	var e events.Event
	err := r.queryer().QueryRow(ctx, `
SELECT id, name, description, city, region, venue, starts_at, ends_at, published, created_at, updated_at
  FROM events
 WHERE id = $1`, ulid).Scan(
		&e.ID, &e.Name, &e.Description, &e.City, &e.Region, &e.Venue,
		&e.StartsAt, &e.EndsAt, &e.Published, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, events.ErrEventNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}

	modalities, err := r.listModalities(ctx, e.ID)
	if err != nil {
		return nil, err
	}
	e.Modalities = modalities

	return &e, nil
}

func (r *EventRepository) GetModalityByULID(ctx context.Context, ulid string) (*events.Modality, error) {
	var m events.Modality
	err := r.queryer().QueryRow(ctx, `
SELECT id, event_id, name, distance_meters, price_cents, kit_description, created_at
  FROM event_modalities
 WHERE id = $1`, ulid).Scan(
		&m.ID, &m.EventID, &m.Name, &m.DistanceMeters, &m.PriceCents, &m.KitDescription, &m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, events.ErrModalityNotFound
		}
		return nil, fmt.Errorf("get modality: %w", err)
	}
	return &m, nil
}

func (r *EventRepository) listModalities(ctx context.Context, eventID string) ([]events.Modality, error) {
	rows, err := r.queryer().Query(ctx, `
SELECT id, event_id, name, distance_meters, price_cents, kit_description, created_at
  FROM event_modalities
 WHERE event_id = $1
 ORDER BY price_cents, id`, eventID)
	if err != nil {
		return nil, fmt.Errorf("list modalities: %w", err)
	}
	defer rows.Close()

	var out []events.Modality
	for rows.Next() {
		var m events.Modality
		err := rows.Scan(&m.ID, &m.EventID, &m.Name, &m.DistanceMeters, &m.PriceCents, &m.KitDescription, &m.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan modality: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate modalities: %w", err)
	}
	return out, nil
}
