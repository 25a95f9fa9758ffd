package postgres

import (
	"context"
	"testing"

	"github.com/inscrevo/server/internal/domain/events"
	"github.com/inscrevo/server/internal/domain/ids"
	"github.com/stretchr/testify/require"
)

func TestEventRepositoryGetWithModalities(t *testing.T) {
	pool := setupPostgres(t)
	ctx := context.Background()
	repo := NewEventRepository(pool)

	eventID, modalityID := insertEventWithModality(t, ctx, pool, 15000)

	got, err := repo.GetByULID(ctx, eventID)
	require.NoError(t, err)
	require.Equal(t, "Meia Maratona de Teste", got.Name)
	require.Len(t, got.Modalities, 1)
	require.Equal(t, modalityID, got.Modalities[0].ID)
	require.Equal(t, int64(15000), got.Modalities[0].PriceCents)
}

func TestEventRepositoryNotFound(t *testing.T) {
	pool := setupPostgres(t)
	repo := NewEventRepository(pool)

	_, err := repo.GetByULID(context.Background(), ids.MustNewULID())
	require.ErrorIs(t, err, events.ErrEventNotFound)
}

func TestEventRepositoryListOnlyPublished(t *testing.T) {
	pool := setupPostgres(t)
	ctx := context.Background()
	repo := NewEventRepository(pool)

	insertEventWithModality(t, ctx, pool, 10000)

	unpublishedID := ids.MustNewULID()
	_, err := pool.Exec(ctx, `
INSERT INTO events (id, name, starts_at, ends_at, published)
VALUES ($1, 'Rascunho', now() + interval '10 days', now() + interval '11 days', false)`,
		unpublishedID)
	require.NoError(t, err)

	result, err := repo.List(ctx, events.Filters{}, events.Pagination{Limit: 10})
	require.NoError(t, err)
	require.Len(t, result.Events, 1)
	require.Equal(t, "Meia Maratona de Teste", result.Events[0].Name)
}

func TestEventRepositoryListCityFilterAndCursor(t *testing.T) {
	pool := setupPostgres(t)
	ctx := context.Background()
	repo := NewEventRepository(pool)

	insertEventWithModality(t, ctx, pool, 10000)
	insertEventWithModality(t, ctx, pool, 12000)
	insertEventWithModality(t, ctx, pool, 14000)

	page, err := repo.List(ctx, events.Filters{City: "Curitiba"}, events.Pagination{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Events, 2)
	require.NotEmpty(t, page.NextCursor)

	rest, err := repo.List(ctx, events.Filters{City: "Curitiba"}, events.Pagination{Limit: 2, After: page.NextCursor})
	require.NoError(t, err)
	require.Len(t, rest.Events, 1)
	require.Empty(t, rest.NextCursor)

	none, err := repo.List(ctx, events.Filters{City: "Manaus"}, events.Pagination{Limit: 10})
	require.NoError(t, err)
	require.Empty(t, none.Events)
}
