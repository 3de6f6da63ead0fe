package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campuspass-api/internal/models"
	"github.com/noah-isme/campuspass-api/pkg/docstore"
	"github.com/noah-isme/campuspass-api/pkg/docstore/memstore"
)

func TestCalendarRepositoryRoundTripsVariants(t *testing.T) {
	store := memstore.New(nil)
	repo := NewCalendarRepository(store, nil)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.Event{ID: "e1", Title: "Foundation Day", Description: "Parade", Date: "2025-05-10"}))
	require.NoError(t, repo.Create(ctx, &models.Assessment{ID: "a1", Title: "Quiz 3", Subject: "Physics", Date: "2025-05-10T06:30:00.000Z"}))

	items, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assessment, ok := items[0].(*models.Assessment)
	require.True(t, ok)
	assert.Equal(t, "a1", assessment.ID)
	assert.Equal(t, "Physics", assessment.Subject)
	assert.Equal(t, models.CalendarItemTypeAssessment, assessment.Type)

	event, ok := items[1].(*models.Event)
	require.True(t, ok)
	assert.Equal(t, "Parade", event.Description)

	snap, err := store.Get(ctx, docstore.MustPath("calendarItems/e1/subject"))
	require.NoError(t, err)
	assert.False(t, snap.Exists())
}

func TestCalendarRepositorySkipsUnknownType(t *testing.T) {
	store := memstore.New(nil)
	repo := NewCalendarRepository(store, nil)
	ctx := context.Background()

	path := docstore.MustPath(CalendarItemsPath)
	require.NoError(t, store.Set(ctx, path.Child("x"), map[string]any{"type": "holiday", "title": "?", "date": "2025-01-01"}))
	require.NoError(t, store.Set(ctx, path.Child("y"), map[string]any{"type": "event", "title": "Ok", "date": "2025-01-01"}))

	items, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "y", items[0].ItemID())
}
