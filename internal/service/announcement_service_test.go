package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campuspass-api/internal/models"
	"github.com/noah-isme/campuspass-api/internal/repository"
	"github.com/noah-isme/campuspass-api/pkg/docstore/memstore"
	appErrors "github.com/noah-isme/campuspass-api/pkg/errors"
)

func newAnnouncementFixture(t *testing.T) (*AnnouncementService, *memstore.Store) {
	t.Helper()
	store := memstore.New(nil)
	t.Cleanup(func() { _ = store.Close() })
	svc := NewAnnouncementService(repository.NewAnnouncementRepository(store, nil), nil, nil)
	return svc, store
}

func TestAnnouncementServiceAddDatesWithUTCDay(t *testing.T) {
	svc, _ := newAnnouncementFixture(t)
	// 07:30 in Manila is still the previous day in UTC
	svc.now = func() time.Time {
		return time.Date(2025, 5, 2, 7, 30, 0, 0, time.FixedZone("PHT", 8*3600))
	}
	ctx := context.Background()

	id, err := svc.Add(ctx, models.CreateAnnouncementRequest{Title: "  Enrollment  ", Content: "Opens Monday", Category: models.AnnouncementCategoryAcademics})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	items, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, id, items[0].ID)
	assert.Equal(t, "Enrollment", items[0].Title)
	assert.Equal(t, "2025-05-01", items[0].Date)
}

func TestAnnouncementServiceAddValidation(t *testing.T) {
	svc, _ := newAnnouncementFixture(t)

	_, err := svc.Add(context.Background(), models.CreateAnnouncementRequest{Title: "x", Content: "y", Category: "Gossip"})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
	assert.Contains(t, err.Error(), "category must be one of")

	_, err = svc.Add(context.Background(), models.CreateAnnouncementRequest{Title: "   ", Content: "y", Category: models.AnnouncementCategoryOther})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "title is required")
}

func TestAnnouncementServiceAddWriteFailure(t *testing.T) {
	svc, store := newAnnouncementFixture(t)
	store.FailWrites(errors.New("disk full"))

	_, err := svc.Add(context.Background(), models.CreateAnnouncementRequest{Title: "x", Content: "y", Category: models.AnnouncementCategoryCampus})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrWriteFailure))
}

func TestAnnouncementServiceDelete(t *testing.T) {
	svc, _ := newAnnouncementFixture(t)
	ctx := context.Background()

	id, err := svc.Add(ctx, models.CreateAnnouncementRequest{Title: "x", Content: "y", Category: models.AnnouncementCategoryEvent})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, id))
	require.NoError(t, svc.Delete(ctx, id))
	items, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)

	err = svc.Delete(ctx, "bad/id")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestAnnouncementServiceSubscribeDeliversOrderedSnapshots(t *testing.T) {
	svc, _ := newAnnouncementFixture(t)
	ctx := context.Background()

	snapshots := make(chan []models.Announcement, 8)
	stop, err := svc.Subscribe(ctx, func(items []models.Announcement) { snapshots <- items })
	require.NoError(t, err)
	defer stop()

	select {
	case initial := <-snapshots:
		assert.Empty(t, initial)
	case <-time.After(2 * time.Second):
		t.Fatal("no initial snapshot")
	}

	first, err := svc.Add(ctx, models.CreateAnnouncementRequest{Title: "first", Content: "a", Category: models.AnnouncementCategoryOther})
	require.NoError(t, err)
	second, err := svc.Add(ctx, models.CreateAnnouncementRequest{Title: "second", Content: "b", Category: models.AnnouncementCategoryOther})
	require.NoError(t, err)

	deadline := time.After(2 * time.Second)
	for {
		select {
		case items := <-snapshots:
			if len(items) < 2 {
				continue
			}
			// same day, so the later generated id comes first
			assert.Equal(t, second, items[0].ID)
			assert.Equal(t, first, items[1].ID)
			stop()
			stop()
			return
		case <-deadline:
			t.Fatal("no snapshot with both announcements")
		}
	}
}

func TestAnnouncementServiceDeleteUnknownDeliversNothing(t *testing.T) {
	svc, _ := newAnnouncementFixture(t)
	ctx := context.Background()

	snapshots := make(chan []models.Announcement, 8)
	stop, err := svc.Subscribe(ctx, func(items []models.Announcement) { snapshots <- items })
	require.NoError(t, err)
	defer stop()

	select {
	case initial := <-snapshots:
		assert.Empty(t, initial)
	case <-time.After(2 * time.Second):
		t.Fatal("no initial snapshot")
	}

	require.NoError(t, svc.Delete(ctx, "missing"))
	expectNoSnapshot(t, snapshots, 150*time.Millisecond)
}

func TestSortAnnouncements(t *testing.T) {
	items := []models.Announcement{
		{ID: "a", Date: "2025-04-01"},
		{ID: "b", Date: "not a date"},
		{ID: "c", Date: "2025-05-01"},
		{ID: "d", Date: "2025-05-01"},
		{ID: "e", Date: "2025-03-15T10:00:00Z"},
	}
	SortAnnouncements(items)

	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	assert.Equal(t, []string{"d", "c", "a", "e", "b"}, ids)
}
