package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campuspass-api/pkg/docstore"
	"github.com/noah-isme/campuspass-api/pkg/docstore/docstoretest"
)

func TestConformance(t *testing.T) {
	docstoretest.Run(t, func(t *testing.T) docstore.Client { return New(nil) })
}

func TestFailWrites(t *testing.T) {
	s := New(nil)
	ctx := context.Background()
	s.FailWrites(errors.New("read only"))

	assert.EqualError(t, s.Set(ctx, docstore.MustPath("users/a"), map[string]any{"x": 1}), "read only")

	s.FailWrites(nil)
	require.NoError(t, s.Set(ctx, docstore.MustPath("users/a"), map[string]any{"x": 1}))
}

func TestClosedStore(t *testing.T) {
	s := New(nil)
	require.NoError(t, s.Close())

	_, err := s.Get(context.Background(), docstore.MustPath("users"))
	assert.ErrorIs(t, err, docstore.ErrClosed)
	assert.ErrorIs(t, s.Set(context.Background(), docstore.MustPath("users/a"), "x"), docstore.ErrClosed)
}

func TestUnsubscribeDetachesWatcher(t *testing.T) {
	s := New(nil)
	sub, err := s.Subscribe(context.Background(), docstore.MustPath("announcements"), func(docstore.Snapshot) {})
	require.NoError(t, err)
	assert.Equal(t, 1, s.Watchers("announcements"))

	sub.Unsubscribe()
	<-sub.Done()
	assert.Eventually(t, func() bool { return s.Watchers("announcements") == 0 }, time.Second, 10*time.Millisecond)
}

func TestContextCancelStopsSubscription(t *testing.T) {
	s := New(nil)
	ctx, cancel := context.WithCancel(context.Background())
	sub, err := s.Subscribe(ctx, docstore.MustPath("announcements"), func(docstore.Snapshot) {})
	require.NoError(t, err)

	cancel()
	select {
	case <-sub.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("subscription outlived its context")
	}
}
