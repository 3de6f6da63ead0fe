// Package docstoretest holds the behaviour every docstore driver must share.
package docstoretest

import (
	"context"
	"encoding/json"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campuspass-api/pkg/docstore"
)

// Factory returns a fresh, empty client. The suite closes it.
type Factory func(t *testing.T) docstore.Client

// Run exercises a driver against the common contract.
func Run(t *testing.T, newClient Factory) {
	t.Run("GetMissing", func(t *testing.T) { testGetMissing(t, newClient(t)) })
	t.Run("SetGetRecord", func(t *testing.T) { testSetGetRecord(t, newClient(t)) })
	t.Run("FieldWrite", func(t *testing.T) { testFieldWrite(t, newClient(t)) })
	t.Run("RemoveIsIdempotent", func(t *testing.T) { testRemove(t, newClient(t)) })
	t.Run("SetIfAbsent", func(t *testing.T) { testSetIfAbsent(t, newClient(t)) })
	t.Run("InvalidPath", func(t *testing.T) { testInvalidPath(t, newClient(t)) })
	t.Run("Subscribe", func(t *testing.T) { testSubscribe(t, newClient(t)) })
}

func testGetMissing(t *testing.T, c docstore.Client) {
	defer c.Close()
	ctx := context.Background()

	snap, err := c.Get(ctx, docstore.MustPath("users"))
	require.NoError(t, err)
	assert.False(t, snap.Exists())

	snap, err = c.Get(ctx, docstore.MustPath("users/nobody/fullName"))
	require.NoError(t, err)
	assert.False(t, snap.Exists())
}

func testSetGetRecord(t *testing.T, c docstore.Client) {
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, docstore.MustPath("announcements/a1"), map[string]any{"title": "Exams", "date": "2025-05-01"}))
	require.NoError(t, c.Set(ctx, docstore.MustPath("announcements/a2"), map[string]any{"title": "Fair", "date": "2025-05-02"}))

	snap, err := c.Get(ctx, docstore.MustPath("announcements"))
	require.NoError(t, err)
	children, err := snap.Children()
	require.NoError(t, err)
	assert.Equal(t, []string{"a1", "a2"}, keys(children))
	assert.JSONEq(t, `{"title":"Exams","date":"2025-05-01"}`, string(children["a1"]))

	snap, err = c.Get(ctx, docstore.MustPath("announcements/a2/title"))
	require.NoError(t, err)
	assert.Equal(t, `"Fair"`, string(snap.Value))
}

func testFieldWrite(t *testing.T, c docstore.Client) {
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, docstore.MustPath("users/S-1"), map[string]any{"fullName": "Reyes, Ana", "passwordHash": "old"}))
	require.NoError(t, c.Set(ctx, docstore.MustPath("users/S-1/passwordHash"), "new"))

	snap, err := c.Get(ctx, docstore.MustPath("users/S-1"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"fullName":"Reyes, Ana","passwordHash":"new"}`, string(snap.Value))
}

func testRemove(t *testing.T, c docstore.Client) {
	defer c.Close()
	ctx := context.Background()
	path := docstore.MustPath("calendarItems/c1")

	require.NoError(t, c.Set(ctx, path, map[string]any{"type": "event"}))
	require.NoError(t, c.Remove(ctx, path))
	require.NoError(t, c.Remove(ctx, path))

	snap, err := c.Get(ctx, docstore.MustPath("calendarItems"))
	require.NoError(t, err)
	assert.False(t, snap.Exists())
}

func testSetIfAbsent(t *testing.T, c docstore.Client) {
	defer c.Close()
	ctx := context.Background()
	users := docstore.MustPath("users")

	written, err := c.SetIfAbsent(ctx, users, map[string]any{"S-1": map[string]any{"fullName": "A"}})
	require.NoError(t, err)
	assert.True(t, written)

	written, err = c.SetIfAbsent(ctx, users, map[string]any{"S-2": map[string]any{"fullName": "B"}})
	require.NoError(t, err)
	assert.False(t, written)

	snap, err := c.Get(ctx, users)
	require.NoError(t, err)
	children, err := snap.Children()
	require.NoError(t, err)
	assert.Equal(t, []string{"S-1"}, keys(children))
}

func testInvalidPath(t *testing.T, c docstore.Client) {
	defer c.Close()
	ctx := context.Background()
	bad := docstore.MustPath("announcements").Child("a.b")

	assert.ErrorIs(t, c.Set(ctx, bad, map[string]any{"title": "x"}), docstore.ErrInvalidPath)
	assert.ErrorIs(t, c.Remove(ctx, bad), docstore.ErrInvalidPath)
	_, err := c.Subscribe(ctx, bad, func(docstore.Snapshot) {})
	assert.ErrorIs(t, err, docstore.ErrInvalidPath)
}

func testSubscribe(t *testing.T, c docstore.Client) {
	defer c.Close()
	ctx := context.Background()
	path := docstore.MustPath("announcements")

	got := make(chan json.RawMessage, 16)
	sub, err := c.Subscribe(ctx, path, func(s docstore.Snapshot) { got <- s.Value })
	require.NoError(t, err)

	initial := next(t, got)
	assert.True(t, docstore.IsEmpty(initial))

	require.NoError(t, c.Set(ctx, path.Child("a1"), map[string]any{"title": "Exams"}))
	assert.JSONEq(t, `{"a1":{"title":"Exams"}}`, string(waitFor(t, got, 1)))

	// writes elsewhere do not wake this subscription with new content
	require.NoError(t, c.Set(ctx, docstore.MustPath("users/S-1"), map[string]any{"fullName": "A"}))
	require.NoError(t, c.Remove(ctx, path.Child("a1")))
	assert.True(t, docstore.IsEmpty(waitFor(t, got, 0)))

	sub.Unsubscribe()
	select {
	case <-sub.Done():
	case <-time.After(3 * time.Second):
		t.Fatal("subscription did not stop")
	}
}

func next(t *testing.T, ch <-chan json.RawMessage) json.RawMessage {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for snapshot")
		return nil
	}
}

// waitFor returns the first delivery holding exactly n children.
func waitFor(t *testing.T, ch <-chan json.RawMessage, n int) json.RawMessage {
	t.Helper()
	for {
		v := next(t, ch)
		children, err := docstore.Snapshot{Value: v}.Children()
		require.NoError(t, err)
		if len(children) == n {
			return v
		}
	}
}

func keys(m map[string]json.RawMessage) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
