package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePath(t *testing.T) {
	p, err := ParsePath("/users/S-1/displayName/")
	require.NoError(t, err)
	assert.Equal(t, 3, p.Depth())
	assert.Equal(t, "users", p.Collection())
	assert.Equal(t, "S-1", p.Key())
	assert.Equal(t, []string{"displayName"}, p.Fields())
	assert.Equal(t, "users/S-1/displayName", p.String())

	for _, raw := range []string{"", "/", "users/a.b", "users/#1", "a//b", "x/$y", "[z]"} {
		_, err := ParsePath(raw)
		assert.ErrorIs(t, err, ErrInvalidPath, raw)
	}
}

func TestPathChildWithInvalidKey(t *testing.T) {
	p := MustPath("announcements").Child("bad.key")
	assert.ErrorIs(t, p.Validate(), ErrInvalidPath)
	assert.NoError(t, MustPath("announcements").Child("ok-key").Validate())
}

func TestMustPathPanics(t *testing.T) {
	assert.Panics(t, func() { MustPath("") })
}

func TestEncodeCanonicalises(t *testing.T) {
	raw, err := Encode(json.RawMessage(`{ "b": 1, "a": {"z": 12345678901234567890} }`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":{"z":12345678901234567890},"b":1}`, string(raw))
	assert.Equal(t, `{"a":{"z":12345678901234567890},"b":1}`, string(raw))

	for _, empty := range []any{nil, json.RawMessage(`null`), map[string]any{}, json.RawMessage(`{}`)} {
		raw, err := Encode(empty)
		require.NoError(t, err)
		assert.Nil(t, raw)
	}
}

func TestSnapshotChildrenAndDecode(t *testing.T) {
	snap := Snapshot{Path: MustPath("users"), Value: json.RawMessage(`{"a":{"fullName":"A"},"b":{"fullName":"B"}}`)}
	children, err := snap.Children()
	require.NoError(t, err)
	assert.Len(t, children, 2)

	missing := Snapshot{Path: MustPath("users")}
	assert.False(t, missing.Exists())
	children, err = missing.Children()
	require.NoError(t, err)
	assert.Empty(t, children)
	assert.Error(t, missing.Decode(&map[string]any{}))
}

func TestFields(t *testing.T) {
	doc := json.RawMessage(`{"fullName":"Reyes, Ana","prefs":{"theme":"dark"}}`)

	assert.Equal(t, `"dark"`, string(GetField(doc, []string{"prefs", "theme"})))
	assert.Nil(t, GetField(doc, []string{"prefs", "missing"}))

	out, err := SetField(doc, []string{"prefs", "2024"}, json.RawMessage(`true`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"fullName":"Reyes, Ana","prefs":{"theme":"dark","2024":true}}`, string(out))

	out, err = SetField(nil, []string{"displayName"}, json.RawMessage(`"Ana"`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"displayName":"Ana"}`, string(out))

	out, err = SetField(json.RawMessage(`{"displayName":"Ana"}`), []string{"displayName"}, nil)
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestPlanSet(t *testing.T) {
	noRecord := func(string) (json.RawMessage, error) { return nil, nil }

	m, err := PlanSet(MustPath("users"), json.RawMessage(`{"a":{"x":1},"b":null}`), noRecord)
	require.NoError(t, err)
	assert.True(t, m.Replace)
	assert.Len(t, m.Children, 1)

	_, err = PlanSet(MustPath("users"), json.RawMessage(`{"a.b":{"x":1}}`), noRecord)
	assert.ErrorIs(t, err, ErrInvalidPath)

	_, err = PlanSet(MustPath("users"), json.RawMessage(`"scalar"`), noRecord)
	assert.Error(t, err)

	m, err = PlanSet(MustPath("users/a"), nil, noRecord)
	require.NoError(t, err)
	assert.False(t, m.Replace)
	assert.Equal(t, "a", m.Key)
	assert.Nil(t, m.Record)

	current := func(key string) (json.RawMessage, error) {
		return json.RawMessage(`{"fullName":"A","passwordHash":"old"}`), nil
	}
	m, err = PlanSet(MustPath("users/a/passwordHash"), json.RawMessage(`"new"`), current)
	require.NoError(t, err)
	assert.JSONEq(t, `{"fullName":"A","passwordHash":"new"}`, string(m.Record))

	failing := func(string) (json.RawMessage, error) { return nil, errors.New("boom") }
	_, err = PlanSet(MustPath("users/a/passwordHash"), json.RawMessage(`"new"`), failing)
	assert.Error(t, err)
}

func TestReadPath(t *testing.T) {
	all := func() (map[string]json.RawMessage, error) {
		return map[string]json.RawMessage{"a": json.RawMessage(`{"n":1}`)}, nil
	}
	one := func(key string) (json.RawMessage, error) {
		if key == "a" {
			return json.RawMessage(`{"n":1}`), nil
		}
		return nil, nil
	}

	raw, err := ReadPath(MustPath("c"), all, one)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":{"n":1}}`, string(raw))

	raw, err = ReadPath(MustPath("c/a/n"), all, one)
	require.NoError(t, err)
	assert.Equal(t, "1", string(raw))

	raw, err = ReadPath(MustPath("c/missing"), all, one)
	require.NoError(t, err)
	assert.Nil(t, raw)
}

func TestHubCoalescesSignals(t *testing.T) {
	hub := NewHub()
	ch, stop := hub.Watch("announcements")
	assert.Equal(t, 1, hub.Watchers("announcements"))

	hub.Notify("announcements")
	hub.Notify("announcements")
	hub.Notify("users")

	<-ch
	select {
	case <-ch:
		t.Fatal("signals were not coalesced")
	default:
	}

	stop()
	assert.Equal(t, 0, hub.Watchers("announcements"))
}

func TestStartStreamDeliversChangesAndDropsDuplicates(t *testing.T) {
	changes := make(chan struct{}, 1)
	values := []string{`{"a":1}`, `{"a":1}`, `{"a":2}`}
	reads := 0
	stopped := make(chan struct{})

	got := make(chan string, 8)
	sub := StartStream(context.Background(), Stream{
		Path:    MustPath("c"),
		Initial: Snapshot{Path: MustPath("c")},
		Changes: changes,
		Read: func(ctx context.Context) (Snapshot, error) {
			v := values[reads]
			reads++
			return Snapshot{Path: MustPath("c"), Value: json.RawMessage(v)}, nil
		},
		OnStop: func() { close(stopped) },
	}, func(s Snapshot) { got <- string(s.Value) })

	assert.Equal(t, "", <-got)
	for range values {
		changes <- struct{}{}
	}

	assert.Equal(t, `{"a":1}`, <-got)
	assert.Equal(t, `{"a":2}`, <-got)

	sub.Unsubscribe()
	sub.Unsubscribe()
	select {
	case <-sub.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("stream goroutine did not exit")
	}
	<-stopped
	assert.Empty(t, got)
}

func TestNewKeySortsByCreation(t *testing.T) {
	prev := NewKey()
	for i := 0; i < 500; i++ {
		next := NewKey()
		require.Greater(t, next, prev)
		prev = next
	}
}

func TestNewKeyRetriesAndNeverFallsBackToRandom(t *testing.T) {
	original := newV7
	t.Cleanup(func() { newV7 = original })

	calls := 0
	newV7 = func() (uuid.UUID, error) {
		calls++
		if calls < keyAttempts {
			return uuid.Nil, errors.New("entropy unavailable")
		}
		return original()
	}
	key := NewKey()
	assert.Equal(t, keyAttempts, calls)
	assert.Equal(t, uuid.Version(7), uuid.MustParse(key).Version())

	newV7 = func() (uuid.UUID, error) { return uuid.Nil, errors.New("entropy unavailable") }
	assert.Panics(t, func() { NewKey() })
}
