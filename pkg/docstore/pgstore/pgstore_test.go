package pgstore

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campuspass-api/pkg/docstore"
)

var (
	listQuery   = regexp.QuoteMeta(`SELECT key, value FROM documents WHERE collection = $1`)
	getQuery    = regexp.QuoteMeta(`SELECT value FROM documents WHERE collection = $1 AND key = $2`)
	lockQuery   = regexp.QuoteMeta(`SELECT pg_advisory_xact_lock(hashtext($1))`)
	upsertQuery = regexp.QuoteMeta(`INSERT INTO documents (collection, key, value, updated_at)`)
	deleteOne   = regexp.QuoteMeta(`DELETE FROM documents WHERE collection = $1 AND key = $2`)
	notifyQuery = regexp.QuoteMeta(`SELECT pg_notify($1, $2)`)
)

type fakeListener struct {
	ch     chan *pq.Notification
	closed chan struct{}
}

func (l *fakeListener) NotificationChannel() <-chan *pq.Notification { return l.ch }

func (l *fakeListener) Close() error {
	close(l.closed)
	return nil
}

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })
	store := New(sqlx.NewDb(mockDB, "postgres"), "", "test", nil)
	fixed := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	store.timestamp = func() time.Time { return fixed }
	return store, mock
}

func TestGetCollection(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(listQuery).WithArgs("announcements").WillReturnRows(
		sqlmock.NewRows([]string{"key", "value"}).
			AddRow("a1", []byte(`{"title":"Exams"}`)).
			AddRow("a2", []byte(`{"title":"Fair"}`)),
	)

	snap, err := store.Get(context.Background(), docstore.MustPath("announcements"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"a1":{"title":"Exams"},"a2":{"title":"Fair"}}`, string(snap.Value))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetMissingRecord(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(getQuery).WithArgs("users", "S-9").WillReturnRows(sqlmock.NewRows([]string{"value"}))

	snap, err := store.Get(context.Background(), docstore.MustPath("users/S-9"))
	require.NoError(t, err)
	assert.False(t, snap.Exists())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSetFieldPatchesRecordAndNotifies(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectExec(lockQuery).WithArgs("users").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(getQuery).WithArgs("users", "S-1").WillReturnRows(
		sqlmock.NewRows([]string{"value"}).AddRow([]byte(`{"fullName":"A","passwordHash":"old"}`)),
	)
	mock.ExpectExec(upsertQuery).
		WithArgs("users", "S-1", []byte(`{"fullName":"A","passwordHash":"new"}`), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(notifyQuery).WithArgs("test_changes", "users").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := store.Set(context.Background(), docstore.MustPath("users/S-1/passwordHash"), "new")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRemoveMissingSkipsNotify(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectExec(lockQuery).WithArgs("announcements").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(deleteOne).WithArgs("announcements", "gone").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	require.NoError(t, store.Remove(context.Background(), docstore.MustPath("announcements/gone")))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSetIfAbsentKeepsExistingCollection(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectExec(lockQuery).WithArgs("users").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(listQuery).WithArgs("users").WillReturnRows(
		sqlmock.NewRows([]string{"key", "value"}).AddRow("S-1", []byte(`{"fullName":"A"}`)),
	)
	mock.ExpectCommit()

	written, err := store.SetIfAbsent(context.Background(), docstore.MustPath("users"), map[string]any{"S-2": map[string]any{"fullName": "B"}})
	require.NoError(t, err)
	assert.False(t, written)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWriteRollsBackOnFailure(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectExec(lockQuery).WithArgs("announcements").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(upsertQuery).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := store.Set(context.Background(), docstore.MustPath("announcements/a1"), map[string]any{"title": "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubscribeFollowsNotifications(t *testing.T) {
	store, mock := newMockStore(t)
	listener := &fakeListener{ch: make(chan *pq.Notification, 4), closed: make(chan struct{})}
	var channel string
	store.WithListenerFactory(func(ch string) (Listener, error) {
		channel = ch
		return listener, nil
	})

	mock.ExpectQuery(listQuery).WithArgs("announcements").WillReturnRows(sqlmock.NewRows([]string{"key", "value"}))
	mock.ExpectQuery(listQuery).WithArgs("announcements").WillReturnRows(
		sqlmock.NewRows([]string{"key", "value"}).AddRow("a1", []byte(`{"title":"Exams"}`)),
	)

	got := make(chan json.RawMessage, 4)
	sub, err := store.Subscribe(context.Background(), docstore.MustPath("announcements"), func(s docstore.Snapshot) {
		got <- s.Value
	})
	require.NoError(t, err)
	assert.Equal(t, "test_changes", channel)
	assert.Nil(t, <-got)

	listener.ch <- &pq.Notification{Channel: "test_changes", Extra: "users"}
	listener.ch <- &pq.Notification{Channel: "test_changes", Extra: "announcements"}

	select {
	case v := <-got:
		assert.JSONEq(t, `{"a1":{"title":"Exams"}}`, string(v))
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot after notification")
	}

	sub.Unsubscribe()
	<-sub.Done()
	<-listener.closed
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubscribeListenFailure(t *testing.T) {
	store, _ := newMockStore(t)
	store.WithListenerFactory(func(string) (Listener, error) { return nil, errors.New("no route") })

	_, err := store.Subscribe(context.Background(), docstore.MustPath("announcements"), func(docstore.Snapshot) {})
	assert.Error(t, err)
}
