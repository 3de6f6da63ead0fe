// Package pgstore keeps documents in a PostgreSQL jsonb table and announces changes with
// LISTEN/NOTIFY.
package pgstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/noah-isme/campuspass-api/pkg/docstore"
)

// Schema creates the documents table.
const Schema = `CREATE TABLE IF NOT EXISTS documents (
	collection TEXT NOT NULL,
	key TEXT NOT NULL,
	value JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (collection, key)
)`

type documentRow struct {
	Key   string `db:"key"`
	Value []byte `db:"value"`
}

// ListenerFactory opens the notification listener used by one subscription.
type ListenerFactory func(channel string) (Listener, error)

// Listener is the subset of *pq.Listener a subscription needs.
type Listener interface {
	NotificationChannel() <-chan *pq.Notification
	Close() error
}

// Store is a docstore.Client backed by PostgreSQL.
type Store struct {
	db        *sqlx.DB
	channel   string
	listen    ListenerFactory
	logger    *zap.Logger
	timestamp func() time.Time
}

var _ docstore.Client = (*Store)(nil)

// New builds the store. dsn is used to open one pq.Listener per subscription.
func New(db *sqlx.DB, dsn, namespace string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	if namespace == "" {
		namespace = "campuspass"
	}
	s := &Store{db: db, channel: namespace + "_changes", logger: logger, timestamp: func() time.Time { return time.Now().UTC() }}
	s.listen = func(channel string) (Listener, error) {
		l := pq.NewListener(dsn, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
			if err != nil {
				s.logger.Warn("postgres listener event", zap.Int("event", int(ev)), zap.Error(err))
			}
		})
		if err := l.Listen(channel); err != nil {
			_ = l.Close()
			return nil, err
		}
		return l, nil
	}
	return s
}

// WithListenerFactory replaces how subscriptions receive notifications.
func (s *Store) WithListenerFactory(f ListenerFactory) *Store {
	s.listen = f
	return s
}

// EnsureSchema creates the documents table when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("ensure documents schema: %w", err)
	}
	return nil
}

// Driver implements docstore.Client.
func (s *Store) Driver() string { return "postgres" }

// NewKey implements docstore.Client.
func (s *Store) NewKey() string { return docstore.NewKey() }

// Get implements docstore.Client.
func (s *Store) Get(ctx context.Context, path docstore.Path) (docstore.Snapshot, error) {
	value, err := s.read(ctx, s.db, path)
	if err != nil {
		return docstore.Snapshot{}, err
	}
	return docstore.Snapshot{Path: path, Value: value}, nil
}

// Set implements docstore.Client.
func (s *Store) Set(ctx context.Context, path docstore.Path, value any) error {
	encoded, err := docstore.Encode(value)
	if err != nil {
		return err
	}
	_, err = s.write(ctx, path, encoded, false)
	return err
}

// SetIfAbsent implements docstore.Client.
func (s *Store) SetIfAbsent(ctx context.Context, path docstore.Path, value any) (bool, error) {
	encoded, err := docstore.Encode(value)
	if err != nil {
		return false, err
	}
	return s.write(ctx, path, encoded, true)
}

// Remove implements docstore.Client.
func (s *Store) Remove(ctx context.Context, path docstore.Path) error {
	_, err := s.write(ctx, path, nil, false)
	return err
}

// Subscribe implements docstore.Client.
func (s *Store) Subscribe(ctx context.Context, path docstore.Path, listener docstore.Listener) (*docstore.Subscription, error) {
	if err := path.Validate(); err != nil {
		return nil, err
	}
	l, err := s.listen(s.channel)
	if err != nil {
		return nil, fmt.Errorf("postgres listen %s: %w", s.channel, err)
	}
	initial, err := s.Get(ctx, path)
	if err != nil {
		_ = l.Close()
		return nil, err
	}

	changes := make(chan struct{}, 1)
	done := make(chan struct{})
	go func() {
		defer close(changes)
		notifications := l.NotificationChannel()
		for {
			select {
			case <-done:
				return
			case n, ok := <-notifications:
				if !ok {
					return
				}
				// nil marks a reconnect; anything may have changed meanwhile
				if n != nil && n.Extra != path.Collection() {
					continue
				}
				select {
				case changes <- struct{}{}:
				default:
				}
			}
		}
	}()

	return docstore.StartStream(ctx, docstore.Stream{
		Path:    path,
		Initial: initial,
		Changes: changes,
		Read: func(ctx context.Context) (docstore.Snapshot, error) {
			return s.Get(ctx, path)
		},
		OnStop: func() {
			close(done)
			if err := l.Close(); err != nil {
				s.logger.Debug("postgres listener close failed", zap.Error(err))
			}
		},
		Logger: s.logger,
	}, listener), nil
}

// Close implements docstore.Client.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) read(ctx context.Context, q sqlx.QueryerContext, path docstore.Path) (json.RawMessage, error) {
	collection := path.Collection()
	return docstore.ReadPath(path,
		func() (map[string]json.RawMessage, error) {
			var rows []documentRow
			if err := sqlx.SelectContext(ctx, q, &rows, `SELECT key, value FROM documents WHERE collection = $1`, collection); err != nil {
				return nil, fmt.Errorf("list documents %s: %w", collection, err)
			}
			out := make(map[string]json.RawMessage, len(rows))
			for _, row := range rows {
				out[row.Key] = json.RawMessage(row.Value)
			}
			return out, nil
		},
		func(key string) (json.RawMessage, error) {
			return readRecord(ctx, q, collection, key)
		},
	)
}

func readRecord(ctx context.Context, q sqlx.QueryerContext, collection, key string) (json.RawMessage, error) {
	var value []byte
	err := sqlx.GetContext(ctx, q, &value, `SELECT value FROM documents WHERE collection = $1 AND key = $2`, collection, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get document %s/%s: %w", collection, key, err)
	}
	return value, nil
}

// write serialises writers of one collection with a transaction scoped advisory lock.
func (s *Store) write(ctx context.Context, path docstore.Path, value json.RawMessage, onlyIfAbsent bool) (written bool, err error) {
	if err := path.Validate(); err != nil {
		return false, err
	}
	collection := path.Collection()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin write %s: %w", path, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, collection); err != nil {
		return false, fmt.Errorf("lock collection %s: %w", collection, err)
	}

	if onlyIfAbsent {
		current, readErr := s.read(ctx, tx, path)
		if readErr != nil {
			err = readErr
			return false, err
		}
		if !docstore.IsEmpty(current) {
			return false, tx.Commit()
		}
	}

	m, err := docstore.PlanSet(path, value, func(key string) (json.RawMessage, error) {
		return readRecord(ctx, tx, collection, key)
	})
	if err != nil {
		return false, err
	}

	changed, err := s.apply(ctx, tx, m)
	if err != nil {
		return false, err
	}
	if changed {
		if _, err = tx.ExecContext(ctx, `SELECT pg_notify($1, $2)`, s.channel, collection); err != nil {
			return false, fmt.Errorf("notify %s: %w", collection, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return false, fmt.Errorf("commit write %s: %w", path, err)
	}
	return changed, nil
}

func (s *Store) apply(ctx context.Context, tx *sqlx.Tx, m docstore.Mutation) (bool, error) {
	now := s.timestamp()
	switch {
	case m.Replace:
		res, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE collection = $1`, m.Collection)
		if err != nil {
			return false, fmt.Errorf("clear collection %s: %w", m.Collection, err)
		}
		removed, _ := res.RowsAffected()
		for key, record := range m.Children {
			if err := upsert(ctx, tx, m.Collection, key, record, now); err != nil {
				return false, err
			}
		}
		return removed > 0 || len(m.Children) > 0, nil
	case docstore.IsEmpty(m.Record):
		res, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE collection = $1 AND key = $2`, m.Collection, m.Key)
		if err != nil {
			return false, fmt.Errorf("delete document %s/%s: %w", m.Collection, m.Key, err)
		}
		affected, _ := res.RowsAffected()
		return affected > 0, nil
	default:
		if err := upsert(ctx, tx, m.Collection, m.Key, m.Record, now); err != nil {
			return false, err
		}
		return true, nil
	}
}

func upsert(ctx context.Context, tx *sqlx.Tx, collection, key string, record json.RawMessage, now time.Time) error {
	const query = `INSERT INTO documents (collection, key, value, updated_at) VALUES ($1, $2, $3, $4)
ON CONFLICT (collection, key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`
	if _, err := tx.ExecContext(ctx, query, collection, key, []byte(record), now); err != nil {
		return fmt.Errorf("upsert document %s/%s: %w", collection, key, err)
	}
	return nil
}
