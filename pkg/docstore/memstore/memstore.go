// Package memstore is an in-process docstore driver. It backs local development and tests.
package memstore

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/noah-isme/campuspass-api/pkg/docstore"
)

// Store keeps collections in memory.
type Store struct {
	mu          sync.RWMutex
	collections map[string]map[string]json.RawMessage
	hub         *docstore.Hub
	logger      *zap.Logger
	closed      bool
	failWrites  error
}

var _ docstore.Client = (*Store)(nil)

// New returns an empty store.
func New(logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		collections: make(map[string]map[string]json.RawMessage),
		hub:         docstore.NewHub(),
		logger:      logger,
	}
}

// FailWrites makes every subsequent write return err. Pass nil to restore writes.
func (s *Store) FailWrites(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWrites = err
}

// Driver implements docstore.Client.
func (s *Store) Driver() string { return "memory" }

// NewKey implements docstore.Client.
func (s *Store) NewKey() string { return docstore.NewKey() }

// Get implements docstore.Client.
func (s *Store) Get(ctx context.Context, path docstore.Path) (docstore.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return docstore.Snapshot{}, docstore.ErrClosed
	}
	value, err := docstore.ReadPath(path, s.readCollection(path.Collection()), s.readRecord(path.Collection()))
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
	s.mu.Lock()
	changed, err := s.apply(path, encoded)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	if changed {
		s.hub.Notify(path.Collection())
	}
	return nil
}

// SetIfAbsent implements docstore.Client.
func (s *Store) SetIfAbsent(ctx context.Context, path docstore.Path, value any) (bool, error) {
	encoded, err := docstore.Encode(value)
	if err != nil {
		return false, err
	}
	s.mu.Lock()
	current, err := docstore.ReadPath(path, s.readCollection(path.Collection()), s.readRecord(path.Collection()))
	if err != nil {
		s.mu.Unlock()
		return false, err
	}
	if !docstore.IsEmpty(current) {
		s.mu.Unlock()
		return false, nil
	}
	changed, err := s.apply(path, encoded)
	s.mu.Unlock()
	if err != nil {
		return false, err
	}
	if changed {
		s.hub.Notify(path.Collection())
	}
	return true, nil
}

// Remove implements docstore.Client.
func (s *Store) Remove(ctx context.Context, path docstore.Path) error {
	return s.Set(ctx, path, nil)
}

// Subscribe implements docstore.Client.
func (s *Store) Subscribe(ctx context.Context, path docstore.Path, listener docstore.Listener) (*docstore.Subscription, error) {
	if err := path.Validate(); err != nil {
		return nil, err
	}
	changes, detach := s.hub.Watch(path.Collection())
	initial, err := s.Get(ctx, path)
	if err != nil {
		detach()
		return nil, err
	}
	return docstore.StartStream(ctx, docstore.Stream{
		Path:    path,
		Initial: initial,
		Changes: changes,
		Read: func(ctx context.Context) (docstore.Snapshot, error) {
			return s.Get(ctx, path)
		},
		OnStop: detach,
		Logger: s.logger,
	}, listener), nil
}

// Watchers reports how many live subscriptions watch a collection.
func (s *Store) Watchers(collection string) int {
	return s.hub.Watchers(collection)
}

// Close implements docstore.Client.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// apply must be called with the write lock held.
func (s *Store) apply(path docstore.Path, value json.RawMessage) (bool, error) {
	if s.closed {
		return false, docstore.ErrClosed
	}
	if s.failWrites != nil {
		return false, s.failWrites
	}
	m, err := docstore.PlanSet(path, value, s.readRecord(path.Collection()))
	if err != nil {
		return false, err
	}
	records := s.collections[m.Collection]
	if m.Replace {
		if len(records) == 0 && len(m.Children) == 0 {
			return false, nil
		}
		if len(m.Children) == 0 {
			delete(s.collections, m.Collection)
		} else {
			s.collections[m.Collection] = m.Children
		}
		return true, nil
	}
	current, exists := records[m.Key]
	if docstore.IsEmpty(m.Record) {
		if !exists {
			return false, nil
		}
		delete(records, m.Key)
		if len(records) == 0 {
			delete(s.collections, m.Collection)
		}
		return true, nil
	}
	if exists && bytes.Equal(current, m.Record) {
		return false, nil
	}
	if records == nil {
		records = make(map[string]json.RawMessage)
		s.collections[m.Collection] = records
	}
	records[m.Key] = m.Record
	return true, nil
}

func (s *Store) readCollection(collection string) docstore.CollectionReader {
	return func() (map[string]json.RawMessage, error) {
		out := make(map[string]json.RawMessage, len(s.collections[collection]))
		for k, v := range s.collections[collection] {
			out[k] = v
		}
		return out, nil
	}
}

func (s *Store) readRecord(collection string) docstore.RecordReader {
	return func(key string) (json.RawMessage, error) {
		return s.collections[collection][key], nil
	}
}
