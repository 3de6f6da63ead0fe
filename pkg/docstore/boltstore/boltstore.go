// Package boltstore persists documents in an embedded bbolt file. Each collection is a bucket
// of key -> JSON record. Change notifications are delivered in-process.
package boltstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
	"go.uber.org/zap"

	"github.com/noah-isme/campuspass-api/pkg/docstore"
)

// Store is a docstore.Client over a bbolt database.
type Store struct {
	db     *bbolt.DB
	root   []byte
	hub    *docstore.Hub
	logger *zap.Logger
}

var _ docstore.Client = (*Store)(nil)

// Open opens (or creates) the database file. namespace names the root bucket.
func Open(path, namespace string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if namespace == "" {
		namespace = "campuspass"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create bolt directory: %w", err)
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt %s: %w", path, err)
	}
	root := []byte(namespace)
	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(root)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create root bucket: %w", err)
	}
	return &Store{db: db, root: root, hub: docstore.NewHub(), logger: logger}, nil
}

// Driver implements docstore.Client.
func (s *Store) Driver() string { return "bolt" }

// NewKey implements docstore.Client.
func (s *Store) NewKey() string { return docstore.NewKey() }

// Get implements docstore.Client.
func (s *Store) Get(ctx context.Context, path docstore.Path) (docstore.Snapshot, error) {
	var value json.RawMessage
	err := s.db.View(func(tx *bbolt.Tx) error {
		var err error
		value, err = docstore.ReadPath(path, s.collectionReader(tx, path.Collection()), s.recordReader(tx, path.Collection()))
		return err
	})
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
	_, err = s.write(path, encoded, false)
	return err
}

// SetIfAbsent implements docstore.Client.
func (s *Store) SetIfAbsent(ctx context.Context, path docstore.Path, value any) (bool, error) {
	encoded, err := docstore.Encode(value)
	if err != nil {
		return false, err
	}
	return s.write(path, encoded, true)
}

// Remove implements docstore.Client.
func (s *Store) Remove(ctx context.Context, path docstore.Path) error {
	_, err := s.write(path, nil, false)
	return err
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

// Close implements docstore.Client.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) write(path docstore.Path, value json.RawMessage, onlyIfAbsent bool) (bool, error) {
	if err := path.Validate(); err != nil {
		return false, err
	}
	collection := path.Collection()
	written := false
	err := s.db.Update(func(tx *bbolt.Tx) error {
		if onlyIfAbsent {
			current, err := docstore.ReadPath(path, s.collectionReader(tx, collection), s.recordReader(tx, collection))
			if err != nil {
				return err
			}
			if !docstore.IsEmpty(current) {
				return nil
			}
		}
		m, err := docstore.PlanSet(path, value, s.recordReader(tx, collection))
		if err != nil {
			return err
		}
		written, err = s.apply(tx, m)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("bolt write %s: %w", path, err)
	}
	if written {
		s.hub.Notify(collection)
	}
	return written, nil
}

func (s *Store) apply(tx *bbolt.Tx, m docstore.Mutation) (bool, error) {
	root := tx.Bucket(s.root)
	name := []byte(m.Collection)
	if m.Replace {
		changed := false
		if root.Bucket(name) != nil {
			if err := root.DeleteBucket(name); err != nil {
				return false, err
			}
			changed = true
		}
		if len(m.Children) == 0 {
			return changed, nil
		}
		bucket, err := root.CreateBucket(name)
		if err != nil {
			return false, err
		}
		for key, record := range m.Children {
			if err := bucket.Put([]byte(key), record); err != nil {
				return false, err
			}
		}
		return true, nil
	}

	bucket := root.Bucket(name)
	if docstore.IsEmpty(m.Record) {
		if bucket == nil || bucket.Get([]byte(m.Key)) == nil {
			return false, nil
		}
		if err := bucket.Delete([]byte(m.Key)); err != nil {
			return false, err
		}
		return true, nil
	}
	if bucket == nil {
		var err error
		if bucket, err = root.CreateBucket(name); err != nil {
			return false, err
		}
	}
	if current := bucket.Get([]byte(m.Key)); current != nil && bytes.Equal(current, m.Record) {
		return false, nil
	}
	return true, bucket.Put([]byte(m.Key), m.Record)
}

func (s *Store) collectionReader(tx *bbolt.Tx, collection string) docstore.CollectionReader {
	return func() (map[string]json.RawMessage, error) {
		out := map[string]json.RawMessage{}
		bucket := tx.Bucket(s.root).Bucket([]byte(collection))
		if bucket == nil {
			return out, nil
		}
		err := bucket.ForEach(func(k, v []byte) error {
			// bolt values are only valid for the life of the transaction
			out[string(k)] = append(json.RawMessage(nil), v...)
			return nil
		})
		return out, err
	}
}

func (s *Store) recordReader(tx *bbolt.Tx, collection string) docstore.RecordReader {
	return func(key string) (json.RawMessage, error) {
		bucket := tx.Bucket(s.root).Bucket([]byte(collection))
		if bucket == nil {
			return nil, nil
		}
		v := bucket.Get([]byte(key))
		if v == nil {
			return nil, nil
		}
		return append(json.RawMessage(nil), v...), nil
	}
}
