// Package redisstore stores collections as Redis hashes and announces changes over pub/sub.
//
// Layout: hash "{namespace}:{collection}" holds key -> JSON record. Every write that changes a
// collection publishes the collection name on "{namespace}:changes".
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/campuspass-api/pkg/config"
	"github.com/noah-isme/campuspass-api/pkg/docstore"
)

const maxTxRetries = 5

// hashReader is satisfied by both *redis.Client and *redis.Tx.
type hashReader interface {
	HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd
	HGet(ctx context.Context, key, field string) *redis.StringCmd
}

// Store is a docstore.Client backed by Redis.
type Store struct {
	client    *redis.Client
	namespace string
	logger    *zap.Logger
}

var _ docstore.Client = (*Store)(nil)

// Dial connects to Redis and verifies the connection.
func Dial(cfg config.RedisConfig, namespace string, logger *zap.Logger) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return New(client, namespace, logger), nil
}

// New wraps an existing client.
func New(client *redis.Client, namespace string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	if namespace == "" {
		namespace = "campuspass"
	}
	return &Store{client: client, namespace: namespace, logger: logger}
}

// Driver implements docstore.Client.
func (s *Store) Driver() string { return "redis" }

// NewKey implements docstore.Client.
func (s *Store) NewKey() string { return docstore.NewKey() }

// Get implements docstore.Client.
func (s *Store) Get(ctx context.Context, path docstore.Path) (docstore.Snapshot, error) {
	value, err := s.read(ctx, s.client, path)
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

// Subscribe implements docstore.Client. Each subscription owns its own pub/sub connection.
func (s *Store) Subscribe(ctx context.Context, path docstore.Path, listener docstore.Listener) (*docstore.Subscription, error) {
	if err := path.Validate(); err != nil {
		return nil, err
	}
	pubsub := s.client.Subscribe(ctx, s.changesChannel())
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("redis subscribe %s: %w", path, err)
	}

	initial, err := s.Get(ctx, path)
	if err != nil {
		_ = pubsub.Close()
		return nil, err
	}

	changes := make(chan struct{}, 1)
	done := make(chan struct{})
	go func() {
		defer close(changes)
		messages := pubsub.Channel()
		for {
			select {
			case <-done:
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				if msg.Payload != path.Collection() {
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
			if err := pubsub.Close(); err != nil {
				s.logger.Debug("redis pubsub close failed", zap.Error(err))
			}
		},
		Logger: s.logger,
	}, listener), nil
}

// Close implements docstore.Client.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) hashKey(collection string) string {
	return s.namespace + ":" + collection
}

func (s *Store) changesChannel() string {
	return s.namespace + ":changes"
}

func (s *Store) read(ctx context.Context, cmd hashReader, path docstore.Path) (json.RawMessage, error) {
	hash := s.hashKey(path.Collection())
	return docstore.ReadPath(path,
		func() (map[string]json.RawMessage, error) {
			values, err := cmd.HGetAll(ctx, hash).Result()
			if err != nil {
				return nil, fmt.Errorf("redis hgetall %s: %w", hash, err)
			}
			out := make(map[string]json.RawMessage, len(values))
			for k, v := range values {
				out[k] = json.RawMessage(v)
			}
			return out, nil
		},
		func(key string) (json.RawMessage, error) {
			raw, err := cmd.HGet(ctx, hash, key).Bytes()
			if errors.Is(err, redis.Nil) {
				return nil, nil
			}
			if err != nil {
				return nil, fmt.Errorf("redis hget %s %s: %w", hash, key, err)
			}
			return raw, nil
		},
	)
}

// write applies a mutation inside WATCH/MULTI so field patches and conditional writes are
// atomic with respect to other writers of the same collection.
func (s *Store) write(ctx context.Context, path docstore.Path, value json.RawMessage, onlyIfAbsent bool) (bool, error) {
	if err := path.Validate(); err != nil {
		return false, err
	}
	hash := s.hashKey(path.Collection())
	written := false

	txf := func(tx *redis.Tx) error {
		written = false
		if onlyIfAbsent {
			current, err := s.read(ctx, tx, path)
			if err != nil {
				return err
			}
			if !docstore.IsEmpty(current) {
				return nil
			}
		}
		m, err := docstore.PlanSet(path, value, func(key string) (json.RawMessage, error) {
			raw, err := tx.HGet(ctx, hash, key).Bytes()
			if errors.Is(err, redis.Nil) {
				return nil, nil
			}
			return raw, err
		})
		if err != nil {
			return err
		}

		changed := false
		if !m.Replace && docstore.IsEmpty(m.Record) {
			exists, err := tx.HExists(ctx, hash, m.Key).Result()
			if err != nil {
				return err
			}
			if !exists {
				return nil
			}
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			switch {
			case m.Replace:
				pipe.Del(ctx, hash)
				if len(m.Children) > 0 {
					fields := make(map[string]any, len(m.Children))
					for k, v := range m.Children {
						fields[k] = []byte(v)
					}
					pipe.HSet(ctx, hash, fields)
				}
			case docstore.IsEmpty(m.Record):
				pipe.HDel(ctx, hash, m.Key)
			default:
				pipe.HSet(ctx, hash, m.Key, []byte(m.Record))
			}
			pipe.Publish(ctx, s.changesChannel(), path.Collection())
			changed = true
			return nil
		})
		if err == nil {
			written = changed
		}
		return err
	}

	for attempt := 0; attempt < maxTxRetries; attempt++ {
		err := s.client.Watch(ctx, txf, hash)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return false, fmt.Errorf("redis write %s: %w", path, err)
		}
		return written, nil
	}
	return false, fmt.Errorf("redis write %s: %w", path, redis.TxFailedErr)
}
