package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/noah-isme/campuspass-api/pkg/docstore"
)

// Store paths.
const (
	AnnouncementsPath = "announcements"
	CalendarItemsPath = "calendarItems"
	UsersPath         = "users"
)

// ErrNotFound is returned by point reads when no record exists.
var ErrNotFound = errors.New("record not found")

// errMalformed marks a child record that cannot be turned into a domain value.
var errMalformed = errors.New("malformed record")

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errMalformed, fmt.Sprintf(format, args...))
}

// decodeFunc turns one child record into a domain value.
type decodeFunc[T any] func(key string, raw json.RawMessage) (T, error)

// flatten converts a collection snapshot into a slice with the keys injected as ids. Children
// that fail to decode are logged and skipped. Output follows key order; callers sort.
func flatten[T any](snap docstore.Snapshot, decode decodeFunc[T], logger *zap.Logger) ([]T, error) {
	children, err := snap.Children()
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(children))
	for key := range children {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := make([]T, 0, len(keys))
	for _, key := range keys {
		item, err := decode(key, children[key])
		if err != nil {
			logger.Warn("skipping malformed record",
				zap.String("path", snap.Path.Child(key).String()),
				zap.Error(err),
			)
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

// list reads a whole collection once.
func list[T any](ctx context.Context, store docstore.Client, path docstore.Path, decode decodeFunc[T], logger *zap.Logger) ([]T, error) {
	snap, err := store.Get(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return flatten(snap, decode, logger)
}

// subscribe registers a listener that receives the flattened collection on every change.
func subscribe[T any](ctx context.Context, store docstore.Client, path docstore.Path, decode decodeFunc[T], logger *zap.Logger, fn func([]T)) (*docstore.Subscription, error) {
	return store.Subscribe(ctx, path, func(snap docstore.Snapshot) {
		items, err := flatten(snap, decode, logger)
		if err != nil {
			logger.Warn("dropping undecodable snapshot", zap.String("path", path.String()), zap.Error(err))
			return
		}
		fn(items)
	})
}
