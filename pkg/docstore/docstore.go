// Package docstore defines a schemaless hierarchical document store with live subscriptions.
//
// Data is addressed by slash separated paths. The first segment names a collection, the second
// a record inside it and any further segments a field inside the record. Drivers live in the
// sub-packages and all satisfy Client.
package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrInvalidPath is returned for empty paths or segments with forbidden characters.
	ErrInvalidPath = errors.New("docstore: invalid path")
	// ErrClosed is returned by operations on a closed client.
	ErrClosed = errors.New("docstore: client closed")
)

// Listener receives the full value of a subscribed path.
type Listener func(Snapshot)

// Client is the contract every driver implements.
type Client interface {
	// Get reads the value at path. A missing node yields a snapshot whose Exists is false.
	Get(ctx context.Context, path Path) (Snapshot, error)
	// Set replaces the value at path. A nil value removes the node.
	Set(ctx context.Context, path Path, value any) error
	// SetIfAbsent writes value only when path currently holds nothing.
	SetIfAbsent(ctx context.Context, path Path, value any) (bool, error)
	// Remove deletes the node at path. Removing a missing node is not an error.
	Remove(ctx context.Context, path Path) error
	// Subscribe delivers the current value of path and then every changed value until the
	// subscription is cancelled or ctx is done.
	Subscribe(ctx context.Context, path Path, listener Listener) (*Subscription, error)
	// NewKey returns a unique key that sorts after every key previously generated.
	NewKey() string
	// Driver names the backend, used for logging and metrics labels.
	Driver() string
	Close() error
}

const keyAttempts = 3

var newV7 = uuid.NewV7

// NewKey generates a time ordered key. UUIDv7 strings sort lexicographically by creation time.
// It panics when no key can be generated, as uuid.New does.
func NewKey() string {
	var err error
	for i := 0; i < keyAttempts; i++ {
		var id uuid.UUID
		if id, err = newV7(); err == nil {
			return id.String()
		}
	}
	panic(fmt.Sprintf("docstore: generate key: %v", err))
}

// Snapshot is the value of a path at one point in time.
type Snapshot struct {
	Path  Path
	Value json.RawMessage
}

// Exists reports whether the node holds any value.
func (s Snapshot) Exists() bool {
	return !IsEmpty(s.Value)
}

// Decode unmarshals the value into dest.
func (s Snapshot) Decode(dest any) error {
	if !s.Exists() {
		return fmt.Errorf("decode %s: node does not exist", s.Path)
	}
	if err := json.Unmarshal(s.Value, dest); err != nil {
		return fmt.Errorf("decode %s: %w", s.Path, err)
	}
	return nil
}

// Children returns the raw child values keyed by child key. Missing nodes have no children.
func (s Snapshot) Children() (map[string]json.RawMessage, error) {
	children := map[string]json.RawMessage{}
	if !s.Exists() {
		return children, nil
	}
	if err := json.Unmarshal(s.Value, &children); err != nil {
		return nil, fmt.Errorf("children of %s: %w", s.Path, err)
	}
	return children, nil
}

// Encode converts a value into canonical JSON. nil maps to nil.
func Encode(value any) (json.RawMessage, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case json.RawMessage:
		if IsEmpty(v) {
			return nil, nil
		}
		// round trip to compact and sort keys
		var generic any
		dec := json.NewDecoder(bytes.NewReader(v))
		dec.UseNumber()
		if err := dec.Decode(&generic); err != nil {
			return nil, fmt.Errorf("encode raw value: %w", err)
		}
		value = generic
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encode value: %w", err)
	}
	if IsEmpty(raw) {
		return nil, nil
	}
	return raw, nil
}

// EncodeChildren builds the collection value from its children. No children means no value.
func EncodeChildren(children map[string]json.RawMessage) (json.RawMessage, error) {
	if len(children) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(children)
	if err != nil {
		return nil, fmt.Errorf("encode children: %w", err)
	}
	return raw, nil
}

// IsEmpty treats missing, null and empty object values as absent nodes.
func IsEmpty(raw json.RawMessage) bool {
	switch string(raw) {
	case "", "null", "{}":
		return true
	}
	return false
}
