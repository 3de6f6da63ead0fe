package docstore

import (
	"fmt"
	"strings"
)

// forbiddenKeyChars mirrors the characters hierarchical realtime stores reject inside a key.
const forbiddenKeyChars = ".#$[]/"

// Path addresses a node in the store: collection, collection/key or collection/key/field...
type Path struct {
	segments []string
}

// ParsePath splits a slash separated path and validates every segment.
func ParsePath(raw string) (Path, error) {
	trimmed := strings.Trim(raw, "/")
	if trimmed == "" {
		return Path{}, fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	parts := strings.Split(trimmed, "/")
	for _, part := range parts {
		if err := ValidateKey(part); err != nil {
			return Path{}, err
		}
	}
	return Path{segments: parts}, nil
}

// MustPath is ParsePath for constant paths.
func MustPath(raw string) Path {
	p, err := ParsePath(raw)
	if err != nil {
		panic(err)
	}
	return p
}

// ValidateKey reports whether a single segment is usable as a key.
func ValidateKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: empty segment", ErrInvalidPath)
	}
	if strings.ContainsAny(key, forbiddenKeyChars) {
		return fmt.Errorf("%w: segment %q contains one of %q", ErrInvalidPath, key, forbiddenKeyChars)
	}
	return nil
}

// Child returns the path extended by key. Invalid keys produce an invalid path that every
// driver rejects.
func (p Path) Child(key string) Path {
	segments := make([]string, 0, len(p.segments)+1)
	segments = append(segments, p.segments...)
	segments = append(segments, key)
	return Path{segments: segments}
}

// Validate checks all segments.
func (p Path) Validate() error {
	if len(p.segments) == 0 {
		return fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	for _, s := range p.segments {
		if err := ValidateKey(s); err != nil {
			return err
		}
	}
	return nil
}

// Depth is the number of segments.
func (p Path) Depth() int { return len(p.segments) }

// Collection is the first segment.
func (p Path) Collection() string {
	if len(p.segments) == 0 {
		return ""
	}
	return p.segments[0]
}

// Key is the record key, empty for collection paths.
func (p Path) Key() string {
	if len(p.segments) < 2 {
		return ""
	}
	return p.segments[1]
}

// Fields are the segments below the record.
func (p Path) Fields() []string {
	if len(p.segments) < 3 {
		return nil
	}
	return p.segments[2:]
}

func (p Path) String() string { return strings.Join(p.segments, "/") }
