package docstore

import (
	"encoding/json"
	"fmt"
)

// Mutation is the record level effect of a write at some path. Drivers store collections as
// key -> record maps, so every write reduces to replacing a collection or one record.
type Mutation struct {
	Collection string
	// Replace swaps the whole collection for Children.
	Replace  bool
	Children map[string]json.RawMessage
	// Key and Record describe a single record write. A nil Record deletes the record.
	Key    string
	Record json.RawMessage
}

// RecordReader loads one record, nil when missing.
type RecordReader func(key string) (json.RawMessage, error)

// CollectionReader loads every record of a collection.
type CollectionReader func() (map[string]json.RawMessage, error)

// PlanSet turns a write of value at path into a Mutation. Field writes read the current record
// through current and patch it.
func PlanSet(path Path, value json.RawMessage, current RecordReader) (Mutation, error) {
	if err := path.Validate(); err != nil {
		return Mutation{}, err
	}
	m := Mutation{Collection: path.Collection(), Key: path.Key()}
	switch {
	case path.Depth() == 1:
		m.Replace = true
		m.Children = map[string]json.RawMessage{}
		if IsEmpty(value) {
			return m, nil
		}
		var children map[string]json.RawMessage
		if err := json.Unmarshal(value, &children); err != nil {
			return Mutation{}, fmt.Errorf("collection %s must be an object: %w", path, err)
		}
		for key, child := range children {
			if err := ValidateKey(key); err != nil {
				return Mutation{}, err
			}
			if IsEmpty(child) {
				continue
			}
			encoded, err := Encode(child)
			if err != nil {
				return Mutation{}, err
			}
			m.Children[key] = encoded
		}
		return m, nil
	case path.Depth() == 2:
		m.Record = value
		return m, nil
	default:
		rec, err := current(path.Key())
		if err != nil {
			return Mutation{}, err
		}
		patched, err := SetField(rec, path.Fields(), value)
		if err != nil {
			return Mutation{}, err
		}
		m.Record = patched
		return m, nil
	}
}

// ReadPath resolves the value at path using the driver's collection and record readers.
func ReadPath(path Path, all CollectionReader, one RecordReader) (json.RawMessage, error) {
	if err := path.Validate(); err != nil {
		return nil, err
	}
	if path.Depth() == 1 {
		children, err := all()
		if err != nil {
			return nil, err
		}
		return EncodeChildren(children)
	}
	rec, err := one(path.Key())
	if err != nil {
		return nil, err
	}
	if path.Depth() == 2 {
		if IsEmpty(rec) {
			return nil, nil
		}
		return rec, nil
	}
	field := GetField(rec, path.Fields())
	if IsEmpty(field) {
		return nil, nil
	}
	return field, nil
}
