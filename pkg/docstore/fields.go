package docstore

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const pathSpecials = `\*?|@!=<>%:`

// GetField returns the raw value below a record, nil when absent.
func GetField(doc json.RawMessage, fields []string) json.RawMessage {
	if IsEmpty(doc) || len(fields) == 0 {
		return doc
	}
	res := gjson.GetBytes(doc, queryPath(fields))
	if !res.Exists() {
		return nil
	}
	return json.RawMessage(res.Raw)
}

// SetField writes value below a record, creating intermediate objects. A nil value deletes.
func SetField(doc json.RawMessage, fields []string, value json.RawMessage) (json.RawMessage, error) {
	if value == nil {
		return DeleteField(doc, fields)
	}
	base := []byte(doc)
	if IsEmpty(doc) {
		base = []byte("{}")
	}
	out, err := sjson.SetRawBytes(base, writePath(fields), value)
	if err != nil {
		return nil, fmt.Errorf("set field %s: %w", strings.Join(fields, "/"), err)
	}
	return Encode(json.RawMessage(out))
}

// DeleteField removes a value below a record. Empty parents collapse to an absent record.
func DeleteField(doc json.RawMessage, fields []string) (json.RawMessage, error) {
	if IsEmpty(doc) {
		return nil, nil
	}
	out, err := sjson.DeleteBytes(doc, writePath(fields))
	if err != nil {
		return nil, fmt.Errorf("delete field %s: %w", strings.Join(fields, "/"), err)
	}
	return Encode(json.RawMessage(out))
}

func queryPath(fields []string) string {
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = escape(f)
	}
	return strings.Join(parts, ".")
}

// writePath forces object keys so numeric segments never become array indexes.
func writePath(fields []string) string {
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = escape(f)
		if isNumeric(f) {
			parts[i] = ":" + parts[i]
		}
	}
	return strings.Join(parts, ".")
}

func escape(segment string) string {
	var b strings.Builder
	for _, r := range segment {
		if strings.ContainsRune(pathSpecials, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
