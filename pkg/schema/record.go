package schema

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Well-known record fields.
const (
	FieldID        = "id"
	FieldCreatedAt = "createdAt"
	FieldUpdatedAt = "updatedAt"
)

// TimestampLayout is fixed-width so timestamps sort lexicographically.
const TimestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Record is one schema-flexible item within a collection.
type Record map[string]any

// Timestamp formats t in UTC using TimestampLayout.
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Now returns the current time as a record timestamp.
func Now() string {
	return Timestamp(time.Now())
}

// ID returns the record identifier in string form, or "" when absent.
func (r Record) ID() string {
	switch v := r[FieldID].(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// CreatedAt returns the createdAt field, or "" when absent or not a string.
func (r Record) CreatedAt() string {
	s, _ := r[FieldCreatedAt].(string)
	return s
}

// UpdatedAt returns the updatedAt field, or "" when absent or not a string.
func (r Record) UpdatedAt() string {
	s, _ := r[FieldUpdatedAt].(string)
	return s
}

// Stamp sets createdAt and updatedAt to ts.
func (r Record) Stamp(ts string) Record {
	r[FieldCreatedAt] = ts
	r[FieldUpdatedAt] = ts
	return r
}

// Without returns a shallow copy of r minus the given fields.
func (r Record) Without(fields ...string) Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	for _, f := range fields {
		delete(out, f)
	}
	return out
}

// Merge returns a new record holding r's fields overwritten by patch's.
// The receiver is left untouched.
func (r Record) Merge(patch Record) Record {
	out := make(Record, len(r)+len(patch))
	for k, v := range r {
		out[k] = v
	}
	for k, v := range patch {
		out[k] = v
	}
	return out
}

// Clone deep-copies the record, including nested maps and slices.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	return cloneValue(map[string]any(r)).(map[string]any)
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = cloneValue(vv)
		}
		return out
	case Record:
		return Record(cloneValue(map[string]any(t)).(map[string]any))
	case []any:
		out := make([]any, len(t))
		for i, vv := range t {
			out[i] = cloneValue(vv)
		}
		return out
	default:
		return v
	}
}

// Decode converts a record into a typed value by re-marshaling it.
func Decode[T any](r Record) (T, error) {
	var target T
	bytes, err := json.Marshal(r)
	if err != nil {
		return target, err
	}
	err = json.Unmarshal(bytes, &target)
	return target, err
}

// Encode converts a typed value into a record by re-marshaling it.
func Encode(v any) (Record, error) {
	bytes, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var rec Record
	if err := json.Unmarshal(bytes, &rec); err != nil {
		return nil, err
	}
	return rec, nil
}
