package records

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrInvalidCollection = errors.New("invalid collection name")
	ErrInvalidRecord     = errors.New("invalid record")
)

// Record is one JSON object of a collection. "id" is a positive integer
// assigned by the store.
type Record map[string]any

// ID returns the numeric id, or 0 when the record has none.
func (r Record) ID() int64 {
	switch v := r["id"].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	case json.Number:
		n, _ := v.Int64()
		return n
	case string:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	}
	return 0
}

// Clone returns a shallow copy so callers cannot mutate stored state.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Store persists records grouped by collection.
type Store interface {
	List(ctx context.Context, collection string) ([]Record, error)
	Get(ctx context.Context, collection string, id int64) (Record, error)
	Create(ctx context.Context, collection string, rec Record) (Record, error)
	Replace(ctx context.Context, collection string, id int64, rec Record) (Record, error)
	Patch(ctx context.Context, collection string, id int64, fields Record) (Record, error)
	Delete(ctx context.Context, collection string, id int64) error
	Ping(ctx context.Context) error
}

// ValidCollection accepts lower-case names made of letters, digits, '-' and '_'.
func ValidCollection(name string) bool {
	if name == "" || len(name) > 64 {
		return false
	}
	for i, c := range name {
		switch {
		case c >= 'a' && c <= 'z':
		case i > 0 && (c >= '0' && c <= '9' || c == '-' || c == '_'):
		default:
			return false
		}
	}
	return true
}

// Encode converts a typed value into a Record through its JSON form.
func Encode(v any) (Record, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	return rec, nil
}

// Decode converts a Record into T through its JSON form.
func Decode[T any](rec Record) (T, error) {
	var out T
	raw, err := json.Marshal(rec)
	if err != nil {
		return out, fmt.Errorf("decode record: %w", err)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	return out, nil
}

// DecodeAll decodes every record, failing on the first bad one.
func DecodeAll[T any](recs []Record) ([]T, error) {
	out := make([]T, 0, len(recs))
	for _, rec := range recs {
		v, err := Decode[T](rec)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func merge(dst, src Record) {
	for k, v := range src {
		if k == "id" {
			continue
		}
		dst[k] = v
	}
}
