package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
)

// Field is one optional column slot of a Values.
// The zero Field is absent.
type Field[T any] struct {
	set   bool
	null  bool
	value T
}

// Set returns a Field holding v.
func Set[T any](v T) Field[T] {
	return Field[T]{set: true, value: v}
}

// Null returns a Field that writes NULL.
func Null[T any]() Field[T] {
	return Field[T]{set: true, null: true}
}

// IsSet reports whether the slot is present (value or NULL).
func (f Field[T]) IsSet() bool { return f.set }

// IsNull reports whether the slot writes NULL.
func (f Field[T]) IsNull() bool { return f.set && f.null }

// Get returns the value and whether a non-NULL value is present.
func (f Field[T]) Get() (T, bool) {
	return f.value, f.set && !f.null
}

// param converts the slot to a database/sql parameter.
func (f Field[T]) param() any {
	if f.null {
		return nil
	}
	return f.value
}

// Values is a partial write of a task: one optional slot per writable column.
type Values struct {
	Category Field[string]
	Started  Field[int64]
	Duration Field[int64]
}

// Assignment is a single column = value pair, in table column order.
type Assignment struct {
	Column string
	Value  any
}

// Len returns the number of present slots.
func (v Values) Len() int {
	return len(v.Assignments())
}

// Assignments returns the present slots in table column order.
func (v Values) Assignments() []Assignment {
	var out []Assignment
	if v.Category.IsSet() {
		out = append(out, Assignment{Column: ColCategory, Value: v.Category.param()})
	}
	if v.Started.IsSet() {
		out = append(out, Assignment{Column: ColStarted, Value: v.Started.param()})
	}
	if v.Duration.IsSet() {
		out = append(out, Assignment{Column: ColDuration, Value: v.Duration.param()})
	}
	return out
}

// Validate checks that present slots respect the column constraints:
// category and started may not be NULL, and category may not be empty.
func (v Values) Validate() error {
	if v.Category.IsSet() {
		if c, ok := v.Category.Get(); !ok || c == "" {
			return fmt.Errorf("%w: %s", ErrMissingRequiredField, ColCategory)
		}
	}
	if v.Started.IsNull() {
		return fmt.Errorf("%w: %s", ErrMissingRequiredField, ColStarted)
	}
	return nil
}

// FromMap builds Values from a decoded document (JSON, YAML, CLI flags).
//
// Keys must be writable columns. A nil value writes NULL. Integer columns
// accept any integral number or numeric string.
func FromMap(m map[string]any) (Values, error) {
	var v Values

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		raw := m[key]
		switch key {
		case ColCategory:
			if raw == nil {
				v.Category = Null[string]()
				continue
			}
			s, ok := raw.(string)
			if !ok {
				return Values{}, fmt.Errorf("%w: %s must be a string, got %T", ErrInvalidValue, key, raw)
			}
			v.Category = Set(s)
		case ColStarted, ColDuration:
			var f Field[int64]
			if raw == nil {
				f = Null[int64]()
			} else {
				n, err := toInt64(raw)
				if err != nil {
					return Values{}, fmt.Errorf("%w: %s: %v", ErrInvalidValue, key, err)
				}
				f = Set(n)
			}
			if key == ColStarted {
				v.Started = f
			} else {
				v.Duration = f
			}
		case ColID:
			return Values{}, fmt.Errorf("%w: %s is assigned by the store", ErrInvalidValue, key)
		default:
			return Values{}, fmt.Errorf("%w: %q", ErrUnknownColumn, key)
		}
	}

	return v, nil
}

// UnmarshalJSON decodes a JSON object into Values via FromMap.
func (v *Values) UnmarshalJSON(data []byte) error {
	var m map[string]any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&m); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	out, err := FromMap(m)
	if err != nil {
		return err
	}
	*v = out
	return nil
}

// MarshalJSON encodes present slots as a JSON object.
func (v Values) MarshalJSON() ([]byte, error) {
	m := make(map[string]any)
	for _, a := range v.Assignments() {
		m[a.Column] = a.Value
	}
	return json.Marshal(m)
}

func toInt64(raw any) (int64, error) {
	switch n := raw.(type) {
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case uint64:
		if n > math.MaxInt64 {
			return 0, fmt.Errorf("%d overflows int64", n)
		}
		return int64(n), nil
	case float64:
		if n != math.Trunc(n) || n > math.MaxInt64 || n < math.MinInt64 {
			return 0, fmt.Errorf("%v is not an integer", n)
		}
		return int64(n), nil
	case json.Number:
		return n.Int64()
	case string:
		return strconv.ParseInt(n, 10, 64)
	default:
		return 0, fmt.Errorf("unsupported type %T", raw)
	}
}
