package models

import (
	"fmt"
	"time"
)

// Number is a numeric scalar kept in its literal form
type Number string

// Mapping is an insertion-ordered string-keyed map holding semi-structured
// header data. Values are scalars, []any, or *Mapping.
type Mapping struct {
	keys   []string
	values map[string]any
}

// NewMapping creates an empty mapping
func NewMapping() *Mapping {
	return &Mapping{values: make(map[string]any)}
}

// Set stores value under key. An existing key keeps its position.
func (m *Mapping) Set(key string, value any) {
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Get returns the value for key and whether it was present
func (m *Mapping) Get(key string) (any, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m.values[key]
	return v, ok
}

// Has reports whether key is present, even with a nil value
func (m *Mapping) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Keys returns the keys in insertion order
func (m *Mapping) Keys() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// ScalarString renders a scalar value as text. Collections and nil report false.
func ScalarString(v any) (string, bool) {
	switch val := v.(type) {
	case nil, *Mapping, []any:
		return "", false
	case string:
		return val, true
	case Number:
		return string(val), true
	case time.Time:
		if val.Hour() == 0 && val.Minute() == 0 && val.Second() == 0 && val.Nanosecond() == 0 {
			return val.Format("2006-01-02"), true
		}
		return val.Format(time.RFC3339), true
	default:
		return fmt.Sprint(val), true
	}
}
