// Package values holds configuration as a flat map of dotted keys.
// Both config stores keep their state in a Map and differ only in how
// they persist it.
package values

import (
	"maps"
	"slices"
	"strings"
	"sync"
)

// Map is a concurrency-safe set of dotted keys such as "llm.provider".
type Map struct {
	mu   sync.RWMutex
	data map[string]any
}

// New returns an empty Map.
func New() *Map {
	return &Map{data: make(map[string]any)}
}

// Get retrieves a value by key.
func (m *Map) Get(key string) (any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	val, ok := m.data[key]
	return val, ok
}

// GetString returns the value at key, or "" if it is missing or not a string.
func (m *Map) GetString(key string) string {
	val, _ := m.Get(key)
	s, _ := val.(string)
	return s
}

// GetInt returns the value at key as an int. Floats are truncated.
// Missing or non-numeric values read as 0.
func (m *Map) GetInt(key string) int {
	val, _ := m.Get(key)
	switch v := val.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

// GetFloat returns the value at key as a float64. Integers are widened so
// "temperature = 1" reads as 1.0. Missing or non-numeric values read as 0.
func (m *Map) GetFloat(key string) float64 {
	val, _ := m.Get(key)
	switch v := val.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return 0
	}
}

// GetBool returns the value at key, or false if it is missing or not a bool.
func (m *Map) GetBool(key string) bool {
	val, _ := m.Get(key)
	b, _ := val.(bool)
	return b
}

// Keys returns every key in sorted order.
func (m *Map) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Sorted(maps.Keys(m.data))
}

// Put stores value at key.
func (m *Map) Put(key string, value any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
}

// Replace swaps the whole contents for a flattened copy of nested.
func (m *Map) Replace(nested map[string]any) {
	flat := Flatten(nested)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = flat
}

// Nested returns the contents as nested tables, ready to encode.
func (m *Map) Nested() map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Nest(m.data)
}

// Nest turns dotted keys into nested maps: {"a.b": 1} becomes {"a": {"b": 1}}.
func Nest(flat map[string]any) map[string]any {
	result := make(map[string]any)
	for key, value := range flat {
		parts := strings.Split(key, ".")
		node := result
		for _, part := range parts[:len(parts)-1] {
			child, ok := node[part].(map[string]any)
			if !ok {
				child = make(map[string]any)
				node[part] = child
			}
			node = child
		}
		node[parts[len(parts)-1]] = value
	}
	return result
}

// Flatten is the inverse of Nest.
func Flatten(nested map[string]any) map[string]any {
	result := make(map[string]any)
	flattenInto(result, nested, "")
	return result
}

func flattenInto(dst, src map[string]any, prefix string) {
	for key, value := range src {
		if prefix != "" {
			key = prefix + "." + key
		}
		if child, ok := value.(map[string]any); ok {
			flattenInto(dst, child, key)
			continue
		}
		dst[key] = value
	}
}
