package values

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMap_GetString(t *testing.T) {
	m := New()
	m.Put("index.name", "catalog")
	m.Put("answer.top_k", 10)

	assert.Equal(t, "catalog", m.GetString("index.name"))
	assert.Equal(t, "", m.GetString("answer.top_k"))
	assert.Equal(t, "", m.GetString("missing"))
}

func TestMap_GetInt(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  int
	}{
		{"int", 42, 42},
		{"int64", int64(123), 123},
		{"float64 truncates", 123.7, 123},
		{"string", "12", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New()
			m.Put("k", tt.value)
			assert.Equal(t, tt.want, m.GetInt("k"))
		})
	}
}

func TestMap_GetFloat(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  float64
	}{
		{"float64", 0.7, 0.7},
		{"float32", float32(0.5), 0.5},
		{"int", 2, 2},
		{"int64", int64(3), 3},
		{"bool", true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New()
			m.Put("k", tt.value)
			assert.InDelta(t, tt.want, m.GetFloat("k"), 1e-9)
		})
	}

	assert.Zero(t, New().GetFloat("missing"))
}

func TestMap_GetBool(t *testing.T) {
	m := New()
	m.Put("on", true)
	m.Put("text", "true")

	assert.True(t, m.GetBool("on"))
	assert.False(t, m.GetBool("text"))
	assert.False(t, m.GetBool("missing"))
}

func TestMap_Concurrency(t *testing.T) {
	m := New()

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			key := "key-" + string(rune('A'+id))
			m.Put(key, id)
			_ = m.GetInt(key)
			_ = m.Keys()
		}(i)
	}
	wg.Wait()

	assert.Len(t, m.Keys(), 50)
}

func TestMap_Replace(t *testing.T) {
	m := New()
	m.Put("stale", true)

	m.Replace(map[string]any{
		"llm":    map[string]any{"provider": "ollama", "model": "llama3.2"},
		"answer": map[string]any{"top_k": int64(8)},
	})

	assert.Equal(t, []string{"answer.top_k", "llm.model", "llm.provider"}, m.Keys())
	assert.Equal(t, 8, m.GetInt("answer.top_k"))
	assert.False(t, m.GetBool("stale"))
}

func TestNestAndFlatten(t *testing.T) {
	flat := map[string]any{
		"a.b":   1,
		"a.c.d": "x",
		"e":     true,
	}

	nested := Nest(flat)
	assert.Equal(t, map[string]any{
		"a": map[string]any{
			"b": 1,
			"c": map[string]any{"d": "x"},
		},
		"e": true,
	}, nested)
	assert.Equal(t, flat, Flatten(nested))
}

func TestMap_Nested(t *testing.T) {
	m := New()
	m.Put("index.name", "catalog")
	m.Put("index.backend", "sqlite")

	assert.Equal(t, map[string]any{
		"index": map[string]any{"name": "catalog", "backend": "sqlite"},
	}, m.Nested())
}
