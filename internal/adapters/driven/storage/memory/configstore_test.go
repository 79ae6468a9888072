package memory

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
)

func TestConfigStore_InterfaceCompliance(t *testing.T) {
	var _ driven.ConfigStore = NewConfigStore()
}

func TestNewConfigStoreFrom_CopiesSeed(t *testing.T) {
	seed := map[string]any{"llm.provider": "ollama"}
	store := NewConfigStoreFrom(seed)

	seed["llm.provider"] = "openai"
	assert.Equal(t, "ollama", store.GetString("llm.provider"))
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store := NewConfigStoreFrom(map[string]any{
		"s":      "value",
		"i":      7,
		"i64":    int64(8),
		"f":      float64(9),
		"b":      true,
		"slice":  []string{"a", "b"},
		"anys":   []any{"x", 1, "y"},
		"nested": map[string]any{"k": "v"},
	})

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"string", store.GetString("s"), "value"},
		{"string wrong type", store.GetString("i"), ""},
		{"string missing", store.GetString("missing"), ""},
		{"int", store.GetInt("i"), 7},
		{"int from int64", store.GetInt("i64"), 8},
		{"int from float64", store.GetInt("f"), 9},
		{"int wrong type", store.GetInt("s"), 0},
		{"bool is not a string", store.GetString("b"), ""},
		{"string slice", store.GetStringSlice("slice"), []string{"a", "b"}},
		{"any slice drops non-strings", store.GetStringSlice("anys"), []string{"x", "y"}},
		{"slice wrong type", store.GetStringSlice("nested"), []string(nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestConfigStore_SetDelete(t *testing.T) {
	store := NewConfigStore()

	require.NoError(t, store.Set("retrieval.top_k", 3))
	assert.Equal(t, 3, store.GetInt("retrieval.top_k"))

	require.NoError(t, store.Delete("retrieval.top_k"))
	_, ok := store.Get("retrieval.top_k")
	assert.False(t, ok)

	require.NoError(t, store.Delete("never-set"))
}

func TestConfigStore_GetStringSlice_ReturnsCopy(t *testing.T) {
	store := NewConfigStoreFrom(map[string]any{"models": []string{"a"}})

	got := store.GetStringSlice("models")
	got[0] = "changed"
	assert.Equal(t, []string{"a"}, store.GetStringSlice("models"))
}

func TestConfigStore_Update(t *testing.T) {
	store := NewConfigStoreFrom(map[string]any{"llm.model": "gpt-4o", "server.addr": ":8000"})

	require.NoError(t, store.Update(map[string]any{"llm.model": "gpt-4o-mini", "retrieval.top_k": 4}))

	assert.Equal(t, "gpt-4o-mini", store.GetString("llm.model"))
	assert.Equal(t, 4, store.GetInt("retrieval.top_k"))
	assert.Equal(t, ":8000", store.GetString("server.addr"))
	assert.Equal(t, ":memory:", store.Path())
}

func TestConfigStore_Concurrency(t *testing.T) {
	store := NewConfigStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_ = store.Set(fmt.Sprintf("key.%d", i), i)
		}(i)
		go func(i int) {
			defer wg.Done()
			_ = store.GetInt(fmt.Sprintf("key.%d", i))
		}(i)
	}
	wg.Wait()

	for i := 0; i < 50; i++ {
		assert.Equal(t, i, store.GetInt(fmt.Sprintf("key.%d", i)))
	}
}
