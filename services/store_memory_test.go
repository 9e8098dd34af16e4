package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreSetGet(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "things", "a", map[string]interface{}{"name": "first", "count": 1}))

	doc, err := store.Get(ctx, "things", "a")
	require.NoError(t, err)
	assert.Equal(t, "first", doc["name"])

	// missing document is nil, nil
	doc, err = store.Get(ctx, "things", "missing")
	require.NoError(t, err)
	assert.Nil(t, doc)

	doc, err = store.Get(ctx, "no-such-collection", "a")
	require.NoError(t, err)
	assert.Nil(t, doc)
}

func TestMemoryStoreCopiesDocuments(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	original := map[string]interface{}{"name": "first"}
	require.NoError(t, store.Set(ctx, "things", "a", original))

	original["name"] = "mutated"

	doc, err := store.Get(ctx, "things", "a")
	require.NoError(t, err)
	assert.Equal(t, "first", doc["name"])

	// mutating a read result does not leak back either
	doc["name"] = "mutated again"
	doc2, err := store.Get(ctx, "things", "a")
	require.NoError(t, err)
	assert.Equal(t, "first", doc2["name"])
}

func TestMemoryStoreUpdateMerges(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "things", "a", map[string]interface{}{"name": "first", "count": 1}))
	require.NoError(t, store.Update(ctx, "things", "a", map[string]interface{}{"count": 2}))

	doc, err := store.Get(ctx, "things", "a")
	require.NoError(t, err)
	assert.Equal(t, "first", doc["name"])
	assert.EqualValues(t, 2, doc["count"])
}

func TestMemoryStoreDelete(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "things", "a", map[string]interface{}{"name": "first"}))
	require.NoError(t, store.Delete(ctx, "things", "a"))

	doc, err := store.Get(ctx, "things", "a")
	require.NoError(t, err)
	assert.Nil(t, doc)

	// deleting a missing document is a no-op
	require.NoError(t, store.Delete(ctx, "things", "missing"))
}

func TestMemoryStoreQuery(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "users", "a", map[string]interface{}{"status": "active", "age": 5}))
	require.NoError(t, store.Set(ctx, "users", "b", map[string]interface{}{"status": "active", "age": 9}))
	require.NoError(t, store.Set(ctx, "users", "c", map[string]interface{}{"status": "inactive", "age": 7}))

	docs, err := store.Query(ctx, "users", []Filter{{Field: "status", Op: "==", Value: "active"}})
	require.NoError(t, err)
	assert.Len(t, docs, 2)

	docs, err = store.Query(ctx, "users", []Filter{
		{Field: "status", Op: "==", Value: "active"},
		{Field: "age", Op: ">", Value: 6},
	})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Contains(t, docs, "b")

	docs, err = store.Query(ctx, "users", []Filter{{Field: "age", Op: "<=", Value: 7}})
	require.NoError(t, err)
	assert.Len(t, docs, 2)

	docs, err = store.Query(ctx, "users", []Filter{{Field: "status", Op: "!=", Value: "active"}})
	require.NoError(t, err)
	assert.Len(t, docs, 1)

	// filtering on a missing field matches nothing
	docs, err = store.Query(ctx, "users", []Filter{{Field: "missing", Op: "==", Value: 1}})
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestMemoryStoreGetAll(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	docs, err := store.GetAll(ctx, "empty")
	require.NoError(t, err)
	assert.Empty(t, docs)

	require.NoError(t, store.Set(ctx, "things", "a", map[string]interface{}{"n": 1}))
	require.NoError(t, store.Set(ctx, "things", "b", map[string]interface{}{"n": 2}))

	docs, err = store.GetAll(ctx, "things")
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

func TestMemoryStoreConcurrentWrites(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_ = store.Set(ctx, "things", "shared", map[string]interface{}{"n": n})
			_, _ = store.Get(ctx, "things", "shared")
		}(i)
	}
	wg.Wait()

	doc, err := store.Get(ctx, "things", "shared")
	require.NoError(t, err)
	assert.NotNil(t, doc)
}

func TestCompareValuesNumericCoercion(t *testing.T) {
	// stored JSON numbers come back as float64; filters may carry ints
	doc := map[string]interface{}{"season": float64(3)}

	assert.True(t, matchesFilters(doc, []Filter{{Field: "season", Op: "==", Value: 3}}))
	assert.True(t, matchesFilters(doc, []Filter{{Field: "season", Op: ">=", Value: 3}}))
	assert.False(t, matchesFilters(doc, []Filter{{Field: "season", Op: "<", Value: 3}}))

	// incomparable types fail the filter
	assert.False(t, matchesFilters(doc, []Filter{{Field: "season", Op: "==", Value: "3"}}))
}
