package rendering

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonathan/keyword-blog/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheKey(t *testing.T) {
	a := CacheKey("<p>x</p>", []string{"a b"}, []string{"c"})
	assert.Equal(t, a, CacheKey("<p>x</p>", []string{"a b"}, []string{"c"}))
	assert.NotEqual(t, a, CacheKey("<p>y</p>", []string{"a b"}, []string{"c"}))
	assert.NotEqual(t, a, CacheKey("<p>x</p>", nil, []string{"a b", "c"}), "kind is part of the key")
	assert.NotEqual(t, a, CacheKey("<p>x</p>", []string{"a", "b"}, []string{"c"}))
}

func TestCache_HitAndMiss(t *testing.T) {
	store := NewMemoryStore(10, 0)
	cache := NewCache(store, nil, metrics.New())
	ctx := context.Background()

	first, err := cache.Highlight(ctx, "<p>solar</p>", nil, []string{"solar"})
	require.NoError(t, err)
	assert.Equal(t, HighlightTerms("<p>solar</p>", nil, []string{"solar"}), first)
	assert.Equal(t, 1, store.Len())

	second, err := cache.Highlight(ctx, "<p>solar</p>", nil, []string{"solar"})
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, store.Len())
}

type failingStore struct{}

func (failingStore) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("unavailable")
}

func (failingStore) Set(context.Context, string, string) error {
	return errors.New("unavailable")
}

func TestCache_StoreFailureFallsBack(t *testing.T) {
	cache := NewCache(failingStore{}, nil, nil)
	got, err := cache.Highlight(context.Background(), "<p>solar</p>", []string{"solar"}, nil)
	require.NoError(t, err)
	assert.Contains(t, got, `data-keyword-type="phrase"`)
}

type countingStore struct {
	*MemoryStore
	sets atomic.Int32
}

func (s *countingStore) Set(ctx context.Context, key, value string) error {
	s.sets.Add(1)
	return s.MemoryStore.Set(ctx, key, value)
}

func TestCache_Concurrent(t *testing.T) {
	store := &countingStore{MemoryStore: NewMemoryStore(10, 0)}
	cache := NewCache(store, nil, nil)
	want := HighlightTerms("<p>solar panels</p>", []string{"solar panels"}, nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := cache.Highlight(context.Background(), "<p>solar panels</p>", []string{"solar panels"}, nil)
			assert.NoError(t, err)
			assert.Equal(t, want, got)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, store.Len())
	assert.GreaterOrEqual(t, int(store.sets.Load()), 1)
}

func TestMemoryStore_EvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(2, 0)

	require.NoError(t, store.Set(ctx, "a", "1"))
	require.NoError(t, store.Set(ctx, "b", "2"))
	_, ok, _ := store.Get(ctx, "a")
	require.True(t, ok)
	require.NoError(t, store.Set(ctx, "c", "3"))

	_, ok, _ = store.Get(ctx, "b")
	assert.False(t, ok, "b was least recently used")
	v, ok, _ := store.Get(ctx, "a")
	assert.True(t, ok)
	assert.Equal(t, "1", v)
	assert.Equal(t, 2, store.Len())
}

func TestMemoryStore_ExpiresEntries(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(10, 20*time.Millisecond)

	require.NoError(t, store.Set(ctx, "a", "1"))
	v, ok, err := store.Get(ctx, "a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "1", v)

	assert.Eventually(t, func() bool {
		_, ok, _ := store.Get(ctx, "a")
		return !ok
	}, time.Second, 10*time.Millisecond)
}

func TestNewMemoryStore_DefaultCapacity(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0, 0)
	for i := 0; i < DefaultMemoryCapacity+5; i++ {
		require.NoError(t, store.Set(ctx, fmt.Sprintf("key-%d", i), "v"))
	}
	assert.Equal(t, DefaultMemoryCapacity, store.Len())
}
