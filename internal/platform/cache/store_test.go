package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_GetOrLoad_UsesSingleFlight(t *testing.T) {
	t.Parallel()

	store := NewStore[string](time.Minute)
	var calls atomic.Int32

	loader := func(context.Context) (string, error) {
		calls.Add(1)
		time.Sleep(20 * time.Millisecond)
		return "value", nil
	}

	const workers = 32
	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(workers)

	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			<-start
			v, _, err := store.GetOrLoad(context.Background(), "same-key", loader)
			assert.NoError(t, err)
			assert.Equal(t, "value", v)
		}()
	}

	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
}

func TestStore_GetOrLoad_ReportsHit(t *testing.T) {
	t.Parallel()

	store := NewStore[int](time.Minute)
	var calls atomic.Int32
	loader := func(context.Context) (int, error) {
		calls.Add(1)
		return 42, nil
	}

	_, hit, err := store.GetOrLoad(context.Background(), "k", loader)
	require.NoError(t, err)
	assert.False(t, hit)

	v, hit, err := store.GetOrLoad(context.Background(), "k", loader)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 42, v)
	assert.Equal(t, int32(1), calls.Load())
}

func TestStore_Expiry(t *testing.T) {
	t.Parallel()

	store := NewStore[string](time.Second)
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	store.Set(context.Background(), "k", "v")
	_, ok := store.Get(context.Background(), "k")
	require.True(t, ok)

	now = now.Add(2 * time.Second)
	_, ok = store.Get(context.Background(), "k")
	assert.False(t, ok)
	assert.Equal(t, 0, store.Len())
}

func TestStore_DeleteDuringLoadDiscardsStaleValue(t *testing.T) {
	t.Parallel()

	store := NewStore[string](time.Minute)
	release := make(chan struct{})
	started := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)
		v, _, err := store.GetOrLoad(context.Background(), "board", func(context.Context) (string, error) {
			close(started)
			<-release
			return "stale", nil
		})
		assert.NoError(t, err)
		assert.Equal(t, "stale", v)
	}()

	<-started
	store.Delete(context.Background(), "board")
	close(release)
	<-done

	_, ok := store.Get(context.Background(), "board")
	assert.False(t, ok, "value loaded before invalidation must not be cached")

	v, hit, err := store.GetOrLoad(context.Background(), "board", func(context.Context) (string, error) {
		return "fresh", nil
	})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "fresh", v)
}

func TestStore_DeletePrefix(t *testing.T) {
	t.Parallel()

	store := NewStore[int](0)
	ctx := context.Background()
	store.Set(ctx, "board:class-a", 1)
	store.Set(ctx, "board:class-b", 2)
	store.Set(ctx, "other", 3)

	store.DeletePrefix(ctx, "board:")

	assert.Equal(t, 1, store.Len())
	_, ok := store.Get(ctx, "other")
	assert.True(t, ok)
}

func TestStore_GetOrLoad_Errors(t *testing.T) {
	t.Parallel()

	store := NewStore[int](time.Minute)
	_, _, err := store.GetOrLoad(context.Background(), "k", nil)
	require.ErrorIs(t, err, ErrLoaderRequired)

	errBoom := errors.New("boom")
	_, _, err = store.GetOrLoad(context.Background(), "k", func(context.Context) (int, error) { return 0, errBoom })
	require.ErrorIs(t, err, errBoom)
	assert.Equal(t, 0, store.Len())
}
