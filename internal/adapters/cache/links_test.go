package cache

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/ara/internal/ports/secondary"
)

func TestLinkCache_LoadsOnceThenHits(t *testing.T) {
	c := NewLinkCache()
	var loads atomic.Int32
	load := func(context.Context) ([]secondary.PatternLink, error) {
		loads.Add(1)
		return []secondary.PatternLink{{PatternID: 3, ProblemID: 1}}, nil
	}

	for range 3 {
		links, err := c.Get(context.Background(), 42, load)
		require.NoError(t, err)
		require.Len(t, links, 1)
		assert.Equal(t, int64(1), links[0].ProblemID)
	}
	assert.Equal(t, int32(1), loads.Load())
	assert.Equal(t, 1, c.Len())
}

func TestLinkCache_EmptyResultIsCached(t *testing.T) {
	c := NewLinkCache()
	var loads atomic.Int32
	load := func(context.Context) ([]secondary.PatternLink, error) {
		loads.Add(1)
		return nil, nil
	}

	c.Get(context.Background(), 1, load)
	c.Get(context.Background(), 1, load)
	assert.Equal(t, int32(1), loads.Load())
}

func TestLinkCache_ErrorsAreNotCached(t *testing.T) {
	c := NewLinkCache()
	boom := errors.New("boom")

	_, err := c.Get(context.Background(), 1, func(context.Context) ([]secondary.PatternLink, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, c.Len())
}

func TestLinkCache_EvictForcesReload(t *testing.T) {
	c := NewLinkCache()
	version := int64(1)
	load := func(context.Context) ([]secondary.PatternLink, error) {
		return []secondary.PatternLink{{PatternID: version}}, nil
	}

	links, _ := c.Get(context.Background(), 7, load)
	assert.Equal(t, int64(1), links[0].PatternID)

	version = 2
	c.Evict(7, 8)
	links, _ = c.Get(context.Background(), 7, load)
	assert.Equal(t, int64(2), links[0].PatternID)
}

func TestLinkCache_EvictDuringLoadDropsResult(t *testing.T) {
	c := NewLinkCache()
	started := make(chan struct{})
	release := make(chan struct{})

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.Get(context.Background(), 5, func(context.Context) ([]secondary.PatternLink, error) {
			close(started)
			<-release
			return []secondary.PatternLink{{PatternID: 1}}, nil
		})
	}()

	<-started
	c.Evict(5)
	close(release)
	<-done

	assert.Equal(t, 0, c.Len(), "stale load must not be stored")
}

func TestLinkCache_ConcurrentMissesShareOneLoad(t *testing.T) {
	c := NewLinkCache()
	var loads atomic.Int32
	release := make(chan struct{})
	load := func(context.Context) ([]secondary.PatternLink, error) {
		loads.Add(1)
		<-release
		return []secondary.PatternLink{{PatternID: 9}}, nil
	}

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			links, err := c.Get(context.Background(), 11, load)
			assert.NoError(t, err)
			assert.Len(t, links, 1)
		}()
	}
	// Let the goroutines pile up on the in-flight load
	for loads.Load() == 0 {
		runtime.Gosched()
	}
	close(release)
	wg.Wait()

	assert.LessOrEqual(t, loads.Load(), int32(8))
	assert.Equal(t, 1, c.Len())
}
