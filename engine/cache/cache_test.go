package cache

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type asset struct {
	name string
}

func countingLoader(calls *atomic.Int64) Loader[string, *asset] {
	return func(key string) (*asset, error) {
		calls.Add(1)
		return &asset{name: key}, nil
	}
}

func TestLoadMemoizes(t *testing.T) {
	var calls atomic.Int64
	c := New(countingLoader(&calls))

	a, err := c.Load("basic.vert")
	require.NoError(t, err)
	b, err := c.Load("basic.vert")
	require.NoError(t, err)

	assert.Same(t, a, b)
	assert.EqualValues(t, 1, calls.Load())
	assert.EqualValues(t, 1, c.Loads())
	hits, misses := c.Stats()
	assert.EqualValues(t, 1, hits)
	assert.EqualValues(t, 1, misses)
}

func TestInvalidateReloads(t *testing.T) {
	var calls atomic.Int64
	var evicted []string
	c := New(countingLoader(&calls), WithOnEvict(func(k string, _ *asset) {
		evicted = append(evicted, k)
	}))

	a, err := c.Load("x")
	require.NoError(t, err)
	c.Invalidate("x")
	b, err := c.Load("x")
	require.NoError(t, err)

	assert.NotSame(t, a, b)
	assert.EqualValues(t, 2, c.Loads())
	assert.Equal(t, []string{"x"}, evicted)
}

func TestInvalidateUnknownKeyIsNoop(t *testing.T) {
	var calls atomic.Int64
	c := New(countingLoader(&calls), WithOnEvict(func(string, *asset) {
		t.Fatal("evict hook called for absent key")
	}))
	c.Invalidate("nope")
	assert.Equal(t, 0, c.Len())
}

func TestClear(t *testing.T) {
	var calls atomic.Int64
	var evicted atomic.Int64
	c := New(countingLoader(&calls), WithOnEvict(func(string, *asset) { evicted.Add(1) }))

	for i := range 20 {
		_, err := c.Load(fmt.Sprintf("k%d", i))
		require.NoError(t, err)
	}
	assert.Equal(t, 20, c.Len())
	assert.Len(t, c.Keys(), 20)

	c.Clear()
	assert.Equal(t, 0, c.Len())
	assert.EqualValues(t, 20, evicted.Load())

	_, err := c.Load("k0")
	require.NoError(t, err)
	assert.EqualValues(t, 21, c.Loads())
}

func TestErrorsAreNotCached(t *testing.T) {
	boom := errors.New("boom")
	fail := true
	c := New(func(key string) (int, error) {
		if fail {
			return 0, boom
		}
		return len(key), nil
	})

	_, err := c.Load("abc")
	require.ErrorIs(t, err, boom)
	_, ok := c.Peek("abc")
	assert.False(t, ok)

	fail = false
	v, err := c.Load("abc")
	require.NoError(t, err)
	assert.Equal(t, 3, v)
}

func TestConcurrentSameKeyLoadsOnce(t *testing.T) {
	var calls atomic.Int64
	release := make(chan struct{})
	c := New(func(key string) (*asset, error) {
		calls.Add(1)
		<-release
		return &asset{name: key}, nil
	})

	const n = 32
	results := make([]*asset, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a, err := c.Load("same")
			assert.NoError(t, err)
			results[i] = a
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.EqualValues(t, 1, calls.Load())
	for _, r := range results {
		assert.Same(t, results[0], r)
	}
}

func TestDistinctKeysDoNotBlock(t *testing.T) {
	block := make(chan struct{})
	c := New(func(key string) (string, error) {
		if key == "slow" {
			<-block
		}
		return key, nil
	})

	go func() { _, _ = c.Load("slow") }()
	time.Sleep(10 * time.Millisecond)

	done := make(chan struct{})
	go func() {
		v, err := c.Load("fast")
		assert.NoError(t, err)
		assert.Equal(t, "fast", v)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("load of a distinct key blocked behind an in-flight load")
	}
	close(block)
}

func TestInvalidateDuringLoadDiscardsStaleValue(t *testing.T) {
	var calls atomic.Int64
	started := make(chan struct{}, 2)
	proceed := make(chan struct{})
	var discarded atomic.Int64

	c := New(func(key string) (int64, error) {
		n := calls.Add(1)
		started <- struct{}{}
		if n == 1 {
			<-proceed
		}
		return n, nil
	}, WithOnEvict(func(string, int64) { discarded.Add(1) }))

	got := make(chan int64)
	go func() {
		v, err := c.Load("k")
		assert.NoError(t, err)
		got <- v
	}()

	<-started
	c.Invalidate("k")
	close(proceed)

	assert.EqualValues(t, 2, <-got)
	assert.EqualValues(t, 1, discarded.Load())
	v, ok := c.Peek("k")
	assert.True(t, ok)
	assert.EqualValues(t, 2, v)
}

func TestShardCountRoundsUp(t *testing.T) {
	c := New(func(k int) (int, error) { return k, nil }, WithShardCount[int, int](5)).(*cache[int, int])
	assert.Len(t, c.shards, 8)
}
