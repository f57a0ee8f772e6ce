// ABOUTME: Tests for the per-key in-flight guard
// ABOUTME: Covers result sharing, error propagation, and key independence

package inflight

import (
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDo_SingleCaller(t *testing.T) {
	g := NewGuard[string]()

	v, shared, err := g.Do("key", func() (string, error) {
		return "value", nil
	})
	require.NoError(t, err)
	assert.False(t, shared)
	assert.Equal(t, "value", v)
}

func TestDo_PropagatesError(t *testing.T) {
	g := NewGuard[string]()
	wantErr := errors.New("lookup failed")

	_, _, err := g.Do("key", func() (string, error) {
		return "", wantErr
	})
	assert.ErrorIs(t, err, wantErr)
}

func TestDo_CollapsesConcurrentCalls(t *testing.T) {
	g := NewGuard[string]()

	var executions atomic.Int32
	var entered atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})

	var wg sync.WaitGroup
	results := make([]string, 10)
	sharedFlags := make([]bool, 10)

	// First caller blocks inside fn until released, holding the key
	// in-flight while the waiters arrive.
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], sharedFlags[0], _ = g.Do("conv-1", func() (string, error) {
			executions.Add(1)
			close(started)
			<-release
			return "resolved", nil
		})
	}()

	<-started
	for i := 1; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			entered.Add(1)
			results[i], sharedFlags[i], _ = g.Do("conv-1", func() (string, error) {
				executions.Add(1)
				t.Error("waiter executed fn; it must share the owner's execution")
				return "resolved", nil
			})
		}(i)
	}

	// Release only once every waiter is at its Do call, with a brief settle
	// so they reach the in-flight lookup before the owner completes.
	for entered.Load() < 9 {
		runtime.Gosched()
	}
	time.Sleep(10 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), executions.Load(), "fn executed more than once")
	shared := 0
	for i, v := range results {
		assert.Equal(t, "resolved", v)
		if sharedFlags[i] {
			shared++
		}
	}
	assert.Equal(t, 9, shared, "exactly one caller should own the execution")
}

func TestDo_KeyForgottenAfterCompletion(t *testing.T) {
	g := NewGuard[int]()

	var executions atomic.Int32
	fn := func() (int, error) {
		return int(executions.Add(1)), nil
	}

	v1, _, err := g.Do("key", fn)
	require.NoError(t, err)
	v2, _, err := g.Do("key", fn)
	require.NoError(t, err)

	assert.Equal(t, 1, v1)
	assert.Equal(t, 2, v2, "completed key should not serve cached results")
}

func TestDo_IndependentKeys(t *testing.T) {
	g := NewGuard[string]()

	block := make(chan struct{})
	started := make(chan struct{})

	go g.Do("a", func() (string, error) {
		close(started)
		<-block
		return "a", nil
	})
	<-started

	// A different key must not wait on key "a".
	v, shared, err := g.Do("b", func() (string, error) {
		return "b", nil
	})
	close(block)

	require.NoError(t, err)
	assert.False(t, shared)
	assert.Equal(t, "b", v)
}
