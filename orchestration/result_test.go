package orchestration

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/agentrelay/types"
)

func TestResult_ResolveOnce(t *testing.T) {
	r := NewResult[string]()
	assert.True(t, r.Resolve("first"))
	assert.False(t, r.Resolve("second"))
	assert.False(t, r.Fail(errors.New("late failure")))

	value, err := r.Await(time.Second)
	require.NoError(t, err)
	assert.Equal(t, "first", value)

	// Terminal results answer every subsequent wait identically.
	value, err = r.Await(time.Second)
	require.NoError(t, err)
	assert.Equal(t, "first", value)
}

func TestResult_FailOnce(t *testing.T) {
	r := NewResult[string]()
	boom := types.NewError(types.ErrAgentInvocation, "backend exploded")
	assert.True(t, r.Fail(boom))
	assert.False(t, r.Resolve("too late"))

	_, err := r.Await(time.Second)
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.ErrAgentInvocation))
}

func TestResult_AwaitTimeout(t *testing.T) {
	r := NewResult[string]()

	_, err := r.Await(20 * time.Millisecond)
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.ErrTimeout))

	// The timeout fails only the wait; the result can still resolve and a
	// later wait observes the value.
	require.True(t, r.Resolve("eventually"))
	value, err := r.Await(time.Second)
	require.NoError(t, err)
	assert.Equal(t, "eventually", value)
}

func TestResult_AwaitContextCancelled(t *testing.T) {
	r := NewResult[int]()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.AwaitContext(ctx)
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.ErrCancelled))
}

func TestResult_DoneSignalsWaiters(t *testing.T) {
	r := NewResult[string]()

	const waiters = 4
	var wg sync.WaitGroup
	values := make([]string, waiters)
	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-r.Done()
			v, err := r.Await(time.Second)
			assert.NoError(t, err)
			values[i] = v
		}(i)
	}

	r.Resolve("broadcast")
	wg.Wait()
	for _, v := range values {
		assert.Equal(t, "broadcast", v)
	}
}

func TestResult_ConcurrentResolveRace(t *testing.T) {
	r := NewResult[int]()

	var wins atomicCounter
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if r.Resolve(i) {
				wins.inc()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, wins.get(), "exactly one resolver wins")
}

type atomicCounter struct {
	mu sync.Mutex
	n  int
}

func (c *atomicCounter) inc() {
	c.mu.Lock()
	c.n++
	c.mu.Unlock()
}

func (c *atomicCounter) get() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}
