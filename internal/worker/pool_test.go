package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestNewPool_Size(t *testing.T) {
	for _, tt := range []struct{ in, want int }{{5, 5}, {0, 1}, {-3, 1}} {
		p := NewPool[int](context.Background(), tt.in)
		assert.Equal(t, tt.want, p.Size(), "size for %d", tt.in)
		p.Shutdown()
	}
}

func TestPool_Collect(t *testing.T) {
	p := NewPool[int](context.Background(), 3)

	go func() {
		for i := range 10 {
			assert.NoError(t, p.Submit(func(context.Context) int { return i * i }))
		}
		p.Close()
	}()

	sum := 0
	for v := range p.Results() {
		sum += v
	}
	assert.Equal(t, 285, sum)
}

func TestPool_BoundsConcurrency(t *testing.T) {
	const workers = 3
	p := NewPool[struct{}](context.Background(), workers)

	var running, peak atomic.Int32
	task := func(ctx context.Context) struct{} {
		n := running.Add(1)
		for {
			old := peak.Load()
			if n <= old || peak.CompareAndSwap(old, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		running.Add(-1)
		return struct{}{}
	}

	go func() {
		for range 15 {
			_ = p.Submit(task)
		}
		p.Close()
	}()

	count := 0
	for range p.Results() {
		count++
	}
	assert.Equal(t, 15, count)
	assert.LessOrEqual(t, peak.Load(), int32(workers))
}

func TestPool_CollectKeepsErrors(t *testing.T) {
	p := NewPool[error](context.Background(), 2)
	require.NoError(t, p.Submit(func(context.Context) error { return errors.New("échec") }))
	require.NoError(t, p.Submit(func(context.Context) error { return nil }))

	failed := 0
	for _, err := range p.Collect() {
		if err != nil {
			failed++
		}
	}
	assert.Equal(t, 1, failed)
}

func TestPool_SubmitAfterShutdown(t *testing.T) {
	p := NewPool[int](context.Background(), 2)
	p.Shutdown()

	err := p.Submit(func(context.Context) int { return 1 })
	assert.ErrorIs(t, err, ErrPoolClosed)

	_, open := <-p.Results()
	assert.False(t, open, "results must be closed after shutdown")
}

func TestPool_ParentCancelStopsTasks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := NewPool[error](ctx, 1)

	started := make(chan struct{})
	require.NoError(t, p.Submit(func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	}))
	<-started
	cancel()

	done := make(chan struct{})
	go func() {
		p.Shutdown()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Shutdown did not return after parent cancel")
	}
}
