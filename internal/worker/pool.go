package worker

import (
	"context"
	"errors"
	"sync"
)

// ErrPoolClosed is returned by Submit once the pool has been cancelled
var ErrPoolClosed = errors.New("worker pool closed")

// Task is one unit of work. It should return soon after ctx is done.
type Task[T any] func(ctx context.Context) T

// Pool runs tasks on a fixed set of goroutines started by NewPool. Values
// arrive on Results in completion order.
type Pool[T any] struct {
	size   int
	tasks  chan Task[T]
	out    chan T
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	tasksClosed sync.Once
	outClosed   sync.Once
}

// NewPool starts size workers bound to ctx; size is at least 1
func NewPool[T any](ctx context.Context, size int) *Pool[T] {
	size = max(size, 1)
	ctx, cancel := context.WithCancel(ctx)

	p := &Pool[T]{
		size:   size,
		tasks:  make(chan Task[T], size),
		out:    make(chan T, size),
		ctx:    ctx,
		cancel: cancel,
	}
	p.wg.Add(size)
	for range size {
		go p.run()
	}
	return p
}

// Size is the number of workers
func (p *Pool[T]) Size() int {
	return p.size
}

func (p *Pool[T]) run() {
	defer p.wg.Done()

	for {
		var task Task[T]
		select {
		case <-p.ctx.Done():
			return
		case t, ok := <-p.tasks:
			if !ok {
				return
			}
			task = t
		}

		v := task(p.ctx)
		select {
		case p.out <- v:
		case <-p.ctx.Done():
			return
		}
	}
}

// Submit queues task, blocking while the queue is full. It must not be
// called after Close.
func (p *Pool[T]) Submit(task Task[T]) error {
	if p.ctx.Err() != nil {
		return ErrPoolClosed
	}
	select {
	case <-p.ctx.Done():
		return ErrPoolClosed
	case p.tasks <- task:
		return nil
	}
}

// Results is closed once every worker has exited
func (p *Pool[T]) Results() <-chan T {
	return p.out
}

// Close stops intake. Queued tasks still run.
func (p *Pool[T]) Close() {
	p.tasksClosed.Do(func() { close(p.tasks) })
	go func() {
		p.wg.Wait()
		p.finish()
	}()
}

// Collect closes the pool and gathers every remaining value
func (p *Pool[T]) Collect() []T {
	p.Close()

	var values []T
	for v := range p.out {
		values = append(values, v)
	}
	return values
}

// Shutdown cancels running tasks and waits for the workers
func (p *Pool[T]) Shutdown() {
	p.cancel()
	p.wg.Wait()
	p.finish()
}

func (p *Pool[T]) finish() {
	p.outClosed.Do(func() { close(p.out) })
	p.cancel()
}
