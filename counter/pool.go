package counter

import (
	"context"
	"errors"
	"sync"
)

// ErrPoolClosed is returned when acquiring from a closed pool.
var ErrPoolClosed = errors.New("counter: pool closed")

// Pool hands out private counters to concurrent workers. Each counter is
// used by one worker at a time; Close sums them into the final result.
type Pool struct {
	counters chan *Counter
	proto    *Counter
	size     int
	mu       sync.Mutex
	closed   bool
}

// NewPool creates a pool of size empty counters shaped like proto.
func NewPool(proto *Counter, size int) *Pool {
	if size <= 0 {
		size = 1
	}

	pool := &Pool{
		counters: make(chan *Counter, size),
		proto:    proto,
		size:     size,
	}
	for i := 0; i < size; i++ {
		pool.counters <- proto.EmptyLike()
	}
	return pool
}

// Acquire gets a counter from the pool, blocking if none is available.
// Respects context cancellation. Returns ErrPoolClosed after Close.
func (p *Pool) Acquire(ctx context.Context) (*Counter, error) {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return nil, ErrPoolClosed
	}

	select {
	case c, ok := <-p.counters:
		if !ok {
			return nil, ErrPoolClosed
		}
		return c, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Release returns a counter to the pool.
func (p *Pool) Release(c *Counter) {
	if c == nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}

	select {
	case p.counters <- c:
	default:
		// Pool full; the counter was not ours.
	}
}

// Close stops handing out counters and returns the sum of every counter
// still in the pool. Counters not yet released are lost, so call Close
// only after all workers have returned.
func (p *Pool) Close() (*Counter, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrPoolClosed
	}
	p.closed = true
	close(p.counters)
	p.mu.Unlock()

	sum := p.proto.EmptyLike()
	var errs []error
	for c := range p.counters {
		if err := sum.Merge(c); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return sum, nil
}

// Size returns the number of counters in the pool.
func (p *Pool) Size() int {
	return p.size
}
