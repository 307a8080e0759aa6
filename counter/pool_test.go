package counter

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jamesainslie/go-eer/label"
)

func TestNewPool_InvalidSize(t *testing.T) {
	pool := NewPool(newCounter(t, 4), 0)
	if pool.Size() != 1 {
		t.Errorf("expected size 1 for invalid input, got %d", pool.Size())
	}
	pool = NewPool(newCounter(t, 4), -3)
	if pool.Size() != 1 {
		t.Errorf("expected size 1 for negative input, got %d", pool.Size())
	}
}

func TestPool_AcquireRelease(t *testing.T) {
	pool := NewPool(newCounter(t, 4), 2)
	ctx := context.Background()

	c1, err := pool.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire 1 failed: %v", err)
	}
	c2, err := pool.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire 2 failed: %v", err)
	}

	// Third acquire should block
	ctx3, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	if _, err := pool.Acquire(ctx3); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected DeadlineExceeded, got %v", err)
	}

	c1.Add(label.Spoof, 4, 1)
	c2.Add(label.Bonafide, 0, 2)
	pool.Release(c1)
	pool.Release(c2)
	pool.Release(nil)

	sum, err := pool.Close()
	if err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if sum.Mass() != 3 {
		t.Errorf("merged mass = %v, want 3", sum.Mass())
	}

	if _, err := pool.Acquire(ctx); !errors.Is(err, ErrPoolClosed) {
		t.Errorf("expected ErrPoolClosed after Close, got %v", err)
	}
	if _, err := pool.Close(); !errors.Is(err, ErrPoolClosed) {
		t.Errorf("expected ErrPoolClosed on double Close, got %v", err)
	}
}

func TestPool_Concurrent(t *testing.T) {
	pool := NewPool(newCounter(t, 10), 4)
	ctx := context.Background()

	var wg sync.WaitGroup
	for w := 0; w < 16; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				c, err := pool.Acquire(ctx)
				if err != nil {
					t.Errorf("Acquire failed: %v", err)
					return
				}
				c.Add(label.Class(i%2), i%11, 1)
				pool.Release(c)
			}
		}()
	}
	wg.Wait()

	sum, err := pool.Close()
	if err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if sum.Mass() != 1600 {
		t.Errorf("merged mass = %v, want 1600", sum.Mass())
	}
	if sum.Total(label.Bonafide) != 800 {
		t.Errorf("bonafide total = %v, want 800", sum.Total(label.Bonafide))
	}
}
