package batcher

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

type recorder struct {
	mu      sync.Mutex
	batches [][]int
	err     error
}

func (r *recorder) flush(_ context.Context, items []int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	batch := make([]int, len(items))
	copy(batch, items)
	r.batches = append(r.batches, batch)
	return r.err
}

func (r *recorder) batchCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.batches)
}

func (r *recorder) total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, b := range r.batches {
		n += len(b)
	}
	return n
}

func TestBatcher_flushBySize(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	b := New(zap.NewNop(), rec.flush, Config{FlushSize: 3, FlushInterval: time.Hour, RPS: 100})
	ctx := context.Background()
	b.Start(ctx)

	for i := 0; i < 3; i++ {
		if err := b.Add(ctx, i); err != nil {
			t.Fatalf("add %d: %v", i, err)
		}
	}

	deadline := time.After(2 * time.Second)
	for rec.total() < 3 {
		select {
		case <-deadline:
			t.Fatalf("size flush never happened, got %d items", rec.total())
		case <-time.After(10 * time.Millisecond):
		}
	}
	b.Stop()
}

func TestBatcher_flushByInterval(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	b := New(zap.NewNop(), rec.flush, Config{FlushSize: 100, FlushInterval: 20 * time.Millisecond, RPS: 100})
	ctx := context.Background()
	b.Start(ctx)

	if err := b.Add(ctx, 42); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(2 * time.Second)
	for rec.total() < 1 {
		select {
		case <-deadline:
			t.Fatal("interval flush never happened")
		case <-time.After(10 * time.Millisecond):
		}
	}
	b.Stop()
}

func TestBatcher_stopDrains(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	b := New(zap.NewNop(), rec.flush, Config{FlushSize: 100, FlushInterval: time.Hour, RPS: 100})
	ctx := context.Background()
	b.Start(ctx)

	if err := b.Add(ctx, 1); err != nil {
		t.Fatal(err)
	}
	// Give the run loop a chance to pull the item into its buffer.
	time.Sleep(50 * time.Millisecond)
	b.Stop()

	if rec.total() != 1 {
		t.Errorf("stop did not flush buffered item, got %d", rec.total())
	}
	if err := b.Add(ctx, 2); !errors.Is(err, context.Canceled) {
		t.Errorf("add after stop: got %v", err)
	}
}

func TestBatcher_flushErrorDoesNotStopLoop(t *testing.T) {
	t.Parallel()

	rec := &recorder{err: errors.New("sink down")}
	b := New(zap.NewNop(), rec.flush, Config{FlushSize: 1, FlushInterval: time.Hour, RPS: 100})
	ctx := context.Background()
	b.Start(ctx)

	for i := 0; i < 2; i++ {
		if err := b.Add(ctx, i); err != nil {
			t.Fatal(err)
		}
	}
	deadline := time.After(2 * time.Second)
	for rec.batchCount() < 2 {
		select {
		case <-deadline:
			t.Fatalf("loop stopped after flush error, %d batches", rec.batchCount())
		case <-time.After(10 * time.Millisecond):
		}
	}
	b.Stop()
}
