package workerpool

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func TestProcess_allItems(t *testing.T) {
	t.Parallel()

	items := make([]int, 100)
	for i := range items {
		items[i] = i
	}

	var mu sync.Mutex
	seen := make(map[int]bool)
	err := Process(context.Background(), 4, items, func(_ context.Context, item int) error {
		mu.Lock()
		seen[item] = true
		mu.Unlock()
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(seen) != len(items) {
		t.Fatalf("processed %d of %d items", len(seen), len(items))
	}
}

func TestProcess_propagatesError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	err := Process(context.Background(), 2, []int{1, 2, 3, 4, 5}, func(_ context.Context, item int) error {
		if item == 3 {
			return boom
		}
		return nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("want boom, got %v", err)
	}
}

func TestProcess_canceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Process(ctx, 2, []int{1, 2, 3}, func(context.Context, int) error {
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
}

func TestProcess_clampsWorkerCount(t *testing.T) {
	t.Parallel()

	count := 0
	err := Process(context.Background(), 0, []int{1, 2, 3}, func(_ context.Context, _ int) error {
		count++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 3 {
		t.Fatalf("processed %d items", count)
	}
}

func TestProcess_emptyItems(t *testing.T) {
	t.Parallel()

	if err := Process(context.Background(), 4, nil, func(context.Context, int) error {
		return errors.New("must not be called")
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
