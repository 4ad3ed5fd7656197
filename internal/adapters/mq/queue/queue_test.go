package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

type job struct {
	ID  string
	Row int
}

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue[job](WithCapacity(2))
	ctx := context.Background()

	// Test empty queue
	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}

	// Test enqueue
	if !q.Enqueue(ctx, job{ID: "row1", Row: 1}) {
		t.Error("expected enqueue to succeed")
	}

	if l := q.Len(ctx); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	// Test dequeue
	ch := q.Dequeue(ctx)
	got := <-ch
	if got.ID != "row1" {
		t.Errorf("expected row1, got %v", got.ID)
	}

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
	if q.Capacity() != 2 {
		t.Errorf("expected capacity 2, got %d", q.Capacity())
	}
}

func TestInMemoryQueue_Capacity(t *testing.T) {
	q := NewInMemoryQueue[job](WithCapacity(2), WithName("rows"))
	ctx := context.Background()

	if !q.Enqueue(ctx, job{ID: "a"}) || !q.Enqueue(ctx, job{ID: "b"}) {
		t.Fatal("expected enqueue to succeed")
	}

	// Try to enqueue when full
	if q.Enqueue(ctx, job{ID: "c"}) {
		t.Error("expected enqueue to fail when full")
	}

	if l := q.Len(ctx); l != 2 {
		t.Errorf("expected length 2, got %d", l)
	}
}

func TestInMemoryQueue_EnqueueWaitBlocksUntilRoom(t *testing.T) {
	q := NewInMemoryQueue[job](WithCapacity(1))
	ctx := context.Background()

	if err := q.EnqueueWait(ctx, job{ID: "a"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- q.EnqueueWait(ctx, job{ID: "b"}) }()

	select {
	case <-done:
		t.Fatal("expected EnqueueWait to block while the queue is full")
	case <-time.After(20 * time.Millisecond):
	}

	ch := q.Dequeue(ctx)
	if first := <-ch; first.ID != "a" {
		t.Errorf("expected a first, got %s", first.ID)
	}
	if err := <-done; err != nil {
		t.Fatalf("expected blocked enqueue to finish, got %v", err)
	}
	if second := <-ch; second.ID != "b" {
		t.Errorf("expected b second, got %s", second.ID)
	}
}

func TestInMemoryQueue_EnqueueWaitHonoursContext(t *testing.T) {
	q := NewInMemoryQueue[job](WithCapacity(1))
	_ = q.EnqueueWait(context.Background(), job{ID: "a"})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := q.EnqueueWait(ctx, job{ID: "b"}); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}

	_ = q.Close()
	if err := q.EnqueueWait(context.Background(), job{ID: "c"}); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestInMemoryQueue_ConcurrentAccess(t *testing.T) {
	q := NewInMemoryQueue[job](WithCapacity(100))
	ctx := context.Background()
	numProducers := 10
	numJobs := 100

	var producers sync.WaitGroup
	for i := 0; i < numProducers; i++ {
		producers.Add(1)
		go func(id int) {
			defer producers.Done()
			for j := 0; j < numJobs; j++ {
				if err := q.EnqueueWait(ctx, job{ID: fmt.Sprintf("row%d_%d", id, j), Row: j}); err != nil {
					t.Errorf("enqueue: %v", err)
				}
			}
		}(i)
	}

	consumed := make(chan string, numProducers*numJobs)
	var consumers sync.WaitGroup
	for i := 0; i < 4; i++ {
		consumers.Add(1)
		go func() {
			defer consumers.Done()
			for item := range q.Dequeue(ctx) {
				consumed <- item.ID
			}
		}()
	}

	producers.Wait()
	_ = q.Close()
	consumers.Wait()
	close(consumed)

	seen := make(map[string]bool)
	for id := range consumed {
		if seen[id] {
			t.Errorf("duplicate delivery of %s", id)
		}
		seen[id] = true
	}
	if len(seen) != numProducers*numJobs {
		t.Errorf("expected %d items, got %d", numProducers*numJobs, len(seen))
	}
}

func TestInMemoryQueue_GracefulShutdown(t *testing.T) {
	q := NewInMemoryQueue[job](WithCapacity(10))
	ctx := context.Background()

	if !q.Enqueue(ctx, job{ID: "a"}) || !q.Enqueue(ctx, job{ID: "b"}) {
		t.Fatal("expected enqueue to succeed")
	}

	if q.IsClosed() {
		t.Error("expected queue to be open initially")
	}

	if err := q.Close(); err != nil {
		t.Errorf("expected close to succeed, got error: %v", err)
	}

	if !q.IsClosed() {
		t.Error("expected queue to be closed after Close()")
	}

	// Try to enqueue after closing (should fail)
	if q.Enqueue(ctx, job{ID: "c"}) {
		t.Error("expected enqueue to fail after closing")
	}

	// Already queued items still drain, then the channel closes
	var drained []string
	timeout := time.After(time.Second)
	ch := q.Dequeue(ctx)
	for {
		select {
		case item, ok := <-ch:
			if !ok {
				if len(drained) != 2 {
					t.Errorf("expected 2 drained items, got %v", drained)
				}
				// Close again should not error
				if err := q.Close(); err != nil {
					t.Errorf("expected second close to succeed, got error: %v", err)
				}
				return
			}
			drained = append(drained, item.ID)
		case <-timeout:
			t.Fatal("expected dequeue channel to be closed within timeout")
		}
	}
}
