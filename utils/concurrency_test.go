package utils

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestSeenSetNoDuplicates(t *testing.T) {
	s := NewSeenSet()

	if !s.Add("listing-1") {
		t.Error("first Add should return true")
	}
	if s.Add("listing-1") {
		t.Error("second Add of same key should return false")
	}
	if !s.Contains("listing-1") {
		t.Error("Contains should report an added key")
	}
	if s.Size() != 1 {
		t.Errorf("size: got %d, want 1", s.Size())
	}
}

func TestSeenSetConcurrency(t *testing.T) {
	s := NewSeenSet()
	var added int64

	pool := NewWorkerPool(10, 0)
	for i := 0; i < 100; i++ {
		pool.Submit(func() {
			if s.Add("same") {
				atomic.AddInt64(&added, 1)
			}
		})
	}
	pool.Wait()

	if added != 1 {
		t.Errorf("expected exactly 1 successful add, got %d", added)
	}
}

func TestWorkerPoolRateLimit(t *testing.T) {
	rateLimitMs := 50
	pool := NewWorkerPool(1, rateLimitMs)

	var mu sync.Mutex
	var starts []time.Time

	for i := 0; i < 3; i++ {
		pool.Submit(func() {
			mu.Lock()
			starts = append(starts, time.Now())
			mu.Unlock()
		})
	}
	pool.Wait()

	if len(starts) != 3 {
		t.Fatalf("expected 3 jobs to run, got %d", len(starts))
	}
	min := time.Duration(rateLimitMs) * time.Millisecond
	for i := 1; i < len(starts); i++ {
		if gap := starts[i].Sub(starts[i-1]); gap < min {
			t.Errorf("gap between job %d and %d: %v < minimum %v", i-1, i, gap, min)
		}
	}
}
