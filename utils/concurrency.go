package utils

import (
	"sync"
	"time"
)

// WorkerPool runs jobs on a bounded number of goroutines and spaces job
// starts at least minInterval apart.
type WorkerPool struct {
	minInterval time.Duration
	semaphore   chan struct{}
	wg          sync.WaitGroup
	mu          sync.Mutex
	lastStart   time.Time
}

// NewWorkerPool creates a WorkerPool with the given concurrency and rate limit.
func NewWorkerPool(maxWorkers, rateLimitMs int) *WorkerPool {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	return &WorkerPool{
		minInterval: time.Duration(rateLimitMs) * time.Millisecond,
		semaphore:   make(chan struct{}, maxWorkers),
	}
}

// Submit enqueues a job, blocking while all workers are busy.
func (wp *WorkerPool) Submit(job func()) {
	wp.wg.Add(1)
	wp.semaphore <- struct{}{}

	go func() {
		defer wp.wg.Done()
		defer func() { <-wp.semaphore }()

		wp.enforceRateLimit()
		job()
	}()
}

// Wait blocks until all submitted jobs have completed.
func (wp *WorkerPool) Wait() {
	wp.wg.Wait()
}

func (wp *WorkerPool) enforceRateLimit() {
	if wp.minInterval <= 0 {
		return
	}

	wp.mu.Lock()
	defer wp.mu.Unlock()

	if !wp.lastStart.IsZero() {
		if elapsed := time.Since(wp.lastStart); elapsed < wp.minInterval {
			time.Sleep(wp.minInterval - elapsed)
		}
	}
	wp.lastStart = time.Now()
}

// SeenSet is a thread-safe set of keys (listing ids, page URLs) already handled.
type SeenSet struct {
	mu   sync.RWMutex
	seen map[string]struct{}
}

// NewSeenSet creates an empty SeenSet.
func NewSeenSet() *SeenSet {
	return &SeenSet{seen: make(map[string]struct{})}
}

// Add returns true if key was newly added, false if already present.
func (s *SeenSet) Add(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.seen[key]; exists {
		return false
	}
	s.seen[key] = struct{}{}
	return true
}

// Contains reports whether key has been added.
func (s *SeenSet) Contains(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, exists := s.seen[key]
	return exists
}

// Size returns the number of distinct keys.
func (s *SeenSet) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.seen)
}
