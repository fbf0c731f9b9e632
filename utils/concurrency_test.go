package utils

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestWorkerPoolRunsAllJobs(t *testing.T) {
	pool := NewWorkerPool(4, 0)

	var count int64
	for i := 0; i < 20; i++ {
		pool.Submit(func() {
			atomic.AddInt64(&count, 1)
		})
	}
	pool.Wait()

	if count != 20 {
		t.Errorf("expected 20 jobs to run, got %d", count)
	}
}

func TestWorkerPoolBoundsConcurrency(t *testing.T) {
	const maxWorkers = 3
	pool := NewWorkerPool(maxWorkers, 0)

	var running, peak int64
	var mu sync.Mutex

	for i := 0; i < 12; i++ {
		pool.Submit(func() {
			n := atomic.AddInt64(&running, 1)
			mu.Lock()
			if n > peak {
				peak = n
			}
			mu.Unlock()
			atomic.AddInt64(&running, -1)
		})
	}
	pool.Wait()

	if peak > maxWorkers {
		t.Errorf("observed %d concurrent jobs, want at most %d", peak, maxWorkers)
	}
}

func TestIDSetAdd(t *testing.T) {
	set := NewIDSet()

	if !set.Add("walmart-101-milk") {
		t.Error("first Add should return true")
	}
	if set.Add("walmart-101-milk") {
		t.Error("second Add of same id should return false")
	}
	if !set.Contains("walmart-101-milk") {
		t.Error("Contains should report a stored id")
	}
	if set.Size() != 1 {
		t.Errorf("expected size 1, got %d", set.Size())
	}
}

func TestIDSetConcurrentAdd(t *testing.T) {
	set := NewIDSet()

	var wg sync.WaitGroup
	var added int64
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if set.Add("same-id") {
				atomic.AddInt64(&added, 1)
			}
		}()
	}
	wg.Wait()

	if added != 1 {
		t.Errorf("expected exactly one successful Add, got %d", added)
	}
}
