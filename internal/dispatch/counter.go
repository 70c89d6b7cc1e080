package dispatch

import "sync"

// ProgressCounter tracks batch completion behind a mutex so progress lines
// stay deterministic regardless of worker scheduling.
type ProgressCounter struct {
	mutex          sync.Mutex
	completedCount int
	totalCount     int
}

// NewProgressCounter constructs a counter for the given batch size.
func NewProgressCounter(totalCount int) *ProgressCounter {
	return &ProgressCounter{totalCount: totalCount}
}

// Increment records one completion and returns the updated completed and total counts.
func (counter *ProgressCounter) Increment() (int, int) {
	counter.mutex.Lock()
	defer counter.mutex.Unlock()
	counter.completedCount++
	return counter.completedCount, counter.totalCount
}

// Completed returns the number of completions recorded so far.
func (counter *ProgressCounter) Completed() int {
	counter.mutex.Lock()
	defer counter.mutex.Unlock()
	return counter.completedCount
}

// Total returns the batch size the counter was created with.
func (counter *ProgressCounter) Total() int {
	return counter.totalCount
}
