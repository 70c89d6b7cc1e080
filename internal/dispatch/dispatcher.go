package dispatch

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"
)

const (
	// DefaultWorkerLimit bounds concurrency when callers do not configure one.
	DefaultWorkerLimit = 8
	// SoftWorkerLimitThreshold is the worker count above which callers should
	// warn operators about external rate limits.
	SoftWorkerLimitThreshold = 20

	workerPanicTemplateConstant = "worker panicked: %v"
)

// WorkerFunc fetches the result for one batch key.
type WorkerFunc[ResultType any] func(executionContext context.Context, key string) (ResultType, error)

// ProgressPublisher receives a notification as each batch item completes.
type ProgressPublisher interface {
	Publish(key string, completedCount int, totalCount int, failure error)
}

type noopProgressPublisher struct{}

func (noopProgressPublisher) Publish(string, int, int, error) {}

// BatchReport accumulates per-item outcomes of a batch run and is returned to
// the caller instead of being shared across goroutines.
type BatchReport struct {
	CompletedCount int
	FailedKeys     []string
}

// FailureCount returns the number of items that failed.
func (report BatchReport) FailureCount() int {
	return len(report.FailedKeys)
}

type workerOutcome[ResultType any] struct {
	key     string
	value   ResultType
	failure error
}

// Run executes the worker for every key with bounded concurrency and returns a
// result per key. A failed item keeps its zero value and is recorded in the
// report; it never aborts the batch. The results map is populated only by the
// dispatching goroutine after all workers finish.
func Run[ResultType any](executionContext context.Context, keys []string, workerLimit int, worker WorkerFunc[ResultType], publisher ProgressPublisher) (map[string]ResultType, BatchReport) {
	if publisher == nil {
		publisher = noopProgressPublisher{}
	}
	if workerLimit <= 0 {
		workerLimit = DefaultWorkerLimit
	}

	progressCounter := NewProgressCounter(len(keys))
	outcomes := make(chan workerOutcome[ResultType], len(keys))

	workerGroup, groupContext := errgroup.WithContext(executionContext)
	workerGroup.SetLimit(workerLimit)
	for _, batchKey := range keys {
		batchKey := batchKey
		workerGroup.Go(func() error {
			workerValue, workerFailure := invokeWorker(groupContext, batchKey, worker)
			completedCount, totalCount := progressCounter.Increment()
			publisher.Publish(batchKey, completedCount, totalCount, workerFailure)
			outcomes <- workerOutcome[ResultType]{key: batchKey, value: workerValue, failure: workerFailure}
			return nil
		})
	}
	_ = workerGroup.Wait()
	close(outcomes)

	results := make(map[string]ResultType, len(keys))
	batchReport := BatchReport{CompletedCount: len(keys)}
	for completedOutcome := range outcomes {
		results[completedOutcome.key] = completedOutcome.value
		if completedOutcome.failure != nil {
			batchReport.FailedKeys = append(batchReport.FailedKeys, completedOutcome.key)
		}
	}
	sort.Strings(batchReport.FailedKeys)

	return results, batchReport
}

func invokeWorker[ResultType any](executionContext context.Context, key string, worker WorkerFunc[ResultType]) (workerValue ResultType, workerFailure error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			workerFailure = fmt.Errorf(workerPanicTemplateConstant, recovered)
		}
	}()
	return worker(executionContext, key)
}
