// Package dispatch runs embarrassingly-parallel fetch batches over a bounded
// worker pool, reporting [completed/total] progress through a mutex-guarded
// counter and isolating per-item failures from the rest of the batch.
package dispatch
