// Package scheduler defines the task-execution substrate the ensemble
// engine submits fit and predict jobs to. The engine only ever submits a
// batch and blocks for the whole batch; pairing of results back to jobs
// is positional, never by completion order.
package scheduler

import (
	"context"
)

// Task is one unit of work. Implementations must treat any sample
// captured by the closure as read-only once submitted.
type Task func(ctx context.Context) (interface{}, error)

// Result carries one task's outcome. Exactly one of Value or Err is
// meaningful.
type Result struct {
	Value interface{}
	Err   error
}

// Scheduler runs batches of tasks concurrently. Run blocks until every
// task in the batch has completed or failed and returns results aligned
// positionally with tasks. A non-nil error return means the scheduler
// itself failed (worker or connection loss) and the batch outcome is
// unknown; the engine surfaces it as-is without retrying.
//
// Schedulers do not time out or cancel individual tasks: a hung task
// stalls the whole batch. Cancellation is the caller's responsibility
// via ctx, and retry policy is the scheduler implementation's if it
// wants one.
type Scheduler interface {
	Run(ctx context.Context, tasks []Task) ([]Result, error)
}
