package scheduler

import (
	"context"

	"github.com/sourcegraph/conc/pool"

	"github.com/strataml/cubefit/pkg/errors"
)

// Local runs task batches on a bounded goroutine pool in-process. It is
// the default substrate; distributed deployments supply their own
// Scheduler backed by a worker cluster.
type Local struct {
	maxWorkers int
}

// NewLocal creates a local scheduler. maxWorkers <= 0 means one
// goroutine per task.
func NewLocal(maxWorkers int) *Local {
	return &Local{maxWorkers: maxWorkers}
}

// Run executes the batch with controlled concurrency and blocks until
// every task finishes. A panicking task is converted into that task's
// error rather than taking down the batch.
func (l *Local) Run(ctx context.Context, tasks []Task) ([]Result, error) {
	if err := errors.CheckContext(ctx, "scheduler run"); err != nil {
		return nil, errors.Wrap(err, errors.Scheduler, "batch not submitted")
	}

	results := make([]Result, len(tasks))

	p := pool.New()
	if l.maxWorkers > 0 {
		p = p.WithMaxGoroutines(l.maxWorkers)
	}

	for i, task := range tasks {
		i, task := i, task
		p.Go(func() {
			defer func() {
				if r := recover(); r != nil {
					results[i] = Result{Err: errors.Newf(errors.Unknown, "task panicked: %v", r)}
				}
			}()
			v, err := task(ctx)
			results[i] = Result{Value: v, Err: err}
		})
	}
	p.Wait()

	return results, nil
}
