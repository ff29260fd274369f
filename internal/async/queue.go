package async

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Task is the smallest useful unit: one background regeneration request
// for one job item. Extend as needed later (trace, retry, force).
type Task struct {
	ItemID      uuid.UUID
	SubmittedAt time.Time
}

// Runner executes one task. It must handle its own errors; the
// dispatcher only logs panics.
type Runner func(ctx context.Context, task Task)

type Queue interface {
	Enqueue(ctx context.Context, task Task)
	Shutdown(ctx context.Context)
}

// Dispatcher spawns one goroutine per task, fire-and-forget. There is no
// worker pool and no per-item mutual exclusion: two tasks for the same
// item can run concurrently, last writer wins. Shutdown waits for
// in-flight tasks up to the context deadline.
type Dispatcher struct {
	run    Runner
	wg     sync.WaitGroup
	logger *slog.Logger
}

func NewDispatcher(run Runner, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{run: run, logger: logger}
}

func (d *Dispatcher) Enqueue(ctx context.Context, task Task) {
	if task.SubmittedAt.IsZero() {
		task.SubmittedAt = time.Now().UTC()
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				d.logger.Error("background task panicked", "item_id", task.ItemID, "panic", r)
			}
		}()
		d.run(ctx, task)
	}()
}

func (d *Dispatcher) Shutdown(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		d.logger.Warn("shutdown deadline reached with tasks still running")
	}
}
