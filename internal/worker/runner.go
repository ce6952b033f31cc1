// Package worker runs best-effort background tasks such as the delayed AI
// analysis after a complaint is stored.
package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var ErrClosed = errors.New("runner closed")

// Task is run at most once. A returned error is logged and dropped.
type Task func(ctx context.Context) error

// Runner starts each scheduled task on its own goroutine after a delay.
// At most `workers` tasks execute at the same time; the rest wait for a slot.
type Runner struct {
	slots      chan struct{}
	wg         sync.WaitGroup
	ctx        context.Context
	cancelFunc context.CancelFunc
	mu         sync.Mutex
	closed     bool
	timeout    time.Duration
	logger     zerolog.Logger
}

// NewRunner creates a runner. taskTimeout bounds a single task; zero means no bound.
func NewRunner(workers int, taskTimeout time.Duration, logger zerolog.Logger) *Runner {
	if workers <= 0 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		slots:      make(chan struct{}, workers),
		ctx:        ctx,
		cancelFunc: cancel,
		timeout:    taskTimeout,
		logger:     logger.With().Str("component", "worker").Logger(),
	}
}

// Schedule queues fn to run after delay. It never blocks the caller.
func (r *Runner) Schedule(name string, delay time.Duration, fn Task) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		r.logger.Warn().Str("task", name).Msg("runner closed, task dropped")
		return ErrClosed
	}
	r.wg.Add(1)
	r.mu.Unlock()

	go r.run(name, delay, fn)
	return nil
}

func (r *Runner) run(name string, delay time.Duration, fn Task) {
	defer r.wg.Done()

	if delay > 0 {
		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-r.ctx.Done():
			timer.Stop()
			r.logger.Warn().Str("task", name).Msg("runner stopped before task started, task dropped")
			return
		}
	}

	select {
	case r.slots <- struct{}{}:
	case <-r.ctx.Done():
		r.logger.Warn().Str("task", name).Msg("runner stopped before task started, task dropped")
		return
	}
	defer func() { <-r.slots }()

	ctx := r.ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error().Str("task", name).Interface("panic", rec).Msg("background task panicked")
		}
	}()

	start := time.Now()
	if err := fn(ctx); err != nil {
		r.logger.Error().Err(err).Str("task", name).Dur("elapsed", time.Since(start)).Msg("background task failed")
		return
	}
	r.logger.Debug().Str("task", name).Dur("elapsed", time.Since(start)).Msg("background task done")
}

// Close stops accepting tasks and waits for the ones already scheduled. When
// ctx expires first, Close returns ctx.Err() without waiting further: tasks
// that have not started are dropped and running tasks have their context
// cancelled, but a task that ignores cancellation keeps running on its own.
func (r *Runner) Close(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.cancelFunc()
		return nil
	case <-ctx.Done():
		r.cancelFunc()
		return ctx.Err()
	}
}
