// Package eventloop runs every widget callback of one page session on a
// single goroutine. Fetches are the only work that leaves the loop; their
// completions are posted back before they touch widget state.
package eventloop

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Task runs off the loop and returns the completion to run on it. A nil
// completion is skipped.
type Task func() func()

// Scheduler is what widgets see of the loop.
type Scheduler interface {
	// Post queues fn behind the work already queued.
	Post(fn func())
	// After queues fn once d has elapsed.
	After(d time.Duration, fn func())
	// Go runs task in the background and queues its completion.
	Go(task Task)
}

// Option configures a Loop.
type Option func(*Loop)

// WithLogger overrides the loop logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loop) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// Loop is a FIFO of callbacks drained by one goroutine at a time.
type Loop struct {
	mu      sync.Mutex
	queue   []func()
	pending int
	wake    chan struct{}
	closed  bool
	logger  *slog.Logger
}

// New constructs an idle loop.
func New(opts ...Option) *Loop {
	l := &Loop{
		wake:   make(chan struct{}, 1),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(l)
	}
	return l
}

// Post implements Scheduler.
func (l *Loop) Post(fn func()) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()
	l.signal()
}

// After implements Scheduler.
func (l *Loop) After(d time.Duration, fn func()) {
	if fn == nil {
		return
	}
	if !l.begin() {
		return
	}
	time.AfterFunc(d, func() {
		l.finish(fn)
	})
}

// Go implements Scheduler.
func (l *Loop) Go(task Task) {
	if task == nil {
		return
	}
	if !l.begin() {
		return
	}
	go func() {
		var done func()
		defer func() {
			if r := recover(); r != nil {
				l.logger.Error("background task panicked", slog.Any("panic", r))
				done = nil
			}
			l.finish(done)
		}()
		done = task()
	}()
}

// Pending reports queued callbacks plus outstanding timers and tasks.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue) + l.pending
}

// RunUntilIdle drains the queue, waiting for timers and background tasks,
// until nothing is queued or outstanding.
func (l *Loop) RunUntilIdle(ctx context.Context) error {
	for {
		l.drain()
		if l.Pending() == 0 {
			return nil
		}
		if err := l.wait(ctx); err != nil {
			return err
		}
	}
}

// Run drains the queue until ctx is done. It is the long-lived form of
// RunUntilIdle used by interactive sessions.
func (l *Loop) Run(ctx context.Context) error {
	for {
		l.drain()
		if err := l.wait(ctx); err != nil {
			return err
		}
	}
}

// Close drops queued work and rejects new work. Outstanding timers and
// tasks complete silently.
func (l *Loop) Close() {
	l.mu.Lock()
	l.closed = true
	l.queue = nil
	l.mu.Unlock()
	l.signal()
}

func (l *Loop) begin() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return false
	}
	l.pending++
	return true
}

func (l *Loop) finish(fn func()) {
	l.mu.Lock()
	l.pending--
	if fn != nil && !l.closed {
		l.queue = append(l.queue, fn)
	}
	l.mu.Unlock()
	l.signal()
}

func (l *Loop) drain() {
	for {
		l.mu.Lock()
		if len(l.queue) == 0 {
			l.mu.Unlock()
			return
		}
		fn := l.queue[0]
		l.queue[0] = nil
		l.queue = l.queue[1:]
		l.mu.Unlock()
		fn()
	}
}

func (l *Loop) wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-l.wake:
		return nil
	}
}

func (l *Loop) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}
