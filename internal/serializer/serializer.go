// Package serializer runs event handlers one at a time.
//
// Handlers are queued in dispatch order and executed by a single worker, so
// no two handler bodies interleave. A handler failing with a retryable error
// is re-queued after a fixed delay, behind anything dispatched meanwhile.
// Every other failure is logged and dropped.
package serializer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgnsrekt/taborder/internal/host"
)

const DefaultRetryDelay = 100 * time.Millisecond

// Task is one handler invocation.
type Task func(ctx context.Context) error

// RetryPolicy decides which failures are retried and after how long.
type RetryPolicy struct {
	Delay     time.Duration
	Retryable func(error) bool
}

// DefaultRetryPolicy retries edits refused while the user drags a tab.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Delay: DefaultRetryDelay, Retryable: host.IsDragInProgress}
}

// Stats is a snapshot of serializer counters.
type Stats struct {
	Dispatched uint64 `json:"dispatched"`
	Completed  uint64 `json:"completed"`
	Retried    uint64 `json:"retried"`
	Failed     uint64 `json:"failed"`
	Pending    int    `json:"pending"`
}

type job struct {
	name    string
	fn      Task
	attempt int
}

type Serializer struct {
	policy RetryPolicy

	mu      sync.Mutex
	queue   []job
	pending int           // queued + running + awaiting retry
	idle    chan struct{} // closed while pending == 0
	timers  map[*time.Timer]struct{}
	stopped bool

	wake chan struct{}

	dispatched atomic.Uint64
	completed  atomic.Uint64
	retried    atomic.Uint64
	failed     atomic.Uint64
}

func New(policy RetryPolicy) *Serializer {
	if policy.Retryable == nil {
		policy.Retryable = func(error) bool { return false }
	}
	idle := make(chan struct{})
	close(idle)
	return &Serializer{
		policy: policy,
		idle:   idle,
		timers: make(map[*time.Timer]struct{}),
		wake:   make(chan struct{}, 1),
	}
}

// Dispatch queues fn. It never blocks.
func (s *Serializer) Dispatch(name string, fn Task) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		slog.Warn("serializer stopped, task dropped", "task", name)
		return
	}
	if s.pending == 0 {
		s.idle = make(chan struct{})
	}
	s.pending++
	s.queue = append(s.queue, job{name: name, fn: fn})
	s.mu.Unlock()

	s.dispatched.Add(1)
	s.signal()
}

func (s *Serializer) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Run executes queued tasks until ctx is cancelled.
func (s *Serializer) Run(ctx context.Context) error {
	defer s.stop()
	for {
		j, ok := s.next()
		if !ok {
			select {
			case <-ctx.Done():
				return nil
			case <-s.wake:
				continue
			}
		}
		if ctx.Err() != nil {
			s.done()
			return nil
		}
		s.runJob(ctx, j)
	}
}

func (s *Serializer) next() (job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return job{}, false
	}
	j := s.queue[0]
	s.queue[0] = job{}
	s.queue = s.queue[1:]
	return j, true
}

func (s *Serializer) runJob(ctx context.Context, j job) {
	err := execute(ctx, j)
	switch {
	case err == nil:
		s.completed.Add(1)
		s.done()
	case s.policy.Retryable(err):
		s.retried.Add(1)
		slog.Info("serializer task retry scheduled", "task", j.name, "attempt", j.attempt+1, "delay_ms", s.policy.Delay.Milliseconds(), "error", err)
		s.scheduleRetry(j)
	default:
		s.failed.Add(1)
		slog.Error("serializer task failed", "task", j.name, "error", err)
		s.done()
	}
}

func execute(ctx context.Context, j job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("serializer: task %s panicked: %v", j.name, r)
		}
	}()
	return j.fn(ctx)
}

func (s *Serializer) scheduleRetry(j job) {
	j.attempt++
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		s.finishLocked()
		return
	}
	var t *time.Timer
	t = time.AfterFunc(s.policy.Delay, func() {
		s.mu.Lock()
		delete(s.timers, t)
		if s.stopped {
			s.finishLocked()
			s.mu.Unlock()
			return
		}
		s.queue = append(s.queue, j)
		s.mu.Unlock()
		s.signal()
	})
	s.timers[t] = struct{}{}
}

func (s *Serializer) done() {
	s.mu.Lock()
	s.finishLocked()
	s.mu.Unlock()
}

func (s *Serializer) finishLocked() {
	s.pending--
	if s.pending == 0 {
		close(s.idle)
	}
}

// stop drops queued work and pending retries.
func (s *Serializer) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	for t := range s.timers {
		if t.Stop() {
			s.finishLocked()
		}
		delete(s.timers, t)
	}
	for range s.queue {
		s.finishLocked()
	}
	if n := len(s.queue); n > 0 {
		slog.Warn("serializer stopped with queued tasks", "dropped", n)
	}
	s.queue = nil
}

// Wait blocks until nothing is queued, running, or awaiting retry.
func (s *Serializer) Wait(ctx context.Context) error {
	s.mu.Lock()
	idle := s.idle
	s.mu.Unlock()
	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Serializer) Stats() Stats {
	s.mu.Lock()
	pending := s.pending
	s.mu.Unlock()
	return Stats{
		Dispatched: s.dispatched.Load(),
		Completed:  s.completed.Load(),
		Retried:    s.retried.Load(),
		Failed:     s.failed.Load(),
		Pending:    pending,
	}
}
