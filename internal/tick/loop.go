// Package tick drives batch stat recomputation on a fixed cadence.
package tick

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/udisondev/statengine/internal/eventbus"
	"github.com/udisondev/statengine/internal/stat"
)

var (
	ErrQueueFull = errors.New("tick queue full")
	ErrStopped   = errors.New("tick loop stopped")
)

// Mutation is applied to the registry on the loop goroutine.
type Mutation func(r *stat.Registry)

// Report summarizes one tick.
type Report struct {
	Applied    int // mutations drained from the queue
	Recomputed int // dirty stats recomputed
	Dispatched int // deferred change events flushed
	Took       time.Duration
}

// Loop owns a stat.Registry and is the only goroutine touching it while
// running. Other goroutines reach the registry through Submit and Do.
//
// Every tick: drain queued mutations, run systems with the elapsed time,
// recompute dirty stats, flush the deferred event bus, then run AfterTick
// hooks.
type Loop struct {
	reg      *stat.Registry
	interval time.Duration
	queue    chan Mutation
	bus      *eventbus.Bus[stat.Change]
	systems  []System
	hooks    []func(Report)
	last     time.Time

	stopCh   chan struct{}
	stopOnce sync.Once
	ticks    atomic.Uint64
}

// System advances time-based state (effect timers and the like) by the
// wall time elapsed since the previous tick.
type System func(elapsed time.Duration)

// Option configures a Loop.
type Option func(*Loop)

// WithBus forwards every registry change into bus and flushes it once per tick.
func WithBus(bus *eventbus.Bus[stat.Change]) Option {
	return func(l *Loop) { l.bus = bus }
}

// NewLoop creates a loop over reg. queueSize bounds pending mutations.
func NewLoop(reg *stat.Registry, interval time.Duration, queueSize int, opts ...Option) *Loop {
	l := &Loop{
		reg:      reg,
		interval: interval,
		queue:    make(chan Mutation, queueSize),
		stopCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	if l.bus != nil {
		reg.Subscribe(l.bus.Publish)
	}
	return l
}

// AddSystem registers fn to run on the loop goroutine every tick, after
// queued mutations. Must be called before Start.
func (l *Loop) AddSystem(fn System) {
	if fn != nil {
		l.systems = append(l.systems, fn)
	}
}

// AfterTick registers fn to run on the loop goroutine after every tick.
// Must be called before Start.
func (l *Loop) AfterTick(fn func(Report)) {
	if fn != nil {
		l.hooks = append(l.hooks, fn)
	}
}

// Submit queues m for the next tick without blocking.
func (l *Loop) Submit(m Mutation) error {
	if m == nil {
		return nil
	}
	select {
	case <-l.stopCh:
		return ErrStopped
	default:
	}
	select {
	case l.queue <- m:
		return nil
	default:
		return ErrQueueFull
	}
}

// Do runs fn on the loop goroutine at the next tick and waits for it.
// Mutations made by fn are recomputed in the same tick, after fn returns.
// Do must not be called from a Mutation or System: the loop goroutine would
// wait on itself until ctx is done or the loop stops.
func (l *Loop) Do(ctx context.Context, fn Mutation) error {
	done := make(chan struct{})
	wrapped := func(r *stat.Registry) {
		defer close(done)
		fn(r)
	}
	select {
	case l.queue <- wrapped:
	case <-ctx.Done():
		return ctx.Err()
	case <-l.stopCh:
		return ErrStopped
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.stopCh:
		return ErrStopped
	}
}

// Ticks returns the number of completed ticks.
func (l *Loop) Ticks() uint64 { return l.ticks.Load() }

// Start runs the tick loop (blocks until context is canceled or Stop).
func (l *Loop) Start(ctx context.Context) error {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	slog.Info("stat tick loop started", "interval", l.interval)

	for {
		select {
		case <-ctx.Done():
			slog.Info("stat tick loop stopping")
			return ctx.Err()

		case <-l.stopCh:
			slog.Info("stat tick loop stopped")
			return nil

		case <-ticker.C:
			l.Tick()
		}
	}
}

// Stop stops the loop. Safe to call more than once.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() { close(l.stopCh) })
}

// Tick performs one tick synchronously. Start calls it on every ticker
// fire; tests call it directly.
func (l *Loop) Tick() Report {
	start := time.Now()
	var rep Report

drain:
	for {
		select {
		case m := <-l.queue:
			m(l.reg)
			rep.Applied++
		default:
			break drain
		}
	}

	elapsed := l.interval
	if !l.last.IsZero() {
		elapsed = start.Sub(l.last)
	}
	l.last = start
	for _, sys := range l.systems {
		sys(elapsed)
	}

	rep.Recomputed = l.reg.RecomputeDirty()
	if l.bus != nil {
		rep.Dispatched = l.bus.Flush()
	}
	rep.Took = time.Since(start)
	l.ticks.Add(1)

	for _, hook := range l.hooks {
		hook(rep)
	}

	if rep.Recomputed > 0 {
		slog.Debug("stat tick completed",
			"applied", rep.Applied,
			"recomputed", rep.Recomputed,
			"dispatched", rep.Dispatched,
			"took", rep.Took)
	}
	return rep
}
