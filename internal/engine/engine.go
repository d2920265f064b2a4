package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Mithi83/Applied-Energistics-2/internal/crafting"
)

// DefaultTickRate is the number of ticks per second.
const DefaultTickRate = 20

// Engine is the single-writer tick loop around a crafting.Service.
//
// Thread-safety model:
//   - Enqueue, Do, Stop: safe from any goroutine
//   - Run, Step: exactly one goroutine at a time
type Engine struct {
	svc    *crafting.Service
	clock  *TickClock
	queue  *commandQueue
	logger *slog.Logger

	interval time.Duration
	maxTicks int64

	stopOnce sync.Once
	stopped  chan struct{}
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithTickRate sets the cadence in ticks per second. Values below 1 keep
// the default.
func WithTickRate(hz int) EngineOption {
	return func(e *Engine) {
		if hz > 0 {
			e.interval = time.Second / time.Duration(hz)
		}
	}
}

// WithMaxTicks makes Run return after n ticks. Zero runs until stopped.
func WithMaxTicks(n int64) EngineOption {
	return func(e *Engine) { e.maxTicks = n }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// New creates an engine for svc. clock must be the clock svc was built
// with.
func New(svc *crafting.Service, clock *TickClock, opts ...EngineOption) *Engine {
	e := &Engine{
		svc:      svc,
		clock:    clock,
		queue:    newCommandQueue(),
		interval: time.Second / DefaultTickRate,
		stopped:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// Clock returns the tick clock.
func (e *Engine) Clock() *TickClock { return e.clock }

// Enqueue schedules cmd for the start of the next tick. Returns false
// after Stop.
func (e *Engine) Enqueue(cmd Command) bool {
	return e.queue.Enqueue(cmd)
}

// QueueLen returns the number of pending commands.
func (e *Engine) QueueLen() int { return e.queue.Len() }

// Do runs fn on the tick goroutine and waits for its result. A panic in
// fn, such as a contract violation, comes back as a COMMAND_PANIC error.
func (e *Engine) Do(ctx context.Context, fn func(*crafting.Service) error) error {
	result := make(chan error, 1)
	ok := e.Enqueue(func(svc *crafting.Service) {
		defer func() {
			if r := recover(); r != nil {
				result <- newCommandPanic(e.clock.Current(), r)
			}
		}()
		result <- fn(svc)
	})
	if !ok {
		return ErrStopped
	}

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-e.stopped:
		// The command may have run just before the loop exited.
		select {
		case err := <-result:
			return err
		default:
			return ErrStopped
		}
	}
}

// Run ticks the service at the configured cadence until ctx is done, Stop
// is called or the tick limit is reached.
//
// ERROR HANDLING: a panicking command is logged and skipped; the tick
// still runs. Replays stay deterministic because nothing is retried.
func (e *Engine) Run(ctx context.Context) error {
	defer e.Stop()

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	e.logger.Info("engine starting", "interval", e.interval.String(), "max_ticks", e.maxTicks)
	for {
		select {
		case <-ctx.Done():
			e.logger.Info("engine stopping: context cancelled", "tick", e.clock.Current())
			return ctx.Err()
		case <-e.stopped:
			e.logger.Info("engine stopping: stopped", "tick", e.clock.Current())
			return nil
		case <-ticker.C:
			tick := e.Step()
			if e.maxTicks > 0 && tick >= e.maxTicks {
				e.logger.Info("engine stopping: tick limit reached", "tick", tick)
				return nil
			}
		}
	}
}

// Step applies every pending command, advances the clock and ticks the
// service once. It returns the new tick.
func (e *Engine) Step() int64 {
	e.drain()
	tick := e.clock.Next()
	e.svc.Tick()
	return tick
}

func (e *Engine) drain() {
	for {
		cmd, ok := e.queue.TryDequeue()
		if !ok {
			return
		}
		e.apply(cmd)
	}
}

func (e *Engine) apply(cmd Command) {
	defer func() {
		if r := recover(); r != nil {
			err := newCommandPanic(e.clock.Current(), r)
			e.logger.Error("command failed", "tick", err.Tick, "error", err.Error())
		}
	}()
	cmd(e.svc)
}

// Stop closes the command queue and makes Run return. Pending commands
// are dropped.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() {
		e.queue.Close()
		close(e.stopped)
	})
}
