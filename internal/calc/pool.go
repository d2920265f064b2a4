package calc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Mithi83/Applied-Energistics-2/internal/ir"
)

// ErrPoolClosed is returned by futures submitted after Close.
var ErrPoolClosed = errors.New("calculation pool closed")

// Observer is told about every finished calculation.
type Observer func(d time.Duration, err error)

// Pool runs calculations, one goroutine each.
//
// There is no queue bound and no worker limit. Goroutines do not keep the
// process alive; Wait exists for orderly shutdown and tests.
type Pool struct {
	wg       sync.WaitGroup
	closed   atomic.Bool
	inflight atomic.Int64
	timeout  time.Duration
	logger   *slog.Logger
	observe  Observer
}

// PoolOption configures a Pool.
type PoolOption func(*Pool)

// WithTimeout bounds every calculation. Zero means no bound.
func WithTimeout(d time.Duration) PoolOption {
	return func(p *Pool) { p.timeout = d }
}

// WithPoolLogger sets the pool's logger.
func WithPoolLogger(l *slog.Logger) PoolOption {
	return func(p *Pool) { p.logger = l }
}

// WithObserver registers a completion callback. It runs on the
// calculation goroutine.
func WithObserver(fn Observer) PoolOption {
	return func(p *Pool) { p.observe = fn }
}

// NewPool creates a pool.
func NewPool(opts ...PoolOption) *Pool {
	p := &Pool{}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// Submit starts calc on its own goroutine. The goroutine's context derives
// from ctx, so canceling ctx cancels the calculation.
func (p *Pool) Submit(ctx context.Context, c Calculator, snap *Snapshot, req Request) *Future {
	if p.closed.Load() {
		f := newFuture(nil)
		f.complete(nil, ErrPoolClosed)
		return f
	}

	var cctx context.Context
	var cancel context.CancelFunc
	if p.timeout > 0 {
		cctx, cancel = context.WithTimeout(ctx, p.timeout)
	} else {
		cctx, cancel = context.WithCancel(ctx)
	}
	f := newFuture(cancel)

	p.wg.Add(1)
	p.inflight.Add(1)
	go func() {
		defer p.wg.Done()
		defer p.inflight.Add(-1)
		defer cancel()

		start := time.Now()
		plan, err := p.run(cctx, c, snap, req)
		if err == nil && plan == nil {
			err = Errorf(ErrCodeMissingPattern, req.What, "calculator returned no plan")
		}
		if err != nil {
			plan = nil
		}
		if p.observe != nil {
			p.observe(time.Since(start), err)
		}
		p.logger.Debug("calculation finished",
			"request", req.String(),
			"duration", time.Since(start),
			"error", err)
		f.complete(plan, err)
	}()
	return f
}

func (p *Pool) run(ctx context.Context, c Calculator, snap *Snapshot, req Request) (plan *ir.Plan, err error) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("calculation panicked",
				"request", req.String(),
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()))
			plan, err = nil, Errorf(ErrCodePanic, req.What, "%v", r)
		}
	}()
	if err := ctx.Err(); err != nil {
		return nil, Errorf(ErrCodeCancelled, req.What, "%v", err)
	}
	plan, err = c.Calculate(ctx, snap, req)
	if err != nil && CodeOf(err) == "" && ctx.Err() != nil {
		err = Errorf(ErrCodeCancelled, req.What, "%v", ctx.Err())
	}
	return plan, err
}

// InFlight returns the number of running calculations.
func (p *Pool) InFlight() int64 { return p.inflight.Load() }

// Close rejects further submissions. Running calculations continue.
func (p *Pool) Close() { p.closed.Store(true) }

// Wait blocks until every running calculation has finished or ctx ends.
func (p *Pool) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
