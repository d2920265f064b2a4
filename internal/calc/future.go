package calc

import (
	"context"

	"github.com/Mithi83/Applied-Energistics-2/internal/ir"
)

// Future is the pending result of a calculation.
type Future struct {
	done   chan struct{}
	cancel context.CancelFunc
	plan   *ir.Plan
	err    error
}

func newFuture(cancel context.CancelFunc) *Future {
	return &Future{done: make(chan struct{}), cancel: cancel}
}

func (f *Future) complete(plan *ir.Plan, err error) {
	f.plan, f.err = plan, err
	close(f.done)
}

// Done is closed once the result is available.
func (f *Future) Done() <-chan struct{} { return f.done }

// Poll returns the result without blocking. ok is false while the
// calculation is still running.
func (f *Future) Poll() (plan *ir.Plan, ok bool, err error) {
	select {
	case <-f.done:
		return f.plan, true, f.err
	default:
		return nil, false, nil
	}
}

// Wait blocks until the result is ready or ctx ends. Ending ctx does not
// cancel the calculation; use Cancel for that.
func (f *Future) Wait(ctx context.Context) (*ir.Plan, error) {
	select {
	case <-f.done:
		return f.plan, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Cancel asks the calculation to stop. The future still completes, with a
// CANCELLED error unless the plan was already found.
func (f *Future) Cancel() {
	if f.cancel != nil {
		f.cancel()
	}
}
