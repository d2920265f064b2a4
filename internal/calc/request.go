package calc

import (
	"context"
	"fmt"

	"github.com/Mithi83/Applied-Energistics-2/internal/grid"
	"github.com/Mithi83/Applied-Energistics-2/internal/ir"
)

// Request asks for Amount of What.
type Request struct {
	What     ir.Key
	Amount   int64
	Strategy ir.Strategy
	Source   grid.ActionSource
}

// Validate checks the request is well formed.
func (r *Request) Validate() error {
	if r.What.IsZero() {
		return fmt.Errorf("request: key is required")
	}
	if r.Amount <= 0 {
		return fmt.Errorf("request %s: amount must be positive, got %d", r.What, r.Amount)
	}
	switch r.Strategy {
	case "", ir.ReportMissingItems, ir.CraftLess:
	default:
		return fmt.Errorf("request %s: unknown strategy %q", r.What, r.Strategy)
	}
	return nil
}

func (r *Request) String() string {
	return fmt.Sprintf("%dx%s", r.Amount, r.What)
}

// Calculator expands a request into a plan. Implementations are pure: they
// read only snap and must honor ctx cancellation.
type Calculator interface {
	Calculate(ctx context.Context, snap *Snapshot, req Request) (*ir.Plan, error)
}

// CalculatorFunc adapts a function to Calculator.
type CalculatorFunc func(ctx context.Context, snap *Snapshot, req Request) (*ir.Plan, error)

// Calculate implements Calculator.
func (f CalculatorFunc) Calculate(ctx context.Context, snap *Snapshot, req Request) (*ir.Plan, error) {
	return f(ctx, snap, req)
}
