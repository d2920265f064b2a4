package planner

import (
	"context"
	"fmt"
	"slices"

	"github.com/Mithi83/Applied-Energistics-2/internal/calc"
	"github.com/Mithi83/Applied-Energistics-2/internal/ir"
)

// DefaultMaxDepth bounds recipe nesting.
const DefaultMaxDepth = 64

// Byte costs. A plan's byte requirement is what the CPU must reserve to
// hold its working set.
const (
	bytesPerStep = 64
	bytesPerUnit = 1
)

// Planner implements calc.Calculator.
type Planner struct {
	maxDepth int
}

// Option configures a Planner.
type Option func(*Planner)

// WithMaxDepth overrides DefaultMaxDepth.
func WithMaxDepth(n int) Option {
	return func(p *Planner) { p.maxDepth = n }
}

// New creates a planner.
func New(opts ...Option) *Planner {
	p := &Planner{maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

var _ calc.Calculator = (*Planner)(nil)

// expansion is the mutable state of one Calculate call.
type expansion struct {
	ctx      context.Context
	snap     *calc.Snapshot
	guard    *cycleGuard
	maxDepth int

	stock   map[ir.Key]int64
	order   []ir.PatternID
	steps   map[ir.PatternID]*ir.PlanStep
	used    map[ir.Key]int64
	emitted map[ir.Key]int64
	missing map[ir.Key]int64
}

// Calculate implements calc.Calculator.
func (p *Planner) Calculate(ctx context.Context, snap *calc.Snapshot, req calc.Request) (*ir.Plan, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("plan: %w", err)
	}
	if len(snap.PatternsFor(req.What)) == 0 && !snap.CanEmit(req.What) {
		return nil, calc.Errorf(calc.ErrCodeMissingPattern, req.What, "no pattern produces %s", req.What)
	}

	x := &expansion{
		ctx:      ctx,
		snap:     snap,
		guard:    newCycleGuard(),
		maxDepth: p.maxDepth,
		stock:    snap.Stock(),
		steps:    make(map[ir.PatternID]*ir.PlanStep),
		used:     make(map[ir.Key]int64),
		emitted:  make(map[ir.Key]int64),
		missing:  make(map[ir.Key]int64),
	}
	// The requested key is always crafted, never taken from stock.
	if err := x.craft(req.What, req.Amount); err != nil {
		return nil, err
	}

	plan := &ir.Plan{
		Request: ir.Stack{What: req.What, Amount: req.Amount},
		Used:    stacks(x.used),
		Emitted: stacks(x.emitted),
		Missing: stacks(x.missing),
	}
	for _, id := range x.order {
		plan.Steps = append(plan.Steps, *x.steps[id])
	}
	plan.Bytes = byteCost(plan)

	if len(plan.Missing) > 0 {
		if req.Strategy == ir.CraftLess {
			return nil, &calc.Error{
				Code:    calc.ErrCodeMissingIngredients,
				Key:     req.What,
				Message: "ingredients missing",
				Missing: plan.Missing,
			}
		}
		plan.Simulation = true
	}
	return plan, nil
}

// need satisfies amount of k from stock, emission or crafting, in that
// order. Whatever cannot be satisfied is recorded as missing.
func (x *expansion) need(k ir.Key, amount int64) error {
	if have := x.stock[k]; have > 0 {
		take := min(have, amount)
		x.stock[k] -= take
		x.used[k] += take
		amount -= take
	}
	if amount == 0 {
		return nil
	}
	if x.snap.CanEmit(k) {
		x.emitted[k] += amount
		return nil
	}
	if len(x.snap.PatternsFor(k)) == 0 {
		x.missing[k] += amount
		return nil
	}
	return x.craft(k, amount)
}

// craft expands the best pattern for k enough times to make amount.
func (x *expansion) craft(k ir.Key, amount int64) error {
	if err := x.ctx.Err(); err != nil {
		return calc.Errorf(calc.ErrCodeCancelled, k, "%v", err)
	}
	if x.snap.CanEmit(k) && len(x.snap.PatternsFor(k)) == 0 {
		x.emitted[k] += amount
		return nil
	}
	if x.guard.wouldCycle(k) {
		return calc.Errorf(calc.ErrCodeRecipeCycle, k, "recipe cycle: %s", x.guard.trail(k))
	}
	if x.guard.depth() >= x.maxDepth {
		return calc.Errorf(calc.ErrCodeRecipeCycle, k, "recipe nesting deeper than %d", x.maxDepth)
	}
	x.guard.enter(k)
	defer x.guard.leave(k)

	p := x.snap.PatternsFor(k)[0]
	out := p.PrimaryOutput()
	times := (amount + out.Amount - 1) / out.Amount

	for _, in := range p.Inputs() {
		if err := x.need(in.What, in.Amount*times); err != nil {
			return err
		}
	}

	if surplus := out.Amount*times - amount; surplus > 0 {
		x.stock[k] += surplus
	}
	for _, bp := range p.Byproducts() {
		x.stock[bp.What] += bp.Amount * times
	}

	if st, ok := x.steps[p.ID()]; ok {
		st.Times += times
	} else {
		x.steps[p.ID()] = &ir.PlanStep{Pattern: p, Times: times}
		x.order = append(x.order, p.ID())
	}
	return nil
}

func byteCost(p *ir.Plan) int64 {
	var b int64
	for _, st := range p.Steps {
		b += bytesPerStep
		b += st.Pattern.PrimaryOutput().Amount * st.Times * bytesPerUnit
	}
	for _, u := range p.Used {
		b += u.Amount * bytesPerUnit
	}
	for _, e := range p.Emitted {
		b += e.Amount * bytesPerUnit
	}
	return b
}

func stacks(m map[ir.Key]int64) []ir.Stack {
	if len(m) == 0 {
		return nil
	}
	keys := make([]ir.Key, 0, len(m))
	for k, v := range m {
		if v > 0 {
			keys = append(keys, k)
		}
	}
	ir.SortKeys(keys)
	out := make([]ir.Stack, 0, len(keys))
	for _, k := range keys {
		out = append(out, ir.Stack{What: k, Amount: m[k]})
	}
	return slices.Clip(out)
}
