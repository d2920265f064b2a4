package planner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mithi83/Applied-Energistics-2/internal/calc"
	"github.com/Mithi83/Applied-Energistics-2/internal/ir"
)

var (
	gear   = ir.Item("iron_gear")
	ingot  = ir.Item("iron_ingot")
	block  = ir.Item("iron_block")
	stick  = ir.Item("stick")
	planks = ir.Item("planks")
	lava   = ir.Fluid("lava")
)

type fakeSource struct {
	patterns map[ir.Key][]*ir.Pattern
	emit     ir.KeySet
}

func (s *fakeSource) LastModified() int64 { return 1 }
func (s *fakeSource) Craftables(ir.Filter) ir.KeySet {
	out := make(ir.KeySet)
	for k := range s.patterns {
		out.Add(k)
	}
	for k := range s.emit {
		out.Add(k)
	}
	return out
}
func (s *fakeSource) CraftingFor(k ir.Key) []*ir.Pattern { return s.patterns[k] }
func (s *fakeSource) CanEmitFor(k ir.Key) bool           { return s.emit.Has(k) }

func pattern(name string, out ir.Key, n int64, inputs ...ir.Stack) *ir.Pattern {
	return ir.MustPattern(name, ir.Stack{What: out, Amount: n}, inputs)
}

func snapshot(stock map[ir.Key]int64, ps ...*ir.Pattern) *calc.Snapshot {
	src := &fakeSource{patterns: make(map[ir.Key][]*ir.Pattern), emit: ir.KeySet{lava: {}}}
	for _, p := range ps {
		k := p.PrimaryOutput().What
		src.patterns[k] = append(src.patterns[k], p)
	}
	return calc.NewSnapshot(calc.CaptureTopology(src), stock)
}

func TestCalculate_UsesStockThenCrafts(t *testing.T) {
	gearP := pattern("gear", gear, 1, ir.Stack{What: ingot, Amount: 4})
	ingotP := pattern("ingot", ingot, 9, ir.Stack{What: block, Amount: 1})
	snap := snapshot(map[ir.Key]int64{ingot: 5, block: 10}, gearP, ingotP)

	plan, err := New().Calculate(context.Background(), snap, calc.Request{What: gear, Amount: 2})
	require.NoError(t, err)

	assert.False(t, plan.Simulation)
	require.Len(t, plan.Steps, 2)
	assert.Equal(t, "ingot", plan.Steps[0].Pattern.Name(), "leaves first")
	assert.Equal(t, int64(1), plan.Steps[0].Times)
	assert.Equal(t, "gear", plan.Steps[1].Pattern.Name())
	assert.Equal(t, int64(2), plan.Steps[1].Times)
	assert.Equal(t, []ir.Stack{{What: block, Amount: 1}, {What: ingot, Amount: 5}}, plan.Used)
	assert.Empty(t, plan.Missing)
	assert.Positive(t, plan.Bytes)
}

func TestCalculate_RequestedKeyIsCraftedNotTaken(t *testing.T) {
	gearP := pattern("gear", gear, 1, ir.Stack{What: ingot, Amount: 4})
	snap := snapshot(map[ir.Key]int64{gear: 100, ingot: 100}, gearP)

	plan, err := New().Calculate(context.Background(), snap, calc.Request{What: gear, Amount: 1})
	require.NoError(t, err)
	require.Len(t, plan.Steps, 1)
	assert.Equal(t, []ir.Stack{{What: ingot, Amount: 4}}, plan.Used)
}

func TestCalculate_SurplusIsReused(t *testing.T) {
	stickP := pattern("sticks", stick, 4, ir.Stack{What: planks, Amount: 2})
	toolP := pattern("tool", gear, 1, ir.Stack{What: stick, Amount: 1})
	snap := snapshot(map[ir.Key]int64{planks: 10}, stickP, toolP)

	plan, err := New().Calculate(context.Background(), snap, calc.Request{What: gear, Amount: 3})
	require.NoError(t, err)
	assert.Equal(t, int64(1), plan.Steps[0].Times, "one batch of four sticks covers three tools")
}

func TestCalculate_EmittableNotCrafted(t *testing.T) {
	p := pattern("obsidian", block, 1, ir.Stack{What: lava, Amount: 1000})
	plan, err := New().Calculate(context.Background(), snapshot(nil, p), calc.Request{What: block, Amount: 2})
	require.NoError(t, err)
	assert.Equal(t, []ir.Stack{{What: lava, Amount: 2000}}, plan.Emitted)
	assert.False(t, plan.Simulation)
}

func TestCalculate_MissingStrategies(t *testing.T) {
	gearP := pattern("gear", gear, 1, ir.Stack{What: ingot, Amount: 4})
	snap := snapshot(map[ir.Key]int64{ingot: 1}, gearP)

	plan, err := New().Calculate(context.Background(), snap, calc.Request{What: gear, Amount: 1, Strategy: ir.ReportMissingItems})
	require.NoError(t, err)
	assert.True(t, plan.Simulation)
	assert.Equal(t, []ir.Stack{{What: ingot, Amount: 3}}, plan.Missing)

	_, err = New().Calculate(context.Background(), snap, calc.Request{What: gear, Amount: 1, Strategy: ir.CraftLess})
	require.Error(t, err)
	assert.Equal(t, calc.ErrCodeMissingIngredients, calc.CodeOf(err))
	var ce *calc.Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, []ir.Stack{{What: ingot, Amount: 3}}, ce.Missing)
}

func TestCalculate_MissingPattern(t *testing.T) {
	_, err := New().Calculate(context.Background(), snapshot(nil), calc.Request{What: gear, Amount: 1})
	assert.True(t, calc.IsMissingPattern(err))
}

func TestCalculate_RecipeCycle(t *testing.T) {
	blockP := pattern("block", block, 1, ir.Stack{What: ingot, Amount: 9})
	ingotP := pattern("uncraft", ingot, 9, ir.Stack{What: block, Amount: 1})

	_, err := New().Calculate(context.Background(), snapshot(nil, blockP, ingotP), calc.Request{What: block, Amount: 1})
	require.Error(t, err)
	assert.True(t, calc.IsRecipeCycle(err))
	assert.Contains(t, err.Error(), "item:iron_block -> item:iron_ingot -> item:iron_block")
}

func TestCalculate_Cancelled(t *testing.T) {
	gearP := pattern("gear", gear, 1, ir.Stack{What: ingot, Amount: 4})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Calculate(ctx, snapshot(nil, gearP), calc.Request{What: gear, Amount: 1})
	assert.True(t, calc.IsCancelled(err))
}

func TestCalculate_MaxDepth(t *testing.T) {
	a := pattern("a", ir.Item("a"), 1, ir.Stack{What: ir.Item("b"), Amount: 1})
	b := pattern("b", ir.Item("b"), 1, ir.Stack{What: ir.Item("c"), Amount: 1})
	c := pattern("c", ir.Item("c"), 1, ir.Stack{What: ir.Item("d"), Amount: 1})

	_, err := New(WithMaxDepth(2)).Calculate(context.Background(), snapshot(nil, a, b, c), calc.Request{What: ir.Item("a"), Amount: 1})
	assert.True(t, calc.IsRecipeCycle(err))
}

func TestCalculate_Deterministic(t *testing.T) {
	gearP := pattern("gear", gear, 1, ir.Stack{What: ingot, Amount: 4}, ir.Stack{What: stick, Amount: 1})
	snap := snapshot(map[ir.Key]int64{ingot: 8, stick: 2}, gearP)

	p1, err := New().Calculate(context.Background(), snap, calc.Request{What: gear, Amount: 2})
	require.NoError(t, err)
	p2, err := New().Calculate(context.Background(), snap, calc.Request{What: gear, Amount: 2})
	require.NoError(t, err)

	d1, _ := ir.PlanDigest(p1)
	d2, _ := ir.PlanDigest(p2)
	assert.Equal(t, d1, d2)
}
