package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mithi83/Applied-Energistics-2/internal/calc"
	"github.com/Mithi83/Applied-Energistics-2/internal/cpu"
	"github.com/Mithi83/Applied-Energistics-2/internal/crafting"
	"github.com/Mithi83/Applied-Energistics-2/internal/grid"
	"github.com/Mithi83/Applied-Energistics-2/internal/ir"
	"github.com/Mithi83/Applied-Energistics-2/internal/planner"
	"github.com/Mithi83/Applied-Energistics-2/internal/testutil"
)

func TestJournal_Adapter(t *testing.T) {
	s := createTestStore(t)
	j := NewJournal(s, 0, nil)

	rec := createTestRecord(1, "")
	require.NoError(t, j.JobSubmitted(rec))
	require.NoError(t, j.JobFinished(rec.ID, crafting.JobCanceled, 7))

	got, err := s.ReadJob(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, crafting.JobCanceled, got.State)
	assert.Equal(t, int64(7), got.FinishedTick)
}

func TestJournal_ServiceLifecycle(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	gear := ir.Item("iron_gear")
	ingot := ir.Item("iron_ingot")
	stock := testutil.Stock{ingot: 64}
	clock := testutil.NewTickClock()
	svc := crafting.New(clock,
		crafting.WithCalculator(planner.New()),
		crafting.WithStock(stock),
		crafting.WithJobIDs(testutil.NewSequentialJobIDs()),
		crafting.WithJournal(NewJournal(s, 0, nil)),
	)
	svc.AddGlobalProvider(&testutil.Provider{Patterns: []*ir.Pattern{
		ir.MustPattern("gear", ir.Stack{What: gear, Amount: 1}, []ir.Stack{{What: ingot, Amount: 4}}),
	}})
	c := cpu.NewSimCluster(cpu.SimConfig{Name: "cpu-a", Storage: 1024, CoProcessors: 1, Inventory: stock})
	svc.AddNode(grid.NewNode("cpu-a").With(grid.CapCPU, c))
	req := &testutil.Requester{}
	svc.AddNode(grid.NewNode("interface").With(grid.CapRequester, req))
	clock.Next()
	svc.Tick()

	plan, err := svc.BeginCalculation(ctx, &calc.Request{What: gear, Amount: 2}).Wait(ctx)
	require.NoError(t, err)
	res := svc.SubmitJob(plan, crafting.SubmitRequest{Requester: req, Name: "interface", Source: grid.Machine("interface")})
	require.True(t, res.Successful(), res.String())

	open, err := s.OpenJobs(ctx)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, testutil.JobID(1), open[0].ID)
	assert.Equal(t, "interface", open[0].Requester)
	assert.NotEmpty(t, open[0].PlanDigest)

	// Two runs per tick: the job finishes on tick 2, is pruned on tick 3.
	for range 2 {
		clock.Next()
		svc.Tick()
	}

	open, err = s.OpenJobs(ctx)
	require.NoError(t, err)
	assert.Empty(t, open)

	job, err := s.ReadJob(ctx, testutil.JobID(1))
	require.NoError(t, err)
	assert.Equal(t, crafting.JobDone, job.State)
	assert.Equal(t, int64(3), job.FinishedTick)
}
