package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/Mithi83/Applied-Energistics-2/internal/calc"
	"github.com/Mithi83/Applied-Energistics-2/internal/compiler"
	"github.com/Mithi83/Applied-Energistics-2/internal/crafting"
	"github.com/Mithi83/Applied-Energistics-2/internal/grid"
	"github.com/Mithi83/Applied-Energistics-2/internal/ir"
	"github.com/Mithi83/Applied-Energistics-2/internal/nodes"
	"github.com/Mithi83/Applied-Energistics-2/internal/planner"
	"github.com/Mithi83/Applied-Energistics-2/internal/store"
	"github.com/Mithi83/Applied-Energistics-2/internal/testutil"
)

// harnessSource is the action source of requests made without a requester.
var harnessSource = grid.Player("harness")

// Harness is the state of one scenario execution.
type Harness struct {
	store  *store.Store
	clock  *testutil.TickClock
	svc    *crafting.Service
	grid   *nodes.Grid
	result *Result
}

// Run loads the scenario's network directory and executes the scenario.
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	net, err := compiler.LoadDir(scenario.Network)
	if err != nil {
		return nil, fmt.Errorf("load network: %w", err)
	}
	return RunNetwork(ctx, scenario, net)
}

// RunNetwork executes scenario against net.
//
// Step expectations and assertions that do not hold are reported in the
// result; the returned error is for failures of the harness itself.
func RunNetwork(ctx context.Context, scenario *Scenario, net *compiler.Network) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	defer st.Close()

	// Quiet logger; the trace is the output.
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	h := &Harness{
		store:  st,
		clock:  testutil.NewTickClock(),
		result: NewResult(),
	}
	h.grid = nodes.Build(net, nodes.WithLogger(logger))
	h.svc = crafting.New(h.clock,
		crafting.WithConfig(scenario.Config.Apply(crafting.DefaultConfig())),
		crafting.WithLogger(logger),
		crafting.WithCalculator(planner.New()),
		crafting.WithStock(h.grid.Inventory),
		crafting.WithJobIDs(testutil.NewSequentialJobIDs()),
		crafting.WithEvents(&traceSink{result: h.result}),
		crafting.WithJournal(store.NewJournal(st, 0, logger)),
	)
	h.grid.Attach(h.svc)

	for i, step := range scenario.Steps {
		if err := h.step(ctx, i, step); err != nil {
			return nil, fmt.Errorf("steps[%d]: %w", i, err)
		}
	}
	if err := h.collect(ctx); err != nil {
		return nil, err
	}

	for i, a := range scenario.Assertions {
		if err := evaluateAssertion(h.result, a); err != nil {
			h.result.AddError(fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return h.result, nil
}

func (h *Harness) step(ctx context.Context, index int, st Step) error {
	switch {
	case st.Tick > 0:
		for range st.Tick {
			h.clock.Next()
			h.svc.Tick()
		}
	case st.Request != nil:
		return h.request(ctx, index, st.Request, st.Expect)
	case st.SetBusy != nil:
		p, ok := h.grid.Providers[st.SetBusy.Provider]
		if !ok {
			return fmt.Errorf("unknown provider %q", st.SetBusy.Provider)
		}
		p.SetBusy(st.SetBusy.Busy)
	case st.Detach != "":
		if _, ok := h.grid.Node(st.Detach); !ok {
			return fmt.Errorf("unknown node %q", st.Detach)
		}
		h.svc.RemoveNode(grid.NodeID(st.Detach))
	case st.Attach != "":
		n, ok := h.grid.Node(st.Attach)
		if !ok {
			return fmt.Errorf("unknown node %q", st.Attach)
		}
		h.svc.AddNode(n)
	case st.Cancel != "":
		c, ok := h.grid.CPUs[st.Cancel]
		if !ok {
			return fmt.Errorf("unknown cpu %q", st.Cancel)
		}
		c.Cancel()
	}
	return nil
}

// request calculates and submits one request. The calculation runs on the
// service's pool and is awaited, so the step is synchronous.
func (h *Harness) request(ctx context.Context, index int, rs *RequestStep, expect *ExpectClause) error {
	key, err := ir.ParseKey(rs.Key)
	if err != nil {
		return err
	}
	req := &calc.Request{
		What:     key,
		Amount:   rs.Amount,
		Strategy: ir.Strategy(rs.Strategy),
		Source:   harnessSource,
	}

	var requester *nodes.Requester
	if rs.Requester != "" {
		if requester, err = h.grid.Requester(rs.Requester); err != nil {
			return err
		}
		req.Source = requester.Source()
	}

	plan, err := h.svc.BeginCalculation(ctx, req).Wait(ctx)
	if err != nil {
		code := calc.CodeOf(err)
		if code == "" {
			return fmt.Errorf("calculate %s: %w", req, err)
		}
		h.result.Trace = append(h.result.Trace, TraceEvent{
			Type: TraceCalculationFailed,
			Tick: h.clock.Current(),
			Key:  key.String(),
			Code: string(code),
		})
		h.expect(index, expect, string(code), "")
		return nil
	}

	sr := crafting.SubmitRequest{Source: req.Source, PrioritizePower: rs.PrioritizePower}
	if requester != nil {
		sr.Requester = requester
		sr.Name = requester.Name()
	}
	res := h.svc.SubmitJob(plan, sr)
	if requester != nil && res.Successful() {
		requester.Track(res.Link)
	}
	cpuName := ""
	if res.Cluster != nil {
		cpuName = res.Cluster.Name()
	}
	h.expect(index, expect, string(res.Code), cpuName)
	return nil
}

func (h *Harness) expect(index int, expect *ExpectClause, code, cpuName string) {
	if expect == nil {
		return
	}
	if expect.Code != code {
		h.result.AddError(fmt.Sprintf("steps[%d]: expected code %s, got %s", index, expect.Code, code))
		return
	}
	if expect.CPU != "" && expect.CPU != cpuName {
		h.result.AddError(fmt.Sprintf("steps[%d]: expected cpu %q, got %q", index, expect.CPU, cpuName))
	}
}

// collect records the final inventory and job journal.
func (h *Harness) collect(ctx context.Context) error {
	for _, s := range h.grid.Stock() {
		h.result.Stock[s.What.String()] = s.Amount
	}
	jobs, err := h.store.ListJobs(ctx)
	if err != nil {
		return fmt.Errorf("read journal: %w", err)
	}
	h.result.Jobs = jobs
	return nil
}
