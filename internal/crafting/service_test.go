package crafting

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mithi83/Applied-Energistics-2/internal/calc"
	"github.com/Mithi83/Applied-Energistics-2/internal/cpu"
	"github.com/Mithi83/Applied-Energistics-2/internal/grid"
	"github.com/Mithi83/Applied-Energistics-2/internal/interest"
	"github.com/Mithi83/Applied-Energistics-2/internal/ir"
	"github.com/Mithi83/Applied-Energistics-2/internal/link"
	"github.com/Mithi83/Applied-Energistics-2/internal/planner"
	"github.com/Mithi83/Applied-Energistics-2/internal/testutil"
)

var (
	gear  = ir.Item("iron_gear")
	ingot = ir.Item("iron_ingot")
	lava  = ir.Fluid("lava")
)

func gearPattern() *ir.Pattern {
	return ir.MustPattern("gear", ir.Stack{What: gear, Amount: 1}, []ir.Stack{{What: ingot, Amount: 4}})
}

type harness struct {
	t     *testing.T
	clock *testutil.TickClock
	svc   *Service
	stock testutil.Stock
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	h := &harness{
		t:     t,
		clock: testutil.NewTickClock(),
		stock: testutil.Stock{ingot: 100},
	}
	base := []Option{
		WithCalculator(planner.New()),
		WithStock(h.stock),
		WithJobIDs(testutil.NewSequentialJobIDs()),
	}
	h.svc = New(h.clock, append(base, opts...)...)
	return h
}

func (h *harness) tick(n int) {
	for i := 0; i < n; i++ {
		h.clock.Next()
		h.svc.Tick()
	}
}

func (h *harness) addCPU(name string, storage int64, coproc int, mode cpu.SelectionMode) *cpu.SimCluster {
	c := cpu.NewSimCluster(cpu.SimConfig{Name: name, Storage: storage, CoProcessors: coproc, Mode: mode, Inventory: h.stock})
	h.svc.AddNode(grid.NewNode(grid.NodeID(name)).With(grid.CapCPU, c))
	return c
}

func (h *harness) calculate(key ir.Key, amount int64) *ir.Plan {
	h.t.Helper()
	f := h.svc.BeginCalculation(context.Background(), &calc.Request{What: key, Amount: amount})
	plan, err := f.Wait(context.Background())
	require.NoError(h.t, err)
	return plan
}

func TestCraftableBroadcast_OnlyOnChange(t *testing.T) {
	h := newHarness(t)
	w := &testutil.Watcher{WatchAll: true}
	h.svc.AddNode(grid.NewNode("terminal").With(grid.CapWatcher, w))
	h.svc.AddNode(grid.NewNode("assembler").With(grid.CapProvider, &testutil.Provider{
		Patterns: []*ir.Pattern{gearPattern()},
		Emits:    []ir.Key{lava},
	}))

	h.tick(1)
	assert.Equal(t, []testutil.Notification{
		{Channel: interest.Craftable, Key: lava},
		{Channel: interest.Craftable, Key: gear},
	}, w.Notifications())

	w.Clear()
	h.tick(3)
	assert.Empty(t, w.Notifications(), "unchanged registry must not notify")

	h.svc.RemoveNode("assembler")
	h.tick(1)
	assert.Len(t, w.Notifications(), 2)
	assert.Empty(t, h.svc.CurrentlyCraftable())
}

func TestCraftableBroadcast_KeyedWatcher(t *testing.T) {
	h := newHarness(t)
	w := &testutil.Watcher{Keys: []ir.Key{lava}}
	h.svc.AddNode(grid.NewNode("level-emitter").With(grid.CapWatcher, w))
	h.svc.AddGlobalProvider(&testutil.Provider{Patterns: []*ir.Pattern{gearPattern()}, Emits: []ir.Key{lava}})

	h.tick(1)
	assert.Equal(t, []testutil.Notification{{Channel: interest.Craftable, Key: lava}}, w.Notifications())
}

func TestCraftableSet_TrackedWithoutWatchers(t *testing.T) {
	h := newHarness(t)
	h.svc.AddGlobalProvider(&testutil.Provider{Patterns: []*ir.Pattern{gearPattern()}})
	h.tick(1)
	assert.Equal(t, []ir.Key{gear}, h.svc.CurrentlyCraftable())
}

func TestCraftableThrottle(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CraftableRefreshTicks = 5
	h := newHarness(t, WithConfig(cfg))
	w := &testutil.Watcher{WatchAll: true}
	h.svc.AddNode(grid.NewNode("terminal").With(grid.CapWatcher, w))

	p := &testutil.Provider{Patterns: []*ir.Pattern{gearPattern()}}
	h.svc.AddGlobalProvider(p)
	h.tick(1)
	assert.Empty(t, w.Notifications(), "first refresh waits for the cadence")

	h.svc.RemoveGlobalProvider(p)
	h.svc.AddGlobalProvider(p)
	h.tick(4)
	assert.Equal(t, []testutil.Notification{{Channel: interest.Craftable, Key: gear}}, w.Notifications())
}

func TestCraftingThrottle_IndependentOfCraftable(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CraftingRefreshTicks = 3
	cfg.CraftableRefreshTicks = 1
	h := newHarness(t, WithConfig(cfg))
	w := &testutil.Watcher{WatchAll: true}
	h.svc.AddNode(grid.NewNode("terminal").With(grid.CapWatcher, w))
	c := &stubCluster{name: "cpu"}
	h.svc.AddNode(grid.NewNode("cpu").With(grid.CapCPU, c))

	h.tick(1)
	assert.Empty(t, w.Notifications())

	c.waiting = ir.KeySet{gear: {}}
	c.modified = 1
	emitter := &testutil.Provider{Emits: []ir.Key{lava}}
	h.svc.AddGlobalProvider(emitter)

	h.tick(1)
	assert.Equal(t, []testutil.Notification{{Channel: interest.Craftable, Key: lava}}, w.Notifications(),
		"craftable changes go out every tick")
	w.Clear()

	h.tick(1)
	assert.Equal(t, []testutil.Notification{{Channel: interest.Crafting, Key: gear}}, w.Notifications(),
		"crafting changes wait for the third tick")
	w.Clear()

	c.waiting = ir.KeySet{ingot: {}}
	c.modified = 3
	h.svc.RemoveGlobalProvider(emitter)

	h.tick(1)
	assert.Equal(t, []testutil.Notification{{Channel: interest.Craftable, Key: lava}}, w.Notifications())
	w.Clear()

	h.tick(1)
	assert.Empty(t, w.Notifications())

	h.tick(1)
	assert.ElementsMatch(t, []testutil.Notification{
		{Channel: interest.Crafting, Key: gear},
		{Channel: interest.Crafting, Key: ingot},
	}, w.Notifications())
	assert.Equal(t, []ir.Key{ingot}, h.svc.CurrentlyCrafting())
}

func TestSubmitJob_EndToEnd(t *testing.T) {
	journal := &memJournal{}
	h := newHarness(t, WithJournal(journal))
	provider := &testutil.Provider{Patterns: []*ir.Pattern{gearPattern()}}
	h.svc.AddNode(grid.NewNode("assembler").With(grid.CapProvider, provider))
	w := &testutil.Watcher{Keys: []ir.Key{gear}}
	h.svc.AddNode(grid.NewNode("terminal").With(grid.CapWatcher, w))
	c := h.addCPU("cpu-a", 1024, 0, cpu.ModeAny)
	req := &testutil.Requester{}
	h.svc.AddNode(grid.NewNode("interface").With(grid.CapRequester, req))
	h.tick(1)
	w.Clear()

	plan := h.calculate(gear, 2)
	res := h.svc.SubmitJob(plan, SubmitRequest{Requester: req, Source: grid.Machine("interface"), Name: "interface"})
	require.True(t, res.Successful(), res.String())
	assert.Same(t, c, res.Cluster)
	assert.Equal(t, link.SideRequester, res.Link.Side())
	assert.Equal(t, testutil.JobID(1), res.Link.ID())
	assert.Equal(t, int64(92), h.stock[ingot])

	nexus, ok := h.svc.Nexus(res.Link.ID())
	require.True(t, ok)
	assert.Same(t, res.Link, nexus.RequesterLink())
	assert.NotNil(t, nexus.CPULink())

	h.tick(1)
	assert.True(t, h.svc.IsRequesting(gear))
	assert.Equal(t, int64(1), h.svc.RequestedAmount(gear))
	assert.Equal(t, []testutil.Notification{{Channel: interest.Crafting, Key: gear}}, w.Notifications())

	h.tick(1)
	assert.False(t, h.svc.IsRequestingAny())
	assert.Equal(t, int64(2), req.Received(gear))
	assert.True(t, res.Link.Done())
	assert.Len(t, req.Changes(), 1)
	assert.Equal(t, 2, provider.Pushed)

	h.tick(1)
	_, ok = h.svc.Nexus(res.Link.ID())
	assert.False(t, ok, "finished job is pruned")
	assert.Equal(t, []string{"submitted:cpu-a", "finished:done"}, journal.log())
}

func TestSubmitJob_NoRequesterIsStandalone(t *testing.T) {
	journal := &memJournal{}
	h := newHarness(t, WithJournal(journal))
	h.svc.AddGlobalProvider(&testutil.Provider{Patterns: []*ir.Pattern{gearPattern()}})
	h.addCPU("cpu-a", 1024, 4, cpu.ModeAny)
	h.tick(1)

	res := h.svc.SubmitJob(h.calculate(gear, 1), SubmitRequest{Source: grid.Player("steve")})
	require.True(t, res.Successful())
	assert.True(t, res.Link.Standalone())
	assert.Zero(t, h.svc.Tracker().Len())

	h.tick(2)
	assert.Equal(t, []string{"submitted:cpu-a", "finished:done"}, journal.log())
}

func TestSubmitJob_IncompletePlan(t *testing.T) {
	h := newHarness(t)
	h.addCPU("cpu-a", 1024, 0, cpu.ModeAny)
	h.tick(1)
	res := h.svc.SubmitJob(&ir.Plan{Simulation: true}, SubmitRequest{})
	assert.Equal(t, cpu.SubmitIncompletePlan, res.Code)
}

func TestSubmitJob_NoCPUFound(t *testing.T) {
	h := newHarness(t)
	res := h.svc.SubmitJob(&ir.Plan{Bytes: 1}, SubmitRequest{})
	assert.Equal(t, cpu.SubmitNoCPUFound, res.Code)
	assert.Nil(t, res.Unsuitable)
}

func TestSubmitJob_UnsuitableCounts(t *testing.T) {
	h := newHarness(t)
	h.addCPU("off-1", 1024, 0, cpu.ModeAny).SetActive(false)
	h.addCPU("off-2", 1024, 0, cpu.ModeAny).SetActive(false)
	busy := h.addCPU("busy", 1024, 0, cpu.ModeAny)
	h.addCPU("tiny", 8, 0, cpu.ModeAny)
	h.tick(1)
	require.True(t, h.svc.SubmitJob(&ir.Plan{Bytes: 1}, SubmitRequest{Target: busy}).Successful())

	res := h.svc.SubmitJob(&ir.Plan{Bytes: 100}, SubmitRequest{Source: grid.Player("steve")})
	assert.Equal(t, cpu.SubmitNoSuitableCPU, res.Code)
	require.NotNil(t, res.Unsuitable)
	assert.Equal(t, cpu.UnsuitableCPUs{Offline: 2, Busy: 1, TooSmall: 1}, *res.Unsuitable)
}

func TestSubmitJob_PreferredCPU(t *testing.T) {
	h := newHarness(t)
	h.addCPU("big", 4096, 32, cpu.ModeAny)
	players := h.addCPU("players", 1024, 1, cpu.ModePlayerOnly)
	h.tick(1)

	res := h.svc.SubmitJob(&ir.Plan{Bytes: 1}, SubmitRequest{PrioritizePower: true, Source: grid.Player("steve")})
	require.True(t, res.Successful())
	assert.Same(t, players, res.Cluster)
}

func TestBeginCalculation_ContractViolations(t *testing.T) {
	h := newHarness(t)
	tests := []struct {
		name string
		fn   func()
	}{
		//nolint:staticcheck // nil context is the point of the test
		{"nil context", func() { h.svc.BeginCalculation(nil, &calc.Request{What: gear, Amount: 1}) }},
		{"nil request", func() { h.svc.BeginCalculation(context.Background(), nil) }},
		{"zero amount", func() { h.svc.BeginCalculation(context.Background(), &calc.Request{What: gear}) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				assert.True(t, ir.IsContractError(recover(), ir.ErrCodeInvalidRequest))
			}()
			tt.fn()
		})
	}
}

func TestBeginCalculation_MissingPatternIsAsync(t *testing.T) {
	h := newHarness(t)
	f := h.svc.BeginCalculation(context.Background(), &calc.Request{What: gear, Amount: 1})
	_, err := f.Wait(context.Background())
	assert.True(t, calc.IsMissingPattern(err))
}

func TestWatcherPanic_DoesNotStopOthers(t *testing.T) {
	h := newHarness(t)
	bad := &testutil.Watcher{WatchAll: true, Panic: true}
	good := &testutil.Watcher{WatchAll: true}
	h.svc.AddNode(grid.NewNode("a-bad").With(grid.CapWatcher, bad))
	h.svc.AddNode(grid.NewNode("b-good").With(grid.CapWatcher, good))
	h.svc.AddGlobalProvider(&testutil.Provider{Emits: []ir.Key{lava}})

	assert.NotPanics(t, func() { h.tick(1) })
	assert.Equal(t, []testutil.Notification{{Channel: interest.Craftable, Key: lava}}, good.Notifications())
}

func TestAddNode_Idempotent(t *testing.T) {
	h := newHarness(t)
	p := &testutil.Provider{Patterns: []*ir.Pattern{gearPattern()}}
	w := &testutil.Watcher{Keys: []ir.Key{gear}}
	node := grid.NewNode("assembler").With(grid.CapProvider, p).With(grid.CapWatcher, w)

	h.svc.AddNode(node)
	assert.NotPanics(t, func() { h.svc.AddNode(node) })
	assert.Len(t, h.svc.CraftingFor(gear), 1)
	assert.Equal(t, 1, h.svc.Interests().Len())
}

func TestAddNode_DuplicateProviderLeavesStateUnchanged(t *testing.T) {
	h := newHarness(t)
	p := &testutil.Provider{Patterns: []*ir.Pattern{gearPattern()}}
	h.svc.AddNode(grid.NewNode("assembler").With(grid.CapProvider, p))

	w := &testutil.Watcher{Keys: []ir.Key{gear}}
	c := cpu.NewSimCluster(cpu.SimConfig{Name: "b", Storage: 64, Inventory: h.stock})
	old := grid.NewNode("b").With(grid.CapWatcher, w).With(grid.CapCPU, c)
	h.svc.AddNode(old)
	h.tick(1)

	w2 := &testutil.Watcher{WatchAll: true}
	c2 := cpu.NewSimCluster(cpu.SimConfig{Name: "b2", Storage: 64, Inventory: h.stock})
	replacement := grid.NewNode("b").
		With(grid.CapProvider, p).
		With(grid.CapWatcher, w2).
		With(grid.CapCPU, c2)

	func() {
		defer func() {
			assert.True(t, ir.IsContractError(recover(), ir.ErrCodeDuplicateProvider))
		}()
		h.svc.AddNode(replacement)
	}()

	got, ok := h.svc.Node("b")
	require.True(t, ok)
	assert.Same(t, old, got)
	assert.Equal(t, 1, h.svc.Interests().Len())
	assert.Equal(t, []ir.Key{gear}, w.Watch().Keys())
	assert.Nil(t, w2.Watch())
	assert.Len(t, h.svc.CraftingFor(gear), 1)

	h.tick(1)
	assert.Equal(t, []cpu.Cluster{c}, h.svc.Clusters())

	h.svc.RemoveNode("assembler")
	assert.Empty(t, h.svc.CraftingFor(gear), "provider stays mounted on its original node")
}

func TestRequesterReattach_DedupesLinks(t *testing.T) {
	h := newHarness(t)
	h.svc.AddGlobalProvider(&testutil.Provider{Patterns: []*ir.Pattern{gearPattern()}})
	h.addCPU("cpu-a", 1024, 0, cpu.ModeAny)
	req := &testutil.Requester{}
	h.svc.AddNode(grid.NewNode("interface").With(grid.CapRequester, req))
	h.tick(1)

	res := h.svc.SubmitJob(h.calculate(gear, 20), SubmitRequest{Requester: req})
	require.True(t, res.Successful())
	id := res.Link.ID()
	nexus, _ := h.svc.Nexus(id)

	// The requester leaves and comes back as a new instance holding a
	// restored link with the same job id.
	h.svc.RemoveNode("interface")
	assert.Nil(t, nexus.RequesterLink())

	restored := &testutil.Requester{}
	restored.Links = []*link.Link{link.NewRequesterLink(id, restored)}
	h.svc.AddNode(grid.NewNode("interface").With(grid.CapRequester, restored))

	again, _ := h.svc.Nexus(id)
	assert.Same(t, nexus, again)
	assert.Same(t, restored.Links[0], nexus.RequesterLink())
	h.tick(5)
	assert.False(t, nexus.Canceled())
}

func TestRequesterGone_JobCanceledAfterGrace(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LinkGraceTicks = 3
	h := newHarness(t, WithConfig(cfg))
	h.svc.AddGlobalProvider(&testutil.Provider{Patterns: []*ir.Pattern{gearPattern()}})
	c := h.addCPU("cpu-a", 1024, 0, cpu.ModeAny)
	req := &testutil.Requester{}
	h.svc.AddNode(grid.NewNode("interface").With(grid.CapRequester, req))
	h.tick(1)

	res := h.svc.SubmitJob(h.calculate(gear, 20), SubmitRequest{Requester: req})
	require.True(t, res.Successful())
	h.svc.RemoveNode("interface")

	h.tick(3)
	assert.True(t, c.Busy())
	h.tick(2)
	assert.False(t, c.Busy(), "cpu drops the canceled job")
	assert.Zero(t, h.svc.Tracker().Len())
}

func TestCPULinksRecoveredOnRebuild(t *testing.T) {
	h := newHarness(t)
	h.svc.AddGlobalProvider(&testutil.Provider{Patterns: []*ir.Pattern{gearPattern()}})
	c := h.addCPU("cpu-a", 1024, 0, cpu.ModeAny)
	req := &testutil.Requester{}
	h.svc.AddNode(grid.NewNode("interface").With(grid.CapRequester, req))
	h.tick(1)
	res := h.svc.SubmitJob(h.calculate(gear, 20), SubmitRequest{Requester: req})
	require.True(t, res.Successful())

	h.svc.RemoveNode("cpu-a")
	h.tick(1)
	assert.False(t, h.svc.HasCPU(c))

	h.svc.AddNode(grid.NewNode("cpu-a").With(grid.CapCPU, c))
	h.tick(1)
	assert.True(t, h.svc.HasCPU(c))
	nexus, ok := h.svc.Nexus(res.Link.ID())
	require.True(t, ok)
	assert.Same(t, c.LastLink(), nexus.CPULink())
}

func TestInsertIntoCPUs(t *testing.T) {
	h := newHarness(t)
	h.svc.AddGlobalProvider(&testutil.Provider{Patterns: []*ir.Pattern{gearPattern()}, Refuse: true})
	h.addCPU("cpu-a", 1024, 0, cpu.ModeAny)
	h.addCPU("cpu-b", 1024, 0, cpu.ModeAny)
	h.tick(1)
	require.True(t, h.svc.SubmitJob(h.calculate(gear, 3), SubmitRequest{}).Successful())
	require.True(t, h.svc.SubmitJob(h.calculate(gear, 2), SubmitRequest{}).Successful())

	assert.Equal(t, int64(5), h.svc.InsertIntoCPUs(gear, 10, ir.Simulate))
	assert.Equal(t, int64(4), h.svc.InsertIntoCPUs(gear, 4, ir.Modulate))
	assert.Equal(t, int64(1), h.svc.RequestedAmount(gear))
}

func TestActiveCPUs(t *testing.T) {
	h := newHarness(t)
	h.addCPU("a", 1, 0, cpu.ModeAny)
	h.addCPU("b", 1, 0, cpu.ModeAny).SetActive(false)
	h.addCPU("c", 1, 0, cpu.ModeAny).Destroy()
	h.tick(1)

	active := h.svc.ActiveCPUs()
	require.Len(t, active, 1)
	assert.Equal(t, "a", active[0].Name())
	assert.Len(t, h.svc.Clusters(), 3)
}

type memJournal struct {
	mu      sync.Mutex
	entries []string
}

func (j *memJournal) JobSubmitted(rec JobRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, "submitted:"+rec.CPU)
	return nil
}

func (j *memJournal) JobFinished(_ ir.JobID, state JobState, _ int64) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, "finished:"+string(state))
	return nil
}

func (j *memJournal) log() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.entries...)
}

func TestRefreshProviders(t *testing.T) {
	h := newHarness(t)
	p := &testutil.Provider{}
	h.svc.AddNode(grid.NewNode("assembler").With(grid.CapProvider, p))
	assert.Empty(t, h.svc.CraftingFor(gear))

	// the registry keeps the mount-time snapshot until refreshed
	p.Patterns = []*ir.Pattern{gearPattern()}
	assert.Empty(t, h.svc.CraftingFor(gear))
	h.svc.RefreshNodeProvider("assembler")
	assert.Len(t, h.svc.CraftingFor(gear), 1)

	g := &testutil.Provider{Emits: []ir.Key{lava}}
	h.svc.AddGlobalProvider(g)
	assert.True(t, h.svc.CanEmitFor(lava))
	g.Emits = nil
	h.svc.RefreshGlobalProvider(g)
	assert.False(t, h.svc.CanEmitFor(lava))
	h.svc.RemoveGlobalProvider(g)

	assert.Panics(t, func() { h.svc.RefreshNodeProvider("missing") })
}

// stubCluster is a cluster whose waiting set and modification stamp are
// set directly by the test.
type stubCluster struct {
	name     string
	waiting  ir.KeySet
	modified int64
}

func (c *stubCluster) Name() string                              { return c.name }
func (c *stubCluster) Active() bool                              { return true }
func (c *stubCluster) Busy() bool                                { return len(c.waiting) > 0 }
func (c *stubCluster) Destroyed() bool                           { return false }
func (c *stubCluster) AvailableStorage() int64                   { return 0 }
func (c *stubCluster) CoProcessors() int                         { return 0 }
func (c *stubCluster) Policy() cpu.Policy                        { return cpu.Policy{} }
func (c *stubCluster) SubmitJob(cpu.Job) cpu.SubmitResult        { return cpu.SubmitResult{} }
func (c *stubCluster) Tick(cpu.Env)                              {}
func (c *stubCluster) LastModified() int64                       { return c.modified }
func (c *stubCluster) WaitingAmount(key ir.Key) int64            { return 0 }
func (c *stubCluster) LastLink() *link.Link                      { return nil }
func (c *stubCluster) Insert(ir.Key, int64, ir.Actionable) int64 { return 0 }
func (c *stubCluster) Cancel()                                   {}

func (c *stubCluster) WaitingFor(into ir.KeySet) {
	for k := range c.waiting {
		into.Add(k)
	}
}
