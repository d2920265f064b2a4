package cpu

import (
	"fmt"
	"log/slog"

	"github.com/Mithi83/Applied-Energistics-2/internal/ir"
	"github.com/Mithi83/Applied-Energistics-2/internal/link"
)

// Inventory supplies a job's ingredients at submission.
type Inventory interface {
	Extract(key ir.Key, amount int64, mode ir.Actionable) int64
}

// PatternPusher is implemented by providers that can refuse a pattern
// execution (busy machine, full buffer). Providers that do not implement
// it always accept.
type PatternPusher interface {
	PushPattern(p *ir.Pattern) bool
}

// SimConfig describes a simulated cluster.
type SimConfig struct {
	Name         string
	Storage      int64
	CoProcessors int
	Mode         SelectionMode
	// Inventory may be nil, in which case ingredients are assumed present.
	Inventory Inventory
	Logger    *slog.Logger
}

type simStep struct {
	pattern   *ir.Pattern
	remaining int64
}

type simJob struct {
	job     Job
	link    *link.Link
	steps   []simStep
	waiting map[ir.Key]int64
}

// SimCluster runs plans step by step: each tick it executes up to
// 1+CoProcessors pattern runs, in plan order, dispatching each to a
// provider through the round-robin mediums. When every step is done the
// requested output goes to the requester and the link is marked done.
type SimCluster struct {
	cfg       SimConfig
	active    bool
	destroyed bool
	job       *simJob
	modified  int64
	dirty     bool
	logger    *slog.Logger
}

var _ Cluster = (*SimCluster)(nil)

// NewSimCluster creates an active, idle cluster.
func NewSimCluster(cfg SimConfig) *SimCluster {
	if cfg.Mode == "" {
		cfg.Mode = ModeAny
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &SimCluster{cfg: cfg, active: true, logger: logger}
}

func (c *SimCluster) Name() string      { return c.cfg.Name }
func (c *SimCluster) Active() bool      { return c.active && !c.destroyed }
func (c *SimCluster) Busy() bool        { return c.job != nil }
func (c *SimCluster) Destroyed() bool   { return c.destroyed }
func (c *SimCluster) CoProcessors() int { return c.cfg.CoProcessors }
func (c *SimCluster) Policy() Policy    { return Policy{Mode: c.cfg.Mode} }

// AvailableStorage is the storage not reserved by the running job.
func (c *SimCluster) AvailableStorage() int64 {
	if c.job == nil {
		return c.cfg.Storage
	}
	return c.cfg.Storage - c.job.job.Plan.Bytes
}

// SetActive toggles whether the cluster is powered.
func (c *SimCluster) SetActive(active bool) {
	if c.active != active {
		c.active = active
		c.dirty = true
	}
}

// Destroy marks the cluster as broken apart. A running job is canceled.
func (c *SimCluster) Destroy() {
	c.Cancel()
	c.destroyed = true
}

// SubmitJob implements Cluster.
func (c *SimCluster) SubmitJob(job Job) SubmitResult {
	if job.Plan == nil {
		ir.Violation(ir.ErrCodeInvalidRequest, "nil plan submitted to cpu %s", c.cfg.Name)
	}
	switch {
	case !c.Active():
		return Rejected(SubmitCPUOffline)
	case c.Busy():
		return Rejected(SubmitCPUBusy)
	case c.cfg.Storage < job.Plan.Bytes:
		return Rejected(SubmitCPUTooSmall)
	case job.Plan.Simulation:
		return Rejected(SubmitIncompletePlan)
	}

	if inv := c.cfg.Inventory; inv != nil {
		for _, used := range job.Plan.Used {
			if got := inv.Extract(used.What, used.Amount, ir.Simulate); got < used.Amount {
				missing := ir.Stack{What: used.What, Amount: used.Amount - got}
				return SubmitResult{Code: SubmitMissingInput, Missing: &missing}
			}
		}
		for _, used := range job.Plan.Used {
			inv.Extract(used.What, used.Amount, ir.Modulate)
		}
	}

	sj := &simJob{
		job:     job,
		link:    link.NewCPULink(job.ID, c, job.Requester == nil),
		waiting: job.Plan.WaitingFor(),
	}
	for _, st := range job.Plan.Steps {
		sj.steps = append(sj.steps, simStep{pattern: st.Pattern, remaining: st.Times})
	}
	c.job = sj
	c.dirty = true

	c.logger.Debug("cpu accepted job",
		"cpu", c.cfg.Name,
		"job_id", job.ID.String(),
		"request", job.Plan.Request.String(),
		"bytes", job.Plan.Bytes)
	return Accepted(c, sj.link)
}

// Tick implements Cluster.
func (c *SimCluster) Tick(env Env) {
	changed := c.dirty
	c.dirty = false
	defer func() {
		if changed {
			c.modified = env.Tick
		}
	}()

	sj := c.job
	if sj == nil || !c.Active() {
		return
	}
	if sj.link.Canceled() {
		c.job = nil
		changed = true
		return
	}

	budget := 1 + c.cfg.CoProcessors
	for i := range sj.steps {
		st := &sj.steps[i]
		for st.remaining > 0 && budget > 0 {
			if !dispatch(env, st.pattern) {
				return
			}
			st.remaining--
			budget--
			out := st.pattern.PrimaryOutput()
			sj.consume(out.What, out.Amount)
			changed = true
		}
		if st.remaining > 0 {
			return
		}
	}

	c.finish(sj)
	changed = true
}

func dispatch(env Env, p *ir.Pattern) bool {
	if env.Mediums == nil {
		return true
	}
	for provider := range env.Mediums(p) {
		pusher, ok := provider.(PatternPusher)
		if !ok || pusher.PushPattern(p) {
			return true
		}
	}
	return false
}

func (c *SimCluster) finish(sj *simJob) {
	req := sj.job.Plan.Request
	if r := sj.job.Requester; r != nil {
		target := sj.link
		if n := sj.link.Nexus(); n != nil && n.RequesterLink() != nil {
			target = n.RequesterLink()
		}
		r.InsertCrafted(target, req.What, req.Amount, ir.Modulate)
	}
	sj.link.MarkDone()
	c.job = nil
	c.logger.Debug("cpu finished job",
		"cpu", c.cfg.Name,
		"job_id", sj.job.ID.String(),
		"request", req.String())
}

func (sj *simJob) consume(k ir.Key, amount int64) int64 {
	w := sj.waiting[k]
	if w <= 0 {
		return 0
	}
	taken := min(w, amount)
	if w-taken <= 0 {
		delete(sj.waiting, k)
	} else {
		sj.waiting[k] = w - taken
	}
	return taken
}

// LastModified implements Cluster.
func (c *SimCluster) LastModified() int64 { return c.modified }

// WaitingFor implements Cluster.
func (c *SimCluster) WaitingFor(into ir.KeySet) {
	if c.job == nil {
		return
	}
	for k, v := range c.job.waiting {
		if v > 0 {
			into.Add(k)
		}
	}
}

// WaitingAmount implements Cluster.
func (c *SimCluster) WaitingAmount(key ir.Key) int64 {
	if c.job == nil {
		return 0
	}
	return c.job.waiting[key]
}

// LastLink implements Cluster.
func (c *SimCluster) LastLink() *link.Link {
	if c.job == nil {
		return nil
	}
	return c.job.link
}

// Insert implements Cluster. Only keys the running job waits on are
// accepted.
func (c *SimCluster) Insert(key ir.Key, amount int64, mode ir.Actionable) int64 {
	if c.job == nil || amount <= 0 {
		return 0
	}
	if mode == ir.Simulate {
		return min(c.job.waiting[key], amount)
	}
	taken := c.job.consume(key, amount)
	if taken > 0 {
		c.dirty = true
	}
	return taken
}

// Cancel implements Cluster.
func (c *SimCluster) Cancel() {
	if c.job == nil {
		return
	}
	c.job.link.Cancel()
	c.job = nil
	c.dirty = true
}

func (c *SimCluster) String() string {
	return fmt.Sprintf("cpu(%s storage=%d coproc=%d mode=%s)", c.cfg.Name, c.cfg.Storage, c.cfg.CoProcessors, c.cfg.Mode)
}
