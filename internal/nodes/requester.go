package nodes

import (
	"log/slog"
	"slices"
	"sync"

	"github.com/Mithi83/Applied-Energistics-2/internal/crafting"
	"github.com/Mithi83/Applied-Energistics-2/internal/grid"
	"github.com/Mithi83/Applied-Energistics-2/internal/ir"
	"github.com/Mithi83/Applied-Energistics-2/internal/link"
)

// Requester submits jobs on behalf of a node and deposits their output
// into an Inventory.
type Requester struct {
	name   string
	inv    *Inventory
	logger *slog.Logger

	mu       sync.Mutex
	pending  []*link.Link
	finished []ir.JobID
	canceled []ir.JobID
}

var _ link.Requester = (*Requester)(nil)

// NewRequester creates a requester named name that stores output in inv.
// A nil inv discards output but still accepts it.
func NewRequester(name string, inv *Inventory, logger *slog.Logger) *Requester {
	if logger == nil {
		logger = slog.Default()
	}
	return &Requester{name: name, inv: inv, logger: logger}
}

// Name returns the requester's name.
func (r *Requester) Name() string { return r.name }

// Source is the action source jobs from this requester carry.
func (r *Requester) Source() grid.ActionSource {
	return grid.Machine(grid.NodeID(r.name))
}

// Submit hands plan to svc as a job this requester waits on. Must run on
// the tick goroutine.
func (r *Requester) Submit(svc *crafting.Service, plan *ir.Plan) crafting.SubmitResult {
	res := svc.SubmitJob(plan, crafting.SubmitRequest{
		Requester: r,
		Source:    r.Source(),
		Name:      r.name,
	})
	if res.Successful() {
		r.Track(res.Link)
	}
	return res
}

// Track adds l to the jobs this requester waits on.
func (r *Requester) Track(l *link.Link) {
	if l == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if slices.ContainsFunc(r.pending, func(p *link.Link) bool { return p.ID() == l.ID() }) {
		return
	}
	r.pending = append(r.pending, l)
}

// Restore creates requester links for jobs that were running before a
// restart, so they can be reattached when the node is added.
func (r *Requester) Restore(ids ...ir.JobID) {
	for _, id := range ids {
		r.Track(link.NewRequesterLink(id, r))
	}
}

// RequestedJobs implements link.Requester.
func (r *Requester) RequestedJobs() []*link.Link {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.pending)
}

// JobStateChanged implements link.Requester.
func (r *Requester) JobStateChanged(l *link.Link) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = slices.DeleteFunc(r.pending, func(p *link.Link) bool { return p.ID() == l.ID() })
	state := "done"
	if l.Canceled() {
		state = "canceled"
		r.canceled = append(r.canceled, l.ID())
	} else {
		r.finished = append(r.finished, l.ID())
	}
	r.logger.Info("requested job ended",
		"requester", r.name,
		"job_id", l.ID().String(),
		"state", state)
}

// InsertCrafted implements link.Requester.
func (r *Requester) InsertCrafted(l *link.Link, what ir.Key, amount int64, mode ir.Actionable) int64 {
	if r.inv == nil {
		return amount
	}
	got := r.inv.Insert(what, amount, mode)
	if mode == ir.Modulate {
		r.logger.Debug("crafted output stored",
			"requester", r.name,
			"job_id", l.ID().String(),
			"key", what.String(),
			"amount", got)
	}
	return got
}

// Pending returns the number of jobs still waited on.
func (r *Requester) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// Finished returns the ids of jobs that completed, in order.
func (r *Requester) Finished() []ir.JobID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.finished)
}

// Canceled returns the ids of jobs that were canceled, in order.
func (r *Requester) Canceled() []ir.JobID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.canceled)
}
