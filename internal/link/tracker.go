package link

import (
	"bytes"
	"log/slog"
	"slices"

	"github.com/Mithi83/Applied-Energistics-2/internal/ir"
)

// Tracker owns every live nexus, keyed by job id.
type Tracker struct {
	nexus  map[ir.JobID]*Nexus
	grace  int64
	logger *slog.Logger
}

// NewTracker creates a tracker. grace <= 0 selects DefaultGraceTicks.
func NewTracker(grace int64, logger *slog.Logger) *Tracker {
	if grace <= 0 {
		grace = DefaultGraceTicks
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		nexus:  make(map[ir.JobID]*Nexus),
		grace:  grace,
		logger: logger,
	}
}

// Attach ties l to the nexus of its job id, creating it if needed.
// Standalone links are ignored and yield nil.
func (t *Tracker) Attach(l *Link) *Nexus {
	if l == nil || l.standalone {
		return nil
	}
	n := t.nexus[l.id]
	if n == nil {
		n = newNexus(l.id)
		t.nexus[l.id] = n
	}
	l.setNexus(n)
	return n
}

// Get returns the nexus for id.
func (t *Tracker) Get(id ir.JobID) (*Nexus, bool) {
	n, ok := t.nexus[id]
	return n, ok
}

// DetachRequester drops r's end from every nexus it holds.
func (t *Tracker) DetachRequester(r Requester) int {
	n := 0
	for _, nx := range t.nexus {
		if nx.IsRequester(r) {
			nx.DetachRequester()
			n++
		}
	}
	return n
}

// Prune removes every dead nexus and returns them ordered by job id.
func (t *Tracker) Prune(env Env) []*Nexus {
	var dead []*Nexus
	for _, n := range t.nexus {
		if n.IsDead(env, t.grace) {
			dead = append(dead, n)
		}
	}
	slices.SortFunc(dead, func(a, b *Nexus) int { return bytes.Compare(a.id[:], b.id[:]) })
	for _, n := range dead {
		delete(t.nexus, n.id)
		t.logger.Debug("job link pruned",
			"job_id", n.id.String(),
			"canceled", n.canceled,
			"done", n.done)
	}
	return dead
}

// Len returns the number of live nexuses.
func (t *Tracker) Len() int { return len(t.nexus) }

// IDs returns the live job ids in sorted order.
func (t *Tracker) IDs() []ir.JobID {
	ids := make([]ir.JobID, 0, len(t.nexus))
	for id := range t.nexus {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b ir.JobID) int { return bytes.Compare(a[:], b[:]) })
	return ids
}
