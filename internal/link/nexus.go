package link

import (
	"github.com/Mithi83/Applied-Energistics-2/internal/ir"
)

// DefaultGraceTicks is how long a nexus survives with a missing end.
const DefaultGraceTicks = 60

// Env answers whether the ends of a job are still part of the network.
type Env interface {
	HasCPU(l *Link) bool
	HasRequester(l *Link) bool
}

// Nexus is the durable handle of one job.
type Nexus struct {
	id  ir.JobID
	req *Link
	cpu *Link

	canceled    bool
	done        bool
	tickOfDeath int64
}

func newNexus(id ir.JobID) *Nexus {
	return &Nexus{id: id}
}

// ID returns the job id.
func (n *Nexus) ID() ir.JobID { return n.id }

// RequesterLink returns the requester end, or nil.
func (n *Nexus) RequesterLink() *Link { return n.req }

// CPULink returns the CPU end, or nil.
func (n *Nexus) CPULink() *Link { return n.cpu }

// Canceled reports whether the job was canceled.
func (n *Nexus) Canceled() bool { return n.canceled }

// Done reports whether the job finished.
func (n *Nexus) Done() bool { return n.done }

// Cancel cancels the job and tells the requester.
func (n *Nexus) Cancel() {
	if n.canceled {
		return
	}
	n.canceled = true
	if n.req != nil {
		n.req.canceled = true
		n.req.notify()
	}
	if n.cpu != nil {
		n.cpu.canceled = true
	}
}

// MarkDone finishes the job and tells the requester.
func (n *Nexus) MarkDone() {
	if n.done {
		return
	}
	n.done = true
	if n.req != nil {
		n.req.done = true
		n.req.notify()
	}
	if n.cpu != nil {
		n.cpu.done = true
	}
}

// DetachRequester drops the requester end, typically because its node left
// the network. The job keeps running; the grace period starts over.
func (n *Nexus) DetachRequester() {
	if n.req != nil {
		req := n.req
		n.req = nil
		req.nexus = nil
	}
	n.tickOfDeath = 0
}

// IsRequester reports whether r holds the requester end.
func (n *Nexus) IsRequester(r Requester) bool {
	return n.req != nil && n.req.requester == r
}

// IsDead is evaluated once per tick. A canceled or finished job is dead
// immediately. A nexus missing an end ages one tick per call; one whose
// ends both exist but left the network ages by the whole grace period.
// Past the grace period the job is canceled and reported dead.
func (n *Nexus) IsDead(env Env, grace int64) bool {
	if n.canceled || n.done {
		return true
	}
	if n.req == nil || n.cpu == nil {
		n.tickOfDeath++
	} else if env.HasCPU(n.cpu) && env.HasRequester(n.req) {
		n.tickOfDeath = 0
	} else {
		n.tickOfDeath += grace
	}
	if n.tickOfDeath > grace {
		n.Cancel()
		return true
	}
	return false
}

func (n *Nexus) add(l *Link) {
	switch l.side {
	case SideCPU:
		n.cpu = l
	case SideRequester:
		n.req = l
	}
}

func (n *Nexus) remove(l *Link) {
	if n.req == l {
		n.req = nil
	}
	if n.cpu == l {
		n.cpu = nil
	}
}
