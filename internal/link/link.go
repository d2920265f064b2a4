package link

import (
	"fmt"

	"github.com/Mithi83/Applied-Energistics-2/internal/ir"
)

// Side is the end of a job a link represents.
type Side int

const (
	SideRequester Side = iota + 1
	SideCPU
)

func (s Side) String() string {
	switch s {
	case SideRequester:
		return "requester"
	case SideCPU:
		return "cpu"
	}
	return fmt.Sprintf("Side(%d)", int(s))
}

// Requester is a node that submits jobs and waits for their results.
//
// Implementations must be comparable.
type Requester interface {
	// RequestedJobs returns the links this requester still waits on. Called
	// when the requester attaches, so restored links are re-tied.
	RequestedJobs() []*Link
	// JobStateChanged is called when a link's job was canceled or finished.
	JobStateChanged(l *Link)
	// InsertCrafted hands finished output to the requester and returns the
	// accepted amount.
	InsertCrafted(l *Link, what ir.Key, amount int64, mode ir.Actionable) int64
}

// Link is one end of a job.
type Link struct {
	id         ir.JobID
	side       Side
	standalone bool
	requester  Requester
	owner      any

	nexus    *Nexus
	canceled bool
	done     bool
}

// NewRequesterLink creates the requester end of job id.
func NewRequesterLink(id ir.JobID, r Requester) *Link {
	return &Link{id: id, side: SideRequester, requester: r, owner: r}
}

// NewCPULink creates the CPU end of job id. owner is the cluster running
// the job. A standalone link has no requester end and is never tracked.
func NewCPULink(id ir.JobID, owner any, standalone bool) *Link {
	return &Link{id: id, side: SideCPU, owner: owner, standalone: standalone}
}

// ID returns the job id.
func (l *Link) ID() ir.JobID { return l.id }

// Side reports which end l is.
func (l *Link) Side() Side { return l.side }

// Standalone reports whether l is never attached to a nexus.
func (l *Link) Standalone() bool { return l.standalone }

// Requester returns the requester of a requester-side link.
func (l *Link) Requester() Requester { return l.requester }

// Owner returns the cluster or requester holding this end.
func (l *Link) Owner() any { return l.owner }

// Nexus returns the nexus l is tied to, if any.
func (l *Link) Nexus() *Nexus { return l.nexus }

// Canceled reports the job's canceled state.
func (l *Link) Canceled() bool {
	if l.nexus != nil {
		return l.nexus.canceled
	}
	return l.canceled
}

// Done reports whether the job finished.
func (l *Link) Done() bool {
	if l.nexus != nil {
		return l.nexus.done
	}
	return l.done
}

// Cancel cancels the job. Through a nexus both ends observe it.
func (l *Link) Cancel() {
	if l.Done() {
		return
	}
	if l.nexus != nil {
		l.nexus.Cancel()
		return
	}
	l.canceled = true
	l.notify()
}

// MarkDone records the job as finished.
func (l *Link) MarkDone() {
	if l.Canceled() {
		return
	}
	if l.nexus != nil {
		l.nexus.MarkDone()
		return
	}
	l.done = true
	l.notify()
}

// setNexus ties l to n, untying it from any previous nexus. A link that was
// canceled before being tied cancels n instead.
func (l *Link) setNexus(n *Nexus) {
	if l.nexus != nil {
		l.nexus.remove(l)
	}
	if l.canceled && n != nil {
		n.Cancel()
		l.nexus = nil
		return
	}
	l.nexus = n
	if n != nil {
		n.add(l)
	}
}

func (l *Link) notify() {
	if l.side == SideRequester && l.requester != nil {
		l.requester.JobStateChanged(l)
	}
}

func (l *Link) String() string {
	return fmt.Sprintf("link(%s/%s)", l.id, l.side)
}
