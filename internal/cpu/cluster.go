package cpu

import (
	"iter"

	"github.com/Mithi83/Applied-Energistics-2/internal/grid"
	"github.com/Mithi83/Applied-Energistics-2/internal/ir"
	"github.com/Mithi83/Applied-Energistics-2/internal/link"
	"github.com/Mithi83/Applied-Energistics-2/internal/registry"
)

// Job is what a cluster is asked to run.
type Job struct {
	ID        ir.JobID
	Plan      *ir.Plan
	Source    grid.ActionSource
	Requester link.Requester
}

// Env is handed to Cluster.Tick.
type Env struct {
	// Tick is the current tick number.
	Tick int64
	// Mediums yields providers able to execute a pattern, round-robin.
	Mediums func(*ir.Pattern) iter.Seq[registry.Provider]
}

// Cluster is a crafting CPU.
//
// Only the cluster mutates its busy and storage state. The service drives
// Tick exactly once per tick on every live cluster.
type Cluster interface {
	Name() string
	Active() bool
	Busy() bool
	Destroyed() bool
	AvailableStorage() int64
	CoProcessors() int
	Policy() Policy

	// SubmitJob starts job. On success the result carries the CPU-side link.
	SubmitJob(job Job) SubmitResult
	// Tick advances production by one step.
	Tick(env Env)
	// LastModified is the tick of the last observable state change.
	LastModified() int64
	// WaitingFor adds every key the running job still waits on to into.
	WaitingFor(into ir.KeySet)
	// WaitingAmount returns how much of key the running job waits on.
	WaitingAmount(key ir.Key) int64
	// LastLink returns the link of the running job, or nil.
	LastLink() *link.Link
	// Insert offers items to the running job and returns the accepted amount.
	Insert(key ir.Key, amount int64, mode ir.Actionable) int64
	// Cancel aborts the running job.
	Cancel()
}
