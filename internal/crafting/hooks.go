package crafting

import (
	"time"

	"github.com/Mithi83/Applied-Energistics-2/internal/cpu"
	"github.com/Mithi83/Applied-Energistics-2/internal/interest"
	"github.com/Mithi83/Applied-Energistics-2/internal/ir"
)

// TickSource supplies the current tick number.
type TickSource interface {
	Current() int64
}

// JobIDGenerator mints job ids.
type JobIDGenerator interface {
	NewJobID() ir.JobID
}

// Stock reports what is stored in the network, for calculation snapshots.
type Stock interface {
	Available() map[ir.Key]int64
}

// JobState is the lifecycle state recorded for a job.
type JobState string

const (
	JobRunning  JobState = "running"
	JobDone     JobState = "done"
	JobCanceled JobState = "canceled"
)

// JobRecord describes a submitted job for the journal.
type JobRecord struct {
	ID        ir.JobID
	Tick      int64
	CPU       string
	Source    string
	Request   ir.Stack
	Bytes     int64
	Requester string

	// PlanDigest identifies the plan; see ir.PlanDigest.
	PlanDigest string
}

// Journal persists job lifecycles so links can be restored after reload.
type Journal interface {
	JobSubmitted(rec JobRecord) error
	JobFinished(id ir.JobID, state JobState, tick int64) error
}

// Recorder receives operational measurements.
type Recorder interface {
	TickCompleted(d time.Duration)
	SetGauges(g Gauges)
	Broadcast(ch interest.Channel, changed, delivered int)
	JobSubmitted(code cpu.SubmitCode)
	JobFinished(state JobState)
}

// Gauges is the per-tick state summary.
type Gauges struct {
	Clusters      int
	BusyClusters  int
	Links         int
	Watchers      int
	CraftableKeys int
	CraftingKeys  int
}

// EventKind classifies audit events.
type EventKind string

const (
	EventCraftableChanged EventKind = "craftable_changed"
	EventCraftingChanged  EventKind = "crafting_changed"
	EventJobSubmitted     EventKind = "job_submitted"
	EventJobRejected      EventKind = "job_rejected"
	EventJobFinished      EventKind = "job_finished"
	EventNodeAttached     EventKind = "node_attached"
	EventNodeDetached     EventKind = "node_detached"
)

// Event is one audit record.
type Event struct {
	Tick  int64     `json:"tick"`
	Kind  EventKind `json:"kind"`
	Key   string    `json:"key,omitempty"`
	JobID string    `json:"job_id,omitempty"`
	CPU   string    `json:"cpu,omitempty"`
	Node  string    `json:"node,omitempty"`
	Code  string    `json:"code,omitempty"`
}

// EventSink receives audit events. It is called on the tick goroutine and
// must not block.
type EventSink interface {
	Record(ev Event)
}

type nopRecorder struct{}

func (nopRecorder) TickCompleted(time.Duration)          {}
func (nopRecorder) SetGauges(Gauges)                     {}
func (nopRecorder) Broadcast(interest.Channel, int, int) {}
func (nopRecorder) JobSubmitted(cpu.SubmitCode)          {}
func (nopRecorder) JobFinished(JobState)                 {}
