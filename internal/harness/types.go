package harness

import (
	"github.com/Mithi83/Applied-Energistics-2/internal/crafting"
	"github.com/Mithi83/Applied-Energistics-2/internal/store"
)

// TraceCalculationFailed marks a request whose calculation returned an
// error. Every other trace type is a crafting.EventKind.
const TraceCalculationFailed = "calculation_failed"

// TraceEvent is one entry of a scenario trace.
type TraceEvent struct {
	Type  string `json:"type"`
	Tick  int64  `json:"tick"`
	Key   string `json:"key,omitempty"`
	JobID string `json:"job_id,omitempty"`
	CPU   string `json:"cpu,omitempty"`
	Node  string `json:"node,omitempty"`
	Code  string `json:"code,omitempty"`
}

func traceOf(ev crafting.Event) TraceEvent {
	return TraceEvent{
		Type:  string(ev.Kind),
		Tick:  ev.Tick,
		Key:   ev.Key,
		JobID: ev.JobID,
		CPU:   ev.CPU,
		Node:  ev.Node,
		Code:  ev.Code,
	}
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every step expectation and assertion held.
	Pass bool `json:"pass"`

	// Trace holds service events in emission order.
	Trace []TraceEvent `json:"trace"`

	Errors []string `json:"errors,omitempty"`

	// Stock is the inventory after the last step, by key string.
	Stock map[string]int64 `json:"stock,omitempty"`

	// Jobs is the job journal after the last step.
	Jobs []store.Job `json:"jobs,omitempty"`
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
		Stock:  make(map[string]int64),
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// traceSink collects service events into a Result. The harness drives the
// service from one goroutine, so no locking is needed.
type traceSink struct {
	result *Result
}

func (s *traceSink) Record(ev crafting.Event) {
	s.result.Trace = append(s.result.Trace, traceOf(ev))
}
