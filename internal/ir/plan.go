package ir

// Strategy controls how a calculation treats missing ingredients.
type Strategy string

const (
	// ReportMissingItems produces a simulation plan listing what is missing.
	ReportMissingItems Strategy = "report_missing_items"
	// CraftLess fails the calculation when anything is missing.
	CraftLess Strategy = "craft_less"
)

// PlanStep is one pattern executed a number of times.
type PlanStep struct {
	Pattern *Pattern `json:"-"`
	Times   int64    `json:"times"`
}

// Plan is the immutable result of a calculation.
//
// A simulation plan exists only for estimation and must never be
// dispatched for execution.
type Plan struct {
	Request    Stack      `json:"request"`
	Bytes      int64      `json:"bytes"`
	Simulation bool       `json:"simulation"`
	Steps      []PlanStep `json:"steps"`
	Used       []Stack    `json:"used,omitempty"`
	Emitted    []Stack    `json:"emitted,omitempty"`
	Missing    []Stack    `json:"missing,omitempty"`
}

// WaitingFor returns the keys a CPU running this plan waits on: every
// step output plus every emitted key.
func (p *Plan) WaitingFor() map[Key]int64 {
	out := make(map[Key]int64, len(p.Steps)+len(p.Emitted))
	for _, st := range p.Steps {
		o := st.Pattern.PrimaryOutput()
		out[o.What] += o.Amount * st.Times
	}
	for _, e := range p.Emitted {
		out[e.What] += e.Amount
	}
	return out
}
