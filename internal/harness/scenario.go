package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/Mithi83/Applied-Energistics-2/internal/crafting"
	"github.com/Mithi83/Applied-Energistics-2/internal/ir"
)

// Scenario drives a network through a sequence of steps and checks the
// resulting trace and final state.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	Description string `yaml:"description"`

	// Network is the directory holding the network's CUE files. A
	// relative path is resolved against the scenario file's directory.
	Network string `yaml:"network"`

	// Config overrides service tuning. Zero fields keep the defaults.
	Config Overrides `yaml:"config,omitempty"`

	Steps      []Step      `yaml:"steps"`
	Assertions []Assertion `yaml:"assertions"`
}

// Overrides adjusts crafting.DefaultConfig.
type Overrides struct {
	CraftableRefreshTicks int64 `yaml:"craftable_refresh_ticks,omitempty"`
	CraftingRefreshTicks  int64 `yaml:"crafting_refresh_ticks,omitempty"`
	LinkGraceTicks        int64 `yaml:"link_grace_ticks,omitempty"`
}

// Apply returns base with the non-zero overrides applied.
func (o Overrides) Apply(base crafting.Config) crafting.Config {
	if o.CraftableRefreshTicks > 0 {
		base.CraftableRefreshTicks = o.CraftableRefreshTicks
	}
	if o.CraftingRefreshTicks > 0 {
		base.CraftingRefreshTicks = o.CraftingRefreshTicks
	}
	if o.LinkGraceTicks > 0 {
		base.LinkGraceTicks = o.LinkGraceTicks
	}
	return base
}

// Step is one action. Exactly one of its action fields must be set.
type Step struct {
	// Tick advances the clock and runs that many service ticks.
	Tick int `yaml:"tick,omitempty"`

	// Request calculates a plan and submits it.
	Request *RequestStep `yaml:"request,omitempty"`

	// SetBusy marks a provider busy or idle.
	SetBusy *BusyStep `yaml:"set_busy,omitempty"`

	// Detach and Attach remove or re-add a node by name.
	Detach string `yaml:"detach,omitempty"`
	Attach string `yaml:"attach,omitempty"`

	// Cancel cancels the job running on the named CPU.
	Cancel string `yaml:"cancel,omitempty"`

	// Expect checks the outcome of a request step.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// RequestStep asks for Amount of Key.
type RequestStep struct {
	Key    string `yaml:"key"`
	Amount int64  `yaml:"amount"`

	// Requester names the requester node that waits for the job. Empty
	// submits a job nobody waits for.
	Requester string `yaml:"requester,omitempty"`

	// Strategy is "report_missing_items" (default) or "craft_less".
	Strategy string `yaml:"strategy,omitempty"`

	PrioritizePower bool `yaml:"prioritize_power,omitempty"`
}

// BusyStep toggles a provider's busy flag.
type BusyStep struct {
	Provider string `yaml:"provider"`
	Busy     bool   `yaml:"busy"`
}

// ExpectClause is the expected outcome of a request: a submit code such as
// "OK" or "NO_SUITABLE_CPU_FOUND", or a calculation error code such as
// "MISSING_PATTERN".
type ExpectClause struct {
	Code string `yaml:"code"`
	// CPU is the cluster expected to accept the job.
	CPU string `yaml:"cpu,omitempty"`
}

// Assertion validates the trace or the final state.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Event, Key, CPU and Code select trace events (trace_contains,
	// trace_count). Empty selectors match anything.
	Event string `yaml:"event,omitempty"`
	Key   string `yaml:"key,omitempty"`
	CPU   string `yaml:"cpu,omitempty"`
	Code  string `yaml:"code,omitempty"`

	// Count is the exact number of matches for trace_count, or of jobs
	// in State for final_jobs.
	Count int `yaml:"count,omitempty"`

	// Events is the expected order for trace_order. Each entry is an
	// event type, optionally followed by a space and a key.
	Events []string `yaml:"events,omitempty"`

	// Stock maps key strings to expected amounts for final_stock.
	Stock map[string]int64 `yaml:"stock,omitempty"`

	// State is the job state counted by final_jobs.
	State string `yaml:"state,omitempty"`
}

// Assertion types.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalStock    = "final_stock"
	AssertFinalJobs     = "final_jobs"
)

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected so typos do not silently disable a check.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}
	if scenario.Network != "" && !filepath.IsAbs(scenario.Network) {
		scenario.Network = filepath.Join(filepath.Dir(path), scenario.Network)
	}
	return scenario, nil
}

// ParseScenario parses scenario YAML. Network paths are left as written.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Network == "" {
		return fmt.Errorf("network is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	for i := range s.Steps {
		if err := validateStep(i, &s.Steps[i]); err != nil {
			return err
		}
	}
	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(index int, st *Step) error {
	actions := 0
	if st.Tick != 0 {
		if st.Tick < 0 {
			return fmt.Errorf("steps[%d]: tick must be positive", index)
		}
		actions++
	}
	if st.Request != nil {
		actions++
		if _, err := ir.ParseKey(st.Request.Key); err != nil {
			return fmt.Errorf("steps[%d].request: %w", index, err)
		}
		if st.Request.Amount <= 0 {
			return fmt.Errorf("steps[%d].request: amount must be positive", index)
		}
		switch ir.Strategy(st.Request.Strategy) {
		case "", ir.ReportMissingItems, ir.CraftLess:
		default:
			return fmt.Errorf("steps[%d].request: unknown strategy %q", index, st.Request.Strategy)
		}
	}
	if st.SetBusy != nil {
		actions++
		if st.SetBusy.Provider == "" {
			return fmt.Errorf("steps[%d].set_busy: provider is required", index)
		}
	}
	for _, name := range []string{st.Detach, st.Attach, st.Cancel} {
		if name != "" {
			actions++
		}
	}
	if actions != 1 {
		return fmt.Errorf("steps[%d]: exactly one action is required, got %d", index, actions)
	}
	if st.Expect != nil {
		if st.Request == nil {
			return fmt.Errorf("steps[%d]: expect is only valid on request steps", index)
		}
		if st.Expect.Code == "" {
			return fmt.Errorf("steps[%d].expect: code is required", index)
		}
	}
	return nil
}

func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertTraceContains:
		if a.Event == "" {
			return fmt.Errorf("assertions[%d]: event is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Events) == 0 {
			return fmt.Errorf("assertions[%d]: events list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Event == "" {
			return fmt.Errorf("assertions[%d]: event is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertFinalStock:
		if len(a.Stock) == 0 {
			return fmt.Errorf("assertions[%d]: stock is required for final_stock", index)
		}
		for k := range a.Stock {
			if _, err := ir.ParseKey(k); err != nil {
				return fmt.Errorf("assertions[%d]: %w", index, err)
			}
		}
	case AssertFinalJobs:
		switch crafting.JobState(a.State) {
		case crafting.JobRunning, crafting.JobDone, crafting.JobCanceled:
		default:
			return fmt.Errorf("assertions[%d]: unknown job state %q", index, a.State)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
