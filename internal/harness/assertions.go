package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/Mithi83/Applied-Energistics-2/internal/crafting"
	"github.com/Mithi83/Applied-Energistics-2/internal/ir"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for i, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s\n", i+1, event)
		}
	}
	return buf.String()
}

// String renders the event on one line: tick, type, then the set fields.
func (e TraceEvent) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "t=%d %s", e.Tick, e.Type)
	for _, f := range [...]struct{ name, v string }{
		{"key", e.Key}, {"job", e.JobID}, {"cpu", e.CPU}, {"node", e.Node}, {"code", e.Code},
	} {
		if f.v != "" {
			fmt.Fprintf(&b, " %s=%s", f.name, f.v)
		}
	}
	return b.String()
}

func evaluateAssertion(r *Result, a Assertion) error {
	switch a.Type {
	case AssertTraceContains:
		return assertTraceContains(r.Trace, a)
	case AssertTraceOrder:
		return assertTraceOrder(r.Trace, a)
	case AssertTraceCount:
		return assertTraceCount(r.Trace, a)
	case AssertFinalStock:
		return assertFinalStock(r.Stock, a)
	case AssertFinalJobs:
		return assertFinalJobs(r, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// matches reports whether event satisfies the assertion's selectors.
func matches(event TraceEvent, a Assertion) bool {
	return event.Type == a.Event &&
		(a.Key == "" || sameKey(event.Key, a.Key)) &&
		(a.CPU == "" || event.CPU == a.CPU) &&
		(a.Code == "" || event.Code == a.Code)
}

// sameKey compares key strings after parsing, so "iron_gear" matches
// "item:iron_gear".
func sameKey(got, want string) bool {
	if got == want {
		return true
	}
	g, err := ir.ParseKey(got)
	if err != nil {
		return false
	}
	w, err := ir.ParseKey(want)
	if err != nil {
		return false
	}
	return g == w
}

func describe(a Assertion) string {
	parts := []string{a.Event}
	if a.Key != "" {
		parts = append(parts, "key="+a.Key)
	}
	if a.CPU != "" {
		parts = append(parts, "cpu="+a.CPU)
	}
	if a.Code != "" {
		parts = append(parts, "code="+a.Code)
	}
	return strings.Join(parts, " ")
}

// assertTraceContains checks that at least one event matches.
func assertTraceContains(trace []TraceEvent, a Assertion) error {
	if slices.ContainsFunc(trace, func(e TraceEvent) bool { return matches(e, a) }) {
		return nil
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: describe(a),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks that the listed events appear in order. Other
// events may come between them.
func assertTraceOrder(trace []TraceEvent, a Assertion) error {
	cursor := 0
	for i, entry := range a.Events {
		want := orderEntry(entry)
		pos := slices.IndexFunc(trace[cursor:], func(e TraceEvent) bool { return matches(e, want) })
		if pos >= 0 {
			cursor += pos + 1
			continue
		}
		actual := fmt.Sprintf("missing event: %s", entry)
		if slices.ContainsFunc(trace, func(e TraceEvent) bool { return matches(e, want) }) {
			actual = fmt.Sprintf("%s (entry %d) appears only before %s", entry, i+1, a.Events[max(i-1, 0)])
		}
		return &AssertionError{
			Type:     AssertTraceOrder,
			Expected: fmt.Sprintf("events in order: %v", a.Events),
			Actual:   actual,
			Trace:    trace,
		}
	}
	return nil
}

// orderEntry parses "type" or "type key".
func orderEntry(s string) Assertion {
	typ, key, _ := strings.Cut(strings.TrimSpace(s), " ")
	return Assertion{Event: typ, Key: strings.TrimSpace(key)}
}

// assertTraceCount checks the exact number of matching events.
func assertTraceCount(trace []TraceEvent, a Assertion) error {
	count := 0
	for _, event := range trace {
		if matches(event, a) {
			count++
		}
	}
	if count != a.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", a.Count, describe(a)),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertFinalStock checks the listed amounts. Keys not listed are not
// checked; an amount of 0 expects the key to be absent.
func assertFinalStock(stock map[string]int64, a Assertion) error {
	have := make(map[ir.Key]int64, len(stock))
	for s, n := range stock {
		k, err := ir.ParseKey(s)
		if err != nil {
			return fmt.Errorf("stock key %q: %w", s, err)
		}
		have[k] = n
	}

	var diffs []string
	keys := make([]string, 0, len(a.Stock))
	for s := range a.Stock {
		keys = append(keys, s)
	}
	slices.Sort(keys)
	for _, s := range keys {
		k, err := ir.ParseKey(s)
		if err != nil {
			return fmt.Errorf("expected stock key %q: %w", s, err)
		}
		if got, want := have[k], a.Stock[s]; got != want {
			diffs = append(diffs, fmt.Sprintf("%s: want %d, got %d", k, want, got))
		}
	}
	if len(diffs) > 0 {
		return &AssertionError{
			Type:     AssertFinalStock,
			Expected: fmt.Sprintf("stock %v", a.Stock),
			Actual:   strings.Join(diffs, "; "),
		}
	}
	return nil
}

// assertFinalJobs counts journaled jobs in a state.
func assertFinalJobs(r *Result, a Assertion) error {
	count := 0
	for _, j := range r.Jobs {
		if j.State == crafting.JobState(a.State) {
			count++
		}
	}
	if count != a.Count {
		return &AssertionError{
			Type:     AssertFinalJobs,
			Expected: fmt.Sprintf("%d jobs %s", a.Count, a.State),
			Actual:   fmt.Sprintf("%d jobs %s", count, a.State),
			Trace:    r.Trace,
		}
	}
	return nil
}
