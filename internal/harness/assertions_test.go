package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mithi83/Applied-Energistics-2/internal/crafting"
	"github.com/Mithi83/Applied-Energistics-2/internal/store"
)

var sampleTrace = []TraceEvent{
	{Type: "node_attached", Tick: 0, Node: "cpu-a"},
	{Type: "craftable_changed", Tick: 1, Key: "item:iron_gear"},
	{Type: "job_submitted", Tick: 1, Key: "item:iron_gear", CPU: "cpu-a", JobID: "j1"},
	{Type: "crafting_changed", Tick: 2, Key: "item:iron_gear"},
	{Type: "crafting_changed", Tick: 3, Key: "item:iron_gear"},
	{Type: "job_finished", Tick: 4, JobID: "j1", Code: "done"},
}

func TestAssertTraceContains(t *testing.T) {
	tests := []struct {
		name string
		a    Assertion
		ok   bool
	}{
		{"type only", Assertion{Event: "job_submitted"}, true},
		{"with key", Assertion{Event: "job_submitted", Key: "item:iron_gear"}, true},
		{"key without kind", Assertion{Event: "job_submitted", Key: "iron_gear"}, true},
		{"with cpu", Assertion{Event: "job_submitted", CPU: "cpu-a"}, true},
		{"with code", Assertion{Event: "job_finished", Code: "done"}, true},
		{"wrong cpu", Assertion{Event: "job_submitted", CPU: "cpu-b"}, false},
		{"wrong code", Assertion{Event: "job_finished", Code: "canceled"}, false},
		{"absent type", Assertion{Event: "job_rejected"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.a.Type = AssertTraceContains
			err := assertTraceContains(sampleTrace, tt.a)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			var ae *AssertionError
			require.ErrorAs(t, err, &ae)
			assert.Equal(t, AssertTraceContains, ae.Type)
			assert.Equal(t, "not found in trace", ae.Actual)
		})
	}
}

func TestAssertTraceOrder(t *testing.T) {
	t.Run("in order with gaps", func(t *testing.T) {
		err := assertTraceOrder(sampleTrace, Assertion{Events: []string{"node_attached", "job_submitted", "job_finished"}})
		assert.NoError(t, err)
	})

	t.Run("repeated entries consume events", func(t *testing.T) {
		err := assertTraceOrder(sampleTrace, Assertion{Events: []string{
			"crafting_changed item:iron_gear",
			"crafting_changed item:iron_gear",
		}})
		assert.NoError(t, err)

		err = assertTraceOrder(sampleTrace, Assertion{Events: []string{
			"crafting_changed", "crafting_changed", "crafting_changed",
		}})
		assert.Error(t, err)
	})

	t.Run("out of order", func(t *testing.T) {
		err := assertTraceOrder(sampleTrace, Assertion{Events: []string{"job_finished", "job_submitted"}})
		var ae *AssertionError
		require.ErrorAs(t, err, &ae)
		assert.Contains(t, ae.Actual, "appears only before job_finished")
	})

	t.Run("missing", func(t *testing.T) {
		err := assertTraceOrder(sampleTrace, Assertion{Events: []string{"job_submitted", "job_rejected"}})
		var ae *AssertionError
		require.ErrorAs(t, err, &ae)
		assert.Equal(t, "missing event: job_rejected", ae.Actual)
	})
}

func TestAssertTraceCount(t *testing.T) {
	assert.NoError(t, assertTraceCount(sampleTrace, Assertion{Event: "crafting_changed", Count: 2}))
	assert.NoError(t, assertTraceCount(sampleTrace, Assertion{Event: "job_rejected", Count: 0}))

	err := assertTraceCount(sampleTrace, Assertion{Event: "crafting_changed", Count: 1})
	var ae *AssertionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "2 occurrences", ae.Actual)
	assert.Contains(t, ae.Error(), "Full trace:")
	assert.Contains(t, ae.Error(), "t=1 job_submitted key=item:iron_gear job=j1 cpu=cpu-a")
}

func TestAssertFinalStock(t *testing.T) {
	stock := map[string]int64{"item:iron_ingot": 28, "item:iron_gear": 3}

	assert.NoError(t, assertFinalStock(stock, Assertion{Stock: map[string]int64{"iron_gear": 3}}))
	assert.NoError(t, assertFinalStock(stock, Assertion{Stock: map[string]int64{"item:copper": 0}}))

	err := assertFinalStock(stock, Assertion{Stock: map[string]int64{
		"item:iron_gear":  4,
		"item:iron_ingot": 28,
		"fluid:water":     10,
	}})
	var ae *AssertionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "fluid:water: want 10, got 0; item:iron_gear: want 4, got 3", ae.Actual)
}

func TestAssertFinalJobs(t *testing.T) {
	r := NewResult()
	r.Jobs = []store.Job{
		{State: crafting.JobDone},
		{State: crafting.JobCanceled},
		{State: crafting.JobDone},
	}
	assert.NoError(t, assertFinalJobs(r, Assertion{State: "done", Count: 2}))
	assert.NoError(t, assertFinalJobs(r, Assertion{State: "running", Count: 0}))

	err := assertFinalJobs(r, Assertion{State: "canceled", Count: 2})
	var ae *AssertionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "1 jobs canceled", ae.Actual)
}

func TestEvaluateAssertion_Dispatch(t *testing.T) {
	r := NewResult()
	r.Trace = sampleTrace
	assert.NoError(t, evaluateAssertion(r, Assertion{Type: AssertTraceCount, Event: "job_finished", Count: 1}))
	assert.ErrorContains(t, evaluateAssertion(r, Assertion{Type: "bogus"}), "unknown assertion type")
}
