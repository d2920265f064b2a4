package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mithi83/Applied-Energistics-2/internal/crafting"
)

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadScenario_ValidFile(t *testing.T) {
	path := writeScenario(t, `
name: test_scenario
description: "Test scenario for validation"
network: networks/basic
config:
  link_grace_ticks: 3
steps:
  - tick: 2
  - request: { key: "item:iron_gear", amount: 3, requester: assembler }
    expect: { code: OK, cpu: cpu-a }
  - set_busy: { provider: assembler, busy: true }
assertions:
  - type: trace_contains
    event: job_submitted
    key: item:iron_gear
  - type: final_stock
    stock: { "item:iron_gear": 3 }
`)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "test_scenario", scenario.Name)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "networks/basic"), scenario.Network)
	assert.Equal(t, int64(3), scenario.Config.LinkGraceTicks)
	require.Len(t, scenario.Steps, 3)
	assert.Equal(t, 2, scenario.Steps[0].Tick)
	require.NotNil(t, scenario.Steps[1].Request)
	assert.Equal(t, int64(3), scenario.Steps[1].Request.Amount)
	assert.Equal(t, "cpu-a", scenario.Steps[1].Expect.CPU)
	assert.True(t, scenario.Steps[2].SetBusy.Busy)
	assert.Len(t, scenario.Assertions, 2)
}

func TestLoadScenario_AbsoluteNetworkKept(t *testing.T) {
	path := writeScenario(t, `
name: abs
description: "absolute network path"
network: /srv/networks/basic
steps:
  - tick: 1
`)
	scenario, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/networks/basic", scenario.Network)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("/nonexistent/scenario.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_UnknownField(t *testing.T) {
	path := writeScenario(t, `
name: typo
description: "assertion instead of assertions"
network: net
steps:
  - tick: 1
assertion:
  - type: trace_count
`)
	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestParseScenario_Invalid(t *testing.T) {
	const head = "name: s\ndescription: d\nnetwork: net\n"

	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"missing name", "description: d\nnetwork: net\nsteps: [{tick: 1}]\n", "name is required"},
		{"missing description", "name: s\nnetwork: net\nsteps: [{tick: 1}]\n", "description is required"},
		{"missing network", "name: s\ndescription: d\nsteps: [{tick: 1}]\n", "network is required"},
		{"no steps", head, "steps list is required"},
		{"empty step", head + "steps: [{}]\n", "exactly one action is required, got 0"},
		{"two actions", head + "steps: [{tick: 1, detach: cpu-a}]\n", "exactly one action is required, got 2"},
		{"negative tick", head + "steps: [{tick: -1}]\n", "tick must be positive"},
		{"bad key", head + "steps: [{request: {key: 'gem:ruby', amount: 1}}]\n", "unknown kind"},
		{"zero amount", head + "steps: [{request: {key: 'item:gear', amount: 0}}]\n", "amount must be positive"},
		{"bad strategy", head + "steps: [{request: {key: 'item:gear', amount: 1, strategy: greedy}}]\n", "unknown strategy"},
		{"busy without provider", head + "steps: [{set_busy: {busy: true}}]\n", "provider is required"},
		{"expect on tick", head + "steps: [{tick: 1, expect: {code: OK}}]\n", "only valid on request steps"},
		{"expect without code", head + "steps: [{request: {key: 'item:gear', amount: 1}, expect: {cpu: a}}]\n", "code is required"},
		{"assertion without type", head + "steps: [{tick: 1}]\nassertions: [{event: x}]\n", "type is required"},
		{"unknown assertion", head + "steps: [{tick: 1}]\nassertions: [{type: final_state}]\n", "unknown assertion type"},
		{"contains without event", head + "steps: [{tick: 1}]\nassertions: [{type: trace_contains}]\n", "event is required"},
		{"order without events", head + "steps: [{tick: 1}]\nassertions: [{type: trace_order}]\n", "events list is required"},
		{"negative count", head + "steps: [{tick: 1}]\nassertions: [{type: trace_count, event: x, count: -1}]\n", "count must be non-negative"},
		{"stock without entries", head + "steps: [{tick: 1}]\nassertions: [{type: final_stock}]\n", "stock is required"},
		{"stock bad key", head + "steps: [{tick: 1}]\nassertions: [{type: final_stock, stock: {'gem:ruby': 1}}]\n", "unknown kind"},
		{"jobs bad state", head + "steps: [{tick: 1}]\nassertions: [{type: final_jobs, state: lost}]\n", "unknown job state"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestOverrides_Apply(t *testing.T) {
	base := Overrides{}.Apply(crafting.DefaultConfig())
	assert.Equal(t, crafting.DefaultConfig(), base)

	got := Overrides{CraftableRefreshTicks: 5, LinkGraceTicks: 2}.Apply(crafting.DefaultConfig())
	assert.Equal(t, int64(5), got.CraftableRefreshTicks)
	assert.Equal(t, crafting.DefaultConfig().CraftingRefreshTicks, got.CraftingRefreshTicks)
	assert.Equal(t, int64(2), got.LinkGraceTicks)
}
