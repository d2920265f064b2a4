package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mithi83/Applied-Energistics-2/internal/grid"
	"github.com/Mithi83/Applied-Energistics-2/internal/ir"
)

func sim(name string, storage int64, coproc int, mode SelectionMode) *SimCluster {
	return NewSimCluster(SimConfig{Name: name, Storage: storage, CoProcessors: coproc, Mode: mode})
}

func plan(bytes int64) *ir.Plan {
	return &ir.Plan{Request: ir.Stack{What: ir.Item("iron_gear"), Amount: 1}, Bytes: bytes}
}

func TestFindSuitable_PowerMode(t *testing.T) {
	small := sim("small-fast", 100, 4, ModeAny)
	big := sim("big-slow", 500, 2, ModeAny)
	clusters := []Cluster{small, big}
	src := grid.Player("steve")

	got, u := FindSuitable(clusters, plan(10), true, src)
	require.Nil(t, u)
	assert.Same(t, small, got)

	got, _ = FindSuitable(clusters, plan(10), false, src)
	assert.Same(t, big, got)
}

func TestFindSuitable_PreferenceBeatsPower(t *testing.T) {
	fast := sim("fast", 1000, 16, ModeAny)
	preferred := sim("player-cpu", 1000, 1, ModePlayerOnly)

	for _, power := range []bool{true, false} {
		got, _ := FindSuitable([]Cluster{fast, preferred}, plan(10), power, grid.Player("steve"))
		assert.Same(t, preferred, got, "prioritizePower=%v", power)
	}
}

func TestFindSuitable_StorageTieBreak(t *testing.T) {
	a := sim("a", 400, 2, ModeAny)
	b := sim("b", 200, 2, ModeAny)
	for _, power := range []bool{true, false} {
		got, _ := FindSuitable([]Cluster{a, b}, plan(10), power, grid.Player("steve"))
		assert.Same(t, b, got, "smaller storage wins ties")
	}
}

func TestFindSuitable_UnsuitableAccounting(t *testing.T) {
	off1 := sim("off1", 1000, 1, ModeAny)
	off1.SetActive(false)
	off2 := sim("off2", 1000, 1, ModeAny)
	off2.SetActive(false)
	busy := sim("busy", 1000, 1, ModeAny)
	require.True(t, busy.SubmitJob(Job{Plan: plan(1)}).Successful())
	small := sim("small", 10, 1, ModeAny)

	got, u := FindSuitable([]Cluster{off1, off2, busy, small}, plan(100), true, grid.Player("steve"))
	assert.Nil(t, got)
	require.NotNil(t, u)
	assert.Equal(t, UnsuitableCPUs{Offline: 2, Busy: 1, TooSmall: 1, Excluded: 0}, *u)
}

func TestFindSuitable_Excluded(t *testing.T) {
	machines := sim("machines", 1000, 1, ModeMachineOnly)
	got, u := FindSuitable([]Cluster{machines}, plan(1), true, grid.Player("steve"))
	assert.Nil(t, got)
	require.NotNil(t, u)
	assert.Equal(t, 1, u.Excluded)

	got, _ = FindSuitable([]Cluster{machines}, plan(1), true, grid.Machine("interface-1"))
	assert.Same(t, machines, got)
}

func TestFindSuitable_NoClusters(t *testing.T) {
	got, u := FindSuitable(nil, plan(1), true, grid.Player("steve"))
	assert.Nil(t, got)
	assert.Nil(t, u, "no clusters at all is distinct from unsuitable clusters")
}

func TestPolicy(t *testing.T) {
	player := grid.Player("steve")
	machine := grid.Machine("bus-1")

	tests := []struct {
		mode                          SelectionMode
		permitsPlayer, permitsMachine bool
		prefersPlayer, prefersMachine bool
	}{
		{ModeAny, true, true, false, false},
		{ModePlayerOnly, true, false, true, false},
		{ModeMachineOnly, false, true, false, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			p := Policy{Mode: tt.mode}
			assert.Equal(t, tt.permitsPlayer, p.Permits(player))
			assert.Equal(t, tt.permitsMachine, p.Permits(machine))
			assert.Equal(t, tt.prefersPlayer, p.Prefers(player))
			assert.Equal(t, tt.prefersMachine, p.Prefers(machine))
		})
	}
}

func TestParseSelectionMode(t *testing.T) {
	m, err := ParseSelectionMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeAny, m)

	m, err = ParseSelectionMode("player_only")
	require.NoError(t, err)
	assert.Equal(t, ModePlayerOnly, m)

	_, err = ParseSelectionMode("robots")
	assert.Error(t, err)
}
