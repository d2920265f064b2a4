package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunWithGolden(t *testing.T) {
	for _, name := range []string{"gear_roundtrip", "cpu_detached"} {
		t.Run(name, func(t *testing.T) {
			scenario, err := LoadScenario(filepath.Join(scenariosDir, name+".yaml"))
			require.NoError(t, err)

			result, err := RunWithGolden(t, scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, result.Errors)
		})
	}
}

func TestRunWithGolden_Deterministic(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join(scenariosDir, "gear_roundtrip.yaml"))
	require.NoError(t, err)

	var traces [][]byte
	for range 3 {
		result, err := RunNetwork(t.Context(), scenario, loadNetwork(t, scenario))
		require.NoError(t, err)
		out, err := MarshalTrace(result.Trace)
		require.NoError(t, err)
		traces = append(traces, out)
	}
	assert.Equal(t, traces[0], traces[1])
	assert.Equal(t, traces[0], traces[2])
}

func TestMarshalTrace(t *testing.T) {
	out, err := MarshalTrace([]TraceEvent{
		{Type: "node_attached", Tick: 0, Node: "cpu-a"},
		{Type: "job_finished", Tick: 7, JobID: "j1", Code: "done"},
	})
	require.NoError(t, err)
	assert.Equal(t,
		`{"node":"cpu-a","tick":0,"type":"node_attached"}`+"\n"+
			`{"code":"done","job_id":"j1","tick":7,"type":"job_finished"}`+"\n",
		string(out))

	out, err = MarshalTrace(nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}
