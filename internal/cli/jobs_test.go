package cli

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mithi83/Applied-Energistics-2/internal/crafting"
	"github.com/Mithi83/Applied-Energistics-2/internal/ir"
	"github.com/Mithi83/Applied-Energistics-2/internal/store"
	"github.com/Mithi83/Applied-Energistics-2/internal/testutil"
)

// seedJournal writes two jobs, the first of them finished.
func seedJournal(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "jobs.db")
	st, err := store.Open(path)
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	for n := uint64(1); n <= 2; n++ {
		require.NoError(t, st.WriteJob(ctx, crafting.JobRecord{
			ID:        testutil.JobID(n),
			Tick:      int64(n),
			CPU:       "cpu-a",
			Request:   ir.Stack{What: ir.Item("iron_gear"), Amount: int64(n)},
			Bytes:     64,
			Requester: "assembler",
		}))
	}
	require.NoError(t, st.FinishJob(ctx, testutil.JobID(1), crafting.JobDone, 5))
	return path
}

func TestJobs_Text(t *testing.T) {
	out, err := execute(t, "jobs", "--db", seedJournal(t))
	require.NoError(t, err)

	assert.Contains(t, out, "ID")
	assert.Contains(t, out, testutil.JobID(1).String())
	assert.Contains(t, out, testutil.JobID(2).String())
	assert.Contains(t, out, "1xitem:iron_gear")
	assert.Contains(t, out, "2 job(s)")
}

func TestJobs_OpenJSON(t *testing.T) {
	out, err := execute(t, "jobs", "--db", seedJournal(t), "--open", "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   JobsResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Equal(t, 1, resp.Data.Total)
	job := resp.Data.Jobs[0]
	assert.Equal(t, testutil.JobID(2), job.ID)
	assert.Equal(t, crafting.JobRunning, job.State)
	assert.Equal(t, "assembler", job.Requester)
}

func TestJobs_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.db")
	st, err := store.Open(path)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	out, err := execute(t, "jobs", "--db", path)
	require.NoError(t, err)
	assert.Contains(t, out, "No jobs found.")

	out, err = execute(t, "jobs", "--db", path, "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"jobs": []`)
}

func TestJobs_MissingDatabase(t *testing.T) {
	out, err := execute(t, "jobs", "--db", filepath.Join(t.TempDir(), "none.db"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "database not found")
}

func TestJobs_RequiresDB(t *testing.T) {
	_, err := execute(t, "jobs")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `required flag(s) "db" not set`)
}

func TestJobs_Filters(t *testing.T) {
	db := seedJournal(t)
	tests := []struct {
		name string
		args []string
		want []ir.JobID
	}{
		{"done", []string{"--state", "done"}, []ir.JobID{testutil.JobID(1)}},
		{"open and running agree", []string{"--open", "--state", "running"}, []ir.JobID{testutil.JobID(2)}},
		{"requester", []string{"--requester", "assembler"}, []ir.JobID{testutil.JobID(1), testutil.JobID(2)}},
		{"other cpu", []string{"--cpu", "cpu-b"}, nil},
		{"limit", []string{"--limit", "1"}, []ir.JobID{testutil.JobID(1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"jobs", "--db", db, "--format", "json"}, tt.args...)
			out, err := execute(t, args...)
			require.NoError(t, err)

			var resp struct {
				Data JobsResult `json:"data"`
			}
			require.NoError(t, json.Unmarshal([]byte(out), &resp))
			var got []ir.JobID
			for _, j := range resp.Data.Jobs {
				got = append(got, j.ID)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestJobs_InvalidFilter(t *testing.T) {
	db := seedJournal(t)
	for _, args := range [][]string{
		{"--state", "paused"},
		{"--open", "--state", "done"},
		{"--limit", "-1"},
	} {
		_, err := execute(t, append([]string{"jobs", "--db", db}, args...)...)
		require.Error(t, err, args)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
		assert.Contains(t, err.Error(), "invalid filter")
	}
}
