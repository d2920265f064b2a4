package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Mithi83/Applied-Energistics-2/internal/crafting"
	"github.com/Mithi83/Applied-Energistics-2/internal/ir"
	"github.com/Mithi83/Applied-Energistics-2/internal/testutil"
)

// createTestStore opens a file-backed journal in a temp dir.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "jobs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRecord builds a job record for the n-th sequential job id.
func createTestRecord(n uint64, requester string) crafting.JobRecord {
	return crafting.JobRecord{
		ID:         testutil.JobID(n),
		Tick:       int64(n * 10),
		CPU:        "cpu-a",
		Source:     "machine:interface",
		Request:    ir.Stack{What: ir.Item("iron_gear"), Amount: int64(n)},
		Bytes:      64 + int64(n),
		Requester:  requester,
		PlanDigest: "digest",
	}
}
