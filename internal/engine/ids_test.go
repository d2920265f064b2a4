package engine

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mithi83/Applied-Energistics-2/internal/ir"
)

func TestUUIDv7Generator(t *testing.T) {
	gen := UUIDv7Generator{}
	a := gen.NewJobID()
	b := gen.NewJobID()

	assert.Equal(t, uuid.Version(7), a.Version())
	assert.NotEqual(t, a, b)

	parsed, err := ir.ParseJobID(a.String())
	require.NoError(t, err)
	assert.Equal(t, a, parsed)
}

func TestUUIDv7Generator_Concurrent(t *testing.T) {
	gen := UUIDv7Generator{}
	const n = 200

	var mu sync.Mutex
	seen := make(map[ir.JobID]bool)
	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := gen.NewJobID()
			mu.Lock()
			seen[id] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Len(t, seen, n)
}

func TestFixedGenerator(t *testing.T) {
	a := uuid.MustParse("00000000-0000-7000-8000-000000000001")
	b := uuid.MustParse("00000000-0000-7000-8000-000000000002")
	gen := NewFixedGenerator(a, b)

	assert.Equal(t, a, gen.NewJobID())
	assert.Equal(t, b, gen.NewJobID())
	assert.PanicsWithValue(t, "FixedGenerator: all job ids exhausted", func() { gen.NewJobID() })
}
