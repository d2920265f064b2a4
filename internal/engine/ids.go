package engine

import (
	"sync"

	"github.com/google/uuid"

	"github.com/Mithi83/Applied-Energistics-2/internal/ir"
)

// UUIDv7Generator mints time-sortable job ids.
//
// UUIDv7 puts a millisecond timestamp in the high bits, so journaled jobs
// sort by submission time.
//
// Thread-safety: stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// NewJobID returns a fresh UUIDv7. Panics if the system random source
// fails.
func (UUIDv7Generator) NewJobID() ir.JobID {
	return uuid.Must(uuid.NewV7())
}

// FixedGenerator hands out predetermined job ids, for golden traces.
//
// Thread-safety: safe for concurrent use.
type FixedGenerator struct {
	mu  sync.Mutex
	ids []ir.JobID
	idx int
}

// NewFixedGenerator creates a generator returning ids in order.
//
//	gen := NewFixedGenerator(a, b)
//	gen.NewJobID() // a
//	gen.NewJobID() // b
//	gen.NewJobID() // panic: all job ids exhausted
func NewFixedGenerator(ids ...ir.JobID) *FixedGenerator {
	return &FixedGenerator{ids: ids}
}

// NewJobID returns the next id. Running out is a test misconfiguration
// and panics.
func (g *FixedGenerator) NewJobID() ir.JobID {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.ids) {
		panic("FixedGenerator: all job ids exhausted")
	}
	id := g.ids[g.idx]
	g.idx++
	return id
}
