package testutil

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// SequentialJobIDs mints predictable version-7-shaped job ids:
// 00000000-0000-7000-8000-000000000001, ...0002, and so on.
//
// Golden traces stay byte-identical across runs because every run sees the
// same id sequence.
//
// Thread-safety: safe for concurrent use.
type SequentialJobIDs struct {
	mu sync.Mutex
	n  uint64
}

// NewSequentialJobIDs starts the sequence at 1.
func NewSequentialJobIDs() *SequentialJobIDs {
	return &SequentialJobIDs{}
}

// NewJobID returns the next id.
func (g *SequentialJobIDs) NewJobID() uuid.UUID {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return JobID(g.n)
}

// JobID returns the n-th id of the sequence.
func JobID(n uint64) uuid.UUID {
	return uuid.MustParse(fmt.Sprintf("00000000-0000-7000-8000-%012x", n))
}
