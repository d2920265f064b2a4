package planner

import (
	"github.com/Mithi83/Applied-Energistics-2/internal/ir"
)

// cycleGuard tracks the keys on the current expansion path.
//
// Recipe cycles occur when producing a key needs that key again further
// down, directly or through other recipes:
//
//	iron_block -> iron_ingot x9
//	iron_ingot -> iron_block x1 (uncraft)
//
// Expanding iron_block would recurse forever. Before descending into a key
// the planner asks wouldCycle; a key already on the path is a cycle.
//
// The guard is per calculation and not shared between goroutines.
type cycleGuard struct {
	path   []ir.Key
	onPath map[ir.Key]bool
}

func newCycleGuard() *cycleGuard {
	return &cycleGuard{onPath: make(map[ir.Key]bool)}
}

// wouldCycle reports whether k is already being expanded.
func (g *cycleGuard) wouldCycle(k ir.Key) bool {
	return g.onPath[k]
}

// enter pushes k on the path. Call only after wouldCycle returned false.
func (g *cycleGuard) enter(k ir.Key) {
	g.path = append(g.path, k)
	g.onPath[k] = true
}

// leave pops k.
func (g *cycleGuard) leave(k ir.Key) {
	g.path = g.path[:len(g.path)-1]
	delete(g.onPath, k)
}

// depth returns the current path length.
func (g *cycleGuard) depth() int { return len(g.path) }

// trail renders the path for error messages, ending with k.
func (g *cycleGuard) trail(k ir.Key) string {
	s := ""
	for _, p := range g.path {
		s += p.String() + " -> "
	}
	return s + k.String()
}
