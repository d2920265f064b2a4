package registry

import (
	"github.com/Mithi83/Applied-Energistics-2/internal/ir"
)

// fuzzyCounter counts pattern outputs grouped by fuzzy key, for alternative
// lookups that ignore secondary attributes.
type fuzzyCounter struct {
	groups map[ir.FuzzyKey]map[ir.Key]int
}

func newFuzzyCounter() fuzzyCounter {
	return fuzzyCounter{groups: make(map[ir.FuzzyKey]map[ir.Key]int)}
}

func (c fuzzyCounter) add(k ir.Key) {
	g := c.groups[k.Fuzzy()]
	if g == nil {
		g = make(map[ir.Key]int)
		c.groups[k.Fuzzy()] = g
	}
	g[k]++
}

func (c fuzzyCounter) remove(k ir.Key) {
	g := c.groups[k.Fuzzy()]
	if g == nil {
		return
	}
	if g[k] <= 1 {
		delete(g, k)
	} else {
		g[k]--
	}
	if len(g) == 0 {
		delete(c.groups, k.Fuzzy())
	}
}

// find returns keys fuzzily equal to k in deterministic order.
func (c fuzzyCounter) find(k ir.Key) []ir.Key {
	g := c.groups[k.Fuzzy()]
	if len(g) == 0 {
		return nil
	}
	out := make([]ir.Key, 0, len(g))
	for key := range g {
		out = append(out, key)
	}
	ir.SortKeys(out)
	return out
}

func (c fuzzyCounter) len() int {
	n := 0
	for _, g := range c.groups {
		n += len(g)
	}
	return n
}
