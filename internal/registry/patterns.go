package registry

import (
	"cmp"
	"slices"

	"github.com/Mithi83/Applied-Energistics-2/internal/ir"
)

// patternInfo pairs a pattern with the mount that contributed it. The same
// pattern value from two providers yields two distinct infos.
type patternInfo struct {
	pattern *ir.Pattern
	state   *providerState
}

// patternsForKey holds every (pattern, provider) pair producing one key and
// a lazily sorted, deduplicated view of the patterns.
type patternsForKey struct {
	infos        []patternInfo
	sorted       []*ir.Pattern
	needsSorting bool
}

func (p *patternsForKey) add(info patternInfo) {
	p.infos = append(p.infos, info)
	p.needsSorting = true
}

// remove drops the info contributed by exactly this mount.
func (p *patternsForKey) remove(info patternInfo) {
	for i, cur := range p.infos {
		if cur.pattern == info.pattern && cur.state == info.state {
			p.infos = slices.Delete(p.infos, i, i+1)
			p.needsSorting = true
			return
		}
	}
}

func (p *patternsForKey) empty() bool { return len(p.infos) == 0 }

// sortedPatterns returns patterns by descending provider priority, mount
// order breaking ties, with structurally equal patterns listed once.
func (p *patternsForKey) sortedPatterns() []*ir.Pattern {
	if !p.needsSorting {
		return p.sorted
	}
	infos := slices.Clone(p.infos)
	slices.SortStableFunc(infos, func(a, b patternInfo) int {
		if c := cmp.Compare(b.state.priority, a.state.priority); c != 0 {
			return c
		}
		return cmp.Compare(a.state.seq, b.state.seq)
	})
	seen := make(map[ir.PatternID]struct{}, len(infos))
	sorted := make([]*ir.Pattern, 0, len(infos))
	for _, info := range infos {
		if _, dup := seen[info.pattern.ID()]; dup {
			continue
		}
		seen[info.pattern.ID()] = struct{}{}
		sorted = append(sorted, info.pattern)
	}
	p.sorted = sorted
	p.needsSorting = false
	return p.sorted
}
