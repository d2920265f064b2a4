package cpu

import (
	"cmp"
	"slices"

	"github.com/Mithi83/Applied-Energistics-2/internal/grid"
	"github.com/Mithi83/Applied-Energistics-2/internal/ir"
)

// rank is the sort key of a candidate: preference first, then
// co-processors (negated when power is prioritized), then storage.
type rank struct {
	preferred int
	coproc    int
	storage   int64
}

func rankOf(c Cluster, prioritizePower bool, src grid.ActionSource) rank {
	r := rank{coproc: c.CoProcessors(), storage: c.AvailableStorage()}
	if c.Policy().Prefers(src) {
		r.preferred = 0
	} else {
		r.preferred = 1
	}
	if prioritizePower {
		r.coproc = -r.coproc
	}
	return r
}

func compareRank(a, b rank) int {
	if c := cmp.Compare(a.preferred, b.preferred); c != 0 {
		return c
	}
	if c := cmp.Compare(a.coproc, b.coproc); c != 0 {
		return c
	}
	return cmp.Compare(a.storage, b.storage)
}

// FindSuitable picks the cluster to run plan.
//
// Clusters are filtered in order: inactive (offline), busy, too little
// storage (too small), policy rejects src (excluded). When nothing
// survives, the returned counts say why; they are nil when there were no
// clusters at all. Survivors are ranked by preference for src, then by
// co-processor count (descending with prioritizePower, ascending without),
// then by available storage ascending. Equal ranks keep input order.
func FindSuitable(clusters []Cluster, plan *ir.Plan, prioritizePower bool, src grid.ActionSource) (Cluster, *UnsuitableCPUs) {
	var u UnsuitableCPUs
	type candidate struct {
		c Cluster
		r rank
	}
	valid := make([]candidate, 0, len(clusters))
	for _, c := range clusters {
		switch {
		case !c.Active():
			u.Offline++
		case c.Busy():
			u.Busy++
		case c.AvailableStorage() < plan.Bytes:
			u.TooSmall++
		case !c.Policy().Permits(src):
			u.Excluded++
		default:
			valid = append(valid, candidate{c: c, r: rankOf(c, prioritizePower, src)})
		}
	}
	if len(valid) == 0 {
		if u.Any() {
			return nil, &u
		}
		return nil, nil
	}
	slices.SortStableFunc(valid, func(a, b candidate) int { return compareRank(a.r, b.r) })
	return valid[0].c, nil
}
