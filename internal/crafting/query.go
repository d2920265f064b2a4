package crafting

import (
	"iter"
	"slices"

	"github.com/Mithi83/Applied-Energistics-2/internal/cpu"
	"github.com/Mithi83/Applied-Energistics-2/internal/ir"
	"github.com/Mithi83/Applied-Energistics-2/internal/link"
	"github.com/Mithi83/Applied-Energistics-2/internal/registry"
)

// Craftables returns every craftable or emittable key accepted by filter.
func (s *Service) Craftables(filter ir.Filter) ir.KeySet {
	return s.providers.Craftables(filter)
}

// CraftingFor returns the patterns producing key, best first.
func (s *Service) CraftingFor(key ir.Key) []*ir.Pattern {
	return s.providers.CraftingFor(key)
}

// FuzzyCraftable suggests a craftable key equal to key ignoring secondary
// attributes.
func (s *Service) FuzzyCraftable(key ir.Key, filter ir.Filter) (ir.Key, bool) {
	return s.providers.FuzzyCraftable(key, filter)
}

// CanEmitFor reports whether key is emitted without a recipe.
func (s *Service) CanEmitFor(key ir.Key) bool {
	return s.providers.CanEmitFor(key)
}

// Mediums returns the providers that can execute pattern, round-robin.
func (s *Service) Mediums(pattern *ir.Pattern) iter.Seq[registry.Provider] {
	return s.providers.Mediums(pattern)
}

// IsRequesting reports whether some cluster is waiting for key, as of the
// last crafting-set refresh.
func (s *Service) IsRequesting(key ir.Key) bool {
	return s.crafting.Has(key)
}

// IsRequestingAny reports whether any cluster is waiting for anything.
func (s *Service) IsRequestingAny() bool {
	return !s.crafting.Empty()
}

// RequestedAmount sums what every cluster waits for of key.
func (s *Service) RequestedAmount(key ir.Key) int64 {
	var n int64
	for _, c := range s.clusters {
		n += c.WaitingAmount(key)
	}
	return n
}

// ActiveCPUs lists clusters that are powered and intact.
func (s *Service) ActiveCPUs() []cpu.Cluster {
	out := make([]cpu.Cluster, 0, len(s.clusters))
	for _, c := range s.clusters {
		if c.Active() && !c.Destroyed() {
			out = append(out, c)
		}
	}
	return out
}

// Clusters lists every live cluster.
func (s *Service) Clusters() []cpu.Cluster {
	return slices.Clone(s.clusters)
}

// InsertIntoCPUs offers amount of key to every cluster in turn and
// returns how much was accepted in total.
func (s *Service) InsertIntoCPUs(key ir.Key, amount int64, mode ir.Actionable) int64 {
	var inserted int64
	for _, c := range s.clusters {
		if inserted >= amount {
			break
		}
		inserted += c.Insert(key, amount-inserted, mode)
	}
	return inserted
}

// Nexus returns the link nexus of a job.
func (s *Service) Nexus(id ir.JobID) (*link.Nexus, bool) {
	return s.tracker.Get(id)
}

// CurrentlyCrafting returns the keys of the last crafting-set refresh.
func (s *Service) CurrentlyCrafting() []ir.Key { return s.crafting.Keys() }

// CurrentlyCraftable returns the keys of the last craftable-set refresh.
func (s *Service) CurrentlyCraftable() []ir.Key { return s.craftable.Keys() }
