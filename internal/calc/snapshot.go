package calc

import (
	"maps"

	"github.com/Mithi83/Applied-Energistics-2/internal/ir"
)

// Source is the read side of the provider registry.
type Source interface {
	LastModified() int64
	Craftables(filter ir.Filter) ir.KeySet
	CraftingFor(key ir.Key) []*ir.Pattern
	CanEmitFor(key ir.Key) bool
}

// Topology is a frozen copy of the registry's patterns and emittable keys
// at one modification stamp.
type Topology struct {
	stamp    int64
	patterns map[ir.Key][]*ir.Pattern
	emitable ir.KeySet
}

// CaptureTopology copies everything a calculation needs out of src. It
// must run on the goroutine that owns src.
func CaptureTopology(src Source) *Topology {
	t := &Topology{
		stamp:    src.LastModified(),
		patterns: make(map[ir.Key][]*ir.Pattern),
		emitable: make(ir.KeySet),
	}
	for k := range src.Craftables(nil) {
		if src.CanEmitFor(k) {
			t.emitable.Add(k)
		}
		if ps := src.CraftingFor(k); len(ps) > 0 {
			t.patterns[k] = append([]*ir.Pattern(nil), ps...)
		}
	}
	return t
}

// Stamp is the registry stamp the topology was captured at.
func (t *Topology) Stamp() int64 { return t.stamp }

// Snapshot is what a calculation sees: topology plus available stock.
type Snapshot struct {
	topo  *Topology
	stock map[ir.Key]int64
}

// NewSnapshot pairs a topology with a private copy of stock.
func NewSnapshot(topo *Topology, stock map[ir.Key]int64) *Snapshot {
	if topo == nil {
		topo = &Topology{patterns: map[ir.Key][]*ir.Pattern{}, emitable: ir.KeySet{}}
	}
	return &Snapshot{topo: topo, stock: maps.Clone(stock)}
}

// Topology returns the shared, immutable topology.
func (s *Snapshot) Topology() *Topology { return s.topo }

// PatternsFor returns patterns producing key, best first.
func (s *Snapshot) PatternsFor(key ir.Key) []*ir.Pattern { return s.topo.patterns[key] }

// CanEmit reports whether key is emitted without a recipe.
func (s *Snapshot) CanEmit(key ir.Key) bool { return s.topo.emitable.Has(key) }

// Available returns the stored amount of key.
func (s *Snapshot) Available(key ir.Key) int64 { return s.stock[key] }

// Stock returns a copy of the stock table.
func (s *Snapshot) Stock() map[ir.Key]int64 { return maps.Clone(s.stock) }

// TopologyCache reuses a captured topology while the source stamp is
// unchanged. Owned by the tick goroutine.
type TopologyCache struct {
	topo *Topology
}

// Get returns the cached topology, recapturing it if src moved on.
func (c *TopologyCache) Get(src Source) *Topology {
	if c.topo == nil || c.topo.stamp != src.LastModified() {
		c.topo = CaptureTopology(src)
	}
	return c.topo
}
