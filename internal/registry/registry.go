package registry

import (
	"iter"
	"slices"

	"github.com/Mithi83/Applied-Energistics-2/internal/grid"
	"github.com/Mithi83/Applied-Energistics-2/internal/ir"
)

// Providers tracks the crafting patterns and emittable keys of a network.
//
// INVARIANTS:
//   - a per-key pattern set or dispatch list is never left empty; it is
//     pruned on the unmount that empties it
//   - a provider identity is mounted at most once, either on a node or
//     globally
//   - LastModified strictly increases on every mount and unmount
type Providers struct {
	nodes   map[grid.NodeID]*providerState
	globals []*providerState

	methods   map[ir.PatternID]*providerList
	craftable map[ir.Key]*patternsForKey
	fuzzy     fuzzyCounter
	emitable  map[ir.Key]int

	mods int64
}

// New creates an empty registry.
func New() *Providers {
	return &Providers{
		nodes:     make(map[grid.NodeID]*providerState),
		methods:   make(map[ir.PatternID]*providerList),
		craftable: make(map[ir.Key]*patternsForKey),
		fuzzy:     newFuzzyCounter(),
		emitable:  make(map[ir.Key]int),
	}
}

// AddNodeProvider mounts p on behalf of node.
//
// Panics with a DUPLICATE_PROVIDER contract error if node already has a
// mounted provider or p is already mounted anywhere. State is unchanged
// when it panics.
func (r *Providers) AddNodeProvider(node grid.NodeID, p Provider) {
	if p == nil {
		ir.Violation(ir.ErrCodeInvalidRequest, "nil provider for node %s", node)
	}
	if _, dup := r.nodes[node]; dup {
		ir.Violation(ir.ErrCodeDuplicateProvider, "duplicate crafting provider registration for node %s", node)
	}
	r.checkUnique(p)
	s := r.newState(p)
	s.mount(r)
	r.nodes[node] = s
}

// RemoveNodeProvider unmounts the provider of node. Reports whether one
// was mounted.
func (r *Providers) RemoveNodeProvider(node grid.NodeID) bool {
	s, ok := r.nodes[node]
	if !ok {
		return false
	}
	delete(r.nodes, node)
	s.unmount(r)
	r.touch()
	return true
}

// HasNodeProvider reports whether node has a mounted provider.
func (r *Providers) HasNodeProvider(node grid.NodeID) bool {
	_, ok := r.nodes[node]
	return ok
}

// AddGlobalProvider mounts a provider that has no node of its own.
func (r *Providers) AddGlobalProvider(p Provider) {
	if p == nil {
		ir.Violation(ir.ErrCodeInvalidRequest, "nil global provider")
	}
	r.checkUnique(p)
	s := r.newState(p)
	s.mount(r)
	r.globals = append(r.globals, s)
}

// RemoveGlobalProvider unmounts a global provider. Reports whether it was
// mounted.
func (r *Providers) RemoveGlobalProvider(p Provider) bool {
	i := slices.IndexFunc(r.globals, func(s *providerState) bool { return s.provider == p })
	if i < 0 {
		return false
	}
	s := r.globals[i]
	r.globals = slices.Delete(r.globals, i, i+1)
	s.unmount(r)
	r.touch()
	return true
}

func (r *Providers) checkUnique(p Provider) {
	for node, s := range r.nodes {
		if s.provider == p {
			ir.Violation(ir.ErrCodeDuplicateProvider, "provider already mounted on node %s", node)
		}
	}
	r.checkGlobal(p)
}

// CheckUnique panics with a DUPLICATE_PROVIDER contract error if p is
// mounted anywhere but on node. It changes nothing, so callers can check
// before they start mutating.
func (r *Providers) CheckUnique(node grid.NodeID, p Provider) {
	for other, s := range r.nodes {
		if other != node && s.provider == p {
			ir.Violation(ir.ErrCodeDuplicateProvider, "provider already mounted on node %s", other)
		}
	}
	r.checkGlobal(p)
}

func (r *Providers) checkGlobal(p Provider) {
	for _, s := range r.globals {
		if s.provider == p {
			ir.Violation(ir.ErrCodeDuplicateProvider, "duplicate global crafting provider registration")
		}
	}
}

func (r *Providers) newState(p Provider) *providerState {
	return newProviderState(p, r.touch())
}

func (r *Providers) touch() int64 {
	r.mods++
	return r.mods
}

// LastModified is the registry's modification stamp. Any mount or unmount
// advances it.
func (r *Providers) LastModified() int64 { return r.mods }

// Craftables returns every key with at least one pattern or emittable
// registration that passes filter.
func (r *Providers) Craftables(filter ir.Filter) ir.KeySet {
	out := make(ir.KeySet, len(r.craftable)+len(r.emitable))
	for k := range r.craftable {
		if filter.Matches(k) {
			out.Add(k)
		}
	}
	for k := range r.emitable {
		if _, seen := r.craftable[k]; seen {
			continue
		}
		if filter.Matches(k) {
			out.Add(k)
		}
	}
	return out
}

// Empty reports whether nothing is craftable or emittable.
func (r *Providers) Empty() bool {
	return len(r.craftable) == 0 && len(r.emitable) == 0
}

// CraftingFor returns the patterns producing key, highest provider
// priority first, each structurally distinct pattern once. The result is
// never nil and must not be modified; repeated calls without an
// intervening mutation return the same slice.
func (r *Providers) CraftingFor(key ir.Key) []*ir.Pattern {
	pfk := r.craftable[key]
	if pfk == nil {
		return []*ir.Pattern{}
	}
	return pfk.sortedPatterns()
}

// FuzzyCraftable returns the first craftable key equal to key when
// secondary attributes are ignored and accepted by filter.
func (r *Providers) FuzzyCraftable(key ir.Key, filter ir.Filter) (ir.Key, bool) {
	for _, k := range r.fuzzy.find(key) {
		if filter.Matches(k) {
			return k, true
		}
	}
	return ir.Key{}, false
}

// CanEmitFor reports whether some mounted provider emits key directly.
func (r *Providers) CanEmitFor(key ir.Key) bool {
	_, ok := r.emitable[key]
	return ok
}

// Mediums returns the providers able to execute exactly pattern, in
// round-robin order. Each element consumed advances the rotation, so
// repeated full drains start from the same provider while partial drains
// shift the start.
func (r *Providers) Mediums(pattern *ir.Pattern) iter.Seq[Provider] {
	if pattern == nil {
		return func(func(Provider) bool) {}
	}
	l := r.methods[pattern.ID()]
	if l == nil {
		return func(func(Provider) bool) {}
	}
	return l.seq()
}

// Stats summarizes index sizes, for logging and metrics.
type Stats struct {
	NodeProviders   int
	GlobalProviders int
	CraftableKeys   int
	EmitableKeys    int
	PatternValues   int
	FuzzyKeys       int
}

// Stats returns current index sizes.
func (r *Providers) Stats() Stats {
	return Stats{
		NodeProviders:   len(r.nodes),
		GlobalProviders: len(r.globals),
		CraftableKeys:   len(r.craftable),
		EmitableKeys:    len(r.emitable),
		PatternValues:   len(r.methods),
		FuzzyKeys:       r.fuzzy.len(),
	}
}
