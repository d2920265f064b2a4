package registry

import (
	"github.com/Mithi83/Applied-Energistics-2/internal/ir"
)

// Provider is an external production capability.
//
// Implementations must be comparable (pointer types in practice): the
// registry detects duplicate registrations by identity.
type Provider interface {
	// PatternPriority orders providers offering patterns for the same key.
	// Higher wins.
	PatternPriority() int
	// AvailablePatterns lists the patterns this provider can execute now.
	AvailablePatterns() []*ir.Pattern
	// EmitableKeys lists keys the provider produces without a recipe.
	EmitableKeys() []ir.Key
}

// providerState is the snapshot taken at mount time. Unmount walks the same
// snapshot, never the live provider, so later provider changes cannot break
// symmetry.
type providerState struct {
	provider Provider
	emitable []ir.Key
	patterns []*ir.Pattern
	priority int
	seq      int64
}

func newProviderState(p Provider, seq int64) *providerState {
	set := make(ir.KeySet)
	for _, k := range p.EmitableKeys() {
		set.Add(k)
	}
	return &providerState{
		provider: p,
		emitable: set.Sorted(),
		patterns: append([]*ir.Pattern(nil), p.AvailablePatterns()...),
		priority: p.PatternPriority(),
		seq:      seq,
	}
}

func (s *providerState) mount(r *Providers) {
	for _, k := range s.emitable {
		r.emitable[k]++
	}
	for _, p := range s.patterns {
		out := p.PrimaryOutput().What

		r.fuzzy.add(out)

		pfk := r.craftable[out]
		if pfk == nil {
			pfk = &patternsForKey{}
			r.craftable[out] = pfk
		}
		pfk.add(patternInfo{pattern: p, state: s})

		methods := r.methods[p.ID()]
		if methods == nil {
			methods = &providerList{}
			r.methods[p.ID()] = methods
		}
		methods.add(s.provider)
	}
}

func (s *providerState) unmount(r *Providers) {
	for _, k := range s.emitable {
		if r.emitable[k] <= 1 {
			delete(r.emitable, k)
		} else {
			r.emitable[k]--
		}
	}
	for _, p := range s.patterns {
		out := p.PrimaryOutput().What

		r.fuzzy.remove(out)

		if pfk := r.craftable[out]; pfk != nil {
			pfk.remove(patternInfo{pattern: p, state: s})
			if pfk.empty() {
				delete(r.craftable, out)
			}
		}

		if methods := r.methods[p.ID()]; methods != nil {
			methods.remove(s.provider)
			if methods.empty() {
				delete(r.methods, p.ID())
			}
		}
	}
}
