package nodes

import (
	"fmt"
	"sync/atomic"

	"github.com/Mithi83/Applied-Energistics-2/internal/compiler"
	"github.com/Mithi83/Applied-Energistics-2/internal/cpu"
	"github.com/Mithi83/Applied-Energistics-2/internal/ir"
	"github.com/Mithi83/Applied-Energistics-2/internal/registry"
)

// Provider offers a fixed set of patterns and emittable keys. Pushing a
// pattern always succeeds unless the provider is busy.
type Provider struct {
	name     string
	priority int
	patterns []*ir.Pattern
	emits    []ir.Key

	busy   atomic.Bool
	pushed atomic.Int64
}

var (
	_ registry.Provider = (*Provider)(nil)
	_ cpu.PatternPusher = (*Provider)(nil)
)

// NewProvider builds a provider from its definition.
func NewProvider(def compiler.ProviderDef) *Provider {
	p := &Provider{
		name:     def.Name,
		priority: def.Priority,
		patterns: append([]*ir.Pattern(nil), def.Patterns...),
		emits:    append([]ir.Key(nil), def.Emits...),
	}
	p.busy.Store(def.Busy)
	return p
}

// Name returns the provider's name.
func (p *Provider) Name() string { return p.name }

// PatternPriority implements registry.Provider.
func (p *Provider) PatternPriority() int { return p.priority }

// AvailablePatterns implements registry.Provider.
func (p *Provider) AvailablePatterns() []*ir.Pattern { return p.patterns }

// EmitableKeys implements registry.Provider.
func (p *Provider) EmitableKeys() []ir.Key { return p.emits }

// PushPattern implements cpu.PatternPusher.
func (p *Provider) PushPattern(*ir.Pattern) bool {
	if p.busy.Load() {
		return false
	}
	p.pushed.Add(1)
	return true
}

// SetBusy makes the provider refuse (or accept again) pattern pushes.
func (p *Provider) SetBusy(busy bool) { p.busy.Store(busy) }

// Pushed returns the number of accepted pushes.
func (p *Provider) Pushed() int64 { return p.pushed.Load() }

func (p *Provider) String() string {
	return fmt.Sprintf("provider(%s priority=%d patterns=%d)", p.name, p.priority, len(p.patterns))
}
