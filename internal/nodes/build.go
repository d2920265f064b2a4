package nodes

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/Mithi83/Applied-Energistics-2/internal/compiler"
	"github.com/Mithi83/Applied-Energistics-2/internal/cpu"
	"github.com/Mithi83/Applied-Energistics-2/internal/crafting"
	"github.com/Mithi83/Applied-Energistics-2/internal/grid"
	"github.com/Mithi83/Applied-Energistics-2/internal/ir"
)

// Grid is the set of nodes built from one network definition.
type Grid struct {
	Inventory  *Inventory
	Providers  map[string]*Provider
	Watchers   map[string]*Watcher
	Requesters map[string]*Requester
	CPUs       map[string]*cpu.SimCluster

	nodes   []*grid.Node
	globals []*Provider
}

type buildConfig struct {
	logger   *slog.Logger
	onChange ChangeFunc
}

// BuildOption configures Build.
type BuildOption func(*buildConfig)

// WithLogger sets the logger handed to every node.
func WithLogger(l *slog.Logger) BuildOption {
	return func(c *buildConfig) { c.logger = l }
}

// WithChangeFunc forwards every watcher notification to fn.
func WithChangeFunc(fn ChangeFunc) BuildOption {
	return func(c *buildConfig) { c.onChange = fn }
}

// Build creates the nodes of net. Sections sharing a name become one node
// carrying several capabilities. Nothing is attached until Attach.
func Build(net *compiler.Network, opts ...BuildOption) *Grid {
	cfg := buildConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}

	g := &Grid{
		Inventory:  NewInventory(net.Stock...),
		Providers:  make(map[string]*Provider),
		Watchers:   make(map[string]*Watcher),
		Requesters: make(map[string]*Requester),
		CPUs:       make(map[string]*cpu.SimCluster),
	}

	for _, def := range net.Providers {
		p := NewProvider(def)
		g.Providers[def.Name] = p
		if def.Global {
			g.globals = append(g.globals, p)
		}
	}
	for _, def := range net.CPUs {
		g.CPUs[def.Name] = cpu.NewSimCluster(cpu.SimConfig{
			Name:         def.Name,
			Storage:      def.Storage,
			CoProcessors: def.CoProcessors,
			Mode:         def.Mode,
			Inventory:    g.Inventory,
			Logger:       cfg.logger,
		})
	}
	for _, def := range net.Watchers {
		g.Watchers[def.Name] = NewWatcher(def, cfg.logger, cfg.onChange)
	}
	for _, def := range net.Requesters {
		g.Requesters[def.Name] = NewRequester(def.Name, g.Inventory, cfg.logger)
	}

	for _, name := range net.NodeNames() {
		n := grid.NewNode(grid.NodeID(name))
		if p, ok := g.Providers[name]; ok && !slices.Contains(g.globals, p) {
			n.With(grid.CapProvider, p)
		}
		if c, ok := g.CPUs[name]; ok {
			n.With(grid.CapCPU, cpu.Cluster(c))
		}
		if w, ok := g.Watchers[name]; ok {
			n.With(grid.CapWatcher, crafting.WatcherNode(w))
		}
		if r, ok := g.Requesters[name]; ok {
			n.With(grid.CapRequester, r)
		}
		g.nodes = append(g.nodes, n)
	}
	return g
}

// Nodes returns the built nodes in name order.
func (g *Grid) Nodes() []*grid.Node { return slices.Clone(g.nodes) }

// Node returns the built node named name.
func (g *Grid) Node(name string) (*grid.Node, bool) {
	i := slices.IndexFunc(g.nodes, func(n *grid.Node) bool { return string(n.ID()) == name })
	if i < 0 {
		return nil, false
	}
	return g.nodes[i], true
}

// Attach mounts global providers and attaches every node to svc. Must run
// on the tick goroutine.
func (g *Grid) Attach(svc *crafting.Service) {
	for _, p := range g.globals {
		svc.AddGlobalProvider(p)
	}
	for _, n := range g.nodes {
		svc.AddNode(n)
	}
}

// Detach removes every node and global provider from svc.
func (g *Grid) Detach(svc *crafting.Service) {
	for _, n := range g.nodes {
		svc.RemoveNode(n.ID())
	}
	for _, p := range g.globals {
		svc.RemoveGlobalProvider(p)
	}
}

// Requester returns the requester named name, or an error listing the
// known requesters.
func (g *Grid) Requester(name string) (*Requester, error) {
	if r, ok := g.Requesters[name]; ok {
		return r, nil
	}
	known := make([]string, 0, len(g.Requesters))
	for n := range g.Requesters {
		known = append(known, n)
	}
	slices.Sort(known)
	return nil, fmt.Errorf("unknown requester %q (known: %v)", name, known)
}

// Stock returns the inventory contents.
func (g *Grid) Stock() []ir.Stack { return g.Inventory.Stacks() }
