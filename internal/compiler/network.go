package compiler

import (
	"fmt"
	"slices"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/Mithi83/Applied-Energistics-2/internal/cpu"
	"github.com/Mithi83/Applied-Energistics-2/internal/ir"
)

// Network is a compiled network definition: everything needed to attach
// nodes to a crafting service.
type Network struct {
	Providers  []ProviderDef
	CPUs       []CPUDef
	Watchers   []WatcherDef
	Requesters []RequesterDef

	// Stock is the initial network storage.
	Stock []ir.Stack
}

// ProviderDef is a pattern provider.
type ProviderDef struct {
	Name     string
	Priority int
	Emits    []ir.Key
	Patterns []*ir.Pattern
	Pos      token.Pos

	// Global providers are mounted without a node.
	Global bool

	// Busy makes every pattern push fail, for scenarios that need a
	// stalled job.
	Busy bool
}

// CPUDef is a crafting CPU cluster.
type CPUDef struct {
	Name         string
	Storage      int64
	CoProcessors int
	Mode         cpu.SelectionMode
	Pos          token.Pos
}

// WatcherDef is a watcher node.
type WatcherDef struct {
	Name string
	Keys []ir.Key
	All  bool
	Pos  token.Pos
}

// RequesterDef is a requester node.
type RequesterDef struct {
	Name string
}

// NodeNames returns the distinct node names, sorted. A name used by
// several sections is one node with several capabilities.
func (n *Network) NodeNames() []string {
	seen := make(map[string]bool)
	var names []string
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	for _, p := range n.Providers {
		if !p.Global {
			add(p.Name)
		}
	}
	for _, c := range n.CPUs {
		add(c.Name)
	}
	for _, w := range n.Watchers {
		add(w.Name)
	}
	for _, r := range n.Requesters {
		add(r.Name)
	}
	slices.Sort(names)
	return names
}

// CompileNetwork parses a CUE value into a Network. The value is the root
// of a network definition:
//
//	providers: assembler: {
//		priority: 10
//		patterns: gear: {
//			output: {key: "item:iron_gear", amount: 1}
//			inputs: [{key: "item:iron_ingot", amount: 4}]
//		}
//	}
//	cpus: "cpu-a": {storage: 1024, coprocessors: 2}
//	watchers: terminal: {all: true}
//	requesters: interface: {}
//	stock: "item:iron_ingot": 64
//
// Sections are emitted in label order. Every section is optional.
func CompileNetwork(v cue.Value) (*Network, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	net := &Network{}
	var err error
	if net.Providers, err = compileSection(v, "providers", compileProvider); err != nil {
		return nil, err
	}
	if net.CPUs, err = compileSection(v, "cpus", compileCPU); err != nil {
		return nil, err
	}
	if net.Watchers, err = compileSection(v, "watchers", compileWatcher); err != nil {
		return nil, err
	}
	if net.Requesters, err = compileSection(v, "requesters", compileRequester); err != nil {
		return nil, err
	}
	if net.Stock, err = compileStock(v); err != nil {
		return nil, err
	}
	return net, nil
}

// compileSection compiles every field of a top-level struct, sorted by
// label so output does not depend on CUE field order.
func compileSection[T any](v cue.Value, section string, compile func(name string, v cue.Value) (T, error)) ([]T, error) {
	sv := v.LookupPath(cue.ParsePath(section))
	if !sv.Exists() {
		return nil, nil
	}
	fields, err := sortedFields(sv)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(fields))
	for _, f := range fields {
		item, err := compile(f.label, f.value)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

type field struct {
	label string
	value cue.Value
}

func sortedFields(v cue.Value) ([]field, error) {
	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var fields []field
	for iter.Next() {
		fields = append(fields, field{label: iter.Label(), value: iter.Value()})
	}
	slices.SortFunc(fields, func(a, b field) int {
		switch {
		case a.label < b.label:
			return -1
		case a.label > b.label:
			return 1
		}
		return 0
	})
	return fields, nil
}

// CompileError is a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
