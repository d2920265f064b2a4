package compiler

import (
	"fmt"

	"cuelang.org/go/cue"

	"github.com/Mithi83/Applied-Energistics-2/internal/ir"
)

// compileProvider parses one entry of the providers section.
func compileProvider(name string, v cue.Value) (ProviderDef, error) {
	p := ProviderDef{Name: name, Pos: v.Pos()}
	var err error

	if p.Priority, err = optionalInt(v, "priority"); err != nil {
		return p, err
	}
	if p.Global, err = optionalBool(v, "global"); err != nil {
		return p, err
	}
	if p.Busy, err = optionalBool(v, "busy"); err != nil {
		return p, err
	}
	if p.Emits, err = optionalKeys(v, "emits"); err != nil {
		return p, err
	}

	pv := v.LookupPath(cue.ParsePath("patterns"))
	if !pv.Exists() {
		return p, nil
	}
	fields, err := sortedFields(pv)
	if err != nil {
		return p, err
	}
	for _, f := range fields {
		pattern, err := compilePattern(f.label, f.value)
		if err != nil {
			return p, err
		}
		p.Patterns = append(p.Patterns, pattern)
	}
	return p, nil
}

// compilePattern parses {output, inputs, byproducts}. Input order is kept:
// it is part of the pattern's identity.
func compilePattern(name string, v cue.Value) (*ir.Pattern, error) {
	ov := v.LookupPath(cue.ParsePath("output"))
	if !ov.Exists() {
		return nil, &CompileError{
			Field:   "output",
			Message: fmt.Sprintf("pattern %q: output is required", name),
			Pos:     v.Pos(),
		}
	}
	output, err := compileStack(ov)
	if err != nil {
		return nil, err
	}

	inputs, err := optionalStacks(v, "inputs")
	if err != nil {
		return nil, err
	}
	byproducts, err := optionalStacks(v, "byproducts")
	if err != nil {
		return nil, err
	}

	pattern, err := ir.NewPattern(name, output, inputs, byproducts...)
	if err != nil {
		return nil, &CompileError{Field: "pattern", Message: err.Error(), Pos: v.Pos()}
	}
	return pattern, nil
}

// compileStack parses {key: "kind:id", amount: n}. amount defaults to 1.
func compileStack(v cue.Value) (ir.Stack, error) {
	kv := v.LookupPath(cue.ParsePath("key"))
	if !kv.Exists() {
		return ir.Stack{}, &CompileError{Field: "key", Message: "key is required", Pos: v.Pos()}
	}
	key, err := compileKey(kv)
	if err != nil {
		return ir.Stack{}, err
	}

	amount := int64(1)
	if av := v.LookupPath(cue.ParsePath("amount")); av.Exists() {
		if amount, err = av.Int64(); err != nil {
			return ir.Stack{}, formatCUEError(err)
		}
	}
	return ir.Stack{What: key, Amount: amount}, nil
}

func compileKey(v cue.Value) (ir.Key, error) {
	s, err := v.String()
	if err != nil {
		return ir.Key{}, formatCUEError(err)
	}
	key, err := ir.ParseKey(s)
	if err != nil {
		return ir.Key{}, &CompileError{Field: "key", Message: err.Error(), Pos: v.Pos()}
	}
	return key, nil
}

func optionalStacks(v cue.Value, path string) ([]ir.Stack, error) {
	lv := v.LookupPath(cue.ParsePath(path))
	if !lv.Exists() {
		return nil, nil
	}
	iter, err := lv.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []ir.Stack
	for iter.Next() {
		st, err := compileStack(iter.Value())
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}

func optionalKeys(v cue.Value, path string) ([]ir.Key, error) {
	lv := v.LookupPath(cue.ParsePath(path))
	if !lv.Exists() {
		return nil, nil
	}
	iter, err := lv.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []ir.Key
	for iter.Next() {
		k, err := compileKey(iter.Value())
		if err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, nil
}

func optionalInt(v cue.Value, path string) (int, error) {
	iv := v.LookupPath(cue.ParsePath(path))
	if !iv.Exists() {
		return 0, nil
	}
	n, err := iv.Int64()
	if err != nil {
		return 0, formatCUEError(err)
	}
	return int(n), nil
}

func optionalInt64(v cue.Value, path string) (int64, error) {
	iv := v.LookupPath(cue.ParsePath(path))
	if !iv.Exists() {
		return 0, nil
	}
	n, err := iv.Int64()
	if err != nil {
		return 0, formatCUEError(err)
	}
	return n, nil
}

func optionalBool(v cue.Value, path string) (bool, error) {
	bv := v.LookupPath(cue.ParsePath(path))
	if !bv.Exists() {
		return false, nil
	}
	b, err := bv.Bool()
	if err != nil {
		return false, formatCUEError(err)
	}
	return b, nil
}

func optionalString(v cue.Value, path string) (string, error) {
	sv := v.LookupPath(cue.ParsePath(path))
	if !sv.Exists() {
		return "", nil
	}
	s, err := sv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}
