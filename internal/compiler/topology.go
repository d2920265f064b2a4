package compiler

import (
	"cuelang.org/go/cue"

	"github.com/Mithi83/Applied-Energistics-2/internal/cpu"
	"github.com/Mithi83/Applied-Energistics-2/internal/ir"
)

func compileCPU(name string, v cue.Value) (CPUDef, error) {
	c := CPUDef{Name: name, Pos: v.Pos()}
	var err error
	if c.Storage, err = optionalInt64(v, "storage"); err != nil {
		return c, err
	}
	if c.CoProcessors, err = optionalInt(v, "coprocessors"); err != nil {
		return c, err
	}
	mode, err := optionalString(v, "mode")
	if err != nil {
		return c, err
	}
	if c.Mode, err = cpu.ParseSelectionMode(mode); err != nil {
		return c, &CompileError{Field: "mode", Message: err.Error(), Pos: v.Pos()}
	}
	return c, nil
}

func compileWatcher(name string, v cue.Value) (WatcherDef, error) {
	w := WatcherDef{Name: name, Pos: v.Pos()}
	var err error
	if w.All, err = optionalBool(v, "all"); err != nil {
		return w, err
	}
	if w.Keys, err = optionalKeys(v, "keys"); err != nil {
		return w, err
	}
	return w, nil
}

func compileRequester(name string, _ cue.Value) (RequesterDef, error) {
	return RequesterDef{Name: name}, nil
}

// compileStock parses the stock section, a map from key to amount, in
// key order.
func compileStock(v cue.Value) ([]ir.Stack, error) {
	sv := v.LookupPath(cue.ParsePath("stock"))
	if !sv.Exists() {
		return nil, nil
	}
	fields, err := sortedFields(sv)
	if err != nil {
		return nil, err
	}
	out := make([]ir.Stack, 0, len(fields))
	for _, f := range fields {
		key, err := ir.ParseKey(f.label)
		if err != nil {
			return nil, &CompileError{Field: "stock", Message: err.Error(), Pos: f.value.Pos()}
		}
		amount, err := f.value.Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out = append(out, ir.Stack{What: key, Amount: amount})
	}
	return out, nil
}
