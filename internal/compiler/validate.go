package compiler

import (
	"fmt"

	"cuelang.org/go/cue/token"

	"github.com/Mithi83/Applied-Energistics-2/internal/ir"
)

// Validation error codes (E100-E199)
const (
	// Provider errors (E101-E109)
	ErrProviderEmpty      = "E101" // provider offers no patterns and emits nothing
	ErrDuplicatePattern   = "E102" // same pattern twice in one provider
	ErrDuplicateEmitKey   = "E103" // same emittable key twice in one provider
	ErrPatternSelfProduce = "E105" // a pattern consumes its own primary output

	// CPU errors (E110-E119)
	ErrCPUStorage      = "E110" // storage must be positive
	ErrCPUCoProcessors = "E111" // co-processor count must not be negative

	// Watcher and stock errors (E120-E129)
	ErrWatcherEmpty  = "E120" // watcher declares nothing
	ErrStockNegative = "E121" // stock amounts must not be negative
)

// ValidationError is one rule violation in a network definition.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

func lineOf(pos token.Pos) int {
	if pos.IsValid() {
		return pos.Line()
	}
	return 0
}

// Validate checks a compiled network. It returns every violation found
// rather than stopping at the first.
func Validate(net *Network) []ValidationError {
	var errs []ValidationError
	for _, p := range net.Providers {
		errs = append(errs, validateProvider(p)...)
	}
	for _, c := range net.CPUs {
		field := fmt.Sprintf("cpus.%s", c.Name)
		if c.Storage <= 0 {
			errs = append(errs, ValidationError{
				Field:   field + ".storage",
				Message: fmt.Sprintf("storage must be positive, got %d", c.Storage),
				Code:    ErrCPUStorage,
				Line:    lineOf(c.Pos),
			})
		}
		if c.CoProcessors < 0 {
			errs = append(errs, ValidationError{
				Field:   field + ".coprocessors",
				Message: fmt.Sprintf("co-processors must not be negative, got %d", c.CoProcessors),
				Code:    ErrCPUCoProcessors,
				Line:    lineOf(c.Pos),
			})
		}
	}
	for _, w := range net.Watchers {
		if !w.All && len(w.Keys) == 0 {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("watchers.%s", w.Name),
				Message: "watcher must declare keys or set all: true",
				Code:    ErrWatcherEmpty,
				Line:    lineOf(w.Pos),
			})
		}
	}
	for _, st := range net.Stock {
		if st.Amount < 0 {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("stock.%s", st.What),
				Message: fmt.Sprintf("amount must not be negative, got %d", st.Amount),
				Code:    ErrStockNegative,
			})
		}
	}
	return errs
}

func validateProvider(p ProviderDef) []ValidationError {
	var errs []ValidationError
	field := fmt.Sprintf("providers.%s", p.Name)
	line := lineOf(p.Pos)

	if len(p.Patterns) == 0 && len(p.Emits) == 0 {
		errs = append(errs, ValidationError{
			Field:   field,
			Message: "provider offers no patterns and emits nothing",
			Code:    ErrProviderEmpty,
			Line:    line,
		})
	}

	seen := make(map[ir.PatternID]string)
	for _, pattern := range p.Patterns {
		if prev, ok := seen[pattern.ID()]; ok {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("%s.patterns.%s", field, pattern.Name()),
				Message: fmt.Sprintf("same recipe as pattern %q", prev),
				Code:    ErrDuplicatePattern,
				Line:    line,
			})
			continue
		}
		seen[pattern.ID()] = pattern.Name()

		out := pattern.PrimaryOutput().What
		for _, in := range pattern.Inputs() {
			if in.What == out {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("%s.patterns.%s", field, pattern.Name()),
					Message: fmt.Sprintf("pattern consumes its own output %s", out),
					Code:    ErrPatternSelfProduce,
					Line:    line,
				})
				break
			}
		}
	}

	emits := make(ir.KeySet)
	for _, k := range p.Emits {
		if emits.Has(k) {
			errs = append(errs, ValidationError{
				Field:   field + ".emits",
				Message: fmt.Sprintf("key %s listed twice", k),
				Code:    ErrDuplicateEmitKey,
				Line:    line,
			})
		}
		emits.Add(k)
	}
	return errs
}
