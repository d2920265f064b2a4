package ir

import "fmt"

// PatternID is the content-addressed identity of a pattern value.
// Structurally equal patterns share an ID regardless of provider.
type PatternID string

// Pattern describes one way to produce a primary output from inputs.
// Build patterns with NewPattern; the zero value is not usable.
type Pattern struct {
	id      PatternID
	name    string
	output  Stack
	inputs  []Stack
	byprods []Stack
}

// NewPattern builds an immutable pattern. Input order is preserved and
// contributes to identity, matching how recipes are declared.
func NewPattern(name string, output Stack, inputs []Stack, byproducts ...Stack) (*Pattern, error) {
	if output.What.IsZero() {
		return nil, fmt.Errorf("pattern %q: primary output key is required", name)
	}
	if output.Amount <= 0 {
		return nil, fmt.Errorf("pattern %q: primary output amount must be positive", name)
	}
	for i, in := range inputs {
		if in.What.IsZero() || in.Amount <= 0 {
			return nil, fmt.Errorf("pattern %q: input[%d] is invalid", name, i)
		}
	}
	p := &Pattern{
		name:    name,
		output:  output,
		inputs:  append([]Stack(nil), inputs...),
		byprods: append([]Stack(nil), byproducts...),
	}
	id, err := ComputePatternID(p)
	if err != nil {
		return nil, err
	}
	p.id = id
	return p, nil
}

// MustPattern is NewPattern that panics on error. For tests and fixtures.
func MustPattern(name string, output Stack, inputs []Stack, byproducts ...Stack) *Pattern {
	p, err := NewPattern(name, output, inputs, byproducts...)
	if err != nil {
		panic(err)
	}
	return p
}

func (p *Pattern) ID() PatternID         { return p.id }
func (p *Pattern) Name() string          { return p.name }
func (p *Pattern) PrimaryOutput() Stack  { return p.output }
func (p *Pattern) Inputs() []Stack       { return append([]Stack(nil), p.inputs...) }
func (p *Pattern) Byproducts() []Stack   { return append([]Stack(nil), p.byprods...) }
func (p *Pattern) Equal(o *Pattern) bool { return o != nil && p.id == o.id }

func (p *Pattern) String() string {
	return fmt.Sprintf("%s -> %s", p.name, p.output)
}
