// Package jobquery describes filters over the job journal and compiles them
// to parameterized SQLite.
//
// Query and Predicate are closed: only types in this package implement
// Predicate, so the compiler and the validator can switch over every case.
//
//	Where(Equals{Field: FieldRequester, Value: "assembler"}, Running())
//
// compiles to
//
//	SELECT ... FROM jobs WHERE requester = ? AND state = ?
//	ORDER BY seq ASC, id COLLATE BINARY ASC
package jobquery

import "github.com/Mithi83/Applied-Energistics-2/internal/crafting"

// Field is a filterable journal column.
type Field string

const (
	FieldState     Field = "state"
	FieldCPU       Field = "cpu"
	FieldRequester Field = "requester"
	FieldSource    Field = "source"
)

var knownFields = map[Field]bool{
	FieldState:     true,
	FieldCPU:       true,
	FieldRequester: true,
	FieldSource:    true,
}

// Predicate is a filter condition.
type Predicate interface {
	predicateNode()
}

// Equals matches rows whose Field equals Value.
type Equals struct {
	Field Field
	Value string
}

func (Equals) predicateNode() {}

// And matches rows matching every predicate. An empty And matches
// everything.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// Query selects journaled jobs in submission order.
type Query struct {
	Filter Predicate // nil matches every job
	Limit  int       // 0 means no limit
}

// Where builds a query matching all of preds.
func Where(preds ...Predicate) Query {
	switch len(preds) {
	case 0:
		return Query{}
	case 1:
		return Query{Filter: preds[0]}
	}
	return Query{Filter: And{Predicates: preds}}
}

// InState matches jobs in state.
func InState(state crafting.JobState) Predicate {
	return Equals{Field: FieldState, Value: string(state)}
}

// Running matches jobs that have not finished.
func Running() Predicate {
	return InState(crafting.JobRunning)
}
