package jobquery

import (
	"errors"
	"fmt"

	"github.com/Mithi83/Applied-Energistics-2/internal/crafting"
)

// Validate reports every problem with q. It returns nil for a usable query.
func Validate(q Query) error {
	v := &validator{}
	if q.Limit < 0 {
		v.add("limit must not be negative, got %d", q.Limit)
	}
	v.predicate(q.Filter)
	return errors.Join(v.errs...)
}

type validator struct {
	errs []error
}

func (v *validator) add(format string, args ...any) {
	v.errs = append(v.errs, fmt.Errorf(format, args...))
}

func (v *validator) predicate(p Predicate) {
	switch pred := p.(type) {
	case nil:
	case Equals:
		v.equals(pred)
	case *Equals:
		v.equals(*pred)
	case And:
		for _, sub := range pred.Predicates {
			v.predicate(sub)
		}
	case *And:
		for _, sub := range pred.Predicates {
			v.predicate(sub)
		}
	default:
		v.add("unsupported predicate %T", p)
	}
}

func (v *validator) equals(eq Equals) {
	if !knownFields[eq.Field] {
		v.add("unknown field %q", eq.Field)
		return
	}
	if eq.Field != FieldState {
		return
	}
	switch crafting.JobState(eq.Value) {
	case crafting.JobRunning, crafting.JobDone, crafting.JobCanceled:
	default:
		v.add("unknown job state %q", eq.Value)
	}
}
