package ir

import (
	"fmt"
	"slices"
	"strings"
)

// Stack is an amount of a key.
type Stack struct {
	What   Key   `json:"what"`
	Amount int64 `json:"amount"`
}

func (s Stack) String() string {
	return fmt.Sprintf("%dx%s", s.Amount, s.What)
}

// Actionable selects between performing an operation and only simulating it.
type Actionable int

const (
	Modulate Actionable = iota
	Simulate
)

func (a Actionable) String() string {
	if a == Simulate {
		return "simulate"
	}
	return "modulate"
}

func sortKeys(keys []Key) {
	slices.SortFunc(keys, func(a, b Key) int {
		return strings.Compare(a.String(), b.String())
	})
}

// KeySet is an unordered set of keys.
type KeySet map[Key]struct{}

// Add inserts k.
func (s KeySet) Add(k Key) { s[k] = struct{}{} }

// Has reports membership.
func (s KeySet) Has(k Key) bool {
	_, ok := s[k]
	return ok
}

// Sorted returns the members in deterministic order.
func (s KeySet) Sorted() []Key {
	out := make([]Key, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sortKeys(out)
	return out
}

// SymmetricDifference returns keys present in exactly one of a and b.
func SymmetricDifference(a, b KeySet) KeySet {
	out := make(KeySet)
	for k := range a {
		if !b.Has(k) {
			out.Add(k)
		}
	}
	for k := range b {
		if !a.Has(k) {
			out.Add(k)
		}
	}
	return out
}
