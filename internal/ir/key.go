package ir

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// KeyKind distinguishes the storage channel a key lives in.
type KeyKind string

const (
	KindItem  KeyKind = "item"
	KindFluid KeyKind = "fluid"
)

// Key identifies something that can be stored or produced.
//
// ID names the type ("iron_gear"); Variant carries secondary attributes
// such as damage or tag data. Two keys are equal only if all three fields
// are equal. Key is comparable and safe to use as a map key.
type Key struct {
	Kind    KeyKind `json:"kind"`
	ID      string  `json:"id"`
	Variant string  `json:"variant,omitempty"`
}

// FuzzyKey is a Key with its secondary attributes stripped.
type FuzzyKey struct {
	Kind KeyKind
	ID   string
}

// NewKey builds a key with NFC-normalized identifiers, so visually equal
// names coming from different sources index to the same bucket.
func NewKey(kind KeyKind, id, variant string) Key {
	return Key{
		Kind:    kind,
		ID:      norm.NFC.String(id),
		Variant: norm.NFC.String(variant),
	}
}

// Item is shorthand for NewKey(KindItem, id, "").
func Item(id string) Key { return NewKey(KindItem, id, "") }

// Fluid is shorthand for NewKey(KindFluid, id, "").
func Fluid(id string) Key { return NewKey(KindFluid, id, "") }

// WithVariant returns a copy of k carrying the given variant.
func (k Key) WithVariant(variant string) Key {
	return NewKey(k.Kind, k.ID, variant)
}

// Fuzzy returns the key with secondary attributes ignored.
func (k Key) Fuzzy() FuzzyKey {
	return FuzzyKey{Kind: k.Kind, ID: k.ID}
}

// IsZero reports whether k is the zero key.
func (k Key) IsZero() bool {
	return k == Key{}
}

// String renders "kind:id" or "kind:id#variant".
func (k Key) String() string {
	if k.Variant == "" {
		return string(k.Kind) + ":" + k.ID
	}
	return string(k.Kind) + ":" + k.ID + "#" + k.Variant
}

// ParseKey parses the String form. A missing kind defaults to item.
func ParseKey(s string) (Key, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Key{}, fmt.Errorf("parse key: empty")
	}
	kind := KindItem
	rest := s
	if i := strings.IndexByte(s, ':'); i >= 0 {
		kind = KeyKind(s[:i])
		rest = s[i+1:]
	}
	switch kind {
	case KindItem, KindFluid:
	default:
		return Key{}, fmt.Errorf("parse key %q: unknown kind %q", s, kind)
	}
	id, variant, _ := strings.Cut(rest, "#")
	if id == "" {
		return Key{}, fmt.Errorf("parse key %q: empty id", s)
	}
	return NewKey(kind, id, variant), nil
}

// Filter restricts a key set. A nil Filter matches everything.
type Filter func(Key) bool

// Matches applies the filter, treating nil as match-all.
func (f Filter) Matches(k Key) bool {
	return f == nil || f(k)
}

// AnyKey matches every key.
func AnyKey(Key) bool { return true }

// KindFilter matches keys of a single kind.
func KindFilter(kind KeyKind) Filter {
	return func(k Key) bool { return k.Kind == kind }
}

// SortKeys orders keys by their string form, for deterministic output.
func SortKeys(keys []Key) {
	sortKeys(keys)
}
