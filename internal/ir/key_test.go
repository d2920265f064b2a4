package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKey(t *testing.T) {
	tests := []struct {
		in   string
		want Key
	}{
		{"item:iron_gear", Key{Kind: KindItem, ID: "iron_gear"}},
		{"iron_gear", Key{Kind: KindItem, ID: "iron_gear"}},
		{"fluid:water", Key{Kind: KindFluid, ID: "water"}},
		{"item:pickaxe#damage=3", Key{Kind: KindItem, ID: "pickaxe", Variant: "damage=3"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseKey(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, mustParse(t, got.String()), "String must round-trip")
		})
	}
}

func TestParseKey_Invalid(t *testing.T) {
	for _, in := range []string{"", "gas:steam", "item:", "item:#x"} {
		_, err := ParseKey(in)
		assert.Error(t, err, "input %q", in)
	}
}

func TestKey_NFCNormalization(t *testing.T) {
	// "é" precomposed vs "e" + combining acute accent.
	composed := Item("caf\u00e9")
	decomposed := Item("cafe\u0301")
	assert.Equal(t, composed, decomposed)
}

func TestKey_Fuzzy(t *testing.T) {
	a := Item("pickaxe").WithVariant("damage=1")
	b := Item("pickaxe").WithVariant("damage=9")

	assert.NotEqual(t, a, b, "exact equality must see the variant")
	assert.Equal(t, a.Fuzzy(), b.Fuzzy(), "fuzzy equality ignores the variant")
	assert.NotEqual(t, a.Fuzzy(), Fluid("pickaxe").Fuzzy())
}

func TestFilter_NilMatchesAll(t *testing.T) {
	var f Filter
	assert.True(t, f.Matches(Item("x")))
	assert.False(t, KindFilter(KindFluid).Matches(Item("x")))
	assert.True(t, Filter(AnyKey).Matches(Fluid("water")))
}

func TestSymmetricDifference(t *testing.T) {
	a := KeySet{Item("a"): {}, Item("b"): {}}
	b := KeySet{Item("b"): {}, Item("c"): {}}

	diff := SymmetricDifference(a, b)
	assert.Equal(t, []Key{Item("a"), Item("c")}, diff.Sorted())
	assert.Empty(t, SymmetricDifference(a, a))
}

func mustParse(t *testing.T, s string) Key {
	t.Helper()
	k, err := ParseKey(s)
	require.NoError(t, err)
	return k
}
