package interest

import (
	"github.com/Mithi83/Applied-Energistics-2/internal/ir"
)

// SetTracker remembers the last broadcast snapshot of a tracked set and
// the source stamp it was taken at.
//
// The zero value is ready to use and considers any stamp but 0 stale.
type SetTracker struct {
	current ir.KeySet
	stamp   int64
	forced  bool
}

// Stale reports whether stamp differs from the one last processed.
func (t *SetTracker) Stale(stamp int64) bool {
	return t.forced || stamp != t.stamp
}

// Invalidate forces the next Stale check to report true.
func (t *SetTracker) Invalidate() { t.forced = true }

// Mark records stamp as processed without replacing the set.
func (t *SetTracker) Mark(stamp int64) {
	t.stamp = stamp
	t.forced = false
}

// Replace installs next as the current set and returns the sorted keys
// that entered or left.
func (t *SetTracker) Replace(next ir.KeySet) []ir.Key {
	prev := t.current
	if next == nil {
		next = make(ir.KeySet)
	}
	t.current = next
	if len(prev) == 0 && len(next) == 0 {
		return nil
	}
	return ir.SymmetricDifference(prev, next).Sorted()
}

// Empty reports whether the current set is empty.
func (t *SetTracker) Empty() bool { return len(t.current) == 0 }

// Len returns the size of the current set.
func (t *SetTracker) Len() int { return len(t.current) }

// Has reports whether key is in the current set.
func (t *SetTracker) Has(key ir.Key) bool { return t.current.Has(key) }

// Keys returns the current set in sorted order.
func (t *SetTracker) Keys() []ir.Key { return t.current.Sorted() }
