package registry

import (
	"iter"
	"slices"
)

// providerList is the dispatch list for one pattern value.
//
// next is a rotation counter into providers. It advances once per element
// handed to a caller and resets whenever the list changes.
type providerList struct {
	providers []Provider
	next      int
}

func (l *providerList) add(p Provider) {
	l.providers = append(l.providers, p)
	l.next = 0
}

func (l *providerList) remove(p Provider) {
	if i := slices.Index(l.providers, p); i >= 0 {
		l.providers = slices.Delete(l.providers, i, i+1)
	}
	l.next = 0
}

func (l *providerList) empty() bool { return len(l.providers) == 0 }

// seq yields at most len(providers) elements starting at the rotation
// counter. Stopping early leaves the counter after the last yielded element,
// so only full drains give every provider a turn.
func (l *providerList) seq() iter.Seq[Provider] {
	return func(yield func(Provider) bool) {
		n := len(l.providers)
		for range n {
			if len(l.providers) == 0 {
				return
			}
			i := l.next % len(l.providers)
			l.next = (i + 1) % len(l.providers)
			if !yield(l.providers[i]) {
				return
			}
		}
	}
}
