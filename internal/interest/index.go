package interest

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/Mithi83/Applied-Energistics-2/internal/ir"
)

// Channel names the tracked set a change belongs to.
type Channel string

const (
	// Craftable: a key entered or left the craftable/emittable set.
	Craftable Channel = "craftable"
	// Crafting: a key entered or left the currently-crafting set.
	Crafting Channel = "crafting"
)

// Host receives change notifications. A returned error or a panic is
// logged and does not stop delivery to other watchers.
type Host interface {
	OnCraftableChanged(key ir.Key) error
	OnCraftingChanged(key ir.Key) error
}

// FailureFunc observes a failed delivery.
type FailureFunc func(ch Channel, watcher string, key ir.Key, err error)

// Index is the multimap from key to watchers plus the set of watchers that
// observe every key. It is owned by the tick goroutine.
type Index struct {
	byKey   map[ir.Key]map[*Watch]struct{}
	all     map[*Watch]struct{}
	watches map[*Watch]struct{}
	seq     uint64

	logger    *slog.Logger
	onFailure FailureFunc
}

// Option configures an Index.
type Option func(*Index)

// WithLogger sets the logger used for delivery failures.
func WithLogger(l *slog.Logger) Option {
	return func(ix *Index) { ix.logger = l }
}

// WithFailureHook registers a callback for failed deliveries.
func WithFailureHook(fn FailureFunc) Option {
	return func(ix *Index) { ix.onFailure = fn }
}

// NewIndex creates an empty index.
func NewIndex(opts ...Option) *Index {
	ix := &Index{
		byKey:   make(map[ir.Key]map[*Watch]struct{}),
		all:     make(map[*Watch]struct{}),
		watches: make(map[*Watch]struct{}),
	}
	for _, opt := range opts {
		opt(ix)
	}
	if ix.logger == nil {
		ix.logger = slog.Default()
	}
	return ix
}

// Subscribe registers host and declares interest in keys. The returned
// Watch is the handle for later changes.
func (ix *Index) Subscribe(name string, host Host, keys ...ir.Key) *Watch {
	if host == nil {
		ir.Violation(ir.ErrCodeInvalidRequest, "nil watcher host %q", name)
	}
	ix.seq++
	w := &Watch{
		index: ix,
		name:  name,
		host:  host,
		order: ix.seq,
		keys:  make(ir.KeySet),
	}
	ix.watches[w] = struct{}{}
	for _, k := range keys {
		w.Add(k)
	}
	return w
}

// Unsubscribe removes w from every bucket. Same as w.Destroy().
func (ix *Index) Unsubscribe(w *Watch) {
	if w != nil {
		w.Destroy()
	}
}

// Empty reports whether no watcher declares any interest. Broadcasting is
// skipped entirely in that case.
func (ix *Index) Empty() bool {
	return len(ix.byKey) == 0 && len(ix.all) == 0
}

// Len returns the number of live watches.
func (ix *Index) Len() int { return len(ix.watches) }

// Watching returns the watchers bucketed under key, in subscription order.
// Watch-everything watchers are not included.
func (ix *Index) Watching(key ir.Key) []*Watch {
	return sortWatches(ix.byKey[key])
}

// Notify delivers a change of key on ch to every watcher bucketed under
// key, then to every watch-everything watcher. Returns the number of
// successful deliveries.
func (ix *Index) Notify(ch Channel, key ir.Key) int {
	delivered := 0
	for _, w := range sortWatches(ix.byKey[key]) {
		if ix.deliver(w, ch, key) {
			delivered++
		}
	}
	for _, w := range sortWatches(ix.all) {
		if ix.deliver(w, ch, key) {
			delivered++
		}
	}
	return delivered
}

// Broadcast notifies every key in changed, in order.
func (ix *Index) Broadcast(ch Channel, changed []ir.Key) int {
	if ix.Empty() {
		return 0
	}
	n := 0
	for _, k := range changed {
		n += ix.Notify(ch, k)
	}
	return n
}

func (ix *Index) deliver(w *Watch, ch Channel, key ir.Key) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ix.fail(w, ch, key, fmt.Errorf("watcher panic: %v", r))
			ok = false
		}
	}()
	var err error
	switch ch {
	case Craftable:
		err = w.host.OnCraftableChanged(key)
	case Crafting:
		err = w.host.OnCraftingChanged(key)
	default:
		err = fmt.Errorf("unknown channel %q", ch)
	}
	if err != nil {
		ix.fail(w, ch, key, err)
		return false
	}
	return true
}

func (ix *Index) fail(w *Watch, ch Channel, key ir.Key, err error) {
	ix.logger.Warn("watcher notification failed",
		"watcher", w.name,
		"channel", string(ch),
		"key", key.String(),
		"error", err)
	if ix.onFailure != nil {
		ix.onFailure(ch, w.name, key, err)
	}
}

func sortWatches(set map[*Watch]struct{}) []*Watch {
	if len(set) == 0 {
		return nil
	}
	out := make([]*Watch, 0, len(set))
	for w := range set {
		out = append(out, w)
	}
	slices.SortFunc(out, func(a, b *Watch) int {
		switch {
		case a.order < b.order:
			return -1
		case a.order > b.order:
			return 1
		}
		return 0
	})
	return out
}
