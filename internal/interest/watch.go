package interest

import (
	"github.com/Mithi83/Applied-Energistics-2/internal/ir"
)

// Watch is one watcher's registration in an Index.
type Watch struct {
	index     *Index
	name      string
	host      Host
	order     uint64
	keys      ir.KeySet
	all       bool
	destroyed bool
}

// Name returns the watcher's name, used in logs.
func (w *Watch) Name() string { return w.name }

// Add declares interest in key.
func (w *Watch) Add(key ir.Key) {
	if w.destroyed || w.keys.Has(key) {
		return
	}
	w.keys.Add(key)
	bucket := w.index.byKey[key]
	if bucket == nil {
		bucket = make(map[*Watch]struct{})
		w.index.byKey[key] = bucket
	}
	bucket[w] = struct{}{}
}

// Remove withdraws interest in key.
func (w *Watch) Remove(key ir.Key) {
	if !w.keys.Has(key) {
		return
	}
	delete(w.keys, key)
	w.index.dropFromBucket(key, w)
}

// SetWatchAll toggles membership in the watch-everything set.
func (w *Watch) SetWatchAll(all bool) {
	if w.destroyed || w.all == all {
		return
	}
	w.all = all
	if all {
		w.index.all[w] = struct{}{}
	} else {
		delete(w.index.all, w)
	}
}

// WatchesAll reports whether w observes every key.
func (w *Watch) WatchesAll() bool { return w.all }

// Keys returns the keys w is bucketed under.
func (w *Watch) Keys() []ir.Key { return w.keys.Sorted() }

// Reset withdraws every interest but keeps the watch usable.
func (w *Watch) Reset() {
	for k := range w.keys {
		w.index.dropFromBucket(k, w)
	}
	w.keys = make(ir.KeySet)
	w.SetWatchAll(false)
}

// Destroy removes w from every bucket and from the index. Further calls
// on w are no-ops.
func (w *Watch) Destroy() {
	if w.destroyed {
		return
	}
	w.Reset()
	w.destroyed = true
	delete(w.index.watches, w)
}

func (ix *Index) dropFromBucket(key ir.Key, w *Watch) {
	bucket := ix.byKey[key]
	if bucket == nil {
		return
	}
	delete(bucket, w)
	if len(bucket) == 0 {
		delete(ix.byKey, key)
	}
}
