package testutil

import (
	"sync"

	"github.com/Mithi83/Applied-Energistics-2/internal/interest"
	"github.com/Mithi83/Applied-Energistics-2/internal/ir"
	"github.com/Mithi83/Applied-Energistics-2/internal/link"
)

// Provider is a static pattern provider.
type Provider struct {
	Name     string
	Priority int
	Patterns []*ir.Pattern
	Emits    []ir.Key

	// Refuse makes PushPattern fail.
	Refuse bool
	Pushed int
}

func (p *Provider) PatternPriority() int             { return p.Priority }
func (p *Provider) AvailablePatterns() []*ir.Pattern { return p.Patterns }
func (p *Provider) EmitableKeys() []ir.Key           { return p.Emits }

// PushPattern records the push and accepts unless Refuse is set.
func (p *Provider) PushPattern(*ir.Pattern) bool {
	if p.Refuse {
		return false
	}
	p.Pushed++
	return true
}

// Notification is one recorded watcher callback.
type Notification struct {
	Channel interest.Channel
	Key     ir.Key
}

// Watcher records every notification. Keys are declared on attach;
// WatchAll subscribes to everything.
type Watcher struct {
	Keys     []ir.Key
	WatchAll bool

	// Panic makes every callback panic.
	Panic bool

	mu    sync.Mutex
	got   []Notification
	watch *interest.Watch
}

// UpdateWatcher declares the configured interests.
func (w *Watcher) UpdateWatcher(watch *interest.Watch) {
	w.watch = watch
	for _, k := range w.Keys {
		watch.Add(k)
	}
	watch.SetWatchAll(w.WatchAll)
}

func (w *Watcher) OnCraftableChanged(k ir.Key) error { return w.record(interest.Craftable, k) }
func (w *Watcher) OnCraftingChanged(k ir.Key) error  { return w.record(interest.Crafting, k) }

func (w *Watcher) record(ch interest.Channel, k ir.Key) error {
	if w.Panic {
		panic("watcher failure")
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.got = append(w.got, Notification{Channel: ch, Key: k})
	return nil
}

// Watch returns the registration handed to UpdateWatcher.
func (w *Watcher) Watch() *interest.Watch { return w.watch }

// Notifications returns everything recorded so far.
func (w *Watcher) Notifications() []Notification {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]Notification(nil), w.got...)
}

// Clear drops recorded notifications.
func (w *Watcher) Clear() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.got = nil
}

// Requester records job state changes and received output.
type Requester struct {
	Links []*link.Link

	mu       sync.Mutex
	changes  []*link.Link
	received map[ir.Key]int64
}

// RequestedJobs returns Links.
func (r *Requester) RequestedJobs() []*link.Link { return r.Links }

// JobStateChanged records l.
func (r *Requester) JobStateChanged(l *link.Link) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, l)
}

// InsertCrafted accepts everything.
func (r *Requester) InsertCrafted(_ *link.Link, k ir.Key, n int64, mode ir.Actionable) int64 {
	if mode == ir.Simulate {
		return n
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.received == nil {
		r.received = make(map[ir.Key]int64)
	}
	r.received[k] += n
	return n
}

// Changes returns links whose state changed, in order.
func (r *Requester) Changes() []*link.Link {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*link.Link(nil), r.changes...)
}

// Received returns the amount of k delivered.
func (r *Requester) Received(k ir.Key) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.received[k]
}

// Stock is a fixed stock table.
type Stock map[ir.Key]int64

// Available returns a copy.
func (s Stock) Available() map[ir.Key]int64 {
	out := make(map[ir.Key]int64, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Extract removes up to amount of k. Stock doubles as a CPU inventory.
func (s Stock) Extract(k ir.Key, amount int64, mode ir.Actionable) int64 {
	got := min(s[k], amount)
	if mode == ir.Modulate {
		s[k] -= got
	}
	return got
}
