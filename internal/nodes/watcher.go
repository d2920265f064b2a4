package nodes

import (
	"log/slog"
	"sync"

	"github.com/Mithi83/Applied-Energistics-2/internal/compiler"
	"github.com/Mithi83/Applied-Energistics-2/internal/crafting"
	"github.com/Mithi83/Applied-Energistics-2/internal/interest"
	"github.com/Mithi83/Applied-Energistics-2/internal/ir"
)

// ChangeFunc observes a delivered change.
type ChangeFunc func(watcher string, ch interest.Channel, key ir.Key)

// Watcher logs every change it is told about and forwards it to an
// optional ChangeFunc.
type Watcher struct {
	name     string
	keys     []ir.Key
	all      bool
	logger   *slog.Logger
	onChange ChangeFunc

	mu     sync.Mutex
	counts map[interest.Channel]int
}

var _ crafting.WatcherNode = (*Watcher)(nil)

// NewWatcher builds a watcher from its definition.
func NewWatcher(def compiler.WatcherDef, logger *slog.Logger, onChange ChangeFunc) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		name:     def.Name,
		keys:     append([]ir.Key(nil), def.Keys...),
		all:      def.All,
		logger:   logger,
		onChange: onChange,
		counts:   make(map[interest.Channel]int),
	}
}

// UpdateWatcher implements crafting.WatcherNode.
func (w *Watcher) UpdateWatcher(watch *interest.Watch) {
	watch.Reset()
	for _, k := range w.keys {
		watch.Add(k)
	}
	watch.SetWatchAll(w.all)
}

// OnCraftableChanged implements interest.Host.
func (w *Watcher) OnCraftableChanged(key ir.Key) error {
	w.observe(interest.Craftable, key)
	return nil
}

// OnCraftingChanged implements interest.Host.
func (w *Watcher) OnCraftingChanged(key ir.Key) error {
	w.observe(interest.Crafting, key)
	return nil
}

func (w *Watcher) observe(ch interest.Channel, key ir.Key) {
	w.mu.Lock()
	w.counts[ch]++
	w.mu.Unlock()

	w.logger.Debug("watcher notified",
		"watcher", w.name,
		"channel", string(ch),
		"key", key.String())
	if w.onChange != nil {
		w.onChange(w.name, ch, key)
	}
}

// Count returns how many changes were delivered on ch.
func (w *Watcher) Count(ch interest.Channel) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.counts[ch]
}
