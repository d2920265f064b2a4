// Package ws exposes the watcher index over websockets. The Bridge is an
// ordinary watch-everything watcher node; it filters each change per
// client and queues it without blocking the tick goroutine.
package ws

import (
	"encoding/json"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/Mithi83/Applied-Energistics-2/internal/crafting"
	"github.com/Mithi83/Applied-Energistics-2/internal/interest"
	"github.com/Mithi83/Applied-Energistics-2/internal/ir"
)

// DefaultQueue is the per-client outbound queue length.
const DefaultQueue = 64

// Bridge fans watcher notifications out to websocket clients.
type Bridge struct {
	clock  crafting.TickSource
	logger *slog.Logger
	queue  int

	mu      sync.Mutex
	clients map[*client]struct{}

	dropped atomic.Int64
}

var _ crafting.WatcherNode = (*Bridge)(nil)

// NewBridge creates a bridge stamping changes with clock's tick.
func NewBridge(clock crafting.TickSource, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{
		clock:   clock,
		logger:  logger,
		queue:   DefaultQueue,
		clients: make(map[*client]struct{}),
	}
}

// client is one connected subscriber.
type client struct {
	id  string
	out chan []byte

	mu   sync.Mutex
	all  bool
	keys ir.KeySet
}

func (c *client) subscribe(keys []ir.Key, all bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.all = all
	c.keys = make(ir.KeySet, len(keys))
	for _, k := range keys {
		c.keys.Add(k)
	}
}

func (c *client) wants(key ir.Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.all || c.keys.Has(key)
}

// UpdateWatcher implements crafting.WatcherNode. The bridge watches every
// key and filters per client.
func (b *Bridge) UpdateWatcher(w *interest.Watch) {
	w.SetWatchAll(true)
}

// OnCraftableChanged implements interest.Host.
func (b *Bridge) OnCraftableChanged(key ir.Key) error {
	return b.publish(interest.Craftable, key)
}

// OnCraftingChanged implements interest.Host.
func (b *Bridge) OnCraftingChanged(key ir.Key) error {
	return b.publish(interest.Crafting, key)
}

func (b *Bridge) publish(ch interest.Channel, key ir.Key) error {
	b.mu.Lock()
	targets := make([]*client, 0, len(b.clients))
	for c := range b.clients {
		if c.wants(key) {
			targets = append(targets, c)
		}
	}
	b.mu.Unlock()
	if len(targets) == 0 {
		return nil
	}

	msg, err := json.Marshal(ChangeMsg{
		Type:    TypeChange,
		Tick:    b.clock.Current(),
		Channel: string(ch),
		Key:     key.String(),
	})
	if err != nil {
		return err
	}
	for _, c := range targets {
		select {
		case c.out <- msg:
		default:
			b.dropped.Add(1)
			b.logger.Warn("websocket client queue full, dropping change",
				"client", c.id,
				"key", key.String())
		}
	}
	return nil
}

// connect registers a client with an empty subscription.
func (b *Bridge) connect(id string) *client {
	c := &client{id: id, out: make(chan []byte, b.queue), keys: make(ir.KeySet)}
	b.mu.Lock()
	b.clients[c] = struct{}{}
	b.mu.Unlock()
	b.logger.Debug("websocket client connected", "client", id)
	return c
}

func (b *Bridge) disconnect(c *client) {
	b.mu.Lock()
	delete(b.clients, c)
	b.mu.Unlock()
	b.logger.Debug("websocket client disconnected", "client", c.id)
}

// Clients returns the ids of connected clients, sorted.
func (b *Bridge) Clients() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	ids := make([]string, 0, len(b.clients))
	for c := range b.clients {
		ids = append(ids, c.id)
	}
	slices.Sort(ids)
	return ids
}

// Dropped returns the number of changes lost to full client queues.
func (b *Bridge) Dropped() int64 { return b.dropped.Load() }
