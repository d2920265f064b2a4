package nodes

import (
	"maps"
	"sync"

	"github.com/Mithi83/Applied-Energistics-2/internal/ir"
)

// Inventory is the network storage. It reports stock to calculation
// snapshots, supplies CPU ingredients and receives finished output.
//
// It is safe for concurrent use; the tick goroutine mutates it while
// status readers may look at it.
type Inventory struct {
	mu    sync.Mutex
	stock map[ir.Key]int64
}

// NewInventory creates storage holding initial.
func NewInventory(initial ...ir.Stack) *Inventory {
	inv := &Inventory{stock: make(map[ir.Key]int64)}
	for _, st := range initial {
		if st.Amount > 0 {
			inv.stock[st.What] += st.Amount
		}
	}
	return inv
}

// Available returns a copy of the stock table.
func (inv *Inventory) Available() map[ir.Key]int64 {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	return maps.Clone(inv.stock)
}

// Amount returns the stored amount of k.
func (inv *Inventory) Amount(k ir.Key) int64 {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	return inv.stock[k]
}

// Extract removes up to amount of k and returns what was (or, with
// ir.Simulate, would be) removed.
func (inv *Inventory) Extract(k ir.Key, amount int64, mode ir.Actionable) int64 {
	if amount <= 0 {
		return 0
	}
	inv.mu.Lock()
	defer inv.mu.Unlock()
	got := min(inv.stock[k], amount)
	if mode == ir.Modulate && got > 0 {
		if inv.stock[k] == got {
			delete(inv.stock, k)
		} else {
			inv.stock[k] -= got
		}
	}
	return got
}

// Insert stores amount of k. Storage is unbounded, so everything is
// accepted.
func (inv *Inventory) Insert(k ir.Key, amount int64, mode ir.Actionable) int64 {
	if amount <= 0 {
		return 0
	}
	if mode == ir.Modulate {
		inv.mu.Lock()
		inv.stock[k] += amount
		inv.mu.Unlock()
	}
	return amount
}

// Stacks returns the stock as stacks in key order.
func (inv *Inventory) Stacks() []ir.Stack {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	keys := make([]ir.Key, 0, len(inv.stock))
	for k := range inv.stock {
		keys = append(keys, k)
	}
	ir.SortKeys(keys)
	out := make([]ir.Stack, 0, len(keys))
	for _, k := range keys {
		out = append(out, ir.Stack{What: k, Amount: inv.stock[k]})
	}
	return out
}
