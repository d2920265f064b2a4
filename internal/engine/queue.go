package engine

import (
	"sync"

	"github.com/Mithi83/Applied-Energistics-2/internal/crafting"
)

// Command is a unit of work applied to the Service on the tick goroutine.
type Command func(svc *crafting.Service)

// commandQueue is an unbounded FIFO of commands.
//
// Enqueue is safe from any goroutine; only the Run loop dequeues, once
// per tick.
type commandQueue struct {
	mu     sync.Mutex
	cmds   []Command
	closed bool
}

func newCommandQueue() *commandQueue {
	return &commandQueue{cmds: make([]Command, 0, 16)}
}

// Enqueue appends cmd. Returns false once the queue is closed.
func (q *commandQueue) Enqueue(cmd Command) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.cmds = append(q.cmds, cmd)
	return true
}

// TryDequeue removes the front command without blocking.
func (q *commandQueue) TryDequeue() (Command, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.cmds) == 0 {
		return nil, false
	}
	cmd := q.cmds[0]
	// Release the closure so the backing array does not pin it.
	q.cmds[0] = nil
	if len(q.cmds) == 1 {
		q.cmds = q.cmds[:0]
	} else {
		q.cmds = q.cmds[1:]
	}
	return cmd, true
}

// Len returns the number of pending commands.
func (q *commandQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.cmds)
}

// Close rejects further enqueues. Pending commands stay dequeueable.
func (q *commandQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
}
