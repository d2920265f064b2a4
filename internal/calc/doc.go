// Package calc runs crafting calculations off the tick goroutine.
//
// A calculation reads an immutable Snapshot of the network and produces an
// immutable Plan or a structured *Error. It never touches live registry,
// watcher or CPU state. Results come back through a Future which the caller
// may poll, block on, or drop.
package calc
