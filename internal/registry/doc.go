// Package registry indexes the production capabilities of a network.
//
// Providers are mounted and unmounted transactionally. Mounting captures a
// frozen snapshot of the provider (priority, patterns, emittable keys) and
// indexes every contribution; unmounting removes exactly the contributions
// recorded in that snapshot, so mount followed by unmount leaves every index
// as it was.
//
// Providers is owned by the tick goroutine and is not safe for concurrent
// use. Calculations read it only through calc.Snapshot.
package registry
