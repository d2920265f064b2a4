// Package interest maps production keys to the watchers interested in them
// and broadcasts set changes.
//
// A watcher appears under a key if and only if it last declared interest in
// that key. Removal is explicit: Watch.Destroy removes the watcher from every
// bucket it occupies.
package interest
