// Package crafting implements the network crafting service.
//
// The Service indexes providers, tracks watchers, schedules jobs onto CPU
// clusters, and keeps job links alive across topology churn. Every method
// except the calculation itself must be called from the goroutine that
// drives Tick; engine.Engine provides that goroutine.
//
// Per tick, in order:
//  1. rebuild the cluster list if a CPU node attached or detached
//  2. prune dead job links
//  3. drive every cluster once
//  4. rediff the currently-crafting set if any cluster changed
//  5. rediff the craftable set if the provider registry changed
package crafting
