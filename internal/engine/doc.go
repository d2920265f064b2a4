// Package engine drives a crafting service at a fixed tick cadence.
//
// ARCHITECTURE:
//
// Single-Writer Tick Loop:
// The Service is not safe for concurrent use. Every mutation runs on the
// goroutine that calls Engine.Run, which makes behavior reproducible:
// - commands apply in the order they were enqueued
// - ticks are numbered by a monotonic TickClock, never wall time
// - a scenario replayed with the same commands produces the same trace
//
// Each tick:
// 1. Drain the command queue, applying each command to the Service
// 2. Advance the clock
// 3. Call Service.Tick
//
// Other goroutines (HTTP handlers, websocket bridges, the CLI) talk to the
// Service only through Enqueue or Do.
package engine
