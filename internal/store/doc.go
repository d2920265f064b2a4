// Package store is the SQLite job journal.
//
// Every submitted job is written once and updated once when it finishes or
// is canceled. After a restart, OpenJobs lists the jobs whose links may
// still be restored by requesters.
//
// # Ordering
//
// All listings use ORDER BY seq ASC, id COLLATE BINARY ASC. seq is a
// logical insertion counter, never a timestamp.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability and speed
//   - busy_timeout=5000: wait for locks up to 5 seconds
//
// A path of ":memory:" opens a private in-memory journal.
package store
