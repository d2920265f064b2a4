// Package cpu defines crafting CPU clusters and the scheduler that picks
// one for a job.
//
// A Cluster's internal production logic is opaque to the service: it is
// driven once per tick and reports a last-modified stamp and the keys it is
// waiting for. SimCluster is a reference implementation used by the
// simulator and tests.
package cpu
