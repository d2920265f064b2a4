// Package link tracks submitted jobs across their whole lifecycle.
//
// A job has two ends: the requester that asked for it and the CPU that runs
// it. Each end holds a Link. Links carrying the same job id are tied to one
// Nexus, which owns the job's canceled/done state and outlives either end:
// a requester may be detached and re-attached (or replaced by a new instance
// restored from persistence) while the CPU keeps working.
//
// Standalone links (jobs nobody waits for) never get a nexus.
package link
