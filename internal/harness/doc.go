// Package harness runs crafting scenarios against a real service.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: gear_roundtrip
//	description: "A requester crafts gears and receives them"
//	network: ../networks/basic
//	config:
//	  link_grace_ticks: 5
//	steps:
//	  - tick: 1
//	  - request: { key: "item:iron_gear", amount: 3, requester: assembler }
//	    expect: { code: OK, cpu: cpu-a }
//	  - set_busy: { provider: assembler, busy: true }
//	  - detach: cpu-a
//	  - attach: cpu-a
//	  - cancel: cpu-a
//	assertions:
//	  - type: trace_contains
//	    event: job_submitted
//	    key: item:iron_gear
//	  - type: trace_order
//	    events: [job_submitted, job_finished]
//	  - type: trace_count
//	    event: craftable_changed
//	    count: 2
//	  - type: final_stock
//	    stock: { "item:iron_gear": 3 }
//	  - type: final_jobs
//	    state: done
//	    count: 1
//
// The network directory holds the CUE files of a network definition and is
// resolved relative to the scenario file.
//
// # Trace
//
// The trace is the service's audit event stream (see crafting.Event) plus a
// calculation_failed event for requests whose calculation returned an
// error. Ticks start at 0 and advance only on tick steps.
//
// # Deterministic Testing
//
// Each run gets a fresh tick clock, sequential job ids
// (testutil.SequentialJobIDs), and an in-memory SQLite job journal, so
// traces are identical across runs and can be compared against golden
// files.
package harness
