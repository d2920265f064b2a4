// Package ir provides the canonical value types shared by every crafting
// package: production keys, stacks, patterns, plans and job ids.
//
// This package contains value types only. All other internal packages
// import ir; ir imports nothing internal. This keeps it the foundational
// layer with no circular dependencies.
//
// Key design constraints:
//   - Keys compare exactly; fuzzy equivalence is only used for suggestions
//   - Patterns are immutable once built and carry a content-addressed ID
//   - Amounts are int64, never floats
//   - Job ids are 128-bit UUIDs so they survive persistence round trips
package ir
