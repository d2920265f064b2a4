// Package planner is the reference calculator: it expands one request into
// a Plan by walking the best pattern for every key depth first.
//
// The expansion is deliberately simple. Stock is used before crafting,
// emittable keys are never crafted, the highest priority pattern is always
// chosen, and surplus output is kept for later steps of the same plan.
package planner
