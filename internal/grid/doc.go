// Package grid models the topology layer the crafting service is attached to.
//
// A Node is one attached machine. What a node can do is expressed through an
// explicit, typed capability registry instead of runtime type inspection:
//
//	p, ok := grid.Lookup[registry.Provider](node, grid.CapProvider)
//
// The grid itself (cables, placement, persistence) is owned elsewhere. This
// package only carries identities and capabilities across the boundary.
package grid
