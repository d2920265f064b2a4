package grid

import (
	"fmt"
	"sort"
)

// NodeID is the stable identity of an attached node.
type NodeID string

// CapabilityTag names a service a node may expose.
type CapabilityTag string

const (
	// CapProvider: the node contributes patterns and emittable keys.
	CapProvider CapabilityTag = "crafting.provider"
	// CapWatcher: the node observes craftable/crafting set changes.
	CapWatcher CapabilityTag = "crafting.watcher"
	// CapRequester: the node submits jobs and receives their results.
	CapRequester CapabilityTag = "crafting.requester"
	// CapCPU: the node is (part of) a crafting CPU cluster.
	CapCPU CapabilityTag = "crafting.cpu"
)

// Capabilities is a typed registry of services keyed by tag.
//
// It is populated once when the node is built and treated as read-only
// afterwards, so lookups need no locking.
type Capabilities struct {
	byTag map[CapabilityTag]any
}

// Set registers v under tag, replacing any earlier registration.
func (c *Capabilities) Set(tag CapabilityTag, v any) {
	if c.byTag == nil {
		c.byTag = make(map[CapabilityTag]any)
	}
	c.byTag[tag] = v
}

// Get returns the raw value registered under tag.
func (c *Capabilities) Get(tag CapabilityTag) (any, bool) {
	if c == nil {
		return nil, false
	}
	v, ok := c.byTag[tag]
	return v, ok
}

// Tags returns the registered tags in sorted order.
func (c *Capabilities) Tags() []CapabilityTag {
	if c == nil {
		return nil
	}
	tags := make([]CapabilityTag, 0, len(c.byTag))
	for t := range c.byTag {
		tags = append(tags, t)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}

// Node is one attached machine.
type Node struct {
	id   NodeID
	caps Capabilities
}

// NewNode creates a node with no capabilities.
func NewNode(id NodeID) *Node {
	return &Node{id: id}
}

// ID returns the node identity.
func (n *Node) ID() NodeID { return n.id }

// With registers a capability and returns n for chaining.
func (n *Node) With(tag CapabilityTag, v any) *Node {
	n.caps.Set(tag, v)
	return n
}

// Capabilities exposes the node's registry.
func (n *Node) Capabilities() *Capabilities { return &n.caps }

func (n *Node) String() string {
	return fmt.Sprintf("node(%s)", n.id)
}

// Lookup returns the capability registered under tag as a T.
//
// A value registered under the tag with a different type is reported as
// absent; the registry is keyed by tag, the type assertion only guards
// against wiring mistakes.
func Lookup[T any](n *Node, tag CapabilityTag) (T, bool) {
	var zero T
	if n == nil {
		return zero, false
	}
	raw, ok := n.caps.Get(tag)
	if !ok {
		return zero, false
	}
	v, ok := raw.(T)
	if !ok {
		return zero, false
	}
	return v, true
}
