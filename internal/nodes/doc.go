// Package nodes holds the node implementations craftd attaches to a
// crafting service: static pattern providers, logging watchers,
// requesters that deposit finished output into network storage, and
// CPU clusters. Build turns a compiled network definition into attached
// nodes.
package nodes
