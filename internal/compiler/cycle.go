package compiler

import (
	"fmt"
	"slices"
	"strings"
)

// CycleWarning reports a set of keys whose recipes depend on each other.
//
// Cycles are warnings, not errors. A loop such as a seed that is crafted
// from its own output is legal as long as stock can break it; the planner
// reports a recipe cycle only if it actually has to recurse through one.
type CycleWarning struct {
	Path    []string `json:"path"`    // ["item:a", "item:b", "item:a"]
	Message string   `json:"message"` // human readable
	Level   string   `json:"level"`   // "warning"
}

// AnalyzeCycles finds recipe cycles in a network. Nodes are keys; every
// pattern adds edges from its primary output to each of its inputs. Each
// strongly connected component with more than one key, or with a self
// edge, becomes one warning. Output is deterministic.
func AnalyzeCycles(net *Network) []CycleWarning {
	graph := buildRecipeGraph(net)
	if len(graph) == 0 {
		return []CycleWarning{}
	}

	warnings := []CycleWarning{}
	for _, scc := range tarjanSCC(graph) {
		if len(scc) > 1 || hasSelfLoop(scc[0], graph) {
			warnings = append(warnings, cycleSCCToWarning(scc, graph))
		}
	}
	slices.SortFunc(warnings, func(a, b CycleWarning) int {
		return strings.Compare(a.Path[0], b.Path[0])
	})
	return warnings
}

// recipeGraph maps an output key to the keys its patterns consume.
type recipeGraph map[string][]string

func buildRecipeGraph(net *Network) recipeGraph {
	graph := make(recipeGraph)
	for _, p := range net.Providers {
		for _, pattern := range p.Patterns {
			out := pattern.PrimaryOutput().What.String()
			if _, ok := graph[out]; !ok {
				graph[out] = []string{}
			}
			for _, in := range pattern.Inputs() {
				k := in.What.String()
				if !slices.Contains(graph[out], k) {
					graph[out] = append(graph[out], k)
				}
			}
		}
	}
	for node, edges := range graph {
		slices.Sort(edges)
		graph[node] = edges
	}
	return graph
}

func hasSelfLoop(node string, graph recipeGraph) bool {
	return slices.Contains(graph[node], node)
}

// tarjanSCC finds strongly connected components. Nodes are visited in
// sorted order so the result does not depend on map iteration.
func tarjanSCC(graph recipeGraph) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			slices.Sort(scc)
			sccs = append(sccs, scc)
		}
	}

	nodes := make([]string, 0, len(graph))
	for node := range graph {
		nodes = append(nodes, node)
	}
	slices.Sort(nodes)
	for _, node := range nodes {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}
	return sccs
}

func cycleSCCToWarning(scc []string, graph recipeGraph) CycleWarning {
	if len(scc) == 1 {
		key := scc[0]
		return CycleWarning{
			Path:    []string{key, key},
			Message: fmt.Sprintf("%s is crafted from itself", key),
			Level:   "warning",
		}
	}
	path := reconstructCyclePath(scc, graph)
	return CycleWarning{
		Path:    path,
		Message: fmt.Sprintf("recipe cycle: %s", strings.Join(path, " -> ")),
		Level:   "warning",
	}
}

// reconstructCyclePath walks edges inside the SCC from its first member
// until it returns to the start.
func reconstructCyclePath(scc []string, graph recipeGraph) []string {
	if len(scc) == 0 {
		return []string{}
	}
	members := make(map[string]bool, len(scc))
	for _, node := range scc {
		members[node] = true
	}

	start := scc[0]
	current := start
	path := []string{current}
	visited := make(map[string]bool)
	for {
		visited[current] = true
		var next string
		for _, neighbor := range graph[current] {
			if members[neighbor] && (!visited[neighbor] || neighbor == start) {
				next = neighbor
				break
			}
		}
		if next == "" {
			break
		}
		path = append(path, next)
		if next == start {
			break
		}
		current = next
	}
	return path
}
