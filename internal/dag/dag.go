// SPDX-License-Identifier: MPL-2.0

// Package dag orders keyed declarations that reference each other.
//
// The metadata builder uses it to materialize context descriptors parent-first
// even when a child is declared before its parent, and to reject declarations
// whose parent links loop back on themselves.
package dag

import (
	"container/heap"
	"fmt"
	"strings"
)

type (
	// CycleError reports a loop in the graph. Cycle lists the nodes of one loop
	// in edge order, with the first node repeated at the end.
	CycleError struct {
		Cycle []string
	}

	// Graph is a directed graph over string keys. An edge from A to B means A
	// must be ordered before B.
	Graph struct {
		adjacency map[string][]string
		// index records insertion position; it drives the stable ordering.
		index map[string]int
		nodes []string
	}

	// readyQueue is a min-heap of insertion indexes.
	readyQueue []int
)

func (e *CycleError) Error() string {
	return fmt.Sprintf("cycle detected: %s", strings.Join(e.Cycle, " -> "))
}

// New creates an empty Graph.
func New() *Graph {
	return &Graph{
		adjacency: make(map[string][]string),
		index:     make(map[string]int),
	}
}

// AddNode adds a node. Adding an existing node is a no-op and keeps its
// original position.
func (g *Graph) AddNode(name string) {
	if _, ok := g.index[name]; ok {
		return
	}
	g.index[name] = len(g.nodes)
	g.nodes = append(g.nodes, name)
}

// AddEdge adds a directed edge from -> to, adding either node if missing.
func (g *Graph) AddEdge(from, to string) {
	g.AddNode(from)
	g.AddNode(to)
	g.adjacency[from] = append(g.adjacency[from], to)
}

// Has reports whether the node exists.
func (g *Graph) Has(name string) bool {
	_, ok := g.index[name]
	return ok
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// TopologicalSort returns every node so that each edge points forward.
//
// The order is stable: whenever several nodes are ready, the one added first
// wins. A graph whose edges already point forward in insertion order is
// returned unchanged. A *CycleError is returned when no such order exists.
func (g *Graph) TopologicalSort() ([]string, error) {
	if len(g.nodes) == 0 {
		return nil, nil
	}

	inDegree := make([]int, len(g.nodes))
	for _, targets := range g.adjacency {
		for _, to := range targets {
			inDegree[g.index[to]]++
		}
	}

	ready := &readyQueue{}
	for i := range g.nodes {
		if inDegree[i] == 0 {
			heap.Push(ready, i)
		}
	}

	order := make([]string, 0, len(g.nodes))
	for ready.Len() > 0 {
		i := heap.Pop(ready).(int)
		node := g.nodes[i]
		order = append(order, node)
		for _, to := range g.adjacency[node] {
			j := g.index[to]
			inDegree[j]--
			if inDegree[j] == 0 {
				heap.Push(ready, j)
			}
		}
	}

	if len(order) != len(g.nodes) {
		return nil, &CycleError{Cycle: g.findCycle(inDegree)}
	}
	return order, nil
}

// findCycle walks edges among the nodes left with a positive in-degree after
// Kahn's pass. Every such node has a predecessor inside that set, so following
// predecessors backwards from any of them must revisit a node.
func (g *Graph) findCycle(inDegree []int) []string {
	stuck := make(map[string]bool)
	for i, node := range g.nodes {
		if inDegree[i] > 0 {
			stuck[node] = true
		}
	}

	predecessor := make(map[string]string, len(stuck))
	for _, from := range g.nodes {
		if !stuck[from] {
			continue
		}
		for _, to := range g.adjacency[from] {
			if stuck[to] {
				if _, seen := predecessor[to]; !seen {
					predecessor[to] = from
				}
			}
		}
	}

	var start string
	for _, node := range g.nodes {
		if stuck[node] {
			start = node
			break
		}
	}

	// Step back until a node repeats; that node lies on the loop.
	visited := make(map[string]bool)
	node := start
	for !visited[node] {
		visited[node] = true
		node = predecessor[node]
	}

	loop := []string{node}
	for cur := predecessor[node]; cur != node; cur = predecessor[cur] {
		loop = append(loop, cur)
	}
	// loop is in reverse edge order; flip it and close it.
	for i, j := 0, len(loop)-1; i < j; i, j = i+1, j-1 {
		loop[i], loop[j] = loop[j], loop[i]
	}
	return append(loop, loop[0])
}

func (q readyQueue) Len() int           { return len(q) }
func (q readyQueue) Less(i, j int) bool { return q[i] < q[j] }
func (q readyQueue) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }

func (q *readyQueue) Push(x any) { *q = append(*q, x.(int)) }

func (q *readyQueue) Pop() any {
	old := *q
	n := len(old)
	x := old[n-1]
	*q = old[:n-1]
	return x
}
