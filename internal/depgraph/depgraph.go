// Package depgraph implements the ephemeral dependency graph over document
// objects. The document rebuilds it from the current structural link edges
// and expression edges each time a recompute is requested; it is never
// persisted. An edge B→A means A depends on B, so B executes first.
package depgraph

import (
	"fmt"
	"sort"
	"strings"
)

// node is one graph vertex keyed by object ID.
type node struct {
	id         string
	creation   uint64
	deps       map[string]*node // nodes this one depends on
	dependents map[string]*node // nodes depending on this one
}

// Graph is a directed dependency graph. It is built single-threaded by the
// document and discarded after the pass, so it carries no locking.
type Graph struct {
	nodes map[string]*node
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{nodes: make(map[string]*node)}
}

// AddNode registers an object with its creation index. Adding an existing
// ID is a no-op.
func (g *Graph) AddNode(id string, creation uint64) {
	if _, ok := g.nodes[id]; ok {
		return
	}
	g.nodes[id] = &node{
		id:         id,
		creation:   creation,
		deps:       make(map[string]*node),
		dependents: make(map[string]*node),
	}
}

// AddEdge records that `toID` depends on `fromID`. Both nodes must exist.
// Self-edges are ignored: an object may reference its own properties
// without depending on itself.
func (g *Graph) AddEdge(fromID, toID string) error {
	if fromID == toID {
		return nil
	}
	from, ok := g.nodes[fromID]
	if !ok {
		return fmt.Errorf("depgraph: source node not found: %s", fromID)
	}
	to, ok := g.nodes[toID]
	if !ok {
		return fmt.Errorf("depgraph: destination node not found: %s", toID)
	}
	to.deps[fromID] = from
	from.dependents[toID] = to
	return nil
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// Dependencies returns the IDs the given node depends on, sorted.
func (g *Graph) Dependencies(id string) []string {
	n, ok := g.nodes[id]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(n.deps))
	for depID := range n.deps {
		out = append(out, depID)
	}
	sort.Strings(out)
	return out
}

// DetectCycles runs a depth-first search with three node colors (unvisited,
// in-progress, done). Hitting an in-progress node means the combined edge
// set has a cycle; the returned CycleError names the participating objects.
// A nil return guarantees the graph is acyclic.
func (g *Graph) DetectCycles() *CycleError {
	const (
		white = iota // unvisited
		gray         // in current DFS path
		black        // fully explored
	)

	color := make(map[string]int, len(g.nodes))
	var stack []string

	var visit func(n *node) *CycleError
	visit = func(n *node) *CycleError {
		switch color[n.id] {
		case black:
			return nil
		case gray:
			// Everything on the stack from the first occurrence of n.id
			// onward participates in the cycle.
			start := 0
			for i, id := range stack {
				if id == n.id {
					start = i
					break
				}
			}
			members := append([]string(nil), stack[start:]...)
			sort.Strings(members)
			return &CycleError{Members: members}
		}

		color[n.id] = gray
		stack = append(stack, n.id)

		// Deterministic visit order keeps the reported cycle stable.
		depIDs := make([]string, 0, len(n.dependents))
		for id := range n.dependents {
			depIDs = append(depIDs, id)
		}
		sort.Strings(depIDs)
		for _, id := range depIDs {
			if err := visit(n.dependents[id]); err != nil {
				return err
			}
		}

		stack = stack[:len(stack)-1]
		color[n.id] = black
		return nil
	}

	ids := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if color[id] == white {
			if err := visit(g.nodes[id]); err != nil {
				return err
			}
		}
	}
	return nil
}

// Closure returns the seeds plus every node that transitively depends on
// one of them: the set a recompute pass must execute.
func (g *Graph) Closure(seeds []string) map[string]bool {
	closed := make(map[string]bool)
	queue := make([]string, 0, len(seeds))
	for _, id := range seeds {
		if _, ok := g.nodes[id]; ok && !closed[id] {
			closed[id] = true
			queue = append(queue, id)
		}
	}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for id := range g.nodes[current].dependents {
			if !closed[id] {
				closed[id] = true
				queue = append(queue, id)
			}
		}
	}
	return closed
}

// TopoOrder orders the given subset so that every node appears strictly
// after all of its in-subset dependencies. Ties are broken by object
// creation index, keeping recompute order reproducible across runs on
// identical input. The caller must have verified the graph is acyclic.
func (g *Graph) TopoOrder(subset map[string]bool) []string {
	// Count unmet in-subset dependencies per node.
	pending := make(map[string]int, len(subset))
	for id := range subset {
		n := g.nodes[id]
		count := 0
		for depID := range n.deps {
			if subset[depID] {
				count++
			}
		}
		pending[id] = count
	}

	ready := make([]string, 0, len(subset))
	for id, count := range pending {
		if count == 0 {
			ready = append(ready, id)
		}
	}

	byCreation := func(list []string) {
		sort.Slice(list, func(i, j int) bool {
			return g.nodes[list[i]].creation < g.nodes[list[j]].creation
		})
	}

	order := make([]string, 0, len(subset))
	for len(ready) > 0 {
		byCreation(ready)
		current := ready[0]
		ready = ready[1:]
		order = append(order, current)

		for id := range g.nodes[current].dependents {
			if !subset[id] {
				continue
			}
			pending[id]--
			if pending[id] == 0 {
				ready = append(ready, id)
			}
		}
	}
	return order
}

// CycleError is the structural error reported when the combined
// link-plus-expression edge set has a cycle. It aborts the whole recompute
// pass before any object executes.
type CycleError struct {
	Members []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle involving %s", strings.Join(e.Members, ", "))
}
