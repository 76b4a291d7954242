package callgraph

import (
	"fmt"
	"sort"

	"github.com/pavexcore/pavexc/pkg/componentdb"
	"github.com/pavexcore/pavexc/pkg/errors"
)

// mutation is one entry of the repair log: a clone node inserted and the
// edge it was redirected from, so a failed repair attempt can be rolled
// back without leaving partial state in the graph.
type mutation struct {
	cloneNodeID string
	edgeIndex   int
	original    Edge
}

// Checker runs the borrow-checking procedure of §4.8 over a finalized call
// graph, repairing Move/SharedBorrow conflicts by inserting synthetic
// Clone nodes where the producer's cloning policy allows it.
type Checker struct {
	components CloningPolicySource
	nextClone  int
}

// CloningPolicySource answers whether a component's output type may be
// cloned to repair a borrow conflict.
type CloningPolicySource interface {
	CloningStrategy(componentID string) (componentdb.CloningStrategy, bool)
}

// NewChecker creates a borrow checker.
func NewChecker(components CloningPolicySource) *Checker {
	return &Checker{components: components}
}

// Check walks g in topological order, detecting Move/SharedBorrow
// conflicts and repairing them via clone insertion where possible. Every
// repair is recorded in a log; if the checker never converges (or hits a
// conflict it cannot repair), every repair made this call is rolled back
// before returning the error, so a failed Check leaves g exactly as it
// found it. On success g is mutated in place with the inserted clones.
func (c *Checker) Check(g *Graph) error {
	var log []mutation

	order, err := TopoOrder(g)
	if err != nil {
		return err
	}

	for pass := 0; pass < len(order)+1; pass++ {
		conflict, ok := c.findConflict(g, order)
		if !ok {
			return nil
		}

		m, err := c.repair(g, conflict)
		if err != nil {
			c.rollback(g, log)
			return err
		}
		log = append(log, m)

		order, err = TopoOrder(g)
		if err != nil {
			c.rollback(g, log)
			return err
		}
	}
	c.rollback(g, log)
	return errors.BorrowError("", "borrow checker did not converge after repair attempts")
}

// rollback undoes every mutation in log, in reverse order: restoring the
// redirected edge's original producer and discarding the inserted clone
// node.
func (c *Checker) rollback(g *Graph, log []mutation) {
	for i := len(log) - 1; i >= 0; i-- {
		m := log[i]
		g.Edges[m.edgeIndex] = m.original
		g.RemoveNode(m.cloneNodeID)
	}
}

// conflict names a Move edge whose producer is still borrowed by a node
// ordered after the mover.
type conflict struct {
	producer string
	mover    string
	borrower string
}

func (c *Checker) findConflict(g *Graph, order []string) (conflict, bool) {
	position := make(map[string]int, len(order))
	for i, id := range order {
		position[id] = i
	}

	// First pass: collect every SharedBorrow, regardless of position,
	// since a borrow recorded later in the order still conflicts with an
	// earlier move per §4.8 step 2.
	borrowedBy := map[string][]string{}
	for _, e := range g.Edges {
		if e.Kind == EdgeSharedBorrow {
			borrowedBy[e.Producer] = append(borrowedBy[e.Producer], e.Consumer)
		}
	}

	// Second pass, in topological order: for each Move edge, check whether
	// its producer is still borrowed by any node ordered after the mover.
	for _, consumerID := range order {
		edges := g.EdgesInto(consumerID)
		sort.Slice(edges, func(i, j int) bool { return edges[i].Producer < edges[j].Producer })

		for _, e := range edges {
			if e.Kind != EdgeMove {
				continue
			}
			for _, b := range borrowedBy[e.Producer] {
				if position[b] > position[consumerID] {
					return conflict{producer: e.Producer, mover: consumerID, borrower: b}, true
				}
			}
		}
	}
	return conflict{}, false
}

func (c *Checker) repair(g *Graph, cf conflict) (mutation, error) {
	node := g.Nodes[cf.producer]
	if node == nil {
		return mutation{}, errors.BorrowError(cf.producer, "conflicting producer node not found")
	}

	strategy, known := componentdb.CloningNeverClone, false
	if node.Kind == NodeCompute && node.ComponentID != "" {
		if s, ok := c.components.CloningStrategy(node.ComponentID); ok {
			strategy, known = s, true
		}
	}
	if node.FromAppState {
		// Singletons and carried-over request-scoped values can never be
		// moved out directly; the same CloneIfNecessary rule applies.
		if s, ok := c.components.CloningStrategy(node.SourceComponent); ok {
			strategy, known = s, true
		}
	}

	if !known || strategy != componentdb.CloningCloneIfNecessary {
		return mutation{}, errors.BorrowError(cf.mover,
			fmt.Sprintf("moving %s conflicts with an outstanding borrow held by %s, and its type cannot be cloned", cf.producer, cf.borrower))
	}

	for i := range g.Edges {
		if g.Edges[i].Producer == cf.producer && g.Edges[i].Consumer == cf.mover && g.Edges[i].Kind == EdgeMove {
			original := g.Edges[i]

			c.nextClone++
			cloneID := fmt.Sprintf("clone_%d", c.nextClone)
			g.AddNode(&Node{ID: cloneID, Kind: NodeCompute, IsClone: true, DerivedFrom: cf.producer, OutputType: node.OutputType})
			g.Edges[i].Producer = cloneID

			return mutation{cloneNodeID: cloneID, edgeIndex: i, original: original}, nil
		}
	}
	return mutation{}, errors.BorrowError(cf.mover, "could not locate the offending move edge to redirect to the clone")
}

// TopoOrder computes a deterministic topological order over g's nodes
// using the same Move/SharedBorrow edges as dependency edges (producer
// before consumer). Exported for pkg/codegen, which emits statements in
// this same order.
func TopoOrder(g *Graph) ([]string, error) {
	inDegree := map[string]int{}
	dependents := map[string][]string{}
	for id := range g.Nodes {
		inDegree[id] = 0
	}
	for _, e := range g.Edges {
		inDegree[e.Consumer]++
		dependents[e.Producer] = append(dependents[e.Producer], e.Consumer)
	}

	var queue []string
	for id, d := range inDegree {
		if d == 0 {
			queue = append(queue, id)
		}
	}
	sort.Strings(queue)

	var order []string
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		order = append(order, id)

		next := append([]string{}, dependents[id]...)
		sort.Strings(next)
		for _, dep := range next {
			inDegree[dep]--
			if inDegree[dep] == 0 {
				queue = append(queue, dep)
				sort.Strings(queue)
			}
		}
	}

	if len(order) != len(g.Nodes) {
		return nil, errors.BorrowError("", "call graph contains a cycle")
	}
	return order, nil
}
