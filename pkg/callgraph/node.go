// Package callgraph builds and borrow-checks the per-stage dependency
// injection call graph: the directed acyclic graph that computes one
// middleware or request handler's output from the inputs the Constructibles
// Index can supply.
package callgraph

import "github.com/pavexcore/pavexc/pkg/resolvedtype"

// NodeKind discriminates the call graph's node tagged union.
type NodeKind string

const (
	NodeCompute        NodeKind = "compute"
	NodeInputParameter NodeKind = "input_parameter"
	NodeMatchBranching NodeKind = "match_branching"
)

// InputSourceKind discriminates where an InputParameter node's value comes
// from.
type InputSourceKind string

const (
	InputSourceFrameworkItem InputSourceKind = "framework_item"
	InputSourceComponent     InputSourceKind = "component"
)

// MatchArm discriminates which branch of a fallible Compute's Result a
// Compute node projects.
type MatchArm string

const (
	MatchArmNone MatchArm = ""
	MatchArmOk   MatchArm = "ok"
	MatchArmErr  MatchArm = "err"
)

// EdgeKind discriminates how a consumer node obtains a producer's value.
type EdgeKind string

const (
	EdgeMove         EdgeKind = "move"
	EdgeSharedBorrow EdgeKind = "shared_borrow"
)

// Node is a single vertex of a call graph.
type Node struct {
	ID   string
	Kind NodeKind

	// OutputType is the resolved type this node makes available to its
	// consumers.
	OutputType resolvedtype.ResolvedType

	// Compute-only fields.
	ComponentID string   // the Component DB entry this node invokes
	MatchArm    MatchArm // set when this Compute projects one arm of a fallible parent
	DerivedFrom string   // parent Compute node id, set when MatchArm != MatchArmNone or for a synthetic Clone node
	IsClone     bool     // true for a synthetic repair node inserted by the borrow checker

	// ErrorHandlerID is set on an ErrMatch node once §4.7 resolves a handler
	// for it: the Compute node id that invokes the handler, rendered inline
	// in the Err arm instead of the bare error-propagation default.
	ErrorHandlerID string

	// InputParameter-only fields.
	SourceKind      InputSourceKind
	FrameworkItem   string // set when SourceKind == InputSourceFrameworkItem
	SourceComponent string // set when SourceKind == InputSourceComponent
	FromAppState    bool   // true when the component is sourced from ApplicationState (singleton)

	// MatchBranching-only fields: the Compute node it branches from, and
	// the Ok/Err Compute node ids it branches into.
	BranchesFrom string
	OkNodeID     string
	ErrNodeID    string
}

// Edge is a single dependency edge: Consumer depends on Producer's value,
// consumed either by Move or by SharedBorrow.
type Edge struct {
	Producer string
	Consumer string
	Kind     EdgeKind
}

// Graph is one stage's finalized call graph.
type Graph struct {
	RootID string
	Nodes  map[string]*Node
	Edges  []Edge

	// order preserves node insertion order for deterministic emission.
	order []string
}

// NewGraph creates an empty call graph.
func NewGraph() *Graph {
	return &Graph{Nodes: map[string]*Node{}}
}

// AddNode inserts n, failing silently (overwrite) if its ID is already
// present — callers are expected to check Nodes first when they mean to
// reuse a node.
func (g *Graph) AddNode(n *Node) {
	if _, exists := g.Nodes[n.ID]; !exists {
		g.order = append(g.order, n.ID)
	}
	g.Nodes[n.ID] = n
}

// AddEdge records a dependency edge.
func (g *Graph) AddEdge(producer, consumer string, kind EdgeKind) {
	g.Edges = append(g.Edges, Edge{Producer: producer, Consumer: consumer, Kind: kind})
}

// RemoveNode drops a node from both the node map and the insertion-order
// list, used by the borrow checker to roll back a failed clone insertion.
func (g *Graph) RemoveNode(id string) {
	delete(g.Nodes, id)
	for i, existing := range g.order {
		if existing == id {
			g.order = append(g.order[:i], g.order[i+1:]...)
			return
		}
	}
}

// OrderedNodes returns every node in insertion order, the order the
// builder discovered them in (root first).
func (g *Graph) OrderedNodes() []*Node {
	nodes := make([]*Node, 0, len(g.order))
	for _, id := range g.order {
		nodes = append(nodes, g.Nodes[id])
	}
	return nodes
}

// EdgesInto returns every edge whose Consumer is nodeID.
func (g *Graph) EdgesInto(nodeID string) []Edge {
	var edges []Edge
	for _, e := range g.Edges {
		if e.Consumer == nodeID {
			edges = append(edges, e)
		}
	}
	return edges
}

// EdgesFrom returns every edge whose Producer is nodeID.
func (g *Graph) EdgesFrom(nodeID string) []Edge {
	var edges []Edge
	for _, e := range g.Edges {
		if e.Producer == nodeID {
			edges = append(edges, e)
		}
	}
	return edges
}
