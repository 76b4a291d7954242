// Package pkggraph provides a generic dependency DAG used wherever pavexc
// needs a deterministic topological order: crate dependency ordering in the
// Doc Index and, via embedding, the bookkeeping half of the call graph.
package pkggraph

import "fmt"

// NodeKind identifies what a node represents.
type NodeKind string

const (
	KindCrate     NodeKind = "crate"
	KindComponent NodeKind = "component"
	KindScope     NodeKind = "scope"
	KindModule    NodeKind = "module"
)

// NodeState tracks a node's position in a traversal.
type NodeState string

const (
	NodeStatePending   NodeState = "pending"
	NodeStateVisiting  NodeState = "visiting"
	NodeStateCompleted NodeState = "completed"
)

// Node is a single vertex in the dependency DAG.
type Node struct {
	ID   string
	Kind NodeKind

	DependsOn    []string
	DependedOnBy []string

	State NodeState
}

// NewNode creates a new pending node.
func NewNode(id string, kind NodeKind) *Node {
	return &Node{
		ID:           id,
		Kind:         kind,
		DependsOn:    []string{},
		DependedOnBy: []string{},
		State:        NodeStatePending,
	}
}

// AddDependency records that n depends on nodeID.
func (n *Node) AddDependency(nodeID string) {
	for _, dep := range n.DependsOn {
		if dep == nodeID {
			return
		}
	}
	n.DependsOn = append(n.DependsOn, nodeID)
}

// AddDependent records that nodeID depends on n.
func (n *Node) AddDependent(nodeID string) {
	for _, dep := range n.DependedOnBy {
		if dep == nodeID {
			return
		}
	}
	n.DependedOnBy = append(n.DependedOnBy, nodeID)
}

// IsReady reports whether every dependency of n has completed.
func (n *Node) IsReady(g *Graph) bool {
	if n.State != NodeStatePending {
		return false
	}
	for _, depID := range n.DependsOn {
		dep := g.GetNode(depID)
		if dep == nil || dep.State != NodeStateCompleted {
			return false
		}
	}
	return true
}

func (n *Node) String() string {
	return fmt.Sprintf("%s(%s)", n.ID, n.Kind)
}
