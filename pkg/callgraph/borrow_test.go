package callgraph

import (
	"testing"

	"github.com/pavexcore/pavexc/pkg/componentdb"
)

type fakeCloning struct {
	strategies map[string]componentdb.CloningStrategy
}

func (f *fakeCloning) CloningStrategy(componentID string) (componentdb.CloningStrategy, bool) {
	s, ok := f.strategies[componentID]
	return s, ok
}

func TestChecker_NoConflictPassesThrough(t *testing.T) {
	g := NewGraph()
	g.AddNode(&Node{ID: "producer", Kind: NodeCompute})
	g.AddNode(&Node{ID: "consumer", Kind: NodeCompute})
	g.AddEdge("producer", "consumer", EdgeMove)

	checker := NewChecker(&fakeCloning{})
	if err := checker.Check(g); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(g.Nodes) != 2 {
		t.Errorf("expected no nodes inserted, got %d", len(g.Nodes))
	}
}

func TestChecker_RepairsConflictWithClone(t *testing.T) {
	g := NewGraph()
	g.AddNode(&Node{ID: "producer", Kind: NodeCompute, ComponentID: "ctor_1"})
	g.AddNode(&Node{ID: "borrower", Kind: NodeCompute})
	g.AddNode(&Node{ID: "mover", Kind: NodeCompute})

	// borrower is ordered after mover, so a move into mover while borrower
	// still holds a shared borrow is a conflict.
	g.AddEdge("producer", "mover", EdgeMove)
	g.AddEdge("mover", "borrower", EdgeMove)
	g.AddEdge("producer", "borrower", EdgeSharedBorrow)

	checker := NewChecker(&fakeCloning{strategies: map[string]componentdb.CloningStrategy{"ctor_1": componentdb.CloningCloneIfNecessary}})
	if err := checker.Check(g); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var foundClone bool
	for _, n := range g.Nodes {
		if n.IsClone && n.DerivedFrom == "producer" {
			foundClone = true
		}
	}
	if !foundClone {
		t.Error("expected a clone node derived from producer")
	}
}

func TestChecker_UnrepairableConflictErrorsAndRollsBack(t *testing.T) {
	g := NewGraph()
	g.AddNode(&Node{ID: "producer", Kind: NodeCompute, ComponentID: "ctor_1"})
	g.AddNode(&Node{ID: "borrower", Kind: NodeCompute})
	g.AddNode(&Node{ID: "mover", Kind: NodeCompute})

	g.AddEdge("producer", "mover", EdgeMove)
	g.AddEdge("mover", "borrower", EdgeMove)
	g.AddEdge("producer", "borrower", EdgeSharedBorrow)

	checker := NewChecker(&fakeCloning{strategies: map[string]componentdb.CloningStrategy{"ctor_1": componentdb.CloningNeverClone}})
	nodesBefore := len(g.Nodes)
	edgesBefore := len(g.Edges)

	if err := checker.Check(g); err == nil {
		t.Fatal("expected a borrow error for an unrepairable conflict")
	}

	if len(g.Nodes) != nodesBefore {
		t.Errorf("expected rollback to restore node count %d, got %d", nodesBefore, len(g.Nodes))
	}
	if len(g.Edges) != edgesBefore {
		t.Errorf("expected rollback to restore edge count %d, got %d", edgesBefore, len(g.Edges))
	}
	for _, e := range g.Edges {
		if e.Producer == "producer" && e.Consumer == "mover" && e.Kind != EdgeMove {
			t.Error("expected the original move edge to be restored")
		}
	}
}

func TestChecker_SingletonMoveRequiresCloneIfNecessary(t *testing.T) {
	g := NewGraph()
	g.AddNode(&Node{ID: "singleton", Kind: NodeInputParameter, FromAppState: true, SourceComponent: "singleton_ctor"})
	g.AddNode(&Node{ID: "borrower", Kind: NodeCompute})
	g.AddNode(&Node{ID: "mover", Kind: NodeCompute})

	g.AddEdge("singleton", "mover", EdgeMove)
	g.AddEdge("mover", "borrower", EdgeMove)
	g.AddEdge("singleton", "borrower", EdgeSharedBorrow)

	checker := NewChecker(&fakeCloning{strategies: map[string]componentdb.CloningStrategy{"singleton_ctor": componentdb.CloningCloneIfNecessary}})
	if err := checker.Check(g); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var foundClone bool
	for _, n := range g.Nodes {
		if n.IsClone && n.DerivedFrom == "singleton" {
			foundClone = true
		}
	}
	if !foundClone {
		t.Error("expected the singleton move to be repaired with a clone node")
	}
}
