package componentdb

import (
	"github.com/pavexcore/pavexc/pkg/pkggraph"
)

// ScopeGraph is the DAG of Blueprint nesting scopes. Every scope has at
// most one parent (the Blueprint it was nested under); the special
// application-state scope is a child of every leaf scope, since
// singletons constructed anywhere in the tree end up in the single
// ApplicationState built once per server.
type ScopeGraph struct {
	graph    *pkggraph.Graph
	parentOf map[string]string
	root     string
}

// ApplicationStateScope is the id of the synthetic scope that owns every
// singleton component across the whole Blueprint.
const ApplicationStateScope = "__application_state__"

// NewScopeGraph creates a scope graph seeded with a root scope and the
// application-state scope.
func NewScopeGraph(rootID string) *ScopeGraph {
	g := pkggraph.NewGraph()
	_ = g.AddNode(pkggraph.NewNode(rootID, pkggraph.KindScope))
	_ = g.AddNode(pkggraph.NewNode(ApplicationStateScope, pkggraph.KindScope))
	return &ScopeGraph{graph: g, parentOf: map[string]string{}, root: rootID}
}

// AddChildScope registers a nested Blueprint scope under parentID.
func (sg *ScopeGraph) AddChildScope(id, parentID string) error {
	if err := sg.graph.AddNode(pkggraph.NewNode(id, pkggraph.KindScope)); err != nil {
		return err
	}
	if err := sg.graph.AddEdge(id, parentID); err != nil {
		return err
	}
	sg.parentOf[id] = parentID
	return nil
}

// Parent returns the parent scope id, or "" for the root scope.
func (sg *ScopeGraph) Parent(id string) string {
	return sg.parentOf[id]
}

// Root returns the root scope id.
func (sg *ScopeGraph) Root() string {
	return sg.root
}

// Ancestors returns id's ancestor chain, innermost first, ending at the
// root scope (root included).
func (sg *ScopeGraph) Ancestors(id string) []string {
	var chain []string
	cur := id
	for {
		chain = append(chain, cur)
		parent, ok := sg.parentOf[cur]
		if !ok {
			return chain
		}
		cur = parent
	}
}

// finalizeApplicationStateScope links every leaf scope (a scope nothing
// is nested under) as a parent of the application-state scope, so that
// singletons constructed in any leaf are visible to ApplicationState
// construction.
func (sg *ScopeGraph) finalizeApplicationStateScope() error {
	hasChild := map[string]bool{}
	for _, parent := range sg.parentOf {
		hasChild[parent] = true
	}
	for id := range sg.graph.Nodes {
		if id == ApplicationStateScope {
			continue
		}
		if !hasChild[id] {
			if err := sg.graph.AddEdge(ApplicationStateScope, id); err != nil {
				return err
			}
		}
	}
	return nil
}

// Finalize must be called once every scope has been registered, to wire
// the application-state scope's dependency on every leaf scope.
func (sg *ScopeGraph) Finalize() error {
	return sg.finalizeApplicationStateScope()
}

// IsDescendantOf reports whether scope is id or nested (directly or
// transitively) under ancestor.
func (sg *ScopeGraph) IsDescendantOf(scope, ancestor string) bool {
	for _, s := range sg.Ancestors(scope) {
		if s == ancestor {
			return true
		}
	}
	return false
}
