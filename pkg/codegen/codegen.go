// Package codegen lowers a finalized, borrow-checked call graph into a
// generated Rust function: SSA-style local names assigned in topological
// order, one statement per node, .clone()/& inserted per edge kind, await
// wrapped around async calls, per §4.11.
package codegen

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pavexcore/pavexc/pkg/callgraph"
	"github.com/pavexcore/pavexc/pkg/pipeline"
	"github.com/pavexcore/pavexc/pkg/resolvedtype"
)

// CallableSource resolves a Component DB id to the Callable it invokes.
// componentdb.DB satisfies this directly.
type CallableSource interface {
	Callable(componentID string) (resolvedtype.Callable, bool)
}

// Function is the generated Rust source for one finalized call graph: a
// pipeline stage or ApplicationState::new itself.
type Function struct {
	Name       string
	Params     []Param
	ReturnType string
	IsAsync    bool
	// Body holds one rendered Rust statement per entry, unindented; Render
	// applies the fixed indentation rule.
	Body []string
}

// Param is a generated function's formal parameter.
type Param struct {
	Name string
	Type string
}

// Emit lowers g into a Function named name. components resolves each
// Compute node's ComponentID to the path and async-ness of the call it
// renders.
func Emit(g *callgraph.Graph, name string, isAsync bool, components CallableSource) (*Function, error) {
	order, err := callgraph.TopoOrder(g)
	if err != nil {
		return nil, err
	}
	order = pullClonesAfterOrigin(g, order)

	local := localNames(order)
	errNodeFor := errNodeByParent(g)
	handlerNodes := errorHandlerNodeIDs(g)

	var params []Param
	seen := map[string]bool{}
	var body []string

	for _, id := range order {
		n := g.Nodes[id]
		switch n.Kind {
		case callgraph.NodeMatchBranching:
			continue // folded into its parent Compute's match expression

		case callgraph.NodeCompute:
			if n.MatchArm != callgraph.MatchArmNone {
				continue // Ok/Err arms are folded into the parent's match
			}
			if handlerNodes[n.ID] {
				continue // rendered inline inside the Err arm that invokes it
			}
			body = append(body, computeStatement(g, n, local, errNodeFor, components))

		case callgraph.NodeInputParameter:
			stmt, p := inputStatement(n, local)
			body = append(body, stmt)
			if !seen[p.Name] {
				params = append(params, *p)
				seen[p.Name] = true
			}
		}
	}

	returnType := "()"
	if root, ok := g.Nodes[g.RootID]; ok {
		returnType = root.OutputType.String()
	}

	return &Function{Name: name, Params: params, ReturnType: returnType, IsAsync: isAsync, Body: body}, nil
}

// localNames assigns each node a fresh SSA-style local ("v0", "v1", ...) in
// the order statements will be emitted.
func localNames(order []string) map[string]string {
	names := make(map[string]string, len(order))
	for i, id := range order {
		names[id] = fmt.Sprintf("v%d", i)
	}
	return names
}

// errNodeByParent indexes every ErrMatch node by the fallible Compute node
// it was derived from, so computeStatement can tell a plain call from one
// that needs a match expression.
func errNodeByParent(g *callgraph.Graph) map[string]*callgraph.Node {
	out := map[string]*callgraph.Node{}
	for _, n := range g.Nodes {
		if n.Kind == callgraph.NodeCompute && n.MatchArm == callgraph.MatchArmErr {
			out[n.DerivedFrom] = n
		}
	}
	return out
}

// errorHandlerNodeIDs collects the Compute node id of every wired §4.7
// error handler, so Emit can skip rendering them as standalone statements
// — they are inlined into the Err arm that invokes them instead.
func errorHandlerNodeIDs(g *callgraph.Graph) map[string]bool {
	out := map[string]bool{}
	for _, n := range g.Nodes {
		if n.Kind == callgraph.NodeCompute && n.MatchArm == callgraph.MatchArmErr && n.ErrorHandlerID != "" {
			out[n.ErrorHandlerID] = true
		}
	}
	return out
}

// pullClonesAfterOrigin moves every synthetic clone node to immediately
// follow the node it was cloned from. The borrow checker inserts clone
// nodes without a graph edge back to their origin (only DerivedFrom
// records the relationship), so a plain topological sort can place one
// anywhere; this pass repairs emission order without touching the graph.
func pullClonesAfterOrigin(g *callgraph.Graph, order []string) []string {
	var clones []string
	rest := make([]string, 0, len(order))
	for _, id := range order {
		if g.Nodes[id].IsClone {
			clones = append(clones, id)
		} else {
			rest = append(rest, id)
		}
	}
	if len(clones) == 0 {
		return order
	}
	sort.Strings(clones)

	inserted := map[string]bool{}
	result := make([]string, 0, len(order))
	for _, id := range rest {
		result = append(result, id)
		for _, c := range clones {
			if !inserted[c] && g.Nodes[c].DerivedFrom == id {
				result = append(result, c)
				inserted[c] = true
			}
		}
	}
	for _, c := range clones {
		if !inserted[c] {
			result = append(result, c)
		}
	}
	return result
}

func computeStatement(g *callgraph.Graph, n *callgraph.Node, local map[string]string, errNodeFor map[string]*callgraph.Node, components CallableSource) string {
	if n.IsClone {
		return fmt.Sprintf("let %s = %s.clone();", local[n.ID], local[n.DerivedFrom])
	}

	call := callExpr(g, n, local, components)

	if errNode, fallible := errNodeFor[n.ID]; fallible {
		if errNode.ErrorHandlerID != "" {
			handlerNode := g.Nodes[errNode.ErrorHandlerID]
			handlerCall := errorHandlerCallExpr(g, errNode, handlerNode, local, components)
			return fmt.Sprintf("let %s = match %s {\n    Ok(value) => value,\n    Err(err) => return %s,\n};", local[n.ID], call, handlerCall)
		}
		return fmt.Sprintf("let %s = match %s {\n    Ok(value) => value,\n    Err(err) => return Err(err.into()),\n};", local[n.ID], call)
	}
	return fmt.Sprintf("let %s = %s;", local[n.ID], call)
}

func callExpr(g *callgraph.Graph, n *callgraph.Node, local map[string]string, components CallableSource) string {
	callable, ok := components.Callable(n.ComponentID)
	path := n.ComponentID
	isAsync := false
	if ok {
		path = strings.Join(callable.Path.Segments, "::")
		isAsync = callable.IsAsync
	}

	args := make([]string, 0)
	for _, e := range g.EdgesInto(n.ID) {
		arg := local[e.Producer]
		if e.Kind == callgraph.EdgeSharedBorrow {
			arg = "&" + arg
		}
		args = append(args, arg)
	}

	expr := fmt.Sprintf("%s(%s)", path, strings.Join(args, ", "))
	if isAsync {
		expr += ".await"
	}
	return expr
}

// errorHandlerCallExpr renders the call invoking a wired §4.7 error handler
// inline, inside the Err arm of the fallible component's match expression.
// The error value is bound as `err` by the match pattern rather than
// through a named local, so its producer edge is special-cased instead of
// resolved through local.
func errorHandlerCallExpr(g *callgraph.Graph, errNode, handlerNode *callgraph.Node, local map[string]string, components CallableSource) string {
	callable, ok := components.Callable(handlerNode.ComponentID)
	path := handlerNode.ComponentID
	isAsync := false
	if ok {
		path = strings.Join(callable.Path.Segments, "::")
		isAsync = callable.IsAsync
	}

	args := make([]string, 0)
	for _, e := range g.EdgesInto(handlerNode.ID) {
		arg := "err"
		if e.Producer != errNode.ID {
			arg = local[e.Producer]
		}
		if e.Kind == callgraph.EdgeSharedBorrow {
			arg = "&" + arg
		}
		args = append(args, arg)
	}

	expr := fmt.Sprintf("%s(%s)", path, strings.Join(args, ", "))
	if isAsync {
		expr += ".await"
	}
	return expr
}

func inputStatement(n *callgraph.Node, local map[string]string) (string, *Param) {
	switch {
	case n.SourceKind == callgraph.InputSourceFrameworkItem:
		p := &Param{Name: n.FrameworkItem, Type: n.OutputType.String()}
		return fmt.Sprintf("let %s = %s;", local[n.ID], n.FrameworkItem), p

	case n.FromAppState:
		field := pipeline.CarrierFieldName(n.OutputType)
		p := &Param{Name: "app_state", Type: "&ApplicationState"}
		return fmt.Sprintf("let %s = &app_state.%s;", local[n.ID], field), p

	default:
		field := pipeline.CarrierFieldName(n.OutputType)
		p := &Param{Name: "request_state", Type: "&RequestScopedState"}
		return fmt.Sprintf("let %s = &request_state.%s;", local[n.ID], field), p
	}
}
