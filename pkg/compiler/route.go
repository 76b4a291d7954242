package compiler

import (
	"fmt"
	"regexp"

	"github.com/pavexcore/pavexc/pkg/callgraph"
	"github.com/pavexcore/pavexc/pkg/codegen"
	"github.com/pavexcore/pavexc/pkg/componentdb"
	"github.com/pavexcore/pavexc/pkg/constructibles"
	"github.com/pavexcore/pavexc/pkg/pipeline"
)

var localVarPattern = regexp.MustCompile(`\bv(\d+)\b`)

// ComposeRoute lowers one assembled Pipeline into a single Function: each
// stage (wrapping middleware, pre-processing, the handler, post-processing)
// gets its own call graph, borrow-checked and emitted independently, then
// the stages are stitched together in order. A later stage's call graph
// is built with the earlier stages' outputs already marked prebuilt, so
// it binds to them as request-scoped state instead of reconstructing them
// — the same request-scoped carrier pkg/codegen's InputParameter handling
// already assumes.
//
// This is a deliberate simplification of Pavex's actual middleware
// composition, where a wrapping middleware receives the remainder of the
// chain as a Next continuation it may choose not to call. Straight-line
// staging cannot express short-circuiting; recorded as an open decision.
func ComposeRoute(db *componentdb.DB, p *pipeline.Pipeline, idx *constructibles.Index, isFramework callgraph.FrameworkItemClassifier) (*codegen.Function, error) {
	params := map[string]codegen.Param{}
	var paramOrder []string
	var body []string
	returnType := "()"

	prebuilt := map[string]string{}
	for i, stage := range p.Stages {
		if isNoopStage(db, stage) {
			continue
		}

		builder := callgraph.NewBuilder(db, idx, isFramework, prebuilt)
		g, err := builder.Build(stage.ComponentID, stage.Scope)
		if err != nil {
			return nil, err
		}

		checker := callgraph.NewChecker(db)
		if err := checker.Check(g); err != nil {
			return nil, err
		}

		fn, err := codegen.Emit(g, fmt.Sprintf("stage_%d", i), false, db)
		if err != nil {
			return nil, err
		}

		prefix := fmt.Sprintf("s%d_", i)
		body = append(body, prefixLocals(fn.Body, prefix)...)
		for _, pr := range fn.Params {
			if _, seen := params[pr.Name]; !seen {
				params[pr.Name] = pr
				paramOrder = append(paramOrder, pr.Name)
			}
		}
		if stage.Kind == pipeline.StageHandler {
			returnType = fn.ReturnType
		}

		if root, ok := g.Nodes[g.RootID]; ok {
			prebuilt[root.OutputType.String()] = fmt.Sprintf("stage%d_output", i)
		}
	}

	ordered := make([]codegen.Param, len(paramOrder))
	for i, name := range paramOrder {
		ordered[i] = params[name]
	}

	return &codegen.Function{
		Name:       "handle",
		Params:     ordered,
		ReturnType: returnType,
		Body:       body,
	}, nil
}

// buildStageGraphs builds and borrow-checks every stage of p independently,
// the same construction ComposeRoute performs, so their finalized graphs
// can be scanned for singleton-sourced InputParameter nodes before
// ApplicationState itself is built. Run as a separate pass from
// ComposeRoute's emission because appstate.Build needs the full singleton
// set up front, before any route's generated source can reference it.
func buildStageGraphs(db *componentdb.DB, p *pipeline.Pipeline, idx *constructibles.Index, isFramework callgraph.FrameworkItemClassifier) ([]*callgraph.Graph, error) {
	var graphs []*callgraph.Graph
	prebuilt := map[string]string{}
	for i, stage := range p.Stages {
		if isNoopStage(db, stage) {
			continue
		}
		builder := callgraph.NewBuilder(db, idx, isFramework, prebuilt)
		g, err := builder.Build(stage.ComponentID, stage.Scope)
		if err != nil {
			return nil, err
		}
		checker := callgraph.NewChecker(db)
		if err := checker.Check(g); err != nil {
			return nil, err
		}
		graphs = append(graphs, g)
		if root, ok := g.Nodes[g.RootID]; ok {
			prebuilt[root.OutputType.String()] = fmt.Sprintf("stage%d_output", i)
		}
	}
	return graphs, nil
}

// isNoopStage reports whether stage stands in for an empty wrapping-
// middleware slot (pipeline.Assemble interns one per route with no
// registered wrapping middleware). A noop stage produces no call graph of
// its own — it exists only so every pipeline has a uniform
// wrap/pre/handler/post shape — so the call-graph builder, which only
// understands ComponentUser Callables, is never asked to build it.
func isNoopStage(db *componentdb.DB, stage pipeline.Stage) bool {
	c, ok := db.Components[stage.ComponentID]
	return ok && c.Kind == componentdb.ComponentNoopMiddleware
}

func prefixLocals(lines []string, prefix string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = localVarPattern.ReplaceAllString(l, prefix+"$0")
	}
	return out
}
