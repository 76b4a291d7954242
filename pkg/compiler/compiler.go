// Package compiler wires the Doc Index, Component DB, Constructibles
// Index, Call-Graph Builder, Borrow Checker, Pipeline Composer, Application
// State Builder, and Code Emitter into the two entry points a pavexc
// invocation drives: Compile (materialize generated source) and Check
// (diff it against what's already on disk without writing).
package compiler

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/pavexcore/pavexc/pkg/appstate"
	"github.com/pavexcore/pavexc/pkg/callgraph"
	"github.com/pavexcore/pavexc/pkg/codegen"
	"github.com/pavexcore/pavexc/pkg/componentdb"
	"github.com/pavexcore/pavexc/pkg/diagnostics"
	"github.com/pavexcore/pavexc/pkg/errors"
	"github.com/pavexcore/pavexc/pkg/pipeline"
	"github.com/pavexcore/pavexc/pkg/resolver"
	"github.com/pavexcore/pavexc/pkg/rustdoc"
)

// Options configures a single compilation run.
type Options struct {
	// RootRef is the Blueprint crate's own crate reference, resolved the
	// same way an import declaration's module path is.
	RootRef string

	// Blueprint is the already-deserialized registration tree.
	Blueprint componentdb.BlueprintNode

	// ManifestEntries pins the generated crate's dependencies.
	ManifestEntries []codegen.ManifestEntry
}

// Result is everything a compilation run produces: the diagnostics raised
// along the way and, when compilation succeeded, the generated source
// tree ready to be written or diffed.
type Result struct {
	// RunID stamps this compilation run so its diagnostics can be
	// correlated across CI logs and repeated local runs.
	RunID       string
	Diagnostics *diagnostics.Sink
	Tree        *codegen.Tree
}

// Compiler holds the Doc Index plumbing (crate resolution and rustdoc JSON
// ingestion) a compilation run needs; everything downstream of the Doc
// Index is stateless and rebuilt fresh per Compile call.
type Compiler struct {
	Resolver resolver.Resolver
	Loader   rustdoc.Loader
}

// New creates a Compiler.
func New(res resolver.Resolver, loader rustdoc.Loader) *Compiler {
	return &Compiler{Resolver: res, Loader: loader}
}

// Compile runs the full pipeline for opts.Blueprint: hydrate the Doc
// Index and Component DB, build the Constructibles Index, assemble and
// lower every registered route's pipeline, build ApplicationState, and
// render the generated source tree. It returns a non-nil Result even on
// failure when diagnostics were collected before the failing step;
// callers should check Result.Diagnostics.HasErrors() in addition to the
// returned error.
func (c *Compiler) Compile(ctx context.Context, opts Options) (*Result, error) {
	sink := diagnostics.NewSink()
	result := &Result{RunID: uuid.New().String(), Diagnostics: sink}

	workspace, err := LoadWorkspace(ctx, opts.RootRef, c.Resolver, c.Loader)
	if err != nil {
		sink.Errorf(string(errors.ErrCodeResolution), err.Error())
		return result, err
	}

	docIndex := componentdb.NewCrateDocIndex(workspace.Root)

	db, err := componentdb.Build(opts.Blueprint, docIndex)
	if err != nil {
		sink.Errorf(string(errors.ErrCodeBlueprintShape), err.Error())
		return result, err
	}

	// Trait visibility is scoped to exactly the crates this run ingested.
	// The index is built and then discarded: nothing in Compile queries it,
	// so no trait requirement (such as Clone for an inserted clone) is
	// checked during a compile.
	_ = BuildTraitIndex(workspace)

	idx := BuildConstructiblesIndex(db)

	routeIDs := make([]string, 0, len(db.Routes))
	for _, id := range db.Routes {
		routeIDs = append(routeIDs, id)
	}
	sort.Strings(routeIDs)

	pipelines := make(map[string]*pipeline.Pipeline, len(routeIDs))
	var allGraphs []*callgraph.Graph
	for _, routeID := range routeIDs {
		p, err := pipeline.Assemble(db, routeID)
		if err != nil {
			sink.Errorf(string(errors.ErrCodeDI), err.Error())
			return result, err
		}
		pipelines[routeID] = p

		graphs, err := buildStageGraphs(db, p, idx, ClassifyFrameworkItem)
		if err != nil {
			sink.Errorf(string(errors.ErrCodeBorrow), err.Error())
			return result, err
		}
		allGraphs = append(allGraphs, graphs...)
	}

	singletons := appstate.CollectSingletons(allGraphs)

	state, err := appstate.Build(db, idx, ClassifyFrameworkItem, singletons)
	if err != nil {
		sink.Errorf(string(errors.ErrCodeDI), err.Error())
		return result, err
	}

	stateFile, err := codegen.ApplicationStateModule(state.Graph, db, state.Config, state.Errors)
	if err != nil {
		sink.Errorf(string(errors.ErrCodeEmission), err.Error())
		return result, err
	}

	var files []codegen.File
	var routeModules []string
	for _, routeID := range routeIDs {
		fn, err := ComposeRoute(db, pipelines[routeID], idx, ClassifyFrameworkItem)
		if err != nil {
			sink.Errorf(string(errors.ErrCodeDI), err.Error())
			return result, err
		}
		files = append(files, codegen.RouteModule(routeID, fn))
		routeModules = append(routeModules, routeID)
	}

	files = append(files, stateFile)
	files = append(files, codegen.EntryModule(routeModules))

	manifestBytes, err := codegen.Manifest(opts.ManifestEntries)
	if err != nil {
		sink.Errorf(string(errors.ErrCodeEmission), err.Error())
		return result, err
	}
	files = append(files, codegen.File{Path: "pavexc-manifest.json", Contents: manifestBytes})

	result.Tree = &codegen.Tree{Files: files}
	return result, nil
}

// Check runs Compile and diffs the resulting tree against dir without
// writing, backing `pavexc check`'s exit behavior: zero means the
// generated crate is already up to date.
func (c *Compiler) Check(ctx context.Context, opts Options, dir string) (bool, *Result, error) {
	result, err := c.Compile(ctx, opts)
	if err != nil {
		return false, result, err
	}
	changed, err := codegen.Check(result.Tree, dir)
	if err != nil {
		return false, result, fmt.Errorf("diffing generated tree: %w", err)
	}
	return changed, result, nil
}

// Generate runs Compile and writes the resulting tree to dir.
func (c *Compiler) Generate(ctx context.Context, opts Options, dir string) (*Result, error) {
	result, err := c.Compile(ctx, opts)
	if err != nil {
		return result, err
	}
	if err := codegen.Write(result.Tree, dir); err != nil {
		return result, err
	}
	return result, nil
}
