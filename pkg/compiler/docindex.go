package compiler

import (
	"context"
	"fmt"

	"github.com/pavexcore/pavexc/pkg/errors"
	"github.com/pavexcore/pavexc/pkg/resolver"
	"github.com/pavexcore/pavexc/pkg/rustdoc"
)

// WorkspaceDocs is the Doc Index's fully ingested view of a compilation
// run's dependency closure: the root crate plus every transitive
// dependency, loaded dependencies-first so trait impls and framework
// items are visible by the time the root crate's Blueprint is hydrated.
type WorkspaceDocs struct {
	Root    *rustdoc.CrateDocs
	ByCrate map[string]*rustdoc.CrateDocs
	Order   []string // crate names, dependencies-first
}

// LoadWorkspace resolves rootRef and its transitive extern-crate
// dependencies, then ingests every resolved crate's rustdoc JSON.
func LoadWorkspace(ctx context.Context, rootRef string, res resolver.Resolver, loader rustdoc.Loader) (*WorkspaceDocs, error) {
	depResolver := resolver.NewDependencyResolver(res, loader)
	graph, err := depResolver.Resolve(ctx, rootRef)
	if err != nil {
		return nil, err
	}

	byCrate := make(map[string]*rustdoc.CrateDocs, len(graph.All))
	for _, name := range graph.Order {
		dep, ok := graph.All[name]
		if !ok {
			return nil, errors.ResolutionError(name, fmt.Errorf("crate %q missing from resolved dependency graph", name))
		}
		docs, err := loader.LoadCrate(dep.Crate.Path)
		if err != nil {
			return nil, err
		}
		byCrate[name] = docs
	}

	root, ok := byCrate[graph.Root.Name]
	if !ok {
		return nil, errors.ResolutionError(graph.Root.Name, fmt.Errorf("root crate %q did not ingest", graph.Root.Name))
	}

	return &WorkspaceDocs{Root: root, ByCrate: byCrate, Order: graph.Order}, nil
}

// VisibleCrateNames returns every crate name ingested into the workspace,
// the set resolvedtype.TraitIndex scopes trait-impl visibility to.
func (w *WorkspaceDocs) VisibleCrateNames() []string {
	names := make([]string, 0, len(w.ByCrate))
	for _, name := range w.Order {
		names = append(names, name)
	}
	return names
}

// AllItems returns every item ingested across the whole dependency
// closure, used to seed resolvedtype.TraitIndex with every KindImpl item
// visible to this compilation run.
func (w *WorkspaceDocs) AllItems() []rustdoc.Item {
	var out []rustdoc.Item
	for _, name := range w.Order {
		out = append(out, w.ByCrate[name].Items...)
	}
	return out
}
