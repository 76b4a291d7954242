package resolver

import (
	"context"
	"fmt"
)

// CrateLoader loads enough of a crate's rustdoc JSON to discover its own
// extern-crate dependency references, without fully ingesting it into the
// Doc Index. Implemented by pkg/rustdoc.
type CrateLoader interface {
	PeekDependencies(path string) ([]string, error)
}

// DependencyResolver resolves a crate and its transitive extern-crate
// dependencies, producing a safe ingestion order for the Doc Index.
type DependencyResolver struct {
	resolver Resolver
	loader   CrateLoader
	resolved map[string]ResolvedDependency
	visiting map[string]bool
}

// ResolvedDependency is a crate together with its resolved transitive deps.
type ResolvedDependency struct {
	Name         string
	Crate        ResolvedCrate
	Dependencies []ResolvedDependency
	Depth        int
}

// DependencyGraph is the full resolved crate dependency graph for a
// compilation run.
type DependencyGraph struct {
	Root ResolvedDependency
	All  map[string]ResolvedDependency
	// Order is crates ordered dependencies-first, safe for sequential
	// Doc Index ingestion.
	Order []string
}

// NewDependencyResolver creates a dependency resolver.
func NewDependencyResolver(r Resolver, loader CrateLoader) *DependencyResolver {
	return &DependencyResolver{
		resolver: r,
		loader:   loader,
		resolved: make(map[string]ResolvedDependency),
		visiting: make(map[string]bool),
	}
}

// Resolve resolves ref and all of its transitive extern-crate dependencies.
func (r *DependencyResolver) Resolve(ctx context.Context, ref string) (*DependencyGraph, error) {
	r.resolved = make(map[string]ResolvedDependency)
	r.visiting = make(map[string]bool)

	root, err := r.resolveWithDeps(ctx, ref, ref, 0)
	if err != nil {
		return nil, err
	}

	graph := &DependencyGraph{Root: root, All: r.resolved}
	graph.Order = r.topologicalSort()
	return graph, nil
}

func (r *DependencyResolver) resolveWithDeps(ctx context.Context, name, ref string, depth int) (ResolvedDependency, error) {
	if resolved, ok := r.resolved[name]; ok {
		return resolved, nil
	}

	if r.visiting[ref] {
		return ResolvedDependency{}, fmt.Errorf("circular crate dependency detected: %s", ref)
	}
	r.visiting[ref] = true
	defer delete(r.visiting, ref)

	crate, err := r.resolver.Resolve(ctx, ref)
	if err != nil {
		return ResolvedDependency{}, fmt.Errorf("failed to resolve %s: %w", ref, err)
	}

	deps, err := r.loader.PeekDependencies(crate.Path)
	if err != nil {
		return ResolvedDependency{}, fmt.Errorf("failed to inspect dependencies of %s: %w", ref, err)
	}

	resolvedDep := ResolvedDependency{
		Name:         name,
		Crate:        crate,
		Depth:        depth,
		Dependencies: []ResolvedDependency{},
	}

	for _, dep := range deps {
		depResolved, err := r.resolveWithDeps(ctx, dep, dep, depth+1)
		if err != nil {
			return ResolvedDependency{}, fmt.Errorf("failed to resolve dependency %s: %w", dep, err)
		}
		resolvedDep.Dependencies = append(resolvedDep.Dependencies, depResolved)
	}

	r.resolved[name] = resolvedDep
	return resolvedDep, nil
}

func (r *DependencyResolver) topologicalSort() []string {
	var order []string
	visited := make(map[string]bool)

	var visit func(name string)
	visit = func(name string) {
		if visited[name] {
			return
		}
		visited[name] = true
		if dep, ok := r.resolved[name]; ok {
			for _, d := range dep.Dependencies {
				visit(d.Name)
			}
		}
		order = append(order, name)
	}

	for name := range r.resolved {
		visit(name)
	}
	return order
}

// Flatten returns every resolved crate dependencies-first.
func (g *DependencyGraph) Flatten() []ResolvedDependency {
	deps := make([]ResolvedDependency, 0, len(g.Order))
	for _, name := range g.Order {
		if dep, ok := g.All[name]; ok {
			deps = append(deps, dep)
		}
	}
	return deps
}

// Get retrieves a specific resolved dependency by name.
func (g *DependencyGraph) Get(name string) (ResolvedDependency, bool) {
	dep, ok := g.All[name]
	return dep, ok
}
