// Package appstate builds ApplicationState's own construction graph: the
// single call graph, rooted at a struct-literal constructor, that builds
// every singleton component and prebuilt type any stage actually
// references, plus the ApplicationConfig fields and ApplicationStateError
// variants that construction graph implies, per §4.10.
package appstate

import (
	"sort"
	"strings"

	"github.com/pavexcore/pavexc/pkg/callgraph"
	"github.com/pavexcore/pavexc/pkg/componentdb"
	"github.com/pavexcore/pavexc/pkg/resolvedtype"
)

// RootComponentID is the synthetic Component DB id standing in for
// ApplicationState's own struct-literal constructor. It is never present
// in componentdb.DB.Users — it exists only for the duration of this
// package's call graph build.
const RootComponentID = "application_state"

// ConfigField is one field of the generated ApplicationConfig struct: the
// union of every interned ConfigType, following the resolution that a
// field with IncludeIfUnused=true is always present regardless of whether
// any stage actually consumes it.
type ConfigField struct {
	Key              string
	Type             resolvedtype.ResolvedType
	DefaultIfMissing *resolvedtype.ResolvedType
	IncludeIfUnused  bool
}

// ErrorVariant is one arm of the generated ApplicationStateError sum type:
// one per fallible constructor reachable while building ApplicationState.
type ErrorVariant struct {
	Name              string
	Type              resolvedtype.ResolvedType
	SourceComponentID string // the fallible constructor's Component id this variant wraps
}

// ApplicationState is the finalized, borrow-checked construction graph for
// the server's singleton set, plus the ApplicationConfig fields and
// ApplicationStateError variants derived from it.
type ApplicationState struct {
	Graph  *callgraph.Graph
	Config []ConfigField
	Errors []ErrorVariant
}

// CollectSingletons scans every finalized stage call graph for
// InputParameter nodes sourced from a singleton component, returning the
// distinct set of types ApplicationState must supply. Grounded directly on
// the real compiler's `runtime_singletons_can_be_cloned_if_needed` pass,
// which walks every handler pipeline's call graphs the same way to find
// "owned singleton inputs": InputParameter nodes whose source is a
// Singleton-lifecycle component.
func CollectSingletons(graphs []*callgraph.Graph) map[string]resolvedtype.ResolvedType {
	singletons := map[string]resolvedtype.ResolvedType{}
	for _, g := range graphs {
		if g == nil {
			continue
		}
		for _, n := range g.Nodes {
			if n.Kind == callgraph.NodeInputParameter && n.FromAppState && n.SourceComponent != "" {
				singletons[n.SourceComponent] = n.OutputType
			}
		}
	}
	return singletons
}

// rootComponentSource wraps a componentdb.DB, answering Callable for the
// synthetic ApplicationState root while delegating Lifecycle/CloningStrategy
// lookups (and every other component's Callable) to db.
type rootComponentSource struct {
	*componentdb.DB
	root resolvedtype.Callable
}

func (s *rootComponentSource) Callable(componentID string) (resolvedtype.Callable, bool) {
	if componentID == RootComponentID {
		return s.root, true
	}
	return s.DB.Callable(componentID)
}

// Build constructs ApplicationState's own call graph: a synthetic
// struct-literal root whose declared inputs are the singleton types in
// singletons (each singleton constructor is actually invoked, not
// referenced, via callgraph.NewApplicationStateBuilder), then borrow-checks
// the result. Config fields and error variants are derived from db and the
// finalized graph respectively.
func Build(db *componentdb.DB, resolver callgraph.Resolver, isFramework callgraph.FrameworkItemClassifier, singletons map[string]resolvedtype.ResolvedType) (*ApplicationState, error) {
	ids := make([]string, 0, len(singletons))
	for id := range singletons {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	inputs := make([]resolvedtype.ResolvedType, len(ids))
	for i, id := range ids {
		inputs[i] = singletons[id]
	}

	appStateType := resolvedtype.Path("crate", []string{"ApplicationState"})
	root := resolvedtype.NewCallable(
		resolvedtype.PathType{Segments: []string{"crate", "ApplicationState", "new"}},
		inputs, appStateType, true,
	)

	source := &rootComponentSource{DB: db, root: root}
	builder := callgraph.NewApplicationStateBuilder(source, resolver, isFramework)

	g, err := builder.Build(RootComponentID, db.Scopes.Root())
	if err != nil {
		return nil, err
	}

	checker := callgraph.NewChecker(db)
	if err := checker.Check(g); err != nil {
		return nil, err
	}

	return &ApplicationState{
		Graph:  g,
		Config: configFields(db),
		Errors: errorVariants(g),
	}, nil
}

// configFields aggregates every interned ConfigType into ApplicationConfig,
// sorted by key for deterministic emission.
func configFields(db *componentdb.DB) []ConfigField {
	var fields []ConfigField
	for _, uc := range db.Users {
		if uc.Kind != componentdb.KindConfigType {
			continue
		}
		fields = append(fields, ConfigField{
			Key:              uc.ConfigKey,
			Type:             uc.Type,
			DefaultIfMissing: uc.DefaultIfMissing,
			IncludeIfUnused:  uc.IncludeIfUnused,
		})
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i].Key < fields[j].Key })
	return fields
}

// errorVariants walks g for every ErrMatch node reachable while building
// ApplicationState, deriving one ApplicationStateError variant per distinct
// error type, sorted by variant name for deterministic emission.
func errorVariants(g *callgraph.Graph) []ErrorVariant {
	seen := map[string]bool{}
	var variants []ErrorVariant
	for _, n := range g.OrderedNodes() {
		if n.Kind != callgraph.NodeCompute || n.MatchArm != callgraph.MatchArmErr {
			continue
		}
		key := n.OutputType.String()
		if seen[key] {
			continue
		}
		seen[key] = true
		variants = append(variants, ErrorVariant{
			Name:              variantName(n.OutputType),
			Type:              n.OutputType,
			SourceComponentID: n.DerivedFrom,
		})
	}
	sort.Slice(variants, func(i, j int) bool { return variants[i].Name < variants[j].Name })
	return variants
}

// variantName derives a PascalCase sum-type variant name from an error
// type's canonical path, e.g. "crate::ConnectError" -> "ConnectError".
func variantName(t resolvedtype.ResolvedType) string {
	last := t.String()
	if t.Kind == resolvedtype.KindPath && len(t.Path.Segments) > 0 {
		last = t.Path.Segments[len(t.Path.Segments)-1]
	}
	var b strings.Builder
	upperNext := true
	for _, r := range last {
		if r == '_' || r == '-' || r == ':' {
			upperNext = true
			continue
		}
		if upperNext {
			b.WriteString(strings.ToUpper(string(r)))
			upperNext = false
		} else {
			b.WriteRune(r)
		}
	}
	name := b.String()
	if name == "" {
		return "Unknown"
	}
	return name
}

// PublicConstructorSignature documents the fixed shape §4.10 requires:
// ApplicationState's public constructor always takes ApplicationConfig
// first (ignored if unused), is always async, and always returns a Result,
// for ergonomic stability across Blueprints regardless of whether any
// config or fallible singleton is actually present.
func PublicConstructorSignature() string {
	return "pub async fn new(config: ApplicationConfig) -> Result<ApplicationState, ApplicationStateError>"
}
