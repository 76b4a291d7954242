// Package constructibles implements the Constructibles Index: for each
// scope, the answer to "can I build type T here, possibly after generic
// specialization?"
package constructibles

import "github.com/pavexcore/pavexc/pkg/resolvedtype"

// templateEntry is one unassigned-generic constructor template registered
// in a scope, kept in insertion order since earlier templates take
// priority during get_or_bind.
type templateEntry struct {
	Type        resolvedtype.ResolvedType
	ComponentID string
}

// scopeEntry holds one scope's concrete registrations and ordered
// generic templates.
type scopeEntry struct {
	concrete  map[string]string // ResolvedType.String() -> component id
	templates []templateEntry
}

func newScopeEntry() *scopeEntry {
	return &scopeEntry{concrete: map[string]string{}}
}

// ScopeAncestry answers the scope-walk order get_or_bind needs: a scope
// plus its ancestors, innermost first.
type ScopeAncestry interface {
	Ancestors(scope string) []string
}

// Binder materializes a bound synthetic constructor from a generic
// template component and the bindings get_or_bind discovered, returning
// the new component's id and the concrete type it now produces. The
// Constructibles Index has no notion of Component/UserComponent itself;
// binding is delegated so this package stays decoupled from
// pkg/componentdb's interning scheme.
type Binder func(templateComponentID string, bindings resolvedtype.Bindings) (boundComponentID string, outputType resolvedtype.ResolvedType)

// Index is the Constructibles Index across every scope in a compilation.
type Index struct {
	scopes   map[string]*scopeEntry
	ancestry ScopeAncestry
	bind     Binder
}

// New creates an empty Constructibles Index. ancestry answers scope-walk
// order; bind materializes bound constructors from generic templates.
func New(ancestry ScopeAncestry, bind Binder) *Index {
	return &Index{scopes: map[string]*scopeEntry{}, ancestry: ancestry, bind: bind}
}

func (idx *Index) entry(scope string) *scopeEntry {
	e, ok := idx.scopes[scope]
	if !ok {
		e = newScopeEntry()
		idx.scopes[scope] = e
	}
	return e
}

// RegisterConcrete records that componentID produces t when constructed
// in scope.
func (idx *Index) RegisterConcrete(scope string, t resolvedtype.ResolvedType, componentID string) {
	idx.entry(scope).concrete[t.String()] = componentID
}

// RegisterTemplate records a generic constructor template in scope,
// preserving registration order.
func (idx *Index) RegisterTemplate(scope string, t resolvedtype.ResolvedType, componentID string) {
	e := idx.entry(scope)
	e.templates = append(e.templates, templateEntry{Type: t, ComponentID: componentID})
}

// GetOrBind answers get_or_bind(scope, type): a concrete registration on
// scope or any ancestor wins first; failing that, the first matching
// generic template (walked in the same scope order, then in registration
// order within a scope) is bound and interned into scope's concrete map,
// so repeated requests for the same (scope, type) pair return the same
// bound component.
func (idx *Index) GetOrBind(scope string, t resolvedtype.ResolvedType) (string, bool) {
	chain := idx.walkOrder(scope)

	for _, s := range chain {
		e := idx.scopes[s]
		if e == nil {
			continue
		}
		if id, ok := e.concrete[t.String()]; ok {
			return id, true
		}
	}

	for _, s := range chain {
		e := idx.scopes[s]
		if e == nil {
			continue
		}
		for _, tmpl := range e.templates {
			bindings, ok := resolvedtype.IsATemplateFor(tmpl.Type, t)
			if !ok {
				continue
			}
			boundID, outputType := idx.bind(tmpl.ComponentID, bindings)
			idx.entry(scope).concrete[outputType.String()] = boundID
			return boundID, true
		}
	}

	return "", false
}

// walkOrder returns scope and its ancestors, innermost first, using the
// injected ScopeAncestry when available and falling back to just scope
// itself otherwise (useful in tests with a single flat scope).
func (idx *Index) walkOrder(scope string) []string {
	if idx.ancestry == nil {
		return []string{scope}
	}
	return idx.ancestry.Ancestors(scope)
}
