package componentdb

import "github.com/pavexcore/pavexc/pkg/resolvedtype"

// ComponentKind discriminates the Component tagged union. A Component is
// either a direct interning of a UserComponent or one of a handful of
// synthetic kinds the compiler derives while building the call graph:
// matching on a fallible component's Ok/Err variant, binding a generic
// constructor template to a concrete type, or standing in for the wrapping
// middleware slot of a route that no wrapping middleware applies to.
type ComponentKind string

const (
	ComponentUser             ComponentKind = "user"
	ComponentOkMatch          ComponentKind = "ok_match"
	ComponentErrMatch         ComponentKind = "err_match"
	ComponentBoundConstructor ComponentKind = "bound_constructor"
	ComponentNoopMiddleware   ComponentKind = "noop_middleware"
)

// Component is an entry in the Component DB: every node the call graph
// builder can wire dependencies to, whether it came straight from the
// Blueprint or was synthesized during DI resolution.
type Component struct {
	ID   string
	Kind ComponentKind

	// Scope is the scope this component is visible/constructible in.
	Scope string

	// UserComponentID is set when Kind == ComponentUser.
	UserComponentID string

	// DerivedFrom records the Component this one was synthesized from,
	// for provenance in diagnostics (e.g. an OkMatch points back at the
	// fallible constructor it unwraps).
	DerivedFrom string

	// OutputType is the resolved type this component produces once
	// invoked/matched/borrowed/bound.
	OutputType resolvedtype.ResolvedType

	// Bindings is populated when Kind == ComponentBoundConstructor: the
	// generic-parameter bindings applied to the template's Callable.
	Bindings resolvedtype.Bindings
}

// NewUserComponent interns a direct Component wrapper around a
// UserComponent.
func NewUserComponent(id string, uc UserComponent, outputType resolvedtype.ResolvedType) Component {
	return Component{
		ID:              id,
		Kind:            ComponentUser,
		Scope:           uc.Scope,
		UserComponentID: uc.ID,
		OutputType:      outputType,
	}
}

// NewOkMatch derives the Ok-branch Component of a fallible component.
func NewOkMatch(id string, parent Component, okType resolvedtype.ResolvedType) Component {
	return Component{
		ID:          id,
		Kind:        ComponentOkMatch,
		Scope:       parent.Scope,
		DerivedFrom: parent.ID,
		OutputType:  okType,
	}
}

// NewErrMatch derives the Err-branch Component of a fallible component.
func NewErrMatch(id string, parent Component, errType resolvedtype.ResolvedType) Component {
	return Component{
		ID:          id,
		Kind:        ComponentErrMatch,
		Scope:       parent.Scope,
		DerivedFrom: parent.ID,
		OutputType:  errType,
	}
}

// NewBoundConstructor derives a Component by binding a generic
// constructor template's free parameters to concrete types.
func NewBoundConstructor(id string, template Component, bindings resolvedtype.Bindings, outputType resolvedtype.ResolvedType) Component {
	return Component{
		ID:          id,
		Kind:        ComponentBoundConstructor,
		Scope:       template.Scope,
		DerivedFrom: template.ID,
		OutputType:  outputType,
		Bindings:    bindings,
	}
}

// NewNoopMiddleware derives a placeholder Component for a pipeline slot
// with no middleware registered, so the pipeline composer can treat
// every slot uniformly.
func NewNoopMiddleware(id, scope string) Component {
	return Component{
		ID:    id,
		Kind:  ComponentNoopMiddleware,
		Scope: scope,
	}
}

// IsSynthetic reports whether c was derived during DI resolution rather
// than interned directly from a Blueprint registration.
func (c Component) IsSynthetic() bool {
	return c.Kind != ComponentUser
}
