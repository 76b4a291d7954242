// Package componentdb implements the User-Component DB and Component DB:
// flattening a Blueprint tree into interned UserComponent records, deriving
// synthetic Component variants, and building the scope graph those records
// live in.
package componentdb

import "github.com/pavexcore/pavexc/pkg/resolvedtype"

// Lifecycle controls when a constructor's output is built and how long it
// lives.
type Lifecycle string

const (
	LifecycleSingleton     Lifecycle = "singleton"
	LifecycleRequestScoped Lifecycle = "request_scoped"
	LifecycleTransient     Lifecycle = "transient"
)

// CloningStrategy controls whether the call graph may insert a `.clone()`
// call to resolve a borrow conflict for a given component's output type.
type CloningStrategy string

const (
	CloningNeverClone       CloningStrategy = "never_clone"
	CloningCloneIfNecessary CloningStrategy = "clone_if_necessary"
)

// MethodGuardKind discriminates the MethodGuard tagged union.
type MethodGuardKind string

const (
	MethodGuardAny MethodGuardKind = "any"
	MethodGuardSet MethodGuardKind = "set"
)

// MethodGuard restricts which HTTP methods a route matches.
type MethodGuard struct {
	Kind    MethodGuardKind `json:"kind"`
	Methods []string        `json:"methods,omitempty"` // populated when Kind == MethodGuardSet
}

// AllowsMethod reports whether g matches method.
func (g MethodGuard) AllowsMethod(method string) bool {
	if g.Kind == MethodGuardAny {
		return true
	}
	for _, m := range g.Methods {
		if m == method {
			return true
		}
	}
	return false
}

// RouterKey uniquely identifies a registered route: its path template plus
// its method guard must not collide with any other route in the Blueprint.
type RouterKey struct {
	Path        string
	MethodGuard MethodGuard
}

// RegistrationSource points at the exact Blueprint call or annotation that
// produced a UserComponent, for diagnostics.
type RegistrationSource struct {
	File   string
	Line   int
	Column int
	// ImportedFrom is set when the component was interned via a
	// RegisteredImport rather than a direct Blueprint registration call.
	ImportedFrom string
}

// UserComponentKind discriminates the UserComponent tagged union. Go
// idiom favors one struct with a kind tag and kind-specific fields over a
// polymorphic interface hierarchy here, since dispatch throughout the
// compiler is by pattern match on Kind, never by virtual call.
type UserComponentKind string

const (
	KindRequestHandler           UserComponentKind = "request_handler"
	KindWrappingMiddleware       UserComponentKind = "wrapping_middleware"
	KindPreProcessingMiddleware  UserComponentKind = "pre_processing_middleware"
	KindPostProcessingMiddleware UserComponentKind = "post_processing_middleware"
	KindFallback                 UserComponentKind = "fallback"
	KindConstructor              UserComponentKind = "constructor"
	KindPrebuiltType             UserComponentKind = "prebuilt_type"
	KindConfigType               UserComponentKind = "config_type"
	KindErrorHandler             UserComponentKind = "error_handler"
	KindErrorObserver            UserComponentKind = "error_observer"
)

// ErrorHandlerTargetKind discriminates what an ErrorHandler is attached to.
type ErrorHandlerTargetKind string

const (
	ErrorHandlerTargetComponent ErrorHandlerTargetKind = "fallible_component"
	ErrorHandlerTargetErrorType ErrorHandlerTargetKind = "error_type"
)

// UserComponent is a single Blueprint registration, flattened out of the
// nested Blueprint tree and interned with a stable ID.
type UserComponent struct {
	ID    string
	Kind  UserComponentKind
	Scope string // scope id this component was registered in

	Source RegistrationSource

	// Callable is populated for request handlers, middlewares, fallbacks,
	// constructors, and error handlers/observers: the resolved function
	// this component invokes.
	Callable resolvedtype.Callable

	// Constructor-only fields.
	Lifecycle       Lifecycle
	CloningStrategy CloningStrategy

	// RequestHandler-only fields.
	RouterKey RouterKey

	// ConfigType/PrebuiltType-only field: the struct type itself, since
	// neither registration goes through a callable whose Output names it.
	Type resolvedtype.ResolvedType

	// ConfigType-only fields.
	ConfigKey        string
	DefaultIfMissing *resolvedtype.ResolvedType
	IncludeIfUnused  bool

	// ErrorHandler-only fields.
	ErrorHandlerTargetKind ErrorHandlerTargetKind
	ErrorHandlerTargetID   string                    // set when TargetKind == ErrorHandlerTargetComponent
	ErrorHandlerTargetType resolvedtype.ResolvedType // set when TargetKind == ErrorHandlerTargetErrorType
}
