package componentdb

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pavexcore/pavexc/pkg/errors"
	"github.com/pavexcore/pavexc/pkg/resolvedtype"
	"github.com/pavexcore/pavexc/pkg/rustdoc"
)

// DocIndex is the subset of the Doc Index a ComponentDB build needs to
// resolve a rustdoc item id into a Callable and to expand a
// RegisteredImport into the AnnotatedItems it points at.
type DocIndex interface {
	Lookup(itemID string) (rustdoc.Item, error)
	AnnotatedItemsUnder(modulePath string) ([]rustdoc.AnnotatedItem, error)
	ExternalReexport(itemID string) (sourcePackage string, sourcePath []string, ok bool)
}

// DB is the hydrated User-Component DB and Component DB: every Blueprint
// registration flattened into UserComponents, the scope graph they live
// in, and the diagnostics raised while building it.
type DB struct {
	Scopes     *ScopeGraph
	Users      map[string]UserComponent
	Components map[string]Component // every UserComponent interned as a base Component, plus synthetic derivations
	Routes     map[string]string    // routeMapKey(router key) -> UserComponent id
	nextID     int
	docIndex   DocIndex
}

// Build hydrates a DB from a root Blueprint tree.
func Build(root BlueprintNode, docIndex DocIndex) (*DB, error) {
	db := &DB{
		Scopes:     NewScopeGraph("root"),
		Users:      map[string]UserComponent{},
		Components: map[string]Component{},
		Routes:     map[string]string{},
		docIndex:   docIndex,
	}
	if err := db.walk(root, "root"); err != nil {
		return nil, err
	}
	for id, uc := range db.Users {
		outputType := uc.Callable.ProducedType()
		if uc.Kind == KindConfigType || uc.Kind == KindPrebuiltType {
			outputType = uc.Type
		}
		db.Components[id] = NewUserComponent(id, uc, outputType)
	}
	if err := db.Scopes.Finalize(); err != nil {
		return nil, err
	}
	return db, nil
}

// NewComponentID mints a fresh, globally unique component id prefixed with
// prefix, for synthetic components interned after the Blueprint-hydration
// pass (e.g. the pipeline composer's noop wrapper slots).
func (db *DB) NewComponentID(prefix string) string {
	return db.freshID(prefix)
}

// InternSynthetic adds a synthetic Component (produced outside the
// Blueprint-hydration pass, e.g. by the call graph builder or borrow
// checker) to the Component DB.
func (db *DB) InternSynthetic(c Component) {
	db.Components[c.ID] = c
}

// Callable looks up the Callable a Component invokes. ComponentUser
// components carry one directly; a ComponentBoundConstructor's Callable is
// its template's Callable with the component's Bindings substituted. Other
// synthetic kinds have none.
func (db *DB) Callable(componentID string) (resolvedtype.Callable, bool) {
	c, ok := db.Components[componentID]
	if !ok {
		return resolvedtype.Callable{}, false
	}
	if c.Kind == ComponentBoundConstructor {
		template, ok := db.Callable(c.DerivedFrom)
		if !ok {
			return resolvedtype.Callable{}, false
		}
		return resolvedtype.BindGenerics(template, c.Bindings), true
	}
	if c.Kind != ComponentUser {
		return resolvedtype.Callable{}, false
	}
	uc, ok := db.Users[c.UserComponentID]
	if !ok {
		return resolvedtype.Callable{}, false
	}
	return uc.Callable, true
}

// Component looks up the base Component record for id, synthetic or user,
// so callers deriving a further synthetic Component (e.g. the call graph
// builder wiring an Ok/Err match) can copy its Scope and OutputType.
func (db *DB) Component(id string) (Component, bool) {
	c, ok := db.Components[id]
	return c, ok
}

// Lifecycle reports the Lifecycle governing componentID, meaningful only
// for constructors.
func (db *DB) Lifecycle(componentID string) (Lifecycle, bool) {
	c, ok := db.Components[componentID]
	if !ok || c.Kind != ComponentUser {
		return "", false
	}
	uc, ok := db.Users[c.UserComponentID]
	if !ok {
		return "", false
	}
	return uc.Lifecycle, true
}

// CloningStrategy reports the CloningStrategy governing componentID.
func (db *DB) CloningStrategy(componentID string) (CloningStrategy, bool) {
	c, ok := db.Components[componentID]
	if !ok || c.Kind != ComponentUser {
		return "", false
	}
	uc, ok := db.Users[c.UserComponentID]
	if !ok {
		return "", false
	}
	return uc.CloningStrategy, true
}

// routeMapKey renders key as a comparable DB.Routes key, since RouterKey
// holds a slice and cannot key a map itself. Two keys render equal only
// when their paths, guard kinds and method lists (in order) are equal.
func routeMapKey(key RouterKey) string {
	return key.Path + "\x00" + string(key.MethodGuard.Kind) + "\x00" + strings.Join(key.MethodGuard.Methods, ",")
}

func (db *DB) freshID(prefix string) string {
	db.nextID++
	return fmt.Sprintf("%s_%d", prefix, db.nextID)
}

// RegistrationSeq extracts the monotonically increasing counter embedded in
// an interned id (e.g. "route_7" -> 7). Ids are assigned in Blueprint walk
// order, so this doubles as each component's registration sequence number,
// used by pkg/pipeline to preserve registration order within a scope.
func RegistrationSeq(id string) int {
	idx := strings.LastIndexByte(id, '_')
	if idx < 0 {
		return 0
	}
	n, err := strconv.Atoi(id[idx+1:])
	if err != nil {
		return 0
	}
	return n
}

func (db *DB) walk(node BlueprintNode, scope string) error {
	switch node.Kind {
	case NodeNestedBlueprint:
		childScope := db.freshID("scope")
		if err := db.Scopes.AddChildScope(childScope, scope); err != nil {
			return err
		}
		for _, child := range node.Children {
			if err := db.walk(child, childScope); err != nil {
				return err
			}
		}
		return nil

	case NodeRegisteredConstructor:
		return db.internConstructor(node, scope)
	case NodeRegisteredRoute:
		return db.internRoute(node, scope)
	case NodeRegisteredWrappingMiddleware:
		return db.internMiddleware(node, scope, KindWrappingMiddleware)
	case NodeRegisteredPreProcessingMiddleware:
		return db.internMiddleware(node, scope, KindPreProcessingMiddleware)
	case NodeRegisteredPostProcessingMiddleware:
		return db.internMiddleware(node, scope, KindPostProcessingMiddleware)
	case NodeRegisteredFallback:
		return db.internMiddleware(node, scope, KindFallback)
	case NodeRegisteredConfig:
		return db.internConfig(node, scope)
	case NodeRegisteredPrebuiltType:
		return db.internPrebuilt(node, scope)
	case NodeRegisteredErrorObserver:
		return db.internMiddleware(node, scope, KindErrorObserver)
	case NodeRegisteredImport:
		return db.internImport(node, scope)
	default:
		return errors.BlueprintShapeError(fmt.Sprintf("unrecognized blueprint node kind %q", node.Kind), nil)
	}
}

func (db *DB) callableFor(itemID string) (resolvedtype.Callable, error) {
	item, err := db.docIndex.Lookup(itemID)
	if err != nil {
		return resolvedtype.Callable{}, err
	}
	inputs := make([]resolvedtype.ResolvedType, len(item.Inputs))
	for i, in := range item.Inputs {
		t, err := resolvedtype.ParsePath(in.Repr)
		if err != nil {
			return resolvedtype.Callable{}, err
		}
		inputs[i] = t
	}
	var output resolvedtype.ResolvedType
	if item.Output != nil {
		output, err = resolvedtype.ParsePath(item.Output.Repr)
		if err != nil {
			return resolvedtype.Callable{}, err
		}
	} else {
		output = resolvedtype.Scalar(resolvedtype.ScalarUnit)
	}
	path := resolvedtype.PathType{CrateName: item.CrateName, Segments: item.FullPath()}
	return resolvedtype.NewCallable(path, inputs, output, item.IsAsync), nil
}

// selfType resolves itemID to the type it itself names, for registrations
// that annotate a struct directly (config, prebuilt) rather than a function
// callableFor's Inputs/Output model doesn't apply to. A registration that
// annotates a `pub use` of a foreign crate's type resolves to that crate's
// own path rather than the local re-export's, since that's the path the
// generated code actually needs to reference.
func (db *DB) selfType(itemID string) (resolvedtype.ResolvedType, error) {
	item, err := db.docIndex.Lookup(itemID)
	if err != nil {
		return resolvedtype.ResolvedType{}, err
	}
	if source, path, ok := db.docIndex.ExternalReexport(itemID); ok {
		return resolvedtype.Path(source, path), nil
	}
	return resolvedtype.Path(item.CrateName, item.FullPath()), nil
}

func (db *DB) internConstructor(node BlueprintNode, scope string) error {
	callable, err := db.callableFor(node.Callable)
	if err != nil {
		return err
	}
	id := db.freshID("constructor")
	db.Users[id] = UserComponent{
		ID:              id,
		Kind:            KindConstructor,
		Scope:           scope,
		Source:          RegistrationSource{File: node.Source.File, Line: node.Source.Line, Column: node.Source.Column},
		Callable:        callable,
		Lifecycle:       node.Lifecycle,
		CloningStrategy: node.CloningStrategy,
	}
	if node.ErrorHandler != "" {
		return db.internBoundErrorHandler(node.ErrorHandler, id, scope, node.Source)
	}
	return nil
}

func (db *DB) internRoute(node BlueprintNode, scope string) error {
	callable, err := db.callableFor(node.Handler)
	if err != nil {
		return err
	}
	key := RouterKey{Path: node.Path, MethodGuard: node.MethodGuard}
	if existing, collides := db.Routes[routeMapKey(key)]; collides {
		return errors.BlueprintShapeError(
			fmt.Sprintf("route %q collides with an existing registration for the same method guard", node.Path),
			map[string]interface{}{"existing_component_id": existing})
	}
	id := db.freshID("route")
	db.Routes[routeMapKey(key)] = id
	db.Users[id] = UserComponent{
		ID:        id,
		Kind:      KindRequestHandler,
		Scope:     scope,
		Source:    RegistrationSource{File: node.Source.File, Line: node.Source.Line, Column: node.Source.Column},
		Callable:  callable,
		RouterKey: key,
	}
	if node.ErrorHandler != "" {
		return db.internBoundErrorHandler(node.ErrorHandler, id, scope, node.Source)
	}
	return nil
}

// internBoundErrorHandler interns an ErrorHandler UserComponent explicitly
// bound to ownerID via a node's inline `error_handler` field — §4.7's
// first preference, ahead of a standalone scope-default handler.
func (db *DB) internBoundErrorHandler(callableID, ownerID, scope string, source SourceLocation) error {
	callable, err := db.callableFor(callableID)
	if err != nil {
		return err
	}
	id := db.freshID("error_handler")
	db.Users[id] = UserComponent{
		ID:                     id,
		Kind:                   KindErrorHandler,
		Scope:                  scope,
		Source:                 RegistrationSource{File: source.File, Line: source.Line, Column: source.Column},
		Callable:               callable,
		ErrorHandlerTargetKind: ErrorHandlerTargetComponent,
		ErrorHandlerTargetID:   ownerID,
	}
	return nil
}

func (db *DB) internMiddleware(node BlueprintNode, scope string, kind UserComponentKind) error {
	callable, err := db.callableFor(node.Callable)
	if err != nil {
		return err
	}
	id := db.freshID(string(kind))
	db.Users[id] = UserComponent{
		ID:       id,
		Kind:     kind,
		Scope:    scope,
		Source:   RegistrationSource{File: node.Source.File, Line: node.Source.Line, Column: node.Source.Column},
		Callable: callable,
	}
	return nil
}

func (db *DB) internConfig(node BlueprintNode, scope string) error {
	var typ resolvedtype.ResolvedType
	if node.Type != "" {
		t, err := db.selfType(node.Type)
		if err != nil {
			return err
		}
		typ = t
	}
	id := db.freshID("config")
	uc := UserComponent{
		ID:              id,
		Kind:            KindConfigType,
		Scope:           scope,
		Source:          RegistrationSource{File: node.Source.File, Line: node.Source.Line, Column: node.Source.Column},
		Type:            typ,
		ConfigKey:       node.ConfigKey,
		IncludeIfUnused: node.IncludeIfUnused,
	}
	db.Users[id] = uc
	return nil
}

func (db *DB) internPrebuilt(node BlueprintNode, scope string) error {
	var typ resolvedtype.ResolvedType
	if node.Type != "" {
		t, err := db.selfType(node.Type)
		if err != nil {
			return err
		}
		typ = t
	}
	id := db.freshID("prebuilt")
	db.Users[id] = UserComponent{
		ID:              id,
		Kind:            KindPrebuiltType,
		Scope:           scope,
		Source:          RegistrationSource{File: node.Source.File, Line: node.Source.Line, Column: node.Source.Column},
		Type:            typ,
		CloningStrategy: node.CloningStrategy,
	}
	return nil
}

// internImport expands a RegisteredImport into one UserComponent per
// annotated item discovered under the imported module path: pavexc treats
// `RegisteredImport{module_path}` as syntactic sugar for registering every
// annotated constructor/route/middleware/... it finds there.
func (db *DB) internImport(node BlueprintNode, scope string) error {
	items, err := db.docIndex.AnnotatedItemsUnder(node.ModulePath)
	if err != nil {
		return err
	}
	for _, ai := range items {
		child, err := db.internAnnotated(ai, scope, node.ModulePath)
		if err != nil {
			return err
		}
		if child.Kind != "" {
			db.Users[child.ID] = child
		}
	}
	return nil
}

func (db *DB) internAnnotated(ai rustdoc.AnnotatedItem, scope, importedFrom string) (UserComponent, error) {
	callable, err := db.callableFor(ai.Item.ID)
	if err != nil {
		return UserComponent{}, err
	}
	source := RegistrationSource{ImportedFrom: importedFrom}
	if ai.Item.Span != nil {
		source.File = ai.Item.Span.Filename
		source.Line = ai.Item.Span.StartLine
		source.Column = ai.Item.Span.StartCol
	}

	switch ai.Annotation.Kind {
	case rustdoc.AnnotationConstructor:
		lifecycle := Lifecycle(ai.Annotation.Params["lifecycle"])
		if lifecycle == "" {
			lifecycle = LifecycleRequestScoped
		}
		cloning := CloningStrategy(ai.Annotation.Params["cloning_strategy"])
		if cloning == "" {
			cloning = CloningNeverClone
		}
		id := db.freshID("constructor")
		return UserComponent{ID: id, Kind: KindConstructor, Scope: scope, Source: source, Callable: callable, Lifecycle: lifecycle, CloningStrategy: cloning}, nil

	case rustdoc.AnnotationRoute:
		guard := MethodGuard{Kind: MethodGuardAny}
		if methods, ok := ai.Annotation.Params["methods"]; ok && methods != "" {
			guard = MethodGuard{Kind: MethodGuardSet, Methods: []string{methods}}
		}
		id := db.freshID("route")
		key := RouterKey{Path: ai.Annotation.Params["path"], MethodGuard: guard}
		if existing, collides := db.Routes[routeMapKey(key)]; collides {
			return UserComponent{}, errors.BlueprintShapeError(
				fmt.Sprintf("route %q collides with an existing registration for the same method guard", key.Path),
				map[string]interface{}{"existing_component_id": existing})
		}
		db.Routes[routeMapKey(key)] = id
		return UserComponent{ID: id, Kind: KindRequestHandler, Scope: scope, Source: source, Callable: callable, RouterKey: key}, nil

	case rustdoc.AnnotationFallback:
		id := db.freshID("fallback")
		return UserComponent{ID: id, Kind: KindFallback, Scope: scope, Source: source, Callable: callable}, nil

	case rustdoc.AnnotationWrap:
		id := db.freshID("wrapping_middleware")
		return UserComponent{ID: id, Kind: KindWrappingMiddleware, Scope: scope, Source: source, Callable: callable}, nil

	case rustdoc.AnnotationPreProcess:
		id := db.freshID("pre_processing_middleware")
		return UserComponent{ID: id, Kind: KindPreProcessingMiddleware, Scope: scope, Source: source, Callable: callable}, nil

	case rustdoc.AnnotationPostProcess:
		id := db.freshID("post_processing_middleware")
		return UserComponent{ID: id, Kind: KindPostProcessingMiddleware, Scope: scope, Source: source, Callable: callable}, nil

	case rustdoc.AnnotationErrorObserver:
		id := db.freshID("error_observer")
		return UserComponent{ID: id, Kind: KindErrorObserver, Scope: scope, Source: source, Callable: callable}, nil

	case rustdoc.AnnotationPrebuilt:
		cloning := CloningStrategy(ai.Annotation.Params["cloning_strategy"])
		if cloning == "" {
			cloning = CloningNeverClone
		}
		selfType, err := db.selfType(ai.Item.ID)
		if err != nil {
			return UserComponent{}, err
		}
		id := db.freshID("prebuilt")
		return UserComponent{ID: id, Kind: KindPrebuiltType, Scope: scope, Source: source, Type: selfType, CloningStrategy: cloning}, nil

	case rustdoc.AnnotationConfig:
		selfType, err := db.selfType(ai.Item.ID)
		if err != nil {
			return UserComponent{}, err
		}
		id := db.freshID("config")
		return UserComponent{ID: id, Kind: KindConfigType, Scope: scope, Source: source, Type: selfType, ConfigKey: ai.Annotation.Params["key"], IncludeIfUnused: ai.Annotation.BoolParam("include_if_unused")}, nil

	case rustdoc.AnnotationErrorHandler:
		idx, hasIdx := ai.Annotation.IntParam("error_ref_input_index")
		if !hasIdx || idx < 0 || idx >= len(callable.Inputs) {
			return UserComponent{}, errors.AnnotationError(ai.Item.ID,
				fmt.Sprintf("error_handler's error_ref_input_index is missing or out of range for %d inputs", len(callable.Inputs)))
		}
		errType := callable.Inputs[idx]
		if errType.Kind == resolvedtype.KindReference {
			errType = *errType.Reference.Inner
		}
		id := db.freshID("error_handler")
		return UserComponent{
			ID: id, Kind: KindErrorHandler, Scope: scope, Source: source, Callable: callable,
			ErrorHandlerTargetKind: ErrorHandlerTargetErrorType,
			ErrorHandlerTargetType: errType,
		}, nil

	case rustdoc.AnnotationMethods:
		// Attached to an impl block rather than interned as its own
		// component; nothing in the call graph ever looks one up directly.
		return UserComponent{}, nil

	default:
		return UserComponent{}, errors.AnnotationError(ai.Item.ID, fmt.Sprintf("unrecognized annotation kind %q", ai.Annotation.Kind))
	}
}
