package callgraph

import (
	"fmt"
	"testing"

	"github.com/pavexcore/pavexc/pkg/componentdb"
	"github.com/pavexcore/pavexc/pkg/resolvedtype"
)

type fakeComponents struct {
	callables     map[string]resolvedtype.Callable
	lifecycles    map[string]componentdb.Lifecycle
	cloning       map[string]componentdb.CloningStrategy
	components    map[string]componentdb.Component
	errorHandlers map[string]string // fallible component id -> handler component id

	synthSeq int
}

func (f *fakeComponents) Callable(id string) (resolvedtype.Callable, bool) {
	c, ok := f.callables[id]
	return c, ok
}

func (f *fakeComponents) Lifecycle(id string) (componentdb.Lifecycle, bool) {
	l, ok := f.lifecycles[id]
	return l, ok
}

func (f *fakeComponents) CloningStrategy(id string) (componentdb.CloningStrategy, bool) {
	s, ok := f.cloning[id]
	return s, ok
}

func (f *fakeComponents) ErrorHandlerFor(fallibleComponentID string, errType resolvedtype.ResolvedType, scope string) (string, bool) {
	id, ok := f.errorHandlers[fallibleComponentID]
	return id, ok
}

func (f *fakeComponents) Component(id string) (componentdb.Component, bool) {
	c, ok := f.components[id]
	return c, ok
}

func (f *fakeComponents) NewComponentID(prefix string) string {
	f.synthSeq++
	return fmt.Sprintf("%s_%d", prefix, f.synthSeq)
}

func (f *fakeComponents) InternSynthetic(c componentdb.Component) {
	if f.components == nil {
		f.components = map[string]componentdb.Component{}
	}
	f.components[c.ID] = c
}

type fakeResolver struct {
	byType map[string]string // ResolvedType.String() -> component id
}

func (f *fakeResolver) GetOrBind(scope string, t resolvedtype.ResolvedType) (string, bool) {
	id, ok := f.byType[t.String()]
	return id, ok
}

func TestBuilder_SimpleChain(t *testing.T) {
	userType, _ := resolvedtype.ParsePath("crate::User")

	handler := resolvedtype.NewCallable(resolvedtype.PathType{Segments: []string{"crate", "get_user"}}, []resolvedtype.ResolvedType{userType}, resolvedtype.Scalar(resolvedtype.ScalarUnit), false)
	ctor := resolvedtype.NewCallable(resolvedtype.PathType{Segments: []string{"crate", "extract_user"}}, nil, userType, false)

	components := &fakeComponents{
		callables: map[string]resolvedtype.Callable{
			"handler":   handler,
			"user_ctor": ctor,
		},
		lifecycles: map[string]componentdb.Lifecycle{"user_ctor": componentdb.LifecycleRequestScoped},
	}
	resolver := &fakeResolver{byType: map[string]string{userType.String(): "user_ctor"}}

	b := NewBuilder(components, resolver, nil, nil)
	g, err := b.Build("handler", "root")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(g.Nodes) != 2 {
		t.Fatalf("expected 2 nodes (handler + user ctor), got %d", len(g.Nodes))
	}
	foundCompute := false
	for _, n := range g.Nodes {
		if n.Kind == NodeCompute && n.ComponentID == "user_ctor" {
			foundCompute = true
		}
	}
	if !foundCompute {
		t.Error("expected a Compute node for user_ctor")
	}
}

func TestBuilder_FrameworkItem(t *testing.T) {
	reqType, _ := resolvedtype.ParsePath("pavex_runtime::Request")
	handler := resolvedtype.NewCallable(resolvedtype.PathType{Segments: []string{"crate", "handle"}}, []resolvedtype.ResolvedType{reqType}, resolvedtype.Scalar(resolvedtype.ScalarUnit), false)

	components := &fakeComponents{callables: map[string]resolvedtype.Callable{"handler": handler}}
	resolver := &fakeResolver{byType: map[string]string{}}
	classifier := func(t resolvedtype.ResolvedType) (string, bool) {
		if t.Kind == resolvedtype.KindPath && len(t.Path.Segments) > 0 && t.Path.Segments[len(t.Path.Segments)-1] == "Request" {
			return "request", true
		}
		return "", false
	}

	b := NewBuilder(components, resolver, classifier, nil)
	g, err := b.Build("handler", "root")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	found := false
	for _, n := range g.Nodes {
		if n.Kind == NodeInputParameter && n.SourceKind == InputSourceFrameworkItem && n.FrameworkItem == "request" {
			found = true
		}
	}
	if !found {
		t.Error("expected a framework-item InputParameter node for Request")
	}
}

func TestBuilder_SingletonSourcedFromAppState(t *testing.T) {
	dbType, _ := resolvedtype.ParsePath("crate::Db")
	handler := resolvedtype.NewCallable(resolvedtype.PathType{Segments: []string{"crate", "handle"}}, []resolvedtype.ResolvedType{dbType}, resolvedtype.Scalar(resolvedtype.ScalarUnit), false)

	components := &fakeComponents{
		callables:  map[string]resolvedtype.Callable{"handler": handler},
		lifecycles: map[string]componentdb.Lifecycle{"db_ctor": componentdb.LifecycleSingleton},
	}
	resolver := &fakeResolver{byType: map[string]string{dbType.String(): "db_ctor"}}

	b := NewBuilder(components, resolver, nil, nil)
	g, err := b.Build("handler", "root")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	found := false
	for _, n := range g.Nodes {
		if n.FromAppState && n.SourceComponent == "db_ctor" {
			found = true
		}
	}
	if !found {
		t.Error("expected an ApplicationState-sourced InputParameter node for the singleton")
	}
}

func TestBuilder_ApplicationStateBuilderConstructsSingletonsForReal(t *testing.T) {
	dbType, _ := resolvedtype.ParsePath("crate::Db")
	// The synthetic ApplicationState::new root takes the singleton type
	// directly as an input, the same way pkg/appstate wires it.
	root := resolvedtype.NewCallable(resolvedtype.PathType{Segments: []string{"crate", "ApplicationState", "new"}}, []resolvedtype.ResolvedType{dbType}, resolvedtype.Scalar(resolvedtype.ScalarUnit), true)

	components := &fakeComponents{
		callables:  map[string]resolvedtype.Callable{"root": root, "db_ctor": resolvedtype.NewCallable(resolvedtype.PathType{Segments: []string{"crate", "connect"}}, nil, dbType, false)},
		lifecycles: map[string]componentdb.Lifecycle{"db_ctor": componentdb.LifecycleSingleton},
	}
	resolver := &fakeResolver{byType: map[string]string{dbType.String(): "db_ctor"}}

	b := NewApplicationStateBuilder(components, resolver, nil)
	g, err := b.Build("root", "root")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, n := range g.Nodes {
		if n.FromAppState {
			t.Error("expected the singleton to be constructed for real, not sourced from appstate")
		}
	}
	found := false
	for _, n := range g.Nodes {
		if n.Kind == NodeCompute && n.ComponentID == "db_ctor" {
			found = true
		}
	}
	if !found {
		t.Error("expected a Compute node invoking db_ctor")
	}
}

func TestBuilder_FallibleConstructorWiresMatchBranching(t *testing.T) {
	resultType, _ := resolvedtype.ParsePath("std::result::Result<crate::User, crate::Error>")
	handler := resolvedtype.NewCallable(resolvedtype.PathType{Segments: []string{"crate", "handle"}}, []resolvedtype.ResolvedType{resultType.Path.Generics[0]}, resolvedtype.Scalar(resolvedtype.ScalarUnit), false)
	ctor := resolvedtype.NewCallable(resolvedtype.PathType{Segments: []string{"crate", "extract_user"}}, nil, resultType, false)

	components := &fakeComponents{
		callables:  map[string]resolvedtype.Callable{"handler": handler, "user_ctor": ctor},
		lifecycles: map[string]componentdb.Lifecycle{"user_ctor": componentdb.LifecycleRequestScoped},
	}
	resolver := &fakeResolver{byType: map[string]string{resultType.Path.Generics[0].String(): "user_ctor"}}

	b := NewBuilder(components, resolver, nil, nil)
	g, err := b.Build("handler", "root")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var sawBranch, sawOk, sawErr bool
	for _, n := range g.Nodes {
		switch {
		case n.Kind == NodeMatchBranching:
			sawBranch = true
		case n.MatchArm == MatchArmOk:
			sawOk = true
		case n.MatchArm == MatchArmErr:
			sawErr = true
		}
	}
	if !sawBranch || !sawOk || !sawErr {
		t.Errorf("expected MatchBranching + OkMatch + ErrMatch nodes, got branch=%v ok=%v err=%v", sawBranch, sawOk, sawErr)
	}
}

func TestBuilder_FallibleConstructorWiresErrorHandler(t *testing.T) {
	resultType, _ := resolvedtype.ParsePath("std::result::Result<crate::User, crate::ConnErr>")
	errType := resultType.Path.Generics[1]
	handler := resolvedtype.NewCallable(resolvedtype.PathType{Segments: []string{"crate", "handle"}}, []resolvedtype.ResolvedType{resultType.Path.Generics[0]}, resolvedtype.Scalar(resolvedtype.ScalarUnit), false)
	ctor := resolvedtype.NewCallable(resolvedtype.PathType{Segments: []string{"crate", "extract_user"}}, nil, resultType, false)
	onConnErr := resolvedtype.NewCallable(resolvedtype.PathType{Segments: []string{"crate", "on_conn_err"}}, []resolvedtype.ResolvedType{resolvedtype.Ref(errType)}, resolvedtype.Scalar(resolvedtype.ScalarUnit), false)

	components := &fakeComponents{
		callables:     map[string]resolvedtype.Callable{"handler": handler, "user_ctor": ctor, "err_handler": onConnErr},
		lifecycles:    map[string]componentdb.Lifecycle{"user_ctor": componentdb.LifecycleRequestScoped},
		errorHandlers: map[string]string{"user_ctor": "err_handler"},
	}
	resolver := &fakeResolver{byType: map[string]string{resultType.Path.Generics[0].String(): "user_ctor"}}

	b := NewBuilder(components, resolver, nil, nil)
	g, err := b.Build("handler", "root")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var errNode *Node
	for _, n := range g.Nodes {
		if n.MatchArm == MatchArmErr {
			errNode = n
		}
	}
	if errNode == nil || errNode.ErrorHandlerID == "" {
		t.Fatalf("expected the ErrMatch node to have a wired error handler, got %+v", errNode)
	}

	handlerNode, ok := g.Nodes[errNode.ErrorHandlerID]
	if !ok || handlerNode.ComponentID != "err_handler" {
		t.Errorf("expected the wired node to invoke err_handler, got %+v", handlerNode)
	}
}

func TestBuilder_UnconstructibleTypeErrors(t *testing.T) {
	dbType, _ := resolvedtype.ParsePath("crate::Db")
	handler := resolvedtype.NewCallable(resolvedtype.PathType{Segments: []string{"crate", "handle"}}, []resolvedtype.ResolvedType{dbType}, resolvedtype.Scalar(resolvedtype.ScalarUnit), false)

	components := &fakeComponents{callables: map[string]resolvedtype.Callable{"handler": handler}}
	resolver := &fakeResolver{byType: map[string]string{}}

	b := NewBuilder(components, resolver, nil, nil)
	if _, err := b.Build("handler", "root"); err == nil {
		t.Error("expected an unconstructible-type error")
	}
}
