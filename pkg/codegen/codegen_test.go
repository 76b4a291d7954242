package codegen

import (
	"fmt"
	"strings"
	"testing"

	"github.com/pavexcore/pavexc/pkg/appstate"
	"github.com/pavexcore/pavexc/pkg/callgraph"
	"github.com/pavexcore/pavexc/pkg/componentdb"
	"github.com/pavexcore/pavexc/pkg/resolvedtype"
)

type fakeComponents struct {
	callables     map[string]resolvedtype.Callable
	lifecycles    map[string]componentdb.Lifecycle
	cloning       map[string]componentdb.CloningStrategy
	components    map[string]componentdb.Component
	errorHandlers map[string]string

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

func buildSimpleGraph() (*callgraph.Graph, *fakeComponents) {
	userType, _ := resolvedtype.ParsePath("crate::User")
	reqType, _ := resolvedtype.ParsePath("pavex_runtime::Request")

	handler := resolvedtype.NewCallable(resolvedtype.PathType{Segments: []string{"crate", "handle"}}, []resolvedtype.ResolvedType{userType}, resolvedtype.Scalar(resolvedtype.ScalarUnit), false)
	ctor := resolvedtype.NewCallable(resolvedtype.PathType{Segments: []string{"crate", "extract_user"}}, []resolvedtype.ResolvedType{reqType}, userType, false)

	components := &fakeComponents{callables: map[string]resolvedtype.Callable{
		"handler":   handler,
		"user_ctor": ctor,
	}}
	resolver := &fakeResolver{byType: map[string]string{userType.String(): "user_ctor"}}
	classifier := func(t resolvedtype.ResolvedType) (string, bool) {
		if t.Kind == resolvedtype.KindPath && len(t.Path.Segments) > 0 && t.Path.Segments[len(t.Path.Segments)-1] == "Request" {
			return "request", true
		}
		return "", false
	}

	b := callgraph.NewBuilder(components, resolver, classifier, nil)
	g, err := b.Build("handler", "root")
	if err != nil {
		panic(err)
	}
	return g, components
}

type fakeResolver struct {
	byType map[string]string
}

func (f *fakeResolver) GetOrBind(scope string, t resolvedtype.ResolvedType) (string, bool) {
	id, ok := f.byType[t.String()]
	return id, ok
}

func TestEmit_RendersInputAndComputeStatements(t *testing.T) {
	g, components := buildSimpleGraph()

	fn, err := Emit(g, "handle", false, components)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fn.Body) != 3 {
		t.Fatalf("expected 3 statements (request input, user_ctor call, handler call), got %d: %v", len(fn.Body), fn.Body)
	}
	joined := strings.Join(fn.Body, "\n")
	if !strings.Contains(joined, "let v0 = request;") {
		t.Errorf("expected the framework Request to bind first, got:\n%s", joined)
	}
	if !strings.Contains(joined, "crate::extract_user(") {
		t.Errorf("expected a call to crate::extract_user, got:\n%s", joined)
	}
	if !strings.Contains(joined, "crate::handle(") {
		t.Errorf("expected a call to crate::handle, got:\n%s", joined)
	}

	rendered := Render(fn)
	if !strings.HasPrefix(rendered, "pub fn handle(request: pavex_runtime::Request)") {
		t.Errorf("unexpected signature: %s", rendered)
	}
}

func TestEmit_FallibleConstructorRendersMatch(t *testing.T) {
	resultType, _ := resolvedtype.ParsePath("std::result::Result<crate::User, crate::Error>")
	handler := resolvedtype.NewCallable(resolvedtype.PathType{Segments: []string{"crate", "handle"}}, []resolvedtype.ResolvedType{resultType.Path.Generics[0]}, resolvedtype.Scalar(resolvedtype.ScalarUnit), false)
	ctor := resolvedtype.NewCallable(resolvedtype.PathType{Segments: []string{"crate", "extract_user"}}, nil, resultType, false)

	components := &fakeComponents{callables: map[string]resolvedtype.Callable{"handler": handler, "user_ctor": ctor}}
	resolver := &fakeResolver{byType: map[string]string{resultType.Path.Generics[0].String(): "user_ctor"}}

	b := callgraph.NewBuilder(components, resolver, nil, nil)
	g, err := b.Build("handler", "root")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fn, err := Emit(g, "handle", false, components)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	joined := strings.Join(fn.Body, "\n")
	if !strings.Contains(joined, "match crate::extract_user()") {
		t.Errorf("expected a match expression around the fallible call, got:\n%s", joined)
	}
	if !strings.Contains(joined, "Err(err) => return Err(err.into())") {
		t.Errorf("expected an Err arm returning err.into(), got:\n%s", joined)
	}
}

func TestEmit_FallibleConstructorInvokesWiredErrorHandler(t *testing.T) {
	resultType, _ := resolvedtype.ParsePath("std::result::Result<crate::User, crate::ConnErr>")
	errType := resultType.Path.Generics[1]
	handler := resolvedtype.NewCallable(resolvedtype.PathType{Segments: []string{"crate", "handle"}}, []resolvedtype.ResolvedType{resultType.Path.Generics[0]}, resolvedtype.Scalar(resolvedtype.ScalarUnit), false)
	ctor := resolvedtype.NewCallable(resolvedtype.PathType{Segments: []string{"crate", "extract_user"}}, nil, resultType, false)
	onConnErr := resolvedtype.NewCallable(resolvedtype.PathType{Segments: []string{"crate", "on_conn_err"}}, []resolvedtype.ResolvedType{resolvedtype.Ref(errType)}, resolvedtype.Scalar(resolvedtype.ScalarUnit), false)

	components := &fakeComponents{
		callables:     map[string]resolvedtype.Callable{"handler": handler, "user_ctor": ctor, "err_handler": onConnErr},
		errorHandlers: map[string]string{"user_ctor": "err_handler"},
	}
	resolver := &fakeResolver{byType: map[string]string{resultType.Path.Generics[0].String(): "user_ctor"}}

	b := callgraph.NewBuilder(components, resolver, nil, nil)
	g, err := b.Build("handler", "root")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fn, err := Emit(g, "handle", false, components)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	joined := strings.Join(fn.Body, "\n")
	if !strings.Contains(joined, "Err(err) => return crate::on_conn_err(&err)") {
		t.Errorf("expected the Err arm to invoke the wired handler, got:\n%s", joined)
	}
	if strings.Contains(joined, "err.into()") {
		t.Errorf("did not expect bare error propagation once a handler is wired, got:\n%s", joined)
	}
}

func TestApplicationStateModule_RendersStructsAndRunEntrypoint(t *testing.T) {
	dbType, _ := resolvedtype.ParsePath("crate::Db")
	connectErrType, _ := resolvedtype.ParsePath("crate::ConnectError")
	cfgType, _ := resolvedtype.ParsePath("crate::DbConfig")

	g := callgraph.NewGraph()
	g.RootID = "root"
	g.AddNode(&callgraph.Node{ID: "root", Kind: callgraph.NodeCompute, ComponentID: "application_state"})
	g.AddNode(&callgraph.Node{ID: "n0", Kind: callgraph.NodeCompute, ComponentID: "db_ctor", OutputType: dbType})
	g.AddEdge("n0", "root", callgraph.EdgeMove)

	components := &fakeComponents{callables: map[string]resolvedtype.Callable{
		"db_ctor": resolvedtype.NewCallable(resolvedtype.PathType{Segments: []string{"crate", "connect"}}, nil, dbType, false),
	}}

	config := []appstate.ConfigField{{Key: "db", Type: cfgType}}
	errs := []appstate.ErrorVariant{{Name: "ConnectError", Type: connectErrType}}

	file, err := ApplicationStateModule(g, components, config, errs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	contents := string(file.Contents)

	for _, want := range []string{
		"pub struct ApplicationState {",
		"f_crate_db: crate::Db,",
		"pub enum ApplicationStateError {",
		"ConnectError(crate::ConnectError),",
		"pub struct ApplicationConfig {",
		"pub db: crate::DbConfig,",
		"impl ApplicationState {",
		"pub async fn new(config: ApplicationConfig) -> Result<ApplicationState, ApplicationStateError> {",
		"ApplicationState { f_crate_db: v0 }",
		"pub async fn run(config: ApplicationConfig) -> Result<ApplicationState, ApplicationStateError> {",
	} {
		if !strings.Contains(contents, want) {
			t.Errorf("expected generated module to contain %q, got:\n%s", want, contents)
		}
	}
}

func TestManifest_SortedByName(t *testing.T) {
	out, err := Manifest([]ManifestEntry{
		{Name: "zeta", Version: "1.0.0", PackageID: "zeta#1.0.0"},
		{Name: "alpha", Version: "2.0.0", PackageID: "alpha#2.0.0"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Index(string(out), "alpha") > strings.Index(string(out), "zeta") {
		t.Errorf("expected alpha to sort before zeta, got: %s", out)
	}
}

func TestCheck_ReportsMissingFileAsDifference(t *testing.T) {
	tree := &Tree{Files: []File{{Path: "src/lib.rs", Contents: []byte("pub mod routes;\n")}}}
	differs, err := Check(tree, t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !differs {
		t.Error("expected a missing on-disk file to count as a difference")
	}
}

func TestWriteThenCheck_NoDifference(t *testing.T) {
	dir := t.TempDir()
	tree := &Tree{Files: []File{{Path: "src/lib.rs", Contents: []byte("pub mod routes;\n")}}}
	if err := Write(tree, dir); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	differs, err := Check(tree, dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if differs {
		t.Error("expected no difference after writing the same tree")
	}
}
