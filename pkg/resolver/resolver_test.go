package resolver

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestDetectReferenceType(t *testing.T) {
	tests := []struct {
		name     string
		ref      string
		expected ReferenceType
	}{
		{name: "relative path with ./", ref: "./crates/api", expected: ReferenceTypeLocal},
		{name: "relative path with ../", ref: "../crates/api", expected: ReferenceTypeLocal},
		{name: "absolute path", ref: "/opt/docs/api", expected: ReferenceTypeLocal},
		{name: "json file", ref: "api.json", expected: ReferenceTypeLocal},
		{name: "bare crate name", ref: "pavex_runtime", expected: ReferenceTypeWorkspace},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectReferenceType(tt.ref)
			if got != tt.expected {
				t.Errorf("DetectReferenceType(%q) = %v, want %v", tt.ref, got, tt.expected)
			}
		})
	}
}

func TestResolver_ResolveLocal(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "doc.json")
	if err := os.WriteFile(jsonPath, []byte(`{}`), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	r := NewResolver(Options{CacheDir: t.TempDir()})
	resolved, err := r.Resolve(context.Background(), dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved.Type != ReferenceTypeLocal {
		t.Errorf("expected local reference, got %v", resolved.Type)
	}
	if resolved.Path != jsonPath {
		t.Errorf("expected path %s, got %s", jsonPath, resolved.Path)
	}
}

func TestResolver_ResolveWorkspace(t *testing.T) {
	r := NewResolver(Options{
		CacheDir:       t.TempDir(),
		WorkspaceIndex: map[string]string{"pavex_runtime": "/cache/pavex_runtime/doc.json"},
	})

	resolved, err := r.Resolve(context.Background(), "pavex_runtime")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved.Type != ReferenceTypeWorkspace {
		t.Errorf("expected workspace reference, got %v", resolved.Type)
	}

	if _, err := r.Resolve(context.Background(), "unknown_crate"); err == nil {
		t.Error("expected error resolving unknown crate")
	}
}

type fakeLoader struct {
	deps map[string][]string
}

func (f *fakeLoader) PeekDependencies(path string) ([]string, error) {
	return f.deps[path], nil
}

func TestDependencyResolver_Resolve(t *testing.T) {
	idx := map[string]string{
		"app":  "/cache/app/doc.json",
		"core": "/cache/core/doc.json",
		"util": "/cache/util/doc.json",
	}
	r := NewResolver(Options{CacheDir: t.TempDir(), WorkspaceIndex: idx})
	loader := &fakeLoader{deps: map[string][]string{
		"/cache/app/doc.json":  {"core", "util"},
		"/cache/core/doc.json": {"util"},
		"/cache/util/doc.json": {},
	}}

	dr := NewDependencyResolver(r, loader)
	graph, err := dr.Resolve(context.Background(), "app")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(graph.Order) != 3 {
		t.Fatalf("expected 3 crates in order, got %d", len(graph.Order))
	}
	// util must come before core, core before app
	pos := map[string]int{}
	for i, name := range graph.Order {
		pos[name] = i
	}
	if pos["util"] > pos["core"] || pos["core"] > pos["app"] {
		t.Errorf("expected dependency order util < core < app, got %v", graph.Order)
	}
}

func TestDependencyResolver_CircularDependency(t *testing.T) {
	idx := map[string]string{"a": "/cache/a/doc.json", "b": "/cache/b/doc.json"}
	r := NewResolver(Options{CacheDir: t.TempDir(), WorkspaceIndex: idx})
	loader := &fakeLoader{deps: map[string][]string{
		"/cache/a/doc.json": {"b"},
		"/cache/b/doc.json": {"a"},
	}}

	dr := NewDependencyResolver(r, loader)
	if _, err := dr.Resolve(context.Background(), "a"); err == nil {
		t.Error("expected circular dependency error")
	}
}
