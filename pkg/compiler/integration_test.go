package compiler

import (
	"context"
	"testing"

	"github.com/pavexcore/pavexc/pkg/codegen"
	"github.com/pavexcore/pavexc/pkg/componentdb"
	"github.com/pavexcore/pavexc/pkg/resolver"
	"github.com/pavexcore/pavexc/pkg/rustdoc"
)

// TestCompile_RealResolverAndLoader drives Compile with the production
// Resolver and Loader implementations against on-disk fixtures, rather than
// the in-memory fakes TestCompile_ProducesRouteAndEntryModules uses, to
// exercise crate reference detection and rustdoc JSON parsing end to end.
func TestCompile_RealResolverAndLoader(t *testing.T) {
	blueprint, err := componentdb.LoadBlueprintFile("testdata/sample/blueprint.json")
	if err != nil {
		t.Fatalf("LoadBlueprintFile: %v", err)
	}

	res := resolver.NewResolver(resolver.Options{CacheDir: t.TempDir()})
	loader := rustdoc.NewLoader()
	c := New(res, loader)

	result, err := c.Compile(context.Background(), Options{
		RootRef:   "testdata/sample/app.rustdoc.json",
		Blueprint: blueprint,
		ManifestEntries: []codegen.ManifestEntry{
			{Name: "pavex", Version: "0.1.0", PackageID: "pavex 0.1.0"},
		},
	})
	if err != nil {
		t.Fatalf("Compile: %v (diagnostics: %v)", err, result.Diagnostics.All())
	}
	if result.RunID == "" {
		t.Error("Compile did not stamp a RunID")
	}

	var sawRoute, sawAppState bool
	for _, f := range result.Tree.Files {
		switch f.Path {
		case "src/application_state.rs":
			sawAppState = true
		case "src/routes/users_get.rs", "src/routes/users.rs":
			sawRoute = true
		}
		if len(f.Path) > len("src/routes/") && f.Path[:len("src/routes/")] == "src/routes/" {
			sawRoute = true
		}
	}
	if !sawAppState {
		t.Error("Compile did not emit src/application_state.rs from the real fixtures")
	}
	if !sawRoute {
		t.Error("Compile did not emit a route module from the real fixtures")
	}
}
