package codegen

import (
	"fmt"
	"strings"
)

// Render assembles fn's signature and body into a complete Rust function
// definition. Indentation and brace placement follow one fixed rule set —
// a minimal deterministic pretty-printer rather than general templating —
// so repeated runs over the same graph agree byte-for-byte.
func Render(fn *Function) string {
	var b strings.Builder
	if fn.IsAsync {
		b.WriteString("pub async fn ")
	} else {
		b.WriteString("pub fn ")
	}
	b.WriteString(fn.Name)
	b.WriteString("(")
	for i, p := range fn.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s: %s", p.Name, p.Type)
	}
	b.WriteString(") -> ")
	b.WriteString(fn.ReturnType)
	b.WriteString(" {\n")
	for _, stmt := range fn.Body {
		for _, line := range strings.Split(stmt, "\n") {
			b.WriteString("    ")
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}
	b.WriteString("}\n")
	return b.String()
}

// RouteModule renders one route stage's function into its own module file,
// per §4.11's "one module per route stage" layout.
func RouteModule(routeComponentID string, fn *Function) File {
	return File{
		Path:     fmt.Sprintf("src/routes/%s.rs", routeComponentID),
		Contents: []byte(Render(fn)),
	}
}

// EntryModule renders the top-level lib.rs: module declarations for every
// route plus re-exports of ApplicationState, ApplicationStateError, and
// ApplicationConfig, per §6's "library crate with a lib.rs" output shape.
func EntryModule(routeModuleNames []string) File {
	sorted := append([]string{}, routeModuleNames...)
	var b strings.Builder
	b.WriteString("pub mod application_state;\n")
	b.WriteString("pub mod routes {\n")
	for _, m := range sorted {
		fmt.Fprintf(&b, "    pub mod %s;\n", m)
	}
	b.WriteString("}\n\n")
	b.WriteString("pub use application_state::{ApplicationState, ApplicationStateError, ApplicationConfig, run};\n")
	return File{Path: "src/lib.rs", Contents: []byte(b.String())}
}
