package codegen

import (
	"fmt"
	"strings"

	"github.com/pavexcore/pavexc/pkg/appstate"
	"github.com/pavexcore/pavexc/pkg/callgraph"
	"github.com/pavexcore/pavexc/pkg/pipeline"
)

// stateField is one field of the generated ApplicationState struct: a
// singleton g's root node depends on, bound to the graph-local variable that
// constructs it.
type stateField struct {
	FieldName string
	LocalVar  string
	Type      string
}

// ApplicationStateModule renders src/application_state.rs in full: the
// ApplicationState struct (one field per singleton the graph constructs),
// the ApplicationStateError enum (one variant per unhandled fallible
// singleton constructor), the ApplicationConfig struct (one field per
// registered config key), the ApplicationState::new constructor assembling
// them, and the run(...) entrypoint §6 requires — replacing the bare
// build-function body EntryModule's re-export of these types previously had
// nothing backing it.
func ApplicationStateModule(g *callgraph.Graph, components CallableSource, config []appstate.ConfigField, errs []appstate.ErrorVariant) (File, error) {
	order, err := callgraph.TopoOrder(g)
	if err != nil {
		return File{}, err
	}
	order = pullClonesAfterOrigin(g, order)

	local := localNames(order)
	errNodeFor := errNodeByParent(g)
	handlerNodes := errorHandlerNodeIDs(g)

	var body []string
	for _, id := range order {
		if id == g.RootID {
			continue // the struct literal below replaces the root's own call
		}
		n := g.Nodes[id]
		switch n.Kind {
		case callgraph.NodeMatchBranching:
			continue
		case callgraph.NodeCompute:
			if n.MatchArm != callgraph.MatchArmNone {
				continue
			}
			if handlerNodes[n.ID] {
				continue
			}
			body = append(body, computeStatement(g, n, local, errNodeFor, components))
		case callgraph.NodeInputParameter:
			stmt, _ := inputStatement(n, local)
			body = append(body, stmt)
		}
	}

	fields := singletonFields(g, local)
	body = append(body, newStatement(fields))

	var b strings.Builder
	writeStateStruct(&b, fields)
	writeStateError(&b, errs)
	writeConfigStruct(&b, config)
	writeStateImpl(&b, body)
	writeRunEntrypoint(&b)

	return File{Path: "src/application_state.rs", Contents: []byte(b.String())}, nil
}

// singletonFields derives ApplicationState's own fields from the edges
// feeding its root node: one per singleton, named the same way a carrier
// struct field for that type is named everywhere else in codegen.
func singletonFields(g *callgraph.Graph, local map[string]string) []stateField {
	var fields []stateField
	for _, e := range g.EdgesInto(g.RootID) {
		n := g.Nodes[e.Producer]
		fields = append(fields, stateField{
			FieldName: pipeline.CarrierFieldName(n.OutputType),
			LocalVar:  local[e.Producer],
			Type:      n.OutputType.String(),
		})
	}
	return fields
}

// newStatement renders the final statement of ApplicationState::new's body:
// the struct literal assembling every singleton field, always wrapped in
// Ok(...) per PublicConstructorSignature's fixed-shape contract.
func newStatement(fields []stateField) string {
	args := make([]string, len(fields))
	for i, f := range fields {
		args[i] = fmt.Sprintf("%s: %s", f.FieldName, f.LocalVar)
	}
	return fmt.Sprintf("Ok(ApplicationState { %s })", strings.Join(args, ", "))
}

func writeStateStruct(b *strings.Builder, fields []stateField) {
	b.WriteString("pub struct ApplicationState {\n")
	for _, f := range fields {
		fmt.Fprintf(b, "    %s: %s,\n", f.FieldName, f.Type)
	}
	b.WriteString("}\n\n")
}

func writeStateError(b *strings.Builder, errs []appstate.ErrorVariant) {
	b.WriteString("#[derive(Debug)]\n")
	b.WriteString("pub enum ApplicationStateError {\n")
	for _, e := range errs {
		fmt.Fprintf(b, "    %s(%s),\n", e.Name, e.Type.String())
	}
	b.WriteString("}\n\n")

	b.WriteString("impl std::fmt::Display for ApplicationStateError {\n")
	b.WriteString("    fn fmt(&self, f: &mut std::fmt::Formatter<'_>) -> std::fmt::Result {\n")
	b.WriteString("        match self {\n")
	for _, e := range errs {
		fmt.Fprintf(b, "            ApplicationStateError::%s(err) => write!(f, \"failed to build application state: {}\", err),\n", e.Name)
	}
	b.WriteString("        }\n")
	b.WriteString("    }\n")
	b.WriteString("}\n\n")
	b.WriteString("impl std::error::Error for ApplicationStateError {}\n\n")
}

func writeConfigStruct(b *strings.Builder, config []appstate.ConfigField) {
	b.WriteString("#[derive(Debug, Clone, serde::Deserialize)]\n")
	b.WriteString("pub struct ApplicationConfig {\n")
	for _, f := range config {
		fmt.Fprintf(b, "    pub %s: %s,\n", f.Key, f.Type.String())
	}
	b.WriteString("}\n\n")
}

func writeStateImpl(b *strings.Builder, body []string) {
	b.WriteString("impl ApplicationState {\n")
	fmt.Fprintf(b, "    %s {\n", appstate.PublicConstructorSignature())
	for _, stmt := range body {
		for _, line := range strings.Split(stmt, "\n") {
			b.WriteString("        ")
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}
	b.WriteString("    }\n")
	b.WriteString("}\n\n")
}

// writeRunEntrypoint renders the crate's top-level run(...) function §6
// requires: builds ApplicationState from the caller's config, handing it
// back ready for the generated route modules to be dispatched against.
func writeRunEntrypoint(b *strings.Builder) {
	b.WriteString("pub async fn run(config: ApplicationConfig) -> Result<ApplicationState, ApplicationStateError> {\n")
	b.WriteString("    ApplicationState::new(config).await\n")
	b.WriteString("}\n")
}
