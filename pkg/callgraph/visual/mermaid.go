// Package visual renders a finalized call graph as a Mermaid flowchart.
package visual

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pavexcore/pavexc/pkg/callgraph"
)

// MermaidOptions controls how a call graph is rendered to a Mermaid
// flowchart.
type MermaidOptions struct {
	// Direction is the flowchart direction: "TD" (top-down) or "LR"
	// (left-right). Defaults to "TD" if empty.
	Direction string

	// Title is an optional diagram title rendered as a front-matter header.
	Title string
}

// RenderMermaid generates a Mermaid flowchart string from a finalized call
// graph. Nodes are rendered in g's insertion order; edges follow Move/
// SharedBorrow direction (producer --> consumer).
func RenderMermaid(g *callgraph.Graph, opts MermaidOptions) (string, error) {
	if g == nil {
		return "", fmt.Errorf("graph is nil")
	}

	direction := opts.Direction
	if direction == "" {
		direction = "TD"
	}

	nodes := g.OrderedNodes()

	var b strings.Builder

	if opts.Title != "" {
		b.WriteString(fmt.Sprintf("---\ntitle: %s\n---\n", opts.Title))
	}
	b.WriteString(fmt.Sprintf("flowchart %s\n", direction))

	displayID := make(map[string]string, len(nodes))
	for _, n := range nodes {
		displayID[n.ID] = sanitizeMermaidID(n.ID)
	}

	for _, n := range nodes {
		did := displayID[n.ID]
		shape := nodeShape(n)
		b.WriteString(fmt.Sprintf("    %s%s\n", did, shape))
	}
	b.WriteString("\n")

	renderEdges(&b, g, displayID)

	return b.String(), nil
}

// renderEdges writes one Mermaid edge per call-graph edge, labeling borrows
// distinctly from moves so a reader can tell at a glance which dependencies
// the borrow checker is required to reason about.
func renderEdges(b *strings.Builder, g *callgraph.Graph, displayID map[string]string) {
	edges := append([]callgraph.Edge{}, g.Edges...)
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Producer != edges[j].Producer {
			return edges[i].Producer < edges[j].Producer
		}
		return edges[i].Consumer < edges[j].Consumer
	})

	for _, e := range edges {
		producer, ok1 := displayID[e.Producer]
		consumer, ok2 := displayID[e.Consumer]
		if !ok1 || !ok2 {
			continue
		}
		switch e.Kind {
		case callgraph.EdgeSharedBorrow:
			b.WriteString(fmt.Sprintf("    %s -. &borrow .-> %s\n", producer, consumer))
		default:
			b.WriteString(fmt.Sprintf("    %s --> %s\n", producer, consumer))
		}
	}
}

// nodeShape renders a node's Mermaid shape and label, varying the shape by
// NodeKind so branch points are visually distinct from compute steps.
func nodeShape(n *callgraph.Node) string {
	label := escapeMermaidLabel(nodeLabel(n))
	switch n.Kind {
	case callgraph.NodeMatchBranching:
		return fmt.Sprintf("{%s}", label)
	case callgraph.NodeInputParameter:
		return fmt.Sprintf("([%s])", label)
	default:
		return fmt.Sprintf("[\"%s\"]", label)
	}
}

// nodeLabel builds a human-readable label describing what a node computes.
func nodeLabel(n *callgraph.Node) string {
	switch n.Kind {
	case callgraph.NodeInputParameter:
		if n.SourceKind == callgraph.InputSourceFrameworkItem {
			return fmt.Sprintf("framework: %s", n.FrameworkItem)
		}
		if n.FromAppState {
			return fmt.Sprintf("state: %s", n.SourceComponent)
		}
		return fmt.Sprintf("input: %s", n.OutputType.String())
	case callgraph.NodeMatchBranching:
		return fmt.Sprintf("match %s", n.OutputType.String())
	default:
		switch {
		case n.IsClone:
			return fmt.Sprintf("clone(%s)", n.DerivedFrom)
		case n.MatchArm == callgraph.MatchArmOk:
			return fmt.Sprintf("Ok(%s)", n.OutputType.String())
		case n.MatchArm == callgraph.MatchArmErr:
			return fmt.Sprintf("Err(%s)", n.OutputType.String())
		default:
			return n.ComponentID
		}
	}
}

// sanitizeMermaidID converts a call graph node id into a Mermaid-safe
// identifier.
func sanitizeMermaidID(id string) string {
	r := strings.NewReplacer("/", "_", ":", "_", ".", "_", " ", "_")
	return "n_" + r.Replace(id)
}

// escapeMermaidLabel escapes characters with special meaning in Mermaid
// labels.
func escapeMermaidLabel(s string) string {
	s = strings.ReplaceAll(s, `"`, `#quot;`)
	return s
}
