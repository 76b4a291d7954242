package compiler

import (
	"github.com/pavexcore/pavexc/pkg/callgraph"
	"github.com/pavexcore/pavexc/pkg/resolvedtype"
)

// frameworkItemKinds maps a framework-owned type's final path segment to
// the kind name the call graph records on its InputParameter node, one
// entry per framework item named in the glossary: the request head, raw
// body, matched path, allowed methods, connection info, and path params.
var frameworkItemKinds = map[string]string{
	"RequestHead":        "request_head",
	"RawIncomingBody":    "raw_incoming_body",
	"MatchedPathPattern": "matched_path_pattern",
	"AllowedMethods":     "allowed_methods",
	"ConnectionInfo":     "connection_info",
	"PathParams":         "path_params",
}

// ClassifyFrameworkItem implements callgraph.FrameworkItemClassifier for
// types defined in the pavex runtime crate: a type is framework-owned if
// its crate is "pavex" and its final path segment names one of the
// runtime-synthesized items, looking through any reference wrapper first
// since framework items are almost always consumed by shared borrow.
func ClassifyFrameworkItem(t resolvedtype.ResolvedType) (string, bool) {
	for t.Kind == resolvedtype.KindReference {
		t = *t.Reference.Inner
	}
	if t.Kind != resolvedtype.KindPath || t.Path == nil {
		return "", false
	}
	if t.Path.CrateName != "pavex" {
		return "", false
	}
	segments := t.Path.Segments
	if len(segments) == 0 {
		return "", false
	}
	kind, ok := frameworkItemKinds[segments[len(segments)-1]]
	return kind, ok
}

var _ callgraph.FrameworkItemClassifier = ClassifyFrameworkItem
