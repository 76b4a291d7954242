package rustdoc

import (
	"strconv"
	"strings"
)

// AnnotationKind identifies a #[pavex::*] macro attached to a rustdoc item.
// The raw attribute name in rustdoc JSON is "diagnostic::pavex::<kind>".
type AnnotationKind string

const (
	AnnotationConstructor   AnnotationKind = "constructor"
	AnnotationConfig        AnnotationKind = "config"
	AnnotationPrebuilt      AnnotationKind = "prebuilt"
	AnnotationRoute         AnnotationKind = "route"
	AnnotationFallback      AnnotationKind = "fallback"
	AnnotationErrorHandler  AnnotationKind = "error_handler"
	AnnotationWrap          AnnotationKind = "wrap"
	AnnotationPreProcess    AnnotationKind = "pre_process"
	AnnotationPostProcess   AnnotationKind = "post_process"
	AnnotationErrorObserver AnnotationKind = "error_observer"
	AnnotationMethods       AnnotationKind = "methods"
)

const attrPrefix = "diagnostic::pavex::"

// Annotation is a parsed #[pavex::<kind>(key = "value", ...)] attribute.
type Annotation struct {
	Kind AnnotationKind
	// ID is the opaque identifier every annotation kind carries, unique
	// within the defining package.
	ID     string
	Params map[string]string
}

// AnnotatedItem pairs a rustdoc Item with the single Pavex annotation found
// on it. Doc Index callers use this as the unit of UserComponent intern.
type AnnotatedItem struct {
	Item       Item
	Annotation Annotation
}

// ParseAnnotation extracts the Pavex annotation from a raw attribute string,
// e.g. `diagnostic::pavex::constructor(lifecycle = "singleton", id = "c1")`.
// Returns ok=false if attr isn't a recognized Pavex annotation.
func ParseAnnotation(attr string) (Annotation, bool) {
	if !strings.HasPrefix(attr, attrPrefix) {
		return Annotation{}, false
	}
	rest := attr[len(attrPrefix):]

	open := strings.IndexByte(rest, '(')
	var kindStr, paramStr string
	if open == -1 {
		kindStr = rest
	} else {
		kindStr = rest[:open]
		close := strings.LastIndexByte(rest, ')')
		if close > open {
			paramStr = rest[open+1 : close]
		}
	}

	ann := Annotation{Kind: AnnotationKind(kindStr), Params: parseParams(paramStr)}
	ann.ID = ann.Params["id"]
	return ann, true
}

// parseParams parses a comma-separated `key = "value"` list. Values are
// always strings in the annotation payload format; numeric or boolean
// parameters (e.g. error_handler's error_ref_input_index) are encoded as
// their string form and converted by the caller that knows the expected
// type.
func parseParams(s string) map[string]string {
	params := map[string]string{}
	if strings.TrimSpace(s) == "" {
		return params
	}
	for _, pair := range splitTopLevel(s, ',') {
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 {
			continue
		}
		key := strings.TrimSpace(kv[0])
		val := strings.TrimSpace(kv[1])
		val = strings.Trim(val, `"`)
		params[key] = val
	}
	return params
}

// splitTopLevel splits s on sep, ignoring occurrences inside double quotes.
func splitTopLevel(s string, sep byte) []string {
	var parts []string
	var cur strings.Builder
	inQuotes := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"':
			inQuotes = !inQuotes
			cur.WriteByte(c)
		case c == sep && !inQuotes:
			parts = append(parts, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	parts = append(parts, cur.String())
	return parts
}

// IntParam parses a parameter expected to hold an integer, e.g.
// error_handler's error_ref_input_index.
func (a Annotation) IntParam(key string) (int, bool) {
	v, ok := a.Params[key]
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// BoolParam parses a parameter expected to hold a boolean, e.g.
// route's allow_any_method.
func (a Annotation) BoolParam(key string) bool {
	return a.Params[key] == "true"
}

// AnnotatedItems scans every item in docs for a recognized Pavex annotation
// attribute, returning one AnnotatedItem per match.
func AnnotatedItems(docs *CrateDocs) []AnnotatedItem {
	var out []AnnotatedItem
	for _, it := range docs.Items {
		for _, attr := range it.Attrs {
			if ann, ok := ParseAnnotation(attr); ok {
				out = append(out, AnnotatedItem{Item: it, Annotation: ann})
				break
			}
		}
	}
	return out
}
