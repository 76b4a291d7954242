// Package pipeline assembles, per request handler, the ordered middleware
// chain the code emitter lowers into a generated route module: wrapping
// middlewares outer-to-inner, pre-processing hooks, the handler itself,
// then post-processing hooks, following §4.9's scope-walk rules.
package pipeline

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/pavexcore/pavexc/pkg/componentdb"
	"github.com/pavexcore/pavexc/pkg/errors"
	"github.com/pavexcore/pavexc/pkg/resolvedtype"
)

// StageKind discriminates a pipeline slot.
type StageKind string

const (
	StageWrap        StageKind = "wrap"
	StagePreProcess  StageKind = "pre_process"
	StageHandler     StageKind = "handler"
	StagePostProcess StageKind = "post_process"
)

// Stage is one slot of the assembled chain: a single component invocation,
// either a real Blueprint registration or a synthetic noop standing in for
// an empty wrap slot.
type Stage struct {
	Kind        StageKind
	ComponentID string
	Scope       string
}

// Pipeline is the ordered chain assembled for one request handler:
// [wrap_outer, ..., wrap_inner, pre_process..., handler, post_process...].
type Pipeline struct {
	RouteComponentID string
	Stages           []Stage
}

// Assemble builds the Pipeline for the request handler registered as
// routeUserComponentID, walking routeUserComponentID's scope chain from the
// Blueprint root down to the route's own scope and collecting every
// wrapping/pre-processing/post-processing middleware visible along the
// way. Within a scope, registration order is preserved
// (componentdb.RegistrationSeq order). If no wrapping middleware applies, a
// single synthetic noop wrapper is interned into db and used instead, so
// every handler is invoked through a uniform Next-shaped adapter.
func Assemble(db *componentdb.DB, routeUserComponentID string) (*Pipeline, error) {
	route, ok := db.Users[routeUserComponentID]
	if !ok || route.Kind != componentdb.KindRequestHandler {
		return nil, errors.New(errors.ErrCodeDI, fmt.Sprintf("%q is not a registered request handler", routeUserComponentID))
	}

	chain := outerToInner(db.Scopes.Ancestors(route.Scope))

	wraps := collectByScope(db, chain, componentdb.KindWrappingMiddleware)
	pres := collectByScope(db, chain, componentdb.KindPreProcessingMiddleware)
	posts := collectByScope(db, chain, componentdb.KindPostProcessingMiddleware)

	var stages []Stage
	if len(wraps) == 0 {
		id := db.NewComponentID("noop_wrap")
		db.InternSynthetic(componentdb.NewNoopMiddleware(id, route.Scope))
		stages = append(stages, Stage{Kind: StageWrap, ComponentID: id, Scope: route.Scope})
	} else {
		for _, uc := range wraps {
			stages = append(stages, Stage{Kind: StageWrap, ComponentID: uc.ID, Scope: uc.Scope})
		}
	}

	for _, uc := range pres {
		stages = append(stages, Stage{Kind: StagePreProcess, ComponentID: uc.ID, Scope: uc.Scope})
	}

	stages = append(stages, Stage{Kind: StageHandler, ComponentID: route.ID, Scope: route.Scope})

	for _, uc := range posts {
		stages = append(stages, Stage{Kind: StagePostProcess, ComponentID: uc.ID, Scope: uc.Scope})
	}

	return &Pipeline{RouteComponentID: route.ID, Stages: stages}, nil
}

// outerToInner reverses a pkg/componentdb innermost-first ancestor chain
// into outer-scope-first order.
func outerToInner(innermostFirst []string) []string {
	outer := make([]string, len(innermostFirst))
	for i, s := range innermostFirst {
		outer[len(innermostFirst)-1-i] = s
	}
	return outer
}

// collectByScope returns every UserComponent of kind registered in one of
// chain's scopes, ordered outer-scope-first and, within a scope, by
// registration sequence.
func collectByScope(db *componentdb.DB, chain []string, kind componentdb.UserComponentKind) []componentdb.UserComponent {
	scopeRank := make(map[string]int, len(chain))
	for i, s := range chain {
		scopeRank[s] = i
	}

	var matches []componentdb.UserComponent
	for _, uc := range db.Users {
		if uc.Kind != kind {
			continue
		}
		if _, in := scopeRank[uc.Scope]; !in {
			continue
		}
		matches = append(matches, uc)
	}

	sort.Slice(matches, func(i, j int) bool {
		ri, rj := scopeRank[matches[i].Scope], scopeRank[matches[j].Scope]
		if ri != rj {
			return ri < rj
		}
		return componentdb.RegistrationSeq(matches[i].ID) < componentdb.RegistrationSeq(matches[j].ID)
	})
	return matches
}

var nonIdentChars = regexp.MustCompile(`[^a-zA-Z0-9_]+`)

// CarrierFieldName deterministically derives a carrier-struct field name
// from a request-scoped type's canonical path, per §4.9's carrier struct:
// the union of request-scoped types produced by upstream stages, visible
// to downstream stages as Next-continuation inputs.
func CarrierFieldName(t resolvedtype.ResolvedType) string {
	raw := t.String()
	raw = strings.TrimPrefix(raw, "&")
	raw = strings.TrimPrefix(raw, "mut ")
	snake := nonIdentChars.ReplaceAllString(raw, "_")
	snake = strings.Trim(strings.ToLower(snake), "_")
	if snake == "" {
		snake = "field"
	}
	return fmt.Sprintf("f_%s", snake)
}
