package compiler

import (
	"github.com/pavexcore/pavexc/pkg/componentdb"
	"github.com/pavexcore/pavexc/pkg/constructibles"
	"github.com/pavexcore/pavexc/pkg/resolvedtype"
)

// BuildConstructiblesIndex registers every constructor, prebuilt type, and
// config type interned in db against the scope it was registered in: a
// concrete registration when its output type has no unbound generic
// parameter, a template registration otherwise, deferred to GetOrBind
// specialization at call-graph-build time.
func BuildConstructiblesIndex(db *componentdb.DB) *constructibles.Index {
	bind := func(templateComponentID string, bindings resolvedtype.Bindings) (string, resolvedtype.ResolvedType) {
		template, ok := db.Components[templateComponentID]
		if !ok {
			return "", resolvedtype.ResolvedType{}
		}
		callable, _ := db.Callable(templateComponentID)
		bound := resolvedtype.BindGenerics(callable, bindings)
		outputType := bound.ProducedType()
		id := db.NewComponentID("bound")
		db.InternSynthetic(componentdb.NewBoundConstructor(id, template, bindings, outputType))
		return id, outputType
	}

	idx := constructibles.New(db.Scopes, bind)

	for id, c := range db.Components {
		if c.Kind != componentdb.ComponentUser {
			continue
		}
		uc, ok := db.Users[c.UserComponentID]
		if !ok {
			continue
		}
		switch uc.Kind {
		case componentdb.KindConstructor, componentdb.KindPrebuiltType, componentdb.KindConfigType:
		default:
			continue
		}
		if c.OutputType.IsGeneric() {
			idx.RegisterTemplate(c.Scope, c.OutputType, id)
		} else {
			idx.RegisterConcrete(c.Scope, c.OutputType, id)
		}
	}

	return idx
}
