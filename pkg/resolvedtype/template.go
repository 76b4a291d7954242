package resolvedtype

// Bindings maps generic parameter names to the concrete types substituted
// for them.
type Bindings map[string]ResolvedType

// IsATemplateFor attempts to unify template (which may contain unbound
// generic parameters) against the concrete type target. On success it
// returns the binding for every generic parameter found in template. This
// is the core of get_or_bind's generic-constructor specialization: a
// templated constructor `extract_json<T>() -> Json<T>` is a template for
// `Json<User>` with T bound to User.
func IsATemplateFor(template, target ResolvedType) (Bindings, bool) {
	bindings := Bindings{}
	if unify(template, target, bindings) {
		return bindings, true
	}
	return nil, false
}

func unify(template, target ResolvedType, bindings Bindings) bool {
	if template.Kind == KindGeneric {
		if existing, bound := bindings[template.Generic]; bound {
			return Equal(existing, target)
		}
		bindings[template.Generic] = target
		return true
	}

	if template.Kind != target.Kind {
		return false
	}

	switch template.Kind {
	case KindScalar:
		return template.Scalar == target.Scalar
	case KindGeneric:
		return true // unreachable, handled above
	case KindReference:
		if template.Reference.Mutable != target.Reference.Mutable {
			return false
		}
		return unify(*template.Reference.Inner, *target.Reference.Inner, bindings)
	case KindSlice:
		return unify(*template.Slice, *target.Slice, bindings)
	case KindTuple:
		if len(template.Tuple) != len(target.Tuple) {
			return false
		}
		for i := range template.Tuple {
			if !unify(template.Tuple[i], target.Tuple[i], bindings) {
				return false
			}
		}
		return true
	case KindPath:
		if template.Path.CrateName != target.Path.CrateName {
			return false
		}
		if len(template.Path.Segments) != len(target.Path.Segments) {
			return false
		}
		for i := range template.Path.Segments {
			if template.Path.Segments[i] != target.Path.Segments[i] {
				return false
			}
		}
		if len(template.Path.Generics) != len(target.Path.Generics) {
			return false
		}
		for i := range template.Path.Generics {
			if !unify(template.Path.Generics[i], target.Path.Generics[i], bindings) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Substitute replaces every bound generic parameter in t with its concrete
// binding, leaving unbound parameters untouched.
func Substitute(t ResolvedType, bindings Bindings) ResolvedType {
	switch t.Kind {
	case KindGeneric:
		if bound, ok := bindings[t.Generic]; ok {
			return bound
		}
		return t
	case KindReference:
		inner := Substitute(*t.Reference.Inner, bindings)
		return ResolvedType{Kind: KindReference, Reference: &ReferenceType{Inner: &inner, Mutable: t.Reference.Mutable}}
	case KindSlice:
		inner := Substitute(*t.Slice, bindings)
		return ResolvedType{Kind: KindSlice, Slice: &inner}
	case KindTuple:
		elems := make([]ResolvedType, len(t.Tuple))
		for i, e := range t.Tuple {
			elems[i] = Substitute(e, bindings)
		}
		return ResolvedType{Kind: KindTuple, Tuple: elems}
	case KindPath:
		generics := make([]ResolvedType, len(t.Path.Generics))
		for i, g := range t.Path.Generics {
			generics[i] = Substitute(g, bindings)
		}
		return Path(t.Path.CrateName, t.Path.Segments, generics...)
	default:
		return t
	}
}

// BindGenerics substitutes bindings into every input and the output of a
// templated Callable, producing the specialized Callable a BoundConstructor
// synthetic component wraps. It is the left inverse of IsATemplateFor:
// BindGenerics(template, IsATemplateFor(template, T)) reproduces T in the
// template's output position.
func BindGenerics(template Callable, bindings Bindings) Callable {
	inputs := make([]ResolvedType, len(template.Inputs))
	for i, in := range template.Inputs {
		inputs[i] = Substitute(in, bindings)
	}
	output := Substitute(template.Output, bindings)
	return NewCallable(template.Path, inputs, output, template.IsAsync)
}
