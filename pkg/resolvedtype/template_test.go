package resolvedtype

import "testing"

func TestIsATemplateFor(t *testing.T) {
	template, _ := ParsePath("crate::Json<T>")
	target, _ := ParsePath("crate::Json<crate::User>")

	bindings, ok := IsATemplateFor(template, target)
	if !ok {
		t.Fatal("expected template to match target")
	}
	bound, exists := bindings["T"]
	if !exists {
		t.Fatal("expected T to be bound")
	}
	want, _ := ParsePath("crate::User")
	if !Equal(bound, want) {
		t.Errorf("expected T bound to crate::User, got %s", bound.String())
	}
}

func TestIsATemplateFor_MismatchedShape(t *testing.T) {
	template, _ := ParsePath("crate::Json<T>")
	target, _ := ParsePath("crate::Xml<crate::User>")

	if _, ok := IsATemplateFor(template, target); ok {
		t.Error("expected mismatched path segments to fail unification")
	}
}

func TestBindGenerics_IsLeftInverseOfIsATemplateFor(t *testing.T) {
	templateOutput, _ := ParsePath("crate::Json<T>")
	target, _ := ParsePath("crate::Json<crate::User>")

	bindings, ok := IsATemplateFor(templateOutput, target)
	if !ok {
		t.Fatal("expected match")
	}

	template := NewCallable(PathType{Segments: []string{"crate", "extract_json"}}, nil, templateOutput, false)
	bound := BindGenerics(template, bindings)

	if !Equal(bound.Output, target) {
		t.Errorf("expected bound output %s to equal target %s", bound.Output.String(), target.String())
	}
}

func TestIsATemplateFor_RepeatedGenericMustAgree(t *testing.T) {
	template := ResolvedType{Kind: KindTuple, Tuple: []ResolvedType{Generic("T"), Generic("T")}}
	u, _ := ParsePath("crate::User")
	db, _ := ParsePath("crate::Db")

	matching := ResolvedType{Kind: KindTuple, Tuple: []ResolvedType{u, u}}
	if _, ok := IsATemplateFor(template, matching); !ok {
		t.Error("expected repeated generic bound to the same concrete type to unify")
	}

	mismatched := ResolvedType{Kind: KindTuple, Tuple: []ResolvedType{u, db}}
	if _, ok := IsATemplateFor(template, mismatched); ok {
		t.Error("expected repeated generic bound to different concrete types to fail")
	}
}
