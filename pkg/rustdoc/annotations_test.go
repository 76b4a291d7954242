package rustdoc

import "testing"

func TestParseAnnotation(t *testing.T) {
	tests := []struct {
		name     string
		attr     string
		wantOK   bool
		wantKind AnnotationKind
		wantID   string
	}{
		{
			name:     "constructor with lifecycle",
			attr:     `diagnostic::pavex::constructor(lifecycle = "singleton", id = "c1")`,
			wantOK:   true,
			wantKind: AnnotationConstructor,
			wantID:   "c1",
		},
		{
			name:     "route",
			attr:     `diagnostic::pavex::route(path = "/ping", method = "GET", id = "r1")`,
			wantOK:   true,
			wantKind: AnnotationRoute,
			wantID:   "r1",
		},
		{
			name:     "bare fallback with no params",
			attr:     `diagnostic::pavex::fallback`,
			wantOK:   true,
			wantKind: AnnotationFallback,
		},
		{
			name:   "unrelated attribute",
			attr:   `doc(hidden)`,
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ann, ok := ParseAnnotation(tt.attr)
			if ok != tt.wantOK {
				t.Fatalf("ParseAnnotation(%q) ok = %v, want %v", tt.attr, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if ann.Kind != tt.wantKind {
				t.Errorf("expected kind %v, got %v", tt.wantKind, ann.Kind)
			}
			if tt.wantID != "" && ann.ID != tt.wantID {
				t.Errorf("expected id %v, got %v", tt.wantID, ann.ID)
			}
		})
	}
}

func TestAnnotation_IntAndBoolParam(t *testing.T) {
	ann, ok := ParseAnnotation(`diagnostic::pavex::error_handler(error_ref_input_index = "1", default = "true", id = "e1")`)
	if !ok {
		t.Fatal("expected annotation to parse")
	}
	idx, ok := ann.IntParam("error_ref_input_index")
	if !ok || idx != 1 {
		t.Errorf("expected error_ref_input_index=1, got %d (ok=%v)", idx, ok)
	}
	if !ann.BoolParam("default") {
		t.Error("expected default=true")
	}
	if ann.BoolParam("missing") {
		t.Error("expected missing bool param to default false")
	}
}

func TestAnnotatedItems(t *testing.T) {
	docs := &CrateDocs{
		CrateName: "app",
		Items: []Item{
			{
				ID:         "i1",
				Name:       "make_db",
				Kind:       KindFunction,
				Visibility: "public",
				Attrs:      []string{`diagnostic::pavex::constructor(lifecycle = "singleton", id = "c1")`},
			},
			{
				ID:         "i2",
				Name:       "helper",
				Kind:       KindFunction,
				Visibility: "public",
				Attrs:      []string{"doc(hidden)"},
			},
		},
	}

	found := AnnotatedItems(docs)
	if len(found) != 1 {
		t.Fatalf("expected 1 annotated item, got %d", len(found))
	}
	if found[0].Item.Name != "make_db" {
		t.Errorf("expected make_db, got %s", found[0].Item.Name)
	}
	if found[0].Annotation.Kind != AnnotationConstructor {
		t.Errorf("expected constructor kind, got %v", found[0].Annotation.Kind)
	}
}
