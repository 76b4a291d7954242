package configprofile

import "testing"

func TestSet_RegisterAndParse(t *testing.T) {
	s := NewSet()
	if err := s.Register("dev"); err != nil {
		t.Fatalf("Register(dev): %v", err)
	}
	if err := s.Register("prod"); err != nil {
		t.Fatalf("Register(prod): %v", err)
	}

	p, err := s.Parse("prod")
	if err != nil {
		t.Fatalf("Parse(prod): %v", err)
	}
	if p.Name != "prod" {
		t.Fatalf("Parse(prod) = %q, want prod", p.Name)
	}

	if _, err := s.Parse("staging"); err == nil {
		t.Fatal("Parse(staging) succeeded, want error for undeclared profile")
	}
}

func TestSet_RegisterDuplicate(t *testing.T) {
	s := NewSet()
	if err := s.Register("dev"); err != nil {
		t.Fatalf("Register(dev): %v", err)
	}
	if err := s.Register("dev"); err == nil {
		t.Fatal("Register(dev) twice succeeded, want error")
	}
}

func TestSet_RegisterInvalidNames(t *testing.T) {
	cases := []string{"", "1dev", "dev-prod", "dev prod"}
	for _, name := range cases {
		s := NewSet()
		if err := s.Register(name); err == nil {
			t.Errorf("Register(%q) succeeded, want error", name)
		}
	}
}

func TestSet_NamesPreservesOrder(t *testing.T) {
	s := NewSet()
	for _, n := range []string{"dev", "staging", "prod"} {
		if err := s.Register(n); err != nil {
			t.Fatalf("Register(%s): %v", n, err)
		}
	}
	got := s.Names()
	want := []string{"dev", "staging", "prod"}
	if len(got) != len(want) {
		t.Fatalf("Names() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Names() = %v, want %v", got, want)
		}
	}
}

func TestSet_Contains(t *testing.T) {
	s := NewSet()
	_ = s.Register("dev")
	if !s.Contains("dev") {
		t.Error("Contains(dev) = false, want true")
	}
	if s.Contains("prod") {
		t.Error("Contains(prod) = true, want false")
	}
}

func TestProfiledDefault_ResolveLiteralAndEnv(t *testing.T) {
	s := NewSet()
	_ = s.Register("dev")
	_ = s.Register("prod")

	pd, err := NewProfiledDefault(s, map[string]string{
		"dev":  `"8080"`,
		"prod": "env.PORT",
	})
	if err != nil {
		t.Fatalf("NewProfiledDefault: %v", err)
	}

	got, err := pd.Resolve("dev", nil)
	if err != nil {
		t.Fatalf("Resolve(dev): %v", err)
	}
	if got != "8080" {
		t.Fatalf("Resolve(dev) = %v, want 8080", got)
	}

	got, err = pd.Resolve("prod", map[string]string{"PORT": "9090"})
	if err != nil {
		t.Fatalf("Resolve(prod): %v", err)
	}
	if got != "9090" {
		t.Fatalf("Resolve(prod) = %v, want 9090", got)
	}
}

func TestProfiledDefault_UndeclaredProfileRejected(t *testing.T) {
	s := NewSet()
	_ = s.Register("dev")

	if _, err := NewProfiledDefault(s, map[string]string{"prod": `"x"`}); err == nil {
		t.Fatal("NewProfiledDefault with undeclared profile succeeded, want error")
	}
}

func TestProfiledDefault_ResolveMissingExpression(t *testing.T) {
	s := NewSet()
	_ = s.Register("dev")
	_ = s.Register("prod")

	pd, err := NewProfiledDefault(s, map[string]string{"dev": `"8080"`})
	if err != nil {
		t.Fatalf("NewProfiledDefault: %v", err)
	}

	if _, err := pd.Resolve("prod", nil); err == nil {
		t.Fatal("Resolve(prod) succeeded, want error for missing expression")
	}
}

func TestProfiledDefault_ResolveUndeclaredProfile(t *testing.T) {
	s := NewSet()
	_ = s.Register("dev")

	pd, err := NewProfiledDefault(s, map[string]string{"dev": `"8080"`})
	if err != nil {
		t.Fatalf("NewProfiledDefault: %v", err)
	}

	if _, err := pd.Resolve("staging", nil); err == nil {
		t.Fatal("Resolve(staging) succeeded, want error for undeclared profile")
	}
}
