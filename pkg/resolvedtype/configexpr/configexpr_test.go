package configexpr

import "testing"

func TestEvalString_Literal(t *testing.T) {
	got, err := EvalString(`"8080"`, Context{})
	if err != nil {
		t.Fatalf("EvalString: %v", err)
	}
	if got != "8080" {
		t.Fatalf("EvalString = %v, want 8080", got)
	}
}

func TestEvalString_EnvLookup(t *testing.T) {
	got, err := EvalString("env.PORT", Context{Env: map[string]string{"PORT": "9090"}})
	if err != nil {
		t.Fatalf("EvalString: %v", err)
	}
	if got != "9090" {
		t.Fatalf("EvalString = %v, want 9090", got)
	}
}

func TestEvalString_ProfileVariable(t *testing.T) {
	got, err := EvalString("profile", Context{Profile: "prod"})
	if err != nil {
		t.Fatalf("EvalString: %v", err)
	}
	if got != "prod" {
		t.Fatalf("EvalString = %v, want prod", got)
	}
}

func TestEvalString_NumberLiteral(t *testing.T) {
	got, err := EvalString("8080", Context{})
	if err != nil {
		t.Fatalf("EvalString: %v", err)
	}
	if got != float64(8080) {
		t.Fatalf("EvalString = %v, want 8080", got)
	}
}

func TestParse_InvalidExpressionErrors(t *testing.T) {
	if _, err := Parse("env.PORT +"); err == nil {
		t.Fatal("Parse succeeded on malformed expression, want error")
	}
}

func TestEvalString_UndefinedReferenceErrors(t *testing.T) {
	if _, err := EvalString("env.MISSING.NESTED.BAD", Context{}); err == nil {
		t.Fatal("EvalString succeeded on undefined deep reference, want error")
	}
}

func TestEval_UnknownVariableErrors(t *testing.T) {
	expr, err := Parse("unknown_var")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, err := Eval(expr, Context{}); err == nil {
		t.Fatal("Eval succeeded referencing an undeclared variable, want error")
	}
}
