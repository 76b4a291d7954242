package diagnostics

import (
	"bytes"
	"strings"
	"testing"
)

func TestRender_Empty(t *testing.T) {
	var buf bytes.Buffer
	Render(&buf, NewSink(), RenderOptions{NoColor: true})
	if buf.Len() != 0 {
		t.Errorf("expected empty output for empty sink, got %q", buf.String())
	}
}

func TestRender_ErrorsFirst(t *testing.T) {
	sink := NewSink()
	sink.Warnf("DI_ERROR", "unused constructor for Logger")
	sink.Errorf("BORROW_ERROR", "value moved twice")

	var buf bytes.Buffer
	Render(&buf, sink, RenderOptions{NoColor: true})
	out := buf.String()

	errIdx := strings.Index(out, "error[BORROW_ERROR]")
	warnIdx := strings.Index(out, "warning[DI_ERROR]")
	if errIdx == -1 || warnIdx == -1 {
		t.Fatalf("expected both diagnostics rendered, got %q", out)
	}
	if errIdx > warnIdx {
		t.Errorf("expected error-severity diagnostic rendered before warning, got %q", out)
	}
}

func TestRender_SpanAndHelp(t *testing.T) {
	sink := NewSink()
	sink.Push(Diagnostic{
		Severity: SeverityError,
		Code:     "DI_ERROR",
		Message:  "no constructor registered for Db",
		Spans:    []Span{{CrateName: "app", File: "src/lib.rs", StartLine: 12, StartCol: 5}},
		Help:     []string{"register a constructor with blueprint.constructor(...)"},
	})

	var buf bytes.Buffer
	Render(&buf, sink, RenderOptions{NoColor: true})
	out := buf.String()

	if !strings.Contains(out, "app src/lib.rs:12:5") {
		t.Errorf("expected span rendered, got %q", out)
	}
	if !strings.Contains(out, "= help: register a constructor") {
		t.Errorf("expected help text rendered, got %q", out)
	}
}

func TestSink_HasErrors(t *testing.T) {
	sink := NewSink()
	if sink.HasErrors() {
		t.Error("empty sink should report no errors")
	}
	sink.Warnf("DI_ERROR", "warn")
	if sink.HasErrors() {
		t.Error("sink with only warnings should report no errors")
	}
	sink.Errorf("DI_ERROR", "boom")
	if !sink.HasErrors() {
		t.Error("sink with an error diagnostic should report errors")
	}
}
