// Package diagnostics renders compiler diagnostics: errors, warnings and
// notes produced while resolving a Blueprint, building the call graph, or
// running the borrow checker.
package diagnostics

import (
	"sort"
)

// Severity classifies a diagnostic.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityNote    Severity = "note"
)

// Span points at the source location a diagnostic refers to: a byte range
// inside a crate's source file, resolved from rustdoc JSON span metadata.
type Span struct {
	CrateName string
	File      string
	StartLine int
	StartCol  int
	EndLine   int
	EndCol    int
}

// Diagnostic is a single compiler message, optionally anchored to one or
// more source spans and carrying free-form help text.
type Diagnostic struct {
	Severity Severity
	Code     string // e.g. "DI_ERROR", mirrors errors.ErrorCode
	Message  string
	Spans    []Span
	Help     []string
	Cause    error
}

// Sink accumulates diagnostics emitted during a single compilation run and
// renders them on demand. It is not safe for concurrent writes from more
// than one goroutine without external synchronization — callers serialize
// through the single compiler pipeline, matching the rest of the package.
type Sink struct {
	diagnostics []Diagnostic
}

// NewSink creates an empty diagnostic sink.
func NewSink() *Sink {
	return &Sink{}
}

// Push appends a diagnostic to the sink.
func (s *Sink) Push(d Diagnostic) {
	s.diagnostics = append(s.diagnostics, d)
}

// Errorf records an error-severity diagnostic.
func (s *Sink) Errorf(code, message string, spans ...Span) {
	s.Push(Diagnostic{Severity: SeverityError, Code: code, Message: message, Spans: spans})
}

// Warnf records a warning-severity diagnostic.
func (s *Sink) Warnf(code, message string, spans ...Span) {
	s.Push(Diagnostic{Severity: SeverityWarning, Code: code, Message: message, Spans: spans})
}

// HasErrors reports whether any error-severity diagnostic was recorded.
func (s *Sink) HasErrors() bool {
	for _, d := range s.diagnostics {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// All returns every diagnostic recorded so far, errors first, preserving
// relative emission order within each severity.
func (s *Sink) All() []Diagnostic {
	out := make([]Diagnostic, len(s.diagnostics))
	copy(out, s.diagnostics)
	rank := func(sev Severity) int {
		switch sev {
		case SeverityError:
			return 0
		case SeverityWarning:
			return 1
		default:
			return 2
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return rank(out[i].Severity) < rank(out[j].Severity)
	})
	return out
}

// Count returns the number of diagnostics at the given severity.
func (s *Sink) Count(sev Severity) int {
	n := 0
	for _, d := range s.diagnostics {
		if d.Severity == sev {
			n++
		}
	}
	return n
}
