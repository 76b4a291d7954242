package diagnostics

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// ANSI color codes for severity-coded diagnostic rendering.
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorDim    = "\033[90m"
	colorCyan   = "\033[36m"
)

// RenderOptions configures diagnostic text rendering.
type RenderOptions struct {
	// NoColor disables ANSI color codes, either because the caller asked or
	// because the destination isn't a terminal.
	NoColor bool
}

// OptionsForWriter derives RenderOptions from the destination, turning color
// off automatically when w is not a terminal.
func OptionsForWriter(w io.Writer) RenderOptions {
	if f, ok := w.(*os.File); ok {
		return RenderOptions{NoColor: !term.IsTerminal(int(f.Fd()))}
	}
	return RenderOptions{NoColor: true}
}

// Render writes every diagnostic in the sink to w, error-severity first.
func Render(w io.Writer, sink *Sink, opts RenderOptions) {
	for _, d := range sink.All() {
		renderOne(w, d, opts)
	}
}

func renderOne(w io.Writer, d Diagnostic, opts RenderOptions) {
	var sb strings.Builder

	color, label := severityStyle(d.Severity)
	if !opts.NoColor {
		sb.WriteString(color)
	}
	sb.WriteString(label)
	if !opts.NoColor {
		sb.WriteString(colorReset)
	}
	sb.WriteString("[")
	sb.WriteString(d.Code)
	sb.WriteString("] ")
	sb.WriteString(d.Message)
	sb.WriteString("\n")

	for _, span := range d.Spans {
		if !opts.NoColor {
			sb.WriteString(colorDim)
		}
		sb.WriteString(fmt.Sprintf("  --> %s %s:%d:%d\n", span.CrateName, span.File, span.StartLine, span.StartCol))
		if !opts.NoColor {
			sb.WriteString(colorReset)
		}
	}

	for _, help := range d.Help {
		if !opts.NoColor {
			sb.WriteString(colorCyan)
		}
		sb.WriteString("  = help: ")
		sb.WriteString(help)
		if !opts.NoColor {
			sb.WriteString(colorReset)
		}
		sb.WriteString("\n")
	}

	if d.Cause != nil {
		sb.WriteString(fmt.Sprintf("  caused by: %v\n", d.Cause))
	}

	fmt.Fprint(w, sb.String())
}

func severityStyle(sev Severity) (color, label string) {
	switch sev {
	case SeverityError:
		return colorRed, "error"
	case SeverityWarning:
		return colorYellow, "warning"
	default:
		return colorDim, "note"
	}
}
