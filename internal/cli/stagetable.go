package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pavexcore/pavexc/pkg/compiler"
	"github.com/pavexcore/pavexc/pkg/diagnostics"
	"golang.org/x/term"
)

// ANSI color codes, matching diagnostics' severity-coded rendering.
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorDim    = "\033[90m"
)

// compilerStages names the fixed sequence a compilation run passes through,
// in order. The pipeline runs synchronously end to end with no per-stage
// callback, so the table has nothing to animate — it prints the stage list
// once up front and resolves to a single pass/fail line once Compile
// returns.
var compilerStages = []string{
	"doc index",
	"type resolver",
	"component db",
	"constructibles index",
	"call-graph builder",
	"borrow checker",
	"pipeline composition",
	"application-state builder",
	"code emitter",
}

// stageTable renders a compilation run's stage list and, once the run
// completes, its diagnostics and a final summary line.
type stageTable struct {
	writer    io.Writer
	startTime time.Time
	dynamic   bool
}

func newStageTable(w io.Writer) *stageTable {
	dynamic := false
	if f, ok := w.(*os.File); ok {
		dynamic = term.IsTerminal(int(f.Fd()))
	}
	return &stageTable{writer: w, startTime: time.Now(), dynamic: dynamic}
}

// PrintInitial prints the pipeline's fixed stage list before compilation
// starts.
func (t *stageTable) PrintInitial() {
	fmt.Fprintln(t.writer)
	fmt.Fprintln(t.writer, "Compiling blueprint:")
	for _, stage := range compilerStages {
		fmt.Fprintf(t.writer, "  %s %s\n", t.dim("○"), stage)
	}
	fmt.Fprintln(t.writer)
}

// FinishFromDiagnostics renders result's diagnostics (if any) and a final
// pass/fail summary line. result may be nil when compilation failed before
// a Result was even constructed.
func (t *stageTable) FinishFromDiagnostics(result *compiler.Result) {
	elapsed := time.Since(t.startTime).Round(time.Millisecond)

	if result == nil || result.Diagnostics == nil {
		fmt.Fprintf(t.writer, "%s compilation aborted (%s)\n", t.colorize(colorRed, "✗"), elapsed)
		return
	}

	diagnostics.Render(t.writer, result.Diagnostics, diagnostics.OptionsForWriter(t.writer))

	if result.Diagnostics.HasErrors() {
		fmt.Fprintf(t.writer, "%s compilation failed (%s) [run %s]\n", t.colorize(colorRed, "✗"), elapsed, result.RunID)
		return
	}
	fmt.Fprintf(t.writer, "%s compilation succeeded (%s) [run %s]\n", t.colorize(colorGreen, "●"), elapsed, result.RunID)
}

func (t *stageTable) dim(s string) string {
	return t.colorize(colorDim, s)
}

func (t *stageTable) colorize(color, s string) string {
	if !t.dynamic {
		return s
	}
	return color + s + colorReset
}
