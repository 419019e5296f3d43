// Package output renders daoforge's terminal output.
//
// The core packages never print; the CLI layer translates their return
// values into user guidance through a [Printer]. Styling uses lipgloss and
// degrades gracefully when the terminal has no color support.
package output

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"

	"daoforge/internal/stage"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	successStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2"))
	failureStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	faintStyle   = lipgloss.NewStyle().Faint(true)
)

// Printer formats and writes user-facing output.
//
// Use [NewPrinter] for stdout or [NewPrinterWithWriter] to capture output
// in tests.
type Printer struct {
	w io.Writer
}

// NewPrinter creates a [Printer] writing to stdout.
func NewPrinter() *Printer {
	return NewPrinterWithWriter(os.Stdout)
}

// NewPrinterWithWriter creates a [Printer] writing to w.
func NewPrinterWithWriter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// Writer exposes the underlying writer for table rendering.
func (p *Printer) Writer() io.Writer { return p.w }

// Header prints a section header.
func (p *Printer) Header(title string) {
	fmt.Fprintf(p.w, "%s\n", headerStyle.Render(title))
}

// StageStart announces that a stage's operation is about to run.
func (p *Printer) StageStart(id stage.ID) {
	fmt.Fprintf(p.w, "%s %s\n", faintStyle.Render("▸"), headerStyle.Render(string(id)))
}

// StageSuccess reports a completed stage.
func (p *Printer) StageSuccess(id stage.ID, elapsed time.Duration) {
	fmt.Fprintf(p.w, "%s %s %s\n",
		successStyle.Render("✓"), id, faintStyle.Render(elapsed.Round(time.Millisecond).String()))
}

// StageFailure reports a failed stage. The stage stays retryable, which the
// hint line spells out.
func (p *Printer) StageFailure(id stage.ID, err error) {
	fmt.Fprintf(p.w, "%s %s: %v\n", failureStyle.Render("✗"), id, err)
	fmt.Fprintf(p.w, "%s\n", faintStyle.Render("  re-run `daoforge deploy` to retry this stage"))
}

// Blocked reports that the pipeline cannot continue and which field is
// missing.
func (p *Printer) Blocked(id stage.ID, field string) {
	fmt.Fprintf(p.w, "%s stage %s is blocked: record field %q is not set\n",
		warnStyle.Render("!"), id, field)
}

// AllComplete reports that every required stage has finished.
func (p *Printer) AllComplete() {
	fmt.Fprintf(p.w, "%s deployment complete\n", successStyle.Render("✓"))
}

// Next tells the user the single next command to run.
func (p *Printer) Next(id stage.ID) {
	fmt.Fprintf(p.w, "next stage: %s\n", headerStyle.Render(string(id)))
}

// Info prints a plain informational line.
func (p *Printer) Info(format string, args ...any) {
	fmt.Fprintf(p.w, format+"\n", args...)
}

// Error prints an error line.
func (p *Printer) Error(err error) {
	fmt.Fprintf(p.w, "%s %v\n", failureStyle.Render("error:"), err)
}
