// Package ui provides terminal output helpers: a styled printer, sparkline
// rendering for usage trends, and a live progress display for index runs.
package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

// Printer writes styled messages to a terminal, falling back to plain text
// when the writer is not a TTY or color is disabled.
type Printer struct {
	out    io.Writer
	styles Styles
}

// NewPrinter builds a printer for the given writer. Color is used only when
// the writer is a TTY and neither noColor nor NO_COLOR disable it.
func NewPrinter(out io.Writer, noColor bool) *Printer {
	plain := noColor || DetectNoColor() || !IsTTY(out)
	return &Printer{out: out, styles: GetStyles(plain)}
}

// Styles exposes the active style set for callers that render their own output.
func (p *Printer) Styles() Styles {
	return p.styles
}

func (p *Printer) Successf(format string, args ...any) {
	fmt.Fprintln(p.out, p.styles.Success.Render(fmt.Sprintf(format, args...)))
}

func (p *Printer) Infof(format string, args ...any) {
	fmt.Fprintf(p.out, format+"\n", args...)
}

func (p *Printer) Warnf(format string, args ...any) {
	fmt.Fprintln(p.out, p.styles.Warning.Render("warning: "+fmt.Sprintf(format, args...)))
}

func (p *Printer) Errorf(format string, args ...any) {
	fmt.Fprintln(p.out, p.styles.Error.Render("error: "+fmt.Sprintf(format, args...)))
}

// Header prints a bold section heading.
func (p *Printer) Header(text string) {
	fmt.Fprintln(p.out, p.styles.Header.Render(text))
}

// KV prints an aligned label/value pair.
func (p *Printer) KV(label string, value any) {
	fmt.Fprintf(p.out, "  %s %v\n", p.styles.Label.Render(fmt.Sprintf("%-16s", label+":")), value)
}

// Rule prints a horizontal separator.
func (p *Printer) Rule(width int) {
	if width <= 0 {
		width = 60
	}
	line := make([]rune, width)
	for i := range line {
		line[i] = '─'
	}
	fmt.Fprintln(p.out, p.styles.Dim.Render(string(line)))
}

// IsTTY reports whether the writer is attached to a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// DetectNoColor honors the NO_COLOR convention (https://no-color.org).
func DetectNoColor() bool {
	_, set := os.LookupEnv("NO_COLOR")
	return set
}
