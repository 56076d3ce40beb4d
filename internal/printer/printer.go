// Package printer writes styled, human oriented command output.
package printer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/hay-kot/criterio"

	"github.com/hay-kot/oauth-sessions/internal/styles"
)

// Symbols
const (
	Check = "✔"
	Cross = "✘"
	Dot   = "•"
)

type ctxKey struct{}

// Printer handles formatted output. Colors are dropped automatically when the
// writer is not a terminal.
type Printer struct {
	writer io.Writer

	red    lipgloss.Style
	green  lipgloss.Style
	yellow lipgloss.Style
	gray   lipgloss.Style
	bold   lipgloss.Style
}

// New creates a new Printer that writes to the given writer.
func New(w io.Writer) *Printer {
	r := lipgloss.NewRenderer(w)
	return &Printer{
		writer: w,
		red:    r.NewStyle().Foreground(styles.ColorRed),
		green:  r.NewStyle().Foreground(styles.ColorGreen),
		yellow: r.NewStyle().Foreground(styles.ColorYellow),
		gray:   r.NewStyle().Foreground(styles.ColorGray),
		bold:   r.NewStyle().Bold(true).Underline(true),
	}
}

// NewContext returns a context with the printer attached.
func NewContext(ctx context.Context, p *Printer) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// Ctx retrieves the printer from context, or creates a default one.
func Ctx(ctx context.Context) *Printer {
	if p, ok := ctx.Value(ctxKey{}).(*Printer); ok {
		return p
	}
	return New(os.Stderr)
}

func (p *Printer) line(s string) {
	_, _ = io.WriteString(p.writer, s+"\n")
}

// FatalError prints a boxed error. It does not exit; the caller owns the exit
// code. criterio.FieldErrors get one line per field.
func (p *Printer) FatalError(err error) {
	if err == nil {
		return
	}

	var fieldErrs criterio.FieldErrors
	if errors.As(err, &fieldErrs) {
		p.validationErrors(err, fieldErrs)
		return
	}

	p.line(p.red.Render("╭ Error"))
	p.line(p.red.Render("│") + " " + p.gray.Render(err.Error()))
	p.line(p.red.Render("╵"))
}

func (p *Printer) validationErrors(wrapped error, fieldErrs criterio.FieldErrors) {
	// Keep whatever context was wrapped around the field errors, e.g.
	// "invalid config".
	prefix := strings.TrimSuffix(strings.TrimSuffix(wrapped.Error(), fieldErrs.Error()), ": ")

	p.line(p.red.Render("╭ Validation Error"))
	if prefix != "" && prefix != wrapped.Error() {
		p.line(p.red.Render("│") + " " + p.gray.Render(prefix))
		p.line(p.red.Render("│"))
	}

	for _, fe := range fieldErrs {
		s := p.red.Render("│") + " " + p.red.Render(Cross) + " "
		if fe.Field != "" {
			s += p.gray.Render(fe.Field + ": ")
		}
		p.line(s + fe.Err.Error())
	}

	p.line(p.red.Render("╵"))
}

// Errorf prints an error message in red.
func (p *Printer) Errorf(format string, args ...any) {
	p.line(p.red.Render(Cross + " " + fmt.Sprintf(format, args...)))
}

// Successf prints a success message in green.
func (p *Printer) Successf(format string, args ...any) {
	p.line(p.green.Render(Check + " " + fmt.Sprintf(format, args...)))
}

// Infof prints an info message in gray.
func (p *Printer) Infof(format string, args ...any) {
	p.line(p.gray.Render(Dot + " " + fmt.Sprintf(format, args...)))
}

// Warnf prints a warning message in yellow.
func (p *Printer) Warnf(format string, args ...any) {
	p.line(p.yellow.Render(Dot + " " + fmt.Sprintf(format, args...)))
}

// Printf prints a plain message.
func (p *Printer) Printf(format string, args ...any) {
	p.line(fmt.Sprintf(format, args...))
}

// Section prints a bold, underlined header.
func (p *Printer) Section(title string) {
	p.line(p.bold.Render(title))
}

// CheckItem prints an indented item with a green checkmark.
func (p *Printer) CheckItem(label, detail string) {
	p.item(p.green, Check, label, detail)
}

// WarnItem prints an indented item with a yellow dot.
func (p *Printer) WarnItem(label, detail string) {
	p.item(p.yellow, Dot, label, detail)
}

// FailItem prints an indented item with a red cross.
func (p *Printer) FailItem(label, detail string) {
	p.item(p.red, Cross, label, detail)
}

func (p *Printer) item(style lipgloss.Style, symbol, label, detail string) {
	s := "  " + style.Render(symbol) + " " + label
	if detail != "" {
		s += ": " + detail
	}
	p.line(s)
}
