// Package tmpl renders user supplied output templates, as used by
// `ls --format`.
package tmpl

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/dustin/go-humanize"
)

// now is swapped in tests.
var now = time.Now

// ago renders t relative to now ("3 hours ago"). Nil or zero times render as
// "never".
func ago(v any) string {
	var t time.Time
	switch x := v.(type) {
	case time.Time:
		t = x
	case *time.Time:
		if x != nil {
			t = *x
		}
	}
	if t.IsZero() {
		return "never"
	}
	return humanize.RelTime(t, now(), "ago", "from now")
}

var funcs = template.FuncMap{
	"ago":   ago,
	"join":  strings.Join,
	"upper": strings.ToUpper,
}

// Template is a parsed output template.
type Template struct {
	t *template.Template
}

// Parse compiles text. Map data referencing undefined keys fails at render time.
//
// Available template functions:
//   - ago: relative time for a time.Time or *time.Time
//   - join: strings.Join
//   - upper: strings.ToUpper
func Parse(text string) (*Template, error) {
	t, err := template.New("").Funcs(funcs).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}
	return &Template{t: t}, nil
}

// Render executes the template with data.
func (t *Template) Render(data any) (string, error) {
	var buf bytes.Buffer
	if err := t.t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}
	return buf.String(), nil
}

// Render parses and executes text in one step.
func Render(text string, data any) (string, error) {
	t, err := Parse(text)
	if err != nil {
		return "", err
	}
	return t.Render(data)
}
