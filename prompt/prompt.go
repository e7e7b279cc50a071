package prompt

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

// DefaultTemplate carries no persona or language of its own; both come
// from Data.Persona.
const DefaultTemplate = `{{.Persona}}

Customer question: {{.Message}}
{{if .Context}}
Previous conversation:
{{.Context}}
{{end}}
Answer:
`

type Data struct {
	Persona string
	Message string
	Context string
}

type Template struct {
	tmpl *template.Template
}

func (t *Template) Render(data Data) (string, error) {
	var sb bytes.Buffer
	if err := t.tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return strings.TrimSpace(sb.String()), nil
}

// NewTemplate parses text, falling back to DefaultTemplate when it is blank.
// Unknown fields fail at parse time rather than on the first request.
func NewTemplate(text string) (*Template, error) {
	if len(strings.TrimSpace(text)) == 0 {
		text = DefaultTemplate
	}

	tmpl, err := template.New("prompt").Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse prompt template: %w", err)
	}

	if err := tmpl.Execute(&bytes.Buffer{}, Data{}); err != nil {
		return nil, fmt.Errorf("check prompt template: %w", err)
	}

	return &Template{tmpl: tmpl}, nil
}
