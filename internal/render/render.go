// Package render turns named templates plus a context map into outbound
// message text. Rendering is pure: no I/O, no logging, and no mutation of
// the context, so the same name and context always produce the same text.
package render

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"strings"
	"text/template"

	apperrors "github.com/wardenbot/warden/internal/errors"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

// Template names available to handlers. Each matches an embedded file.
const (
	TemplateRules        = "rules.tmpl"
	TemplateDescription  = "description.tmpl"
	TemplateRelatedChats = "related_chats.tmpl"
	TemplateWarnReceipt  = "warn_receipt.tmpl"
	TemplateHelp         = "help.tmpl"
)

// CommandHelp is one row of the /help listing.
type CommandHelp struct {
	Command     string
	Description string
}

// WarningLine is one row of a member's warning history.
type WarningLine struct {
	Issued   string
	Reason   string
	WarnedBy string
}

// Renderer holds the parsed template set.
type Renderer struct {
	templates *template.Template
}

// New parses the embedded templates. Missing context keys fail rendering
// instead of printing "<no value>", which is what gives callers the
// missing-variable contract.
func New() (*Renderer, error) {
	tmpl, err := template.New("").
		Option("missingkey=error").
		ParseFS(templatesFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse embedded templates: %w", err)
	}
	return &Renderer{templates: tmpl}, nil
}

// Render executes the named template against data and returns the text.
// An unregistered name yields a TemplateNotFoundError; an execution
// failure yields a MissingVariableError, since with missingkey=error the
// only runtime failure these data-only templates can hit is a context
// key the template references but the caller did not supply.
func (r *Renderer) Render(name string, data map[string]any) (string, error) {
	tmpl := r.templates.Lookup(name)
	if tmpl == nil {
		return "", apperrors.NewTemplateNotFoundError(fmt.Sprintf("template %q is not registered", name))
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		var execErr template.ExecError
		if errors.As(err, &execErr) {
			return "", apperrors.NewMissingVariableError(fmt.Sprintf("template %q rendering failed", name), err)
		}
		return "", fmt.Errorf("template %q rendering failed: %w", name, err)
	}

	return buf.String(), nil
}

// Names returns the registered template names, for diagnostics.
func (r *Renderer) Names() []string {
	all := r.templates.Templates()
	names := make([]string, 0, len(all))
	for _, tmpl := range all {
		if strings.HasSuffix(tmpl.Name(), ".tmpl") {
			names = append(names, tmpl.Name())
		}
	}
	return names
}

// ExpandPlaceholders substitutes {name} markers in admin-supplied text,
// welcome templates mostly. Unknown markers are left verbatim so a typo
// degrades the message instead of failing it.
func ExpandPlaceholders(text string, vars map[string]string) string {
	if len(vars) == 0 {
		return text
	}
	pairs := make([]string, 0, len(vars)*2)
	for name, value := range vars {
		pairs = append(pairs, "{"+name+"}", value)
	}
	return strings.NewReplacer(pairs...).Replace(text)
}
