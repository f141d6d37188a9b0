package email

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
)

// TemplateData is the context every built-in email template renders with.
type TemplateData struct {
	SiteName string
	SiteURL  string

	UserName   string
	Title      string
	Message    string
	SenderName string
	PostTitle  string

	// Newsletter bodies are operator-authored rich text.
	NewsletterTitle   string
	NewsletterContent template.HTML
}

// TemplateManager holds the compiled built-in templates, one per
// notification type plus "newsletter" and the "default" fallback.
type TemplateManager struct {
	templates map[string]*template.Template
}

const (
	TemplateNewResponse      = "new_response"
	TemplateResponseAccepted = "response_accepted"
	TemplateResponseRejected = "response_rejected"
	TemplateNewsletter       = "newsletter"
	TemplateDefault          = "default"
)

var builtinTemplates = map[string]string{
	TemplateNewResponse: `<html><body>
<h2>{{.Title}}</h2>
<p>Hello {{.UserName}},</p>
<p>{{.SenderName}} responded to your post "{{.PostTitle}}".</p>
<p>{{.Message}}</p>
<p><a href="{{.SiteURL}}/notifications">View on {{.SiteName}}</a></p>
</body></html>`,

	TemplateResponseAccepted: `<html><body>
<h2>{{.Title}}</h2>
<p>Hello {{.UserName}},</p>
<p>Good news: your response to "{{.PostTitle}}" was accepted by {{.SenderName}}.</p>
<p>{{.Message}}</p>
<p><a href="{{.SiteURL}}/notifications">View on {{.SiteName}}</a></p>
</body></html>`,

	TemplateResponseRejected: `<html><body>
<h2>{{.Title}}</h2>
<p>Hello {{.UserName}},</p>
<p>Your response to "{{.PostTitle}}" was rejected by {{.SenderName}}.</p>
<p>{{.Message}}</p>
<p><a href="{{.SiteURL}}">Browse other posts on {{.SiteName}}</a></p>
</body></html>`,

	TemplateNewsletter: `<html><body>
<h1>{{.NewsletterTitle}}</h1>
<p>Hello {{.UserName}},</p>
{{.NewsletterContent}}
<p><a href="{{.SiteURL}}">{{.SiteName}}</a></p>
</body></html>`,

	TemplateDefault: `<html><body>
<h2>{{.Title}}</h2>
<p>Hello {{.UserName}},</p>
<p>{{.Message}}</p>
<p><a href="{{.SiteURL}}/notifications">View on {{.SiteName}}</a></p>
</body></html>`,
}

func NewTemplateManager() (*TemplateManager, error) {
	tm := &TemplateManager{templates: make(map[string]*template.Template)}

	for name, text := range builtinTemplates {
		tpl, err := template.New(name).Parse(text)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		tm.templates[name] = tpl
	}

	return tm, nil
}

// Render executes the named template. Unknown names fall back to the
// default template.
func (tm *TemplateManager) Render(name string, data TemplateData) (string, error) {
	tpl, exists := tm.templates[name]
	if !exists {
		tpl = tm.templates[TemplateDefault]
	}

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render template %s: %w", name, err)
	}

	return buf.String(), nil
}

// RenderString renders an operator-supplied template body (a DB override)
// with the same data context.
func (tm *TemplateManager) RenderString(name, text string, data TemplateData) (string, error) {
	tpl, err := template.New(name).Parse(text)
	if err != nil {
		return "", fmt.Errorf("failed to parse template override %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render template override %s: %w", name, err)
	}

	return buf.String(), nil
}

// StripTags derives the plaintext alternative from an HTML body.
func StripTags(html string) string {
	text := strings.ReplaceAll(html, "<br/>", "\n")
	text = strings.ReplaceAll(text, "<br>", "\n")
	text = strings.ReplaceAll(text, "</p>", "\n")
	text = strings.ReplaceAll(text, "</h1>", "\n")
	text = strings.ReplaceAll(text, "</h2>", "\n")

	var b strings.Builder
	inTag := false
	for _, r := range text {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}

	lines := strings.Split(b.String(), "\n")
	var out []string
	for _, line := range lines {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return strings.Join(out, "\n")
}
