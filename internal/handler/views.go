// Package handler contains the HTTP handlers of the web client.
//
// Every page is a small controller: it reads the request, calls a service,
// stores what must survive in the session and either renders a template or
// redirects. Mutations always answer with 303 See Other (POST-redirect-GET),
// so refreshing the page after a vote or a delete never repeats it.
//
// TEMPLATES:
// Each page is parsed together with base.html into its own template set.
// base.html defines the layout and calls {{template "content" .}}; the page
// file defines "content". Keeping one set per page lets every page define
// "content" without clashing.
package handler

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"

	"github.com/dustin/go-humanize"
)

// Page templates, one per file under templates/.
const (
	pageLogin   = "login.html"
	pageSignup  = "signup.html"
	pageFeed    = "feed.html"
	pageEdit    = "edit.html"
	pageProfile = "profile.html"
	pageError   = "error.html"
)

var pageFiles = []string{pageLogin, pageSignup, pageFeed, pageEdit, pageProfile, pageError}

// Views holds the parsed page templates.
type Views struct {
	pages map[string]*template.Template
}

// NewViews parses every page from fsys, which must contain a templates/ directory.
func NewViews(fsys fs.FS) (*Views, error) {
	funcs := template.FuncMap{
		"linebreaks": linebreaks,
		"plural":     plural,
		"comma":      comma,
	}

	pages := make(map[string]*template.Template, len(pageFiles))
	for _, page := range pageFiles {
		tmpl, err := template.New(page).Funcs(funcs).ParseFS(fsys, "templates/base.html", "templates/"+page)
		if err != nil {
			return nil, fmt.Errorf("handler: parsing %s: %w", page, err)
		}
		pages[page] = tmpl
	}
	return &Views{pages: pages}, nil
}

// Render executes page into a buffer first, so a template error never
// leaves half a page on the wire.
func (v *Views) Render(w http.ResponseWriter, status int, page string, data map[string]any) error {
	tmpl, ok := v.pages[page]
	if !ok {
		return fmt.Errorf("handler: unknown page %q", page)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base", data); err != nil {
		return fmt.Errorf("handler: rendering %s: %w", page, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// linebreaks escapes s and turns blank-line separated blocks into paragraphs
// and single newlines into <br>.
func linebreaks(s string) template.HTML {
	s = template.HTMLEscapeString(strings.ReplaceAll(s, "\r\n", "\n"))

	paragraphs := strings.Split(s, "\n\n")
	var result []string

	for _, p := range paragraphs {
		if p = strings.TrimSpace(p); p != "" {
			p = strings.ReplaceAll(p, "\n", "<br>")
			result = append(result, "<p>"+p+"</p>")
		}
	}

	return template.HTML(strings.Join(result, "\n"))
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func comma(n int) string {
	return humanize.Comma(int64(n))
}

// preview cuts content to limit characters and appends "...". It reports
// whether anything was cut.
func preview(content string, limit int) (string, bool) {
	runes := []rune(content)
	if limit <= 0 || len(runes) <= limit {
		return content, false
	}
	return string(runes[:limit]) + "...", true
}
