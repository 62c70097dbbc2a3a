// Package render produces the HTML responses from embedded
// templates. Template names mirror their path under templates/, e.g.
// "stripe-setup/bank-details/index".
package render

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"

	"github.com/golang/glog"
)

//go:embed templates
var templateFS embed.FS

// DefaultErrorMessage is shown when a page fails for a reason the
// user cannot correct.
const DefaultErrorMessage = "There is a problem with the payments platform"

// Renderer renders named templates.
type Renderer struct {
	templates map[string]*template.Template
}

// New parses every embedded template.
func New() (*Renderer, error) {
	r := &Renderer{templates: make(map[string]*template.Template)}

	err := fs.WalkDir(templateFS, "templates", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".html") {
			return nil
		}
		name := strings.TrimSuffix(strings.TrimPrefix(path, "templates/"), ".html")
		content, err := templateFS.ReadFile(path)
		if err != nil {
			return err
		}
		tmpl, err := template.New(name).Parse(string(content))
		if err != nil {
			return fmt.Errorf("parse template %s: %w", name, err)
		}
		r.templates[name] = tmpl
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Render writes the named template with the given page data. An
// unknown template name is a programming error and renders the
// generic error page instead.
func (r *Renderer) Render(w http.ResponseWriter, name string, data interface{}) {
	tmpl, ok := r.templates[name]
	if !ok {
		glog.Errorf("unknown template %q", name)
		r.RenderErrorView(w, DefaultErrorMessage)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.Execute(w, data); err != nil {
		glog.Errorf("failed to execute template %q: %v", name, err)
	}
}

// RenderErrorView writes the generic error page with the given
// message.
func (r *Renderer) RenderErrorView(w http.ResponseWriter, message string) {
	if message == "" {
		message = DefaultErrorMessage
	}
	tmpl, ok := r.templates["error"]
	if !ok {
		http.Error(w, message, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.Execute(w, map[string]string{"Message": message}); err != nil {
		glog.Errorf("failed to execute error template: %v", err)
	}
}
