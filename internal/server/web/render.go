package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/dominiquedave/Time-Financial/internal/server/intake"
	"github.com/dominiquedave/Time-Financial/internal/server/models"
	"github.com/gorilla/csrf"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFiles embed.FS

var staticFS, _ = fs.Sub(staticFiles, "static")

const (
	tableDate = "Jan 02, 2006"
	birthDate = "01/02/2006"
	na        = "N/A"
)

var pageNames = []string{
	"home.html",
	"auth.html",
	"dashboard.html",
	"admin_overview.html",
	"admin_leads.html",
	"admin_lead.html",
	"admin_users.html",
	"error.html",
}

func templateFuncs(loc *time.Location) template.FuncMap {
	return template.FuncMap{
		"date": func(t time.Time) string {
			return t.In(loc).Format(tableDate)
		},
		// Dates of birth are calendar dates and are not shifted.
		"birthdate": func(t *time.Time) string {
			if t == nil {
				return na
			}
			return t.Format(birthDate)
		},
		"orNA": func(p *string) string {
			if p == nil || *p == "" {
				return na
			}
			return *p
		},
		"title": func(v any) string {
			s := fmt.Sprint(v)
			if s == "" {
				return s
			}
			return strings.ToUpper(s[:1]) + s[1:]
		},
		"fieldError": func(errs map[string]string, field string) string {
			return errs[field]
		},
	}
}

func parsePages(funcs template.FuncMap) (map[string]*template.Template, error) {
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		t, err := template.New(name).Funcs(funcs).ParseFS(templateFS,
			"templates/layout.html",
			"templates/partials.html",
			"templates/"+name,
		)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		pages[name] = t
	}
	return pages, nil
}

// Layout is the chrome shared by every page.
type Layout struct {
	Title     string
	Path      string
	CSRFField template.HTML
	SignedIn  bool
	IsAdmin   bool
	Flash     *intake.Notice
}

// quoteView is the state of the quote form as rendered.
type quoteView struct {
	Step      int
	Draft     intake.Draft
	Errors    map[string]string
	Notice    *intake.Notice
	States    []string
	ReturnTo  string
	CSRFField template.HTML
}

type homePage struct {
	Layout
	Quote quoteView
}

type authPage struct {
	Layout
	Tab       string
	Email     string
	FirstName string
	LastName  string
	Errors    map[string]string
	Error     string
}

type dashboardPage struct {
	Layout
	FirstName string
	Leads     []*models.Lead
	Quote     quoteView
}

type errorPage struct {
	Layout
	Heading string
	Message string
}

func (s *Server) layout(w http.ResponseWriter, r *http.Request, title string) Layout {
	return Layout{
		Title:     title,
		Path:      r.URL.Path,
		CSRFField: csrf.TemplateField(r),
		SignedIn:  accessToken(r.Context()) != "",
		IsAdmin:   decision(r.Context()).HasAdminRole(),
		Flash:     s.popFlash(w, r),
	}
}

func (s *Server) quoteView(r *http.Request, f *intake.Form, returnTo string) quoteView {
	return quoteView{
		Step:      f.Step(),
		Draft:     f.Draft(),
		Errors:    f.Errors(),
		Notice:    f.Notice(),
		States:    models.USStates,
		ReturnTo:  returnTo,
		CSRFField: csrf.TemplateField(r),
	}
}

// render executes a page into a buffer first so a template failure never
// produces a half-written response.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	t, ok := s.pages[name]
	if !ok {
		s.logger.Error(r.Context(), "unknown template", "name", name)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		s.logger.Error(r.Context(), "render failed", "name", name, "error", err.Error())
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, status int, heading, message string) {
	s.render(w, r, status, "error.html", errorPage{
		Layout:  s.layout(w, r, heading),
		Heading: heading,
		Message: message,
	})
}
