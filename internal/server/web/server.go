// Package web serves the marketing site, the quote form, the user dashboard
// and the admin console as server-rendered HTML.
package web

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/dominiquedave/Time-Financial/internal/logging"
	"github.com/dominiquedave/Time-Financial/internal/server/access"
	"github.com/dominiquedave/Time-Financial/internal/server/intake"
	"github.com/dominiquedave/Time-Financial/internal/server/leadstats"
	"github.com/dominiquedave/Time-Financial/internal/server/models"
	"github.com/dominiquedave/Time-Financial/internal/server/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// SessionService opens, rotates and closes browser sessions.
type SessionService interface {
	SignUp(ctx context.Context, in services.SignUpInput) (*services.TokenPair, error)
	SignIn(ctx context.Context, email, password string) (*services.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	SignOut(ctx context.Context, refreshToken string) error
	AccessTokenValidity() time.Duration
	RefreshTokenValidity() time.Duration
}

// Gate decides whether a protected page renders and who submits a quote.
type Gate interface {
	Resolve(ctx context.Context, accessToken string, view access.View) access.Decision
	Identify(ctx context.Context, accessToken string) (*models.Identity, error)
}

type LeadService interface {
	intake.LeadWriter
	Mine(ctx context.Context, d access.Decision) ([]*models.Lead, error)
}

type AdminService interface {
	Overview(ctx context.Context, d access.Decision, now time.Time) (*services.Overview, error)
	Leads(ctx context.Context, d access.Decision, filter leadstats.Filter, now time.Time) ([]*models.Lead, error)
	Lead(ctx context.Context, d access.Decision, id string) (*models.Lead, error)
	Users(ctx context.Context, d access.Decision) ([]*models.Profile, error)
	UpdateLeadStatus(ctx context.Context, d access.Decision, id string, status models.LeadStatus) error
	AssignLeadOwner(ctx context.Context, d access.Decision, id, ownerID string) error
	ExportCSV(ctx context.Context, d access.Decision) ([]byte, error)
}

type ExportService interface {
	Enabled() bool
	Publish(ctx context.Context, key, contentType string, body []byte) (string, error)
}

// Options wires a Server. An empty CSRFKey disables CSRF protection.
type Options struct {
	Address       string
	Logger        logging.Logger
	Sessions      SessionService
	Gate          Gate
	Leads         LeadService
	Admin         AdminService
	Exports       ExportService
	Location      *time.Location
	CSRFKey       []byte
	SecureCookies bool
}

type Server struct {
	address       string
	logger        logging.Logger
	sessions      SessionService
	gate          Gate
	leads         LeadService
	admin         AdminService
	exports       ExportService
	location      *time.Location
	csrfKey       []byte
	secureCookies bool
	pages         map[string]*template.Template
}

var now = time.Now

func NewServer(o Options) (*Server, error) {
	loc := o.Location
	if loc == nil {
		loc = time.Local
	}

	s := &Server{
		address:       o.Address,
		logger:        o.Logger.With("module", "web"),
		sessions:      o.Sessions,
		gate:          o.Gate,
		leads:         o.Leads,
		admin:         o.Admin,
		exports:       o.Exports,
		location:      loc,
		csrfKey:       o.CSRFKey,
		secureCookies: o.SecureCookies,
	}

	pages, err := parsePages(templateFuncs(loc))
	if err != nil {
		return nil, err
	}
	s.pages = pages
	return s, nil
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID, s.accessLog, middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServerFS(staticFS)))

	r.Group(func(r chi.Router) {
		r.Use(s.protectCSRF, s.refreshSession)

		r.Get("/", s.handleHome)
		r.Post("/quote", s.handleQuote)

		r.Get("/auth", s.handleAuthPage)
		r.Post("/auth/signin", s.handleSignIn)
		r.Post("/auth/signup", s.handleSignUp)
		r.Post("/auth/signout", s.handleSignOut)

		r.With(s.requireView(access.ViewUser)).Get("/dashboard", s.handleDashboard)

		r.Route("/admin", func(r chi.Router) {
			r.Use(s.requireView(access.ViewAdmin))
			r.Get("/", s.handleAdminOverview)
			r.Get("/leads", s.handleAdminLeads)
			r.Get("/leads/export", s.handleAdminExport)
			r.Get("/leads/{id}", s.handleAdminLead)
			r.Post("/leads/{id}/status", s.handleAdminLeadStatus)
			r.Post("/leads/{id}/owner", s.handleAdminLeadOwner)
			r.Get("/users", s.handleAdminUsers)
		})
	})

	r.NotFound(s.handleNotFound)
	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "http shutdown", "error", err.Error())
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) now() time.Time {
	return now().In(s.location)
}
