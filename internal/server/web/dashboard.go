package web

import (
	"net/http"

	"github.com/dominiquedave/Time-Financial/internal/server/access"
	"github.com/dominiquedave/Time-Financial/internal/server/intake"
	"github.com/dominiquedave/Time-Financial/internal/server/models"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	s.renderDashboard(w, r, http.StatusOK, decision(r.Context()), intake.New())
}

// renderDashboard shows the welcome banner, the visitor's own leads and the
// quote form. A failed lead fetch still renders the page with a notice.
func (s *Server) renderDashboard(w http.ResponseWriter, r *http.Request, status int, d access.Decision, f *intake.Form) {
	page := dashboardPage{
		Layout: s.layout(w, r, "Dashboard"),
		Quote:  s.quoteView(r, f, access.DashboardPath),
	}
	if d.Profile != nil {
		page.FirstName = d.Profile.FirstName
	}
	if page.FirstName == "" && d.Identity != nil {
		page.FirstName = d.Identity.Email
	}

	leads, err := s.leads.Mine(r.Context(), d)
	if err != nil {
		s.logger.Warn(r.Context(), "loading own leads", "error", err.Error())
		page.Flash = &intake.Notice{
			Kind:    intake.NoticeError,
			Title:   "Couldn't load your leads",
			Message: "Please refresh the page to try again.",
		}
		leads = []*models.Lead{}
	}
	page.Leads = leads

	s.render(w, r, status, "dashboard.html", page)
}
