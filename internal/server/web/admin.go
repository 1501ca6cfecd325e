package web

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dominiquedave/Time-Financial/internal/common"
	"github.com/dominiquedave/Time-Financial/internal/server/access"
	"github.com/dominiquedave/Time-Financial/internal/server/intake"
	"github.com/dominiquedave/Time-Financial/internal/server/leadstats"
	"github.com/dominiquedave/Time-Financial/internal/server/models"
	"github.com/dominiquedave/Time-Financial/internal/server/services"
	"github.com/go-chi/chi/v5"
)

const adminLeadsPath = "/admin/leads"

type adminOverviewPage struct {
	Layout
	Overview *services.Overview
}

type adminLeadsPage struct {
	Layout
	Filter  leadstats.Filter
	Filters []leadstats.Filter
	Leads   []*models.Lead
}

type adminLeadPage struct {
	Layout
	Lead      *models.Lead
	Statuses  []models.LeadStatus
	Users     []*models.Profile
	OwnerID   string
	OwnerName string
}

type adminUsersPage struct {
	Layout
	Users []*models.Profile
}

// adminFailure maps a service error onto the response. Access errors become
// redirects, never a visible forbidden page.
func (s *Server) adminFailure(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, common.ErrAuthRequired):
		http.Redirect(w, r, access.SignInPath, http.StatusSeeOther)
	case errors.Is(err, common.ErrAuthorizationDenied):
		http.Redirect(w, r, access.DashboardPath, http.StatusSeeOther)
	case errors.Is(err, common.ErrorNotFound):
		s.renderError(w, r, http.StatusNotFound, "Lead not found", "The lead you were looking for does not exist.")
	default:
		s.logger.Error(r.Context(), "admin request failed", "path", r.URL.Path, "error", err.Error())
		s.renderError(w, r, http.StatusServiceUnavailable, "Something went wrong", "We couldn't load this page. Please try again.")
	}
}

func (s *Server) handleAdminOverview(w http.ResponseWriter, r *http.Request) {
	o, err := s.admin.Overview(r.Context(), decision(r.Context()), s.now())
	if err != nil {
		s.adminFailure(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "admin_overview.html", adminOverviewPage{
		Layout:   s.layout(w, r, "Admin"),
		Overview: o,
	})
}

func (s *Server) handleAdminLeads(w http.ResponseWriter, r *http.Request) {
	filter := leadstats.ParseFilter(r.URL.Query().Get("filter"))

	leads, err := s.admin.Leads(r.Context(), decision(r.Context()), filter, s.now())
	if err != nil {
		s.adminFailure(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "admin_leads.html", adminLeadsPage{
		Layout:  s.layout(w, r, "Leads"),
		Filter:  filter,
		Filters: []leadstats.Filter{leadstats.FilterAll, leadstats.FilterToday, leadstats.FilterPending},
		Leads:   leads,
	})
}

func (s *Server) handleAdminLead(w http.ResponseWriter, r *http.Request) {
	d := decision(r.Context())
	lead, err := s.admin.Lead(r.Context(), d, chi.URLParam(r, "id"))
	if err != nil {
		s.adminFailure(w, r, err)
		return
	}
	users, err := s.admin.Users(r.Context(), d)
	if err != nil {
		s.adminFailure(w, r, err)
		return
	}

	page := adminLeadPage{
		Layout:    s.layout(w, r, "Lead #"+lead.ShortID()),
		Lead:      lead,
		Statuses:  models.LeadStatuses,
		Users:     users,
		OwnerName: "Unassigned",
	}
	if lead.OwnerID != nil {
		page.OwnerID = *lead.OwnerID
		page.OwnerName = page.OwnerID
		for _, u := range users {
			if u.UserID == page.OwnerID && u.FullName() != "" {
				page.OwnerName = u.FullName()
			}
		}
	}
	s.render(w, r, http.StatusOK, "admin_lead.html", page)
}

func (s *Server) handleAdminLeadStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	status := models.LeadStatus(r.PostFormValue("status"))

	err := s.admin.UpdateLeadStatus(r.Context(), decision(r.Context()), id, status)
	switch {
	case err == nil:
		s.setFlash(w, intake.Notice{Kind: intake.NoticeSuccess, Title: "Status updated", Message: "Lead marked " + string(status) + "."})
	case errors.Is(err, common.ErrValidation):
		s.setFlash(w, intake.Notice{Kind: intake.NoticeError, Title: "Invalid status", Message: "Choose one of the listed statuses."})
	case errors.Is(err, common.ErrStore):
		s.logger.Warn(r.Context(), "lead status update failed", "lead_id", id, "error", err.Error())
		s.setFlash(w, intake.Notice{Kind: intake.NoticeError, Title: "Update failed", Message: "The status could not be saved. Please try again."})
	default:
		s.adminFailure(w, r, err)
		return
	}
	http.Redirect(w, r, adminLeadsPath+"/"+id, http.StatusSeeOther)
}

func (s *Server) handleAdminLeadOwner(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ownerID := r.PostFormValue("owner_id")

	err := s.admin.AssignLeadOwner(r.Context(), decision(r.Context()), id, ownerID)
	switch {
	case err == nil && ownerID == "":
		s.setFlash(w, intake.Notice{Kind: intake.NoticeSuccess, Title: "Owner cleared", Message: "The lead is now unassigned."})
	case err == nil:
		s.setFlash(w, intake.Notice{Kind: intake.NoticeSuccess, Title: "Owner assigned", Message: "The lead has a new owner."})
	case errors.Is(err, common.ErrValidation):
		s.setFlash(w, intake.Notice{Kind: intake.NoticeError, Title: "Invalid owner", Message: "Choose one of the listed users."})
	case errors.Is(err, common.ErrStore):
		s.logger.Warn(r.Context(), "lead owner update failed", "lead_id", id, "error", err.Error())
		s.setFlash(w, intake.Notice{Kind: intake.NoticeError, Title: "Update failed", Message: "The owner could not be saved. Please try again."})
	default:
		s.adminFailure(w, r, err)
		return
	}
	http.Redirect(w, r, adminLeadsPath+"/"+id, http.StatusSeeOther)
}

func (s *Server) handleAdminUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.admin.Users(r.Context(), decision(r.Context()))
	if err != nil {
		s.adminFailure(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "admin_users.html", adminUsersPage{
		Layout: s.layout(w, r, "Users"),
		Users:  users,
	})
}

// handleAdminExport publishes the lead CSV to object storage and redirects to
// a presigned download. Without storage the file is sent directly.
func (s *Server) handleAdminExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	d := decision(ctx)

	body, err := s.admin.ExportCSV(ctx, d)
	if err != nil {
		s.adminFailure(w, r, err)
		return
	}

	ts := s.now()

	if s.exports != nil && s.exports.Enabled() {
		url, err := s.exports.Publish(ctx, services.ExportKey(ts), "text/csv", body)
		if err == nil {
			http.Redirect(w, r, url, http.StatusSeeOther)
			return
		}
		if !errors.Is(err, common.ErrExportUnavailable) {
			s.logger.Error(ctx, "export publish failed", "error", err.Error())
			s.setFlash(w, intake.Notice{Kind: intake.NoticeError, Title: "Export failed", Message: "The export could not be uploaded. Please try again."})
			http.Redirect(w, r, adminLeadsPath, http.StatusSeeOther)
			return
		}
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="leads-%s.csv"`, ts.Format("2006-01-02")))
	_, _ = w.Write(body)
}
