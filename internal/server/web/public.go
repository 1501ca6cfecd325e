package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/dominiquedave/Time-Financial/internal/common"
	"github.com/dominiquedave/Time-Financial/internal/server/access"
	"github.com/dominiquedave/Time-Financial/internal/server/intake"
	"github.com/dominiquedave/Time-Financial/internal/server/models"
)

const homePath = "/"

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.renderError(w, r, http.StatusNotFound, "Page not found", "The page you were looking for does not exist.")
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	s.renderHome(w, r, http.StatusOK, intake.New())
}

func (s *Server) renderHome(w http.ResponseWriter, r *http.Request, status int, f *intake.Form) {
	s.render(w, r, status, "home.html", homePage{
		Layout: s.layout(w, r, "Affordable Health Insurance"),
		Quote:  s.quoteView(r, f, homePath),
	})
}

// quoteReturn limits where the quote form may send the visitor back to.
func quoteReturn(v string) string {
	if v == access.DashboardPath {
		return access.DashboardPath
	}
	return homePath
}

// handleQuote advances the quote form by one event. The draft travels in the
// posted fields; only the final submit writes a lead.
func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseForm(); err != nil {
		s.renderError(w, r, http.StatusBadRequest, "Bad request", "The form could not be read.")
		return
	}

	returnTo := quoteReturn(r.PostFormValue("return_to"))

	var d access.Decision
	if token := accessToken(ctx); token != "" || returnTo == access.DashboardPath {
		d = s.gate.Resolve(ctx, token, access.ViewUser)
	}
	if returnTo == access.DashboardPath && d.Action != access.Render {
		http.Redirect(w, r, d.Target, http.StatusSeeOther)
		return
	}

	if d.Action == access.Render {
		r = r.WithContext(withDecision(ctx, d))
	}

	var identify intake.Identify
	if token := accessToken(ctx); token != "" {
		identify = func(ctx context.Context) (*models.Identity, error) {
			return s.gate.Identify(ctx, token)
		}
	}

	step, _ := strconv.Atoi(r.PostFormValue("step"))
	f := intake.Restore(intake.Draft{
		FullName:    r.PostFormValue("full_name"),
		Email:       r.PostFormValue("email"),
		Phone:       r.PostFormValue("phone"),
		State:       r.PostFormValue("state"),
		Address:     r.PostFormValue("address"),
		ZipCode:     r.PostFormValue("zip_code"),
		SSN:         r.PostFormValue("ssn"),
		DateOfBirth: r.PostFormValue("dob"),
	}, step)
	draft := f.Draft()

	var err error
	switch {
	case r.PostFormValue("action") == "back":
		err = f.Back()
	case f.State() == intake.StepDetails:
		err = f.SubmitDetails(ctx, intake.DetailsInput{
			Address:     draft.Address,
			ZipCode:     draft.ZipCode,
			SSN:         draft.SSN,
			DateOfBirth: draft.DateOfBirth,
		}, identify, s.leads)
	default:
		err = f.SubmitContact(intake.ContactInput{
			FullName: draft.FullName,
			Email:    draft.Email,
			Phone:    draft.Phone,
			State:    draft.State,
		})
	}

	status := http.StatusOK
	switch {
	case err == nil:
	case errors.Is(err, common.ErrValidation):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, common.ErrStore):
		s.logger.Warn(ctx, "quote submit failed", "error", err.Error())
		status = http.StatusServiceUnavailable
	case errors.Is(err, intake.ErrInvalidTransition):
		status = http.StatusBadRequest
	default:
		s.logger.Error(ctx, "quote form", "error", err.Error())
		status = http.StatusInternalServerError
	}

	if returnTo == access.DashboardPath {
		s.renderDashboard(w, r, status, d, f)
		return
	}
	s.renderHome(w, r, status, f)
}
