package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dominiquedave/Time-Financial/internal/common"
	"github.com/dominiquedave/Time-Financial/internal/server/access"
	"github.com/dominiquedave/Time-Financial/internal/server/intake"
	"github.com/dominiquedave/Time-Financial/internal/server/services"
)

const (
	tabSignIn = "signin"
	tabSignUp = "signup"
)

func (s *Server) handleAuthPage(w http.ResponseWriter, r *http.Request) {
	if token := accessToken(r.Context()); token != "" {
		if d := s.gate.Resolve(r.Context(), token, access.ViewUser); d.Action == access.Render {
			http.Redirect(w, r, access.DashboardPath, http.StatusSeeOther)
			return
		}
	}

	tab := tabSignIn
	if r.URL.Query().Get("tab") == tabSignUp {
		tab = tabSignUp
	}
	s.renderAuth(w, r, http.StatusOK, authPage{Tab: tab})
}

func (s *Server) renderAuth(w http.ResponseWriter, r *http.Request, status int, p authPage) {
	p.Layout = s.layout(w, r, "Sign in")
	s.render(w, r, status, "auth.html", p)
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.PostFormValue("email"))
	password := r.PostFormValue("password")

	pair, err := s.sessions.SignIn(r.Context(), email, password)
	if err != nil {
		p := authPage{Tab: tabSignIn, Email: email}
		status := http.StatusUnauthorized
		if errors.Is(err, common.ErrorUnauthorized) {
			p.Error = "Invalid email or password."
		} else {
			s.logger.Error(r.Context(), "sign in failed", "error", err.Error())
			p.Error = "We couldn't sign you in right now. Please try again."
			status = http.StatusServiceUnavailable
		}
		s.renderAuth(w, r, status, p)
		return
	}

	s.setSession(w, pair)
	http.Redirect(w, r, access.DashboardPath, http.StatusSeeOther)
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	in := services.SignUpInput{
		FirstName: r.PostFormValue("first_name"),
		LastName:  r.PostFormValue("last_name"),
		Email:     r.PostFormValue("email"),
		Password:  r.PostFormValue("password"),
	}

	pair, err := s.sessions.SignUp(r.Context(), in)
	if err != nil {
		p := authPage{Tab: tabSignUp, Email: in.Email, FirstName: in.FirstName, LastName: in.LastName}
		var fe *services.FieldError
		status := http.StatusUnprocessableEntity
		switch {
		case errors.As(err, &fe):
			p.Errors = fe.Fields
		case errors.Is(err, common.ErrorEmailTaken):
			p.Errors = map[string]string{"email": "An account with this email already exists"}
			status = http.StatusConflict
		default:
			s.logger.Error(r.Context(), "sign up failed", "error", err.Error())
			p.Error = "We couldn't create your account right now. Please try again."
			status = http.StatusServiceUnavailable
		}
		s.renderAuth(w, r, status, p)
		return
	}

	s.setSession(w, pair)
	s.setFlash(w, intake.Notice{
		Kind:    intake.NoticeSuccess,
		Title:   "Welcome!",
		Message: "Your account has been created.",
	})
	http.Redirect(w, r, access.DashboardPath, http.StatusSeeOther)
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.SignOut(r.Context(), cookieValue(r, refreshCookie)); err != nil {
		s.logger.Warn(r.Context(), "sign out failed", "error", err.Error())
	}
	s.clearSession(w)
	http.Redirect(w, r, homePath, http.StatusSeeOther)
}
