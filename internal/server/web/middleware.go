package web

import (
	"context"
	"net/http"
	"time"

	"github.com/dominiquedave/Time-Financial/internal/server/access"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/csrf"
)

type ctxKey string

const (
	accessTokenKey ctxKey = "accessToken"
	decisionKey    ctxKey = "decision"
)

func withAccessToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, accessTokenKey, token)
}

func accessToken(ctx context.Context) string {
	token, _ := ctx.Value(accessTokenKey).(string)
	return token
}

func withDecision(ctx context.Context, d access.Decision) context.Context {
	return context.WithValue(ctx, decisionKey, d)
}

func decision(ctx context.Context) access.Decision {
	d, _ := ctx.Value(decisionKey).(access.Decision)
	return d
}

// requestID tags every request with a uuid, honouring one set upstream.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(middleware.RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(middleware.RequestIDHeader, id)
		ctx := context.WithValue(r.Context(), middleware.RequestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.logger.Info(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).String(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// protectCSRF guards every state-changing form. Plain HTTP deployments skip
// the strict same-origin referer check that gorilla/csrf applies to HTTPS.
func (s *Server) protectCSRF(next http.Handler) http.Handler {
	if len(s.csrfKey) == 0 {
		return next
	}

	protect := csrf.Protect(s.csrfKey,
		csrf.Secure(s.secureCookies),
		csrf.HttpOnly(true),
		csrf.Path("/"),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.CookieName(csrfCookie),
		csrf.FieldName("csrf_token"),
		csrf.ErrorHandler(http.HandlerFunc(s.handleCSRFFailure)),
	)(next)

	if s.secureCookies {
		return protect
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		protect.ServeHTTP(w, csrf.PlaintextHTTPRequest(r))
	})
}

func (s *Server) handleCSRFFailure(w http.ResponseWriter, r *http.Request) {
	reason := "unknown"
	if err := csrf.FailureReason(r); err != nil {
		reason = err.Error()
	}
	s.logger.Warn(r.Context(), "csrf check failed", "path", r.URL.Path, "reason", reason)
	s.renderError(w, r, http.StatusForbidden, "Your session expired", "Please go back, reload the page and try again.")
}

// refreshSession exposes the access token to handlers. When the access cookie
// has lapsed but a refresh cookie is present, the session is rotated first.
func (s *Server) refreshSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := cookieValue(r, accessCookie)

		if token == "" {
			if refresh := cookieValue(r, refreshCookie); refresh != "" {
				pair, err := s.sessions.Refresh(r.Context(), refresh)
				if err != nil {
					s.logger.Info(r.Context(), "session refresh failed", "error", err.Error())
					s.clearSession(w)
				} else {
					s.setSession(w, pair)
					token = pair.AccessToken
				}
			}
		}

		next.ServeHTTP(w, r.WithContext(withAccessToken(r.Context(), token)))
	})
}

// requireView runs the access gate and redirects when it does not render.
func (s *Server) requireView(v access.View) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := s.gate.Resolve(r.Context(), accessToken(r.Context()), v)
			if d.Action != access.Render {
				http.Redirect(w, r, d.Target, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r.WithContext(withDecision(r.Context(), d)))
		})
	}
}
