package web

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/dominiquedave/Time-Financial/internal/server/intake"
	"github.com/dominiquedave/Time-Financial/internal/server/services"
)

const (
	accessCookie  = "tf_access"
	refreshCookie = "tf_refresh"
	flashCookie   = "tf_flash"
	csrfCookie    = "tf_csrf"
)

func cookieValue(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}

func (s *Server) cookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	}
}

// setSession stores both tokens. Each cookie expires with its token, so a
// missing access cookie means the access token has lapsed.
func (s *Server) setSession(w http.ResponseWriter, pair *services.TokenPair) {
	http.SetCookie(w, s.cookie(accessCookie, pair.AccessToken, int(s.sessions.AccessTokenValidity().Seconds())))
	http.SetCookie(w, s.cookie(refreshCookie, pair.RefreshToken, int(s.sessions.RefreshTokenValidity().Seconds())))
}

func (s *Server) clearSession(w http.ResponseWriter) {
	http.SetCookie(w, s.cookie(accessCookie, "", -1))
	http.SetCookie(w, s.cookie(refreshCookie, "", -1))
}

// setFlash queues a notice for the next rendered page.
func (s *Server) setFlash(w http.ResponseWriter, n intake.Notice) {
	b, err := json.Marshal(n)
	if err != nil {
		return
	}
	http.SetCookie(w, s.cookie(flashCookie, base64.RawURLEncoding.EncodeToString(b), 60))
}

// popFlash returns the queued notice, if any, and clears it.
func (s *Server) popFlash(w http.ResponseWriter, r *http.Request) *intake.Notice {
	v := cookieValue(r, flashCookie)
	if v == "" {
		return nil
	}
	http.SetCookie(w, s.cookie(flashCookie, "", -1))

	b, err := base64.RawURLEncoding.DecodeString(v)
	if err != nil {
		return nil
	}
	var n intake.Notice
	if err := json.Unmarshal(b, &n); err != nil {
		return nil
	}
	return &n
}
