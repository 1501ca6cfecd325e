package web

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/dominiquedave/Time-Financial/internal/common"
	"github.com/dominiquedave/Time-Financial/internal/logging"
	"github.com/dominiquedave/Time-Financial/internal/server/access"
	"github.com/dominiquedave/Time-Financial/internal/server/leadstats"
	"github.com/dominiquedave/Time-Financial/internal/server/models"
	"github.com/dominiquedave/Time-Financial/internal/server/services"
	"github.com/stretchr/testify/require"
)

var errDown = errors.New("store down")

// --- sessions ---

type fakeSessions struct {
	identities map[string]*models.Identity
	pairs      map[string]*services.TokenPair

	signInErr   error
	signUpErr   error
	refreshErr  error
	identityErr error

	signedOut []string
	refreshed []string
	signUps   []services.SignUpInput
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{identities: map[string]*models.Identity{}, pairs: map[string]*services.TokenPair{}}
}

func (f *fakeSessions) SignUp(ctx context.Context, in services.SignUpInput) (*services.TokenPair, error) {
	f.signUps = append(f.signUps, in)
	if f.signUpErr != nil {
		return nil, f.signUpErr
	}
	return &services.TokenPair{AccessToken: "new-access", RefreshToken: "new-refresh"}, nil
}

func (f *fakeSessions) SignIn(ctx context.Context, email, password string) (*services.TokenPair, error) {
	if f.signInErr != nil {
		return nil, f.signInErr
	}
	if p, ok := f.pairs[email+":"+password]; ok {
		return p, nil
	}
	return nil, common.ErrorUnauthorized
}

func (f *fakeSessions) Refresh(ctx context.Context, refreshToken string) (*services.TokenPair, error) {
	f.refreshed = append(f.refreshed, refreshToken)
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	return &services.TokenPair{AccessToken: "rotated-access", RefreshToken: "rotated-refresh"}, nil
}

func (f *fakeSessions) SignOut(ctx context.Context, refreshToken string) error {
	f.signedOut = append(f.signedOut, refreshToken)
	return nil
}

func (f *fakeSessions) AccessTokenValidity() time.Duration  { return 15 * time.Minute }
func (f *fakeSessions) RefreshTokenValidity() time.Duration { return 24 * time.Hour }

func (f *fakeSessions) CurrentIdentity(ctx context.Context, token string) (*models.Identity, error) {
	if f.identityErr != nil {
		return nil, f.identityErr
	}
	return f.identities[token], nil
}

// --- profiles ---

type fakeProfiles map[string]*models.Profile

func (f fakeProfiles) GetByUserID(ctx context.Context, userID string) (*models.Profile, error) {
	p, ok := f[userID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return p, nil
}

// --- leads ---

type fakeLeads struct {
	inserted  []*models.Lead
	mine      []*models.Lead
	insertErr error
	mineErr   error
}

func (f *fakeLeads) Insert(ctx context.Context, l *models.Lead) (*models.Lead, error) {
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	l.ID = "11111111-2222-3333-4444-555555555555"
	f.inserted = append(f.inserted, l)
	return l, nil
}

func (f *fakeLeads) Mine(ctx context.Context, d access.Decision) ([]*models.Lead, error) {
	if f.mineErr != nil {
		return nil, f.mineErr
	}
	return f.mine, nil
}

// --- admin ---

type fakeAdmin struct {
	leads    []*models.Lead
	profiles []*models.Profile
	err      error
	updates  map[string]models.LeadStatus
	owners   map[string]string
	csv      []byte
}

func (f *fakeAdmin) Overview(ctx context.Context, d access.Decision, now time.Time) (*services.Overview, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &services.Overview{
		Summary:     leadstats.Summarize(f.leads, f.profiles, now),
		RecentLeads: leadstats.Recent(f.leads, services.RecentLimit),
		RecentUsers: leadstats.Recent(f.profiles, services.RecentLimit),
	}, nil
}

func (f *fakeAdmin) Leads(ctx context.Context, d access.Decision, filter leadstats.Filter, now time.Time) ([]*models.Lead, error) {
	if f.err != nil {
		return nil, f.err
	}
	return leadstats.Apply(filter, f.leads, now), nil
}

func (f *fakeAdmin) Lead(ctx context.Context, d access.Decision, id string) (*models.Lead, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, l := range f.leads {
		if l.ID == id {
			return l, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeAdmin) Users(ctx context.Context, d access.Decision) ([]*models.Profile, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.profiles, nil
}

func (f *fakeAdmin) UpdateLeadStatus(ctx context.Context, d access.Decision, id string, status models.LeadStatus) error {
	if !status.Valid() {
		return common.ErrValidation
	}
	if f.err != nil {
		return f.err
	}
	if f.updates == nil {
		f.updates = map[string]models.LeadStatus{}
	}
	f.updates[id] = status
	return nil
}

func (f *fakeAdmin) AssignLeadOwner(ctx context.Context, d access.Decision, id, ownerID string) error {
	if f.err != nil {
		return f.err
	}
	if ownerID != "" {
		known := false
		for _, p := range f.profiles {
			known = known || p.UserID == ownerID
		}
		if !known {
			return common.ErrValidation
		}
	}
	if f.owners == nil {
		f.owners = map[string]string{}
	}
	f.owners[id] = ownerID
	return nil
}

func (f *fakeAdmin) ExportCSV(ctx context.Context, d access.Decision) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.csv, nil
}

// --- exports ---

type fakeExports struct {
	enabled bool
	url     string
	err     error
	keys    []string
}

func (f *fakeExports) Enabled() bool { return f.enabled }

func (f *fakeExports) Publish(ctx context.Context, key, contentType string, body []byte) (string, error) {
	f.keys = append(f.keys, key)
	if f.err != nil {
		return "", f.err
	}
	return f.url, nil
}

// --- harness ---

type harness struct {
	sessions *fakeSessions
	profiles fakeProfiles
	leads    *fakeLeads
	admin    *fakeAdmin
	exports  *fakeExports
	server   *Server
	handler  http.Handler
}

const (
	userToken  = "user-token"
	adminToken = "admin-token"
)

func newHarness(t *testing.T, opts ...func(*Options)) *harness {
	t.Helper()

	h := &harness{
		sessions: newFakeSessions(),
		profiles: fakeProfiles{
			"u-1":     {ID: "p-1", UserID: "u-1", FirstName: "Jane", LastName: "Doe", Role: models.RoleUser},
			"admin-1": {ID: "p-2", UserID: "admin-1", FirstName: "Ada", Role: models.RoleAdmin},
		},
		leads:   &fakeLeads{},
		admin:   &fakeAdmin{},
		exports: &fakeExports{},
	}
	h.sessions.identities[userToken] = &models.Identity{UserID: "u-1", Email: "jane@example.com"}
	h.sessions.identities[adminToken] = &models.Identity{UserID: "admin-1", Email: "ada@example.com"}
	h.sessions.identities["rotated-access"] = &models.Identity{UserID: "u-1", Email: "jane@example.com"}

	o := Options{
		Address:  ":0",
		Logger:   logging.Nop(),
		Sessions: h.sessions,
		Gate:     access.NewResolver(h.sessions, h.profiles, time.Second, logging.Nop()),
		Leads:    h.leads,
		Admin:    h.admin,
		Exports:  h.exports,
		Location: time.UTC,
	}
	for _, fn := range opts {
		fn(&o)
	}

	s, err := NewServer(o)
	require.NoError(t, err)
	h.server = s
	h.handler = s.Handler()
	return h
}

func (h *harness) get(path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: accessCookie, Value: token})
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

func (h *harness) post(path, token string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if token != "" {
		req.AddCookie(&http.Cookie{Name: accessCookie, Value: token})
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

func responseCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func newRequest(method, path string) *http.Request {
	return httptest.NewRequest(method, path, nil)
}

func serve(h *harness, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}
