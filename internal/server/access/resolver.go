// Package access decides what a request for a protected page may see. Every
// decision is made fresh: the session is looked up, then the role is read
// from the Profile Store, then the outcome is chosen. Any failure along the
// way sends the visitor to the sign-in page.
package access

import (
	"context"
	"errors"
	"time"

	"github.com/dominiquedave/Time-Financial/internal/common"
	"github.com/dominiquedave/Time-Financial/internal/logging"
	"github.com/dominiquedave/Time-Financial/internal/server/models"
)

// View is the page a visitor asked for.
type View string

const (
	ViewUser  View = "user"
	ViewAdmin View = "admin"
)

// Action tells the caller whether to render or redirect.
type Action int

const (
	Render Action = iota + 1
	Redirect
)

const (
	SignInPath    = "/auth"
	DashboardPath = "/dashboard"
)

// DefaultTimeout bounds each lookup when the Resolver has no Timeout set.
const DefaultTimeout = 3 * time.Second

// Decision is the outcome of Resolve. Identity and Profile are set only for
// Render.
type Decision struct {
	Action   Action
	Variant  View
	Target   string
	Reason   error
	Identity *models.Identity
	Profile  *models.Profile
}

// Granted reports whether the decision renders the given view.
func (d Decision) Granted(v View) bool {
	return d.Action == Render && d.Variant == v
}

// IsAdmin reports whether the decision unlocks admin-scoped data.
func (d Decision) IsAdmin() bool {
	return d.Granted(ViewAdmin) && d.Profile.IsAdmin()
}

// HasAdminRole reports whether the rendered identity holds the admin role,
// whatever view was asked for. It drives navigation only; data guards use
// IsAdmin.
func (d Decision) HasAdminRole() bool {
	return d.Action == Render && d.Profile.IsAdmin()
}

// SessionProvider resolves an access token to an identity. A nil identity
// with a nil error means there is no session.
type SessionProvider interface {
	CurrentIdentity(ctx context.Context, accessToken string) (*models.Identity, error)
}

// ProfileLookup reads the authoritative profile of a user.
type ProfileLookup interface {
	GetByUserID(ctx context.Context, userID string) (*models.Profile, error)
}

// Resolver is the access gate in front of the dashboard and admin console.
type Resolver struct {
	Sessions SessionProvider
	Profiles ProfileLookup
	Timeout  time.Duration
	Logger   logging.Logger
}

func NewResolver(sessions SessionProvider, profiles ProfileLookup, timeout time.Duration, logger logging.Logger) *Resolver {
	return &Resolver{
		Sessions: sessions,
		Profiles: profiles,
		Timeout:  timeout,
		Logger:   logger.With("module", "access"),
	}
}

// Resolve decides the outcome for a request carrying accessToken that asked
// for view:
//
//	no session                      -> Redirect /auth
//	admin view, profile not admin   -> Redirect /dashboard
//	admin view, profile admin       -> Render admin
//	user view                       -> Render user
//	any lookup error or timeout     -> Redirect /auth
func (r *Resolver) Resolve(ctx context.Context, accessToken string, view View) Decision {
	identity, err := r.session(ctx, accessToken)
	if err != nil {
		r.warn(ctx, "session lookup failed", err)
		return redirect(SignInPath, err)
	}
	if identity == nil {
		return redirect(SignInPath, common.ErrAuthRequired)
	}

	profile, err := r.profile(ctx, identity.UserID)
	if err != nil {
		r.warn(ctx, "profile lookup failed", err, "user_id", identity.UserID)
		return redirect(SignInPath, err)
	}

	if view == ViewAdmin {
		if !profile.IsAdmin() {
			return redirect(DashboardPath, common.ErrAuthorizationDenied)
		}
		return Decision{Action: Render, Variant: ViewAdmin, Identity: identity, Profile: profile}
	}

	return Decision{Action: Render, Variant: ViewUser, Identity: identity, Profile: profile}
}

// Identify returns the identity behind accessToken from the Session Provider
// alone, bounded by the lookup timeout. No session yields (nil, nil).
func (r *Resolver) Identify(ctx context.Context, accessToken string) (*models.Identity, error) {
	identity, err := r.session(ctx, accessToken)
	if err != nil {
		r.warn(ctx, "session lookup failed", err)
		return nil, err
	}
	return identity, nil
}

func (r *Resolver) session(ctx context.Context, token string) (*models.Identity, error) {
	if token == "" {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout())
	defer cancel()

	identity, err := r.Sessions.CurrentIdentity(ctx, token)
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	return identity, err
}

func (r *Resolver) profile(ctx context.Context, userID string) (*models.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout())
	defer cancel()

	profile, err := r.Profiles.GetByUserID(ctx, userID)
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	if err == nil && profile == nil {
		err = common.ErrorNotFound
	}
	return profile, err
}

func (r *Resolver) timeout() time.Duration {
	if r.Timeout <= 0 {
		return DefaultTimeout
	}
	return r.Timeout
}

func (r *Resolver) warn(ctx context.Context, msg string, err error, args ...any) {
	if r.Logger == nil {
		return
	}
	args = append(args, "error", err.Error(), "timeout", errors.Is(err, context.DeadlineExceeded))
	r.Logger.Warn(ctx, msg, args...)
}

func redirect(target string, reason error) Decision {
	return Decision{Action: Redirect, Target: target, Reason: reason}
}
