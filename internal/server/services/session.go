// Package services contains server-side business logic. This file implements
// SessionService, the Session Provider: sign-up, sign-in, access token
// verification and rotation of server-stored refresh tokens.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dominiquedave/Time-Financial/internal/common"
	"github.com/dominiquedave/Time-Financial/internal/dbx"
	"github.com/dominiquedave/Time-Financial/internal/logging"
	"github.com/dominiquedave/Time-Financial/internal/server/auth"
	"github.com/dominiquedave/Time-Financial/internal/server/config"
	"github.com/dominiquedave/Time-Financial/internal/server/models"
	"github.com/dominiquedave/Time-Financial/internal/server/repositories/repomanager"
	"github.com/dominiquedave/Time-Financial/internal/server/validation"
	"golang.org/x/crypto/bcrypt"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// SignUpInput is the sign-up form.
type SignUpInput struct {
	FirstName string `form:"first_name" validate:"required,max=100"`
	LastName  string `form:"last_name" validate:"max=100"`
	Email     string `form:"email" validate:"required,email"`
	Password  string `form:"password" validate:"required,min=8,max=72"`
}

// FieldError reports per-field problems with a form. It matches
// common.ErrValidation.
type FieldError struct {
	Fields map[string]string
}

func (e *FieldError) Error() string { return "invalid form" }
func (e *FieldError) Unwrap() error { return common.ErrValidation }

var (
	bcryptCost = bcrypt.DefaultCost
	validate   = validation.New()

	// dummyHash is compared against when the email is unknown so sign-in
	// takes the same time either way.
	dummyHash, _ = bcrypt.GenerateFromPassword([]byte("time-financial"), bcrypt.MinCost)
)

type SessionService struct {
	db                           *sql.DB
	repomanager                  repomanager.RepositoryManager
	logger                       logging.Logger
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
}

func NewSessionService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, logger logging.Logger) *SessionService {
	return &SessionService{
		db:                           db,
		repomanager:                  m,
		logger:                       logger.With("module", "sessions"),
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
	}
}

// SignUp creates the user and its profile in one transaction and opens a
// session for them.
func (s *SessionService) SignUp(ctx context.Context, in SignUpInput) (*TokenPair, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)

	fields, err := validate.Struct(in)
	if err != nil {
		return nil, err
	}
	if len(fields) > 0 {
		return nil, &FieldError{Fields: fields}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		return nil, common.ErrorInternal
	}

	var pair *TokenPair
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		user, err := s.repomanager.Users(tx).Create(ctx, &models.User{Email: in.Email, PasswordHash: hash})
		if err != nil {
			return err
		}
		_, err = s.repomanager.Profiles(tx).Create(ctx, &models.Profile{
			UserID:    user.ID,
			FirstName: in.FirstName,
			LastName:  in.LastName,
			Role:      models.RoleUser,
		})
		if err != nil {
			return fmt.Errorf("error creating profile: %w", err)
		}
		pair, err = s.generateTokenPair(ctx, user, tx)
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrorEmailTaken) {
			return nil, err
		}
		s.logger.Error(ctx, "sign up failed", "error", err.Error())
		return nil, common.ErrorInternal
	}

	s.logger.Info(ctx, "user signed up", "email", in.Email)
	return pair, nil
}

// SignIn verifies email and password and opens a session.
func (s *SessionService) SignIn(ctx context.Context, email, password string) (*TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrorInternal
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return nil, common.ErrorUnauthorized
	}

	return s.generateTokenPair(ctx, user, s.db)
}

// Refresh validates a refresh token, rotates it transactionally and returns
// a fresh TokenPair. Expired tokens yield common.ErrRefreshTokenExpired.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	hash := common.HashToken(refreshToken)

	token, err := s.repomanager.RefreshTokens(s.db).Find(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("error searching refresh token: %w", err)
	}
	if token.Expires.Before(time.Now()) {
		return nil, common.ErrRefreshTokenExpired
	}

	var pair *TokenPair
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.RefreshTokens(tx).Delete(ctx, hash); err != nil {
			return fmt.Errorf("error deleting refresh token: %w", err)
		}
		user, err := s.repomanager.Users(tx).GetByID(ctx, token.UserID)
		if err != nil {
			return fmt.Errorf("error loading user: %w", err)
		}
		pair, err = s.generateTokenPair(ctx, user, tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return pair, nil
}

// SignOut revokes the refresh token. An empty or already revoked token is a
// no-op.
func (s *SessionService) SignOut(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	err := s.repomanager.RefreshTokens(s.db).Delete(ctx, common.HashToken(refreshToken))
	if err != nil && !errors.Is(err, common.ErrorNotFound) {
		return fmt.Errorf("error deleting refresh token: %w", err)
	}
	return nil
}

// CurrentIdentity returns the identity behind accessToken. A missing,
// malformed or expired token, or one whose user no longer exists, yields
// (nil, nil). Store failures are returned as errors.
func (s *SessionService) CurrentIdentity(ctx context.Context, accessToken string) (*models.Identity, error) {
	if accessToken == "" {
		return nil, nil
	}

	claims, err := auth.ParseToken(accessToken, s.jwtSecret)
	if err != nil {
		return nil, nil
	}

	user, err := s.repomanager.Users(s.db).GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &models.Identity{UserID: user.ID, Email: user.Email}, nil
}

// AccessTokenValidity is how long the access cookie should live.
func (s *SessionService) AccessTokenValidity() time.Duration {
	return s.accessTokenValidityDuration
}

// RefreshTokenValidity is how long the refresh cookie should live.
func (s *SessionService) RefreshTokenValidity() time.Duration {
	return s.refreshTokenValidityDuration
}

func (s *SessionService) generateTokenPair(ctx context.Context, user *models.User, tx dbx.DBTX) (*TokenPair, error) {
	access, err := auth.GenerateToken(user.ID, user.Email, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, common.ErrorInternal
	}
	refresh, err := common.MakeRandHexString(32)
	if err != nil {
		return nil, common.ErrorInternal
	}
	if err := s.repomanager.RefreshTokens(tx).Create(ctx, user.ID, common.HashToken(refresh), s.refreshTokenValidityDuration); err != nil {
		return nil, common.ErrorInternal
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
