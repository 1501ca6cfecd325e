// Package common defines sentinel errors and small helpers shared by the
// server layers. Callers should match errors with errors.Is.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorEmailTaken   = errors.New("email already registered")

	// ErrValidation marks a missing or malformed form field. It is recovered
	// locally and rendered next to the field; it never reaches a store.
	ErrValidation = errors.New("validation error")

	// ErrAuthRequired means there is no usable session. Surfaced as a redirect
	// to the sign-in page.
	ErrAuthRequired = errors.New("authentication required")

	// ErrAuthorizationDenied means the session lacks the role a view needs.
	// Surfaced as a redirect, never as a visible "forbidden" page.
	ErrAuthorizationDenied = errors.New("authorization denied")

	// ErrStore wraps read/write failures against the lead or profile store.
	ErrStore = errors.New("store error")

	// Token errors.
	ErrInvalidToken        = errors.New("invalid token")
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")

	// ErrExportUnavailable is returned when object storage is not configured.
	ErrExportUnavailable = errors.New("export storage unavailable")
)
