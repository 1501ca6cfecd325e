package models

import "time"

// RefreshToken is a server-side session record. Only the SHA-256 of the
// opaque token is persisted.
type RefreshToken struct {
	UserID    string
	TokenHash string
	Expires   time.Time
	CreatedAt time.Time
}
