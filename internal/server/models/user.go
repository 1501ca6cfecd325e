package models

import "time"

// User is a registered account. Metadata mirrors the identity provider's
// app metadata; the provisioning tool records the admin role there.
type User struct {
	ID           string
	Email        string
	PasswordHash []byte
	Metadata     UserMetadata
	CreatedAt    time.Time
}

// UserMetadata is stored as JSON in users.metadata.
type UserMetadata struct {
	Role Role `json:"role,omitempty"`
}

// Identity is the authenticated principal attached to a session.
type Identity struct {
	UserID string
	Email  string
}
