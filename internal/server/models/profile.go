package models

import "time"

// Role is the authorization tier of a profile.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Profile is the per-identity record holding display name and role.
// There is exactly one profile per user.
type Profile struct {
	ID        string
	UserID    string
	FirstName string
	LastName  string
	Role      Role
	CreatedAt time.Time
}

// IsAdmin reports whether the profile carries the admin role.
func (p *Profile) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}

// FullName joins first and last name, skipping empty parts.
func (p *Profile) FullName() string {
	switch {
	case p.FirstName == "":
		return p.LastName
	case p.LastName == "":
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}
