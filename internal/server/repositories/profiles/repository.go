// Package profiles declares the Profile Store: the authoritative source of a
// user's display name and role.
package profiles

import (
	"context"

	"github.com/dominiquedave/Time-Financial/internal/server/models"
)

type Repository interface {
	// Create inserts the single profile for p.UserID.
	Create(ctx context.Context, p *models.Profile) (*models.Profile, error)
	// GetByUserID returns the profile or common.ErrorNotFound.
	GetByUserID(ctx context.Context, userID string) (*models.Profile, error)
	// ListAll returns every profile, newest first.
	ListAll(ctx context.Context) ([]*models.Profile, error)
	// UpdateRole is reserved for the provisioning tool.
	UpdateRole(ctx context.Context, userID string, role models.Role) error
}
