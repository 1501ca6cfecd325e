// Package users declares the repository contract for registered accounts.
package users

import (
	"context"

	"github.com/dominiquedave/Time-Financial/internal/server/models"
)

type Repository interface {
	// Create inserts user and fills in its ID and CreatedAt. A duplicate email
	// yields common.ErrorEmailTaken.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	// SetMetadataRole records role in the user's metadata document.
	SetMetadataRole(ctx context.Context, id string, role models.Role) error
}
