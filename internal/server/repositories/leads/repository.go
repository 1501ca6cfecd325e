// Package leads declares the Lead Store used by the intake form and the
// admin console.
package leads

import (
	"context"

	"github.com/dominiquedave/Time-Financial/internal/server/models"
)

type Repository interface {
	// Insert stores a new lead. Status, CreatedAt and UpdatedAt are assigned
	// by the store and written back into lead.
	Insert(ctx context.Context, lead *models.Lead) (*models.Lead, error)
	// ListAll returns every lead, newest first.
	ListAll(ctx context.Context) ([]*models.Lead, error)
	// ListByOwner returns leads owned by ownerID, newest first.
	ListByOwner(ctx context.Context, ownerID string) ([]*models.Lead, error)
	// Get returns one lead or common.ErrorNotFound.
	Get(ctx context.Context, id string) (*models.Lead, error)
	UpdateStatus(ctx context.Context, id string, status models.LeadStatus) error
	UpdateOwner(ctx context.Context, id string, ownerID *string) error
}
