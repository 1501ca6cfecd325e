// Package refreshtokens declares the repository contract for server-side
// session records. Callers pass the SHA-256 of the opaque token, never the
// token itself.
package refreshtokens

import (
	"context"
	"time"

	"github.com/dominiquedave/Time-Financial/internal/server/models"
)

// Repository defines operations for issuing, retrieving and revoking refresh tokens.
type Repository interface {
	// Create stores a token hash for userID with an expiry of now+validity.
	Create(ctx context.Context, userID string, tokenHash string, validity time.Duration) error

	// Find returns the record for tokenHash or common.ErrorNotFound.
	Find(ctx context.Context, tokenHash string) (*models.RefreshToken, error)

	// Delete removes a token. Deleting an absent token is not an error.
	Delete(ctx context.Context, tokenHash string) error
}
