package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dominiquedave/Time-Financial/internal/common"
	"github.com/dominiquedave/Time-Financial/internal/logging"
	"github.com/dominiquedave/Time-Financial/internal/server/access"
	"github.com/dominiquedave/Time-Financial/internal/server/models"
	"github.com/dominiquedave/Time-Financial/internal/server/repositories/repomanager"
)

// LeadService is the Lead Store as seen by visitors: it accepts intake
// submissions and lists a signed-in user's own leads.
type LeadService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewLeadService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *LeadService {
	return &LeadService{db: db, repomanager: m, logger: logger.With("module", "leads")}
}

// Insert writes one intake submission. It satisfies intake.LeadWriter.
func (s *LeadService) Insert(ctx context.Context, lead *models.Lead) (*models.Lead, error) {
	saved, err := s.repomanager.Leads(s.db).Insert(ctx, lead)
	if err != nil {
		s.logger.Error(ctx, "lead insert failed", "error", err.Error())
		return nil, err
	}
	s.logger.Info(ctx, "lead submitted", "lead_id", saved.ID, "anonymous", saved.OwnerID == nil)
	return saved, nil
}

// Mine lists the leads owned by the decision's identity.
func (s *LeadService) Mine(ctx context.Context, d access.Decision) ([]*models.Lead, error) {
	if d.Action != access.Render || d.Identity == nil {
		return nil, common.ErrAuthRequired
	}
	leads, err := s.repomanager.Leads(s.db).ListByOwner(ctx, d.Identity.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrStore, err)
	}
	return leads, nil
}
