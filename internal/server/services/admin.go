package services

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"time"

	"github.com/dominiquedave/Time-Financial/internal/common"
	"github.com/dominiquedave/Time-Financial/internal/logging"
	"github.com/dominiquedave/Time-Financial/internal/server/access"
	"github.com/dominiquedave/Time-Financial/internal/server/leadstats"
	"github.com/dominiquedave/Time-Financial/internal/server/models"
	"github.com/dominiquedave/Time-Financial/internal/server/repositories/repomanager"
)

// RecentLimit is how many leads and users the console overview lists.
const RecentLimit = 5

// Overview is everything the admin console's landing tab shows.
type Overview struct {
	Summary     leadstats.Summary
	RecentLeads []*models.Lead
	RecentUsers []*models.Profile
}

// AdminService serves admin-scoped reads and writes. Every method requires
// a Decision that grants the admin view.
type AdminService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewAdminService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *AdminService {
	return &AdminService{db: db, repomanager: m, logger: logger.With("module", "admin")}
}

func (s *AdminService) Overview(ctx context.Context, d access.Decision, now time.Time) (*Overview, error) {
	if !d.IsAdmin() {
		return nil, common.ErrAuthorizationDenied
	}

	leads, err := s.repomanager.Leads(s.db).ListAll(ctx)
	if err != nil {
		return nil, storeErr(err)
	}
	profiles, err := s.repomanager.Profiles(s.db).ListAll(ctx)
	if err != nil {
		return nil, storeErr(err)
	}

	return &Overview{
		Summary:     leadstats.Summarize(leads, profiles, now),
		RecentLeads: leadstats.Recent(leads, RecentLimit),
		RecentUsers: leadstats.Recent(profiles, RecentLimit),
	}, nil
}

// Leads lists all leads narrowed by filter, newest first.
func (s *AdminService) Leads(ctx context.Context, d access.Decision, filter leadstats.Filter, now time.Time) ([]*models.Lead, error) {
	if !d.IsAdmin() {
		return nil, common.ErrAuthorizationDenied
	}
	leads, err := s.repomanager.Leads(s.db).ListAll(ctx)
	if err != nil {
		return nil, storeErr(err)
	}
	return leadstats.Apply(filter, leads, now), nil
}

func (s *AdminService) Lead(ctx context.Context, d access.Decision, id string) (*models.Lead, error) {
	if !d.IsAdmin() {
		return nil, common.ErrAuthorizationDenied
	}
	lead, err := s.repomanager.Leads(s.db).Get(ctx, id)
	if err != nil {
		return nil, storeErr(err)
	}
	return lead, nil
}

func (s *AdminService) Users(ctx context.Context, d access.Decision) ([]*models.Profile, error) {
	if !d.IsAdmin() {
		return nil, common.ErrAuthorizationDenied
	}
	profiles, err := s.repomanager.Profiles(s.db).ListAll(ctx)
	if err != nil {
		return nil, storeErr(err)
	}
	return profiles, nil
}

// UpdateLeadStatus moves a lead through the pipeline.
func (s *AdminService) UpdateLeadStatus(ctx context.Context, d access.Decision, id string, status models.LeadStatus) error {
	if !d.IsAdmin() {
		return common.ErrAuthorizationDenied
	}
	if !status.Valid() {
		return fmt.Errorf("%w: unknown lead status %q", common.ErrValidation, status)
	}
	if err := s.repomanager.Leads(s.db).UpdateStatus(ctx, id, status); err != nil {
		return storeErr(err)
	}
	s.logger.Info(ctx, "lead status updated", "lead_id", id, "status", string(status), "by", actor(d))
	return nil
}

// AssignLeadOwner hands a lead to ownerID, who must have a profile. An empty
// ownerID clears the owner.
func (s *AdminService) AssignLeadOwner(ctx context.Context, d access.Decision, id, ownerID string) error {
	if !d.IsAdmin() {
		return common.ErrAuthorizationDenied
	}

	var owner *string
	if ownerID != "" {
		if _, err := s.repomanager.Profiles(s.db).GetByUserID(ctx, ownerID); err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return fmt.Errorf("%w: unknown owner %q", common.ErrValidation, ownerID)
			}
			return storeErr(err)
		}
		owner = &ownerID
	}

	if err := s.repomanager.Leads(s.db).UpdateOwner(ctx, id, owner); err != nil {
		return storeErr(err)
	}
	s.logger.Info(ctx, "lead owner assigned", "lead_id", id, "owner_id", ownerID, "by", actor(d))
	return nil
}

var csvHeader = []string{
	"id", "first_name", "last_name", "email", "phone", "state",
	"address", "zip_code", "ssn", "date_of_birth", "status", "created_at",
}

// ExportCSV renders every lead as CSV, newest first. SSNs are exported in
// their masked form only.
func (s *AdminService) ExportCSV(ctx context.Context, d access.Decision) ([]byte, error) {
	if !d.IsAdmin() {
		return nil, common.ErrAuthorizationDenied
	}
	leads, err := s.repomanager.Leads(s.db).ListAll(ctx)
	if err != nil {
		return nil, storeErr(err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, l := range leads {
		dob := ""
		if l.DateOfBirth != nil {
			dob = l.DateOfBirth.Format("2006-01-02")
		}
		rec := []string{
			l.ID, csvCell(l.FirstName), csvCell(l.LastName), csvCell(l.Email), csvCell(l.Phone), l.State,
			csvCell(deref(l.Address)), csvCell(deref(l.ZipCode)), deref(l.SSN), dob, string(l.Status),
			l.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "leads exported", "count", len(leads), "by", actor(d))
	return buf.Bytes(), nil
}

// csvCell neutralises visitor-entered text that a spreadsheet would
// evaluate as a formula.
func csvCell(v string) string {
	if v == "" {
		return v
	}
	switch v[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + v
	}
	return v
}

func storeErr(err error) error {
	if errors.Is(err, common.ErrorNotFound) {
		return err
	}
	return fmt.Errorf("%w: %w", common.ErrStore, err)
}

func actor(d access.Decision) string {
	if d.Identity == nil {
		return ""
	}
	return d.Identity.UserID
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
