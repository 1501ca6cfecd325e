package leads

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dominiquedave/Time-Financial/internal/common"
	"github.com/dominiquedave/Time-Financial/internal/dbx"
	"github.com/dominiquedave/Time-Financial/internal/server/models"
	"github.com/google/uuid"
)

const leadColumns = `id, first_name, last_name, email, phone, state, ssn, date_of_birth,
		address, zip_code, status, owner_id, user_id, created_at, updated_at`

var newID = uuid.NewString

// PostgresRepository implements the Lead Store over dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Insert(ctx context.Context, lead *models.Lead) (*models.Lead, error) {
	if lead.ID == "" {
		lead.ID = newID()
	}

	query := `
		INSERT INTO leads (id, first_name, last_name, email, phone, state, ssn, date_of_birth,
			address, zip_code, owner_id, user_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING status, created_at, updated_at
	`
	var status string
	err := r.db.QueryRowContext(ctx, query,
		lead.ID, lead.FirstName, lead.LastName, lead.Email, lead.Phone, lead.State,
		lead.SSN, lead.DateOfBirth, lead.Address, lead.ZipCode, lead.OwnerID, lead.UserID,
	).Scan(&status, &lead.CreatedAt, &lead.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	lead.Status = models.LeadStatus(status)
	return lead, nil
}

func (r *PostgresRepository) ListAll(ctx context.Context) ([]*models.Lead, error) {
	query := `SELECT ` + leadColumns + `
		FROM leads
		ORDER BY created_at DESC`
	return r.list(ctx, query)
}

func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.Lead, error) {
	query := `SELECT ` + leadColumns + `
		FROM leads
		WHERE owner_id = $1
		ORDER BY created_at DESC`
	return r.list(ctx, query, ownerID)
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.Lead, error) {
	if !validID(id) {
		return nil, common.ErrorNotFound
	}
	query := `SELECT ` + leadColumns + `
		FROM leads
		WHERE id = $1`

	lead, err := scanLead(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return lead, nil
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, id string, status models.LeadStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: unknown lead status %q", common.ErrValidation, status)
	}
	if !validID(id) {
		return common.ErrorNotFound
	}
	query := `
		UPDATE leads SET status = $2, updated_at = now()
		WHERE id = $1
	`
	return r.exec(ctx, query, id, string(status))
}

func (r *PostgresRepository) UpdateOwner(ctx context.Context, id string, ownerID *string) error {
	if !validID(id) {
		return common.ErrorNotFound
	}
	query := `
		UPDATE leads SET owner_id = $2, updated_at = now()
		WHERE id = $1
	`
	return r.exec(ctx, query, id, ownerID)
}

func (r *PostgresRepository) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]*models.Lead, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanLead(s scanner) (*models.Lead, error) {
	var (
		lead   models.Lead
		status string
	)
	err := s.Scan(
		&lead.ID, &lead.FirstName, &lead.LastName, &lead.Email, &lead.Phone, &lead.State,
		&lead.SSN, &lead.DateOfBirth, &lead.Address, &lead.ZipCode, &status,
		&lead.OwnerID, &lead.UserID, &lead.CreatedAt, &lead.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	lead.Status = models.LeadStatus(status)
	return &lead, nil
}

// validID reports whether id can name a lead. Lead ids are UUIDs, so
// anything else cannot exist.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
