package profiles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dominiquedave/Time-Financial/internal/common"
	"github.com/dominiquedave/Time-Financial/internal/dbx"
	"github.com/dominiquedave/Time-Financial/internal/server/models"
)

// PostgresRepository implements the Profile Store over dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, p *models.Profile) (*models.Profile, error) {
	if p.Role == "" {
		p.Role = models.RoleUser
	}

	query := `
		INSERT INTO profiles (user_id, first_name, last_name, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query, p.UserID, p.FirstName, p.LastName, string(p.Role)).
		Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) GetByUserID(ctx context.Context, userID string) (*models.Profile, error) {
	query := `
		SELECT id, user_id, first_name, last_name, role, created_at
		FROM profiles
		WHERE user_id = $1
	`
	p := &models.Profile{}
	var role string
	err := r.db.QueryRowContext(ctx, query, userID).
		Scan(&p.ID, &p.UserID, &p.FirstName, &p.LastName, &role, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	p.Role = models.Role(role)
	return p, nil
}

func (r *PostgresRepository) ListAll(ctx context.Context) ([]*models.Profile, error) {
	query := `
		SELECT id, user_id, first_name, last_name, role, created_at
		FROM profiles
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Profile
	for rows.Next() {
		var p models.Profile
		var role string
		if err := rows.Scan(&p.ID, &p.UserID, &p.FirstName, &p.LastName, &role, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		p.Role = models.Role(role)
		result = append(result, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) UpdateRole(ctx context.Context, userID string, role models.Role) error {
	if !role.Valid() {
		return fmt.Errorf("unknown role %q", role)
	}

	query := `
		UPDATE profiles SET role = $2
		WHERE user_id = $1
	`
	res, err := r.db.ExecContext(ctx, query, userID, string(role))
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
