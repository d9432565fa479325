// Package owners provides PostgreSQL-backed storage for owners and their
// check-in activity.
package owners

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/legacylink/internal/common"
	"github.com/dmitrijs2005/legacylink/internal/dbx"
	"github.com/dmitrijs2005/legacylink/internal/server/models"
)

// PostgresRepository implements owner storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, owner *models.Owner) error {
	query :=
		`INSERT INTO owners (id, name, email, last_check_in, check_in_frequency_days, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 `

	_, err := r.db.ExecContext(ctx, query,
		owner.ID, owner.Name, owner.Email, owner.LastCheckIn, owner.CheckInFrequencyDays, owner.CreatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Owner, error) {
	query :=
		`SELECT id, name, email, last_check_in, check_in_frequency_days, created_at FROM owners
		 WHERE id = $1
		 `

	o := &models.Owner{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&o.ID, &o.Name, &o.Email, &o.LastCheckIn, &o.CheckInFrequencyDays, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return o, nil
}

// ListIDs returns every owner id in a stable order.
func (r *PostgresRepository) ListIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM owners ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

// CheckIn records activity at the given time. An older timestamp than the
// stored one is ignored.
func (r *PostgresRepository) CheckIn(ctx context.Context, id string, at time.Time) error {
	query :=
		`UPDATE owners SET last_check_in = GREATEST(last_check_in, $2)
		 WHERE id = $1
		 `
	return r.execOne(ctx, query, id, at)
}

func (r *PostgresRepository) SetCheckInFrequency(ctx context.Context, id string, days int) error {
	if days <= 0 {
		return fmt.Errorf("%w: check-in frequency must be positive", common.ErrorValidation)
	}
	query :=
		`UPDATE owners SET check_in_frequency_days = $2
		 WHERE id = $1
		 `
	return r.execOne(ctx, query, id, days)
}

func (r *PostgresRepository) execOne(ctx context.Context, query string, args ...any) error {
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
