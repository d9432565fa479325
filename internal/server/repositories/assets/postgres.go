// Package assets provides PostgreSQL-backed storage for declared assets and
// their beneficiary designations.
package assets

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

const columns = `id, owner_id, title, asset_type, institution_name, beneficiary_designation,
	conflict_status, last_reviewed_at, created_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func scanAsset(row dbx.RowScanner) (*models.Asset, error) {
	a := &models.Asset{}
	err := row.Scan(&a.ID, &a.OwnerID, &a.Title, &a.AssetType, &a.InstitutionName, &a.Designation,
		&a.ConflictStatus, &a.LastReviewedAt, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Create inserts an asset. The designation is validated on the way in.
func (r *PostgresRepository) Create(ctx context.Context, a *models.Asset) error {
	if err := a.Designation.Validate(); err != nil {
		return err
	}
	query := `INSERT INTO assets (` + columns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.db.ExecContext(ctx, query,
		a.ID, a.OwnerID, a.Title, a.AssetType, a.InstitutionName, a.Designation,
		a.ConflictStatus, a.LastReviewedAt, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Asset, error) {
	a, err := scanAsset(r.db.QueryRowContext(ctx, `SELECT `+columns+` FROM assets WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}

func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.Asset, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+columns+` FROM assets WHERE owner_id = $1 ORDER BY created_at, id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to select assets: %w", err)
	}
	defer rows.Close()

	var result []*models.Asset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) UpdateDesignation(ctx context.Context, id string, d models.BeneficiaryDesignation, reviewedAt time.Time) error {
	if err := d.Validate(); err != nil {
		return err
	}
	query :=
		`UPDATE assets SET beneficiary_designation = $2, last_reviewed_at = $3, conflict_status = $4
		 WHERE id = $1
		 `
	res, err := r.db.ExecContext(ctx, query, id, d, reviewedAt, models.ConflictStatusUnchecked)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOne(res)
}

func (r *PostgresRepository) SetConflictStatus(ctx context.Context, id string, status models.ConflictStatus) error {
	res, err := r.db.ExecContext(ctx, `UPDATE assets SET conflict_status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOne(res)
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
