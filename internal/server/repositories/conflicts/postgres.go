// Package conflicts provides PostgreSQL-backed storage for beneficiary
// conflict records.
package conflicts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/legacylink/internal/common"
	"github.com/dmitrijs2005/legacylink/internal/dbx"
	"github.com/dmitrijs2005/legacylink/internal/server/models"
)

const columns = `id, owner_id, asset_id, conflict_type, description, severity, status,
	recommendations, detected_at, resolved_at, resolution_notes`

const severityOrder = `CASE severity WHEN 'high' THEN 3 WHEN 'medium' THEN 2 ELSE 1 END DESC, detected_at DESC`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func scanRecord(row dbx.RowScanner) (*models.ConflictRecord, error) {
	c := &models.ConflictRecord{}
	err := row.Scan(&c.ID, &c.OwnerID, &c.AssetID, &c.ConflictType, &c.Description, &c.Severity,
		&c.Status, &c.Recommendations, &c.DetectedAt, &c.ResolvedAt, &c.ResolutionNotes)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *PostgresRepository) Create(ctx context.Context, c *models.ConflictRecord) error {
	query := `INSERT INTO conflict_records (` + columns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.db.ExecContext(ctx, query,
		c.ID, c.OwnerID, c.AssetID, c.ConflictType, c.Description, c.Severity, c.Status,
		c.Recommendations, c.DetectedAt, c.ResolvedAt, c.ResolutionNotes)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.ConflictRecord, error) {
	c, err := scanRecord(r.db.QueryRowContext(ctx, `SELECT `+columns+` FROM conflict_records WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID string, unresolvedOnly bool) ([]*models.ConflictRecord, error) {
	query := `SELECT ` + columns + ` FROM conflict_records WHERE owner_id = $1`
	if unresolvedOnly {
		query += ` AND status <> 'resolved'`
	}
	query += ` ORDER BY ` + severityOrder

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to select conflicts: %w", err)
	}
	defer rows.Close()

	var result []*models.ConflictRecord
	for rows.Next() {
		c, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Save persists the resolution fields.
func (r *PostgresRepository) Save(ctx context.Context, c *models.ConflictRecord) error {
	query :=
		`UPDATE conflict_records SET status = $2, resolved_at = $3, resolution_notes = $4
		 WHERE id = $1
		 `
	res, err := r.db.ExecContext(ctx, query, c.ID, c.Status, c.ResolvedAt, c.ResolutionNotes)
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

func (r *PostgresRepository) CountOpenByAsset(ctx context.Context, assetID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM conflict_records WHERE asset_id = $1 AND status <> 'resolved'`, assetID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
