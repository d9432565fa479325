// Package grants provides PostgreSQL-backed storage for access grants keyed
// by (item, trustee).
package grants

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/legacylink/internal/common"
	"github.com/dmitrijs2005/legacylink/internal/dbx"
	"github.com/dmitrijs2005/legacylink/internal/server/models"
)

const columns = `g.item_id, g.trustee_id, g.access_trigger, g.trigger_date,
	g.access_granted, g.access_granted_date, g.revoked_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func scanGrant(row dbx.RowScanner) (*models.AccessGrant, error) {
	g := &models.AccessGrant{}
	err := row.Scan(&g.ItemID, &g.TrusteeID, &g.AccessTrigger, &g.TriggerDate,
		&g.AccessGranted, &g.AccessGrantedDate, &g.RevokedAt)
	if err != nil {
		return nil, err
	}
	return g, nil
}

// Create inserts a grant. A second grant for the same (item, trustee) pair
// fails with common.ErrorAlreadyExists.
func (r *PostgresRepository) Create(ctx context.Context, g *models.AccessGrant) error {
	query :=
		`INSERT INTO access_grants (item_id, trustee_id, access_trigger, trigger_date,
			access_granted, access_granted_date, revoked_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 `
	_, err := r.db.ExecContext(ctx, query,
		g.ItemID, g.TrusteeID, g.AccessTrigger, g.TriggerDate, g.AccessGranted, g.AccessGrantedDate, g.RevokedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, key models.GrantKey) (*models.AccessGrant, error) {
	return r.get(ctx, `SELECT `+columns+` FROM access_grants g
		WHERE g.item_id = $1 AND g.trustee_id = $2`, key)
}

func (r *PostgresRepository) GetForUpdate(ctx context.Context, key models.GrantKey) (*models.AccessGrant, error) {
	return r.get(ctx, `SELECT `+columns+` FROM access_grants g
		WHERE g.item_id = $1 AND g.trustee_id = $2 FOR UPDATE`, key)
}

func (r *PostgresRepository) get(ctx context.Context, query string, key models.GrantKey) (*models.AccessGrant, error) {
	g, err := scanGrant(r.db.QueryRowContext(ctx, query, key.ItemID, key.TrusteeID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return g, nil
}

func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.AccessGrant, error) {
	return r.list(ctx, `SELECT `+columns+` FROM access_grants g
		JOIN items i ON i.id = g.item_id
		WHERE i.owner_id = $1
		ORDER BY g.item_id, g.trustee_id`, ownerID)
}

func (r *PostgresRepository) ListByTrustee(ctx context.Context, trusteeID string) ([]*models.AccessGrant, error) {
	return r.list(ctx, `SELECT `+columns+` FROM access_grants g
		WHERE g.trustee_id = $1
		ORDER BY g.item_id`, trusteeID)
}

func (r *PostgresRepository) list(ctx context.Context, query string, arg string) ([]*models.AccessGrant, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to select grants: %w", err)
	}
	defer rows.Close()

	var result []*models.AccessGrant
	for rows.Next() {
		g, err := scanGrant(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Save persists the grant state fields.
func (r *PostgresRepository) Save(ctx context.Context, g *models.AccessGrant) error {
	query :=
		`UPDATE access_grants SET access_granted = $3, access_granted_date = $4, revoked_at = $5
		 WHERE item_id = $1 AND trustee_id = $2
		 `
	res, err := r.db.ExecContext(ctx, query,
		g.ItemID, g.TrusteeID, g.AccessGranted, g.AccessGrantedDate, g.RevokedAt)
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
