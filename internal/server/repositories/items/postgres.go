// Package items provides PostgreSQL-backed storage for protected items.
package items

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/legacylink/internal/common"
	"github.com/dmitrijs2005/legacylink/internal/dbx"
	"github.com/dmitrijs2005/legacylink/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, item *models.ProtectedItem) error {
	query :=
		`INSERT INTO items (id, owner_id, title, type, is_public, storage_key, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 `
	_, err := r.db.ExecContext(ctx, query,
		item.ID, item.OwnerID, item.Title, item.Type, item.IsPublic, item.StorageKey, item.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.ProtectedItem, error) {
	query :=
		`SELECT id, owner_id, title, type, is_public, storage_key, created_at FROM items
		 WHERE id = $1
		 `
	item := &models.ProtectedItem{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&item.ID, &item.OwnerID, &item.Title, &item.Type, &item.IsPublic, &item.StorageKey, &item.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return item, nil
}

func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.ProtectedItem, error) {
	query :=
		`SELECT id, owner_id, title, type, is_public, storage_key, created_at FROM items
		 WHERE owner_id = $1 ORDER BY created_at, id
		 `
	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to select items: %w", err)
	}
	defer rows.Close()

	var result []*models.ProtectedItem
	for rows.Next() {
		var item models.ProtectedItem
		if err := rows.Scan(
			&item.ID, &item.OwnerID, &item.Title, &item.Type, &item.IsPublic, &item.StorageKey, &item.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) SetPublic(ctx context.Context, id string, public bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE items SET is_public = $2 WHERE id = $1`, id, public)
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
