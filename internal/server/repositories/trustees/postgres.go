// Package trustees provides PostgreSQL-backed storage for trustees.
package trustees

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/legacylink/internal/common"
	"github.com/dmitrijs2005/legacylink/internal/dbx"
	"github.com/dmitrijs2005/legacylink/internal/server/models"
)

const columns = `id, owner_id, name, email, relationship, phone, access_level, notification_trigger,
	trigger_date, verification_status, verification_hash, verification_salt, notified, notified_at, created_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func scanTrustee(row dbx.RowScanner) (*models.Trustee, error) {
	t := &models.Trustee{}
	err := row.Scan(&t.ID, &t.OwnerID, &t.Name, &t.Email, &t.Relationship, &t.Phone,
		&t.AccessLevel, &t.NotificationTrigger, &t.TriggerDate, &t.VerificationStatus,
		&t.VerificationHash, &t.VerificationSalt, &t.Notified, &t.NotifiedAt, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *PostgresRepository) Create(ctx context.Context, t *models.Trustee) error {
	query := `INSERT INTO trustees (` + columns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	_, err := r.db.ExecContext(ctx, query,
		t.ID, t.OwnerID, t.Name, t.Email, t.Relationship, t.Phone,
		t.AccessLevel, t.NotificationTrigger, t.TriggerDate, t.VerificationStatus,
		t.VerificationHash, t.VerificationSalt, t.Notified, t.NotifiedAt, t.CreatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Trustee, error) {
	return r.get(ctx, `SELECT `+columns+` FROM trustees WHERE id = $1`, id)
}

func (r *PostgresRepository) GetForUpdate(ctx context.Context, id string) (*models.Trustee, error) {
	return r.get(ctx, `SELECT `+columns+` FROM trustees WHERE id = $1 FOR UPDATE`, id)
}

func (r *PostgresRepository) get(ctx context.Context, query, id string) (*models.Trustee, error) {
	t, err := scanTrustee(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}

func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.Trustee, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+columns+` FROM trustees WHERE owner_id = $1 ORDER BY created_at, id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to select trustees: %w", err)
	}
	defer rows.Close()

	var result []*models.Trustee
	for rows.Next() {
		t, err := scanTrustee(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Save persists the mutable lifecycle fields of a trustee.
func (r *PostgresRepository) Save(ctx context.Context, t *models.Trustee) error {
	query := `UPDATE trustees SET
			verification_status = $2,
			verification_hash = $3,
			verification_salt = $4,
			notified = $5,
			notified_at = $6
		WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query,
		t.ID, t.VerificationStatus, t.VerificationHash, t.VerificationSalt, t.Notified, t.NotifiedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOne(res)
}

func (r *PostgresRepository) UpdateSettings(ctx context.Context, t *models.Trustee) error {
	query := `UPDATE trustees SET
			name = $2,
			email = $3,
			relationship = $4,
			phone = $5,
			access_level = $6,
			notification_trigger = $7,
			trigger_date = $8
		WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query,
		t.ID, t.Name, t.Email, t.Relationship, t.Phone, t.AccessLevel, t.NotificationTrigger, t.TriggerDate)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOne(res)
}

// Delete removes an owner's trustee. Its access grants go with it.
func (r *PostgresRepository) Delete(ctx context.Context, ownerID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM trustees WHERE id = $1 AND owner_id = $2`, id, ownerID)
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
