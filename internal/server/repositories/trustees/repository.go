package trustees

import (
	"context"

	"github.com/dmitrijs2005/legacylink/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, t *models.Trustee) error
	GetByID(ctx context.Context, id string) (*models.Trustee, error)
	// GetForUpdate locks the row until the surrounding transaction ends.
	GetForUpdate(ctx context.Context, id string) (*models.Trustee, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*models.Trustee, error)
	// Save persists verification and notification state.
	Save(ctx context.Context, t *models.Trustee) error
	// UpdateSettings persists the owner-editable contact and trigger fields.
	UpdateSettings(ctx context.Context, t *models.Trustee) error
	Delete(ctx context.Context, ownerID, id string) error
}
