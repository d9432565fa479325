package items

import (
	"context"

	"github.com/dmitrijs2005/legacylink/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, item *models.ProtectedItem) error
	GetByID(ctx context.Context, id string) (*models.ProtectedItem, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*models.ProtectedItem, error)
	SetPublic(ctx context.Context, id string, public bool) error
}
