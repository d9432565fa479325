package grants

import (
	"context"

	"github.com/dmitrijs2005/legacylink/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, g *models.AccessGrant) error
	Get(ctx context.Context, key models.GrantKey) (*models.AccessGrant, error)
	// GetForUpdate locks the row until the surrounding transaction ends.
	GetForUpdate(ctx context.Context, key models.GrantKey) (*models.AccessGrant, error)
	// ListByOwner returns grants on every item of the owner.
	ListByOwner(ctx context.Context, ownerID string) ([]*models.AccessGrant, error)
	ListByTrustee(ctx context.Context, trusteeID string) ([]*models.AccessGrant, error)
	Save(ctx context.Context, g *models.AccessGrant) error
}
