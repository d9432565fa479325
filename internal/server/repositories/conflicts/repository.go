package conflicts

import (
	"context"

	"github.com/dmitrijs2005/legacylink/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, c *models.ConflictRecord) error
	GetByID(ctx context.Context, id string) (*models.ConflictRecord, error)
	// ListByOwner orders by severity desc, then detection time desc.
	ListByOwner(ctx context.Context, ownerID string, unresolvedOnly bool) ([]*models.ConflictRecord, error)
	Save(ctx context.Context, c *models.ConflictRecord) error
	// CountOpenByAsset counts records of the asset that are not resolved.
	CountOpenByAsset(ctx context.Context, assetID string) (int, error)
}
