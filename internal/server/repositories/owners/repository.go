package owners

import (
	"context"
	"time"

	"github.com/dmitrijs2005/legacylink/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, owner *models.Owner) error
	GetByID(ctx context.Context, id string) (*models.Owner, error)
	ListIDs(ctx context.Context) ([]string, error)
	CheckIn(ctx context.Context, id string, at time.Time) error
	SetCheckInFrequency(ctx context.Context, id string, days int) error
}
