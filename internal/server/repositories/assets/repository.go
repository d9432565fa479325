package assets

import (
	"context"
	"time"

	"github.com/dmitrijs2005/legacylink/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, a *models.Asset) error
	GetByID(ctx context.Context, id string) (*models.Asset, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*models.Asset, error)
	// UpdateDesignation replaces the beneficiaries, stamps the review time
	// and resets the conflict status to unchecked.
	UpdateDesignation(ctx context.Context, id string, d models.BeneficiaryDesignation, reviewedAt time.Time) error
	SetConflictStatus(ctx context.Context, id string, status models.ConflictStatus) error
}
