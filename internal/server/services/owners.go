package services

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/legacylink/internal/common"
	"github.com/dmitrijs2005/legacylink/internal/dbx"
	"github.com/dmitrijs2005/legacylink/internal/logging"
	"github.com/dmitrijs2005/legacylink/internal/server/legacy"
	"github.com/dmitrijs2005/legacylink/internal/server/models"
	"github.com/dmitrijs2005/legacylink/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/legacylink/internal/timex"
	"github.com/google/uuid"
)

// OwnerStatus is the owner's current liveness as the sweep would see it.
type OwnerStatus struct {
	Owner    *models.Owner
	Activity legacy.Activity
	// Deadline is the first instant at which the owner becomes overdue.
	Deadline time.Time
}

type OwnerService struct {
	db          dbx.DBTX
	repomanager repomanager.RepositoryManager
	clock       timex.Clock
	logger      logging.Logger
}

func NewOwnerService(db dbx.DBTX, m repomanager.RepositoryManager, clock timex.Clock, logger logging.Logger) *OwnerService {
	return &OwnerService{db: db, repomanager: m, clock: clock, logger: logger.With("module", "owners")}
}

// Create registers an owner. A zero frequency means the default window.
func (s *OwnerService) Create(ctx context.Context, name, email string, frequencyDays int) (*models.Owner, error) {
	if name == "" || email == "" {
		return nil, fmt.Errorf("%w: owner name and email are required", common.ErrorValidation)
	}
	if frequencyDays == 0 {
		frequencyDays = models.DefaultCheckInFrequencyDays
	}
	if frequencyDays < 0 {
		return nil, fmt.Errorf("%w: check-in frequency must be positive", common.ErrorValidation)
	}

	now := s.clock.Now()
	owner := &models.Owner{
		ID:                   uuid.NewString(),
		Name:                 name,
		Email:                email,
		LastCheckIn:          now,
		CheckInFrequencyDays: frequencyDays,
		CreatedAt:            now,
	}
	if err := s.repomanager.Owners(s.db).Create(ctx, owner); err != nil {
		return nil, fmt.Errorf("error creating owner: %w", err)
	}
	s.logger.Info(ctx, "owner created", "owner_id", owner.ID)
	return owner, nil
}

func (s *OwnerService) Get(ctx context.Context, ownerID string) (*models.Owner, error) {
	return s.repomanager.Owners(s.db).GetByID(ctx, ownerID)
}

// CheckIn records owner activity now.
func (s *OwnerService) CheckIn(ctx context.Context, ownerID string) error {
	if err := s.repomanager.Owners(s.db).CheckIn(ctx, ownerID, s.clock.Now()); err != nil {
		return fmt.Errorf("error recording check-in: %w", err)
	}
	return nil
}

func (s *OwnerService) SetCheckInFrequency(ctx context.Context, ownerID string, days int) error {
	return s.repomanager.Owners(s.db).SetCheckInFrequency(ctx, ownerID, days)
}

func (s *OwnerService) Status(ctx context.Context, ownerID string) (*OwnerStatus, error) {
	owner, err := s.repomanager.Owners(s.db).GetByID(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return &OwnerStatus{
		Owner:    owner,
		Activity: legacy.EvaluateActivity(owner, s.clock.Now()),
		Deadline: owner.LastCheckIn.Add(time.Duration(owner.CheckInFrequencyDays+1) * 24 * time.Hour),
	}, nil
}
