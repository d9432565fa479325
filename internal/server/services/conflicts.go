package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/legacylink/internal/common"
	"github.com/dmitrijs2005/legacylink/internal/dbx"
	"github.com/dmitrijs2005/legacylink/internal/logging"
	"github.com/dmitrijs2005/legacylink/internal/server/legacy"
	"github.com/dmitrijs2005/legacylink/internal/server/models"
	"github.com/dmitrijs2005/legacylink/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/legacylink/internal/timex"
	"github.com/google/uuid"
)

// CheckResult is the outcome of one asset check.
type CheckResult struct {
	Status   models.ConflictStatus
	Findings []legacy.Finding
	Records  []*models.ConflictRecord
}

// ConflictService checks assets against the will and tracks the resulting
// conflict records until the owner resolves them.
type ConflictService struct {
	db          dbx.DBTX
	tx          dbx.Transactor
	repomanager repomanager.RepositoryManager
	clock       timex.Clock
	logger      logging.Logger
}

func NewConflictService(db dbx.DBTX, tx dbx.Transactor, m repomanager.RepositoryManager, clock timex.Clock, logger logging.Logger) *ConflictService {
	return &ConflictService{db: db, tx: tx, repomanager: m, clock: clock, logger: logger.With("module", "conflicts")}
}

func (s *ConflictService) CreateAsset(ctx context.Context, ownerID string, in *models.Asset) (*models.Asset, error) {
	if in.Title == "" {
		return nil, fmt.Errorf("%w: asset title is required", common.ErrorValidation)
	}
	if err := in.Designation.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.repomanager.Owners(s.db).GetByID(ctx, ownerID); err != nil {
		return nil, err
	}
	a := *in
	a.ID = uuid.NewString()
	a.OwnerID = ownerID
	a.ConflictStatus = models.ConflictStatusUnchecked
	a.CreatedAt = s.clock.Now()
	if err := s.repomanager.Assets(s.db).Create(ctx, &a); err != nil {
		return nil, fmt.Errorf("error creating asset: %w", err)
	}
	return &a, nil
}

func (s *ConflictService) ownedAsset(ctx context.Context, db dbx.DBTX, ownerID, assetID string) (*models.Asset, error) {
	a, err := s.repomanager.Assets(db).GetByID(ctx, assetID)
	if err != nil {
		return nil, err
	}
	if a.OwnerID != ownerID {
		return nil, common.ErrorNotFound
	}
	return a, nil
}

// UpdateBeneficiaries replaces the asset's designation. The asset goes back
// to unchecked until the next check.
func (s *ConflictService) UpdateBeneficiaries(ctx context.Context, ownerID, assetID string, d models.BeneficiaryDesignation) error {
	if err := d.Validate(); err != nil {
		return err
	}
	if _, err := s.ownedAsset(ctx, s.db, ownerID, assetID); err != nil {
		return err
	}
	return s.repomanager.Assets(s.db).UpdateDesignation(ctx, assetID, d, s.clock.Now())
}

// CheckAsset compares the asset with the will beneficiaries, stores the
// derived status and one record per finding in a single transaction.
func (s *ConflictService) CheckAsset(ctx context.Context, ownerID, assetID string, will []string) (*CheckResult, error) {
	res := &CheckResult{}
	err := s.tx.WithinTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		a, err := s.ownedAsset(ctx, tx, ownerID, assetID)
		if err != nil {
			return err
		}
		findings := legacy.Detect(a, will)
		status := legacy.DeriveConflictStatus(findings)
		if err := s.repomanager.Assets(tx).SetConflictStatus(ctx, a.ID, status); err != nil {
			return err
		}

		now := s.clock.Now()
		records := make([]*models.ConflictRecord, 0, len(findings))
		for _, f := range findings {
			aid := a.ID
			rec := &models.ConflictRecord{
				ID:              uuid.NewString(),
				OwnerID:         ownerID,
				AssetID:         &aid,
				ConflictType:    f.Type,
				Description:     describe(f),
				Severity:        models.SeverityMedium,
				Status:          models.StatusUnresolved,
				Recommendations: append(models.Recommendations(nil), legacy.StandardRecommendations...),
				DetectedAt:      now,
			}
			if err := s.repomanager.Conflicts(tx).Create(ctx, rec); err != nil {
				return err
			}
			records = append(records, rec)
		}

		res.Status, res.Findings, res.Records = status, findings, records
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "asset checked", "asset_id", assetID, "status", string(res.Status), "findings", len(res.Findings))
	return res, nil
}

func describe(f legacy.Finding) string {
	return fmt.Sprintf("%s: not named in the will: %s", f.Message, strings.Join(f.Missing, ", "))
}

func (s *ConflictService) List(ctx context.Context, ownerID string, unresolvedOnly bool) ([]*models.ConflictRecord, error) {
	return s.repomanager.Conflicts(s.db).ListByOwner(ctx, ownerID, unresolvedOnly)
}

func (s *ConflictService) ownedRecord(ctx context.Context, db dbx.DBTX, ownerID, id string) (*models.ConflictRecord, error) {
	c, err := s.repomanager.Conflicts(db).GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.OwnerID != ownerID {
		return nil, common.ErrorNotFound
	}
	return c, nil
}

// MarkInProgress records that the owner started working on a conflict.
func (s *ConflictService) MarkInProgress(ctx context.Context, ownerID, id string) error {
	c, err := s.ownedRecord(ctx, s.db, ownerID, id)
	if err != nil {
		return err
	}
	if c.Status == models.StatusResolved {
		return fmt.Errorf("%w: conflict already resolved", common.ErrInvalidState)
	}
	c.Status = models.StatusInProgress
	return s.repomanager.Conflicts(s.db).Save(ctx, c)
}

// Resolve closes a conflict. Once an asset has no open conflicts left its
// status becomes resolved.
func (s *ConflictService) Resolve(ctx context.Context, ownerID, id, notes string) (*models.ConflictRecord, error) {
	var out *models.ConflictRecord
	err := s.tx.WithinTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		c, err := s.ownedRecord(ctx, tx, ownerID, id)
		if err != nil {
			return err
		}
		if c.Status == models.StatusResolved {
			return fmt.Errorf("%w: conflict already resolved", common.ErrInvalidState)
		}
		now := s.clock.Now()
		c.Status = models.StatusResolved
		c.ResolvedAt = &now
		c.ResolutionNotes = notes
		if err := s.repomanager.Conflicts(tx).Save(ctx, c); err != nil {
			return err
		}
		out = c

		if c.AssetID == nil {
			return nil
		}
		open, err := s.repomanager.Conflicts(tx).CountOpenByAsset(ctx, *c.AssetID)
		if err != nil {
			return err
		}
		a, err := s.repomanager.Assets(tx).GetByID(ctx, *c.AssetID)
		if err != nil {
			return err
		}
		if next := legacy.StatusAfterResolution(a.ConflictStatus, open); next != a.ConflictStatus {
			return s.repomanager.Assets(tx).SetConflictStatus(ctx, a.ID, next)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *ConflictService) Summary(ctx context.Context, ownerID string) (legacy.Summary, error) {
	records, err := s.repomanager.Conflicts(s.db).ListByOwner(ctx, ownerID, false)
	if err != nil {
		return legacy.Summary{}, err
	}
	return legacy.Summarize(records, s.clock.Now()), nil
}
