package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/legacylink/internal/common"
	"github.com/dmitrijs2005/legacylink/internal/dbx"
	"github.com/dmitrijs2005/legacylink/internal/logging"
	"github.com/dmitrijs2005/legacylink/internal/server/legacy"
	"github.com/dmitrijs2005/legacylink/internal/server/models"
	"github.com/dmitrijs2005/legacylink/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/legacylink/internal/timex"
	"github.com/google/uuid"
)

// URLSigner produces download links for stored attachments.
type URLSigner interface {
	PresignedGetURL(ctx context.Context, key string) (string, error)
}

// ReleaseService owns protected items, their access grants and the access
// checks trustees go through.
type ReleaseService struct {
	db          dbx.DBTX
	tx          dbx.Transactor
	repomanager repomanager.RepositoryManager
	clock       timex.Clock
	signer      URLSigner
	logger      logging.Logger
}

func NewReleaseService(db dbx.DBTX, tx dbx.Transactor, m repomanager.RepositoryManager, clock timex.Clock,
	signer URLSigner, logger logging.Logger) *ReleaseService {
	return &ReleaseService{
		db:          db,
		tx:          tx,
		repomanager: m,
		clock:       clock,
		signer:      signer,
		logger:      logger.With("module", "release"),
	}
}

func (s *ReleaseService) CreateItem(ctx context.Context, ownerID string, in *models.ProtectedItem) (*models.ProtectedItem, error) {
	if in.Title == "" {
		return nil, fmt.Errorf("%w: item title is required", common.ErrorValidation)
	}
	if _, err := s.repomanager.Owners(s.db).GetByID(ctx, ownerID); err != nil {
		return nil, err
	}
	item := *in
	item.ID = uuid.NewString()
	item.OwnerID = ownerID
	item.CreatedAt = s.clock.Now()
	if err := s.repomanager.Items(s.db).Create(ctx, &item); err != nil {
		return nil, fmt.Errorf("error creating item: %w", err)
	}
	return &item, nil
}

func (s *ReleaseService) ownedItem(ctx context.Context, db dbx.DBTX, ownerID, itemID string) (*models.ProtectedItem, error) {
	item, err := s.repomanager.Items(db).GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.OwnerID != ownerID {
		return nil, common.ErrorNotFound
	}
	return item, nil
}

func (s *ReleaseService) SetPublic(ctx context.Context, ownerID, itemID string, public bool) error {
	if _, err := s.ownedItem(ctx, s.db, ownerID, itemID); err != nil {
		return err
	}
	return s.repomanager.Items(s.db).SetPublic(ctx, itemID, public)
}

// AddGrant links an owned item to an owned trustee. Immediate grants are
// granted on creation.
func (s *ReleaseService) AddGrant(ctx context.Context, ownerID string, in *models.AccessGrant) (*models.AccessGrant, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.ownedItem(ctx, s.db, ownerID, in.ItemID); err != nil {
		return nil, err
	}
	t, err := s.repomanager.Trustees(s.db).GetByID(ctx, in.TrusteeID)
	if err != nil {
		return nil, err
	}
	if t.OwnerID != ownerID {
		return nil, common.ErrorNotFound
	}

	g := &models.AccessGrant{
		ItemID:        in.ItemID,
		TrusteeID:     in.TrusteeID,
		AccessTrigger: in.AccessTrigger,
		TriggerDate:   in.TriggerDate,
	}
	if g.AccessTrigger == models.AccessImmediate {
		legacy.Grant(g, s.clock.Now())
	}
	if err := s.repomanager.Grants(s.db).Create(ctx, g); err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("error creating grant: %w", err)
	}
	return g, nil
}

// ManualRelease grants access now regardless of the trigger and clears an
// earlier revocation.
func (s *ReleaseService) ManualRelease(ctx context.Context, ownerID, itemID, trusteeID string) (*models.AccessGrant, error) {
	return s.updateGrant(ctx, ownerID, itemID, trusteeID, func(g *models.AccessGrant) {
		legacy.Grant(g, s.clock.Now())
	})
}

// Revoke switches access off. The sweep does not grant it again.
func (s *ReleaseService) Revoke(ctx context.Context, ownerID, itemID, trusteeID string) error {
	_, err := s.updateGrant(ctx, ownerID, itemID, trusteeID, func(g *models.AccessGrant) {
		legacy.Revoke(g, s.clock.Now())
	})
	return err
}

func (s *ReleaseService) updateGrant(ctx context.Context, ownerID, itemID, trusteeID string, apply func(*models.AccessGrant)) (*models.AccessGrant, error) {
	var out *models.AccessGrant
	err := s.tx.WithinTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.ownedItem(ctx, tx, ownerID, itemID); err != nil {
			return err
		}
		repo := s.repomanager.Grants(tx)
		g, err := repo.GetForUpdate(ctx, models.GrantKey{ItemID: itemID, TrusteeID: trusteeID})
		if err != nil {
			return err
		}
		apply(g)
		if err := repo.Save(ctx, g); err != nil {
			return err
		}
		out = g
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "grant updated", "item_id", itemID, "trustee_id", trusteeID, "granted", out.AccessGranted)
	return out, nil
}

// CanAccess reports whether the trustee may open the item right now. It reads
// current storage state and takes no locks.
func (s *ReleaseService) CanAccess(ctx context.Context, itemID, trusteeID string) (bool, error) {
	item, err := s.repomanager.Items(s.db).GetByID(ctx, itemID)
	if err != nil {
		return false, err
	}
	t, err := s.repomanager.Trustees(s.db).GetByID(ctx, trusteeID)
	if err != nil {
		return false, err
	}
	if t.OwnerID != item.OwnerID {
		return false, nil
	}
	if item.IsPublic {
		return true, nil
	}
	g, err := s.repomanager.Grants(s.db).Get(ctx, models.GrantKey{ItemID: itemID, TrusteeID: trusteeID})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return false, nil
		}
		return false, err
	}
	return g.AccessGranted, nil
}

// AccessibleItems lists the owner's items the trustee can open.
func (s *ReleaseService) AccessibleItems(ctx context.Context, ownerID, trusteeID string) ([]*models.ProtectedItem, error) {
	t, err := s.repomanager.Trustees(s.db).GetByID(ctx, trusteeID)
	if err != nil {
		return nil, err
	}
	if t.OwnerID != ownerID {
		return nil, common.ErrorNotFound
	}

	items, err := s.repomanager.Items(s.db).ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	grants, err := s.repomanager.Grants(s.db).ListByTrustee(ctx, trusteeID)
	if err != nil {
		return nil, err
	}
	granted := make(map[string]bool, len(grants))
	for _, g := range grants {
		granted[g.ItemID] = g.AccessGranted
	}

	var out []*models.ProtectedItem
	for _, it := range items {
		if it.IsPublic || granted[it.ID] {
			out = append(out, it)
		}
	}
	return out, nil
}

// DownloadURL returns a temporary link to the item's attachment for a trustee
// who currently has access. Only verified trustees get links, since the
// method is reachable without an owner token.
func (s *ReleaseService) DownloadURL(ctx context.Context, itemID, trusteeID string) (string, error) {
	t, err := s.repomanager.Trustees(s.db).GetByID(ctx, trusteeID)
	if err != nil {
		return "", err
	}
	if t.VerificationStatus != models.VerificationVerified {
		return "", fmt.Errorf("%w: trustee is not verified", common.ErrorForbidden)
	}
	ok, err := s.CanAccess(ctx, itemID, trusteeID)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", common.ErrorForbidden
	}
	item, err := s.repomanager.Items(s.db).GetByID(ctx, itemID)
	if err != nil {
		return "", err
	}
	if item.StorageKey == "" {
		return "", fmt.Errorf("%w: item has no attachment", common.ErrorNotFound)
	}
	url, err := s.signer.PresignedGetURL(ctx, item.StorageKey)
	if err != nil {
		return "", fmt.Errorf("%w: presign: %v", common.ErrorInternal, err)
	}
	return url, nil
}
