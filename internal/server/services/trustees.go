package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/legacylink/internal/common"
	"github.com/dmitrijs2005/legacylink/internal/cryptox"
	"github.com/dmitrijs2005/legacylink/internal/dbx"
	"github.com/dmitrijs2005/legacylink/internal/logging"
	"github.com/dmitrijs2005/legacylink/internal/server/legacy"
	"github.com/dmitrijs2005/legacylink/internal/server/models"
	"github.com/dmitrijs2005/legacylink/internal/server/notify"
	"github.com/dmitrijs2005/legacylink/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/legacylink/internal/server/repositories/trustees"
	"github.com/dmitrijs2005/legacylink/internal/timex"
	"github.com/google/uuid"
)

// TrusteeService manages an owner's trustees, their verification and
// explicit notifications.
type TrusteeService struct {
	db          dbx.DBTX
	tx          dbx.Transactor
	repomanager repomanager.RepositoryManager
	clock       timex.Clock
	notifier    notify.Notifier
	logger      logging.Logger
}

func NewTrusteeService(db dbx.DBTX, tx dbx.Transactor, m repomanager.RepositoryManager, clock timex.Clock,
	notifier notify.Notifier, logger logging.Logger) *TrusteeService {
	return &TrusteeService{
		db:          db,
		tx:          tx,
		repomanager: m,
		clock:       clock,
		notifier:    notifier,
		logger:      logger.With("module", "trustees"),
	}
}

// Add creates a pending, not yet notified trustee for the owner.
func (s *TrusteeService) Add(ctx context.Context, ownerID string, in *models.Trustee) (*models.Trustee, error) {
	if _, err := s.repomanager.Owners(s.db).GetByID(ctx, ownerID); err != nil {
		return nil, err
	}

	t := *in
	t.ID = uuid.NewString()
	t.OwnerID = ownerID
	t.VerificationStatus = models.VerificationPending
	t.VerificationHash = nil
	t.VerificationSalt = nil
	t.Notified = false
	t.NotifiedAt = nil
	t.CreatedAt = s.clock.Now()
	if t.AccessLevel == "" {
		t.AccessLevel = models.AccessLevelAll
	}
	if t.NotificationTrigger == "" {
		t.NotificationTrigger = models.NotifyOnInactivity
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}

	if err := s.repomanager.Trustees(s.db).Create(ctx, &t); err != nil {
		return nil, fmt.Errorf("error creating trustee: %w", err)
	}
	s.logger.Info(ctx, "trustee added", "owner_id", ownerID, "trustee_id", t.ID)
	return &t, nil
}

func (s *TrusteeService) List(ctx context.Context, ownerID string) ([]*models.Trustee, error) {
	return s.repomanager.Trustees(s.db).ListByOwner(ctx, ownerID)
}

// Remove deletes the trustee and, through the schema, its access grants.
func (s *TrusteeService) Remove(ctx context.Context, ownerID, trusteeID string) error {
	return s.repomanager.Trustees(s.db).Delete(ctx, ownerID, trusteeID)
}

// TrusteeUpdate carries the owner-editable trustee fields. Nil fields are
// left unchanged.
type TrusteeUpdate struct {
	Name                *string
	Email               *string
	Relationship        *string
	Phone               *string
	AccessLevel         *models.AccessLevel
	NotificationTrigger *models.NotificationTrigger
	TriggerDate         *time.Time
}

func (u TrusteeUpdate) apply(t *models.Trustee) {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&t.Name, u.Name)
	set(&t.Email, u.Email)
	set(&t.Relationship, u.Relationship)
	set(&t.Phone, u.Phone)
	if u.AccessLevel != nil {
		t.AccessLevel = *u.AccessLevel
	}
	if u.NotificationTrigger != nil {
		t.NotificationTrigger = *u.NotificationTrigger
		if t.NotificationTrigger != models.NotifyOnDate && u.TriggerDate == nil {
			t.TriggerDate = nil
		}
	}
	if u.TriggerDate != nil {
		d := *u.TriggerDate
		t.TriggerDate = &d
	}
}

// Update reconfigures a trustee of the owner. Verification status, the
// stored code and the sticky notified flag are never touched, so switching
// the trigger of an already notified trustee does not notify again.
func (s *TrusteeService) Update(ctx context.Context, ownerID, trusteeID string, u TrusteeUpdate) (*models.Trustee, error) {
	var out *models.Trustee
	err := s.tx.WithinTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Trustees(tx)
		t, err := lockOwned(ctx, repo, ownerID, trusteeID)
		if err != nil {
			return err
		}
		u.apply(t)
		if err := t.Validate(); err != nil {
			return err
		}
		if err := repo.UpdateSettings(ctx, t); err != nil {
			return err
		}
		out = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "trustee updated", "trustee_id", trusteeID,
		"trigger", string(out.NotificationTrigger), "access_level", string(out.AccessLevel))
	return out, nil
}

// lockOwned loads the trustee for update and hides trustees of other owners.
func lockOwned(ctx context.Context, repo trustees.Repository, ownerID, trusteeID string) (*models.Trustee, error) {
	t, err := repo.GetForUpdate(ctx, trusteeID)
	if err != nil {
		return nil, err
	}
	if ownerID != "" && t.OwnerID != ownerID {
		return nil, common.ErrorNotFound
	}
	return t, nil
}

// RequestVerification issues a fresh verification code for a pending trustee.
// The code is returned to the owner and also sent to the trustee; a failed
// send is logged and does not undo the request.
func (s *TrusteeService) RequestVerification(ctx context.Context, ownerID, trusteeID string) (string, error) {
	var (
		code    string
		trustee *models.Trustee
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Trustees(tx)
		t, err := lockOwned(ctx, repo, ownerID, trusteeID)
		if err != nil {
			return err
		}
		if t.VerificationStatus != models.VerificationPending {
			return fmt.Errorf("%w: trustee is %s", common.ErrInvalidState, t.VerificationStatus)
		}

		c, salt, hash, err := cryptox.NewVerificationCode()
		if err != nil {
			return fmt.Errorf("%w: %v", common.ErrorInternal, err)
		}
		t.VerificationHash = hash
		t.VerificationSalt = salt
		if err := repo.Save(ctx, t); err != nil {
			return err
		}
		code, trustee = c, t
		return nil
	})
	if err != nil {
		return "", err
	}

	if err := s.notifier.Send(ctx, trustee, legacy.MessageVerification); err != nil {
		s.logger.Warn(ctx, "verification request not delivered", "trustee_id", trusteeID, "error", err)
	}
	return code, nil
}

// Verify accepts the trustee role with the code from RequestVerification.
func (s *TrusteeService) Verify(ctx context.Context, trusteeID, code string) error {
	return s.respond(ctx, trusteeID, code, legacy.Verify)
}

// Decline refuses the trustee role with the code from RequestVerification.
func (s *TrusteeService) Decline(ctx context.Context, trusteeID, code string) error {
	return s.respond(ctx, trusteeID, code, legacy.Decline)
}

func (s *TrusteeService) respond(ctx context.Context, trusteeID, code string, apply func(*models.Trustee) error) error {
	return s.tx.WithinTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Trustees(tx)
		t, err := repo.GetForUpdate(ctx, trusteeID)
		if err != nil {
			return err
		}
		if t.VerificationStatus != models.VerificationPending {
			return fmt.Errorf("%w: trustee is %s", common.ErrInvalidState, t.VerificationStatus)
		}
		if !cryptox.CheckVerificationCode(code, t.VerificationSalt, t.VerificationHash) {
			return common.ErrorUnauthorized
		}
		if err := apply(t); err != nil {
			return err
		}
		if err := repo.Save(ctx, t); err != nil {
			return err
		}
		s.logger.Info(ctx, "trustee responded", "trustee_id", t.ID, "status", string(t.VerificationStatus))
		return nil
	})
}

// NotifyManually notifies the trustee now. Already notified trustees are
// left alone. The flag is only set after a successful send.
func (s *TrusteeService) NotifyManually(ctx context.Context, ownerID, trusteeID string) error {
	return s.tx.WithinTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Trustees(tx)
		t, err := lockOwned(ctx, repo, ownerID, trusteeID)
		if err != nil {
			return err
		}
		if t.Notified {
			return nil
		}
		if err := s.notifier.Send(ctx, t, legacy.MessageManual); err != nil {
			if errors.Is(err, common.ErrNotificationDelivery) {
				return err
			}
			return fmt.Errorf("%w: %w", common.ErrNotificationDelivery, err)
		}
		legacy.MarkNotified(t, s.clock.Now())
		return repo.Save(ctx, t)
	})
}
