package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/legacylink/internal/common"
	"github.com/dmitrijs2005/legacylink/internal/dbx"
	"github.com/dmitrijs2005/legacylink/internal/logging"
	"github.com/dmitrijs2005/legacylink/internal/server/legacy"
	"github.com/dmitrijs2005/legacylink/internal/server/metrics"
	"github.com/dmitrijs2005/legacylink/internal/server/models"
	"github.com/dmitrijs2005/legacylink/internal/server/notify"
	"github.com/dmitrijs2005/legacylink/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/legacylink/internal/timex"
	"golang.org/x/sync/errgroup"
)

// OwnerFailure records an owner unit that stopped on a persistence error.
type OwnerFailure struct {
	OwnerID string
	Err     error
}

// SweepReport summarises one pass over all owners.
type SweepReport struct {
	StartedAt      time.Time
	Duration       time.Duration
	Owners         int
	Processed      int
	Skipped        int
	Notified       int
	NotifyFailures int
	GrantsReleased int
	Failures       []OwnerFailure
}

// Err joins the owner failures, nil when every unit succeeded.
func (r *SweepReport) Err() error {
	errs := make([]error, 0, len(r.Failures))
	for _, f := range r.Failures {
		errs = append(errs, f.Err)
	}
	return errors.Join(errs...)
}

// ownerResult is what one owner unit contributes to the report.
type ownerResult struct {
	notified       int
	notifyFailures int
	released       int
}

// SweepService evaluates every owner's activity and applies notifications and
// grant releases.
type SweepService struct {
	db           dbx.DBTX
	tx           dbx.Transactor
	repomanager  repomanager.RepositoryManager
	clock        timex.Clock
	notifier     notify.Notifier
	metrics      *metrics.Metrics
	logger       logging.Logger
	concurrency  int
	ownerTimeout time.Duration
}

func NewSweepService(db dbx.DBTX, tx dbx.Transactor, m repomanager.RepositoryManager, clock timex.Clock,
	notifier notify.Notifier, mx *metrics.Metrics, logger logging.Logger, concurrency int, ownerTimeout time.Duration) *SweepService {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &SweepService{
		db:           db,
		tx:           tx,
		repomanager:  m,
		clock:        clock,
		notifier:     notifier,
		metrics:      mx,
		logger:       logger.With("module", "sweep"),
		concurrency:  concurrency,
		ownerTimeout: ownerTimeout,
	}
}

// RunSweepOnce processes all owners. Failing owners are recorded in the
// report and do not stop the others. Once ctx is cancelled no new owner unit
// starts; units already running finish on a detached context.
func (s *SweepService) RunSweepOnce(ctx context.Context) (*SweepReport, error) {
	report := &SweepReport{StartedAt: s.clock.Now()}
	started := time.Now()
	defer func() {
		report.Duration = time.Since(started)
		if s.metrics != nil {
			s.metrics.SweepDuration.Observe(report.Duration.Seconds())
		}
	}()

	ids, err := s.repomanager.Owners(s.db).ListIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list owners: %w", common.ErrPersistence, err)
	}
	report.Owners = len(ids)

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(s.concurrency)

	for _, id := range ids {
		if ctx.Err() != nil {
			mu.Lock()
			report.Skipped++
			mu.Unlock()
			continue
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				mu.Lock()
				report.Skipped++
				mu.Unlock()
				return nil
			}

			uctx, cancel := s.unitContext(ctx)
			defer cancel()

			res, err := s.processOwner(uctx, id)

			mu.Lock()
			defer mu.Unlock()
			report.Notified += res.notified
			report.NotifyFailures += res.notifyFailures
			report.GrantsReleased += res.released
			if err != nil {
				err = fmt.Errorf("%w: owner %s: %w", common.ErrPersistence, id, err)
				report.Failures = append(report.Failures, OwnerFailure{OwnerID: id, Err: err})
				s.logger.Error(ctx, "owner unit failed", "owner_id", id, "error", err)
				if s.metrics != nil {
					s.metrics.OwnerFailures.Inc()
				}
				return nil
			}
			report.Processed++
			if s.metrics != nil {
				s.metrics.OwnersProcessed.Inc()
			}
			return nil
		})
	}
	_ = g.Wait()

	s.logger.Info(ctx, "sweep finished",
		"owners", report.Owners,
		"processed", report.Processed,
		"skipped", report.Skipped,
		"failed", len(report.Failures),
		"notified", report.Notified,
		"released", report.GrantsReleased)
	return report, nil
}

func (s *SweepService) unitContext(ctx context.Context) (context.Context, context.CancelFunc) {
	detached := context.WithoutCancel(ctx)
	if s.ownerTimeout > 0 {
		return context.WithTimeout(detached, s.ownerTimeout)
	}
	return context.WithCancel(detached)
}

// processOwner evaluates one owner with a single clock reading. It stops at
// the first persistence error.
func (s *SweepService) processOwner(ctx context.Context, ownerID string) (ownerResult, error) {
	var res ownerResult
	ctx = logging.WithAttrs(ctx, "owner_id", ownerID)

	owner, err := s.repomanager.Owners(s.db).GetByID(ctx, ownerID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return res, nil
		}
		return res, err
	}
	now := s.clock.Now()
	activity := legacy.EvaluateActivity(owner, now)

	trustees, err := s.repomanager.Trustees(s.db).ListByOwner(ctx, ownerID)
	if err != nil {
		return res, err
	}
	for _, t := range trustees {
		if _, ok := legacy.ShouldNotify(t, activity, now); !ok {
			continue
		}
		sent, err := s.notifyTrustee(ctx, t.ID, activity, now)
		if err != nil {
			if errors.Is(err, common.ErrNotificationDelivery) {
				res.notifyFailures++
				continue
			}
			return res, err
		}
		if sent {
			res.notified++
		}
	}

	grants, err := s.repomanager.Grants(s.db).ListByOwner(ctx, ownerID)
	if err != nil {
		return res, err
	}
	legacy.CheckUniqueKeys(grants)
	for _, g := range grants {
		if _, changed := legacy.EvaluateGrant(g, activity, now); !changed {
			continue
		}
		released, err := s.releaseGrant(ctx, g.Key(), activity, now)
		if err != nil {
			return res, err
		}
		if released {
			res.released++
		}
	}
	return res, nil
}

// notifyTrustee re-checks the locked row and sends the message. A delivery
// failure leaves the trustee unnotified and is returned wrapped in
// ErrNotificationDelivery.
func (s *SweepService) notifyTrustee(ctx context.Context, trusteeID string, activity legacy.Activity, now time.Time) (bool, error) {
	var (
		sent bool
		kind legacy.MessageKind
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Trustees(tx)
		t, err := repo.GetForUpdate(ctx, trusteeID)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return nil
			}
			return err
		}
		k, ok := legacy.ShouldNotify(t, activity, now)
		if !ok {
			return nil
		}
		if err := s.notifier.Send(ctx, t, k); err != nil {
			return fmt.Errorf("%w: %w", common.ErrNotificationDelivery, err)
		}
		legacy.MarkNotified(t, now)
		if err := repo.Save(ctx, t); err != nil {
			return err
		}
		sent, kind = true, k
		return nil
	})
	if err != nil {
		if errors.Is(err, common.ErrNotificationDelivery) {
			s.logger.Warn(ctx, "trustee notification failed", "trustee_id", trusteeID, "error", err)
			if s.metrics != nil {
				s.metrics.NotificationFailures.Inc()
			}
		}
		return false, err
	}
	if sent {
		s.logger.Info(ctx, "trustee notified", "trustee_id", trusteeID, "kind", string(kind))
		if s.metrics != nil {
			s.metrics.NotificationsSent.WithLabelValues(string(kind)).Inc()
		}
	}
	return sent, nil
}

func (s *SweepService) releaseGrant(ctx context.Context, key models.GrantKey, activity legacy.Activity, now time.Time) (bool, error) {
	var released *models.AccessGrant
	err := s.tx.WithinTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Grants(tx)
		g, err := repo.GetForUpdate(ctx, key)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return nil
			}
			return err
		}
		next, changed := legacy.EvaluateGrant(g, activity, now)
		if !changed {
			return nil
		}
		if err := repo.Save(ctx, next); err != nil {
			return err
		}
		released = next
		return nil
	})
	if err != nil || released == nil {
		return false, err
	}
	s.logger.Info(ctx, "access released", "item_id", key.ItemID, "trustee_id", key.TrusteeID, "trigger", string(released.AccessTrigger))
	if s.metrics != nil {
		s.metrics.GrantsReleased.WithLabelValues(string(released.AccessTrigger)).Inc()
	}
	return true, nil
}
