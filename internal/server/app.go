// Package server wires configuration, storage, services and transports into
// the runnable LegacyLink application.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/legacylink/internal/dbx"
	"github.com/dmitrijs2005/legacylink/internal/logging"
	"github.com/dmitrijs2005/legacylink/internal/server/auth"
	"github.com/dmitrijs2005/legacylink/internal/server/config"
	"github.com/dmitrijs2005/legacylink/internal/server/metrics"
	"github.com/dmitrijs2005/legacylink/internal/server/models"
	"github.com/dmitrijs2005/legacylink/internal/server/notify"
	"github.com/dmitrijs2005/legacylink/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/legacylink/internal/server/scheduler"
	"github.com/dmitrijs2005/legacylink/internal/server/services"
	"github.com/dmitrijs2005/legacylink/internal/timex"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	gs "github.com/dmitrijs2005/legacylink/internal/server/grpc"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	registry    *prometheus.Registry

	owners    *services.OwnerService
	trustees  *services.TrusteeService
	release   *services.ReleaseService
	conflicts *services.ConflictService
	sweep     *services.SweepService
}

// NewApp opens the database pool and builds the services. No connection is
// made until the first query.
func NewApp(c *config.Config, logger logging.Logger) (*App, error) {
	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	app, err := newApp(c, logger, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return app, nil
}

func newApp(c *config.Config, logger logging.Logger, db *sql.DB) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	rm, err := repomanager.NewPostgresRepositoryManager(db)
	if err != nil {
		return nil, fmt.Errorf("repository init error: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	mx := metrics.New(registry)

	clock := timex.SystemClock{}
	tx := dbx.NewSQLTransactor(db)
	notifier := newNotifier(c, logger)

	return &App{
		config:      c,
		logger:      logger,
		db:          db,
		repomanager: rm,
		registry:    registry,
		owners:      services.NewOwnerService(db, rm, clock, logger),
		trustees:    services.NewTrusteeService(db, tx, rm, clock, notifier, logger),
		release:     services.NewReleaseService(db, tx, rm, clock, services.NewObjectStore(c), logger),
		conflicts:   services.NewConflictService(db, tx, rm, clock, logger),
		sweep:       services.NewSweepService(db, tx, rm, clock, notifier, mx, logger, c.SweepConcurrency, c.SweepOwnerTimeout),
	}, nil
}

func newNotifier(c *config.Config, logger logging.Logger) notify.Notifier {
	if c.NotifyWebhookURL != "" {
		return notify.NewWebhookNotifier(c.NotifyWebhookURL, &http.Client{Timeout: 10 * time.Second})
	}
	return notify.NewLogNotifier(logger)
}

func (app *App) Close() error {
	return app.db.Close()
}

// Migrate applies the embedded schema migrations.
func (app *App) Migrate(ctx context.Context) error {
	if err := app.repomanager.RunMigrations(ctx, app.db); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	return nil
}

// SweepOnce runs a single release sweep outside the scheduler.
func (app *App) SweepOnce(ctx context.Context) (*services.SweepReport, error) {
	return app.sweep.RunSweepOnce(ctx)
}

// CreateOwner registers an owner and returns an access token for them.
func (app *App) CreateOwner(ctx context.Context, name, email string, frequencyDays int) (*models.Owner, string, error) {
	owner, err := app.owners.Create(ctx, name, email, frequencyDays)
	if err != nil {
		return nil, "", err
	}
	token, err := app.IssueToken(owner.ID)
	if err != nil {
		return nil, "", err
	}
	return owner, token, nil
}

// IssueToken mints an owner access token with the configured lifetime.
func (app *App) IssueToken(ownerID string) (string, error) {
	return auth.GenerateToken(ownerID, []byte(app.config.SecretKey), app.config.AccessTokenValidityDuration)
}

func (app *App) initSignalHandler(ctx context.Context, cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		defer signal.Stop(sigs)
		select {
		case <-sigs:
			app.logger.Info(ctx, "Signal received, shutting down")
			cancelFunc()
		case <-ctx.Done():
		}
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, gs.Services{
		Owners:    app.owners,
		Trustees:  app.trustees,
		Release:   app.release,
		Conflicts: app.conflicts,
	}, app.config.SecretKey)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startMetricsServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := metrics.NewServer(app.config.MetricsAddr, app.registry, app.db, app.logger)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run migrates the schema, starts the sweep scheduler and both servers, and
// blocks until a signal arrives or a server fails.
func (app *App) Run(ctx context.Context) error {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(ctx, cancelFunc)

	if err := app.Migrate(ctx); err != nil {
		return err
	}

	sched := scheduler.New(app.sweep, app.config.SweepInterval, app.logger)
	sched.Start(ctx)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startMetricsServer(ctx, cancelFunc)
	}()

	wg.Wait()
	sched.Stop()

	app.logger.Info(context.Background(), "App stopped")
	return nil
}
