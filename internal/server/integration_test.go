package server

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/dmitrijs2005/legacylink/internal/logging"
	"github.com/dmitrijs2005/legacylink/internal/server/config"
	"github.com/dmitrijs2005/legacylink/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupPostgres starts PostgreSQL in a container and returns an App bound to
// it with migrations applied.
func setupPostgres(t *testing.T) *App {
	t.Helper()

	if os.Getenv("TEST_INTEGRATION") == "" {
		t.Skip("skipping integration test: TEST_INTEGRATION is not set")
	}

	ctx := context.Background()
	container, err := postgres.Run(ctx,
		"docker.io/postgres:17-alpine",
		postgres.WithDatabase("legacylink_test"),
		postgres.WithUsername("legacylink"),
		postgres.WithPassword("test-password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := sql.Open("pgx", dsn)
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.DatabaseDSN = dsn

	app, err := newApp(cfg, logging.Discard(), db)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	require.NoError(t, app.Migrate(ctx))
	return app
}

func TestIntegration_SweepReleasesOverdueOwner(t *testing.T) {
	app := setupPostgres(t)
	ctx := context.Background()

	owner, _, err := app.CreateOwner(ctx, "Ann", "ann@example.com", 7)
	require.NoError(t, err)

	trustee, err := app.trustees.Add(ctx, owner.ID, &models.Trustee{Name: "Bob", Email: "bob@example.com"})
	require.NoError(t, err)

	item, err := app.release.CreateItem(ctx, owner.ID, &models.ProtectedItem{Title: "Letter", Type: "document"})
	require.NoError(t, err)

	_, err = app.release.AddGrant(ctx, owner.ID, &models.AccessGrant{
		ItemID: item.ID, TrusteeID: trustee.ID, AccessTrigger: models.AccessOnInactivity,
	})
	require.NoError(t, err)

	report, err := app.SweepOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Notified)
	assert.Equal(t, 0, report.GrantsReleased)

	// Ten days of silence with a weekly check-in.
	_, err = app.db.ExecContext(ctx, `UPDATE owners SET last_check_in = $1 WHERE id = $2`,
		time.Now().UTC().Add(-10*24*time.Hour), owner.ID)
	require.NoError(t, err)

	report, err = app.SweepOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Notified)
	assert.Equal(t, 1, report.GrantsReleased)

	ok, err := app.release.CanAccess(ctx, item.ID, trustee.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	// Second sweep is a no-op.
	report, err = app.SweepOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Notified)
	assert.Equal(t, 0, report.GrantsReleased)

	list, err := app.trustees.List(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].Notified)
}

func TestIntegration_ConflictCheck(t *testing.T) {
	app := setupPostgres(t)
	ctx := context.Background()

	owner, _, err := app.CreateOwner(ctx, "Ann", "ann@example.com", 30)
	require.NoError(t, err)

	asset, err := app.conflicts.CreateAsset(ctx, owner.ID, &models.Asset{
		Title: "Brokerage account",
		Designation: models.BeneficiaryDesignation{
			Primary: []models.Beneficiary{{Name: "Alice"}},
		},
	})
	require.NoError(t, err)

	res, err := app.conflicts.CheckAsset(ctx, owner.ID, asset.ID, []string{"Bob"})
	require.NoError(t, err)
	assert.Equal(t, models.ConflictStatusConflict, res.Status)
	require.Len(t, res.Records, 1)

	rec, err := app.conflicts.Resolve(ctx, owner.ID, res.Records[0].ID, "updated the will")
	require.NoError(t, err)
	assert.Equal(t, models.StatusResolved, rec.Status)

	summary, err := app.conflicts.Summary(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Unresolved)
}
