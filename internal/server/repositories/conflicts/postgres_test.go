package conflicts

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/legacylink/internal/common"
	"github.com/dmitrijs2005/legacylink/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

var (
	ts   = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	cols = []string{"id", "owner_id", "asset_id", "conflict_type", "description", "severity", "status",
		"recommendations", "detected_at", "resolved_at", "resolution_notes"}
)

func TestCreate(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	assetID := "a-1"
	rec := &models.ConflictRecord{
		ID: "c-1", OwnerID: "o-1", AssetID: &assetID, ConflictType: models.ConflictTypeBeneficiaryMismatch,
		Description: "mismatch", Severity: models.SeverityMedium, Status: models.StatusUnresolved,
		Recommendations: models.Recommendations{"a", "b"}, DetectedAt: ts,
	}
	mock.ExpectExec(`(?s)^INSERT\s+INTO\s+conflict_records`).
		WithArgs("c-1", "o-1", "a-1", "beneficiary_mismatch", "mismatch", models.SeverityMedium,
			models.StatusUnresolved, []byte(`["a","b"]`), ts, nil, "").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), rec))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByID(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)FROM\s+conflict_records\s+WHERE\s+id\s*=\s*\$1$`).
		WithArgs("c-1").
		WillReturnRows(sqlmock.NewRows(cols).AddRow("c-1", "o-1", nil, "beneficiary_mismatch", "d",
			"high", "in_progress", []byte(`["x"]`), ts, nil, ""))

	got, err := repo.GetByID(context.Background(), "c-1")
	require.NoError(t, err)
	assert.Nil(t, got.AssetID)
	assert.Equal(t, models.SeverityHigh, got.Severity)
	assert.Equal(t, models.StatusInProgress, got.Status)
	assert.Equal(t, models.Recommendations{"x"}, got.Recommendations)

	mock.ExpectQuery(`FROM\s+conflict_records`).WithArgs("ghost").WillReturnError(sql.ErrNoRows)
	_, err = repo.GetByID(context.Background(), "ghost")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestListByOwner_OrderAndFilter(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)WHERE\s+owner_id\s*=\s*\$1\s+ORDER\s+BY\s+CASE\s+severity.*DESC,\s*detected_at\s+DESC$`).
		WithArgs("o-1").
		WillReturnRows(sqlmock.NewRows(cols))
	_, err := repo.ListByOwner(context.Background(), "o-1", false)
	require.NoError(t, err)

	mock.ExpectQuery(`(?s)WHERE\s+owner_id\s*=\s*\$1\s+AND\s+status\s*<>\s*'resolved'\s+ORDER\s+BY`).
		WithArgs("o-1").
		WillReturnRows(sqlmock.NewRows(cols).AddRow("c-1", "o-1", "a-1", "beneficiary_mismatch", "d",
			"medium", "unresolved", []byte(`[]`), ts, nil, ""))
	got, err := repo.ListByOwner(context.Background(), "o-1", true)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.NotNil(t, got[0].AssetID)
	assert.Equal(t, "a-1", *got[0].AssetID)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSave(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rec := &models.ConflictRecord{ID: "c-1", Status: models.StatusResolved, ResolvedAt: &ts, ResolutionNotes: "updated will"}
	mock.ExpectExec(`(?s)^UPDATE\s+conflict_records\s+SET\s+status\s*=\s*\$2`).
		WithArgs("c-1", models.StatusResolved, ts, "updated will").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Save(context.Background(), rec))

	mock.ExpectExec(`UPDATE\s+conflict_records`).WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.Save(context.Background(), rec), common.ErrorNotFound)
}

func TestCountOpenByAsset(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^SELECT\s+COUNT\(\*\)\s+FROM\s+conflict_records\s+WHERE\s+asset_id\s*=\s*\$1`).
		WithArgs("a-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	n, err := repo.CountOpenByAsset(context.Background(), "a-1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	mock.ExpectQuery(`COUNT`).WithArgs("a-1").WillReturnError(errors.New("down"))
	_, err = repo.CountOpenByAsset(context.Background(), "a-1")
	assert.ErrorContains(t, err, "db error")
}
