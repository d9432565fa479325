package grpc

import (
	"context"
	"time"

	"github.com/dmitrijs2005/legacylink/internal/common"
	"github.com/dmitrijs2005/legacylink/internal/server/legacy"
	"github.com/dmitrijs2005/legacylink/internal/server/models"
	"github.com/dmitrijs2005/legacylink/internal/server/services"
)

type fakeOwners struct {
	OwnerService
	checkIns []string
	checkErr error
	days     int
}

func (f *fakeOwners) CheckIn(ctx context.Context, ownerID string) error {
	if f.checkErr != nil {
		return f.checkErr
	}
	f.checkIns = append(f.checkIns, ownerID)
	return nil
}

func (f *fakeOwners) Status(ctx context.Context, ownerID string) (*services.OwnerStatus, error) {
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return &services.OwnerStatus{
		Owner:    &models.Owner{ID: ownerID, LastCheckIn: at, CheckInFrequencyDays: 30},
		Activity: legacy.Active,
		Deadline: at.Add(31 * 24 * time.Hour),
	}, nil
}

func (f *fakeOwners) SetCheckInFrequency(ctx context.Context, ownerID string, days int) error {
	if days <= 0 {
		return common.ErrorValidation
	}
	f.days = days
	return nil
}

type fakeTrustees struct {
	TrusteeService
	added    *models.Trustee
	verified string
	update   *services.TrusteeUpdate
}

func (f *fakeTrustees) Add(ctx context.Context, ownerID string, in *models.Trustee) (*models.Trustee, error) {
	t := *in
	t.ID, t.OwnerID = "t1", ownerID
	t.VerificationStatus = models.VerificationPending
	f.added = &t
	return &t, nil
}

func (f *fakeTrustees) RequestVerification(ctx context.Context, ownerID, trusteeID string) (string, error) {
	if trusteeID != "t1" {
		return "", common.ErrorNotFound
	}
	return "secret-code", nil
}

func (f *fakeTrustees) Verify(ctx context.Context, trusteeID, code string) error {
	if code != "secret-code" {
		return common.ErrorUnauthorized
	}
	f.verified = trusteeID
	return nil
}

func (f *fakeTrustees) Update(ctx context.Context, ownerID, trusteeID string, u services.TrusteeUpdate) (*models.Trustee, error) {
	if trusteeID != "t1" {
		return nil, common.ErrorNotFound
	}
	f.update = &u
	t := &models.Trustee{ID: trusteeID, OwnerID: ownerID, Name: "Bob", Email: "bob@example.com",
		AccessLevel: models.AccessLevelAll, NotificationTrigger: models.NotifyOnInactivity,
		VerificationStatus: models.VerificationVerified}
	if u.NotificationTrigger != nil {
		t.NotificationTrigger = *u.NotificationTrigger
	}
	t.TriggerDate = u.TriggerDate
	if t.NotificationTrigger == models.NotifyOnDate && t.TriggerDate == nil {
		return nil, common.ErrorValidation
	}
	return t, nil
}

func (f *fakeTrustees) Decline(ctx context.Context, trusteeID, code string) error {
	return common.ErrInvalidState
}

type fakeRelease struct {
	ReleaseService
	access map[string]bool
}

func (f *fakeRelease) CanAccess(ctx context.Context, itemID, trusteeID string) (bool, error) {
	ok, known := f.access[itemID]
	if !known {
		return false, common.ErrorNotFound
	}
	return ok, nil
}

func (f *fakeRelease) DownloadURL(ctx context.Context, itemID, trusteeID string) (string, error) {
	if !f.access[itemID] {
		return "", common.ErrorForbidden
	}
	return "http://signed/" + itemID, nil
}

func (f *fakeRelease) AddGrant(ctx context.Context, ownerID string, in *models.AccessGrant) (*models.AccessGrant, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	g := *in
	return &g, nil
}

type fakeConflicts struct {
	ConflictService
	will        []string
	designation models.BeneficiaryDesignation
}

func (f *fakeConflicts) CreateAsset(ctx context.Context, ownerID string, in *models.Asset) (*models.Asset, error) {
	a := *in
	a.ID, a.OwnerID, a.ConflictStatus = "a1", ownerID, models.ConflictStatusUnchecked
	f.designation = in.Designation
	return &a, nil
}

func (f *fakeConflicts) CheckAsset(ctx context.Context, ownerID, assetID string, will []string) (*services.CheckResult, error) {
	f.will = will
	aid := assetID
	return &services.CheckResult{
		Status: models.ConflictStatusConflict,
		Records: []*models.ConflictRecord{{
			ID: "c1", OwnerID: ownerID, AssetID: &aid,
			ConflictType:    models.ConflictTypeBeneficiaryMismatch,
			Severity:        models.SeverityMedium,
			Status:          models.StatusUnresolved,
			Recommendations: models.Recommendations(legacy.StandardRecommendations),
			DetectedAt:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		}},
	}, nil
}

func (f *fakeConflicts) Summary(ctx context.Context, ownerID string) (legacy.Summary, error) {
	return legacy.Summary{Total: 2, Unresolved: 1, High: 1, Recent: 2, ByType: map[string]int{"beneficiary_mismatch": 2}}, nil
}
