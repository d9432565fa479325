package legacy

import (
	"strings"
	"time"

	"github.com/dmitrijs2005/legacylink/internal/server/models"
)

// Finding is one detected discrepancy between an asset and the will.
type Finding struct {
	Type               string
	Message            string
	AssetBeneficiaries []string
	WillBeneficiaries  []string
	Missing            []string
}

// StandardRecommendations go with every beneficiary mismatch record.
var StandardRecommendations = []string{
	"Review and update beneficiary designations",
	"Consult with estate planning attorney",
	"Update will to match beneficiary designations",
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Detect compares the asset's declared beneficiaries with the reference list.
// Names are compared trimmed and case-insensitively but reported trimmed in
// the spelling they were given. The check is one-sided: names in the will but
// not on the asset are not reported.
func Detect(asset *models.Asset, reference []string) []Finding {
	declared := make([]string, 0)
	for _, n := range asset.Designation.Names() {
		if v := strings.TrimSpace(n); v != "" {
			declared = append(declared, v)
		}
	}
	if len(declared) == 0 {
		return nil
	}

	will := make([]string, 0, len(reference))
	inWill := make(map[string]struct{}, len(reference))
	for _, n := range reference {
		will = append(will, strings.TrimSpace(n))
		inWill[normalize(n)] = struct{}{}
	}

	var missing []string
	seen := make(map[string]struct{})
	for _, n := range declared {
		key := normalize(n)
		if _, ok := inWill[key]; ok {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		missing = append(missing, n)
	}
	if len(missing) == 0 {
		return nil
	}

	return []Finding{{
		Type:               models.ConflictTypeBeneficiaryMismatch,
		Message:            "Asset beneficiaries do not match will beneficiaries",
		AssetBeneficiaries: declared,
		WillBeneficiaries:  will,
		Missing:            missing,
	}}
}

// DeriveConflictStatus is the single place the asset status follows from a check.
func DeriveConflictStatus(findings []Finding) models.ConflictStatus {
	if len(findings) > 0 {
		return models.ConflictStatusConflict
	}
	return models.ConflictStatusNone
}

// StatusAfterResolution derives the asset status once a record was resolved.
func StatusAfterResolution(current models.ConflictStatus, openRecords int) models.ConflictStatus {
	if openRecords == 0 && current == models.ConflictStatusConflict {
		return models.ConflictStatusResolved
	}
	return current
}

// RecentWindow bounds the "recent" bucket of a Summary.
const RecentWindow = 30 * day

// Summary aggregates an owner's conflict records.
type Summary struct {
	Total      int
	Unresolved int
	High       int
	ByType     map[string]int
	Recent     int
}

func Summarize(records []*models.ConflictRecord, now time.Time) Summary {
	s := Summary{ByType: map[string]int{}}
	cutoff := now.Add(-RecentWindow)
	for _, r := range records {
		s.Total++
		if r.Status == models.StatusUnresolved {
			s.Unresolved++
		}
		if r.Severity == models.SeverityHigh {
			s.High++
		}
		s.ByType[r.ConflictType]++
		if r.DetectedAt.After(cutoff) {
			s.Recent++
		}
	}
	return s
}
