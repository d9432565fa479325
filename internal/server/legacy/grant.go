package legacy

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/legacylink/internal/server/models"
)

// EvaluateGrant applies the grant's trigger at time now and returns the
// resulting grant plus whether it changed. The input is not modified.
//
// Granted grants stay granted. A revoked grant is never released again by
// evaluation, even when its trigger fires later: revocation is the owner's
// decision and only an explicit ManualRelease lifts it.
func EvaluateGrant(g *models.AccessGrant, activity Activity, now time.Time) (*models.AccessGrant, bool) {
	out := *g
	changed := false
	if !g.AccessGranted && g.RevokedAt == nil && fires(g, activity, now) {
		Grant(&out, now)
		changed = true
	}
	assertSticky(g, &out)
	return &out, changed
}

func fires(g *models.AccessGrant, activity Activity, now time.Time) bool {
	switch g.AccessTrigger {
	case models.AccessImmediate:
		return true
	case models.AccessOnInactivity:
		return activity == Overdue
	case models.AccessOnDate:
		return g.TriggerDate != nil && !now.Before(*g.TriggerDate)
	}
	return false
}

// Grant sets access on and stamps the grant date.
func Grant(g *models.AccessGrant, now time.Time) {
	at := now
	g.AccessGranted = true
	g.AccessGrantedDate = &at
	g.RevokedAt = nil
}

// Revoke switches access off. This is an owner action and never happens
// during evaluation.
func Revoke(g *models.AccessGrant, now time.Time) {
	at := now
	g.AccessGranted = false
	g.RevokedAt = &at
}

func assertSticky(before, after *models.AccessGrant) {
	if before.AccessGranted && !after.AccessGranted {
		panic(fmt.Sprintf("access grant %s/%s reset by evaluation", before.ItemID, before.TrusteeID))
	}
}

// CheckUniqueKeys panics when the same (item, trustee) key appears twice.
func CheckUniqueKeys(grants []*models.AccessGrant) {
	seen := make(map[models.GrantKey]struct{}, len(grants))
	for _, g := range grants {
		k := g.Key()
		if _, dup := seen[k]; dup {
			panic(fmt.Sprintf("duplicate access grant %s/%s", k.ItemID, k.TrusteeID))
		}
		seen[k] = struct{}{}
	}
}
