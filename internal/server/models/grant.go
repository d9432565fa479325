package models

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/legacylink/internal/common"
)

// AccessTrigger decides when a grant unlocks.
type AccessTrigger string

const (
	AccessImmediate    AccessTrigger = "immediate"
	AccessOnInactivity AccessTrigger = "inactivity"
	AccessOnDate       AccessTrigger = "date"
	AccessManual       AccessTrigger = "manual"
)

func (t AccessTrigger) Valid() bool {
	switch t {
	case AccessImmediate, AccessOnInactivity, AccessOnDate, AccessManual:
		return true
	}
	return false
}

// GrantKey identifies an AccessGrant.
type GrantKey struct {
	ItemID    string
	TrusteeID string
}

// AccessGrant links one item to one trustee.
type AccessGrant struct {
	ItemID        string
	TrusteeID     string
	AccessTrigger AccessTrigger
	TriggerDate   *time.Time

	// AccessGranted is sticky under evaluation; only Revoke clears it.
	AccessGranted     bool
	AccessGrantedDate *time.Time
	RevokedAt         *time.Time
}

func (g *AccessGrant) Key() GrantKey {
	return GrantKey{ItemID: g.ItemID, TrusteeID: g.TrusteeID}
}

func (g *AccessGrant) Validate() error {
	if g.ItemID == "" || g.TrusteeID == "" {
		return fmt.Errorf("%w: grant needs item and trustee", common.ErrorValidation)
	}
	if !g.AccessTrigger.Valid() {
		return fmt.Errorf("%w: unknown access trigger %q", common.ErrorValidation, g.AccessTrigger)
	}
	if (g.AccessTrigger == AccessOnDate) != (g.TriggerDate != nil) {
		return fmt.Errorf("%w: trigger date is required iff access trigger is date", common.ErrorValidation)
	}
	return nil
}
