package legacy

import (
	"time"

	"github.com/dmitrijs2005/legacylink/internal/server/models"
)

// Activity is the owner's liveness as seen by the evaluator.
type Activity int

const (
	Active Activity = iota
	Overdue
)

func (a Activity) String() string {
	if a == Overdue {
		return "overdue"
	}
	return "active"
}

const day = 24 * time.Hour

// EvaluateActivity reports Overdue iff the number of whole days since the
// last check-in is strictly greater than the owner's check-in frequency.
func EvaluateActivity(owner *models.Owner, now time.Time) Activity {
	elapsed := now.Sub(owner.LastCheckIn)
	if elapsed < 0 {
		return Active
	}
	if int64(elapsed/day) > int64(owner.CheckInFrequencyDays) {
		return Overdue
	}
	return Active
}
