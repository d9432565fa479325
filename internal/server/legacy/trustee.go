package legacy

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/legacylink/internal/common"
	"github.com/dmitrijs2005/legacylink/internal/server/models"
)

// MessageKind names the message a trustee receives.
type MessageKind string

const (
	MessageInactivity   MessageKind = "inactivity"
	MessageTriggerDate  MessageKind = "trigger_date"
	MessageManual       MessageKind = "manual"
	MessageVerification MessageKind = "verification_request"
)

// ShouldNotify decides whether the sweep must notify the trustee now and with
// which message. Already notified trustees are never picked, and manual
// trustees only get notified by an explicit owner action.
//
// A declined trustee refused the role and is never notified automatically,
// whatever the trigger says. The owner can still reach them through an
// explicit manual notify.
func ShouldNotify(t *models.Trustee, activity Activity, now time.Time) (MessageKind, bool) {
	if t.Notified || t.VerificationStatus == models.VerificationDeclined {
		return "", false
	}
	switch t.NotificationTrigger {
	case models.NotifyOnInactivity:
		if activity == Overdue {
			return MessageInactivity, true
		}
	case models.NotifyOnDate:
		if t.TriggerDate != nil && !now.Before(*t.TriggerDate) {
			return MessageTriggerDate, true
		}
	}
	return "", false
}

// MarkNotified sets the sticky notified flag after a successful send.
func MarkNotified(t *models.Trustee, now time.Time) {
	if t.Notified {
		return
	}
	t.Notified = true
	at := now
	t.NotifiedAt = &at
}

// Verify moves a pending trustee to verified.
func Verify(t *models.Trustee) error {
	return transition(t, models.VerificationVerified)
}

// Decline moves a pending trustee to declined.
func Decline(t *models.Trustee) error {
	return transition(t, models.VerificationDeclined)
}

func transition(t *models.Trustee, to models.VerificationStatus) error {
	if t.VerificationStatus != models.VerificationPending {
		return fmt.Errorf("%w: trustee is %s", common.ErrInvalidState, t.VerificationStatus)
	}
	t.VerificationStatus = to
	t.VerificationHash = nil
	t.VerificationSalt = nil
	return nil
}
