package models

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/legacylink/internal/common"
)

type AccessLevel string

const (
	AccessLevelAll       AccessLevel = "all"
	AccessLevelDocuments AccessLevel = "documents"
	AccessLevelMessages  AccessLevel = "messages"
	AccessLevelPhotos    AccessLevel = "photos"
	AccessLevelCustom    AccessLevel = "custom"
)

func (l AccessLevel) Valid() bool {
	switch l {
	case AccessLevelAll, AccessLevelDocuments, AccessLevelMessages, AccessLevelPhotos, AccessLevelCustom:
		return true
	}
	return false
}

// NotificationTrigger decides when a trustee is told about the owner's legacy.
type NotificationTrigger string

const (
	NotifyOnInactivity NotificationTrigger = "inactivity"
	NotifyManually     NotificationTrigger = "manual"
	NotifyOnDate       NotificationTrigger = "date"
)

func (t NotificationTrigger) Valid() bool {
	switch t {
	case NotifyOnInactivity, NotifyManually, NotifyOnDate:
		return true
	}
	return false
}

type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationVerified VerificationStatus = "verified"
	VerificationDeclined VerificationStatus = "declined"
)

func (s VerificationStatus) Valid() bool {
	switch s {
	case VerificationPending, VerificationVerified, VerificationDeclined:
		return true
	}
	return false
}

// Trustee is a person designated by an owner to receive access.
type Trustee struct {
	ID           string
	OwnerID      string
	Name         string
	Email        string
	Relationship string
	Phone        string

	AccessLevel         AccessLevel
	NotificationTrigger NotificationTrigger
	TriggerDate         *time.Time

	VerificationStatus VerificationStatus
	VerificationHash   []byte
	VerificationSalt   []byte

	// Notified is sticky: once true it stays true.
	Notified   bool
	NotifiedAt *time.Time
	CreatedAt  time.Time
}

// Validate checks enum membership and the trigger date requirement.
func (t *Trustee) Validate() error {
	if t.Name == "" || t.Email == "" {
		return fmt.Errorf("%w: trustee name and email are required", common.ErrorValidation)
	}
	if !t.AccessLevel.Valid() {
		return fmt.Errorf("%w: unknown access level %q", common.ErrorValidation, t.AccessLevel)
	}
	if !t.NotificationTrigger.Valid() {
		return fmt.Errorf("%w: unknown notification trigger %q", common.ErrorValidation, t.NotificationTrigger)
	}
	if !t.VerificationStatus.Valid() {
		return fmt.Errorf("%w: unknown verification status %q", common.ErrorValidation, t.VerificationStatus)
	}
	if (t.NotificationTrigger == NotifyOnDate) != (t.TriggerDate != nil) {
		return fmt.Errorf("%w: trigger date is required iff notification trigger is date", common.ErrorValidation)
	}
	return nil
}
