package models

import "time"

// ProtectedItem is something an owner stores for later disclosure.
type ProtectedItem struct {
	ID       string
	OwnerID  string
	Title    string
	Type     string
	IsPublic bool
	// StorageKey is the object-storage key of the attachment, empty if none.
	StorageKey string
	CreatedAt  time.Time
}
