// Package models defines server-side data models persisted in the database.
package models

import "time"

// DefaultCheckInFrequencyDays is applied when an owner is created without
// an explicit check-in window.
const DefaultCheckInFrequencyDays = 30

// Owner is the person whose items are protected.
type Owner struct {
	ID    string
	Name  string
	Email string
	// LastCheckIn is refreshed on explicit check-in or successful
	// authentication. It never moves backward.
	LastCheckIn          time.Time
	CheckInFrequencyDays int
	CreatedAt            time.Time
}
