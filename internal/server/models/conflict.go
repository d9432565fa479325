package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Rank orders severities for sorting, higher is more severe.
func (s Severity) Rank() int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	}
	return 0
}

type ResolutionStatus string

const (
	StatusUnresolved ResolutionStatus = "unresolved"
	StatusInProgress ResolutionStatus = "in_progress"
	StatusResolved   ResolutionStatus = "resolved"
)

const ConflictTypeBeneficiaryMismatch = "beneficiary_mismatch"

// Recommendations is a string list stored as jsonb.
type Recommendations []string

func (r Recommendations) Value() (driver.Value, error) {
	if r == nil {
		r = Recommendations{}
	}
	return json.Marshal([]string(r))
}

func (r *Recommendations) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*r = nil
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("recommendations: unsupported type %T", src)
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return err
	}
	*r = out
	return nil
}

// ConflictRecord is a persisted finding of the conflict detector.
type ConflictRecord struct {
	ID              string
	OwnerID         string
	AssetID         *string
	ConflictType    string
	Description     string
	Severity        Severity
	Status          ResolutionStatus
	Recommendations Recommendations
	DetectedAt      time.Time
	ResolvedAt      *time.Time
	ResolutionNotes string
}
