package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/legacylink/internal/common"
)

// ConflictStatus is derived from the latest check and resolutions.
type ConflictStatus string

const (
	ConflictStatusUnchecked ConflictStatus = "unchecked"
	ConflictStatusNone      ConflictStatus = "no_conflict"
	ConflictStatusConflict  ConflictStatus = "conflict"
	ConflictStatusResolved  ConflictStatus = "resolved"
)

// Beneficiary is one named recipient, optionally with a percentage share.
type Beneficiary struct {
	Name  string   `json:"name"`
	Share *float64 `json:"share,omitempty"`
}

// BeneficiaryDesignation is stored as jsonb.
type BeneficiaryDesignation struct {
	Primary    []Beneficiary `json:"primary"`
	Contingent []Beneficiary `json:"contingent"`
}

// Validate rejects blank names and shares outside [0, 100].
func (d BeneficiaryDesignation) Validate() error {
	for _, group := range [][]Beneficiary{d.Primary, d.Contingent} {
		for _, b := range group {
			if strings.TrimSpace(b.Name) == "" {
				return fmt.Errorf("%w: beneficiary name is empty", common.ErrorValidation)
			}
			if b.Share != nil && (*b.Share < 0 || *b.Share > 100) {
				return fmt.Errorf("%w: share %v for %q out of range", common.ErrorValidation, *b.Share, b.Name)
			}
		}
	}
	return nil
}

// Names lists primary then contingent beneficiary names as declared.
func (d BeneficiaryDesignation) Names() []string {
	names := make([]string, 0, len(d.Primary)+len(d.Contingent))
	for _, b := range d.Primary {
		names = append(names, b.Name)
	}
	for _, b := range d.Contingent {
		names = append(names, b.Name)
	}
	return names
}

func (d BeneficiaryDesignation) Value() (driver.Value, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(d)
}

func (d *BeneficiaryDesignation) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*d = BeneficiaryDesignation{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("beneficiary designation: unsupported type %T", src)
	}
	var out BeneficiaryDesignation
	if err := json.Unmarshal(raw, &out); err != nil {
		return err
	}
	if err := out.Validate(); err != nil {
		return err
	}
	*d = out
	return nil
}

// Asset is an account or holding with its own beneficiary designation.
type Asset struct {
	ID              string
	OwnerID         string
	Title           string
	AssetType       string
	InstitutionName string
	Designation     BeneficiaryDesignation
	ConflictStatus  ConflictStatus
	LastReviewedAt  *time.Time
	CreatedAt       time.Time
}
