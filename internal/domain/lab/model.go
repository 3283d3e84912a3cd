package lab

import (
	"time"

	"github.com/google/uuid"
)

// Known lab type ids used by the transfusion engines. Free entry of other
// type ids is allowed; these are the ones the decision rules look for.
const (
	TypeHemoglobin    = "hgb"
	TypePlatelets     = "plt"
	TypeINR           = "inr"
	TypeLDH           = "ldh"
	TypeHaptoglobin   = "hapto"
	TypeReticulocytes = "retic"
	TypeBilirubin     = "bili"
)

// Value maps to the lab_value table. One row per measurement; a patient's
// rows for one type form a time series ordered by occurred_at.
type Value struct {
	ID         uuid.UUID `db:"id" json:"id"`
	PatientID  uuid.UUID `db:"patient_id" json:"patient_id"`
	TypeID     string    `db:"type_id" json:"type_id"`
	OccurredAt time.Time `db:"occurred_at" json:"occurred_at"`
	Value      float64   `db:"value" json:"value"`
	Unit       string    `db:"unit" json:"unit"`
	RefLow     *float64  `db:"ref_low" json:"ref_low,omitempty"`
	RefHigh    *float64  `db:"ref_high" json:"ref_high,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Latest returns the most recent value for a type from an unordered slice,
// or nil when none is present.
func Latest(values []*Value, typeID string) *Value {
	var latest *Value
	for _, v := range values {
		if v.TypeID != typeID {
			continue
		}
		if latest == nil || v.OccurredAt.After(latest.OccurredAt) {
			latest = v
		}
	}
	return latest
}

// History returns all values for a type sorted oldest first.
func History(values []*Value, typeID string) []*Value {
	var out []*Value
	for _, v := range values {
		if v.TypeID == typeID {
			out = append(out, v)
		}
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].OccurredAt.Before(out[j-1].OccurredAt); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}
