package transfusion

import (
	"time"

	"github.com/google/uuid"

	"github.com/mila-health/mila/pkg/i18n"
)

// ProductType identifies the blood product given.
type ProductType string

const (
	ProductRBC      ProductType = "rbc"
	ProductPlatelet ProductType = "platelet"
	ProductPlasma   ProductType = "plasma"
	ProductOther    ProductType = "other"
)

var validProducts = map[ProductType]bool{
	ProductRBC: true, ProductPlatelet: true, ProductPlasma: true, ProductOther: true,
}

// Severity grades a computed clinical warning.
type Severity string

const (
	SeverityOK       Severity = "ok"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// rank orders severities so comparisons read naturally.
func (s Severity) rank() int {
	switch s {
	case SeverityCritical:
		return 2
	case SeverityWarning:
		return 1
	default:
		return 0
	}
}

// AtLeast reports whether s is as severe as other.
func (s Severity) AtLeast(other Severity) bool { return s.rank() >= other.rank() }

// Transfusion maps to the transfusion table.
type Transfusion struct {
	ID              uuid.UUID   `db:"id" json:"id"`
	PatientID       uuid.UUID   `db:"patient_id" json:"patient_id"`
	OccurredAt      time.Time   `db:"occurred_at" json:"occurred_at"`
	Product         ProductType `db:"product" json:"product"`
	VolumeML        float64     `db:"volume_ml" json:"volume_ml"`
	DonorID         string      `db:"donor_id" json:"donor_id"`
	Emergency       bool        `db:"emergency" json:"emergency"`
	ConsentObtained bool        `db:"consent_obtained" json:"consent_obtained"`
	ConsentAt       *time.Time  `db:"consent_at" json:"consent_at,omitempty"`
	Justification   *string     `db:"justification" json:"justification,omitempty"`
	CreatedAt       time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time   `db:"updated_at" json:"updated_at"`
}

// Stats aggregates a patient's transfusion history.
type Stats struct {
	TotalCount   int                     `json:"total_count"`
	TotalVolume  float64                 `json:"total_volume_ml"`
	VolumeByType map[ProductType]float64 `json:"volume_by_type"`
	CountByType  map[ProductType]int     `json:"count_by_type"`
	UniqueDonors int                     `json:"unique_donors"`
}

// Justification is the computed answer to "is this transfusion indicated
// right now?". Recomputed on every input change, never stored.
type Justification struct {
	Severity       Severity  `json:"severity"`
	Message        i18n.Text `json:"message"`
	ThresholdBasis string    `json:"threshold_basis,omitempty"`
	Threshold      *float64  `json:"threshold,omitempty"`
}

// ExposureStatus reports cumulative volume exposure for one product type.
type ExposureStatus struct {
	Status           Severity  `json:"status"`
	MLPerKg          float64   `json:"ml_per_kg"`
	PercentOfWarning float64   `json:"percent_of_warning"`
	Message          i18n.Text `json:"message"`
}

// DonorStatus reports distinct-donor exposure.
type DonorStatus struct {
	Status       Severity  `json:"status"`
	UniqueDonors int       `json:"unique_donors"`
	Message      i18n.Text `json:"message"`
}

// ExcessSeverity classifies actual RBC transfusion count against the
// gestational-age-expected range.
type ExcessSeverity string

const (
	ExcessNone     ExcessSeverity = "none"
	ExcessHigh     ExcessSeverity = "high"
	ExcessVeryHigh ExcessSeverity = "very_high"
)

// HemolysisRisk grades the weighted hemolysis-marker check.
type HemolysisRisk string

const (
	HemolysisLow      HemolysisRisk = "low"
	HemolysisModerate HemolysisRisk = "moderate"
	HemolysisHigh     HemolysisRisk = "high"
)

// ExpectedRange is the expected RBC transfusion count for a gestational age.
type ExpectedRange struct {
	Low     int `json:"low"`
	Average int `json:"average"`
	High    int `json:"high"`
}

// Analysis is the full history-level risk assessment for one patient.
type Analysis struct {
	RBCCount             int            `json:"rbc_count"`
	Expected             ExpectedRange  `json:"expected_range"`
	ExcessSeverity       ExcessSeverity `json:"excess_severity"`
	IsAboveAverage       bool           `json:"is_above_average"`
	InvestigateRootCause bool           `json:"investigate_root_cause"`
	Recommendations      []i18n.Text    `json:"recommendations"`
	PossibleCauses       []i18n.Text    `json:"possible_causes"`
	HemolysisRisk        HemolysisRisk  `json:"hemolysis_risk"`
	HemolysisIndicators  []i18n.Text    `json:"hemolysis_indicators"`
}
