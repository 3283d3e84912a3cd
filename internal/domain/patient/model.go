package patient

import (
	"time"

	"github.com/google/uuid"
)

// Patient maps to the patient table. Identity fields are immutable after
// admission; only the clinical-status flags change over a stay.
type Patient struct {
	ID                   uuid.UUID  `db:"id" json:"id"`
	MedicalRecordNumber  string     `db:"mrn" json:"mrn"`
	FirstName            string     `db:"first_name" json:"first_name"`
	LastName             string     `db:"last_name" json:"last_name"`
	BirthDate            time.Time  `db:"birth_date" json:"birth_date"`
	GestationalAgeWeeks  float64    `db:"gestational_age_weeks" json:"gestational_age_weeks"`
	BirthWeightGrams     float64    `db:"birth_weight_grams" json:"birth_weight_grams"`
	OnRespiratorySupport bool       `db:"on_respiratory_support" json:"on_respiratory_support"`
	OnOxygen             bool       `db:"on_oxygen" json:"on_oxygen"`
	RoomNumber           *string    `db:"room_number" json:"room_number,omitempty"`
	DischargedAt         *time.Time `db:"discharged_at" json:"discharged_at,omitempty"`
	CreatedAt            time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time  `db:"updated_at" json:"updated_at"`
}

// DaysOfLife returns whole days elapsed since birth as of the given moment.
// Day of birth counts as day 0.
func (p *Patient) DaysOfLife(at time.Time) int {
	if at.Before(p.BirthDate) {
		return 0
	}
	return int(at.Sub(p.BirthDate).Hours() / 24)
}

// ClinicalStatusUpdate carries the mutable support flags.
type ClinicalStatusUpdate struct {
	OnRespiratorySupport *bool   `json:"on_respiratory_support,omitempty"`
	OnOxygen             *bool   `json:"on_oxygen,omitempty"`
	RoomNumber           *string `json:"room_number,omitempty"`
}
