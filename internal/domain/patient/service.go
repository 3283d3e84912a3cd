package patient

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	patients Repository
}

func NewService(patients Repository) *Service {
	return &Service{patients: patients}
}

func (s *Service) Create(ctx context.Context, p *Patient) error {
	if p.MedicalRecordNumber == "" {
		return fmt.Errorf("mrn is required")
	}
	if p.LastName == "" {
		return fmt.Errorf("last_name is required")
	}
	if p.BirthDate.IsZero() {
		return fmt.Errorf("birth_date is required")
	}
	if p.BirthDate.After(time.Now()) {
		return fmt.Errorf("birth_date cannot be in the future")
	}
	if p.GestationalAgeWeeks < 20 || p.GestationalAgeWeeks > 44 {
		return fmt.Errorf("gestational_age_weeks must be between 20 and 44, got %.1f", p.GestationalAgeWeeks)
	}
	if p.BirthWeightGrams <= 0 {
		return fmt.Errorf("birth_weight_grams must be positive")
	}
	return s.patients.Create(ctx, p)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.patients.GetByID(ctx, id)
}

func (s *Service) GetByMRN(ctx context.Context, mrn string) (*Patient, error) {
	return s.patients.GetByMRN(ctx, mrn)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	return s.patients.List(ctx, limit, offset)
}

// UpdateClinicalStatus applies the mutable support flags. Identity fields are
// never touched here.
func (s *Service) UpdateClinicalStatus(ctx context.Context, id uuid.UUID, upd ClinicalStatusUpdate) (*Patient, error) {
	p, err := s.patients.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if upd.OnRespiratorySupport != nil {
		p.OnRespiratorySupport = *upd.OnRespiratorySupport
	}
	if upd.OnOxygen != nil {
		p.OnOxygen = *upd.OnOxygen
	}
	if upd.RoomNumber != nil {
		p.RoomNumber = upd.RoomNumber
	}
	if err := s.patients.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Discharge marks the patient as discharged at the given time.
func (s *Service) Discharge(ctx context.Context, id uuid.UUID, at time.Time) (*Patient, error) {
	p, err := s.patients.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.DischargedAt != nil {
		return nil, fmt.Errorf("patient already discharged")
	}
	p.DischargedAt = &at
	if err := s.patients.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}
