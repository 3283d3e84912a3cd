package lab

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	values Repository
}

func NewService(values Repository) *Service {
	return &Service{values: values}
}

func (s *Service) Create(ctx context.Context, v *Value) error {
	if v.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if v.TypeID == "" {
		return fmt.Errorf("type_id is required")
	}
	if v.Unit == "" {
		return fmt.Errorf("unit is required")
	}
	if v.OccurredAt.IsZero() {
		v.OccurredAt = time.Now().UTC()
	}
	if v.RefLow != nil && v.RefHigh != nil && *v.RefLow > *v.RefHigh {
		return fmt.Errorf("ref_low must not exceed ref_high")
	}
	return s.values.Create(ctx, v)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Value, error) {
	return s.values.GetByID(ctx, id)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Value, int, error) {
	return s.values.ListByPatient(ctx, patientID, limit, offset)
}

// LatestByType returns the newest measurement of one lab type, or nil when
// the patient has none. Repository I/O failures propagate untouched.
func (s *Service) LatestByType(ctx context.Context, patientID uuid.UUID, typeID string) (*Value, error) {
	return s.values.LatestByType(ctx, patientID, typeID)
}

// FullHistory returns every value for the patient, oldest first.
func (s *Service) FullHistory(ctx context.Context, patientID uuid.UUID) ([]*Value, error) {
	return s.values.ListAllByPatient(ctx, patientID)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.values.Delete(ctx, id)
}
