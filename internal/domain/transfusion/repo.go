package transfusion

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists transfusion records.
type Repository interface {
	Create(ctx context.Context, t *Transfusion) error
	GetByID(ctx context.Context, id uuid.UUID) (*Transfusion, error)
	Update(ctx context.Context, t *Transfusion) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Transfusion, int, error)
	ListAllByPatient(ctx context.Context, patientID uuid.UUID) ([]*Transfusion, error)
	Stats(ctx context.Context, patientID uuid.UUID) (*Stats, error)
}
