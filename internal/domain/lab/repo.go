package lab

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, v *Value) error
	GetByID(ctx context.Context, id uuid.UUID) (*Value, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Value, int, error)
	ListAllByPatient(ctx context.Context, patientID uuid.UUID) ([]*Value, error)
	LatestByType(ctx context.Context, patientID uuid.UUID, typeID string) (*Value, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
