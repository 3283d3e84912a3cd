package treatmentplan

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists plans with their actions and amendment trail.
// Save must write the plan row, upsert its actions, and append the given
// amendments atomically.
type Repository interface {
	Create(ctx context.Context, p *Plan) error
	GetByID(ctx context.Context, id uuid.UUID) (*Plan, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Plan, int, error)
	Save(ctx context.Context, p *Plan, amendments ...*Amendment) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListAmendments(ctx context.Context, planID uuid.UUID) ([]*Amendment, error)
}
