package treatmentplan

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mila-health/mila/internal/domain/patient"
	"github.com/mila-health/mila/pkg/i18n"
)

// Service serializes all mutation of a given plan behind a per-plan lock,
// so concurrent amendments cannot interleave their read-modify-write
// cycles. Reads take no lock.
type Service struct {
	plans    Repository
	patients patient.Repository

	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func NewService(plans Repository, patients patient.Repository) *Service {
	return &Service{
		plans:    plans,
		patients: patients,
		locks:    map[uuid.UUID]*sync.Mutex{},
	}
}

func (s *Service) lock(planID uuid.UUID) func() {
	s.mu.Lock()
	l, ok := s.locks[planID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[planID] = l
	}
	s.mu.Unlock()
	l.Lock()
	return l.Unlock
}

// CreatePlan is the creation payload. Initial actions carry no amendment:
// the trail records changes to the plan, not its birth.
type CreatePlan struct {
	PatientID uuid.UUID      `json:"patient_id"`
	Category  Category       `json:"category"`
	Title     i18n.Text      `json:"title"`
	Note      i18n.Text      `json:"note"`
	Actions   []CreateAction `json:"actions,omitempty"`
}

type CreateAction struct {
	Title  i18n.Text `json:"title"`
	Detail i18n.Text `json:"detail"`
	Dosage *string   `json:"dosage,omitempty"`
}

func (s *Service) Create(ctx context.Context, req CreatePlan, actor string) (*Plan, error) {
	if req.PatientID == uuid.Nil {
		return nil, fmt.Errorf("patient_id is required")
	}
	if !validCategories[req.Category] {
		return nil, fmt.Errorf("invalid category %q", req.Category)
	}
	if req.Title.IsZero() {
		return nil, fmt.Errorf("title is required")
	}
	if _, err := s.patients.GetByID(ctx, req.PatientID); err != nil {
		return nil, fmt.Errorf("patient lookup: %w", err)
	}

	now := time.Now().UTC()
	p := &Plan{
		ID:        uuid.New(),
		PatientID: req.PatientID,
		Category:  req.Category,
		Title:     req.Title,
		Note:      req.Note,
		Status:    StatusActive,
		CreatedBy: actor,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, ar := range req.Actions {
		if ar.Title.IsZero() {
			return nil, fmt.Errorf("action title is required")
		}
		p.Actions = append(p.Actions, &Action{
			ID:      uuid.New(),
			PlanID:  p.ID,
			Title:   ar.Title,
			Detail:  ar.Detail,
			Dosage:  ar.Dosage,
			AddedAt: now,
		})
	}
	if err := s.plans.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Plan, error) {
	return s.plans.GetByID(ctx, id)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Plan, int, error) {
	return s.plans.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) Amendments(ctx context.Context, planID uuid.UUID) ([]*Amendment, error) {
	return s.plans.ListAmendments(ctx, planID)
}

// mutate loads the plan under its lock, applies fn, and persists the plan
// together with whatever amendment fn produced.
func (s *Service) mutate(ctx context.Context, planID uuid.UUID, fn func(p *Plan) (*Amendment, error)) (*Plan, error) {
	unlock := s.lock(planID)
	defer unlock()

	p, err := s.plans.GetByID(ctx, planID)
	if err != nil {
		return nil, err
	}
	am, err := fn(p)
	if err != nil {
		return nil, err
	}
	if err := s.plans.Save(ctx, p, am); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) AddAction(ctx context.Context, planID uuid.UUID, req CreateAction, actor string, note i18n.Text) (*Plan, error) {
	if req.Title.IsZero() {
		return nil, fmt.Errorf("action title is required")
	}
	return s.mutate(ctx, planID, func(p *Plan) (*Amendment, error) {
		a := &Action{Title: req.Title, Detail: req.Detail, Dosage: req.Dosage}
		return p.AddAction(a, actor, note, time.Now().UTC())
	})
}

func (s *Service) RemoveAction(ctx context.Context, planID, actionID uuid.UUID, actor string, reason i18n.Text) (*Plan, error) {
	return s.mutate(ctx, planID, func(p *Plan) (*Amendment, error) {
		return p.RemoveAction(actionID, actor, reason, time.Now().UTC())
	})
}

func (s *Service) CompleteAction(ctx context.Context, planID, actionID uuid.UUID, actor string, note i18n.Text) (*Plan, error) {
	return s.mutate(ctx, planID, func(p *Plan) (*Amendment, error) {
		return p.CompleteAction(actionID, actor, note, time.Now().UTC())
	})
}

func (s *Service) ChangeDosage(ctx context.Context, planID, actionID uuid.UUID, dosage, actor string, note i18n.Text) (*Plan, error) {
	if dosage == "" {
		return nil, fmt.Errorf("dosage is required")
	}
	return s.mutate(ctx, planID, func(p *Plan) (*Amendment, error) {
		return p.ChangeDosage(actionID, dosage, actor, note, time.Now().UTC())
	})
}

func (s *Service) Hold(ctx context.Context, planID uuid.UUID, actor string, reason i18n.Text) (*Plan, error) {
	return s.mutate(ctx, planID, func(p *Plan) (*Amendment, error) {
		return p.Hold(actor, reason, time.Now().UTC())
	})
}

func (s *Service) Resume(ctx context.Context, planID uuid.UUID, actor string, note i18n.Text) (*Plan, error) {
	return s.mutate(ctx, planID, func(p *Plan) (*Amendment, error) {
		return p.Resume(actor, note, time.Now().UTC())
	})
}

func (s *Service) Complete(ctx context.Context, planID uuid.UUID, actor string, outcome i18n.Text) (*Plan, error) {
	return s.mutate(ctx, planID, func(p *Plan) (*Amendment, error) {
		return p.Complete(actor, outcome, time.Now().UTC())
	})
}

func (s *Service) Cancel(ctx context.Context, planID uuid.UUID, actor string, reason i18n.Text) (*Plan, error) {
	return s.mutate(ctx, planID, func(p *Plan) (*Amendment, error) {
		return p.Cancel(actor, reason, time.Now().UTC())
	})
}

func (s *Service) Amend(ctx context.Context, planID uuid.UUID, t AmendmentType, actor string, note, reason i18n.Text) (*Plan, error) {
	return s.mutate(ctx, planID, func(p *Plan) (*Amendment, error) {
		return p.Amend(t, actor, note, reason, time.Now().UTC())
	})
}

// Delete removes a plan and its trail. Only terminal plans can be deleted;
// open plans must be cancelled first.
func (s *Service) Delete(ctx context.Context, planID uuid.UUID) error {
	unlock := s.lock(planID)
	defer unlock()

	p, err := s.plans.GetByID(ctx, planID)
	if err != nil {
		return err
	}
	if !p.IsTerminal() {
		return ErrPlanNotTerminal
	}
	if err := s.plans.Delete(ctx, planID); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.locks, planID)
	s.mu.Unlock()
	return nil
}
