package treatmentplan

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mila-health/mila/internal/domain/patient"
	"github.com/mila-health/mila/pkg/i18n"
)

// clonePlan deep-copies so the mock behaves like a real store: callers get
// their own snapshot, not aliases into the repository.
func clonePlan(p *Plan) *Plan {
	cp := *p
	cp.Actions = nil
	for _, a := range p.Actions {
		ca := *a
		cp.Actions = append(cp.Actions, &ca)
	}
	cp.Amendments = nil
	return &cp
}

type mockRepo struct {
	mu         sync.Mutex
	plans      map[uuid.UUID]*Plan
	amendments map[uuid.UUID][]*Amendment
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		plans:      map[uuid.UUID]*Plan{},
		amendments: map[uuid.UUID][]*Amendment{},
	}
}

func (m *mockRepo) Create(_ context.Context, p *Plan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.plans[p.ID] = clonePlan(p)
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Plan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.plans[id]
	if !ok {
		return nil, ErrPlanNotFound
	}
	return clonePlan(p), nil
}

func (m *mockRepo) ListByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*Plan, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var r []*Plan
	for _, p := range m.plans {
		if p.PatientID == patientID {
			r = append(r, clonePlan(p))
		}
	}
	return r, len(r), nil
}

func (m *mockRepo) Save(_ context.Context, p *Plan, amendments ...*Amendment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.plans[p.ID]; !ok {
		return ErrPlanNotFound
	}
	m.plans[p.ID] = clonePlan(p)
	m.amendments[p.ID] = append(m.amendments[p.ID], amendments...)
	return nil
}

func (m *mockRepo) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.plans[id]; !ok {
		return ErrPlanNotFound
	}
	delete(m.plans, id)
	delete(m.amendments, id)
	return nil
}

func (m *mockRepo) ListAmendments(_ context.Context, planID uuid.UUID) ([]*Amendment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*Amendment(nil), m.amendments[planID]...), nil
}

type mockPatientRepo struct{ store map[uuid.UUID]*patient.Patient }

func (m *mockPatientRepo) Create(_ context.Context, p *patient.Patient) error {
	m.store[p.ID] = p
	return nil
}
func (m *mockPatientRepo) GetByID(_ context.Context, id uuid.UUID) (*patient.Patient, error) {
	p, ok := m.store[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return p, nil
}
func (m *mockPatientRepo) GetByMRN(_ context.Context, _ string) (*patient.Patient, error) {
	return nil, fmt.Errorf("not found")
}
func (m *mockPatientRepo) Update(_ context.Context, _ *patient.Patient) error { return nil }
func (m *mockPatientRepo) List(_ context.Context, _, _ int) ([]*patient.Patient, int, error) {
	return nil, 0, nil
}

func newTestService() (*Service, *mockRepo, uuid.UUID) {
	repo := newMockRepo()
	pid := uuid.New()
	patients := &mockPatientRepo{store: map[uuid.UUID]*patient.Patient{
		pid: {ID: pid, MedicalRecordNumber: "MRN-001", BirthDate: time.Now().Add(-5 * 24 * time.Hour)},
	}}
	return NewService(repo, patients), repo, pid
}

func createPlan(t *testing.T, svc *Service, pid uuid.UUID) *Plan {
	t.Helper()
	p, err := svc.Create(context.Background(), CreatePlan{
		PatientID: pid,
		Category:  CategoryTransfusion,
		Title:     i18n.T("Anemia workup", "Estudio de anemia"),
		Actions: []CreateAction{
			{Title: i18n.T("CBC in the morning", "Hemograma por la mañana")},
		},
	}, "Dr. Rivera")
	if err != nil {
		t.Fatalf("create plan: %v", err)
	}
	return p
}

func TestService_Create_Validation(t *testing.T) {
	svc, _, pid := newTestService()
	ctx := context.Background()
	title := i18n.T("Anemia workup", "Estudio de anemia")

	cases := []struct {
		name string
		req  CreatePlan
	}{
		{"missing patient", CreatePlan{Category: CategoryGeneral, Title: title}},
		{"invalid category", CreatePlan{PatientID: pid, Category: "surgery", Title: title}},
		{"missing title", CreatePlan{PatientID: pid, Category: CategoryGeneral}},
		{"unknown patient", CreatePlan{PatientID: uuid.New(), Category: CategoryGeneral, Title: title}},
		{"action without title", CreatePlan{PatientID: pid, Category: CategoryGeneral, Title: title,
			Actions: []CreateAction{{Detail: i18n.T("x", "x")}}}},
	}
	for _, tc := range cases {
		if _, err := svc.Create(ctx, tc.req, "Dr. Rivera"); err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}
}

func TestService_Create_StartsActiveWithNoAmendments(t *testing.T) {
	svc, repo, pid := newTestService()
	p := createPlan(t, svc, pid)

	if p.Status != StatusActive {
		t.Fatalf("expected active, got %s", p.Status)
	}
	ams, _ := repo.ListAmendments(context.Background(), p.ID)
	if len(ams) != 0 {
		t.Fatalf("creation must not write trail entries, got %d", len(ams))
	}
}

func TestService_CompleteActionLeavesPlanActive(t *testing.T) {
	svc, _, pid := newTestService()
	ctx := context.Background()
	p := createPlan(t, svc, pid)

	got, err := svc.CompleteAction(ctx, p.ID, p.Actions[0].ID, "Nurse Silva", i18n.Text{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != StatusActive {
		t.Fatalf("expected active after completing an action, got %s", got.Status)
	}
	if got.Actions[0].CompletedBy != "Nurse Silva" {
		t.Fatalf("expected sign-off persisted, got %q", got.Actions[0].CompletedBy)
	}

	reloaded, err := svc.Get(ctx, p.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reloaded.Status != StatusActive {
		t.Fatalf("stored status must stay active, got %s", reloaded.Status)
	}
}

func TestService_MutationsPersistThroughRepo(t *testing.T) {
	svc, repo, pid := newTestService()
	ctx := context.Background()
	p := createPlan(t, svc, pid)

	if _, err := svc.CompleteAction(ctx, p.ID, p.Actions[0].ID, "Nurse Silva", i18n.Text{}); err != nil {
		t.Fatalf("complete action: %v", err)
	}
	if _, err := svc.AddAction(ctx, p.ID, CreateAction{Title: i18n.T("Retic count", "Recuento de reticulocitos")}, "Dr. Rivera", i18n.Text{}); err != nil {
		t.Fatalf("add action: %v", err)
	}

	stored, err := repo.GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored.Status != StatusModified {
		t.Fatalf("expected modified after adding an action, got %s", stored.Status)
	}
	if len(stored.Actions) != 2 {
		t.Fatalf("expected 2 actions, got %d", len(stored.Actions))
	}
	ams, _ := repo.ListAmendments(ctx, p.ID)
	if len(ams) != 2 {
		t.Fatalf("expected 2 trail entries, got %d", len(ams))
	}
}

func TestService_AddActionThenCancel_TrailHasExactlyTwoEntries(t *testing.T) {
	svc, repo, pid := newTestService()
	ctx := context.Background()
	p := createPlan(t, svc, pid)

	if _, err := svc.AddAction(ctx, p.ID, CreateAction{Title: i18n.T("Bilirubin", "Bilirrubina")}, "Dr. Rivera", i18n.Text{}); err != nil {
		t.Fatalf("add action: %v", err)
	}
	if _, err := svc.Cancel(ctx, p.ID, "Dr. Rivera", i18n.T("Parent meeting", "Reunión con padres")); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	ams, _ := repo.ListAmendments(ctx, p.ID)
	if len(ams) != 2 {
		t.Fatalf("expected 2 trail entries, got %d", len(ams))
	}
	if ams[0].Type != AmendActionAdded || ams[1].Type != AmendClinicalUpdate {
		t.Fatalf("unexpected trail: %s, %s", ams[0].Type, ams[1].Type)
	}
}

func TestService_HoldResume_Flow(t *testing.T) {
	svc, _, pid := newTestService()
	ctx := context.Background()
	p := createPlan(t, svc, pid)
	reason := i18n.T("Awaiting labs", "Esperando laboratorios")

	held, err := svc.Hold(ctx, p.ID, "Dr. Rivera", reason)
	if err != nil {
		t.Fatalf("hold: %v", err)
	}
	if !held.IsOnHold || held.HoldReason != reason || held.Status != StatusActive {
		t.Fatalf("unexpected held state: %+v", held)
	}

	if _, err := svc.AddAction(ctx, p.ID, CreateAction{Title: i18n.T("x", "x")}, "a", i18n.Text{}); err == nil {
		t.Fatal("expected mutation rejected while held")
	}

	resumed, err := svc.Resume(ctx, p.ID, "Dr. Rivera", i18n.T("Labs back", "Laboratorios listos"))
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if resumed.IsOnHold || !resumed.HoldReason.IsZero() || resumed.Status != StatusActive {
		t.Fatalf("unexpected resumed state: %+v", resumed)
	}
}

func TestService_Delete_OnlyTerminalPlans(t *testing.T) {
	svc, _, pid := newTestService()
	ctx := context.Background()
	p := createPlan(t, svc, pid)

	if err := svc.Delete(ctx, p.ID); err != ErrPlanNotTerminal {
		t.Fatalf("expected ErrPlanNotTerminal, got %v", err)
	}
	if _, err := svc.Complete(ctx, p.ID, "Dr. Rivera", i18n.T("Resolved", "Resuelto")); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if err := svc.Delete(ctx, p.ID); err != nil {
		t.Fatalf("delete after completion: %v", err)
	}
	if _, err := svc.Get(ctx, p.ID); err == nil {
		t.Fatal("expected plan gone")
	}
}

func TestService_ConcurrentAmendments_NoneLost(t *testing.T) {
	svc, repo, pid := newTestService()
	ctx := context.Background()
	p := createPlan(t, svc, pid)

	const n = 16
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			title := i18n.Tf("Order %d", "Orden %d", i)
			if _, err := svc.AddAction(ctx, p.ID, CreateAction{Title: title}, "Dr. Rivera", i18n.Text{}); err != nil {
				t.Errorf("add action %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	stored, err := repo.GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stored.Actions) != n+1 {
		t.Fatalf("expected %d actions, got %d", n+1, len(stored.Actions))
	}
	ams, _ := repo.ListAmendments(ctx, p.ID)
	if len(ams) != n {
		t.Fatalf("expected %d trail entries, got %d", n, len(ams))
	}
}
