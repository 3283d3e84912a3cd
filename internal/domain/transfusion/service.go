package transfusion

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mila-health/mila/internal/domain/lab"
	"github.com/mila-health/mila/internal/domain/patient"
)

type Service struct {
	transfusions Repository
	labs         lab.Repository
	patients     patient.Repository
}

func NewService(transfusions Repository, labs lab.Repository, patients patient.Repository) *Service {
	return &Service{transfusions: transfusions, labs: labs, patients: patients}
}

// Record stores a transfusion event. Non-emergency transfusions require
// documented consent before they can be recorded.
func (s *Service) Record(ctx context.Context, t *Transfusion) error {
	if t.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if !validProducts[t.Product] {
		return fmt.Errorf("invalid product %q", t.Product)
	}
	if t.VolumeML <= 0 {
		return fmt.Errorf("volume_ml must be positive")
	}
	if t.DonorID == "" {
		return fmt.Errorf("donor_id is required")
	}
	if !t.Emergency && !t.ConsentObtained {
		return fmt.Errorf("consent is required for non-emergency transfusion")
	}
	if t.ConsentObtained && t.ConsentAt == nil {
		now := time.Now()
		t.ConsentAt = &now
	}
	if t.OccurredAt.IsZero() {
		t.OccurredAt = time.Now()
	}
	if _, err := s.patients.GetByID(ctx, t.PatientID); err != nil {
		return fmt.Errorf("patient lookup: %w", err)
	}
	return s.transfusions.Create(ctx, t)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Transfusion, error) {
	return s.transfusions.GetByID(ctx, id)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Transfusion, int, error) {
	return s.transfusions.ListByPatient(ctx, patientID, limit, offset)
}

// Update allows correcting a recorded transfusion. Patient and product
// identity are fixed at record time.
func (s *Service) Update(ctx context.Context, id uuid.UUID, volumeML *float64, donorID *string, justification *string) (*Transfusion, error) {
	t, err := s.transfusions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if volumeML != nil {
		if *volumeML <= 0 {
			return nil, fmt.Errorf("volume_ml must be positive")
		}
		t.VolumeML = *volumeML
	}
	if donorID != nil {
		if *donorID == "" {
			return nil, fmt.Errorf("donor_id cannot be empty")
		}
		t.DonorID = *donorID
	}
	if justification != nil {
		t.Justification = justification
	}
	if err := s.transfusions.Update(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.transfusions.Delete(ctx, id)
}

func (s *Service) Stats(ctx context.Context, patientID uuid.UUID) (*Stats, error) {
	return s.transfusions.Stats(ctx, patientID)
}

// EvaluateRequest is the live form check: "would this transfusion be
// justified right now?".
type EvaluateRequest struct {
	PatientID      uuid.UUID   `json:"patient_id"`
	Product        ProductType `json:"product"`
	Emergency      bool        `json:"emergency"`
	ActiveBleeding bool        `json:"active_bleeding"`
}

// Evaluation bundles the threshold verdict with the exposure state the
// bedside form renders next to it. Overall is the worst grade across the
// three, so the form can color itself without re-deriving the ranking.
type Evaluation struct {
	Justification Justification  `json:"justification"`
	Exposure      ExposureStatus `json:"exposure"`
	Donors        DonorStatus    `json:"donors"`
	Overall       Severity       `json:"overall"`
	LabValue      *lab.Value     `json:"lab_value,omitempty"`
}

func worstOf(severities ...Severity) Severity {
	worst := SeverityOK
	for _, s := range severities {
		if s.AtLeast(worst) {
			worst = s
		}
	}
	return worst
}

// Evaluate resolves the patient's clinical state and latest relevant lab,
// then runs the pure evaluator. Repository failures propagate; only a
// genuinely absent lab result downgrades to a warning.
func (s *Service) Evaluate(ctx context.Context, req EvaluateRequest) (*Evaluation, error) {
	if !validProducts[req.Product] {
		return nil, fmt.Errorf("invalid product %q", req.Product)
	}
	p, err := s.patients.GetByID(ctx, req.PatientID)
	if err != nil {
		return nil, fmt.Errorf("patient lookup: %w", err)
	}

	in := EvaluateInput{
		Product:              req.Product,
		Emergency:            req.Emergency,
		ActiveBleeding:       req.ActiveBleeding,
		DaysOfLife:           p.DaysOfLife(time.Now()),
		OnRespiratorySupport: p.OnRespiratorySupport,
	}

	var latest *lab.Value
	if binding, ok := LabBindingFor(req.Product); ok {
		latest, err = s.labs.LatestByType(ctx, req.PatientID, binding.LabTypeID)
		if err != nil {
			return nil, fmt.Errorf("lab lookup: %w", err)
		}
		if latest != nil {
			in.LabValue = &latest.Value
			in.LabTakenAt = &latest.OccurredAt
		}
	}

	stats, err := s.transfusions.Stats(ctx, req.PatientID)
	if err != nil {
		return nil, fmt.Errorf("stats lookup: %w", err)
	}

	ev := &Evaluation{
		Justification: Evaluate(in),
		Exposure:      CumulativeExposure(req.Product, stats.VolumeByType[req.Product], p.BirthWeightGrams),
		Donors:        DonorExposure(stats.UniqueDonors),
		LabValue:      latest,
	}
	ev.Overall = worstOf(ev.Justification.Severity, ev.Exposure.Status, ev.Donors.Status)
	return ev, nil
}

// Assessment is the full dashboard panel for one patient: history analysis
// plus per-product exposure and donor state.
type Assessment struct {
	PatientID uuid.UUID                      `json:"patient_id"`
	Stats     *Stats                         `json:"stats"`
	Analysis  Analysis                       `json:"analysis"`
	Exposure  map[ProductType]ExposureStatus `json:"exposure"`
	Donors    DonorStatus                    `json:"donors"`
	Risks     []Risk                         `json:"risks"`
}

func (s *Service) Assess(ctx context.Context, patientID uuid.UUID) (*Assessment, error) {
	p, err := s.patients.GetByID(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("patient lookup: %w", err)
	}
	history, err := s.transfusions.ListAllByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	labs, err := s.labs.ListAllByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	stats, err := s.transfusions.Stats(ctx, patientID)
	if err != nil {
		return nil, err
	}

	exposure := make(map[ProductType]ExposureStatus)
	for product, volume := range stats.VolumeByType {
		exposure[product] = CumulativeExposure(product, volume, p.BirthWeightGrams)
	}

	return &Assessment{
		PatientID: patientID,
		Stats:     stats,
		Analysis:  Analyze(p, history, labs),
		Exposure:  exposure,
		Donors:    DonorExposure(stats.UniqueDonors),
		Risks:     Risks(),
	}, nil
}
