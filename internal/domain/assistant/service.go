package assistant

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mila-health/mila/internal/domain/lab"
	"github.com/mila-health/mila/internal/domain/patient"
	"github.com/mila-health/mila/internal/domain/transfusion"
	"github.com/mila-health/mila/internal/domain/treatmentplan"
)

// ErrUpstream marks failures of the model endpoint itself, as opposed to
// bad input.
var ErrUpstream = errors.New("assistant unavailable")

// Service wires the chat assistant to the clinical data it needs for
// context and to the plan service for accepted proposals.
type Service struct {
	client       Client
	patients     patient.Repository
	labs         lab.Repository
	transfusions *transfusion.Service
	plans        *treatmentplan.Service
	log          zerolog.Logger
}

func NewService(client Client, patients patient.Repository, labs lab.Repository,
	transfusions *transfusion.Service, plans *treatmentplan.Service, log zerolog.Logger) *Service {
	return &Service{
		client:       client,
		patients:     patients,
		labs:         labs,
		transfusions: transfusions,
		plans:        plans,
		log:          log,
	}
}

type ChatRequest struct {
	PatientID uuid.UUID `json:"patient_id"`
	Message   string    `json:"message"`
	Language  string    `json:"language,omitempty"`
}

type ChatResponse struct {
	Reply    string                    `json:"reply"`
	Language string                    `json:"language"`
	Proposal *treatmentplan.CreatePlan `json:"proposal,omitempty"`
}

// Chat assembles the patient context, asks the model, and extracts any plan
// proposal from the reply. Proposals are returned for review only; nothing
// is persisted until the clinician accepts.
func (s *Service) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if req.Message == "" {
		return nil, fmt.Errorf("message is required")
	}
	lang := req.Language
	if lang != "es" {
		lang = "en"
	}

	p, err := s.patients.GetByID(ctx, req.PatientID)
	if err != nil {
		return nil, fmt.Errorf("patient lookup: %w", err)
	}
	assessment, err := s.transfusions.Assess(ctx, req.PatientID)
	if err != nil {
		return nil, err
	}
	labs, err := s.labs.ListAllByPatient(ctx, req.PatientID)
	if err != nil {
		return nil, err
	}
	plans, _, err := s.plans.ListByPatient(ctx, req.PatientID, 20, 0)
	if err != nil {
		return nil, err
	}

	reply, err := s.client.Ask(ctx, req.Message, BuildContext(p, assessment, labs, plans, lang), lang)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	display, proposal := extractProposal(reply)
	if proposal != nil {
		proposal.PatientID = req.PatientID
		s.log.Info().Str("patient_id", req.PatientID.String()).
			Str("category", string(proposal.Category)).
			Msg("assistant proposed a treatment plan")
	}
	return &ChatResponse{Reply: display, Language: lang, Proposal: proposal}, nil
}

// AcceptPlan turns a reviewed proposal into a real plan. It goes through
// the plan service, so all creation validation applies and the plan starts
// active with an empty amendment trail.
func (s *Service) AcceptPlan(ctx context.Context, req treatmentplan.CreatePlan, actor string) (*treatmentplan.Plan, error) {
	p, err := s.plans.Create(ctx, req, actor)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("plan_id", p.ID.String()).Str("actor", actor).
		Msg("assistant proposal accepted as treatment plan")
	return p, nil
}
