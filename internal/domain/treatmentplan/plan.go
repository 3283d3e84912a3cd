package treatmentplan

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mila-health/mila/pkg/i18n"
)

// All plan mutation goes through the methods in this file. Each one checks
// the lifecycle guards, applies the change, and appends exactly one
// amendment. Content changes (adding or removing actions, dosage edits)
// ratchet an active plan to modified; completing an action, holding, and
// resuming leave the status alone. The ratchet is one-way: a plan never
// returns to active once its content has deviated.

// IsTerminal reports whether the plan has reached a final status.
func (p *Plan) IsTerminal() bool {
	return p.Status == StatusCompleted || p.Status == StatusCancelled
}

// guardMutable rejects mutation of terminal or held plans.
func (p *Plan) guardMutable() error {
	if p.IsTerminal() {
		return ErrPlanTerminal
	}
	if p.IsOnHold {
		return ErrPlanOnHold
	}
	return nil
}

// markModified ratchets an active plan to modified. Only content changes
// call this; lifecycle operations keep the status as it stands.
func (p *Plan) markModified() {
	if p.Status == StatusActive {
		p.Status = StatusModified
	}
}

func (p *Plan) appendAmendment(t AmendmentType, actionID *uuid.UUID, actor string, note, reason i18n.Text, now time.Time) *Amendment {
	a := &Amendment{
		ID:        uuid.New(),
		PlanID:    p.ID,
		ActionID:  actionID,
		Type:      t,
		Actor:     actor,
		Note:      note,
		Reason:    reason,
		CreatedAt: now,
	}
	p.Amendments = append(p.Amendments, a)
	p.UpdatedAt = now
	return a
}

func (p *Plan) findAction(id uuid.UUID) (*Action, error) {
	for _, a := range p.Actions {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, ErrActionNotFound
}

// AddAction appends a new action to an open plan.
func (p *Plan) AddAction(a *Action, actor string, note i18n.Text, now time.Time) (*Amendment, error) {
	if err := p.guardMutable(); err != nil {
		return nil, err
	}
	a.ID = uuid.New()
	a.PlanID = p.ID
	a.AddedAt = now
	p.Actions = append(p.Actions, a)
	p.markModified()
	return p.appendAmendment(AmendActionAdded, &a.ID, actor, note, i18n.Text{}, now), nil
}

// RemoveAction soft-deletes an action. The row stays so the trail can
// reference it.
func (p *Plan) RemoveAction(actionID uuid.UUID, actor string, reason i18n.Text, now time.Time) (*Amendment, error) {
	if err := p.guardMutable(); err != nil {
		return nil, err
	}
	a, err := p.findAction(actionID)
	if err != nil {
		return nil, err
	}
	if a.IsRemoved {
		return nil, ErrActionRemoved
	}
	a.IsRemoved = true
	p.markModified()
	return p.appendAmendment(AmendActionRemoved, &a.ID, actor, i18n.Text{}, reason, now), nil
}

// CompleteAction marks an action done and records who signed it off. The
// plan status is untouched: finishing planned work is not a deviation.
func (p *Plan) CompleteAction(actionID uuid.UUID, actor string, note i18n.Text, now time.Time) (*Amendment, error) {
	if err := p.guardMutable(); err != nil {
		return nil, err
	}
	a, err := p.findAction(actionID)
	if err != nil {
		return nil, err
	}
	if a.IsRemoved {
		return nil, ErrActionRemoved
	}
	if a.Completed() {
		return nil, ErrActionCompleted
	}
	a.CompletedAt = &now
	a.CompletedBy = actor
	return p.appendAmendment(AmendActionModified, &a.ID, actor, note, i18n.Text{}, now), nil
}

// ChangeDosage updates an action's dosage text.
func (p *Plan) ChangeDosage(actionID uuid.UUID, dosage, actor string, note i18n.Text, now time.Time) (*Amendment, error) {
	if err := p.guardMutable(); err != nil {
		return nil, err
	}
	a, err := p.findAction(actionID)
	if err != nil {
		return nil, err
	}
	if a.IsRemoved {
		return nil, ErrActionRemoved
	}
	a.Dosage = &dosage
	p.markModified()
	return p.appendAmendment(AmendDosageChanged, &a.ID, actor, note, i18n.Text{}, now), nil
}

// Hold pauses an open plan and records why. Held plans accept no mutation
// except Resume, Complete, and Cancel. Status is unchanged: a pause is not
// a deviation from the plan's content.
func (p *Plan) Hold(actor string, reason i18n.Text, now time.Time) (*Amendment, error) {
	if err := p.guardMutable(); err != nil {
		return nil, err
	}
	p.IsOnHold = true
	p.HoldReason = reason
	return p.appendAmendment(AmendHold, nil, actor, i18n.Text{}, reason, now), nil
}

// Resume lifts a hold and clears its reason.
func (p *Plan) Resume(actor string, note i18n.Text, now time.Time) (*Amendment, error) {
	if p.IsTerminal() {
		return nil, ErrPlanTerminal
	}
	if !p.IsOnHold {
		return nil, ErrPlanNotOnHold
	}
	p.IsOnHold = false
	p.HoldReason = i18n.Text{}
	return p.appendAmendment(AmendResumed, nil, actor, note, i18n.Text{}, now), nil
}

// Complete closes the plan successfully and records the outcome. Allowed
// while on hold; the hold is cleared by the terminal transition.
func (p *Plan) Complete(actor string, outcome i18n.Text, now time.Time) (*Amendment, error) {
	if p.IsTerminal() {
		return nil, ErrPlanTerminal
	}
	p.Status = StatusCompleted
	p.Outcome = outcome
	p.IsOnHold = false
	p.HoldReason = i18n.Text{}
	p.ClosedAt = &now
	return p.appendAmendment(AmendClinicalUpdate, nil, actor, outcome, i18n.Text{}, now), nil
}

// Cancel abandons the plan; the cancellation reason is recorded as the
// outcome. Allowed while on hold.
func (p *Plan) Cancel(actor string, reason i18n.Text, now time.Time) (*Amendment, error) {
	if p.IsTerminal() {
		return nil, ErrPlanTerminal
	}
	p.Status = StatusCancelled
	p.Outcome = reason
	p.IsOnHold = false
	p.HoldReason = i18n.Text{}
	p.ClosedAt = &now
	return p.appendAmendment(AmendClinicalUpdate, nil, actor, i18n.Text{}, reason, now), nil
}

// Amend records a free-form trail entry (escalation, patient response, ...)
// without touching actions or status.
func (p *Plan) Amend(t AmendmentType, actor string, note, reason i18n.Text, now time.Time) (*Amendment, error) {
	if !validAmendmentTypes[t] {
		return nil, fmt.Errorf("invalid amendment type %q", t)
	}
	if err := p.guardMutable(); err != nil {
		return nil, err
	}
	return p.appendAmendment(t, nil, actor, note, reason, now), nil
}

// Progress counts completed actions over live (non-removed) actions.
func (p *Plan) Progress() Progress {
	var pr Progress
	for _, a := range p.Actions {
		if a.IsRemoved {
			continue
		}
		pr.Total++
		if a.Completed() {
			pr.Completed++
		}
	}
	return pr
}
