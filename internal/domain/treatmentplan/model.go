package treatmentplan

import (
	"time"

	"github.com/google/uuid"

	"github.com/mila-health/mila/pkg/i18n"
)

// Category groups plans by the clinical problem they address.
type Category string

const (
	CategoryTransfusion Category = "transfusion"
	CategorySepsis      Category = "sepsis"
	CategoryNEC         Category = "nec"
	CategoryRespiratory Category = "respiratory"
	CategoryFeeding     Category = "feeding"
	CategoryJaundice    Category = "jaundice"
	CategoryHemolysis   Category = "hemolysis"
	CategoryGeneral     Category = "general"
)

var validCategories = map[Category]bool{
	CategoryTransfusion: true, CategorySepsis: true, CategoryNEC: true,
	CategoryRespiratory: true, CategoryFeeding: true, CategoryJaundice: true,
	CategoryHemolysis: true, CategoryGeneral: true,
}

// Status is the plan lifecycle state. A plan starts active, ratchets to
// modified on its first amendment, and ends completed or cancelled. Hold is
// an orthogonal flag, not a status.
type Status string

const (
	StatusActive    Status = "active"
	StatusModified  Status = "modified"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// AmendmentType classifies an entry in a plan's amendment trail.
type AmendmentType string

const (
	AmendActionAdded     AmendmentType = "action_added"
	AmendActionRemoved   AmendmentType = "action_removed"
	AmendActionModified  AmendmentType = "action_modified"
	AmendDosageChanged   AmendmentType = "dosage_changed"
	AmendHold            AmendmentType = "hold"
	AmendResumed         AmendmentType = "resumed"
	AmendEscalation      AmendmentType = "escalation"
	AmendDeescalation    AmendmentType = "deescalation"
	AmendClinicalUpdate  AmendmentType = "clinical_update"
	AmendPatientResponse AmendmentType = "patient_response"
	AmendOther           AmendmentType = "other"
)

var validAmendmentTypes = map[AmendmentType]bool{
	AmendActionAdded: true, AmendActionRemoved: true, AmendActionModified: true,
	AmendDosageChanged: true, AmendHold: true, AmendResumed: true,
	AmendEscalation: true, AmendDeescalation: true, AmendClinicalUpdate: true,
	AmendPatientResponse: true, AmendOther: true,
}

// Plan maps to the treatment_plan table. Actions and Amendments are loaded
// alongside it; the amendment trail is append-only. All clinician-facing
// text carries both renderings, the same way the transfusion engines emit
// their messages.
type Plan struct {
	ID         uuid.UUID    `db:"id" json:"id"`
	PatientID  uuid.UUID    `db:"patient_id" json:"patient_id"`
	Category   Category     `db:"category" json:"category"`
	Title      i18n.Text    `db:"title" json:"title"`
	Note       i18n.Text    `db:"note" json:"note"`
	Outcome    i18n.Text    `db:"outcome" json:"outcome"`
	Status     Status       `db:"status" json:"status"`
	IsOnHold   bool         `db:"is_on_hold" json:"is_on_hold"`
	HoldReason i18n.Text    `db:"hold_reason" json:"hold_reason"`
	CreatedBy  string       `db:"created_by" json:"created_by"`
	ClosedAt   *time.Time   `db:"closed_at" json:"closed_at,omitempty"`
	CreatedAt  time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time    `db:"updated_at" json:"updated_at"`
	Actions    []*Action    `json:"actions"`
	Amendments []*Amendment `json:"amendments,omitempty"`
}

// Action maps to the plan_action table. Actions are soft-deleted: removal
// flips IsRemoved so the amendment trail keeps something to point at.
// Completion records who signed it off alongside the timestamp.
type Action struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	PlanID      uuid.UUID  `db:"plan_id" json:"plan_id"`
	Title       i18n.Text  `db:"title" json:"title"`
	Detail      i18n.Text  `db:"detail" json:"detail"`
	Dosage      *string    `db:"dosage" json:"dosage,omitempty"`
	IsRemoved   bool       `db:"is_removed" json:"is_removed"`
	CompletedAt *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	CompletedBy string     `db:"completed_by" json:"completed_by,omitempty"`
	AddedAt     time.Time  `db:"added_at" json:"added_at"`
}

// Completed reports whether the action has been signed off.
func (a *Action) Completed() bool { return a.CompletedAt != nil }

// Amendment maps to the plan_amendment table. Rows are never updated or
// deleted once written. Note describes the change; Reason carries the
// clinical motivation when one was given.
type Amendment struct {
	ID        uuid.UUID     `db:"id" json:"id"`
	PlanID    uuid.UUID     `db:"plan_id" json:"plan_id"`
	ActionID  *uuid.UUID    `db:"action_id" json:"action_id,omitempty"`
	Type      AmendmentType `db:"type" json:"type"`
	Actor     string        `db:"actor" json:"actor"`
	Note      i18n.Text     `db:"note" json:"note"`
	Reason    i18n.Text     `db:"reason" json:"reason"`
	CreatedAt time.Time     `db:"created_at" json:"created_at"`
}

// Progress counts completed versus total actions, skipping removed ones.
type Progress struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
}
