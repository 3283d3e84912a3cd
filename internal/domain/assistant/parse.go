package assistant

import (
	"encoding/json"
	"strings"

	"github.com/mila-health/mila/internal/domain/treatmentplan"
	"github.com/mila-health/mila/pkg/i18n"
)

const (
	planMarkerOpen  = "[MILA_PLAN]"
	planMarkerClose = "[/MILA_PLAN]"
)

// planProposal is the JSON shape the assistant is asked to emit between the
// plan markers. It is a subset of the plan creation payload: the server
// fills in the patient.
type planProposal struct {
	Category treatmentplan.Category `json:"category"`
	Title    i18n.Text              `json:"title"`
	Note     i18n.Text              `json:"note"`
	Actions  []struct {
		Title  i18n.Text `json:"title"`
		Detail i18n.Text `json:"detail"`
	} `json:"actions"`
}

// extractProposal splits a model reply into display text and an optional
// plan proposal. A missing or malformed proposal block is not an error:
// the reply is still useful, so the block is simply dropped from the plan
// side and kept out of the display text only when it parsed.
func extractProposal(reply string) (string, *treatmentplan.CreatePlan) {
	open := strings.Index(reply, planMarkerOpen)
	if open < 0 {
		return strings.TrimSpace(reply), nil
	}
	rest := reply[open+len(planMarkerOpen):]
	closeIdx := strings.Index(rest, planMarkerClose)
	if closeIdx < 0 {
		return strings.TrimSpace(reply), nil
	}

	var prop planProposal
	if err := json.Unmarshal([]byte(strings.TrimSpace(rest[:closeIdx])), &prop); err != nil {
		return strings.TrimSpace(reply), nil
	}
	if prop.Title.IsZero() {
		return strings.TrimSpace(reply), nil
	}
	if prop.Category == "" {
		prop.Category = treatmentplan.CategoryGeneral
	}

	plan := &treatmentplan.CreatePlan{
		Category: prop.Category,
		Title:    prop.Title,
		Note:     prop.Note,
	}
	for _, a := range prop.Actions {
		if a.Title.IsZero() {
			continue
		}
		plan.Actions = append(plan.Actions, treatmentplan.CreateAction{
			Title: a.Title, Detail: a.Detail,
		})
	}

	display := strings.TrimSpace(reply[:open] + rest[closeIdx+len(planMarkerClose):])
	return display, plan
}
