package assistant

import (
	"strings"
	"testing"

	"github.com/mila-health/mila/internal/domain/treatmentplan"
)

func TestExtractProposal_WellFormed(t *testing.T) {
	reply := `Hemoglobin is trending down; a transfusion plan is reasonable.
[MILA_PLAN]{"category":"transfusion","title":{"en":"RBC transfusion","es":"Transfusión de glóbulos rojos"},"note":{"en":"restrictive trigger met","es":"umbral restrictivo alcanzado"},"actions":[{"title":{"en":"Transfuse 15 mL/kg PRBC","es":"Transfundir 15 mL/kg"},"detail":{"en":"over 3-4 hours","es":"durante 3-4 horas"}},{"title":{"en":"Repeat CBC 6h post","es":"Repetir hemograma 6h después"}}]}[/MILA_PLAN]
Let me know if you want the donor-exposure summary.`

	display, plan := extractProposal(reply)
	if plan == nil {
		t.Fatal("expected a proposal")
	}
	if plan.Category != treatmentplan.CategoryTransfusion || plan.Title.EN != "RBC transfusion" {
		t.Errorf("wrong proposal: %+v", plan)
	}
	if plan.Title.ES != "Transfusión de glóbulos rojos" {
		t.Errorf("spanish rendering lost: %+v", plan.Title)
	}
	if len(plan.Actions) != 2 || plan.Actions[1].Title.EN != "Repeat CBC 6h post" {
		t.Errorf("wrong actions: %+v", plan.Actions)
	}
	if strings.Contains(display, "MILA_PLAN") || strings.Contains(display, `"category"`) {
		t.Errorf("marker block leaked into display text: %q", display)
	}
	if !strings.Contains(display, "trending down") || !strings.Contains(display, "donor-exposure") {
		t.Errorf("surrounding text lost: %q", display)
	}
}

func TestExtractProposal_NoMarker(t *testing.T) {
	display, plan := extractProposal("Plain advice, no plan needed.")
	if plan != nil {
		t.Fatal("no marker must mean no proposal")
	}
	if display != "Plain advice, no plan needed." {
		t.Errorf("display text altered: %q", display)
	}
}

func TestExtractProposal_MalformedJSONIsNotAnError(t *testing.T) {
	reply := "Advice. [MILA_PLAN]{not json[/MILA_PLAN] more advice."
	display, plan := extractProposal(reply)
	if plan != nil {
		t.Fatal("malformed block must be ignored")
	}
	if display == "" {
		t.Error("reply must survive a malformed block")
	}
}

func TestExtractProposal_UnclosedMarker(t *testing.T) {
	_, plan := extractProposal("Advice. [MILA_PLAN]{\"title\":{\"en\":\"x\"}}")
	if plan != nil {
		t.Fatal("unclosed marker must be ignored")
	}
}

func TestExtractProposal_MissingTitleRejected(t *testing.T) {
	reply := `[MILA_PLAN]{"category":"general","actions":[{"title":{"en":"x"}}]}[/MILA_PLAN]`
	if _, plan := extractProposal(reply); plan != nil {
		t.Fatal("proposal without a title must be dropped")
	}
}

func TestExtractProposal_DefaultsCategoryAndSkipsEmptyActions(t *testing.T) {
	reply := `[MILA_PLAN]{"title":{"en":"Watchful waiting","es":"Espera vigilante"},"actions":[{"title":{}},{"title":{"en":"Recheck in 12h","es":"Revaluar en 12h"}}]}[/MILA_PLAN]`
	_, plan := extractProposal(reply)
	if plan == nil {
		t.Fatal("expected a proposal")
	}
	if plan.Category != treatmentplan.CategoryGeneral {
		t.Errorf("expected general category default, got %s", plan.Category)
	}
	if len(plan.Actions) != 1 {
		t.Errorf("empty-titled actions must be skipped, got %d", len(plan.Actions))
	}
}
