package transfusion

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mila-health/mila/internal/domain/lab"
	"github.com/mila-health/mila/internal/domain/patient"
)

func testPatient(gaWeeks float64) *patient.Patient {
	return &patient.Patient{
		ID:                  uuid.New(),
		GestationalAgeWeeks: gaWeeks,
		BirthWeightGrams:    900,
		BirthDate:           time.Now().Add(-21 * 24 * time.Hour),
	}
}

func rbcTransfusions(n int) []*Transfusion {
	out := make([]*Transfusion, n)
	for i := range out {
		out[i] = &Transfusion{Product: ProductRBC, VolumeML: 15}
	}
	return out
}

func TestExpectedTransfusions_Bands(t *testing.T) {
	cases := []struct {
		ga   float64
		want ExpectedRange
	}{
		{24, ExpectedRange{4, 6, 10}},
		{26, ExpectedRange{3, 5, 8}},
		{27.5, ExpectedRange{3, 5, 8}},
		{29, ExpectedRange{2, 4, 6}},
		{31, ExpectedRange{1, 2, 4}},
		{33, ExpectedRange{0, 1, 2}},
		{36, ExpectedRange{0, 0, 1}},
		{40, ExpectedRange{0, 0, 1}},
	}
	for _, tc := range cases {
		if got := ExpectedTransfusions(tc.ga); got != tc.want {
			t.Errorf("GA %.1f: expected %+v, got %+v", tc.ga, tc.want, got)
		}
	}
}

func TestAnalyze_ExcessClassification(t *testing.T) {
	p := testPatient(29) // expected 2/4/6

	a := Analyze(p, rbcTransfusions(3), nil)
	if a.ExcessSeverity != ExcessNone || a.IsAboveAverage || a.InvestigateRootCause {
		t.Errorf("3 of expected avg 4: should not be flagged, got %+v", a)
	}

	a = Analyze(p, rbcTransfusions(5), nil)
	if a.ExcessSeverity != ExcessHigh || !a.IsAboveAverage || !a.InvestigateRootCause {
		t.Errorf("5 above avg 4: expected high, got %s", a.ExcessSeverity)
	}

	a = Analyze(p, rbcTransfusions(7), nil)
	if a.ExcessSeverity != ExcessVeryHigh {
		t.Errorf("7 above high 6: expected very_high, got %s", a.ExcessSeverity)
	}
	if len(a.Recommendations) < 3 {
		t.Error("very_high must add the hematology-consult recommendation")
	}
}

func TestAnalyze_NonRBCProductsDoNotCount(t *testing.T) {
	p := testPatient(29)
	history := []*Transfusion{
		{Product: ProductPlatelet}, {Product: ProductPlasma}, {Product: ProductRBC},
	}
	a := Analyze(p, history, nil)
	if a.RBCCount != 1 {
		t.Fatalf("expected rbc count 1, got %d", a.RBCCount)
	}
}

func TestAnalyze_NoLabsFloorsAtLowRisk(t *testing.T) {
	a := Analyze(testPatient(26), rbcTransfusions(8), nil)
	if a.HemolysisRisk != HemolysisLow {
		t.Fatalf("no labs: expected low hemolysis risk, got %s", a.HemolysisRisk)
	}
	if len(a.HemolysisIndicators) != 0 {
		t.Error("no labs: indicator list must be empty")
	}
}

func labValue(typeID string, value float64, at time.Time) *lab.Value {
	return &lab.Value{TypeID: typeID, Value: value, OccurredAt: at}
}

func TestAnalyze_HemolysisScoring(t *testing.T) {
	now := time.Now()

	// LDH alone scores 2: moderate.
	labs := []*lab.Value{labValue(lab.TypeLDH, 800, now)}
	a := Analyze(testPatient(26), nil, labs)
	if a.HemolysisRisk != HemolysisModerate {
		t.Errorf("LDH only: expected moderate, got %s", a.HemolysisRisk)
	}
	if len(a.HemolysisIndicators) != 1 {
		t.Errorf("expected 1 indicator, got %d", len(a.HemolysisIndicators))
	}

	// LDH + low haptoglobin scores 4: high.
	labs = append(labs, labValue(lab.TypeHaptoglobin, 5, now))
	a = Analyze(testPatient(26), nil, labs)
	if a.HemolysisRisk != HemolysisHigh {
		t.Errorf("LDH + hapto: expected high, got %s", a.HemolysisRisk)
	}

	// Retics alone score 1: still low.
	a = Analyze(testPatient(26), nil, []*lab.Value{labValue(lab.TypeReticulocytes, 8, now)})
	if a.HemolysisRisk != HemolysisLow {
		t.Errorf("retics only: expected low, got %s", a.HemolysisRisk)
	}

	// Retics + rising bilirubin score 2: moderate.
	labs = []*lab.Value{
		labValue(lab.TypeReticulocytes, 8, now),
		labValue(lab.TypeBilirubin, 4, now.Add(-48*time.Hour)),
		labValue(lab.TypeBilirubin, 7, now),
	}
	a = Analyze(testPatient(26), nil, labs)
	if a.HemolysisRisk != HemolysisModerate {
		t.Errorf("retics + rising bili: expected moderate, got %s", a.HemolysisRisk)
	}
}

func TestAnalyze_BilirubinSignals(t *testing.T) {
	now := time.Now()

	// Absolutely high bilirubin counts even without a prior value.
	if !biliSignal([]*lab.Value{labValue(lab.TypeBilirubin, 13, now)}) {
		t.Error("bili 13 should signal")
	}
	// Stable normal bilirubin does not.
	labs := []*lab.Value{
		labValue(lab.TypeBilirubin, 5, now.Add(-24*time.Hour)),
		labValue(lab.TypeBilirubin, 5.5, now),
	}
	if biliSignal(labs) {
		t.Error("stable bili should not signal")
	}
}

func TestAnalyze_CausesFilteredByLabSignals(t *testing.T) {
	now := time.Now()
	p := testPatient(29)
	history := rbcTransfusions(7)

	// No hemolysis markers: hemolysis must not be listed as a cause.
	a := Analyze(p, history, nil)
	for _, c := range a.PossibleCauses {
		if c.EN == "Hemolysis suggested by the marker pattern." {
			t.Fatal("hemolysis listed without supporting labs")
		}
	}

	// With markers it appears.
	labs := []*lab.Value{
		labValue(lab.TypeLDH, 900, now),
		labValue(lab.TypeHaptoglobin, 4, now),
	}
	a = Analyze(p, history, labs)
	found := false
	for _, c := range a.PossibleCauses {
		if c.EN == "Hemolysis suggested by the marker pattern." {
			found = true
		}
		if c.ES == "" {
			t.Error("cause missing Spanish text")
		}
	}
	if !found {
		t.Error("hemolysis should be listed when markers support it")
	}

	// Low retics add inadequate erythropoiesis.
	a = Analyze(p, history, []*lab.Value{labValue(lab.TypeReticulocytes, 1, now)})
	found = false
	for _, c := range a.PossibleCauses {
		if c.EN == "Inadequate erythropoiesis (low reticulocyte response)." {
			found = true
		}
	}
	if !found {
		t.Error("low retics should list inadequate erythropoiesis")
	}
}

func TestAnalyze_NotFlaggedHasNoCauses(t *testing.T) {
	a := Analyze(testPatient(29), rbcTransfusions(2), nil)
	if len(a.PossibleCauses) != 0 || len(a.Recommendations) != 0 {
		t.Error("unflagged analysis should carry no causes or recommendations")
	}
}
