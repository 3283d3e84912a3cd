package transfusion

import (
	"fmt"

	"github.com/mila-health/mila/pkg/i18n"

	"github.com/mila-health/mila/internal/domain/lab"
	"github.com/mila-health/mila/internal/domain/patient"
)

// Hemolysis marker cutoffs. LDH and haptoglobin are the stronger signals
// and carry double weight in the score.
const (
	ldhHighUL           = 600.0
	haptoglobinLowMgDL  = 10.0
	reticHighPercent    = 6.0
	reticLowPercent     = 2.0
	bilirubinHighMgDL   = 12.0
	bilirubinRiseMgDL   = 2.0
	hemolysisHighScore  = 4
	hemolysisModerScore = 2
)

// Analyze assesses a patient's full transfusion history: actual RBC count
// against the gestational-age-expected range, and a weighted hemolysis
// screen over the available lab markers. The result drives the dashboard's
// "why is this baby transfusing so much?" panel.
func Analyze(p *patient.Patient, history []*Transfusion, labs []*lab.Value) Analysis {
	rbcCount := 0
	for _, t := range history {
		if t.Product == ProductRBC {
			rbcCount++
		}
	}

	expected := ExpectedTransfusions(p.GestationalAgeWeeks)

	excess := ExcessNone
	switch {
	case rbcCount > expected.High:
		excess = ExcessVeryHigh
	case rbcCount > expected.Average:
		excess = ExcessHigh
	}

	a := Analysis{
		RBCCount:       rbcCount,
		Expected:       expected,
		ExcessSeverity: excess,
		IsAboveAverage: rbcCount > expected.Average,
	}

	a.HemolysisRisk, a.HemolysisIndicators = hemolysisScreen(labs)

	if excess != ExcessNone {
		a.InvestigateRootCause = true
		a.PossibleCauses = possibleCauses(labs, a.HemolysisRisk)
		a.Recommendations = recommendations(excess)
	}

	return a
}

// hemolysisScreen scores the available hemolysis markers. Missing markers
// contribute nothing, so a patient with no labs floors at low risk with an
// empty indicator list.
func hemolysisScreen(labs []*lab.Value) (HemolysisRisk, []i18n.Text) {
	score := 0
	var indicators []i18n.Text

	if v := lab.Latest(labs, lab.TypeLDH); v != nil && v.Value > ldhHighUL {
		score += 2
		indicators = append(indicators, i18n.Text{
			EN: fmt.Sprintf("LDH %.0f U/L is elevated (> %.0f).", v.Value, ldhHighUL),
			ES: fmt.Sprintf("LDH %.0f U/L está elevada (> %.0f).", v.Value, ldhHighUL),
		})
	}
	if v := lab.Latest(labs, lab.TypeHaptoglobin); v != nil && v.Value < haptoglobinLowMgDL {
		score += 2
		indicators = append(indicators, i18n.Text{
			EN: fmt.Sprintf("Haptoglobin %.1f mg/dL is low (< %.0f).", v.Value, haptoglobinLowMgDL),
			ES: fmt.Sprintf("Haptoglobina %.1f mg/dL está baja (< %.0f).", v.Value, haptoglobinLowMgDL),
		})
	}
	if v := lab.Latest(labs, lab.TypeReticulocytes); v != nil && v.Value > reticHighPercent {
		score++
		indicators = append(indicators, i18n.Text{
			EN: fmt.Sprintf("Reticulocytes %.1f%% are elevated (> %.0f%%).", v.Value, reticHighPercent),
			ES: fmt.Sprintf("Reticulocitos %.1f%% están elevados (> %.0f%%).", v.Value, reticHighPercent),
		})
	}
	if biliSignal(labs) {
		score++
		indicators = append(indicators, i18n.Text{
			EN: "Bilirubin is high or rising.",
			ES: "La bilirrubina está alta o en aumento.",
		})
	}

	switch {
	case score >= hemolysisHighScore:
		return HemolysisHigh, indicators
	case score >= hemolysisModerScore:
		return HemolysisModerate, indicators
	default:
		return HemolysisLow, indicators
	}
}

// biliSignal reports whether bilirubin is absolutely high or rose sharply
// between the last two measurements.
func biliSignal(labs []*lab.Value) bool {
	hist := lab.History(labs, lab.TypeBilirubin)
	if len(hist) == 0 {
		return false
	}
	latest := hist[len(hist)-1]
	if latest.Value > bilirubinHighMgDL {
		return true
	}
	if len(hist) >= 2 {
		prev := hist[len(hist)-2]
		if latest.Value-prev.Value > bilirubinRiseMgDL {
			return true
		}
	}
	return false
}

// possibleCauses lists the differential for excessive transfusion need,
// filtered by which supporting lab signals are actually present.
func possibleCauses(labs []*lab.Value, risk HemolysisRisk) []i18n.Text {
	causes := []i18n.Text{
		{
			EN: "Iatrogenic blood loss from repeated phlebotomy.",
			ES: "Pérdida de sangre iatrogénica por flebotomías repetidas.",
		},
		{
			EN: "Occult bleeding (gastrointestinal, intracranial, or at procedure sites).",
			ES: "Sangrado oculto (gastrointestinal, intracraneal o en sitios de procedimientos).",
		},
	}
	if risk == HemolysisModerate || risk == HemolysisHigh {
		causes = append(causes, i18n.Text{
			EN: "Hemolysis suggested by the marker pattern.",
			ES: "Hemólisis sugerida por el patrón de marcadores.",
		})
	}
	if v := lab.Latest(labs, lab.TypeReticulocytes); v != nil && v.Value < reticLowPercent {
		causes = append(causes, i18n.Text{
			EN: "Inadequate erythropoiesis (low reticulocyte response).",
			ES: "Eritropoyesis inadecuada (respuesta reticulocitaria baja).",
		})
	}
	return causes
}

func recommendations(excess ExcessSeverity) []i18n.Text {
	recs := []i18n.Text{
		{
			EN: "Review transfusion triggers against restrictive thresholds before the next order.",
			ES: "Revisar los criterios de transfusión frente a umbrales restrictivos antes de la próxima orden.",
		},
		{
			EN: "Minimize phlebotomy volume: batch draws and use micro-sampling.",
			ES: "Minimizar el volumen de flebotomía: agrupar extracciones y usar micromuestreo.",
		},
	}
	if excess == ExcessVeryHigh {
		recs = append(recs, i18n.Text{
			EN: "Request a hematology consult to investigate the transfusion burden.",
			ES: "Solicitar interconsulta con hematología para investigar la carga transfusional.",
		})
	}
	return recs
}
