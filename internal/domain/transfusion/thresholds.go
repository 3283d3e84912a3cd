package transfusion

import (
	"github.com/mila-health/mila/pkg/i18n"

	"github.com/mila-health/mila/internal/domain/lab"
)

// The threshold catalog encodes restrictive NICU transfusion practice.
// RBC thresholds vary by postnatal age and respiratory support; platelet
// and plasma thresholds are flat. Values are hardcoded: they are clinical
// policy, not deployment configuration.

// LabBinding ties a product type to the lab result that justifies it.
type LabBinding struct {
	LabTypeID string
	LabName   i18n.Text
	Unit      string
}

var labBindings = map[ProductType]LabBinding{
	ProductRBC:      {LabTypeID: lab.TypeHemoglobin, LabName: i18n.Text{EN: "Hemoglobin", ES: "Hemoglobina"}, Unit: "g/dL"},
	ProductPlatelet: {LabTypeID: lab.TypePlatelets, LabName: i18n.Text{EN: "Platelet count", ES: "Recuento de plaquetas"}, Unit: "x10^9/L"},
	ProductPlasma:   {LabTypeID: lab.TypeINR, LabName: i18n.Text{EN: "INR", ES: "INR"}, Unit: ""},
}

// LabBindingFor returns the lab binding for a product, if it has one.
// ProductOther has no justifying lab.
func LabBindingFor(p ProductType) (LabBinding, bool) {
	b, ok := labBindings[p]
	return b, ok
}

type rbcBand struct {
	maxDays     int
	onSupport   float64
	noSupport   float64
	description i18n.Text
}

var rbcBands = []rbcBand{
	{
		maxDays:   7,
		onSupport: 11.5, noSupport: 10.0,
		description: i18n.Text{EN: "first week of life", ES: "primera semana de vida"},
	},
	{
		maxDays:   14,
		onSupport: 10.0, noSupport: 8.5,
		description: i18n.Text{EN: "8-14 days of life", ES: "8-14 días de vida"},
	},
	{
		maxDays:   int(^uint(0) >> 1),
		onSupport: 8.5, noSupport: 7.0,
		description: i18n.Text{EN: "over 14 days of life", ES: "más de 14 días de vida"},
	},
}

// RBCThreshold returns the restrictive hemoglobin threshold in g/dL for the
// given postnatal age and respiratory support state, together with the
// description of the matched age band.
func RBCThreshold(daysOfLife int, onRespiratorySupport bool) (float64, i18n.Text) {
	for _, b := range rbcBands {
		if daysOfLife <= b.maxDays {
			if onRespiratorySupport {
				return b.onSupport, b.description
			}
			return b.noSupport, b.description
		}
	}
	// unreachable: the last band has no upper bound
	last := rbcBands[len(rbcBands)-1]
	return last.noSupport, last.description
}

// PlateletThreshold is the non-bleeding prophylactic platelet threshold
// in x10^9/L. Active bleeding is handled by the evaluator, not the table.
const PlateletThreshold = 25.0

// PlasmaINRThreshold is the INR below which plasma is not indicated.
const PlasmaINRThreshold = 1.5

type exposureLimit struct {
	warningMLPerKg  float64
	criticalMLPerKg float64
}

var exposureLimits = map[ProductType]exposureLimit{
	ProductRBC:      {warningMLPerKg: 75, criticalMLPerKg: 100},
	ProductPlatelet: {warningMLPerKg: 50, criticalMLPerKg: 75},
	ProductPlasma:   {warningMLPerKg: 60, criticalMLPerKg: 90},
	ProductOther:    {warningMLPerKg: 100, criticalMLPerKg: 150},
}

const (
	donorWarningCount  = 4
	donorCriticalCount = 8
)

type expectedBand struct {
	maxWeeks float64
	expected ExpectedRange
}

// Expected RBC transfusion counts by gestational age at birth. Lower
// gestational ages accrue more iatrogenic losses and transfuse more.
var expectedBands = []expectedBand{
	{maxWeeks: 26, expected: ExpectedRange{Low: 4, Average: 6, High: 10}},
	{maxWeeks: 28, expected: ExpectedRange{Low: 3, Average: 5, High: 8}},
	{maxWeeks: 30, expected: ExpectedRange{Low: 2, Average: 4, High: 6}},
	{maxWeeks: 32, expected: ExpectedRange{Low: 1, Average: 2, High: 4}},
	{maxWeeks: 34, expected: ExpectedRange{Low: 0, Average: 1, High: 2}},
}

// ExpectedTransfusions returns the expected RBC transfusion range for a
// gestational age at birth, in completed weeks.
func ExpectedTransfusions(gestationalAgeWeeks float64) ExpectedRange {
	for _, b := range expectedBands {
		if gestationalAgeWeeks < b.maxWeeks {
			return b.expected
		}
	}
	return ExpectedRange{Low: 0, Average: 0, High: 1}
}

// Risk is an informational transfusion risk shown alongside the consent flow.
type Risk struct {
	Name        i18n.Text `json:"name"`
	Description i18n.Text `json:"description"`
	Incidence   string    `json:"incidence"`
}

var transfusionRisks = []Risk{
	{
		Name:        i18n.Text{EN: "Transfusion-associated lung injury (TRALI)", ES: "Lesión pulmonar asociada a transfusión (TRALI)"},
		Description: i18n.Text{EN: "Acute respiratory distress within 6 hours of transfusion.", ES: "Dificultad respiratoria aguda dentro de las 6 horas posteriores a la transfusión."},
		Incidence:   "~1:5,000",
	},
	{
		Name:        i18n.Text{EN: "Volume overload (TACO)", ES: "Sobrecarga de volumen (TACO)"},
		Description: i18n.Text{EN: "Circulatory overload, a particular risk at neonatal volumes.", ES: "Sobrecarga circulatoria, un riesgo particular con volúmenes neonatales."},
		Incidence:   "~1:700",
	},
	{
		Name:        i18n.Text{EN: "Febrile non-hemolytic reaction", ES: "Reacción febril no hemolítica"},
		Description: i18n.Text{EN: "Fever or chills during or shortly after transfusion.", ES: "Fiebre o escalofríos durante o poco después de la transfusión."},
		Incidence:   "~1:300",
	},
	{
		Name:        i18n.Text{EN: "Allergic reaction", ES: "Reacción alérgica"},
		Description: i18n.Text{EN: "Urticaria or, rarely, anaphylaxis to plasma proteins.", ES: "Urticaria o, raramente, anafilaxia a proteínas plasmáticas."},
		Incidence:   "~1:250",
	},
	{
		Name:        i18n.Text{EN: "Hemolytic reaction", ES: "Reacción hemolítica"},
		Description: i18n.Text{EN: "Immune destruction of transfused cells from incompatibility.", ES: "Destrucción inmune de las células transfundidas por incompatibilidad."},
		Incidence:   "~1:76,000",
	},
	{
		Name:        i18n.Text{EN: "Transfusion-transmitted infection", ES: "Infección transmitida por transfusión"},
		Description: i18n.Text{EN: "Viral or bacterial transmission despite donor screening.", ES: "Transmisión viral o bacteriana a pesar del cribado de donantes."},
		Incidence:   "<1:1,000,000",
	},
}

// Risks returns the informational risk list in a fresh slice.
func Risks() []Risk {
	out := make([]Risk, len(transfusionRisks))
	copy(out, transfusionRisks)
	return out
}
