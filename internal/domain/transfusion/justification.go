package transfusion

import (
	"fmt"
	"time"

	"github.com/mila-health/mila/pkg/i18n"
)

// EvaluateInput carries everything the justification evaluator needs.
// The evaluator is pure: callers resolve the latest lab value and the
// patient's clinical state before calling it.
type EvaluateInput struct {
	Product              ProductType
	LabValue             *float64
	LabTakenAt           *time.Time
	Emergency            bool
	ActiveBleeding       bool
	DaysOfLife           int
	OnRespiratorySupport bool
}

// Evaluate answers whether a transfusion of the given product is indicated
// under restrictive thresholds. Emergency overrides every lab check; a
// missing lab downgrades to a warning rather than blocking, since the
// bedside decision still belongs to the clinician.
func Evaluate(in EvaluateInput) Justification {
	if in.Emergency {
		return Justification{
			Severity: SeverityOK,
			Message: i18n.T(
				"Emergency transfusion: threshold checks bypassed.",
				"Transfusión de emergencia: controles de umbral omitidos."),
		}
	}

	if in.Product == ProductOther {
		return Justification{
			Severity: SeverityOK,
			Message: i18n.T(
				"No lab-based threshold applies to this product.",
				"Ningún umbral de laboratorio aplica a este producto."),
		}
	}

	binding, ok := labBindings[in.Product]
	if !ok {
		return Justification{
			Severity: SeverityWarning,
			Message: i18n.T(
				"Unknown product type: unable to assess justification.",
				"Tipo de producto desconocido: no se puede evaluar la justificación."),
		}
	}

	if in.LabValue == nil {
		return Justification{
			Severity: SeverityWarning,
			Message: i18n.Text{
				EN: fmt.Sprintf("No recent %s result: justification cannot be assessed.", binding.LabName.EN),
				ES: fmt.Sprintf("Sin resultado reciente de %s: no se puede evaluar la justificación.", binding.LabName.ES),
			},
		}
	}

	switch in.Product {
	case ProductRBC:
		return evaluateRBC(*in.LabValue, in.DaysOfLife, in.OnRespiratorySupport)
	case ProductPlatelet:
		return evaluatePlatelet(*in.LabValue, in.ActiveBleeding)
	case ProductPlasma:
		return evaluatePlasma(*in.LabValue)
	}

	// validProducts covers every case above; keep the compiler honest.
	return Justification{Severity: SeverityWarning, Message: i18n.T(
		"Unable to assess justification.",
		"No se puede evaluar la justificación.")}
}

func evaluateRBC(hgb float64, daysOfLife int, onSupport bool) Justification {
	threshold, band := RBCThreshold(daysOfLife, onSupport)
	support := i18n.Text{EN: "no respiratory support", ES: "sin soporte respiratorio"}
	if onSupport {
		support = i18n.Text{EN: "on respiratory support", ES: "con soporte respiratorio"}
	}
	basis := fmt.Sprintf("hgb < %.1f g/dL (%s, %s)", threshold, band.EN, support.EN)

	if hgb < threshold {
		return Justification{
			Severity: SeverityOK,
			Message: i18n.Text{
				EN: fmt.Sprintf("Hemoglobin %.1f g/dL is below the %.1f g/dL threshold for %s, %s.", hgb, threshold, band.EN, support.EN),
				ES: fmt.Sprintf("Hemoglobina %.1f g/dL está por debajo del umbral de %.1f g/dL para %s, %s.", hgb, threshold, band.ES, support.ES),
			},
			ThresholdBasis: basis,
			Threshold:      &threshold,
		}
	}
	return Justification{
		Severity: SeverityCritical,
		Message: i18n.Text{
			EN: fmt.Sprintf("Hemoglobin %.1f g/dL is at or above the %.1f g/dL threshold for %s, %s: transfusion not indicated.", hgb, threshold, band.EN, support.EN),
			ES: fmt.Sprintf("Hemoglobina %.1f g/dL está en o por encima del umbral de %.1f g/dL para %s, %s: transfusión no indicada.", hgb, threshold, band.ES, support.ES),
		},
		ThresholdBasis: basis,
		Threshold:      &threshold,
	}
}

func evaluatePlatelet(plt float64, activeBleeding bool) Justification {
	threshold := PlateletThreshold
	basis := fmt.Sprintf("plt < %.0f x10^9/L (non-bleeding)", threshold)

	if plt < threshold {
		return Justification{
			Severity: SeverityOK,
			Message: i18n.Tf(
				"Platelet count %.0f is below the prophylactic threshold of %.0f x10^9/L.",
				"Recuento de plaquetas %.0f está por debajo del umbral profiláctico de %.0f x10^9/L.",
				plt, threshold),
			ThresholdBasis: basis,
			Threshold:      &threshold,
		}
	}
	if activeBleeding {
		return Justification{
			Severity: SeverityWarning,
			Message: i18n.Tf(
				"Platelet count %.0f is above the non-bleeding threshold, but active bleeding may justify transfusion.",
				"Recuento de plaquetas %.0f está por encima del umbral sin sangrado, pero el sangrado activo puede justificar la transfusión.",
				plt),
			ThresholdBasis: basis,
			Threshold:      &threshold,
		}
	}
	return Justification{
		Severity: SeverityCritical,
		Message: i18n.Tf(
			"Platelet count %.0f is at or above the %.0f x10^9/L threshold with no active bleeding: transfusion not indicated.",
			"Recuento de plaquetas %.0f está en o por encima del umbral de %.0f x10^9/L sin sangrado activo: transfusión no indicada.",
			plt, threshold),
		ThresholdBasis: basis,
		Threshold:      &threshold,
	}
}

func evaluatePlasma(inr float64) Justification {
	threshold := PlasmaINRThreshold
	basis := fmt.Sprintf("INR >= %.1f", threshold)

	if inr >= threshold {
		return Justification{
			Severity: SeverityOK,
			Message: i18n.Tf(
				"INR %.2f meets the %.1f threshold for plasma.",
				"INR %.2f cumple el umbral de %.1f para plasma.",
				inr, threshold),
			ThresholdBasis: basis,
			Threshold:      &threshold,
		}
	}
	return Justification{
		Severity: SeverityCritical,
		Message: i18n.Tf(
			"INR %.2f is below the %.1f threshold: plasma not indicated.",
			"INR %.2f está por debajo del umbral de %.1f: plasma no indicado.",
			inr, threshold),
		ThresholdBasis: basis,
		Threshold:      &threshold,
	}
}

// CumulativeExposure grades total transfused volume for one product against
// per-kilogram limits. PercentOfWarning is not capped at 100 so the caller
// can render how far past the limit the patient is.
func CumulativeExposure(p ProductType, volumeML, birthWeightGrams float64) ExposureStatus {
	limits, ok := exposureLimits[p]
	if !ok {
		limits = exposureLimits[ProductOther]
	}
	if birthWeightGrams <= 0 {
		return ExposureStatus{
			Status: SeverityWarning,
			Message: i18n.T(
				"Birth weight unknown: cumulative exposure cannot be computed.",
				"Peso al nacer desconocido: no se puede calcular la exposición acumulada."),
		}
	}

	mlPerKg := volumeML / (birthWeightGrams / 1000.0)
	percent := mlPerKg / limits.warningMLPerKg * 100.0

	status := SeverityOK
	msg := i18n.Tf(
		"Cumulative %s exposure %.1f mL/kg is within limits.",
		"Exposición acumulada de %s %.1f mL/kg está dentro de los límites.",
		p, mlPerKg)
	switch {
	case mlPerKg >= limits.criticalMLPerKg:
		status = SeverityCritical
		msg = i18n.Tf(
			"Cumulative %s exposure %.1f mL/kg exceeds the critical limit of %.0f mL/kg.",
			"Exposición acumulada de %s %.1f mL/kg supera el límite crítico de %.0f mL/kg.",
			p, mlPerKg, limits.criticalMLPerKg)
	case mlPerKg >= limits.warningMLPerKg:
		status = SeverityWarning
		msg = i18n.Tf(
			"Cumulative %s exposure %.1f mL/kg exceeds the warning limit of %.0f mL/kg.",
			"Exposición acumulada de %s %.1f mL/kg supera el límite de advertencia de %.0f mL/kg.",
			p, mlPerKg, limits.warningMLPerKg)
	}

	return ExposureStatus{
		Status:           status,
		MLPerKg:          mlPerKg,
		PercentOfWarning: percent,
		Message:          msg,
	}
}

// DonorExposure grades the distinct-donor count. Each additional donor is an
// additional alloimmunization and infection exposure.
func DonorExposure(uniqueDonors int) DonorStatus {
	status := SeverityOK
	msg := i18n.Tf(
		"%d unique donor(s): within expected exposure.",
		"%d donante(s) único(s): dentro de la exposición esperada.",
		uniqueDonors)
	switch {
	case uniqueDonors >= donorCriticalCount:
		status = SeverityCritical
		msg = i18n.Tf(
			"%d unique donors: high donor exposure, consider donor-limiting strategies.",
			"%d donantes únicos: alta exposición a donantes, considere estrategias para limitar donantes.",
			uniqueDonors)
	case uniqueDonors >= donorWarningCount:
		status = SeverityWarning
		msg = i18n.Tf(
			"%d unique donors: rising donor exposure.",
			"%d donantes únicos: exposición a donantes en aumento.",
			uniqueDonors)
	}
	return DonorStatus{Status: status, UniqueDonors: uniqueDonors, Message: msg}
}
