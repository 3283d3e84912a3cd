package assistant

import (
	"fmt"
	"strings"
	"time"

	"github.com/mila-health/mila/internal/domain/lab"
	"github.com/mila-health/mila/internal/domain/patient"
	"github.com/mila-health/mila/internal/domain/transfusion"
	"github.com/mila-health/mila/internal/domain/treatmentplan"
)

// BuildContext renders the patient snapshot the assistant reasons over, in
// the clinician's language. Plain text, newest facts first; the assistant
// never sees the database.
func BuildContext(p *patient.Patient, a *transfusion.Assessment, labs []*lab.Value, plans []*treatmentplan.Plan, lang string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Patient %s %s (MRN %s), GA %.1f weeks at birth, birth weight %.0f g, day of life %d.\n",
		p.FirstName, p.LastName, p.MedicalRecordNumber, p.GestationalAgeWeeks,
		p.BirthWeightGrams, p.DaysOfLife(time.Now()))
	fmt.Fprintf(&b, "Respiratory support: %t, supplemental oxygen: %t.\n", p.OnRespiratorySupport, p.OnOxygen)

	if a != nil {
		fmt.Fprintf(&b, "\nTransfusion history: %d total (%d RBC, expected %d-%d for GA, average %d), %d unique donors.\n",
			a.Stats.TotalCount, a.Analysis.RBCCount,
			a.Analysis.Expected.Low, a.Analysis.Expected.High, a.Analysis.Expected.Average,
			a.Stats.UniqueDonors)
		if a.Analysis.ExcessSeverity != transfusion.ExcessNone {
			fmt.Fprintf(&b, "Transfusion count flagged %s; hemolysis risk %s.\n",
				a.Analysis.ExcessSeverity, a.Analysis.HemolysisRisk)
			for _, ind := range a.Analysis.HemolysisIndicators {
				fmt.Fprintf(&b, "- %s\n", ind.In(lang))
			}
		}
		for product, exp := range a.Exposure {
			fmt.Fprintf(&b, "Cumulative %s exposure: %.1f mL/kg (%s).\n", product, exp.MLPerKg, exp.Status)
		}
	}

	if len(labs) > 0 {
		b.WriteString("\nRecent labs (newest per type):\n")
		seen := map[string]bool{}
		for i := len(labs) - 1; i >= 0; i-- {
			v := labs[i]
			if seen[v.TypeID] {
				continue
			}
			seen[v.TypeID] = true
			fmt.Fprintf(&b, "- %s: %.2f %s (%s)\n", v.TypeID, v.Value, v.Unit,
				v.OccurredAt.Format("2006-01-02 15:04"))
		}
	}

	if len(plans) > 0 {
		b.WriteString("\nTreatment plans:\n")
		for _, pl := range plans {
			pr := pl.Progress()
			fmt.Fprintf(&b, "- [%s] %s (%s, %d/%d actions done", pl.Category, pl.Title.In(lang), pl.Status, pr.Completed, pr.Total)
			if pl.IsOnHold {
				b.WriteString(", on hold")
			}
			b.WriteString(")\n")
		}
	}

	return b.String()
}
