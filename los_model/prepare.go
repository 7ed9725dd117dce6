package main

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// PrepareOptions configures the feature preparer.
type PrepareOptions struct {
	// StayDays is the extended-stay threshold: label is Yes iff
	// length_of_stay > StayDays.
	StayDays float64
	// CorrCutoff is the absolute pairwise-correlation threshold above
	// which one feature of a numeric pair is removed.
	CorrCutoff float64
}

func DefaultPrepareOptions() PrepareOptions {
	return PrepareOptions{StayDays: 7, CorrCutoff: 0.4}
}

// PreparedData is the complete-case dataset with derived label and
// insurance indicators, plus the correlation screen's removal decision.
type PreparedData struct {
	Records []PreparedRecord
	// Removed lists numeric features dropped by the correlation screen,
	// in removal order. The design matrix excludes them.
	Removed []string
	// Dropped is the number of raw records discarded by the
	// complete-case filter.
	Dropped int
}

// prepare derives the binary label and the insurance indicators, applies
// the complete-case policy, and runs the correlation screen. It is pure:
// the raw slice is not modified.
func prepare(raw []DischargeRecord, opts PrepareOptions) (*PreparedData, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("prepare: no input records")
	}
	if err := checkColumnSupport(raw); err != nil {
		return nil, err
	}

	prepared := make([]PreparedRecord, 0, len(raw))
	dropped := 0
	for _, r := range raw {
		if !completeCase(r) {
			dropped++
			continue
		}
		p := PreparedRecord{
			AgeGroup:      r.AgeGroup,
			Gender:        r.Gender,
			Race:          r.Race,
			Ethnicity:     r.Ethnicity,
			AdmissionType: r.AdmissionType,
			Severity:      r.Severity,
			MortalityRisk: r.MortalityRisk,
			MedSurg:       r.MedSurg,
			TotalCharges:  r.TotalCharges,
			TotalCosts:    r.TotalCosts,
			ExtendedStay:  r.LengthOfStay > opts.StayDays,
		}
		p.Medicare = anyTypology(r, typMedicare)
		p.Medicaid = anyTypology(r, typMedicaid)
		p.Private = anyTypology(r, typPrivate)
		p.BlueCross = anyTypology(r, typBlueCross)
		p.SelfPay = anyTypology(r, typSelfPay)
		p.Government = anyTypology(r, typGovernment)
		prepared = append(prepared, p)
	}
	if len(prepared) == 0 {
		return nil, fmt.Errorf("prepare: no complete cases among %d records", len(raw))
	}

	numeric := map[string][]float64{
		colTotalCharges: column(prepared, func(p PreparedRecord) float64 { return p.TotalCharges }),
		colTotalCosts:   column(prepared, func(p PreparedRecord) float64 { return p.TotalCosts }),
	}
	removed := correlationScreen([]string{colTotalCharges, colTotalCosts}, numeric, opts.CorrCutoff)

	return &PreparedData{Records: prepared, Removed: removed, Dropped: dropped}, nil
}

// completeCase reports whether every retained field is present. Absent
// payment typologies do not count as missing: the indicators treat them
// as non-matching.
func completeCase(r DischargeRecord) bool {
	for _, s := range []string{
		r.AgeGroup, r.Gender, r.Race, r.Ethnicity,
		r.AdmissionType, r.Severity, r.MortalityRisk, r.MedSurg,
	} {
		if s == "" {
			return false
		}
	}
	return !math.IsNaN(r.LengthOfStay) &&
		!math.IsNaN(r.TotalCharges) &&
		!math.IsNaN(r.TotalCosts)
}

// anyTypology is true if any of the three payment typologies equals cat.
func anyTypology(r DischargeRecord, cat string) bool {
	for _, t := range []*string{r.PayTypology1, r.PayTypology2, r.PayTypology3} {
		if t != nil && *t == cat {
			return true
		}
	}
	return false
}

// checkColumnSupport fails when a required column carries no usable value
// in any record.
func checkColumnSupport(raw []DischargeRecord) error {
	checks := []struct {
		col string
		has func(DischargeRecord) bool
	}{
		{colAgeGroup, func(r DischargeRecord) bool { return r.AgeGroup != "" }},
		{colGender, func(r DischargeRecord) bool { return r.Gender != "" }},
		{colRace, func(r DischargeRecord) bool { return r.Race != "" }},
		{colEthnicity, func(r DischargeRecord) bool { return r.Ethnicity != "" }},
		{colAdmissionType, func(r DischargeRecord) bool { return r.AdmissionType != "" }},
		{colSeverity, func(r DischargeRecord) bool { return r.Severity != "" }},
		{colMortalityRisk, func(r DischargeRecord) bool { return r.MortalityRisk != "" }},
		{colMedSurg, func(r DischargeRecord) bool { return r.MedSurg != "" }},
		{colLengthOfStay, func(r DischargeRecord) bool { return !math.IsNaN(r.LengthOfStay) }},
		{colTotalCharges, func(r DischargeRecord) bool { return !math.IsNaN(r.TotalCharges) }},
		{colTotalCosts, func(r DischargeRecord) bool { return !math.IsNaN(r.TotalCosts) }},
	}
	for _, c := range checks {
		seen := false
		for _, r := range raw {
			if c.has(r) {
				seen = true
				break
			}
		}
		if !seen {
			return fmt.Errorf("prepare: column %s has no usable values", c.col)
		}
	}
	return nil
}

func column(recs []PreparedRecord, get func(PreparedRecord) float64) []float64 {
	out := make([]float64, len(recs))
	for i, r := range recs {
		out[i] = get(r)
	}
	return out
}

// correlationScreen removes features until no pair of remaining numeric
// features has |r| above the cutoff. From each offending pair the feature
// with the highest mean absolute correlation to all remaining features is
// removed; ties go to the later column. Deterministic given input order.
func correlationScreen(names []string, cols map[string][]float64, cutoff float64) []string {
	active := append([]string(nil), names...)
	var removed []string

	for len(active) > 1 {
		over := false
		for i := 0; i < len(active) && !over; i++ {
			for j := i + 1; j < len(active); j++ {
				r := stat.Correlation(cols[active[i]], cols[active[j]], nil)
				if math.Abs(r) > cutoff {
					over = true
					break
				}
			}
		}
		if !over {
			break
		}

		// Mean absolute correlation of each active feature to the others.
		worst, worstMean := -1, math.Inf(-1)
		for i := range active {
			sum := 0.0
			for j := range active {
				if i == j {
					continue
				}
				r := stat.Correlation(cols[active[i]], cols[active[j]], nil)
				if !math.IsNaN(r) {
					sum += math.Abs(r)
				}
			}
			mean := sum / float64(len(active)-1)
			if mean >= worstMean { // >= so ties pick the later column
				worst, worstMean = i, mean
			}
		}
		removed = append(removed, active[worst])
		active = append(active[:worst], active[worst+1:]...)
	}

	return removed
}
