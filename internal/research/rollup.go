package research

import "math"

const (
	roiSoftCap      = 200.0
	roiHardCap      = 250.0
	roiSoftCapSlope = 0.3
)

// ComputeROI aggregates the use-case financials. Investment is one-time plus
// one year of ongoing cost. Raw ROI goes through CompressROI then ClampROI;
// payback is the benefit-weighted mean over use cases with positive benefit
// and payback.
func ComputeROI(useCases []UseCase) ROIRollup {
	out := ROIRollup{}
	weighted, weights := 0.0, 0.0
	for _, uc := range useCases {
		benefit := nonNegative(uc.EstAnnualBenefit)
		out.TotalBenefit += benefit
		out.TotalInvestment += nonNegative(uc.EstOneTimeCost) + nonNegative(uc.EstOngoingCost)
		if benefit > 0 && uc.PaybackMonths > 0 {
			weighted += uc.PaybackMonths * benefit
			weights += benefit
		}
	}
	if out.TotalInvestment > 0 {
		raw := (out.TotalBenefit - out.TotalInvestment) / out.TotalInvestment * 100
		out.OverallROIPct = round2(ClampROI(CompressROI(raw)))
	}
	if weights > 0 {
		out.WeightedPaybackMonths = round2(weighted / weights)
	}
	out.TotalBenefit = round2(out.TotalBenefit)
	out.TotalInvestment = round2(out.TotalInvestment)
	return out
}

// CompressROI maps raw ROI in (200, 250] onto (200, 215]. Apply it once, to
// the raw value only.
func CompressROI(x float64) float64 {
	if x > roiSoftCap && x <= roiHardCap {
		return roiSoftCap + (x-roiSoftCap)*roiSoftCapSlope
	}
	return x
}

// ClampROI caps ROI at 250%. Idempotent.
func ClampROI(x float64) float64 {
	if math.IsNaN(x) {
		return 0
	}
	return math.Min(x, roiHardCap)
}

// ConfidenceFor labels a section by how many distinct hosts back it.
func ConfidenceFor(citations []string) ConfidenceLabel {
	hosts := map[string]bool{}
	for _, c := range citations {
		if h := HostOf(c); h != "" {
			hosts[h] = true
		}
	}
	switch {
	case len(hosts) >= 5:
		return ConfidenceHigh
	case len(hosts) >= 2:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// ScoreConfidence labels every section of a brief from the citations
// attached to that section and its items.
func ScoreConfidence(company CompanyProfile, industry IndustryProfile, moves []StrategicMove, competitors []Competitor, useCases []UseCase) SectionConfidence {
	industryCites := append([]string{}, industry.Citations...)
	for _, t := range industry.Trends {
		industryCites = append(industryCites, t.Citations...)
	}
	var moveCites, compCites, ucCites []string
	for _, m := range moves {
		moveCites = append(moveCites, m.Citations...)
	}
	for _, c := range competitors {
		compCites = append(compCites, c.Citations...)
		compCites = append(compCites, c.EvidencePages...)
	}
	for _, uc := range useCases {
		ucCites = append(ucCites, uc.Citations...)
	}
	return SectionConfidence{
		Company:        ConfidenceFor(company.Citations),
		Industry:       ConfidenceFor(industryCites),
		StrategicMoves: ConfidenceFor(moveCites),
		Competitors:    ConfidenceFor(compCites),
		UseCases:       ConfidenceFor(ucCites),
	}
}

func nonNegative(v float64) float64 {
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
