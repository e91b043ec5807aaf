package research

import (
	"sort"
	"time"
)

// AssembleInput is everything Assemble merges into a Brief.
type AssembleInput struct {
	Draft       Draft
	// Website, when set, replaces the draft's company website.
	Website     string
	Competitors []Competitor
	Model       string
	GeneratedAt time.Time
}

// Assemble merges the draft with discovered competitors, computes the ROI
// rollup and confidence labels, and validates the whole brief. A brief that
// fails validation is never returned.
func Assemble(in AssembleInput) (Brief, error) {
	d := in.Draft
	competitors := append([]Competitor{}, in.Competitors...)
	if len(competitors) > MaxBriefCompetitors {
		competitors = competitors[:MaxBriefCompetitors]
	}
	useCases := append([]UseCase{}, d.UseCases...)
	if len(useCases) > UseCaseCount {
		useCases = useCases[:UseCaseCount]
	}

	b := Brief{
		Company:        d.Company,
		Industry:       d.Industry,
		StrategicMoves: append([]StrategicMove{}, d.StrategicMoves...),
		Competitors:    competitors,
		UseCases:       useCases,
		ROI:            ComputeROI(useCases),
		Confidence:     ScoreConfidence(d.Company, d.Industry, d.StrategicMoves, competitors, useCases),
		GeneratedAt:    in.GeneratedAt.UTC(),
		Model:          in.Model,
	}
	if in.Website != "" {
		b.Company.Website = in.Website
	}
	b.Industry.Trends = append([]Trend{}, d.Industry.Trends...)
	if b.GeneratedAt.IsZero() {
		b.GeneratedAt = time.Now().UTC()
	}
	fillEmptySlices(&b)
	b.Citations = collectCitations(b)

	if res := ValidateBrief(b); !res.Valid() {
		return Brief{}, &SchemaValidationError{Attempts: 1, Errors: res.Errors}
	}
	return b, nil
}

// collectCitations returns every URL cited anywhere in b, sorted and
// deduplicated.
func collectCitations(b Brief) []string {
	seen := map[string]bool{}
	add := func(urls []string) {
		for _, u := range urls {
			if u != "" {
				seen[u] = true
			}
		}
	}
	add(b.Company.Citations)
	add(b.Industry.Citations)
	for _, t := range b.Industry.Trends {
		add(t.Citations)
	}
	for _, m := range b.StrategicMoves {
		add(m.Citations)
	}
	for _, c := range b.Competitors {
		add(c.Citations)
		add(c.EvidencePages)
	}
	for _, uc := range b.UseCases {
		add(uc.Citations)
	}
	out := make([]string, 0, len(seen))
	for u := range seen {
		out = append(out, u)
	}
	sort.Strings(out)
	return out
}

// fillEmptySlices replaces nil slices so the encoded brief carries [] rather
// than null.
func fillEmptySlices(b *Brief) {
	if b.Company.Citations == nil {
		b.Company.Citations = []string{}
	}
	if b.Industry.Citations == nil {
		b.Industry.Citations = []string{}
	}
	if b.Industry.Trends == nil {
		b.Industry.Trends = []Trend{}
	}
	for i := range b.Industry.Trends {
		if b.Industry.Trends[i].Citations == nil {
			b.Industry.Trends[i].Citations = []string{}
		}
	}
	for i := range b.StrategicMoves {
		if b.StrategicMoves[i].Citations == nil {
			b.StrategicMoves[i].Citations = []string{}
		}
	}
	for i := range b.Competitors {
		if b.Competitors[i].Citations == nil {
			b.Competitors[i].Citations = []string{}
		}
	}
	for i := range b.UseCases {
		if b.UseCases[i].Citations == nil {
			b.UseCases[i].Citations = []string{}
		}
	}
}
