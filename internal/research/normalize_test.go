package research

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"€50,000", 50000, true},
		{"50.000 EUR", 50000, true},
		{"1.2M", 1200000, true},
		{"1,5 Mio", 1500000, true},
		{"250k", 250000, true},
		{"12 months", 12, true},
		{"1,234.56", 1234.56, true},
		{"1.234,56", 1234.56, true},
		{"2 Mrd", 2e9, true},
		{"-300", -300, true},
		{"TBD", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, ok := parseAmount(tc.in)
			assert.Equal(t, tc.ok, ok)
			assert.InDelta(t, tc.want, got, 1e-6)
		})
	}
}

func TestNormalizeCoercesUseCaseFields(t *testing.T) {
	doc := draftDoc(5)
	uc := doc["use_cases"].([]any)[0].(map[string]any)
	uc["complexity"] = float64(9)
	delete(uc, "effort")
	uc["est_annual_benefit"] = "€120,000"
	uc["est_one_time_cost"] = -5.0
	uc["est_ongoing_cost"] = nil
	uc["value_driver"] = " Cost "

	out, report := Normalize(doc, NormalizeOptions{})
	got := out["use_cases"].([]any)[0].(map[string]any)
	assert.Equal(t, 5, got["complexity"])
	assert.Equal(t, 3, got["effort"])
	assert.Equal(t, 120000.0, got["est_annual_benefit"])
	assert.Equal(t, 0.0, got["est_one_time_cost"])
	assert.Equal(t, 0.0, got["est_ongoing_cost"])
	assert.Equal(t, "cost", got["value_driver"])
	assert.Positive(t, report.CoercedFields)
	assert.True(t, ValidateDraft(out).Valid(), "%v", ValidateDraft(out).Errors)

	orig := doc["use_cases"].([]any)[0].(map[string]any)
	assert.Equal(t, float64(9), orig["complexity"], "input must not be mutated")
}

func TestNormalizeFillsMissingTextWithTBD(t *testing.T) {
	doc := draftDoc(5)
	company := doc["company"].(map[string]any)
	company["ceo"] = nil
	company["founded"] = "unknown"
	delete(company, "headquarters")
	company["summary"] = strings.Repeat("a", 700)

	out, _ := Normalize(doc, NormalizeOptions{Website: "https://acme-logistik.de"})
	c := out["company"].(map[string]any)
	assert.Equal(t, TBD, c["ceo"])
	assert.Equal(t, TBD, c["founded"])
	assert.Equal(t, TBD, c["headquarters"].(map[string]any)["city"])
	assert.Len(t, []rune(c["summary"].(string)), MaxSummaryChars)
	assert.True(t, ValidateDraft(out).Valid())
}

func TestNormalizeOverridesModelWebsite(t *testing.T) {
	doc := draftDoc(5)
	doc["company"].(map[string]any)["website"] = "https://acme-holding.com"

	out, _ := Normalize(doc, NormalizeOptions{Website: "https://acme-logistik.de"})
	assert.Equal(t, "https://acme-logistik.de", out["company"].(map[string]any)["website"])

	out, _ = Normalize(doc, NormalizeOptions{})
	assert.Equal(t, "https://acme-holding.com", out["company"].(map[string]any)["website"])
}

func TestNormalizePadsOnlyWhenAsked(t *testing.T) {
	out, report := Normalize(draftDoc(2), NormalizeOptions{})
	assert.Len(t, out["use_cases"], 2)
	assert.Zero(t, report.PaddedUseCases)
	assert.False(t, ValidateDraft(out).Valid())

	out, report = Normalize(draftDoc(2), NormalizeOptions{PadUseCases: true})
	require.Len(t, out["use_cases"], UseCaseCount)
	assert.Equal(t, 3, report.PaddedUseCases)
	last := out["use_cases"].([]any)[4].(map[string]any)
	assert.Equal(t, true, last["synthetic"])
	assert.True(t, ValidateDraft(out).Valid())
}

func TestValidateDraftReportsFieldPaths(t *testing.T) {
	doc := draftDoc(5)
	doc["use_cases"].([]any)[1].(map[string]any)["value_driver"] = "magic"
	res := ValidateDraft(doc)
	require.False(t, res.Valid())
	assert.Equal(t, "use_cases.1.value_driver", res.Errors[0].Field)
}

func TestValidateDraftRejectsModelCompetitors(t *testing.T) {
	doc := draftDoc(5)
	doc["competitors"] = []any{map[string]any{"name": "x"}}
	assert.False(t, ValidateDraft(doc).Valid())
}

func TestTruncateRunesKeepsMultibyte(t *testing.T) {
	s := strings.Repeat("ü", 10)
	got := truncateRunes(s, 5)
	assert.Equal(t, "üüüü…", got)
	assert.Equal(t, "short", truncateRunes("short", 5))
}
