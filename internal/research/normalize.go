package research

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// NormalizeOptions controls Normalize.
type NormalizeOptions struct {
	// PadUseCases fills a short use-case list to exactly five with
	// placeholders flagged synthetic.
	PadUseCases bool
	// KnownURLs restricts citations to URLs that were actually retrieved.
	// Nil disables filtering.
	KnownURLs   map[string]bool
	CompanyName string
	Website     string
}

// NormalizeReport counts what Normalize changed.
type NormalizeReport struct {
	TruncatedUseCases int
	PaddedUseCases    int
	CoercedFields     int
	DroppedCitations  int
}

var useCaseNumericFields = []string{"est_annual_benefit", "est_one_time_cost", "est_ongoing_cost", "payback_months"}

// Normalize post-processes an extractor document before validation. It
// never mutates doc.
func Normalize(doc map[string]any, opts NormalizeOptions) (map[string]any, NormalizeReport) {
	n := &normalizer{opts: opts}
	out := cloneDocument(doc)

	company := n.object(out, "company")
	n.text(company, "name", opts.CompanyName, 0)
	// The caller's website is authoritative; self-exclusion keys on it.
	if opts.Website != "" {
		company["website"] = opts.Website
	} else {
		w, _ := company["website"].(string)
		company["website"] = w
	}
	n.text(company, "summary", "", MaxSummaryChars)
	hq := n.object(company, "headquarters")
	n.text(hq, "city", "", 0)
	n.text(hq, "country", "", 0)
	n.text(company, "founded", "", 0)
	n.text(company, "ceo", "", 0)
	n.text(company, "employees", "", 0)
	n.citations(company)

	industry := n.object(out, "industry")
	n.text(industry, "name", "", 0)
	n.text(industry, "summary", "", MaxSummaryChars)
	trends := n.objects(industry, "trends")
	if len(trends) > 8 {
		trends = trends[:8]
	}
	for _, t := range trends {
		n.text(t, "title", "", 0)
		n.text(t, "description", "", MaxDescriptionChars)
		n.citations(t)
	}
	industry["trends"] = toAnySlice(trends)
	n.citations(industry)

	moves := n.objects(out, "strategic_moves")
	if len(moves) > MaxStrategicMoves {
		moves = moves[:MaxStrategicMoves]
	}
	for _, m := range moves {
		n.text(m, "title", "", 0)
		n.text(m, "description", "", MaxDescriptionChars)
		n.text(m, "date", "", 0)
		n.citations(m)
	}
	out["strategic_moves"] = toAnySlice(moves)

	// Competitors come from discovery, never from the model.
	out["competitors"] = []any{}

	useCases := n.objects(out, "use_cases")
	if len(useCases) > UseCaseCount {
		n.report.TruncatedUseCases = len(useCases) - UseCaseCount
		useCases = useCases[:UseCaseCount]
	}
	for _, uc := range useCases {
		n.useCase(uc)
	}
	if opts.PadUseCases {
		for len(useCases) < UseCaseCount {
			useCases = append(useCases, placeholderUseCase(len(useCases)+1))
			n.report.PaddedUseCases++
		}
	}
	out["use_cases"] = toAnySlice(useCases)

	return out, n.report
}

type normalizer struct {
	opts   NormalizeOptions
	report NormalizeReport
}

func (n *normalizer) useCase(uc map[string]any) {
	n.text(uc, "title", "", 0)
	n.text(uc, "description", "", MaxDescriptionChars)
	if v, ok := uc["value_driver"].(string); ok {
		uc["value_driver"] = strings.ToLower(strings.TrimSpace(v))
	}
	for _, key := range []string{"complexity", "effort"} {
		v, ok := toNumber(uc[key])
		if !ok {
			v = 3
			n.report.CoercedFields++
		}
		clamped := math.Max(1, math.Min(5, math.Round(v)))
		if clamped != v && ok {
			n.report.CoercedFields++
		}
		uc[key] = int(clamped)
	}
	for _, key := range useCaseNumericFields {
		raw, present := uc[key]
		v, ok := toNumber(raw)
		if !ok || v < 0 {
			v = 0
		}
		if !present || !ok || isNonNumber(raw) {
			n.report.CoercedFields++
		}
		uc[key] = v
	}
	if _, ok := uc["synthetic"].(bool); !ok {
		delete(uc, "synthetic")
	}
	n.citations(uc)
}

func isNonNumber(v any) bool {
	_, isFloat := v.(float64)
	return !isFloat
}

// object returns parent[key] as an object, replacing anything else with an
// empty one.
func (n *normalizer) object(parent map[string]any, key string) map[string]any {
	if m, ok := parent[key].(map[string]any); ok {
		return m
	}
	m := map[string]any{}
	parent[key] = m
	return m
}

// objects returns the object elements of parent[key], dropping non-objects.
func (n *normalizer) objects(parent map[string]any, key string) []map[string]any {
	arr, _ := parent[key].([]any)
	out := make([]map[string]any, 0, len(arr))
	for _, v := range arr {
		if m, ok := v.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

// text coerces obj[key] to a non-empty string: fallback first, then TBD.
func (n *normalizer) text(obj map[string]any, key, fallback string, max int) {
	s := textValue(obj[key])
	if s == "" {
		s = strings.TrimSpace(fallback)
	}
	if s == "" || strings.EqualFold(s, "null") || strings.EqualFold(s, "unknown") || strings.EqualFold(s, "n/a") {
		s = TBD
	}
	if max > 0 {
		s = truncateRunes(s, max)
	}
	obj[key] = s
}

func (n *normalizer) citations(obj map[string]any) {
	arr, _ := obj["citations"].([]any)
	out := make([]any, 0, len(arr))
	seen := map[string]bool{}
	for _, v := range arr {
		u, ok := v.(string)
		u = strings.TrimSpace(u)
		if !ok || u == "" || seen[u] {
			continue
		}
		if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
			n.report.DroppedCitations++
			continue
		}
		if n.opts.KnownURLs != nil && !n.opts.KnownURLs[u] {
			n.report.DroppedCitations++
			continue
		}
		seen[u] = true
		out = append(out, u)
	}
	obj["citations"] = out
}

func placeholderUseCase(i int) map[string]any {
	return map[string]any{
		"title":              fmt.Sprintf("Placeholder use case %d", i),
		"description":        "Not enough evidence to propose a further use case.",
		"value_driver":       string(ValueQuality),
		"complexity":         1,
		"effort":             1,
		"est_annual_benefit": 0.0,
		"est_one_time_cost":  0.0,
		"est_ongoing_cost":   0.0,
		"payback_months":     0.0,
		"citations":          []any{},
		"synthetic":          true,
	}
}

func textValue(v any) string {
	switch t := v.(type) {
	case string:
		return strings.Join(strings.Fields(t), " ")
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	default:
		return ""
	}
}

func truncateRunes(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	cut := strings.TrimSpace(string(r[:max-1]))
	return cut + "…"
}

// toNumber accepts JSON numbers and the string amounts models tend to emit:
// "€50,000", "1.2M", "50.000", "12 months".
func toNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return 0, false
		}
		return t, true
	case int:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		return parseAmount(t)
	default:
		return 0, false
	}
}

func parseAmount(s string) (float64, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	start := strings.IndexFunc(s, unicode.IsDigit)
	if start < 0 {
		return 0, false
	}
	negative := start > 0 && s[start-1] == '-'
	end := start
	for end < len(s) && (s[end] >= '0' && s[end] <= '9' || s[end] == '.' || s[end] == ',') {
		end++
	}
	f, err := strconv.ParseFloat(normalizeSeparators(strings.TrimRight(s[start:end], ".,")), 64)
	if err != nil {
		return 0, false
	}
	unit := strings.TrimSpace(s[end:])
	switch {
	case strings.HasPrefix(unit, "month"), strings.HasPrefix(unit, "monat"):
	case strings.HasPrefix(unit, "k"), strings.HasPrefix(unit, "tsd"), strings.HasPrefix(unit, "thousand"):
		f *= 1e3
	case strings.HasPrefix(unit, "bn"), strings.HasPrefix(unit, "billion"), strings.HasPrefix(unit, "mrd"):
		f *= 1e9
	case strings.HasPrefix(unit, "m"):
		f *= 1e6
	}
	if negative {
		f = -f
	}
	return f, true
}

// normalizeSeparators resolves "1,234.5", "1.234,5", "50.000" and "1,5" into
// a plain decimal string.
func normalizeSeparators(s string) string {
	lastDot, lastComma := strings.LastIndex(s, "."), strings.LastIndex(s, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			return strings.Replace(s, ",", ".", 1)
		}
		return strings.ReplaceAll(s, ",", "")
	case lastComma >= 0:
		if strings.Count(s, ",") == 1 && len(s)-lastComma-1 != 3 {
			return strings.Replace(s, ",", ".", 1)
		}
		return strings.ReplaceAll(s, ",", "")
	case lastDot >= 0:
		if strings.Count(s, ".") > 1 || len(s)-lastDot-1 == 3 {
			return strings.ReplaceAll(s, ".", "")
		}
	}
	return s
}

func cloneDocument(doc map[string]any) map[string]any {
	raw, err := json.Marshal(doc)
	if err != nil {
		return map[string]any{}
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil || out == nil {
		return map[string]any{}
	}
	return out
}

func toAnySlice(in []map[string]any) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}
