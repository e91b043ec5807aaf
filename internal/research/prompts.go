package research

import (
	"encoding/json"
	"fmt"
	"strings"
)

const extractionSystemPrompt = "You are a business research analyst preparing a company intelligence brief for a consulting team. " +
	"You only state facts supported by the numbered sources you are given, you never invent companies, people, dates or figures, " +
	"and you return strict JSON only."

const draftSchemaPrompt = `Return a JSON object with exactly these keys:
{
  "company": {
    "name": string,
    "website": string (absolute URL),
    "summary": string (max 600 characters),
    "headquarters": {"city": string, "country": string},
    "founded": string,
    "ceo": string,
    "employees": string,
    "citations": [source URL, ...]
  },
  "industry": {
    "name": string,
    "summary": string (max 600 characters),
    "trends": [{"title": string, "description": string (max 400 characters), "citations": [source URL, ...]}],
    "citations": [source URL, ...]
  },
  "strategic_moves": [3 to 5 items of {"title": string, "description": string (max 400 characters), "date": string, "citations": [source URL, ...]}],
  "competitors": [],
  "use_cases": [exactly 5 items of {
    "title": string,
    "description": string (max 400 characters),
    "value_driver": "revenue" | "cost" | "risk" | "speed" | "quality",
    "complexity": integer 1-5,
    "effort": integer 1-5,
    "est_annual_benefit": number (EUR, >= 0),
    "est_one_time_cost": number (EUR, >= 0),
    "est_ongoing_cost": number (EUR per year, >= 0),
    "payback_months": number (>= 0),
    "citations": [source URL, ...]
  }]
}

Rules:
- Use only the sources below. Cite sources by their exact URL.
- If a fact is not supported by any source, write "TBD". Do not guess.
- Leave "competitors" as an empty array. Competitors are researched separately.
- Every use case must carry all four numeric fields as plain numbers (no currency symbols, no ranges, no null).
- Use cases must be specific to this company's operations and plausible at its size.
- Return JSON only. No markdown, no commentary.`

// BuildExtractionPrompt renders the first-call prompt: target, numbered
// snippets and the draft contract.
func BuildExtractionPrompt(in CompanyInput, website string, set SnippetSet) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Company: %s\nWebsite: %s\n", strings.TrimSpace(in.Name), website)
	if in.Industry != "" {
		fmt.Fprintf(&b, "Industry hint: %s\n", in.Industry)
	}
	if in.Headquarters.City != "" || in.Headquarters.Country != "" {
		fmt.Fprintf(&b, "Headquarters hint: %s\n", strings.Trim(in.Headquarters.City+", "+in.Headquarters.Country, ", "))
	}
	b.WriteString("\nSources:\n")
	for i, s := range set.Snippets {
		fmt.Fprintf(&b, "[%d] %s\nURL: %s\n", i+1, strings.TrimSpace(s.Title), s.URL)
		if s.PublishedAt != nil {
			fmt.Fprintf(&b, "Published: %s\n", s.PublishedAt.UTC().Format("2006-01-02"))
		}
		fmt.Fprintf(&b, "%s\n\n", strings.TrimSpace(s.Content))
	}
	b.WriteString(draftSchemaPrompt)
	return b.String()
}

// BuildRepairPrompt asks for a corrected document. The original prompt is
// repeated so the model sees the same sources; prior may be nil when the
// previous answer was not JSON at all.
func BuildRepairPrompt(original string, prior json.RawMessage, errs []FieldError) string {
	var b strings.Builder
	b.WriteString(original)
	b.WriteString("\n\nYour previous response failed validation.\n")
	if len(prior) > 0 {
		b.WriteString("Previous response:\n")
		b.Write(prior)
		b.WriteString("\n")
	} else {
		b.WriteString("Your previous response was not a valid JSON object.\n")
	}
	if len(errs) > 0 {
		b.WriteString("Validation errors:\n")
		b.WriteString(describeErrors(errs))
		b.WriteString("\n")
	}
	b.WriteString("Fix every error listed above, keep everything that was valid, and return the complete corrected JSON object only.")
	return b.String()
}
