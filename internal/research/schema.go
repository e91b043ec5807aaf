package research

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const schemaDefinitions = `
"definitions": {
  "text": {"type": "string", "minLength": 1},
  "citations": {"type": "array", "items": {"type": "string", "pattern": "^https?://"}},
  "location": {
    "type": "object",
    "required": ["city", "country"],
    "properties": {"city": {"$ref": "#/definitions/text"}, "country": {"$ref": "#/definitions/text"}}
  },
  "company": {
    "type": "object",
    "required": ["name", "website", "summary", "headquarters", "founded", "ceo", "employees", "citations"],
    "properties": {
      "name": {"$ref": "#/definitions/text"},
      "website": {"type": "string", "pattern": "^https?://"},
      "summary": {"type": "string", "minLength": 1, "maxLength": 600},
      "headquarters": {"$ref": "#/definitions/location"},
      "founded": {"$ref": "#/definitions/text"},
      "ceo": {"$ref": "#/definitions/text"},
      "employees": {"$ref": "#/definitions/text"},
      "citations": {"$ref": "#/definitions/citations"}
    }
  },
  "trend": {
    "type": "object",
    "required": ["title", "description", "citations"],
    "properties": {
      "title": {"$ref": "#/definitions/text"},
      "description": {"type": "string", "minLength": 1, "maxLength": 400},
      "citations": {"$ref": "#/definitions/citations"}
    }
  },
  "industry": {
    "type": "object",
    "required": ["name", "summary", "trends", "citations"],
    "properties": {
      "name": {"$ref": "#/definitions/text"},
      "summary": {"type": "string", "minLength": 1, "maxLength": 600},
      "trends": {"type": "array", "maxItems": 8, "items": {"$ref": "#/definitions/trend"}},
      "citations": {"$ref": "#/definitions/citations"}
    }
  },
  "strategic_move": {
    "type": "object",
    "required": ["title", "description", "date", "citations"],
    "properties": {
      "title": {"$ref": "#/definitions/text"},
      "description": {"type": "string", "minLength": 1, "maxLength": 400},
      "date": {"$ref": "#/definitions/text"},
      "citations": {"$ref": "#/definitions/citations"}
    }
  },
  "use_case": {
    "type": "object",
    "required": ["title", "description", "value_driver", "complexity", "effort",
                 "est_annual_benefit", "est_one_time_cost", "est_ongoing_cost", "payback_months", "citations"],
    "properties": {
      "title": {"$ref": "#/definitions/text"},
      "description": {"type": "string", "minLength": 1, "maxLength": 400},
      "value_driver": {"enum": ["revenue", "cost", "risk", "speed", "quality"]},
      "complexity": {"type": "integer", "minimum": 1, "maximum": 5},
      "effort": {"type": "integer", "minimum": 1, "maximum": 5},
      "est_annual_benefit": {"type": "number", "minimum": 0},
      "est_one_time_cost": {"type": "number", "minimum": 0},
      "est_ongoing_cost": {"type": "number", "minimum": 0},
      "payback_months": {"type": "number", "minimum": 0},
      "citations": {"$ref": "#/definitions/citations"},
      "synthetic": {"type": "boolean"}
    }
  },
  "competitor": {
    "type": "object",
    "required": ["name", "website", "positioning", "ai_maturity", "innovation_focus",
                 "employee_band", "geo_fit", "evidence_pages", "citations"],
    "properties": {
      "name": {"$ref": "#/definitions/text"},
      "website": {"type": "string", "pattern": "^https?://"},
      "positioning": {"$ref": "#/definitions/text"},
      "ai_maturity": {"enum": ["none", "emerging", "established", "advanced"]},
      "innovation_focus": {"$ref": "#/definitions/text"},
      "employee_band": {"$ref": "#/definitions/text"},
      "geo_fit": {"enum": ["city", "country", "region", "broader"]},
      "evidence_pages": {"type": "array", "minItems": 2, "items": {"type": "string", "pattern": "^https?://"}},
      "citations": {"$ref": "#/definitions/citations"},
      "reference_major": {"type": "boolean"}
    }
  },
  "confidence_label": {"enum": ["High", "Medium", "Low"]}
}`

const draftSchemaJSON = `{
"$schema": "http://json-schema.org/draft-07/schema#",
"type": "object",
"required": ["company", "industry", "strategic_moves", "competitors", "use_cases"],
"properties": {
  "company": {"$ref": "#/definitions/company"},
  "industry": {"$ref": "#/definitions/industry"},
  "strategic_moves": {"type": "array", "minItems": 3, "maxItems": 5, "items": {"$ref": "#/definitions/strategic_move"}},
  "competitors": {"type": "array", "maxItems": 0},
  "use_cases": {"type": "array", "minItems": 5, "maxItems": 5, "items": {"$ref": "#/definitions/use_case"}}
},` + schemaDefinitions + `}`

const briefSchemaJSON = `{
"$schema": "http://json-schema.org/draft-07/schema#",
"type": "object",
"required": ["company", "industry", "strategic_moves", "competitors", "use_cases", "citations", "roi", "confidence", "generated_at", "model"],
"properties": {
  "company": {"$ref": "#/definitions/company"},
  "industry": {"$ref": "#/definitions/industry"},
  "strategic_moves": {"type": "array", "minItems": 3, "maxItems": 5, "items": {"$ref": "#/definitions/strategic_move"}},
  "competitors": {"type": "array", "maxItems": 6, "items": {"$ref": "#/definitions/competitor"}},
  "use_cases": {"type": "array", "minItems": 5, "maxItems": 5, "items": {"$ref": "#/definitions/use_case"}},
  "citations": {"$ref": "#/definitions/citations"},
  "roi": {
    "type": "object",
    "required": ["total_benefit", "total_investment", "overall_roi_pct", "weighted_payback_months"],
    "properties": {
      "total_benefit": {"type": "number", "minimum": 0},
      "total_investment": {"type": "number", "minimum": 0},
      "overall_roi_pct": {"type": "number", "maximum": 250},
      "weighted_payback_months": {"type": "number", "minimum": 0}
    }
  },
  "confidence": {
    "type": "object",
    "required": ["company", "industry", "strategic_moves", "competitors", "use_cases"],
    "properties": {
      "company": {"$ref": "#/definitions/confidence_label"},
      "industry": {"$ref": "#/definitions/confidence_label"},
      "strategic_moves": {"$ref": "#/definitions/confidence_label"},
      "competitors": {"$ref": "#/definitions/confidence_label"},
      "use_cases": {"$ref": "#/definitions/confidence_label"}
    }
  },
  "generated_at": {"type": "string", "minLength": 1},
  "model": {"type": "string"}
},` + schemaDefinitions + `}`

var (
	draftSchema = mustSchema(draftSchemaJSON)
	briefSchema = mustSchema(briefSchemaJSON)
)

func mustSchema(src string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("compile schema: %v", err))
	}
	return s
}

// ValidationResult is the structured diff between a document and the schema.
type ValidationResult struct {
	Errors []FieldError
}

// Valid reports whether no errors were found.
func (r ValidationResult) Valid() bool { return len(r.Errors) == 0 }

func (r *ValidationResult) add(field, format string, args ...any) {
	r.Errors = append(r.Errors, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (r *ValidationResult) sort() {
	sort.SliceStable(r.Errors, func(i, j int) bool {
		if r.Errors[i].Field != r.Errors[j].Field {
			return r.Errors[i].Field < r.Errors[j].Field
		}
		return r.Errors[i].Message < r.Errors[j].Message
	})
}

// ValidateDraft checks an extractor document against the draft schema.
func ValidateDraft(doc map[string]any) ValidationResult {
	res := validateAgainst(draftSchema, doc)
	res.sort()
	return res
}

// ValidateBrief checks an assembled brief against the full schema plus the
// cross-field rules the schema cannot express.
func ValidateBrief(b Brief) ValidationResult {
	raw, err := json.Marshal(b)
	if err != nil {
		return ValidationResult{Errors: []FieldError{{Field: "(root)", Message: "not encodable: " + err.Error()}}}
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return ValidationResult{Errors: []FieldError{{Field: "(root)", Message: err.Error()}}}
	}
	res := validateAgainst(briefSchema, doc)
	checkCompetitors(&res, b)
	res.sort()
	return res
}

func validateAgainst(schema *gojsonschema.Schema, doc map[string]any) ValidationResult {
	result, err := schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return ValidationResult{Errors: []FieldError{{Field: "(root)", Message: err.Error()}}}
	}
	res := ValidationResult{}
	if result.Valid() {
		return res
	}
	for _, desc := range result.Errors() {
		res.add(desc.Field(), "%s", desc.Description())
	}
	return res
}

func checkCompetitors(res *ValidationResult, b Brief) {
	target := RegistrableDomain(b.Company.Website)
	for i, c := range b.Competitors {
		field := fmt.Sprintf("competitors.%d", i)
		d := RegistrableDomain(c.Website)
		if d != "" && d == target {
			res.add(field+".website", "shares the company's registrable domain %s", target)
		}
		if namesOverlap(c.Name, b.Company.Name) {
			res.add(field+".name", "overlaps the company's own name")
		}
		for j, page := range c.EvidencePages {
			if RegistrableDomain(page) != d {
				res.add(fmt.Sprintf("%s.evidence_pages.%d", field, j), "is not on %s", d)
			}
		}
	}
}

// describeErrors renders a diff for prompts and logs.
func describeErrors(errs []FieldError) string {
	lines := make([]string, 0, len(errs))
	for _, e := range errs {
		lines = append(lines, "- "+e.String())
	}
	return strings.Join(lines, "\n")
}
