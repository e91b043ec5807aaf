package research

import "time"

// Defaults and fixed limits of a brief.
const (
	DefaultLLMModel = "claude-sonnet-4-5"

	// TBD marks a text fact the evidence did not support.
	TBD = "TBD"

	UseCaseCount         = 5
	MinStrategicMoves    = 3
	MaxStrategicMoves    = 5
	MaxBriefCompetitors  = 6
	MaxSummaryChars      = 600
	MaxDescriptionChars  = 400
	DefaultMaxSnippets   = 18
	DefaultSearchResults = 8
)

// Intent tags what a research query is meant to find.
type Intent string

const (
	IntentCompanyFacts        Intent = "company_facts"
	IntentCEOLookup           Intent = "ceo_lookup"
	IntentIndustry            Intent = "industry"
	IntentNews                Intent = "news"
	IntentCompetitorDiscovery Intent = "competitor_discovery"
)

// ValueDriver is the business lever a use case moves.
type ValueDriver string

const (
	ValueRevenue ValueDriver = "revenue"
	ValueCost    ValueDriver = "cost"
	ValueRisk    ValueDriver = "risk"
	ValueSpeed   ValueDriver = "speed"
	ValueQuality ValueDriver = "quality"
)

// ConfidenceLabel grades how well a section is sourced.
type ConfidenceLabel string

const (
	ConfidenceHigh   ConfidenceLabel = "High"
	ConfidenceMedium ConfidenceLabel = "Medium"
	ConfidenceLow    ConfidenceLabel = "Low"
)

// GeoFit is a competitor's locality tier relative to the target.
type GeoFit string

const (
	GeoCity    GeoFit = "city"
	GeoCountry GeoFit = "country"
	GeoRegion  GeoFit = "region"
	GeoBroader GeoFit = "broader"
	GeoNone    GeoFit = "none"
)

// Location is a headquarters city and country.
type Location struct {
	City    string `json:"city"`
	Country string `json:"country"`
}

// CompanyInput identifies the company to research. Industry, Headquarters
// and SizeHint are optional hints that sharpen the generated queries.
type CompanyInput struct {
	Name         string   `json:"name"`
	Website      string   `json:"website"`
	Industry     string   `json:"industry,omitempty"`
	Headquarters Location `json:"headquarters,omitempty"`
	SizeHint     string   `json:"size_hint,omitempty"`
}

// ResearchQuery is one search issued during retrieval.
type ResearchQuery struct {
	Text   string `json:"text"`
	Intent Intent `json:"intent"`
}

// Snippet is one search result. URL identifies it.
type Snippet struct {
	Title       string     `json:"title"`
	URL         string     `json:"url"`
	Content     string     `json:"content"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	Source      string     `json:"source,omitempty"`
}

// SnippetSet is the selected evidence and its citation URLs, in rank order.
type SnippetSet struct {
	Snippets  []Snippet `json:"snippets"`
	Citations []string  `json:"citations"`
}

// CompanyProfile holds the target's company facts.
type CompanyProfile struct {
	Name         string   `json:"name"`
	Website      string   `json:"website"`
	Summary      string   `json:"summary"`
	Headquarters Location `json:"headquarters"`
	Founded      string   `json:"founded"`
	CEO          string   `json:"ceo"`
	Employees    string   `json:"employees"`
	Citations    []string `json:"citations"`
}

// Trend is one industry development with its sources.
type Trend struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Citations   []string `json:"citations"`
}

// IndustryProfile summarizes the target's industry.
type IndustryProfile struct {
	Name      string   `json:"name"`
	Summary   string   `json:"summary"`
	Trends    []Trend  `json:"trends"`
	Citations []string `json:"citations"`
}

// StrategicMove is a dated company initiative with its sources.
type StrategicMove struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Date        string   `json:"date"`
	Citations   []string `json:"citations"`
}

// Competitor is a verified, ranked competitor.
type Competitor struct {
	Name            string   `json:"name"`
	Website         string   `json:"website"`
	Positioning     string   `json:"positioning"`
	AIMaturity      string   `json:"ai_maturity"`
	InnovationFocus string   `json:"innovation_focus"`
	EmployeeBand    string   `json:"employee_band"`
	GeoFit          GeoFit   `json:"geo_fit"`
	EvidencePages   []string `json:"evidence_pages"`
	Citations       []string `json:"citations"`
	ReferenceMajor  bool     `json:"reference_major,omitempty"`
}

// UseCase is one ranked AI opportunity with its financial estimate.
type UseCase struct {
	Title            string      `json:"title"`
	Description      string      `json:"description"`
	ValueDriver      ValueDriver `json:"value_driver"`
	Complexity       int         `json:"complexity"`
	Effort           int         `json:"effort"`
	EstAnnualBenefit float64     `json:"est_annual_benefit"`
	EstOneTimeCost   float64     `json:"est_one_time_cost"`
	EstOngoingCost   float64     `json:"est_ongoing_cost"`
	PaybackMonths    float64     `json:"payback_months"`
	Citations        []string    `json:"citations"`
	Synthetic        bool        `json:"synthetic,omitempty"`
}

// ROIRollup aggregates the use-case financials.
type ROIRollup struct {
	TotalBenefit          float64 `json:"total_benefit"`
	TotalInvestment       float64 `json:"total_investment"`
	OverallROIPct         float64 `json:"overall_roi_pct"`
	WeightedPaybackMonths float64 `json:"weighted_payback_months"`
}

// SectionConfidence labels each brief section.
type SectionConfidence struct {
	Company        ConfidenceLabel `json:"company"`
	Industry       ConfidenceLabel `json:"industry"`
	StrategicMoves ConfidenceLabel `json:"strategic_moves"`
	Competitors    ConfidenceLabel `json:"competitors"`
	UseCases       ConfidenceLabel `json:"use_cases"`
}

// Draft is the extractor's output: everything in a Brief that the language
// model is allowed to produce. Competitors is always empty here.
type Draft struct {
	Company        CompanyProfile  `json:"company"`
	Industry       IndustryProfile `json:"industry"`
	StrategicMoves []StrategicMove `json:"strategic_moves"`
	Competitors    []Competitor    `json:"competitors"`
	UseCases       []UseCase       `json:"use_cases"`
}

// Brief is the final assembled document. It is built once and never
// mutated; callers receive it by value.
type Brief struct {
	Company        CompanyProfile    `json:"company"`
	Industry       IndustryProfile   `json:"industry"`
	StrategicMoves []StrategicMove   `json:"strategic_moves"`
	Competitors    []Competitor      `json:"competitors"`
	UseCases       []UseCase         `json:"use_cases"`
	Citations      []string          `json:"citations"`
	ROI            ROIRollup         `json:"roi"`
	Confidence     SectionConfidence `json:"confidence"`
	GeneratedAt    time.Time         `json:"generated_at"`
	Model          string            `json:"model"`
}

// ExtractMetrics records how the extraction stage went.
type ExtractMetrics struct {
	Calls             int  `json:"calls"`
	Repaired          bool `json:"repaired"`
	TransportRetried  bool `json:"transport_retried"`
	TruncatedUseCases int  `json:"truncated_use_cases"`
	PaddedUseCases    int  `json:"padded_use_cases"`
	DroppedCitations  int  `json:"dropped_citations"`
}

// RetrievalStats records how the retrieval stage went.
type RetrievalStats struct {
	QueriesIssued   int `json:"queries_issued"`
	QueriesFailed   int `json:"queries_failed"`
	SnippetsFound   int `json:"snippets_found"`
	SnippetsChosen  int `json:"snippets_chosen"`
	DistinctDomains int `json:"distinct_domains"`
}

// DiscoveryStats records how competitor discovery went.
type DiscoveryStats struct {
	Skipped       bool   `json:"skipped"`
	SkipReason    string `json:"skip_reason,omitempty"`
	QueriesIssued int    `json:"queries_issued"`
	QueriesFailed int    `json:"queries_failed"`
	Candidates    int    `json:"candidates"`
	Rejected      int    `json:"rejected"`
	Accepted      int    `json:"accepted"`
	TierReached   GeoFit `json:"tier_reached,omitempty"`
}

// PipelineMetadata describes one pipeline run.
type PipelineMetadata struct {
	StartedAt      time.Time      `json:"started_at"`
	CompletedAt    time.Time      `json:"completed_at"`
	DurationMS     int64          `json:"duration_ms"`
	Model          string         `json:"model"`
	StagesExecuted []string       `json:"stages_executed"`
	Queries        int            `json:"queries"`
	Retrieval      RetrievalStats `json:"retrieval"`
	Extraction     ExtractMetrics `json:"extraction"`
	Discovery      DiscoveryStats `json:"discovery"`
}

// Result is a brief with its run metadata. Metadata is filled in even when
// the run fails.
type Result struct {
	Brief     Brief            `json:"brief"`
	Citations []string         `json:"citations"`
	Metadata  PipelineMetadata `json:"metadata"`
}
