package research

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/joelkehle/intelbrief/internal/observability"
	"github.com/joelkehle/intelbrief/internal/retry"
)

const (
	minIndustryHits     = 2
	minEvidencePages    = 2
	largeCompanyCutoff  = 500
	maxPositioningChars = 200
	maxEvidenceChars    = 20000
)

var geoScores = map[GeoFit]float64{
	GeoCity:    1.0,
	GeoCountry: 0.8,
	GeoRegion:  0.6,
	GeoBroader: 0.4,
}

// Fill order when relaxing geography.
var geoTiers = []GeoFit{GeoCity, GeoCountry, GeoRegion, GeoBroader}

var probePaths = []string{"/", "/about", "/ueber-uns", "/unternehmen", "/company", "/impressum"}

// Hosts that never represent a competing company.
var nonCompanyDomains = map[string]bool{
	"wikipedia.org": true, "linkedin.com": true, "xing.com": true, "facebook.com": true,
	"instagram.com": true, "youtube.com": true, "twitter.com": true, "x.com": true,
	"indeed.com": true, "indeed.de": true, "stepstone.de": true, "kununu.com": true,
	"glassdoor.com": true, "glassdoor.de": true, "crunchbase.com": true, "github.com": true,
	"medium.com": true, "google.com": true, "bing.com": true, "statista.com": true,
	"amazon.com": true, "amazon.de": true, "ebay.de": true, "trustpilot.com": true,
	"prnewswire.com": true, "businesswire.com": true, "presseportal.de": true, "openpr.de": true,
}

// Appended to every discovery query as -site: filters.
var competitorExclusions = []string{
	"wikipedia.org", "linkedin.com", "northdata.de", "kompass.com",
	"crunchbase.com", "presseportal.de", "amazon.com", "sap.com",
}

var (
	employeeCountRe = regexp.MustCompile(`(\d{1,3}(?:[.,]\d{3})+|\d+)\s*\+?\s*(?:employees|mitarbeiter(?:innen)?|mitarbeitende|beschäftigte|staff|people|team members)`)
	aiTermsRe       = regexp.MustCompile(`\b(ai|ki|künstliche intelligenz|artificial intelligence|machine learning|maschinelles lernen|deep learning|computer vision|predictive|llm|data science|neural)\b`)
)

// Page is a fetched evidence page. URL is the final URL after redirects.
type Page struct {
	URL         string
	Title       string
	Description string
	SiteName    string
	Text        string
}

// EvidenceFetcher retrieves one page and reports the final URL after
// redirects.
type EvidenceFetcher interface {
	Fetch(ctx context.Context, rawURL string) (Page, error)
}

// TargetProfile is what discovery knows about the researched company.
type TargetProfile struct {
	Name           string
	Website        string
	Domain         string
	Industry       string
	IndustryTokens []string
	City           string
	Country        string
	Employees      int
}

// NewTargetProfile merges caller hints with the extracted draft; extracted
// facts win when present.
func NewTargetProfile(in CompanyInput, d Draft) TargetProfile {
	industry := known(d.Industry.Name)
	if industry == "" {
		industry = strings.TrimSpace(in.Industry)
	}
	city := known(d.Company.Headquarters.City)
	if city == "" {
		city = strings.TrimSpace(in.Headquarters.City)
	}
	country := CanonicalCountry(d.Company.Headquarters.Country)
	if country == "" {
		country = CanonicalCountry(in.Headquarters.Country)
	}
	website := d.Company.Website
	if site, err := ParseWebsite(in.Website); err == nil {
		website = site.String()
	}
	return TargetProfile{
		Name:           strings.TrimSpace(in.Name),
		Website:        website,
		Domain:         RegistrableDomain(website),
		Industry:       industry,
		IndustryTokens: IndustryTokens(industry, in.Industry),
		City:           city,
		Country:        country,
		Employees:      parseHeadcount(d.Company.Employees),
	}
}

func known(s string) string {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, TBD) {
		return ""
	}
	return s
}

// CandidateScores holds the per-dimension fit of one candidate.
type CandidateScores struct {
	Industry     float64
	IndustryHits []string
	Geography    float64
	GeoFit       GeoFit
	Size         float64
	Employees    int
}

// ScoreCandidate rates a candidate's evidence against the target. Industry
// is 0 unless at least two distinct industry tokens occur, or the single one
// when the target has only one. Geography is 1.0 same city, 0.8 same
// country, 0.6 DACH neighbour, 0.4 elsewhere in the target's region, 0
// otherwise. Size is the headcount ratio, 0.5 when either side is unknown.
func ScoreCandidate(evidenceText, domain string, t TargetProfile) CandidateScores {
	text := strings.ToLower(evidenceText)
	out := CandidateScores{GeoFit: GeoNone}

	for _, tok := range t.IndustryTokens {
		if containsWord(text, tok) {
			out.IndustryHits = append(out.IndustryHits, tok)
		}
	}
	if need := requiredIndustryHits(len(t.IndustryTokens)); len(out.IndustryHits) >= need {
		denom := math.Max(float64(need), math.Min(float64(len(t.IndustryTokens)), 6))
		out.Industry = math.Min(1, float64(len(out.IndustryHits))/denom)
	}

	countries := mentionedCountries(text, domain)
	switch {
	case t.City != "" && containsWord(text, strings.ToLower(t.City)):
		out.GeoFit = GeoCity
	case t.Country != "" && countries[t.Country]:
		out.GeoFit = GeoCountry
	case dachCountries[t.Country] && anyIn(countries, dachCountries):
		out.GeoFit = GeoRegion
	case anyIn(countries, regionCountries(t.Country)):
		out.GeoFit = GeoBroader
	}
	out.Geography = geoScores[out.GeoFit]

	out.Employees = parseEmployeeMention(text)
	out.Size = sizeProximity(t.Employees, out.Employees)
	return out
}

// requiredIndustryHits is minIndustryHits, lowered to the token count for
// industries the vocabulary cannot widen.
func requiredIndustryHits(tokens int) int {
	if tokens > 0 && tokens < minIndustryHits {
		return tokens
	}
	return minIndustryHits
}

func anyIn(found, set map[string]bool) bool {
	for k := range found {
		if set[k] {
			return true
		}
	}
	return false
}

func sizeProximity(target, candidate int) float64 {
	if target <= 0 || candidate <= 0 {
		return 0.5
	}
	lo, hi := float64(target), float64(candidate)
	if lo > hi {
		lo, hi = hi, lo
	}
	return lo / hi
}

// parseEmployeeMention returns the largest headcount stated in text, 0 when
// none is.
func parseEmployeeMention(text string) int {
	best := 0
	for _, m := range employeeCountRe.FindAllStringSubmatch(text, -1) {
		n, err := strconv.Atoi(strings.NewReplacer(".", "", ",", "").Replace(m[1]))
		if err != nil || n <= 0 || n > 1_000_000 {
			continue
		}
		if n > best {
			best = n
		}
	}
	return best
}

// parseHeadcount reads the extractor's employees field ("250", "~1,200",
// "200-300").
func parseHeadcount(s string) int {
	s = known(s)
	if s == "" {
		return 0
	}
	if i := strings.IndexAny(s, "-–"); i > 0 {
		lo, okLo := parseAmount(s[:i])
		hi, okHi := parseAmount(s[i+1:])
		if okLo && okHi {
			return int((lo + hi) / 2)
		}
	}
	n, ok := parseAmount(s)
	if !ok || n <= 0 {
		return 0
	}
	return int(n)
}

// EmployeeBand buckets a headcount, TBD when unknown.
func EmployeeBand(n int) string {
	switch {
	case n <= 0:
		return TBD
	case n <= 10:
		return "1-10"
	case n <= 50:
		return "11-50"
	case n <= 200:
		return "51-200"
	case n <= 500:
		return "201-500"
	case n <= 1000:
		return "501-1000"
	default:
		return "1000+"
	}
}

// CompetitorQuery is one discovery search and the locality tier it targets.
type CompetitorQuery struct {
	Text string
	Tier GeoFit
}

// BuildCompetitorQueries returns the tiered discovery queries: city, then
// country and size band, then the surrounding region.
func BuildCompetitorQueries(t TargetProfile) []CompetitorQuery {
	excl := make([]string, 0, len(competitorExclusions)+1)
	for _, d := range competitorExclusions {
		excl = append(excl, "-site:"+d)
	}
	if t.Domain != "" {
		excl = append(excl, "-site:"+t.Domain)
	}
	suffix := strings.Join(excl, " ")
	kinds := "(Unternehmen OR company OR Anbieter OR Hersteller)"
	industry := t.Industry

	out := []CompetitorQuery{}
	seen := map[string]bool{}
	add := func(tier GeoFit, text string) {
		text = strings.Join(strings.Fields(text+" "+suffix), " ")
		if seen[strings.ToLower(text)] {
			return
		}
		seen[strings.ToLower(text)] = true
		out = append(out, CompetitorQuery{Text: text, Tier: tier})
	}

	if t.City != "" {
		add(GeoCity, fmt.Sprintf("%s %s %q", industry, kinds, t.City))
	}
	if t.Country != "" {
		add(GeoCountry, fmt.Sprintf("%s %s %s", industry, kinds, t.Country))
		add(GeoCountry, fmt.Sprintf("%s %s %s", industry, sizeTerms(t.Employees), t.Country))
	}
	if dachCountries[t.Country] {
		add(GeoRegion, fmt.Sprintf("%s %s (Deutschland OR Österreich OR Schweiz)", industry, kinds))
	}
	region := "Europe"
	if northAmericanCountries[t.Country] {
		region = "North America"
	}
	add(GeoBroader, fmt.Sprintf("%s companies %s", industry, region))
	return out
}

func sizeTerms(employees int) string {
	switch {
	case employees > 0 && employees < 50:
		return "(startup OR small business OR Kleinunternehmen)"
	case employees > largeCompanyCutoff:
		return "(Konzern OR group OR enterprise)"
	default:
		return "(Mittelstand OR mittelständisch OR SME)"
	}
}

// DiscoveryConfig bounds competitor discovery. Zero values take defaults.
type DiscoveryConfig struct {
	Parallelism          int
	MinCompetitors       int
	MaxCompetitors       int
	MaxCandidates        int
	MaxPagesPerCandidate int
	Search               SearchOptions
	FetchTimeout         time.Duration
	Retry                retry.Config
}

func (c DiscoveryConfig) withDefaults() DiscoveryConfig {
	if c.Parallelism <= 0 {
		c.Parallelism = 6
	}
	if c.MinCompetitors <= 0 {
		c.MinCompetitors = 3
	}
	if c.MaxCompetitors <= 0 {
		c.MaxCompetitors = 8
	}
	if c.MaxCandidates <= 0 {
		c.MaxCandidates = 24
	}
	if c.MaxPagesPerCandidate < minEvidencePages {
		c.MaxPagesPerCandidate = 4
	}
	if c.Search.MaxResults <= 0 {
		c.Search.MaxResults = 10
	}
	if c.Search.Timeout <= 0 {
		c.Search.Timeout = 12 * time.Second
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = 10 * time.Second
	}
	if c.Retry.IsRetryable == nil {
		c.Retry.IsRetryable = IsRetryable
	}
	return c
}

// Discoverer finds, verifies and ranks competitors of a target company.
type Discoverer struct {
	searcher Searcher
	fetcher  EvidenceFetcher
	cfg      DiscoveryConfig
	log      *zap.Logger
}

// NewDiscoverer returns a Discoverer. A nil log discards output.
func NewDiscoverer(searcher Searcher, fetcher EvidenceFetcher, cfg DiscoveryConfig, log *zap.Logger) *Discoverer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Discoverer{searcher: searcher, fetcher: fetcher, cfg: cfg.withDefaults(), log: log}
}

type candidate struct {
	domain   string
	name     string
	origin   string
	tier     int
	urls     []string
	snippets []Snippet
	pages    []Page
	scores   CandidateScores
	err      error
	major    bool
}

// Discover finds, verifies and ranks competitors. It never fails on a single
// candidate; only cancellation is returned as an error. Without a known
// industry and country it returns an empty list.
func (d *Discoverer) Discover(ctx context.Context, t TargetProfile) ([]Competitor, DiscoveryStats, error) {
	stats := DiscoveryStats{}
	if t.Industry == "" || t.Country == "" {
		stats.Skipped = true
		stats.SkipReason = "industry or headquarters country unknown"
		d.log.Info("competitor discovery skipped", zap.String("reason", stats.SkipReason))
		return []Competitor{}, stats, nil
	}

	queries := BuildCompetitorQueries(t)
	jobs := make([]searchJob, len(queries))
	for i, q := range queries {
		jobs[i] = searchJob{query: ResearchQuery{Text: q.Text, Intent: IntentCompetitorDiscovery}, searcher: d.searcher}
	}
	results, failed := runSearches(ctx, jobs, d.cfg.Parallelism, d.cfg.Search, d.cfg.Retry, d.log)
	stats.QueriesIssued, stats.QueriesFailed = len(jobs), failed
	if err := ctx.Err(); err != nil {
		return nil, stats, err
	}

	cands := d.collect(t, queries, results)
	stats.Candidates = len(cands)
	if err := d.gatherEvidence(ctx, cands); err != nil {
		return nil, stats, err
	}

	accepted, large := []*candidate{}, []*candidate{}
	for _, c := range cands {
		if reason := d.evaluate(t, c); reason != "" {
			stats.Rejected++
			observability.CompetitorDecisions.WithLabelValues(reason).Inc()
			d.log.Debug("competitor candidate rejected", zap.String("domain", c.domain), zap.String("reason", reason))
			continue
		}
		if c.scores.Employees > largeCompanyCutoff {
			large = append(large, c)
			continue
		}
		accepted = append(accepted, c)
	}
	stats.Rejected += len(large)
	if major := dominantMajor(large); major != nil {
		major.major = true
		accepted = append(accepted, major)
		stats.Rejected--
	}

	ranked := rankCandidates(dedupeCandidates(accepted))
	selected := []*candidate{}
	for _, tier := range geoTiers {
		for _, c := range ranked {
			if c.scores.GeoFit == tier {
				selected = append(selected, c)
			}
		}
		stats.TierReached = tier
		if len(selected) >= d.cfg.MinCompetitors {
			break
		}
	}
	if len(selected) > d.cfg.MaxCompetitors {
		selected = selected[:d.cfg.MaxCompetitors]
	}

	out := make([]Competitor, 0, len(selected))
	for _, c := range selected {
		observability.CompetitorDecisions.WithLabelValues("accepted").Inc()
		out = append(out, c.toCompetitor())
	}
	stats.Accepted = len(out)
	d.log.Info("competitor discovery finished",
		zap.Int("candidates", stats.Candidates),
		zap.Int("accepted", stats.Accepted),
		zap.String("tier_reached", string(stats.TierReached)))
	return out, stats, nil
}

// collect groups search results into one candidate per registrable domain,
// dropping the target itself and hosts that are not companies.
func (d *Discoverer) collect(t TargetProfile, queries []CompetitorQuery, results [][]Snippet) []*candidate {
	byDomain := map[string]*candidate{}
	for i, res := range results {
		tier := tierIndex(queries[i].Tier)
		for _, s := range res {
			domain := RegistrableDomain(s.URL)
			if domain == "" || domain == t.Domain || nonCompanyDomains[domain] || lowValueDomains[domain] || tierOnePublishers[domain] {
				continue
			}
			c, ok := byDomain[domain]
			if !ok {
				c = &candidate{domain: domain, tier: tier}
				byDomain[domain] = c
			}
			if tier < c.tier {
				c.tier = tier
			}
			if !containsString(c.urls, s.URL) {
				c.urls = append(c.urls, s.URL)
				c.snippets = append(c.snippets, s)
			}
		}
	}

	out := make([]*candidate, 0, len(byDomain))
	for _, c := range byDomain {
		sort.Strings(c.urls)
		sort.Slice(c.snippets, func(i, j int) bool { return c.snippets[i].URL < c.snippets[j].URL })
		c.origin = Origin(c.urls[0])
		c.name = nameFromTitles(c.snippets, c.domain)
		if namesOverlap(c.name, t.Name) {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].tier != out[j].tier {
			return out[i].tier < out[j].tier
		}
		return out[i].domain < out[j].domain
	})
	if len(out) > d.cfg.MaxCandidates {
		out = out[:d.cfg.MaxCandidates]
	}
	return out
}

func (d *Discoverer) gatherEvidence(ctx context.Context, cands []*candidate) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.cfg.Parallelism)
	for _, c := range cands {
		g.Go(func() error {
			c.pages, c.err = d.verify(gctx, c)
			return nil
		})
	}
	_ = g.Wait()
	return ctx.Err()
}

// verify fetches the candidate's result pages and a few well-known paths,
// keeping those that resolve on the candidate's own registrable domain.
func (d *Discoverer) verify(ctx context.Context, c *candidate) ([]Page, error) {
	urls := []string{}
	for _, u := range c.urls {
		if len(urls) == 2 {
			break
		}
		urls = append(urls, u)
	}
	for _, p := range probePaths {
		urls = append(urls, strings.TrimRight(c.origin, "/")+p)
	}

	pages := []Page{}
	seen := map[string]bool{}
	tried := map[string]bool{}
	for _, u := range urls {
		if len(pages) >= d.cfg.MaxPagesPerCandidate {
			break
		}
		if tried[u] {
			continue
		}
		tried[u] = true
		page, _, err := retry.Do(ctx, d.cfg.Retry, func(ctx context.Context) (Page, error) {
			cctx, cancel := context.WithTimeout(ctx, d.cfg.FetchTimeout)
			defer cancel()
			return d.fetcher.Fetch(cctx, u)
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}
		if RegistrableDomain(page.URL) != c.domain {
			continue
		}
		key := strings.TrimRight(page.URL, "/")
		if seen[key] {
			continue
		}
		seen[key] = true
		pages = append(pages, page)
	}
	if len(pages) < minEvidencePages {
		return pages, &InsufficientEvidenceError{Candidate: c.domain, Reason: fmt.Sprintf("%d resolvable page(s) on own domain", len(pages))}
	}
	return pages, nil
}

// evaluate scores c and returns a rejection reason, or "" when it passes.
func (d *Discoverer) evaluate(t TargetProfile, c *candidate) string {
	if c.err != nil {
		return "insufficient_evidence"
	}
	for _, p := range c.pages {
		if p.SiteName != "" {
			c.name = strings.TrimSpace(p.SiteName)
			break
		}
	}
	if c.domain == t.Domain || namesOverlap(c.name, t.Name) {
		return "self"
	}
	c.scores = ScoreCandidate(c.evidenceText(), c.domain, t)
	switch {
	case c.scores.Industry == 0:
		return "industry_mismatch"
	case c.scores.Geography == 0:
		return "geography_mismatch"
	}
	return ""
}

// dominantMajor picks the single large company allowed through as a
// reference point: it must beat every other large candidate outright.
func dominantMajor(large []*candidate) *candidate {
	if len(large) == 0 {
		return nil
	}
	sorted := append([]*candidate{}, large...)
	sort.Slice(sorted, func(i, j int) bool { return better(sorted[i], sorted[j]) })
	if len(sorted) > 1 && sorted[0].scores.Industry == sorted[1].scores.Industry && sorted[0].scores.Geography == sorted[1].scores.Geography {
		return nil
	}
	return sorted[0]
}

func better(a, b *candidate) bool {
	if a.scores.Industry != b.scores.Industry {
		return a.scores.Industry > b.scores.Industry
	}
	if a.scores.Geography != b.scores.Geography {
		return a.scores.Geography > b.scores.Geography
	}
	return a.domain < b.domain
}

// dedupeCandidates drops a candidate when a better ranked one has the same
// normalized name or the same registrable domain.
func dedupeCandidates(cands []*candidate) []*candidate {
	ranked := rankCandidates(cands)
	seen := map[string]bool{}
	out := make([]*candidate, 0, len(ranked))
	for _, c := range ranked {
		key := NormalizeName(c.name)
		if key == "" {
			key = c.domain
		}
		if seen[key] || seen[c.domain] {
			continue
		}
		seen[key], seen[c.domain] = true, true
		out = append(out, c)
	}
	return out
}

func rankCandidates(cands []*candidate) []*candidate {
	out := append([]*candidate{}, cands...)
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].scores, out[j].scores
		if a.Geography != b.Geography {
			return a.Geography > b.Geography
		}
		if a.Size != b.Size {
			return a.Size > b.Size
		}
		if a.Industry != b.Industry {
			return a.Industry > b.Industry
		}
		return out[i].domain < out[j].domain
	})
	return out
}

func (c *candidate) evidenceText() string {
	var b strings.Builder
	for _, s := range c.snippets {
		b.WriteString(s.Title)
		b.WriteString(" ")
		b.WriteString(s.Content)
		b.WriteString("\n")
	}
	for _, p := range c.pages {
		b.WriteString(p.Title)
		b.WriteString(" ")
		b.WriteString(p.Description)
		b.WriteString(" ")
		text := p.Text
		if len(text) > maxEvidenceChars {
			text = text[:maxEvidenceChars]
		}
		b.WriteString(text)
		b.WriteString("\n")
	}
	return b.String()
}

func (c *candidate) toCompetitor() Competitor {
	text := strings.ToLower(c.evidenceText())
	evidence := make([]string, 0, len(c.pages))
	for _, p := range c.pages {
		evidence = append(evidence, p.URL)
	}
	sort.Strings(evidence)
	citations := append([]string{}, c.urls...)
	return Competitor{
		Name:            c.name,
		Website:         c.origin,
		Positioning:     c.positioning(),
		AIMaturity:      aiMaturity(text),
		InnovationFocus: innovationFocus(c.scores.IndustryHits, text),
		EmployeeBand:    EmployeeBand(c.scores.Employees),
		GeoFit:          c.scores.GeoFit,
		EvidencePages:   evidence,
		Citations:       citations,
		ReferenceMajor:  c.major,
	}
}

func (c *candidate) positioning() string {
	for _, p := range c.pages {
		if d := strings.TrimSpace(p.Description); d != "" {
			return truncateRunes(strings.Join(strings.Fields(d), " "), maxPositioningChars)
		}
	}
	for _, s := range c.snippets {
		if sentence := firstSentence(s.Content); sentence != "" {
			return truncateRunes(sentence, maxPositioningChars)
		}
	}
	return TBD
}

func aiMaturity(text string) string {
	switch n := len(aiTermsRe.FindAllString(text, -1)); {
	case n == 0:
		return "none"
	case n <= 2:
		return "emerging"
	case n <= 5:
		return "established"
	default:
		return "advanced"
	}
}

func innovationFocus(hits []string, text string) string {
	focus := append([]string{}, hits...)
	if len(focus) > 3 {
		focus = focus[:3]
	}
	if aiTermsRe.MatchString(text) {
		focus = append(focus, "AI")
	}
	if len(focus) == 0 {
		return TBD
	}
	return strings.Join(focus, ", ")
}

func firstSentence(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if i := strings.IndexAny(s, ".!?"); i > 20 {
		return s[:i+1]
	}
	return s
}

var titleSeparators = []string{" | ", " - ", " – ", " — ", ": ", " · "}

// nameFromTitles picks the title segment sharing most words with the domain
// label; without any overlap the domain label itself becomes the name.
func nameFromTitles(snippets []Snippet, domain string) string {
	label := NormalizeName(domainLabel(domain))
	labelWords := strings.Fields(label)
	bestName, bestScore := "", 0
	for _, s := range snippets {
		segments := []string{s.Title}
		for _, sep := range titleSeparators {
			next := []string{}
			for _, seg := range segments {
				next = append(next, strings.Split(seg, sep)...)
			}
			segments = next
		}
		for _, seg := range segments {
			seg = strings.TrimSpace(seg)
			norm := NormalizeName(seg)
			if norm == "" || len(strings.Fields(seg)) > 6 {
				continue
			}
			score := 0
			for _, w := range labelWords {
				if strings.Contains(norm, w) {
					score++
				}
			}
			if strings.Contains(strings.ReplaceAll(label, " ", ""), strings.ReplaceAll(norm, " ", "")) {
				score++
			}
			if score > bestScore {
				bestName, bestScore = seg, score
			}
		}
	}
	if bestName != "" {
		return bestName
	}
	return cases.Title(language.Und).String(domainLabel(domain))
}

func tierIndex(g GeoFit) int {
	for i, t := range geoTiers {
		if t == g {
			return i
		}
	}
	return len(geoTiers)
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
