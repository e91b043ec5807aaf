package research

import (
	"fmt"
	"strings"
)

// Localized synonym families for fact queries. English first, German second:
// the target market is DACH but much coverage is English.
var (
	foundedTerms      = []string{"founded", "established", "incorporated", "gegründet"}
	ceoTerms          = []string{"CEO", `"chief executive"`, "Geschäftsführer", "founder"}
	headcountTerms    = []string{"employees", "Mitarbeiter", "headcount", `"team size"`}
	headquartersTerms = []string{"headquarters", "headquartered", "Hauptsitz", "Firmensitz"}
	aboutTerms        = []string{"about", `"über uns"`, "company", "unternehmen"}
	newsTerms         = []string{"news", "press", "presse", "blog"}
	strategyTerms     = []string{"strategy", "expansion", "partnership", "acquisition", "investment"}
)

func anyOf(terms []string) string {
	return "(" + strings.Join(terms, " OR ") + ")"
}

// BuildQueries returns the ordered research plan for one company: anchored
// queries on its own site, then fact lookups, then industry and news
// context, then a single placeholder competitor query. Pure.
func BuildQueries(in CompanyInput) ([]ResearchQuery, error) {
	name := strings.Join(strings.Fields(in.Name), " ")
	if name == "" {
		return nil, &InvalidInputError{Field: "name", Reason: "is required"}
	}
	site, err := ParseWebsite(in.Website)
	if err != nil {
		return nil, err
	}
	domain := RegistrableDomain(site.String())
	quoted := fmt.Sprintf("%q", name)
	industry := strings.TrimSpace(in.Industry)
	country := strings.TrimSpace(in.Headquarters.Country)

	b := newQueryList()

	b.add(IntentCompanyFacts, fmt.Sprintf("site:%s %s", domain, quoted))
	b.add(IntentCompanyFacts, fmt.Sprintf("site:%s %s", domain, anyOf(aboutTerms)))
	b.add(IntentNews, fmt.Sprintf("site:%s %s", domain, anyOf(newsTerms)))

	b.add(IntentCompanyFacts, fmt.Sprintf("%s %s", quoted, anyOf(foundedTerms)))
	b.add(IntentCEOLookup, fmt.Sprintf("%s %s", quoted, anyOf(ceoTerms)))
	b.add(IntentCompanyFacts, fmt.Sprintf("%s %s", quoted, anyOf(headcountTerms)))
	b.add(IntentCompanyFacts, fmt.Sprintf("%s %s", quoted, anyOf(headquartersTerms)))

	if industry != "" {
		b.add(IntentIndustry, fmt.Sprintf("%s %s %s", quoted, industry, anyOf(strategyTerms)))
		b.add(IntentIndustry, fmt.Sprintf("%s industry trends AI adoption", industry))
		if country != "" {
			b.add(IntentIndustry, fmt.Sprintf("%s market %s outlook", industry, country))
		}
	} else {
		b.add(IntentIndustry, fmt.Sprintf("%s %s", quoted, anyOf(strategyTerms)))
		b.add(IntentIndustry, fmt.Sprintf("%s industry market", quoted))
	}
	b.add(IntentNews, fmt.Sprintf("%s news", quoted))

	b.add(IntentCompetitorDiscovery, fmt.Sprintf("%s (competitors OR alternatives OR Wettbewerber)", quoted))

	return b.queries, nil
}

type queryList struct {
	queries []ResearchQuery
	seen    map[string]bool
}

func newQueryList() *queryList {
	return &queryList{seen: map[string]bool{}}
}

func (l *queryList) add(intent Intent, text string) {
	text = strings.Join(strings.Fields(text), " ")
	key := strings.ToLower(text)
	if text == "" || l.seen[key] {
		return
	}
	l.seen[key] = true
	l.queries = append(l.queries, ResearchQuery{Text: text, Intent: intent})
}
