package research

import (
	"sort"
	"strings"
)

// countryAliases maps a canonical country key to the spellings seen in
// English and German web copy.
var countryAliases = map[string][]string{
	"germany":        {"germany", "deutschland", "german", "deutsche"},
	"austria":        {"austria", "österreich", "oesterreich", "austrian"},
	"switzerland":    {"switzerland", "schweiz", "suisse", "swiss"},
	"netherlands":    {"netherlands", "niederlande", "dutch", "holland"},
	"belgium":        {"belgium", "belgien", "belgique"},
	"france":         {"france", "frankreich", "french"},
	"italy":          {"italy", "italien", "italia"},
	"spain":          {"spain", "spanien", "españa"},
	"poland":         {"poland", "polen", "polska"},
	"czechia":        {"czech republic", "czechia", "tschechien"},
	"denmark":        {"denmark", "dänemark", "danmark"},
	"sweden":         {"sweden", "schweden", "sverige"},
	"norway":         {"norway", "norwegen", "norge"},
	"finland":        {"finland", "finnland", "suomi"},
	"luxembourg":     {"luxembourg", "luxemburg"},
	"liechtenstein":  {"liechtenstein"},
	"united kingdom": {"united kingdom", "uk", "england", "großbritannien", "great britain"},
	"ireland":        {"ireland", "irland"},
	"portugal":       {"portugal"},
	"hungary":        {"hungary", "ungarn"},
	"united states":  {"united states", "usa", "u.s.", "vereinigte staaten"},
	"canada":         {"canada", "kanada"},
	"mexico":         {"mexico", "mexiko", "méxico"},
}

var dachCountries = map[string]bool{"germany": true, "austria": true, "switzerland": true, "liechtenstein": true}

var europeanCountries = map[string]bool{
	"germany": true, "austria": true, "switzerland": true, "netherlands": true, "belgium": true,
	"france": true, "italy": true, "spain": true, "poland": true, "czechia": true, "denmark": true,
	"sweden": true, "norway": true, "finland": true, "luxembourg": true, "liechtenstein": true,
	"united kingdom": true, "ireland": true, "portugal": true, "hungary": true,
}

var northAmericanCountries = map[string]bool{"united states": true, "canada": true, "mexico": true}

// regionCountries returns the countries sharing country's region, nil when
// the region is not modelled.
func regionCountries(country string) map[string]bool {
	switch {
	case europeanCountries[country]:
		return europeanCountries
	case northAmericanCountries[country]:
		return northAmericanCountries
	default:
		return nil
	}
}

var tldCountries = map[string]string{
	"de": "germany", "at": "austria", "ch": "switzerland", "li": "liechtenstein", "nl": "netherlands",
	"be": "belgium", "fr": "france", "it": "italy", "es": "spain", "pl": "poland", "cz": "czechia",
	"dk": "denmark", "se": "sweden", "no": "norway", "fi": "finland", "lu": "luxembourg",
	"uk": "united kingdom", "ie": "ireland", "pt": "portugal", "hu": "hungary",
	"us": "united states", "ca": "canada", "mx": "mexico",
}

// CanonicalCountry resolves a free-text country to its canonical key, or ""
// when unknown.
func CanonicalCountry(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == strings.ToLower(TBD) {
		return ""
	}
	if _, ok := countryAliases[s]; ok {
		return s
	}
	if c, ok := tldCountries[s]; ok {
		return c
	}
	for key, aliases := range countryAliases {
		for _, a := range aliases {
			if a == s {
				return key
			}
		}
	}
	return ""
}

func countryForDomain(domain string) string {
	i := strings.LastIndex(domain, ".")
	if i < 0 {
		return ""
	}
	return tldCountries[domain[i+1:]]
}

// mentionedCountries returns every canonical country named in text, plus the
// one implied by the domain's ccTLD.
func mentionedCountries(text, domain string) map[string]bool {
	found := map[string]bool{}
	padded := " " + text + " "
	for key, aliases := range countryAliases {
		for _, a := range aliases {
			if containsWord(padded, a) {
				found[key] = true
				break
			}
		}
	}
	if c := countryForDomain(domain); c != "" {
		found[c] = true
	}
	return found
}

// containsWord reports whether word appears in text delimited by
// non-letters. text is expected to be lower-cased.
func containsWord(text, word string) bool {
	if word == "" {
		return false
	}
	for i := 0; ; {
		j := strings.Index(text[i:], word)
		if j < 0 {
			return false
		}
		start := i + j
		end := start + len(word)
		if boundary(text, start-1) && boundary(text, end) {
			return true
		}
		i = start + 1
		if i >= len(text) {
			return false
		}
	}
}

func boundary(text string, i int) bool {
	if i < 0 || i >= len(text) {
		return true
	}
	c := text[i]
	return !(c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c >= 0x80)
}

// industryVocabulary widens a one-word industry into the related terms a
// competitor's own pages would use.
var industryVocabulary = map[string][]string{
	"logistics":     {"logistik", "freight", "spedition", "supply chain", "warehouse", "lager", "transport", "fulfillment"},
	"manufacturing": {"fertigung", "produktion", "production", "maschinenbau", "industrial", "factory", "cnc"},
	"machinery":     {"maschinenbau", "machine", "anlagenbau", "engineering", "automation", "industrial"},
	"automotive":    {"automobil", "fahrzeug", "vehicle", "oem", "zulieferer", "supplier", "mobility"},
	"software":      {"saas", "cloud", "platform", "plattform", "application", "entwicklung", "development"},
	"retail":        {"einzelhandel", "handel", "e-commerce", "shop", "store", "commerce"},
	"insurance":     {"versicherung", "insurer", "underwriting", "claims", "policy", "broker"},
	"banking":       {"bank", "finance", "finanz", "lending", "payments", "kredit"},
	"healthcare":    {"gesundheit", "medical", "medizin", "clinic", "klinik", "patient", "pharma"},
	"energy":        {"energie", "renewable", "solar", "wind", "grid", "utility", "strom"},
	"construction":  {"bau", "bauunternehmen", "building", "hochbau", "tiefbau", "contractor"},
	"consulting":    {"beratung", "advisory", "consultancy", "unternehmensberatung", "strategy"},
	"food":          {"lebensmittel", "nahrungsmittel", "food processing", "beverage", "getränke", "bakery"},
	"chemicals":     {"chemie", "chemical", "coatings", "polymer", "specialty chemicals"},
	"pharma":        {"pharmaceutical", "arzneimittel", "drug", "biotech", "clinical", "generics"},
	"printing":      {"druck", "druckerei", "print", "packaging", "verpackung"},
	"textile":       {"textil", "apparel", "fashion", "bekleidung", "fabric"},
	"tourism":       {"tourismus", "travel", "reisen", "hotel", "hospitality"},
	"telecom":       {"telekommunikation", "telecommunications", "network", "broadband", "mobile"},
	"real estate":   {"immobilien", "property", "facility", "housing", "wohnungen"},
	"agriculture":   {"landwirtschaft", "agrar", "farming", "crop", "agritech"},
}

var industryStopwords = map[string]bool{
	"and": true, "und": true, "the": true, "der": true, "die": true, "das": true, "for": true, "von": true,
	"services": true, "service": true, "dienstleistungen": true, "industry": true, "branche": true,
	"solutions": true, "lösungen": true, "company": true, "companies": true, "other": true, "sector": true,
}

// IndustryTokens derives the lower-cased token set used for industry
// matching from free-text industry names.
func IndustryTokens(names ...string) []string {
	seen := map[string]bool{}
	out := []string{}
	add := func(t string) {
		t = strings.TrimSpace(strings.ToLower(t))
		if len([]rune(t)) < 3 || industryStopwords[t] || seen[t] || t == strings.ToLower(TBD) {
			return
		}
		seen[t] = true
		out = append(out, t)
	}
	keys := make([]string, 0, len(industryVocabulary))
	for k := range industryVocabulary {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, name := range names {
		lower := strings.ToLower(name)
		for _, key := range keys {
			if strings.Contains(lower, key) {
				add(key)
				for _, r := range industryVocabulary[key] {
					add(r)
				}
			}
		}
		for _, f := range strings.FieldsFunc(lower, func(r rune) bool {
			return r == ' ' || r == ',' || r == '/' || r == '&' || r == '(' || r == ')' || r == ';'
		}) {
			add(f)
		}
	}
	return out
}
