package research

import (
	"net/url"
	"strings"
	"unicode"

	"golang.org/x/net/publicsuffix"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// legalSuffixes are dropped from organization names before comparison.
var legalSuffixes = map[string]bool{
	"gmbh": true, "ag": true, "se": true, "kg": true, "kgaa": true, "co": true,
	"ug": true, "ohg": true, "mbh": true, "inc": true, "ltd": true, "llc": true,
	"plc": true, "corp": true, "corporation": true, "company": true, "sa": true,
	"sarl": true, "bv": true, "nv": true, "ab": true, "oy": true, "spa": true,
	"srl": true, "holding": true, "group": true, "gruppe": true, "limited": true,
}

// ParseWebsite accepts "example.com", "www.example.com" or a full URL and
// returns an absolute URL with a host.
func ParseWebsite(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, &InvalidInputError{Field: "website", Reason: "is required"}
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, &InvalidInputError{Field: "website", Reason: err.Error()}
	}
	host := strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")
	if host == "" || !strings.Contains(host, ".") {
		return nil, &InvalidInputError{Field: "website", Reason: "has no resolvable host"}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, &InvalidInputError{Field: "website", Reason: "unsupported scheme " + u.Scheme}
	}
	u.Host = host
	return u, nil
}

// HostOf returns the lower-cased host of rawURL without a leading "www.".
func HostOf(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	host := strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")
	return strings.TrimPrefix(host, "www.")
}

// RegistrableDomain returns the eTLD+1 of rawURL ("shop.acme.co.uk" ->
// "acme.co.uk"). Hosts the public suffix list cannot split are returned as-is.
func RegistrableDomain(rawURL string) string {
	host := HostOf(rawURL)
	if host == "" {
		return ""
	}
	d, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return d
}

// Origin reduces rawURL to scheme://host.
func Origin(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return ""
	}
	scheme := u.Scheme
	if scheme == "" {
		scheme = "https"
	}
	return scheme + "://" + strings.ToLower(u.Host)
}

func sameDomain(a, b string) bool {
	da, db := RegistrableDomain(a), RegistrableDomain(b)
	return da != "" && da == db
}

// A transform.Chain keeps state, so each call builds its own.
func foldDiacritics() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}

// NormalizeName folds case and diacritics, replaces punctuation with spaces
// and drops legal-form suffixes: "Müller Automation GmbH & Co. KG" becomes
// "muller automation".
func NormalizeName(name string) string {
	lowered := strings.ToLower(strings.TrimSpace(name))
	lowered = strings.NewReplacer("ß", "ss").Replace(lowered)
	folded, _, err := transform.String(foldDiacritics(), lowered)
	if err != nil {
		folded = lowered
	}
	fields := strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := fields[:0]
	for _, f := range fields {
		if legalSuffixes[f] {
			continue
		}
		out = append(out, f)
	}
	return strings.Join(out, " ")
}

// namesOverlap reports whether either normalized name contains the other.
func namesOverlap(a, b string) bool {
	na, nb := NormalizeName(a), NormalizeName(b)
	if na == "" || nb == "" {
		return false
	}
	return strings.Contains(na, nb) || strings.Contains(nb, na)
}

// domainLabel turns "mueller-automation.de" into "mueller automation".
func domainLabel(domain string) string {
	label := domain
	if i := strings.Index(label, "."); i > 0 {
		label = label[:i]
	}
	return strings.ReplaceAll(label, "-", " ")
}
