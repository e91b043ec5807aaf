package research

import (
	"sort"
	"strings"
)

// SnippetWeights are the additive terms of ScoreSnippet.
type SnippetWeights struct {
	OwnDomain      int
	TierOne        int
	Dated          int
	LowValueDomain int
}

// DefaultSnippetWeights are the weights used by the retriever.
var DefaultSnippetWeights = SnippetWeights{
	OwnDomain:      3,
	TierOne:        2,
	Dated:          1,
	LowValueDomain: -3,
}

// Tier-1 business and technology publishers.
var tierOnePublishers = map[string]bool{
	"reuters.com": true, "bloomberg.com": true, "ft.com": true, "wsj.com": true,
	"economist.com": true, "forbes.com": true, "techcrunch.com": true,
	"handelsblatt.com": true, "faz.net": true, "sueddeutsche.de": true,
	"spiegel.de": true, "zeit.de": true, "wiwo.de": true, "manager-magazin.de": true,
	"heise.de": true, "golem.de": true, "nzz.ch": true, "derstandard.at": true,
	"diepresse.com": true, "t3n.de": true, "gruenderszene.de": true,
}

// Business directories and aggregators that repeat facts without adding any.
var lowValueDomains = map[string]bool{
	"northdata.de": true, "northdata.com": true, "firmenwissen.de": true,
	"kompass.com": true, "dnb.com": true, "zoominfo.com": true,
	"yelp.com": true, "yelp.de": true, "gelbeseiten.de": true, "dasoertliche.de": true,
	"11880.com": true, "wlw.de": true, "europages.com": true, "europages.de": true,
	"cylex.de": true, "meinestadt.de": true, "companyhouse.de": true,
	"unternehmensregister.de": true, "firmania.de": true, "creditreform.de": true,
	"rocketreach.co": true, "apollo.io": true, "owler.com": true,
}

// IsTierOnePublisher reports whether rawURL is on a major news or business publisher.
func IsTierOnePublisher(rawURL string) bool {
	return tierOnePublishers[RegistrableDomain(rawURL)]
}

// IsLowValueDomain reports whether rawURL is on a directory or listing site.
func IsLowValueDomain(rawURL string) bool {
	return lowValueDomains[RegistrableDomain(rawURL)]
}

// ScoreSnippet rates one snippet for evidence quality relative to the
// target's registrable domain.
func ScoreSnippet(s Snippet, targetDomain string, w SnippetWeights) int {
	d := RegistrableDomain(s.URL)
	score := 0
	if targetDomain != "" && d == targetDomain {
		score += w.OwnDomain
	}
	if tierOnePublishers[d] {
		score += w.TierOne
	}
	if s.PublishedAt != nil && !s.PublishedAt.IsZero() {
		score += w.Dated
	}
	if lowValueDomains[d] {
		score += w.LowValueDomain
	}
	return score
}

type scoredSnippet struct {
	Snippet
	score int
	host  string
}

// SelectSnippets deduplicates by URL, ranks by (score desc, URL asc) and
// picks round-robin across hosts so no single host dominates, up to max.
// The result depends only on the set of input snippets, not their order.
func SelectSnippets(in []Snippet, targetDomain string, w SnippetWeights, max int) SnippetSet {
	if max <= 0 {
		max = DefaultMaxSnippets
	}
	byURL := map[string]Snippet{}
	for _, s := range in {
		u := strings.TrimSpace(s.URL)
		if u == "" || HostOf(u) == "" {
			continue
		}
		if strings.TrimSpace(s.Content) == "" && strings.TrimSpace(s.Title) == "" {
			continue
		}
		s.URL = u
		if prev, ok := byURL[u]; ok && !preferSnippet(s, prev) {
			continue
		}
		byURL[u] = s
	}

	scored := make([]scoredSnippet, 0, len(byURL))
	for _, s := range byURL {
		scored = append(scored, scoredSnippet{Snippet: s, score: ScoreSnippet(s, targetDomain, w), host: HostOf(s.URL)})
	}
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		return scored[i].URL < scored[j].URL
	})

	// Bucket per host keeping rank order, hosts ordered by their best snippet.
	buckets := map[string][]scoredSnippet{}
	hosts := []string{}
	for _, s := range scored {
		if _, ok := buckets[s.host]; !ok {
			hosts = append(hosts, s.host)
		}
		buckets[s.host] = append(buckets[s.host], s)
	}

	out := SnippetSet{Snippets: []Snippet{}, Citations: []string{}}
	for round := 0; len(out.Snippets) < max; round++ {
		picked := false
		for _, h := range hosts {
			if len(out.Snippets) >= max {
				break
			}
			b := buckets[h]
			if round >= len(b) {
				continue
			}
			out.Snippets = append(out.Snippets, b[round].Snippet)
			out.Citations = append(out.Citations, b[round].URL)
			picked = true
		}
		if !picked {
			break
		}
	}
	return out
}

// preferSnippet picks a deterministic winner between two snippets sharing a
// URL: dated beats undated, then longer content, then lexical title.
func preferSnippet(a, b Snippet) bool {
	ad, bd := a.PublishedAt != nil, b.PublishedAt != nil
	if ad != bd {
		return ad
	}
	if ad && !a.PublishedAt.Equal(*b.PublishedAt) {
		return a.PublishedAt.After(*b.PublishedAt)
	}
	if len(a.Content) != len(b.Content) {
		return len(a.Content) > len(b.Content)
	}
	if a.Title != b.Title {
		return a.Title < b.Title
	}
	return a.Content < b.Content
}

func distinctDomains(snippets []Snippet) int {
	seen := map[string]bool{}
	for _, s := range snippets {
		if d := RegistrableDomain(s.URL); d != "" {
			seen[d] = true
		}
	}
	return len(seen)
}
