package chart

import (
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/tidwall/gjson"
)

// candidate is one canonical-URL occurrence awaiting validation.
type candidate struct {
	span span
	url  string
	alt  string
}

// extractCanonical handles encoding 3: markdown-wrapped and bare
// occurrences of the single-parameter chart URL. Exact duplicates of
// already-seen URLs are stripped from the text without emitting a second
// chart; invalid candidates are stripped with a diagnostic.
func (e *Extractor) extractCanonical(text string, prior []span, seen map[string]bool) ([]Chart, []span) {
	var cands []candidate

	for _, loc := range e.mdImage.FindAllStringSubmatchIndex(text, -1) {
		full := span{loc[0], loc[1]}
		rawURL := text[loc[4]:loc[5]]
		if !e.isCanonicalURL(rawURL) || insideAny(full, prior) {
			continue
		}
		cands = append(cands, candidate{span: full, url: rawURL, alt: strings.TrimSpace(text[loc[2]:loc[3]])})
	}
	for _, re := range []*regexp.Regexp{e.bareURL, e.encodedURL} {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			s := span{loc[0], loc[1]}
			raw := strings.TrimRight(text[s.start:s.end], ".,;:!?")
			s.end = s.start + len(raw)
			if insideAny(s, prior) || e.insideCandidate(s, cands) {
				continue
			}
			cands = append(cands, candidate{span: s, url: raw})
		}
	}
	sort.Slice(cands, func(i, j int) bool { return cands[i].span.start < cands[j].span.start })

	var charts []Chart
	var consumed []span
	for _, c := range cands {
		chart, ok := e.resolveCanonical(text, c, seen)
		consumed = append(consumed, c.span)
		if ok {
			charts = append(charts, chart)
		}
	}
	return charts, consumed
}

func (e *Extractor) isCanonicalURL(rawURL string) bool {
	if strings.Contains(rawURL, e.hostPath) {
		return strings.Contains(rawURL, "?c=") || strings.Contains(rawURL, "&c=")
	}
	return strings.Contains(rawURL, e.encHostPath)
}

func (e *Extractor) insideCandidate(s span, cands []candidate) bool {
	for _, c := range cands {
		if c.span.contains(s) {
			return true
		}
	}
	return false
}

// resolveCanonical validates, titles, and normalizes one occurrence.
// The returned bool is false when the occurrence should be stripped
// without emitting a chart (duplicate or invalid).
func (e *Extractor) resolveCanonical(text string, c candidate, seen map[string]bool) (Chart, bool) {
	work := c.url
	// A fully percent-encoded URL writes its scheme as %3A%2F%2F.
	if strings.Contains(work, "%3A%2F%2F") {
		if decoded, err := url.QueryUnescape(work); err == nil {
			work = decoded
		}
	}

	if seen[c.url] || seen[work] {
		return Chart{}, false
	}

	u, err := url.Parse(work)
	if err != nil {
		e.log.Warn("dropping unparseable chart url", "url", c.url, "error", err)
		seen[c.url] = true
		return Chart{}, false
	}
	q := u.Query()
	cfg := q.Get("c")
	if cfg == "" {
		e.log.Warn("dropping chart url without config parameter", "url", c.url)
		seen[c.url] = true
		return Chart{}, false
	}
	// The query parse already decoded once; double-encoded configs need one
	// more pass before they read as JSON.
	if !gjson.Valid(cfg) {
		decoded, err := url.QueryUnescape(cfg)
		if err != nil || !gjson.Valid(decoded) {
			e.log.Warn("dropping chart url with invalid config", "url", c.url)
			seen[c.url] = true
			return Chart{}, false
		}
		cfg = decoded
	}

	title := c.alt
	if title == "" {
		title = gjson.Get(cfg, "options.plugins.title.text").String()
	}
	if title == "" {
		title = titleFromContext(text[:c.span.start])
	}
	if title == "" {
		title = fallbackTitle
	}

	v := url.Values{}
	v.Set("c", cfg)
	v.Set("format", "png")
	if w := q.Get("width"); w != "" {
		v.Set("width", w)
	}
	if h := q.Get("height"); h != "" {
		v.Set("height", h)
	}
	finalURL := e.base + "?" + v.Encode()

	if seen[finalURL] {
		seen[c.url] = true
		seen[work] = true
		return Chart{}, false
	}
	seen[c.url] = true
	seen[work] = true
	seen[finalURL] = true

	return Chart{URL: finalURL, Title: title, Alt: title}, true
}
