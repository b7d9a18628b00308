package chart

import (
	"encoding/json"
	"net/url"
	"strings"
)

// extractLegacy handles encoding 2: markdown images wrapping a chart link
// that spreads its configuration across separate type/data/options query
// parameters. The three parameters are assembled into one canonical
// single-parameter URL; a parameter that fails to parse is replaced by an
// empty fallback instead of aborting the match.
func (e *Extractor) extractLegacy(text string, seen map[string]bool) ([]Chart, []span) {
	var charts []Chart
	var consumed []span

	for _, loc := range e.mdImage.FindAllStringSubmatchIndex(text, -1) {
		full := span{loc[0], loc[1]}
		alt := text[loc[2]:loc[3]]
		rawURL := text[loc[4]:loc[5]]

		if !e.isLegacyURL(rawURL) {
			continue
		}

		u, err := url.Parse(rawURL)
		if err != nil {
			continue
		}
		q := u.Query()

		combined := map[string]any{
			"type":    q.Get("type"),
			"data":    jsonParam(q.Get("data"), map[string]any{"labels": []any{}, "datasets": []any{}}),
			"options": jsonParam(q.Get("options"), map[string]any{}),
		}
		encoded, err := json.Marshal(combined)
		if err != nil {
			continue
		}
		finalURL := e.canonicalURL(string(encoded))

		consumed = append(consumed, full)
		if seen[rawURL] || seen[finalURL] {
			continue
		}
		seen[rawURL] = true
		seen[finalURL] = true

		title := strings.TrimSpace(alt)
		if title == "" {
			title = fallbackTitle
		}
		charts = append(charts, Chart{URL: finalURL, Title: title, Alt: title})
	}
	return charts, consumed
}

// isLegacyURL reports whether a URL targets the chart service with
// separate type/data/options parameters rather than one combined config.
func (e *Extractor) isLegacyURL(rawURL string) bool {
	if !strings.Contains(rawURL, e.hostPath) {
		return false
	}
	if strings.Contains(rawURL, "?c=") || strings.Contains(rawURL, "&c=") {
		return false
	}
	hasType := strings.Contains(rawURL, "type=")
	hasBody := strings.Contains(rawURL, "data=") || strings.Contains(rawURL, "options=")
	return hasType && hasBody
}

// jsonParam decodes one already-unescaped query parameter as JSON,
// substituting the fallback on failure.
func jsonParam(raw string, fallback map[string]any) any {
	if raw == "" {
		return fallback
	}
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return fallback
	}
	return v
}
