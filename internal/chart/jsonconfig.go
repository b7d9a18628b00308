package chart

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

// chartTypes is the whitelist of recognized chart kinds for inline JSON
// configs.
var chartTypes = map[string]bool{
	"bar":       true,
	"line":      true,
	"pie":       true,
	"doughnut":  true,
	"scatter":   true,
	"radar":     true,
	"polarArea": true,
	"bubble":    true,
}

// urlIndicators mark text surrounding a JSON candidate as an encoded-URL
// context; objects found there are URL parameters, not inline configs.
var urlIndicators = []string{"?c=", "&c=", "http://", "https://", "width=", "height=", "format="}

var pctEscape = regexp.MustCompile(`%[0-9A-Fa-f]{2}`)

// extractJSONConfigs handles encoding 1: balanced-brace JSON chart
// configurations embedded directly in prose. Candidates inside URL
// contexts or without chart shape are left untouched.
func (e *Extractor) extractJSONConfigs(text string, urlSpans []span, seen map[string]bool) ([]Chart, []span) {
	var charts []Chart
	var consumed []span

	for _, cand := range scanObjects(text) {
		if insideAny(cand, urlSpans) {
			continue
		}
		raw := text[cand.start:cand.end]
		if pctEscape.MatchString(raw) {
			continue
		}
		if e.inURLContext(text, cand) {
			continue
		}

		var cfg map[string]any
		if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
			continue
		}
		if !looksLikeChartConfig(raw) {
			continue
		}

		title := titleBeforeConfig(text[:cand.start])
		encoded, err := json.Marshal(normalizeConfig(cfg, title))
		if err != nil {
			continue
		}
		finalURL := e.canonicalURL(string(encoded))

		consumed = append(consumed, cand)
		if seen[finalURL] {
			continue
		}
		seen[finalURL] = true

		display := title
		if display == "" {
			display = fallbackTitle
		}
		charts = append(charts, Chart{URL: finalURL, Title: display, Alt: display})
	}
	return charts, consumed
}

// scanObjects finds top-level balanced-brace object spans. Braces inside
// JSON string literals are ignored; nesting depth is unbounded.
func scanObjects(text string) []span {
	var spans []span
	depth := 0
	start := -1
	inString := false
	escaped := false

	for i := 0; i < len(text); i++ {
		c := text[i]
		if depth > 0 && inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
				if depth == 0 && start >= 0 {
					spans = append(spans, span{start, i + 1})
					start = -1
				}
			}
		}
	}
	return spans
}

func insideAny(cand span, spans []span) bool {
	for _, s := range spans {
		if s.contains(cand) {
			return true
		}
	}
	return false
}

// inURLContext reports whether the bytes immediately around a candidate
// carry URL indicator substrings, which marks the object as part of a
// chart link rather than standalone prose. Windows stop at line breaks so
// markup on neighboring lines cannot disqualify a standalone config.
func (e *Extractor) inURLContext(text string, cand span) bool {
	before := text[max(0, cand.start-80):cand.start]
	if i := strings.LastIndexByte(before, '\n'); i >= 0 {
		before = before[i+1:]
	}
	after := text[cand.end:min(len(text), cand.end+40)]
	if i := strings.IndexByte(after, '\n'); i >= 0 {
		after = after[:i]
	}
	window := before + after
	if strings.Contains(window, e.hostPath) {
		return true
	}
	for _, ind := range urlIndicators {
		if strings.Contains(window, ind) {
			return true
		}
	}
	return false
}

// looksLikeChartConfig checks that a parsed object has chart shape: a
// whitelisted type or a data field; when data is present it must carry a
// labels array and a datasets array with at least one dataset holding data.
func looksLikeChartConfig(raw string) bool {
	typ := gjson.Get(raw, "type")
	data := gjson.Get(raw, "data")
	if !chartTypes[typ.String()] && !data.Exists() {
		return false
	}
	if data.Exists() {
		if !data.Get("labels").IsArray() || !data.Get("datasets").IsArray() {
			return false
		}
		hasData := false
		data.Get("datasets").ForEach(func(_, ds gjson.Result) bool {
			if ds.Get("data").IsArray() {
				hasData = true
				return false
			}
			return true
		})
		if !hasData {
			return false
		}
	}
	return true
}

// normalizeConfig merges an accepted config with default display options.
// Existing option values are never overwritten.
func normalizeConfig(cfg map[string]any, title string) map[string]any {
	options, _ := cfg["options"].(map[string]any)
	if options == nil {
		options = map[string]any{}
	}
	if _, ok := options["responsive"]; !ok {
		options["responsive"] = true
	}
	plugins, _ := options["plugins"].(map[string]any)
	if plugins == nil {
		plugins = map[string]any{}
	}
	if _, ok := plugins["title"]; !ok {
		plugins["title"] = map[string]any{"display": title != "", "text": title}
	}
	if _, ok := plugins["legend"]; !ok {
		plugins["legend"] = map[string]any{"display": true, "position": "top"}
	}
	options["plugins"] = plugins
	cfg["options"] = options
	return cfg
}

// titleBeforeConfig looks for a "chart/graph/visualization: <label>" phrase
// immediately preceding an inline config.
var configTitleRe = regexp.MustCompile(`(?i)(?:chart|graph|visuali[sz]ation)\s*[:\-]\s*([^\n{]+?)\s*$`)

func titleBeforeConfig(before string) string {
	window := tail(before, 160)
	m := configTitleRe.FindStringSubmatch(window)
	if m == nil {
		return ""
	}
	return cleanTitle(m[1])
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
