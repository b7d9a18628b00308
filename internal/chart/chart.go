package chart

import (
	"log/slog"
	"net/url"
	"regexp"
	"sort"
	"strings"
)

// DefaultBaseURL is the canonical chart image service endpoint.
const DefaultBaseURL = "https://quickchart.io/chart"

// fallbackTitle is used when no title could be inferred for a chart.
const fallbackTitle = "Data Visualization"

// Chart is a normalized, renderable chart reference extracted from
// narrative text.
type Chart struct {
	URL   string `json:"url"`
	Title string `json:"title"`
	Alt   string `json:"alt"`
}

// Extractor scans raw answer text for chart markup in three encodings
// (inline JSON configs, legacy multi-parameter links, canonical links),
// converts each occurrence into a Chart, and strips the matched markup
// from the text. Malformed candidates never abort a scan: they are either
// left untouched in the text or, when clearly chart-shaped but invalid,
// removed with a diagnostic.
type Extractor struct {
	base        string // canonical service base, e.g. https://quickchart.io/chart
	hostPath    string // host + path, e.g. quickchart.io/chart
	hostName    string // host only, e.g. quickchart.io
	encHostPath string // percent-encoded host + path, e.g. quickchart.io%2Fchart%3F
	log         *slog.Logger

	bareURL    *regexp.Regexp
	encodedURL *regexp.Regexp
	mdImage    *regexp.Regexp
}

// NewExtractor builds an Extractor targeting the given chart service base
// URL. An empty base falls back to DefaultBaseURL.
func NewExtractor(base string, log *slog.Logger) *Extractor {
	if base == "" {
		base = DefaultBaseURL
	}
	if log == nil {
		log = slog.Default()
	}
	hostPath := strings.TrimPrefix(strings.TrimPrefix(base, "https://"), "http://")
	hostName := hostPath
	if i := strings.Index(hostPath, "/"); i >= 0 {
		hostName = hostPath[:i]
	}
	encHostPath := strings.ReplaceAll(hostPath, "/", "%2F")

	return &Extractor{
		base:        base,
		hostPath:    hostPath,
		hostName:    hostName,
		encHostPath: encHostPath + "%3F",
		log:         log,
		bareURL:     regexp.MustCompile(`https?://` + regexp.QuoteMeta(hostPath) + `\?[^\s)]+`),
		encodedURL:  regexp.MustCompile(`https?%3A%2F%2F` + regexp.QuoteMeta(encHostPath) + `%3F[^\s)]+`),
		mdImage:     regexp.MustCompile(`!\[([^\]]*)\]\(([^)\s]+)\)`),
	}
}

// span is a half-open byte range [start, end) of the input text.
type span struct {
	start, end int
}

func (s span) contains(other span) bool {
	return other.start >= s.start && other.end <= s.end
}

// Extract returns the narrative with all recognized chart markup removed,
// plus the extracted charts ordered by encoding (JSON configs first, then
// legacy links, then canonical links) and text position within each group.
func (e *Extractor) Extract(text string) (string, []Chart) {
	if text == "" {
		return "", nil
	}
	if !e.hasTriggers(text) {
		return text, nil
	}

	// One cumulative set of seen URL strings across all three passes.
	seen := make(map[string]bool)
	urlSpans := e.urlSpans(text)

	jsonCharts, jsonSpans := e.extractJSONConfigs(text, urlSpans, seen)
	legacyCharts, legacySpans := e.extractLegacy(text, seen)

	consumed := append(append([]span{}, jsonSpans...), legacySpans...)
	canonCharts, canonSpans := e.extractCanonical(text, consumed, seen)
	consumed = append(consumed, canonSpans...)

	charts := make([]Chart, 0, len(jsonCharts)+len(legacyCharts)+len(canonCharts))
	charts = append(charts, jsonCharts...)
	charts = append(charts, legacyCharts...)
	charts = append(charts, canonCharts...)

	return collapseWhitespace(removeSpans(text, consumed)), charts
}

// triggerWords are cheap substring probes checked before any regex work.
var triggerWords = []string{"![", "chart", "graph", "visualization", "plot", `"type"`, `"datasets"`, "http://", "https://"}

func (e *Extractor) hasTriggers(text string) bool {
	lower := strings.ToLower(text)
	if strings.Contains(lower, strings.ToLower(e.hostName)) {
		return true
	}
	for _, w := range triggerWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

// urlSpans locates every chart-service URL occurrence (canonical, encoded,
// or legacy multi-parameter) so the JSON pass can reject objects embedded
// inside them.
func (e *Extractor) urlSpans(text string) []span {
	var spans []span
	for _, re := range []*regexp.Regexp{e.bareURL, e.encodedURL} {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			spans = append(spans, span{loc[0], loc[1]})
		}
	}
	return spans
}

// removeSpans drops every consumed byte range from text in a single pass.
func removeSpans(text string, spans []span) string {
	if len(spans) == 0 {
		return text
	}
	sorted := append([]span{}, spans...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].start < sorted[j].start })

	var b strings.Builder
	pos := 0
	for _, s := range sorted {
		if s.start < pos {
			if s.end > pos {
				pos = s.end
			}
			continue
		}
		b.WriteString(text[pos:s.start])
		pos = s.end
	}
	if pos < len(text) {
		b.WriteString(text[pos:])
	}
	return b.String()
}

var multiNewline = regexp.MustCompile(`\n{3,}`)

func collapseWhitespace(text string) string {
	return strings.TrimSpace(multiNewline.ReplaceAllString(text, "\n\n"))
}

// canonicalURL assembles the single-parameter service URL for a JSON
// config string, percent-encoding the config.
func (e *Extractor) canonicalURL(configJSON string) string {
	return e.base + "?c=" + url.QueryEscape(configJSON)
}
