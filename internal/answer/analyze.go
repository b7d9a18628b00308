package answer

import (
	"regexp"
	"strings"
)

// maxInsights caps how many insight lines a single narrative yields.
const maxInsights = 5

var (
	insightKeywords = []string{
		"increase", "decrease", "growth", "decline", "higher", "lower",
		"most", "least", "significant", "majority", "minority", "trend",
	}
	comparativeRe   = regexp.MustCompile(`(?i)\b(?:vs|versus|compared|than|higher|lower|more|less|most|least)\b`)
	percentRe       = regexp.MustCompile(`\d[\d,]*(?:\.\d+)?\s*(?:%|percent)`)
	numMagnitudeRe  = regexp.MustCompile(`(?i)\d[\d,]*(?:\.\d+)?\s*(?:people|million|billion|thousand)\b`)
)

// ExtractInsights scans lines for analytically interesting content: long
// enough to carry meaning and holding an insight keyword, comparative
// language, a percentage, or a number with a population magnitude.
func ExtractInsights(text string) []string {
	var insights []string
	for _, line := range strings.Split(text, "\n") {
		s := strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "-*# "))
		if len(s) < 20 {
			continue
		}
		if !interestingLine(s) {
			continue
		}
		insights = append(insights, s)
		if len(insights) == maxInsights {
			break
		}
	}
	return insights
}

func interestingLine(s string) bool {
	lower := strings.ToLower(s)
	for _, kw := range insightKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return comparativeRe.MatchString(s) || percentRe.MatchString(s) || numMagnitudeRe.MatchString(s)
}

// Comparison is one detected entity comparison with the values involved.
type Comparison struct {
	Type     string   `json:"type"`
	Entities []string `json:"entities"`
	Values   []string `json:"values,omitempty"`
	Context  string   `json:"context"`
}

var (
	// "X vs Y", "X versus Y", "X compared to Y"; entities are capitalized
	// phrases so trailing prose does not bleed into the second entity.
	vsRe = regexp.MustCompile(`([A-Z][A-Za-z']*(?:\s+[A-Z][A-Za-z']*)*)\s+(?:vs\.?|versus|compared\s+to)\s+([A-Z][A-Za-z']*(?:\s+[A-Z][A-Za-z']*)*)`)
	// label: value pairs on one line, e.g. "Kedah: 2,193,000 people, Selangor: 6,994,000 people"
	sideBySideRe = regexp.MustCompile(`([A-Za-z][A-Za-z0-9' ]{0,30}?):\s*(\d[\d,]*(?:\.\d+)?(?:\s*%|\s+[A-Za-z]+)?)`)
)

// DetectComparisons walks the text line by line. Each line is tried
// against the explicit "X vs Y" phrasing and, independently, the
// side-by-side "label: value, label: value" form; both may fire on the
// same line. Comparison type is classified from the whole line.
func DetectComparisons(text string) []Comparison {
	var comps []Comparison

	for _, line := range strings.Split(text, "\n") {
		ctx := strings.TrimSpace(line)

		for _, m := range vsRe.FindAllStringSubmatch(line, -1) {
			comps = append(comps, Comparison{
				Type:     classifyComparison(line),
				Entities: []string{strings.TrimSpace(m[1]), strings.TrimSpace(m[2])},
				Context:  ctx,
			})
		}

		pairs := sideBySideRe.FindAllStringSubmatch(line, -1)
		if len(pairs) < 2 {
			continue
		}
		var entities, values []string
		for _, p := range pairs {
			entities = append(entities, strings.TrimSpace(strings.TrimLeft(p[1], "-* ")))
			values = append(values, strings.TrimSpace(p[2]))
		}
		comps = append(comps, Comparison{
			Type:     classifyComparison(line),
			Entities: entities,
			Values:   values,
			Context:  ctx,
		})
	}
	return comps
}

// classifyComparison picks a comparison category from context wording.
// Checks run in fixed order; the first hit wins.
func classifyComparison(ctx string) string {
	lower := strings.ToLower(ctx)
	switch {
	case strings.Contains(lower, "population"), strings.Contains(lower, "people"),
		strings.Contains(lower, "resident"):
		return "demographic"
	case strings.Contains(lower, "%"), strings.Contains(lower, "percent"),
		strings.Contains(lower, "rate"):
		return "percentage"
	case strings.Contains(lower, "year"), strings.Contains(lower, "annual"),
		strings.Contains(lower, "quarter"), strings.Contains(lower, "month"):
		return "temporal"
	case strings.Contains(lower, "ethnic"), strings.Contains(lower, "malay"),
		strings.Contains(lower, "chinese"), strings.Contains(lower, "indian"):
		return "ethnic"
	case strings.Contains(lower, "male"), strings.Contains(lower, "female"),
		strings.Contains(lower, "gender"):
		return "gender"
	default:
		return "general"
	}
}

// Statistic occurrences with surrounding context, used for tooltips and
// analytics payloads.
type StatMention struct {
	Value   string `json:"value"`
	Unit    string `json:"unit,omitempty"`
	Context string `json:"context"`
	Line    int    `json:"line"`
	Column  int    `json:"column"`
}

var (
	numUnitRe    = regexp.MustCompile(`(\d[\d,]*(?:\.\d+)?)\s+(people|persons|residents|years|months|units)\b`)
	numPercentRe = regexp.MustCompile(`(\d[\d,]*(?:\.\d+)?)\s*(%)`)
	bareGroupRe  = regexp.MustCompile(`\b\d{1,3}(?:,\d{3})+\b`)
)

// ExtractStatistics finds numeric mentions line by line. Context joins the
// previous, current and next lines; later patterns skip positions already
// claimed by an earlier one on the same line.
func ExtractStatistics(text string) []StatMention {
	lines := strings.Split(text, "\n")
	var stats []StatMention

	for i, line := range lines {
		var claimed []span2
		ctx := lineContext(lines, i)

		for _, m := range numUnitRe.FindAllStringSubmatchIndex(line, -1) {
			claimed = append(claimed, span2{m[2], m[3]})
			stats = append(stats, StatMention{
				Value:   line[m[2]:m[3]],
				Unit:    line[m[4]:m[5]],
				Context: ctx,
				Line:    i + 1,
				Column:  m[2] + 1,
			})
		}
		for _, m := range numPercentRe.FindAllStringSubmatchIndex(line, -1) {
			if overlaps(claimed, span2{m[2], m[3]}) {
				continue
			}
			claimed = append(claimed, span2{m[2], m[3]})
			stats = append(stats, StatMention{
				Value:   line[m[2]:m[3]],
				Unit:    "%",
				Context: ctx,
				Line:    i + 1,
				Column:  m[2] + 1,
			})
		}
		for _, m := range bareGroupRe.FindAllStringIndex(line, -1) {
			if overlaps(claimed, span2{m[0], m[1]}) {
				continue
			}
			stats = append(stats, StatMention{
				Value:   line[m[0]:m[1]],
				Context: ctx,
				Line:    i + 1,
				Column:  m[0] + 1,
			})
		}
	}
	return stats
}

type span2 struct{ start, end int }

func overlaps(claimed []span2, s span2) bool {
	for _, c := range claimed {
		if s.start < c.end && c.start < s.end {
			return true
		}
	}
	return false
}

func lineContext(lines []string, i int) string {
	var parts []string
	for j := i - 1; j <= i+1; j++ {
		if j < 0 || j >= len(lines) {
			continue
		}
		if t := strings.TrimSpace(lines[j]); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

// DataQuality scores a narrative on a 0..8 scale from five independent
// text signals.
type DataQuality struct {
	Score           int  `json:"score"`
	HasStructure    bool `json:"hasStructure"`
	HasComparative  bool `json:"hasComparative"`
	HasStatistics   bool `json:"hasStatistics"`
	HasSources      bool `json:"hasSources"`
	HasInsightWords bool `json:"hasInsightWords"`
}

var (
	structureMarkerRe = regexp.MustCompile(`(?m)^\s*(?:#{1,6}\s|[-*]\s|\d+\.\s)`)
	statValueRe       = regexp.MustCompile(`(?i)\d[\d,]*(?:\.\d+)?\s*(?:%|(?:percent|people|persons|residents|years|million|billion|thousand)\b)`)
	sourceMentionRe   = regexp.MustCompile(`(?i)\b(?:sources?|references?|data from|dosm|department of statistics)\b`)
	insightWordRe     = regexp.MustCompile(`(?i)\b(?:insights?|findings?|conclusions?|summary|trends?)\b`)
)

// AssessQuality checks the raw text for structure markers, comparative
// language, number+unit statistics, source mentions, and insight wording,
// scoring 2,2,2,1,1 respectively. Capped at 8.
func AssessQuality(text string) DataQuality {
	q := DataQuality{
		HasStructure:    structureMarkerRe.MatchString(text),
		HasComparative:  comparativeRe.MatchString(text),
		HasStatistics:   statValueRe.MatchString(text),
		HasSources:      sourceMentionRe.MatchString(text),
		HasInsightWords: insightWordRe.MatchString(text),
	}
	if q.HasStructure {
		q.Score += 2
	}
	if q.HasComparative {
		q.Score += 2
	}
	if q.HasStatistics {
		q.Score += 2
	}
	if q.HasSources {
		q.Score++
	}
	if q.HasInsightWords {
		q.Score++
	}
	if q.Score > 8 {
		q.Score = 8
	}
	return q
}
