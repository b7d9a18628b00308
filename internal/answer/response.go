package answer

import (
	"regexp"
	"strings"
)

// StructuredResponse is the typed projection of a parsed narrative. Each
// non-repeatable section kind appears at most once; everything else lands
// in CustomSections in document order.
type StructuredResponse struct {
	Overview       *Overview       `json:"overview,omitempty"`
	KeyFindings    *KeyFindings    `json:"keyFindings,omitempty"`
	HowToUse       *HowToUse       `json:"howToUse,omitempty"`
	Coverage       *ListSection    `json:"coverage,omitempty"`
	Limitations    *ListSection    `json:"limitations,omitempty"`
	DatasetInfo    *DatasetInfo    `json:"datasetInfo,omitempty"`
	References     *References     `json:"references,omitempty"`
	CustomSections []CustomSection `json:"customSections,omitempty"`
	HasLists       bool            `json:"hasLists"`
}

// Statistic is a highlighted number pulled out of overview prose.
type Statistic struct {
	Value string `json:"value"`
	Unit  string `json:"unit"`
}

type Overview struct {
	Title      string      `json:"title"`
	Content    string      `json:"content"`
	Statistics []Statistic `json:"statistics,omitempty"`
}

// Finding is one key-finding bullet with a representative icon.
type Finding struct {
	Text string `json:"text"`
	Icon string `json:"icon"`
}

type KeyFindings struct {
	Title    string    `json:"title"`
	Findings []Finding `json:"findings"`
}

type Step struct {
	Number      int    `json:"number"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type HowToUse struct {
	Title string `json:"title"`
	Steps []Step `json:"steps"`
}

type ListSection struct {
	Title string   `json:"title"`
	Items []string `json:"items"`
}

type DatasetField struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type DatasetInfo struct {
	Title  string         `json:"title"`
	Fields []DatasetField `json:"fields"`
}

type Reference struct {
	Title string `json:"title"`
	Type  string `json:"type"`
}

type References struct {
	Title string      `json:"title"`
	Items []Reference `json:"items"`
}

// CustomSection carries comparison-classified and unclassified sections.
// Type is "comparison" or "text".
type CustomSection struct {
	Title string   `json:"title"`
	Type  string   `json:"type"`
	Items []string `json:"items"`
}

// Structure converts a chart-stripped narrative into a StructuredResponse.
// Narratives without any heading take the plain-text fallback path first
// so unstructured prose still yields a minimally structured result.
func Structure(text string) StructuredResponse {
	if strings.TrimSpace(text) == "" {
		return StructuredResponse{}
	}

	src := text
	if !hasHeadings(text) {
		src = rewritePlainText(text)
	}
	sections := ParseSections(src)

	resp := StructuredResponse{HasLists: listLineRe.MatchString(src)}
	for _, sec := range sections {
		applySection(&resp, sec)
	}
	return resp
}

// applySection routes one section (and its subsections, in order) into the
// response. The first section of each non-repeatable kind wins; repeats
// fall through to CustomSections.
func applySection(resp *StructuredResponse, sec *Section) {
	switch sec.Type {
	case SectionOverview:
		if resp.Overview == nil {
			resp.Overview = &Overview{
				Title:      displayTitle(sec, "Overview"),
				Content:    sec.Content,
				Statistics: extractHighlights(sec.Content),
			}
		} else {
			appendCustom(resp, sec, "text")
		}
	case SectionKeyFindings:
		if resp.KeyFindings == nil {
			resp.KeyFindings = &KeyFindings{
				Title:    displayTitle(sec, "Key Findings"),
				Findings: extractFindings(sec.Content),
			}
		} else {
			appendCustom(resp, sec, "text")
		}
	case SectionHowTo:
		if resp.HowToUse == nil {
			resp.HowToUse = &HowToUse{
				Title: displayTitle(sec, "How To Use"),
				Steps: extractSteps(sec.Content),
			}
		} else {
			appendCustom(resp, sec, "text")
		}
	case SectionCoverage:
		if resp.Coverage == nil {
			resp.Coverage = &ListSection{Title: displayTitle(sec, "Coverage"), Items: listOrWhole(sec.Content)}
		} else {
			appendCustom(resp, sec, "text")
		}
	case SectionLimitations:
		if resp.Limitations == nil {
			resp.Limitations = &ListSection{Title: displayTitle(sec, "Limitations"), Items: listOrWhole(sec.Content)}
		} else {
			appendCustom(resp, sec, "text")
		}
	case SectionDatasetInfo:
		if resp.DatasetInfo == nil {
			resp.DatasetInfo = &DatasetInfo{Title: displayTitle(sec, "Dataset Information"), Fields: extractFields(sec.Content)}
		} else {
			appendCustom(resp, sec, "text")
		}
	case SectionReferences:
		if resp.References == nil {
			resp.References = &References{Title: displayTitle(sec, "References"), Items: extractReferences(sec.Content)}
		} else {
			appendCustom(resp, sec, "text")
		}
	case SectionComparison:
		appendCustom(resp, sec, "comparison")
	default:
		appendCustom(resp, sec, "text")
	}

	for _, sub := range sec.Subsections {
		applySection(resp, sub)
	}
}

func appendCustom(resp *StructuredResponse, sec *Section, kind string) {
	resp.CustomSections = append(resp.CustomSections, CustomSection{
		Title: sec.Title,
		Type:  kind,
		Items: listOrWhole(sec.Content),
	})
}

func displayTitle(sec *Section, fallback string) string {
	if sec.Title != "" {
		return sec.Title
	}
	return fallback
}

var highlightRe = regexp.MustCompile(`(\d+(?:,\d+)*(?:\.\d+)?)\s*(%|people\b|persons?\b|years?\b)`)

func extractHighlights(content string) []Statistic {
	var stats []Statistic
	for _, m := range highlightRe.FindAllStringSubmatch(content, -1) {
		stats = append(stats, Statistic{Value: m[1], Unit: m[2]})
	}
	return stats
}

var bulletRe = regexp.MustCompile(`^\s*[-*]\s+(.*)$`)

func extractFindings(content string) []Finding {
	var findings []Finding
	for _, line := range strings.Split(content, "\n") {
		m := bulletRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		text := strings.TrimSpace(m[1])
		findings = append(findings, Finding{Text: text, Icon: iconFor(text)})
	}
	return findings
}

func iconFor(text string) string {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "population"), strings.Contains(lower, "people"):
		return "people"
	case strings.Contains(lower, "percent"), strings.Contains(lower, "%"):
		return "chart"
	case strings.Contains(lower, "increase"), strings.Contains(lower, "decrease"):
		return "trend"
	case strings.Contains(lower, "diverse"), strings.Contains(lower, "ethnic"):
		return "globe"
	default:
		return "check"
	}
}

var stepRe = regexp.MustCompile(`^\s*(?:\d+\.|[-*])\s+(.*)$`)

func extractSteps(content string) []Step {
	var steps []Step
	for _, line := range strings.Split(content, "\n") {
		m := stepRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		body := strings.TrimSpace(m[1])
		step := Step{Number: len(steps) + 1, Title: body, Description: body}
		if i := strings.Index(body, ":"); i >= 0 {
			step.Title = strings.TrimSpace(body[:i])
			step.Description = strings.TrimSpace(body[i+1:])
		}
		steps = append(steps, step)
	}
	return steps
}

// listOrWhole extracts bulleted/numbered items; prose without any list
// markers becomes a single entry.
func listOrWhole(content string) []string {
	var items []string
	for _, line := range strings.Split(content, "\n") {
		if m := stepRe.FindStringSubmatch(line); m != nil {
			items = append(items, strings.TrimSpace(m[1]))
		}
	}
	if len(items) == 0 && strings.TrimSpace(content) != "" {
		items = []string{strings.TrimSpace(content)}
	}
	return items
}

func extractFields(content string) []DatasetField {
	var fields []DatasetField
	for _, line := range strings.Split(content, "\n") {
		label, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		fields = append(fields, DatasetField{
			Label: strings.TrimSpace(strings.TrimLeft(label, "-* ")),
			Value: strings.TrimSpace(value),
		})
	}
	return fields
}

func extractReferences(content string) []Reference {
	var refs []Reference
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "-* "))
		lower := strings.ToLower(trimmed)
		var rest string
		switch {
		case strings.HasPrefix(lower, "source:"):
			rest = trimmed[len("source:"):]
		case strings.HasPrefix(lower, "reference:"):
			rest = trimmed[len("reference:"):]
		default:
			continue
		}
		refs = append(refs, Reference{Title: strings.TrimSpace(rest), Type: "dataset"})
	}
	return refs
}
