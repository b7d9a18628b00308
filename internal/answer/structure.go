package answer

import (
	"regexp"
	"strings"
)

// SectionType classifies a parsed section for routing into the typed
// structured response.
type SectionType string

const (
	SectionOverview    SectionType = "overview"
	SectionKeyFindings SectionType = "keyFindings"
	SectionHowTo       SectionType = "howTo"
	SectionCoverage    SectionType = "coverage"
	SectionLimitations SectionType = "limitations"
	SectionDatasetInfo SectionType = "datasetInfo"
	SectionReferences  SectionType = "references"
	SectionComparison  SectionType = "comparison"
	SectionCustom      SectionType = "custom"
)

// Section is one node of the narrative's document tree. Content holds the
// lines belonging directly to this section; nested headings become
// subsections.
type Section struct {
	Type        SectionType
	Title       string
	Content     string
	Level       int
	Subsections []*Section
}

var (
	headingRe  = regexp.MustCompile(`^(#{1,6})\s+(.*)$`)
	anyHeading = regexp.MustCompile(`(?m)^#{1,6}\s`)
	listLineRe = regexp.MustCompile(`(?m)^\s*(?:[-*]|\d+\.)\s+`)
)

// ParseSections scans the narrative line by line and builds the section
// tree. Blank lines are skipped; prose before the first heading lands in
// an implicit level-1 overview section. Nesting depth is unbounded: a
// heading nests under the nearest earlier section of strictly shallower
// level, tracked with an explicit stack.
func ParseSections(text string) []*Section {
	var top []*Section
	var stack []*Section

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		if m := headingRe.FindStringSubmatch(trimmed); m != nil {
			title := strings.TrimSpace(m[2])
			sec := &Section{
				Type:  classifyTitle(title),
				Title: title,
				Level: len(m[1]),
			}
			for len(stack) > 0 && stack[len(stack)-1].Level >= sec.Level {
				stack = stack[:len(stack)-1]
			}
			if len(stack) == 0 {
				top = append(top, sec)
			} else {
				parent := stack[len(stack)-1]
				parent.Subsections = append(parent.Subsections, sec)
			}
			stack = append(stack, sec)
			continue
		}

		if len(stack) == 0 {
			implicit := &Section{Type: SectionOverview, Level: 1}
			top = append(top, implicit)
			stack = append(stack, implicit)
		}
		cur := stack[len(stack)-1]
		if cur.Content != "" {
			cur.Content += "\n"
		}
		cur.Content += trimmed
	}
	return top
}

// classifyTitle maps a heading to a section type using case-insensitive
// substring rules checked in fixed priority order.
func classifyTitle(title string) SectionType {
	lower := strings.ToLower(title)
	switch {
	case strings.Contains(lower, "overview"), strings.Contains(lower, "summary"):
		return SectionOverview
	case strings.Contains(lower, "key finding"), strings.Contains(lower, "finding"):
		return SectionKeyFindings
	case strings.Contains(lower, "how to"), strings.Contains(lower, "guide"):
		return SectionHowTo
	case strings.Contains(lower, "coverage"), strings.Contains(lower, "applicability"):
		return SectionCoverage
	case strings.Contains(lower, "limitation"):
		return SectionLimitations
	case strings.Contains(lower, "dataset"), strings.Contains(lower, "data info"):
		return SectionDatasetInfo
	case strings.Contains(lower, "reference"), strings.Contains(lower, "source"):
		return SectionReferences
	case strings.Contains(lower, "total population"), strings.Contains(lower, "gender"),
		strings.Contains(lower, "age"), strings.Contains(lower, "ethnic"):
		return SectionComparison
	default:
		return SectionCustom
	}
}

// hasHeadings reports whether the narrative carries any markdown heading.
func hasHeadings(text string) bool {
	return anyHeading.MatchString(text)
}

var (
	indentedDashRe = regexp.MustCompile(`^\s+-\s*`)
	plainWordRe    = regexp.MustCompile(`^[A-Z][A-Za-z0-9,'&() -]{2,59}$`)
)

// rewritePlainText prepares unstructured prose for the regular parser:
// a line holding nothing but a short capitalized phrase becomes a level-2
// heading, and indented dash lines become normal bullets.
func rewritePlainText(text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			out = append(out, "")
		case isHeadingCandidate(trimmed):
			out = append(out, "## "+trimmed)
		case indentedDashRe.MatchString(line):
			out = append(out, "- "+strings.TrimSpace(indentedDashRe.ReplaceAllString(line, "")))
		default:
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

func isHeadingCandidate(trimmed string) bool {
	if !plainWordRe.MatchString(trimmed) {
		return false
	}
	return len(strings.Fields(trimmed)) <= 8
}
