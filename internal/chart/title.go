package chart

import (
	"regexp"
	"strings"
)

// titleRule tries to pull a display title out of the text preceding a
// chart occurrence. Rules are applied in order; the first hit wins.
type titleRule func(before string) (string, bool)

var titleRules = []titleRule{
	reRule(regexp.MustCompile(`((?:[A-Z][A-Za-z0-9']*\s+)*(?:Comparison|Chart|Graph|Visuali[sz]ation|Analysis|Report))\s*[:.]?\s*$`)),
	reRule(regexp.MustCompile(`(?i)chart\s+([^:\n]{2,60}):\s*$`)),
	reRule(regexp.MustCompile(`(?i)((?:population|data|statistics)[A-Za-z0-9,' ]{3,60}?)[:.]?\s*$`)),
	reRule(regexp.MustCompile(`([A-Z][A-Za-z0-9 ]{2,40}):\s*$`)),
}

func reRule(re *regexp.Regexp) titleRule {
	return func(before string) (string, bool) {
		m := re.FindStringSubmatch(before)
		if m == nil {
			return "", false
		}
		t := cleanTitle(m[1])
		return t, t != ""
	}
}

// titleFromContext inspects the tail of the text preceding a match and
// returns the first heuristic title, or "" when none applies.
func titleFromContext(before string) string {
	window := strings.TrimRight(tail(before, 200), " \t\n")
	for _, rule := range titleRules {
		if t, ok := rule(window); ok {
			return t
		}
	}
	return ""
}

func cleanTitle(s string) string {
	s = strings.Trim(s, " \t\"'*#-–—:.")
	if len(s) > 80 {
		s = s[:80]
	}
	return strings.TrimSpace(s)
}
