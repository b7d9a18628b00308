package answer

import (
	"strings"
	"testing"
)

const demoNarrative = `## Overview
Malaysia's population reached 32,700,000 people in 2023, growing 1.1% year on year.

## Key Findings
- Population increased by 2.3% since the last census
- Selangor remains the most populous state
- 69.4% of residents identify as Bumiputera

## How to Use This Data
1. Filter: choose the state and year you need
2. Download: export the filtered table as CSV

## Coverage
- All 16 states and federal territories
- Census years 1970 through 2020

## Limitations
Estimates for 2023 are projections, not census counts.

## Dataset Information
- Source Agency: Department of Statistics Malaysia
- Update Frequency: Annual

## References
- Source: Population and Housing Census 2020
- Reference: Vital Statistics Malaysia 2023

## Gender Distribution
Male: 17,000,000 people, Female: 15,700,000 people
`

func TestParseSections_Nesting(t *testing.T) {
	input := "## Section A\ntext a\n### Detail A1\ntext a1\n## Section B\ntext b\n"
	secs := ParseSections(input)
	if len(secs) != 2 {
		t.Fatalf("expected 2 top-level sections, got %d", len(secs))
	}
	if secs[0].Title != "Section A" || secs[1].Title != "Section B" {
		t.Errorf("unexpected titles: %q, %q", secs[0].Title, secs[1].Title)
	}
	if len(secs[0].Subsections) != 1 || secs[0].Subsections[0].Title != "Detail A1" {
		t.Fatalf("expected Detail A1 nested under Section A, got %+v", secs[0].Subsections)
	}
	if secs[0].Content != "text a" {
		t.Errorf("expected parent content %q, got %q", "text a", secs[0].Content)
	}
}

func TestParseSections_ImplicitOverview(t *testing.T) {
	secs := ParseSections("Leading prose line.\n\n## Details\nmore\n")
	if len(secs) != 1 {
		t.Fatalf("expected 1 top-level section, got %d", len(secs))
	}
	if secs[0].Type != SectionOverview || secs[0].Title != "" {
		t.Errorf("expected untitled implicit overview, got type=%s title=%q", secs[0].Type, secs[0].Title)
	}
	if secs[0].Content != "Leading prose line." {
		t.Errorf("unexpected implicit content %q", secs[0].Content)
	}
	// Level 2 is strictly deeper than the implicit level-1 overview, so
	// Details nests under it.
	if len(secs[0].Subsections) != 1 || secs[0].Subsections[0].Title != "Details" {
		t.Fatalf("expected Details nested under implicit overview, got %+v", secs[0].Subsections)
	}
}

func TestClassifyTitle(t *testing.T) {
	tests := []struct {
		title string
		want  SectionType
	}{
		{"Overview", SectionOverview},
		{"Executive Summary", SectionOverview},
		{"Key Findings", SectionKeyFindings},
		{"How to Use This Data", SectionHowTo},
		{"Coverage", SectionCoverage},
		{"Known Limitations", SectionLimitations},
		{"Dataset Information", SectionDatasetInfo},
		{"References", SectionReferences},
		{"Ethnic Composition", SectionComparison},
		{"Gender Distribution", SectionComparison},
		{"Random Heading", SectionCustom},
	}
	for _, tt := range tests {
		if got := classifyTitle(tt.title); got != tt.want {
			t.Errorf("classifyTitle(%q) = %s, want %s", tt.title, got, tt.want)
		}
	}
}

func TestStructure_FullNarrative(t *testing.T) {
	resp := Structure(demoNarrative)

	if resp.Overview == nil {
		t.Fatal("expected overview")
	}
	if len(resp.Overview.Statistics) != 2 {
		t.Fatalf("expected 2 overview statistics, got %+v", resp.Overview.Statistics)
	}
	if resp.Overview.Statistics[0].Value != "32,700,000" || resp.Overview.Statistics[0].Unit != "people" {
		t.Errorf("unexpected first statistic: %+v", resp.Overview.Statistics[0])
	}

	if resp.KeyFindings == nil || len(resp.KeyFindings.Findings) != 3 {
		t.Fatalf("expected 3 findings, got %+v", resp.KeyFindings)
	}
	if resp.KeyFindings.Findings[0].Icon != "people" {
		t.Errorf("expected people icon for population finding, got %q", resp.KeyFindings.Findings[0].Icon)
	}
	if resp.KeyFindings.Findings[2].Icon != "chart" {
		t.Errorf("expected chart icon for percentage finding, got %q", resp.KeyFindings.Findings[2].Icon)
	}

	if resp.HowToUse == nil || len(resp.HowToUse.Steps) != 2 {
		t.Fatalf("expected 2 steps, got %+v", resp.HowToUse)
	}
	step := resp.HowToUse.Steps[0]
	if step.Number != 1 || step.Title != "Filter" || step.Description != "choose the state and year you need" {
		t.Errorf("unexpected first step: %+v", step)
	}

	if resp.Coverage == nil || len(resp.Coverage.Items) != 2 {
		t.Fatalf("expected 2 coverage items, got %+v", resp.Coverage)
	}
	if resp.Limitations == nil || len(resp.Limitations.Items) != 1 {
		t.Fatalf("expected limitations prose as single item, got %+v", resp.Limitations)
	}

	if resp.DatasetInfo == nil || len(resp.DatasetInfo.Fields) != 2 {
		t.Fatalf("expected 2 dataset fields, got %+v", resp.DatasetInfo)
	}
	if f := resp.DatasetInfo.Fields[0]; f.Label != "Source Agency" || f.Value != "Department of Statistics Malaysia" {
		t.Errorf("unexpected dataset field: %+v", f)
	}

	if resp.References == nil || len(resp.References.Items) != 2 {
		t.Fatalf("expected 2 references, got %+v", resp.References)
	}
	if r := resp.References.Items[0]; r.Title != "Population and Housing Census 2020" || r.Type != "dataset" {
		t.Errorf("unexpected reference: %+v", r)
	}

	if len(resp.CustomSections) != 1 {
		t.Fatalf("expected 1 custom section, got %+v", resp.CustomSections)
	}
	if cs := resp.CustomSections[0]; cs.Title != "Gender Distribution" || cs.Type != "comparison" {
		t.Errorf("unexpected custom section: %+v", cs)
	}

	if !resp.HasLists {
		t.Error("expected HasLists")
	}
}

func TestStructure_RepeatedSectionGoesCustom(t *testing.T) {
	input := "## Overview\nfirst\n\n## Summary\nsecond\n"
	resp := Structure(input)
	if resp.Overview == nil || resp.Overview.Content != "first" {
		t.Fatalf("expected first overview to win, got %+v", resp.Overview)
	}
	if len(resp.CustomSections) != 1 || resp.CustomSections[0].Title != "Summary" {
		t.Fatalf("expected repeated overview in custom sections, got %+v", resp.CustomSections)
	}
}

func TestStructure_PlainTextFallback(t *testing.T) {
	input := "Population Overview\nThe state recorded steady growth.\n  - Growth rate: 1.2%\n  - Net migration: positive\n"
	resp := Structure(input)
	if resp.Overview == nil {
		t.Fatal("expected overview from rewritten plain text")
	}
	if resp.Overview.Title != "Population Overview" {
		t.Errorf("unexpected overview title %q", resp.Overview.Title)
	}
	if !strings.Contains(resp.Overview.Content, "steady growth") {
		t.Errorf("overview content missing prose: %q", resp.Overview.Content)
	}
	if !strings.Contains(resp.Overview.Content, "- Growth rate: 1.2%") {
		t.Errorf("expected normalized bullet in content: %q", resp.Overview.Content)
	}
	if !resp.HasLists {
		t.Error("expected HasLists after bullet rewrite")
	}
}

func TestStructure_Empty(t *testing.T) {
	resp := Structure("   \n\t")
	if resp.Overview != nil || resp.KeyFindings != nil || len(resp.CustomSections) != 0 || resp.HasLists {
		t.Errorf("expected zero response, got %+v", resp)
	}
}

// Every non-blank input line must survive into some section title or
// content.
func TestStructure_ContentConservation(t *testing.T) {
	secs := ParseSections(demoNarrative)
	var all strings.Builder
	var collect func([]*Section)
	collect = func(list []*Section) {
		for _, s := range list {
			all.WriteString(s.Title)
			all.WriteString("\n")
			all.WriteString(s.Content)
			all.WriteString("\n")
			collect(s.Subsections)
		}
	}
	collect(secs)
	joined := all.String()

	for _, line := range strings.Split(demoNarrative, "\n") {
		trimmed := strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "# "))
		if trimmed == "" {
			continue
		}
		if !strings.Contains(joined, trimmed) {
			t.Errorf("line lost during parsing: %q", trimmed)
		}
	}
}

func TestExtractInsights_FiltersAndCaps(t *testing.T) {
	text := "Hi.\n" +
		"The population increased significantly over the last decade.\n" +
		"Growth was higher than the national average for this period.\n" +
		"Selangor counted 6,994,000 people in the latest census.\n" +
		"The decline in rural districts continued through this period.\n" +
		"Urban migration remains the most significant driver of change.\n" +
		"Annual growth reached 1.1% across the federation this year.\n" +
		"The trend is expected to continue for the coming decade.\n"
	insights := ExtractInsights(text)
	if len(insights) != maxInsights {
		t.Fatalf("expected %d insights, got %d: %v", maxInsights, len(insights), insights)
	}
	for _, in := range insights {
		if strings.Contains(in, "Hi") {
			t.Errorf("short line should be filtered: %q", in)
		}
	}
	if insights[0] != "The population increased significantly over the last decade." {
		t.Errorf("unexpected first insight: %q", insights[0])
	}
}

func TestExtractInsights_NumericPattern(t *testing.T) {
	insights := ExtractInsights("Malaysia had 33 million people in 2023. This is a 2% increase from 2022.")
	if len(insights) != 1 || !strings.Contains(insights[0], "33 million") {
		t.Fatalf("expected the 33 million line, got %v", insights)
	}
}

func TestExtractInsights_BareYearDoesNotQualify(t *testing.T) {
	if got := ExtractInsights("The census was conducted during 2020 by the department."); len(got) != 0 {
		t.Errorf("a bare year is not a numeric insight: %v", got)
	}
}

func TestDetectComparisons_VsPattern(t *testing.T) {
	comps := DetectComparisons("Selangor vs Kedah: population trends over time.")
	if len(comps) != 1 {
		t.Fatalf("expected 1 comparison, got %+v", comps)
	}
	c := comps[0]
	if c.Entities[0] != "Selangor" || c.Entities[1] != "Kedah" {
		t.Errorf("unexpected entities: %v", c.Entities)
	}
	if c.Type != "demographic" {
		t.Errorf("expected demographic type, got %q", c.Type)
	}
}

func TestDetectComparisons_SideBySide(t *testing.T) {
	comps := DetectComparisons("Kedah: 2,193,000 people, Selangor: 6,994,000 people")
	if len(comps) != 1 {
		t.Fatalf("expected 1 comparison, got %+v", comps)
	}
	c := comps[0]
	if len(c.Entities) != 2 || c.Entities[0] != "Kedah" || c.Entities[1] != "Selangor" {
		t.Errorf("unexpected entities: %v", c.Entities)
	}
	if len(c.Values) != 2 || !strings.HasPrefix(c.Values[0], "2,193,000") {
		t.Errorf("unexpected values: %v", c.Values)
	}
	if c.Type != "demographic" {
		t.Errorf("expected demographic type, got %q", c.Type)
	}
}

func TestDetectComparisons_ComparedTo(t *testing.T) {
	comps := DetectComparisons("Selangor compared to Kedah shows faster growth.")
	if len(comps) != 1 {
		t.Fatalf("expected 1 comparison, got %+v", comps)
	}
	c := comps[0]
	if len(c.Entities) != 2 || c.Entities[0] != "Selangor" || c.Entities[1] != "Kedah" {
		t.Errorf("unexpected entities: %v", c.Entities)
	}
	if c.Type != "general" {
		t.Errorf("expected general type, got %q", c.Type)
	}
}

func TestDetectComparisons_SinglePairIgnored(t *testing.T) {
	if comps := DetectComparisons("Total: 32,700,000 people"); len(comps) != 0 {
		t.Errorf("single label:value pair is not a comparison: %+v", comps)
	}
}

func TestClassifyComparison(t *testing.T) {
	tests := []struct {
		ctx  string
		want string
	}{
		{"population of both states", "demographic"},
		{"growth rate differences", "percentage"},
		{"year over year change", "temporal"},
		{"Malay and Chinese shares", "ethnic"},
		{"male versus female counts", "gender"},
		{"two datasets", "general"},
	}
	for _, tt := range tests {
		if got := classifyComparison(tt.ctx); got != tt.want {
			t.Errorf("classifyComparison(%q) = %q, want %q", tt.ctx, got, tt.want)
		}
	}
}

func TestExtractStatistics(t *testing.T) {
	text := "Header line\nTotal: 1,500,000 people (45.5%)\nFooter line"
	stats := ExtractStatistics(text)
	if len(stats) != 2 {
		t.Fatalf("expected 2 statistics, got %+v", stats)
	}
	first := stats[0]
	if first.Value != "1,500,000" || first.Unit != "people" {
		t.Errorf("unexpected first stat: %+v", first)
	}
	if first.Line != 2 || first.Column != 8 {
		t.Errorf("unexpected position: line=%d col=%d", first.Line, first.Column)
	}
	if !strings.Contains(first.Context, "Header line") || !strings.Contains(first.Context, "Footer line") {
		t.Errorf("context should span neighboring lines: %q", first.Context)
	}
	if stats[1].Value != "45.5" || stats[1].Unit != "%" {
		t.Errorf("unexpected second stat: %+v", stats[1])
	}
}

func TestExtractStatistics_BareGroupedNumber(t *testing.T) {
	stats := ExtractStatistics("The census counted 32,700,000 in total.")
	if len(stats) != 1 || stats[0].Value != "32,700,000" || stats[0].Unit != "" {
		t.Fatalf("expected bare grouped number, got %+v", stats)
	}
}

func TestAssessQuality_Bounds(t *testing.T) {
	q := AssessQuality(demoNarrative)
	if q.Score != 8 {
		t.Errorf("expected full score 8, got %d (%+v)", q.Score, q)
	}

	empty := AssessQuality("")
	if empty.Score != 0 {
		t.Errorf("expected score 0 for empty input, got %d", empty.Score)
	}
}

func TestAssessQuality_TextSignals(t *testing.T) {
	q := AssessQuality("- population 5% higher than before\ntrend data from census")
	if !q.HasStructure || !q.HasComparative || !q.HasStatistics || !q.HasSources || !q.HasInsightWords {
		t.Fatalf("expected all five signals, got %+v", q)
	}
	if q.Score != 8 {
		t.Errorf("expected score 8, got %d", q.Score)
	}

	// Prose with numbers but no structure, comparison or sources scores
	// only the statistic points.
	q = AssessQuality("Malaysia counted 32,700,000 people in the census year.")
	if q.Score != 2 || !q.HasStatistics || q.HasStructure || q.HasComparative {
		t.Errorf("expected statistic-only score 2, got %+v", q)
	}
}

func TestCleanSources(t *testing.T) {
	in := []Source{
		{Title: " Census 2020 ", URL: "https://example.org/a", Snippet: "<p>Hello <b>world</b></p>"},
		{URL: "https://example.org/a"},
		{URL: "https://example.org/b"},
		{Snippet: "orphan"},
	}
	out := CleanSources(in)
	if len(out) != 2 {
		t.Fatalf("expected 2 sources, got %+v", out)
	}
	if out[0].Title != "Census 2020" || out[0].Snippet != "Hello world" {
		t.Errorf("unexpected first source: %+v", out[0])
	}
	if out[1].Title != "https://example.org/b" {
		t.Errorf("expected URL fallback title, got %q", out[1].Title)
	}
}

func TestStripHTML(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain text", "plain text"},
		{"<p>Hello <b>world</b></p>", "Hello world"},
		{"<div>keep</div><script>drop()</script>", "keep"},
	}
	for _, tt := range tests {
		if got := StripHTML(tt.in); got != tt.want {
			t.Errorf("StripHTML(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRenderHTML(t *testing.T) {
	out := RenderHTML("# Title\n\n| a | b |\n|---|---|\n| 1 | 2 |\n")
	if !strings.Contains(out, "<h1") {
		t.Errorf("expected heading markup, got %q", out)
	}
	if !strings.Contains(out, "<table") {
		t.Errorf("expected table markup, got %q", out)
	}
}
