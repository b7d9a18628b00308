package answer

import (
	"strings"

	"golang.org/x/net/html"
)

// Source is a citation attached to a backend answer.
type Source struct {
	Title    string            `json:"title"`
	URL      string            `json:"url,omitempty"`
	Snippet  string            `json:"snippet,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// CleanSources normalizes backend-provided citations: snippets lose HTML
// markup and get trimmed, untitled sources fall back to their URL, and
// entries with neither title nor URL are dropped. Duplicate URLs keep the
// first occurrence.
func CleanSources(sources []Source) []Source {
	seen := make(map[string]bool, len(sources))
	out := make([]Source, 0, len(sources))
	for _, s := range sources {
		s.Title = strings.TrimSpace(s.Title)
		s.URL = strings.TrimSpace(s.URL)
		s.Snippet = strings.TrimSpace(StripHTML(s.Snippet))
		if len(s.Snippet) > 300 {
			s.Snippet = s.Snippet[:300]
		}
		if s.Title == "" {
			s.Title = s.URL
		}
		if s.Title == "" {
			continue
		}
		if s.URL != "" {
			if seen[s.URL] {
				continue
			}
			seen[s.URL] = true
		}
		out = append(out, s)
	}
	return out
}

// StripHTML flattens markup to its text content. Script and style bodies
// are dropped. Input that is not parseable HTML comes back unchanged.
func StripHTML(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return s
	}

	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style":
				return
			}
		}
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return strings.Join(strings.Fields(buf.String()), " ")
}
