package automation

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// Snapshot is a parsed copy of the page's HTML taken with a single read, so
// row text cannot change underneath the caller mid-scan.
type Snapshot struct {
	Title      string
	Tables     int
	Bodies     int
	Rows       int
	FirstTable string

	doc *html.Node
}

// Snapshot reads the page's current HTML.
func (d *Driver) Snapshot() (*Snapshot, error) {
	raw, err := d.page.Content()
	if err != nil {
		return nil, fmt.Errorf("failed to read page content: %w", err)
	}
	return ParseSnapshot(raw)
}

// ParseSnapshot parses rawHTML and counts its table structure.
func ParseSnapshot(rawHTML string) (*Snapshot, error) {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	s := &Snapshot{doc: doc}
	walk(doc, func(n *html.Node) {
		if n.Type != html.ElementNode {
			return
		}
		switch n.Data {
		case "title":
			if s.Title == "" {
				s.Title = strings.TrimSpace(TextContent(n))
			}
		case "table":
			s.Tables++
			if s.FirstTable == "" {
				s.FirstTable = outerHTML(n, 500)
			}
		case "tbody":
			s.Bodies++
		case "tr":
			s.Rows++
		}
	})
	return s, nil
}

// NodeMatcher selects element nodes.
type NodeMatcher func(n *html.Node) bool

// MatchAny matches when any of matchers does.
func MatchAny(matchers ...NodeMatcher) NodeMatcher {
	return func(n *html.Node) bool {
		for _, m := range matchers {
			if m(n) {
				return true
			}
		}
		return false
	}
}

// Descendant matches tag elements that sit inside an ancestor element.
func Descendant(ancestor, tag string) NodeMatcher {
	return func(n *html.Node) bool {
		if n.Data != tag {
			return false
		}
		for p := n.Parent; p != nil; p = p.Parent {
			if p.Type == html.ElementNode && p.Data == ancestor {
				return true
			}
		}
		return false
	}
}

// WithAttr matches tag elements carrying attribute key.
func WithAttr(tag, key string) NodeMatcher {
	return func(n *html.Node) bool {
		if n.Data != tag {
			return false
		}
		_, ok := attr(n, key)
		return ok
	}
}

// WithClass matches any element whose class list contains class.
func WithClass(class string) NodeMatcher {
	return func(n *html.Node) bool {
		v, ok := attr(n, "class")
		if !ok {
			return false
		}
		for _, c := range strings.Fields(v) {
			if c == class {
				return true
			}
		}
		return false
	}
}

// RowTexts returns the text content of each element matching m, in document order.
func (s *Snapshot) RowTexts(m NodeMatcher) []string {
	var texts []string
	walk(s.doc, func(n *html.Node) {
		if n.Type == html.ElementNode && m(n) {
			texts = append(texts, TextContent(n))
		}
	})
	return texts
}

// TextContent concatenates every text node under n, as the DOM property does.
func TextContent(n *html.Node) string {
	var b strings.Builder
	walk(n, func(c *html.Node) {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	})
	return b.String()
}

// walk visits n and its descendants depth first.
func walk(n *html.Node, visit func(*html.Node)) {
	visit(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, visit)
	}
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// outerHTML renders n, cut to at most limit bytes.
func outerHTML(n *html.Node, limit int) string {
	var b strings.Builder
	if err := html.Render(&b, n); err != nil {
		return ""
	}
	out := b.String()
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
