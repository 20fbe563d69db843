package html

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/custodia-labs/sitesage/internal/core/domain"
	"github.com/custodia-labs/sitesage/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles HTML pages.
type Normaliser struct{}

// New creates a new HTML normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/html", "application/xhtml+xml"}
}

// Normalise converts an HTML page to a document.
// Content is the body rendered as lightly formatted text with
// scripts and styles removed. Links are every <a href> in the page,
// resolved against the page URL with fragments stripped.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawPage) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	root, err := html.Parse(bytes.NewReader(raw.Content))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	base, err := url.Parse(raw.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: page url: %w", domain.ErrInvalidInput, err)
	}

	main := findFirst(root, atom.Body)
	if main == nil {
		main = root
	}

	return &driven.NormaliseResult{
		Document: domain.Document{
			URL:     raw.URL,
			Title:   extractTitle(root),
			Content: renderText(main),
			Links:   extractLinks(root, base),
		},
	}, nil
}

// skipped elements contribute no text.
var skipped = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Template: true,
	atom.Svg:      true,
	atom.Head:     true,
}

// block elements are separated from their neighbours by a blank line.
var block = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Section: true, atom.Article: true,
	atom.Main: true, atom.Header: true, atom.Footer: true, atom.Nav: true,
	atom.Aside: true, atom.Blockquote: true, atom.Pre: true, atom.Table: true,
	atom.Tr: true, atom.Ul: true, atom.Ol: true, atom.Dl: true, atom.Dt: true,
	atom.Dd: true, atom.Form: true, atom.Figure: true, atom.Figcaption: true,
	atom.Address: true, atom.Hr: true,
}

var headingLevel = map[atom.Atom]int{
	atom.H1: 1, atom.H2: 2, atom.H3: 3, atom.H4: 4, atom.H5: 5, atom.H6: 6,
}

var (
	multiSpaces   = regexp.MustCompile(`[ \t\r\f\v]+`)
	multiNewlines = regexp.MustCompile(`\n{3,}`)
)

// findFirst returns the first element of the given type in document order.
func findFirst(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, a); found != nil {
			return found
		}
	}
	return nil
}

// extractTitle prefers <title>, then the first <h1>, else "".
func extractTitle(root *html.Node) string {
	if t := findFirst(root, atom.Title); t != nil {
		if title := collapse(textContent(t)); title != "" {
			return title
		}
	}
	if h1 := findFirst(root, atom.H1); h1 != nil {
		return collapse(textContent(h1))
	}
	return ""
}

// textContent concatenates all descendant text.
func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// extractLinks returns absolute hrefs in document order, deduplicated.
func extractLinks(root *html.Node, base *url.URL) []string {
	var links []string
	seen := make(map[string]bool)

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.A {
			if href, ok := attr(n, "href"); ok {
				if abs := resolve(base, href); abs != "" && !seen[abs] {
					seen[abs] = true
					links = append(links, abs)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return links
}

// resolve joins href onto base after dropping any fragment.
// Returns "" for hrefs that do not parse.
func resolve(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if i := strings.IndexByte(href, '#'); i >= 0 {
		href = href[:i]
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	abs := base.ResolveReference(ref)
	abs.Fragment = ""
	abs.RawFragment = ""
	return abs.String()
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, key) {
			return a.Val, true
		}
	}
	return "", false
}

// renderText renders an element tree as lightly formatted text:
// headings become "#" lines, list items "- " lines, blocks paragraphs.
func renderText(n *html.Node) string {
	var b strings.Builder
	render(&b, n, false)

	content := multiSpaces.ReplaceAllString(b.String(), " ")

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	content = strings.Join(lines, "\n")
	content = multiNewlines.ReplaceAllString(content, "\n\n")
	return strings.TrimSpace(content)
}

func render(b *strings.Builder, n *html.Node, pre bool) {
	switch n.Type {
	case html.TextNode:
		if pre || n.Data == "" {
			b.WriteString(n.Data)
			return
		}
		if isSpace(rune(n.Data[0])) {
			b.WriteByte(' ')
		}
		b.WriteString(strings.Join(strings.FieldsFunc(n.Data, isSpace), " "))
		if isSpace(rune(n.Data[len(n.Data)-1])) {
			b.WriteByte(' ')
		}
		return
	case html.CommentNode, html.DoctypeNode:
		return
	case html.ElementNode:
		if skipped[n.DataAtom] {
			return
		}
	}

	switch {
	case n.DataAtom == atom.Br:
		b.WriteString("\n")
		return
	case headingLevel[n.DataAtom] > 0:
		b.WriteString("\n\n" + strings.Repeat("#", headingLevel[n.DataAtom]) + " ")
	case n.DataAtom == atom.Li:
		b.WriteString("\n- ")
	case block[n.DataAtom]:
		b.WriteString("\n\n")
	case n.DataAtom == atom.Td || n.DataAtom == atom.Th:
		b.WriteString(" ")
	}

	inPre := pre || n.DataAtom == atom.Pre
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		render(b, c, inPre)
	}

	if headingLevel[n.DataAtom] > 0 || block[n.DataAtom] {
		b.WriteString("\n\n")
	}
}

func isSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\f':
		return true
	default:
		return false
	}
}
