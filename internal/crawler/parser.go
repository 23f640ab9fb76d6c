package crawler

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"

	"github.com/nao1215/siteaudit/internal/model"
)

// DefaultContentSelector selects the primary content region of a page.
const DefaultContentSelector = "main"

// invisibleElements never contribute to visible text.
var invisibleElements = map[string]struct{}{
	"script":   {},
	"style":    {},
	"noscript": {},
	"template": {},
}

// Extractor pulls resolved links and visible text out of an HTML page.
// Only the content region is audited so navigation and footer boilerplate
// shared by every page is not reported over and over.
// An Extractor has no mutable state and may be shared between goroutines.
type Extractor struct {
	selector string
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithContentSelector sets the CSS selector of the content region.
// The first match is used; when nothing matches the whole document is used.
func WithContentSelector(selector string) ExtractorOption {
	return func(e *Extractor) {
		if strings.TrimSpace(selector) != "" {
			e.selector = selector
		}
	}
}

// NewExtractor creates an Extractor.
func NewExtractor(opts ...ExtractorOption) *Extractor {
	e := &Extractor{selector: DefaultContentSelector}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// PageContent is what the Extractor found on one page.
type PageContent struct {
	// Links are the resolved anchors in document order. Repeated hrefs are kept.
	Links []model.ResolvedLink

	// Text is the visible text of the content region, whitespace-collapsed.
	Text string
}

// Extract parses body and extracts the content of the page at pageURL.
// It fails only when pageURL or the document cannot be parsed.
func (e *Extractor) Extract(pageURL string, body io.Reader) (*PageContent, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid page URL %q: %w", pageURL, err)
	}

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	region := doc.Find(e.selector).First()
	if region.Length() == 0 {
		region = doc.Selection
	}

	content := &PageContent{
		Links: make([]model.ResolvedLink, 0),
	}

	region.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if strings.TrimSpace(href) == "" {
			return
		}
		link, ok := ResolveHref(base, href)
		if !ok {
			return
		}
		link.AnchorText = visibleText(s.Nodes...)
		content.Links = append(content.Links, link)
	})

	content.Text = visibleText(region.Nodes...)
	return content, nil
}

// visibleText joins the text nodes under nodes with single spaces,
// skipping invisible elements and HTML comments.
func visibleText(nodes ...*html.Node) string {
	var b strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
			b.WriteByte(' ')
			return
		case html.ElementNode:
			if _, skip := invisibleElements[n.Data]; skip {
				return
			}
		case html.CommentNode:
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	for _, n := range nodes {
		walk(n)
	}
	return CollapseWhitespace(norm.NFKC.String(b.String()))
}

// CollapseWhitespace trims text and replaces each run of whitespace with a
// single space.
func CollapseWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
