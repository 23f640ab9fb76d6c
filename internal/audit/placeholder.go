package audit

import (
	"context"
	"fmt"
	"regexp"

	"github.com/nao1215/siteaudit/internal/model"
)

// Placeholder defaults.
const (
	DefaultPlaceholderCap     = 20
	DefaultPlaceholderContext = 80
)

// DefaultPlaceholderPatterns are matched case-insensitively against page text.
var DefaultPlaceholderPatterns = []string{
	`lorem ipsum`,
	`\bplaceholder\b`,
}

// PlaceholderClassifier reports filler text left in published pages.
// Patterns are tried in order and every match of one pattern is reported
// before the next pattern is tried, until the cap is reached.
type PlaceholderClassifier struct {
	patterns   []*regexp.Regexp
	maxMatches int
	context    int
	raw        []string
}

// PlaceholderOption configures a PlaceholderClassifier.
type PlaceholderOption func(*PlaceholderClassifier)

// WithPatterns replaces the default patterns. An empty list keeps the defaults.
func WithPatterns(patterns ...string) PlaceholderOption {
	return func(c *PlaceholderClassifier) {
		if len(patterns) > 0 {
			c.raw = patterns
		}
	}
}

// WithMaxMatches caps the number of issues per page. Non-positive keeps the default.
func WithMaxMatches(n int) PlaceholderOption {
	return func(c *PlaceholderClassifier) {
		if n > 0 {
			c.maxMatches = n
		}
	}
}

// WithContextWidth sets how many characters around a match are quoted.
// Negative keeps the default.
func WithContextWidth(n int) PlaceholderOption {
	return func(c *PlaceholderClassifier) {
		if n >= 0 {
			c.context = n
		}
	}
}

// NewPlaceholderClassifier compiles the patterns. Every pattern is made
// case-insensitive.
func NewPlaceholderClassifier(opts ...PlaceholderOption) (*PlaceholderClassifier, error) {
	c := &PlaceholderClassifier{
		raw:        DefaultPlaceholderPatterns,
		maxMatches: DefaultPlaceholderCap,
		context:    DefaultPlaceholderContext,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.patterns = make([]*regexp.Regexp, 0, len(c.raw))
	for _, p := range c.raw {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, fmt.Errorf("invalid placeholder pattern %q: %w", p, err)
		}
		c.patterns = append(c.patterns, re)
	}
	return c, nil
}

// Name returns the classifier name.
func (c *PlaceholderClassifier) Name() string { return "placeholder" }

// Category returns the classifier category.
func (c *PlaceholderClassifier) Category() string { return CategoryContent }

// Stage returns StageContent.
func (c *PlaceholderClassifier) Stage() Stage { return StageContent }

// Classify implements Classifier.
func (c *PlaceholderClassifier) Classify(_ context.Context, data *PageData) ([]model.Issue, error) {
	var issues []model.Issue
	if data.Text == "" {
		return issues, nil
	}

	limit := data.SnippetLimit
	if limit <= 0 {
		limit = model.DefaultSnippetLimit
	}

	for _, re := range c.patterns {
		for _, loc := range re.FindAllStringIndex(data.Text, -1) {
			match := data.Text[loc[0]:loc[1]]
			window := model.TrimSnippet(textWindow(data.Text, loc[0], loc[1], c.context), limit)
			issues = append(issues, data.issue(model.PlaceholderText, fmt.Sprintf(`Found "%s" in "%s"`, match, window)))
			if len(issues) >= c.maxMatches {
				return issues, nil
			}
		}
	}
	return issues, nil
}
