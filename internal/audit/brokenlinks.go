package audit

import (
	"context"
	"fmt"
	"net/http"

	"github.com/nao1215/siteaudit/internal/model"
)

// StatusResolver returns the memoized HTTP status of a URL.
// ok is false when the URL could not be fetched at all.
type StatusResolver interface {
	Resolve(ctx context.Context, url string) (status int, ok bool)
}

// BrokenLinkClassifier checks every distinct same-host link of a page and
// reports those that fail or answer with a status of 400 or more.
type BrokenLinkClassifier struct {
	resolver StatusResolver
}

// NewBrokenLinkClassifier creates a BrokenLinkClassifier.
func NewBrokenLinkClassifier(resolver StatusResolver) *BrokenLinkClassifier {
	return &BrokenLinkClassifier{resolver: resolver}
}

// Name returns the classifier name.
func (c *BrokenLinkClassifier) Name() string { return "broken-link" }

// Category returns the classifier category.
func (c *BrokenLinkClassifier) Category() string { return CategoryLiveness }

// Stage returns StageContent.
func (c *BrokenLinkClassifier) Stage() Stage { return StageContent }

// Classify implements Classifier.
func (c *BrokenLinkClassifier) Classify(ctx context.Context, data *PageData) ([]model.Issue, error) {
	var issues []model.Issue
	seen := make(map[string]struct{})

	for _, link := range data.Links {
		if link.Host != data.Host {
			continue
		}
		if _, dup := seen[link.Absolute]; dup {
			continue
		}
		seen[link.Absolute] = struct{}{}

		status, ok := c.resolver.Resolve(ctx, link.Absolute)
		if err := ctx.Err(); err != nil {
			return issues, err
		}

		switch {
		case !ok:
			issues = append(issues, data.issue(model.BrokenLink, LinkSnippet(link, "request failed")))
		case status >= http.StatusBadRequest:
			issues = append(issues, data.issue(model.BrokenLink, LinkSnippet(link, fmt.Sprintf("returned HTTP %d", status))))
		}
	}
	return issues, nil
}
