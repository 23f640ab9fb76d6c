package audit

import (
	"context"

	"github.com/nao1215/siteaudit/internal/model"
)

// MissingDescriptionSnippet is the snippet of every MissingDescription issue.
const MissingDescriptionSnippet = "SEO Description column is blank."

// DescriptionClassifier reports pages whose manifest description is blank.
// Pages from a manifest without a description column are skipped.
type DescriptionClassifier struct{}

// NewDescriptionClassifier creates a DescriptionClassifier.
func NewDescriptionClassifier() *DescriptionClassifier {
	return &DescriptionClassifier{}
}

// Name returns the classifier name.
func (c *DescriptionClassifier) Name() string { return "description" }

// Category returns the classifier category.
func (c *DescriptionClassifier) Category() string { return CategoryContent }

// Stage returns StageDescriptor.
func (c *DescriptionClassifier) Stage() Stage { return StageDescriptor }

// Classify implements Classifier.
func (c *DescriptionClassifier) Classify(_ context.Context, data *PageData) ([]model.Issue, error) {
	if !data.Page.DescriptionIsBlank() {
		return nil, nil
	}
	return []model.Issue{data.issue(model.MissingDescription, MissingDescriptionSnippet)}, nil
}
