package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nao1215/siteaudit/internal/audit"
	"github.com/nao1215/siteaudit/internal/crawler"
	"github.com/nao1215/siteaudit/internal/model"
)

// Snippets of the terminal page issues.
const (
	Page404Snippet     = "GET returned 404"
	UnknownErrorReason = "Unknown error"
)

// PageFetcher fetches a page and classifies the result. *crawler.Fetcher
// implements it.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (model.FetchOutcome, error)
}

// DescribeStep runs the classifiers that only need the manifest data.
// It runs before the fetch so a blank description is reported even when
// the page itself is missing.
type DescribeStep struct {
	auditor *audit.Auditor
}

// NewDescribeStep creates a DescribeStep.
func NewDescribeStep(auditor *audit.Auditor) *DescribeStep {
	return &DescribeStep{auditor: auditor}
}

// Name returns the step name.
func (s *DescribeStep) Name() string { return "describe" }

// Do implements Step.
func (s *DescribeStep) Do(ctx context.Context, a *PageAudit) error {
	data := &audit.PageData{Page: a.Page, SnippetLimit: a.snippetLimit()}
	issues, err := s.auditor.Classify(ctx, audit.StageDescriptor, data)
	a.Issues = append(a.Issues, issues...)
	return err
}

// FetchStep requests the page and ends the audit on 404 or fetch failure.
type FetchStep struct {
	fetcher PageFetcher
}

// NewFetchStep creates a FetchStep.
func NewFetchStep(fetcher PageFetcher) *FetchStep {
	return &FetchStep{fetcher: fetcher}
}

// Name returns the step name.
func (s *FetchStep) Name() string { return "fetch" }

// Do implements Step.
func (s *FetchStep) Do(ctx context.Context, a *PageAudit) error {
	a.State = StateFetching

	outcome, err := s.fetcher.Fetch(ctx, a.Page.URL)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", a.Page.URL, err)
	}
	a.Outcome = outcome

	switch outcome.Kind {
	case model.FetchOK:
		a.State = StateExtracting
	case model.FetchNotFound:
		a.finish(model.Page404, Page404Snippet)
	default:
		reason := strings.TrimSpace(outcome.Reason)
		if reason == "" {
			reason = UnknownErrorReason
		}
		a.finish(model.FetchFailed, reason)
	}
	return nil
}

// ExtractStep parses the fetched body into links and visible text.
type ExtractStep struct {
	extractor *crawler.Extractor
}

// NewExtractStep creates an ExtractStep.
func NewExtractStep(extractor *crawler.Extractor) *ExtractStep {
	return &ExtractStep{extractor: extractor}
}

// Name returns the step name.
func (s *ExtractStep) Name() string { return "extract" }

// Do implements Step.
func (s *ExtractStep) Do(_ context.Context, a *PageAudit) error {
	content, err := s.extractor.Extract(a.Page.URL, strings.NewReader(a.Outcome.Body))
	if err != nil {
		return err
	}
	a.Content = content
	// The body is no longer needed once extracted.
	a.Outcome.Body = ""
	a.State = StateClassifying
	return nil
}

// ClassifyStep runs the content classifiers.
type ClassifyStep struct {
	auditor      *audit.Auditor
	snippetLimit int
	logger       *slog.Logger
}

// ClassifyStepOption configures a ClassifyStep.
type ClassifyStepOption func(*ClassifyStep)

// WithSnippetLimit sets the maximum snippet length.
func WithSnippetLimit(limit int) ClassifyStepOption {
	return func(s *ClassifyStep) {
		s.snippetLimit = limit
	}
}

// WithClassifyLogger sets the logger of the step.
func WithClassifyLogger(logger *slog.Logger) ClassifyStepOption {
	return func(s *ClassifyStep) {
		s.logger = logger
	}
}

// NewClassifyStep creates a ClassifyStep.
func NewClassifyStep(auditor *audit.Auditor, opts ...ClassifyStepOption) *ClassifyStep {
	s := &ClassifyStep{
		auditor:      auditor,
		snippetLimit: model.DefaultSnippetLimit,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *ClassifyStep) Name() string { return "classify" }

// Do implements Step.
func (s *ClassifyStep) Do(ctx context.Context, a *PageAudit) error {
	data := &audit.PageData{
		Page:         a.Page,
		Host:         crawler.HostOf(a.Page.URL),
		SnippetLimit: s.snippetLimit,
	}
	if a.Content != nil {
		data.Links = a.Content.Links
		data.Text = a.Content.Text
	}

	issues, err := s.auditor.Classify(ctx, audit.StageContent, data)
	a.Issues = append(a.Issues, issues...)
	if err != nil {
		return err
	}

	s.logger.Debug("page classified",
		"url", a.Page.URL,
		"links", len(data.Links),
		"issues", len(a.Issues),
	)
	a.State = StateDone
	return nil
}

// NewPagePipeline builds the standard describe, fetch, extract and classify pipeline.
func NewPagePipeline(fetcher PageFetcher, extractor *crawler.Extractor, auditor *audit.Auditor, snippetLimit int, logger *slog.Logger) *Pipeline {
	p := New(WithLogger(logger))
	p.AddSteps(
		NewDescribeStep(auditor),
		NewFetchStep(fetcher),
		NewExtractStep(extractor),
		NewClassifyStep(auditor, WithSnippetLimit(snippetLimit), WithClassifyLogger(logger)),
	)
	return p
}
