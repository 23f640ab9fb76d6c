package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nao1215/siteaudit/internal/audit"
	"github.com/nao1215/siteaudit/internal/crawler"
	"github.com/nao1215/siteaudit/internal/model"
)

// Fetcher is what a run needs from the network: page fetches for the pages
// themselves and status probes for their links.
type Fetcher interface {
	PageFetcher
	crawler.StatusProber
}

// Recorder receives run statistics. The metrics package implements it.
type Recorder interface {
	RecordPage(outcome model.FetchKind, issues []model.Issue)
	RecordCache(stats crawler.CacheStats)
}

// Runner audits a list of pages end to end.
// Every call to Run creates its own link status cache, shared by all pages
// of that run and discarded when the run ends.
type Runner struct {
	fetcher      Fetcher
	extractor    *crawler.Extractor
	policy       audit.Policy
	concurrency  int
	snippetLimit int
	logger       *slog.Logger
	progress     ProgressFunc
	recorder     Recorder
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithRunnerConcurrency sets the maximum number of pages in flight.
func WithRunnerConcurrency(n int) RunnerOption {
	return func(r *Runner) {
		r.concurrency = n
	}
}

// WithPolicy sets the host sets and placeholder settings.
func WithPolicy(policy audit.Policy) RunnerOption {
	return func(r *Runner) {
		r.policy = policy
	}
}

// WithExtractor replaces the default extractor.
func WithExtractor(extractor *crawler.Extractor) RunnerOption {
	return func(r *Runner) {
		r.extractor = extractor
	}
}

// WithRunnerSnippetLimit sets the maximum snippet length.
func WithRunnerSnippetLimit(limit int) RunnerOption {
	return func(r *Runner) {
		if limit > 0 {
			r.snippetLimit = limit
		}
	}
}

// WithRunnerLogger sets the logger used by every component of the run.
func WithRunnerLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithRunnerProgress sets a callback invoked as each page starts.
func WithRunnerProgress(fn ProgressFunc) RunnerOption {
	return func(r *Runner) {
		r.progress = fn
	}
}

// WithRecorder sets the statistics recorder.
func WithRecorder(recorder Recorder) RunnerOption {
	return func(r *Runner) {
		r.recorder = recorder
	}
}

// NewRunner creates a Runner that fetches through fetcher.
func NewRunner(fetcher Fetcher, opts ...RunnerOption) *Runner {
	r := &Runner{
		fetcher:      fetcher,
		extractor:    crawler.NewExtractor(),
		concurrency:  DefaultConcurrency,
		snippetLimit: model.DefaultSnippetLimit,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// Run audits pages and returns the report. Issues are ordered by input
// position, then by classifier order within a page.
// The error is non-nil only when the classifiers cannot be built or ctx
// ends early; in the latter case the partial report is returned as well.
func (r *Runner) Run(ctx context.Context, input string, pages []model.PageDescriptor) (*model.AuditReport, error) {
	report := model.NewAuditReport(input)
	report.Pages = len(pages)

	cache := crawler.NewStatusCache(r.fetcher)
	auditor, err := audit.NewDefaultAuditor(r.policy, cache, audit.WithLogger(r.logger))
	if err != nil {
		return nil, fmt.Errorf("failed to build classifiers: %w", err)
	}

	factory := func() *Pipeline {
		return NewPagePipeline(r.fetcher, r.extractor, auditor, r.snippetLimit, r.logger)
	}

	r.logger.Debug("page pipeline", "steps", strings.Join(factory().StepNames(), " -> "))

	opts := []BatchOption{
		WithConcurrency(r.concurrency),
		WithBatchSnippetLimit(r.snippetLimit),
		WithBatchLogger(r.logger),
		WithProgress(r.progress),
	}
	if r.recorder != nil {
		opts = append(opts, WithPageDone(func(a *PageAudit) {
			r.recorder.RecordPage(a.Outcome.Kind, a.Issues)
		}))
	}

	results, runErr := NewBatchProcessor(factory, opts...).ProcessBatch(ctx, pages)

	report.Issues = Flatten(results)
	for _, res := range results {
		if res != nil {
			report.Outcomes[res.Outcome.Kind.String()]++
		}
	}

	stats := cache.Stats()
	report.LinksChecked = stats.Entries
	if r.recorder != nil {
		r.recorder.RecordCache(stats)
	}
	report.FinishedAt = time.Now()

	r.logger.Info("run finished",
		"pages", report.Pages,
		"issues", len(report.Issues),
		"links_checked", stats.Entries,
		"cache_hits", stats.Hits,
	)

	return report, runErr
}
