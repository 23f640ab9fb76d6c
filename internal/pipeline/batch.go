package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/siteaudit/internal/model"
)

// DefaultConcurrency is the number of pages audited at the same time.
const DefaultConcurrency = 5

// ProgressFunc is called when a page starts its audit. index is 1-based.
// It is called from worker goroutines and must be safe for concurrent use.
type ProgressFunc func(index, total int, page model.PageDescriptor)

// PageDoneFunc is called when a page finishes its audit, from the worker
// goroutine that ran it.
type PageDoneFunc func(audit *PageAudit)

// BatchProcessor audits pages concurrently and keeps results in input order.
type BatchProcessor struct {
	// pipelineFactory creates the pipeline for one page.
	pipelineFactory func() *Pipeline

	concurrency  int
	snippetLimit int
	logger       *slog.Logger
	progress     ProgressFunc
	pageDone     PageDoneFunc
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of pages in flight.
// Non-positive values keep the default.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// WithBatchSnippetLimit sets the snippet cap given to every page audit.
func WithBatchSnippetLimit(limit int) BatchOption {
	return func(b *BatchProcessor) {
		if limit > 0 {
			b.snippetLimit = limit
		}
	}
}

// WithProgress sets a callback invoked as each page starts.
func WithProgress(fn ProgressFunc) BatchOption {
	return func(b *BatchProcessor) {
		b.progress = fn
	}
}

// WithPageDone sets a callback invoked as each page finishes.
func WithPageDone(fn PageDoneFunc) BatchOption {
	return func(b *BatchProcessor) {
		b.pageDone = fn
	}
}

// NewBatchProcessor creates a BatchProcessor. pipelineFactory is called once
// per page so no pipeline state is shared between pages.
func NewBatchProcessor(pipelineFactory func() *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		concurrency:     DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(bp)
	}
	if bp.logger == nil {
		bp.logger = slog.Default()
	}
	return bp
}

// Concurrency returns the configured concurrency limit.
func (bp *BatchProcessor) Concurrency() int {
	return bp.concurrency
}

// ProcessBatch audits every page and returns one PageAudit per page, at the
// page's input position. A page whose pipeline fails gets a Fetch failed
// issue; the other pages are unaffected. The error is non-nil only when ctx
// ends before every page finished.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, pages []model.PageDescriptor) ([]*PageAudit, error) {
	bp.logger.Info("starting audit",
		"total_pages", len(pages),
		"concurrency", bp.concurrency,
	)
	startTime := time.Now()

	// Each goroutine writes only its own slot.
	results := make([]*PageAudit, len(pages))

	var g errgroup.Group
	g.SetLimit(bp.concurrency)

	for i, page := range pages {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			if bp.progress != nil {
				bp.progress(i+1, len(pages), page)
			}

			result := NewPageAudit(i, page)
			result.SnippetLimit = bp.snippetLimit
			if err := bp.pipelineFactory().Execute(ctx, result); err != nil && ctx.Err() == nil {
				bp.logger.Warn("page audit failed",
					"url", page.URL,
					"error", err,
				)
				reason := failureReason(err)
				if result.State <= StateFetching {
					result.Outcome = model.FetchOutcome{Kind: model.FetchTransportError, Reason: reason}
				}
				result.finish(model.FetchFailed, reason)
			}
			results[i] = result

			if bp.pageDone != nil && ctx.Err() == nil {
				bp.pageDone(result)
			}
			return nil
		})
	}

	_ = g.Wait() //nolint:errcheck // workers never return errors

	bp.logger.Info("audit complete",
		"total_pages", len(pages),
		"elapsed", time.Since(startTime),
	)

	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, nil
}

// failureReason turns a pipeline error into a Fetch failed snippet.
func failureReason(err error) string {
	if err == nil || err.Error() == "" {
		return UnknownErrorReason
	}
	return err.Error()
}

// Flatten concatenates the issues of every audit in input order.
// Nil entries, left by a cancelled run, are skipped.
func Flatten(results []*PageAudit) []model.Issue {
	issues := make([]model.Issue, 0)
	for _, r := range results {
		if r == nil {
			continue
		}
		issues = append(issues, r.Issues...)
	}
	return issues
}
