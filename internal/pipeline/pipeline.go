package pipeline

import (
	"context"
	"log/slog"

	"github.com/nao1215/siteaudit/internal/crawler"
	"github.com/nao1215/siteaudit/internal/model"
)

// PageState is where a page is in its audit.
type PageState int

const (
	// StatePending means no step has run yet.
	StatePending PageState = iota
	// StateFetching means the page is being requested.
	StateFetching
	// StateExtracting means links and text are being extracted.
	StateExtracting
	// StateClassifying means the content classifiers are running.
	StateClassifying
	// StateDone means the page needs no further work.
	StateDone
)

// String returns the state name used in logs.
func (s PageState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateFetching:
		return "fetching"
	case StateExtracting:
		return "extracting"
	case StateClassifying:
		return "classifying"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// PageAudit carries one page through the pipeline.
// It is owned by a single goroutine for the whole audit.
type PageAudit struct {
	// Index is the position of the page in the input.
	Index int

	// Page is the descriptor being audited.
	Page model.PageDescriptor

	// State is the current state. Steps are skipped once it is StateDone.
	State PageState

	// Outcome is the result of the page fetch.
	Outcome model.FetchOutcome

	// Content is set by the extract step.
	Content *crawler.PageContent

	// Issues accumulates findings in classifier order.
	Issues []model.Issue

	// SnippetLimit caps every snippet recorded for the page.
	// Zero means model.DefaultSnippetLimit.
	SnippetLimit int

	// Err is the error that stopped the pipeline, if any.
	Err error
}

// NewPageAudit creates a pending audit for page.
func NewPageAudit(index int, page model.PageDescriptor) *PageAudit {
	return &PageAudit{
		Index:  index,
		Page:   page,
		State:  StatePending,
		Issues: make([]model.Issue, 0),
	}
}

// snippetLimit returns the effective snippet cap.
func (a *PageAudit) snippetLimit() int {
	if a.SnippetLimit > 0 {
		return a.SnippetLimit
	}
	return model.DefaultSnippetLimit
}

// finish marks the audit done with a single terminal issue.
func (a *PageAudit) finish(kind model.IssueKind, snippet string) {
	a.Issues = append(a.Issues, model.Issue{
		PageURL: a.Page.Label(),
		Kind:    kind,
		Snippet: model.TrimSnippet(snippet, a.snippetLimit()),
	})
	a.State = StateDone
}

// Step is one stage of a page audit.
type Step interface {
	// Do executes the step. Page-level problems are recorded on the audit;
	// an error means the step could not run at all.
	Do(ctx context.Context, audit *PageAudit) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline runs steps in order for one page.
type Pipeline struct {
	steps  []Step
	logger *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// New creates an empty Pipeline.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps: make([]Step, 0),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// AddStep appends a step to the pipeline.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs the steps until one marks the audit done or fails.
// It returns the first step error.
func (p *Pipeline) Execute(ctx context.Context, audit *PageAudit) error {
	for _, step := range p.steps {
		if audit.State == StateDone {
			break
		}

		select {
		case <-ctx.Done():
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"url", audit.Page.URL,
				"reason", ctx.Err(),
			)
			audit.Err = ctx.Err()
			return ctx.Err()
		default:
		}

		p.logger.Debug("executing step",
			"step", step.Name(),
			"url", audit.Page.URL,
			"state", audit.State.String(),
		)

		if err := step.Do(ctx, audit); err != nil {
			p.logger.Error("step failed",
				"step", step.Name(),
				"url", audit.Page.URL,
				"error", err,
			)
			audit.Err = err
			return err
		}
	}

	return nil
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
