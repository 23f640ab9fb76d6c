package audit

import (
	"context"
	"log/slog"

	"github.com/nao1215/siteaudit/internal/model"
)

// Classifier categories.
const (
	CategoryContent    = "content"
	CategoryLinkPolicy = "link-policy"
	CategoryLiveness   = "liveness"
)

// Stage says which page data a classifier needs.
type Stage int

const (
	// StageDescriptor classifiers only read PageData.Page.
	StageDescriptor Stage = iota

	// StageContent classifiers read the extracted links and text.
	StageContent
)

// Classifier inspects one page and reports issues.
type Classifier interface {
	// Name returns the classifier's name for logging.
	Name() string

	// Category groups classifiers in logs.
	Category() string

	// Stage tells the Auditor when to run the classifier.
	Stage() Stage

	// Classify returns the issues found on the page, in a stable order.
	// Only context cancellation is reported as an error.
	Classify(ctx context.Context, data *PageData) ([]model.Issue, error)
}

// PageData is everything known about a page when classifiers run.
type PageData struct {
	// Page is the descriptor supplied by the caller.
	Page model.PageDescriptor

	// Host is the lower-cased host of Page.URL. Same-host links are
	// compared against it.
	Host string

	// Links are the resolved anchors of the content region, in document order.
	Links []model.ResolvedLink

	// Text is the normalized visible text of the content region.
	Text string

	// SnippetLimit caps snippet length. Zero means model.DefaultSnippetLimit.
	SnippetLimit int
}

// issue creates an issue for the page with a trimmed snippet.
func (d *PageData) issue(kind model.IssueKind, snippet string) model.Issue {
	limit := d.SnippetLimit
	if limit <= 0 {
		limit = model.DefaultSnippetLimit
	}
	return model.Issue{
		PageURL: d.Page.Label(),
		Kind:    kind,
		Snippet: model.TrimSnippet(snippet, limit),
	}
}

// Auditor runs registered classifiers in registration order.
type Auditor struct {
	classifiers []Classifier
	logger      *slog.Logger
}

// AuditorOption configures an Auditor.
type AuditorOption func(*Auditor)

// WithLogger sets the logger for classifier diagnostics.
func WithLogger(logger *slog.Logger) AuditorOption {
	return func(a *Auditor) {
		a.logger = logger
	}
}

// WithClassifiers registers classifiers in the given order.
func WithClassifiers(classifiers ...Classifier) AuditorOption {
	return func(a *Auditor) {
		a.classifiers = append(a.classifiers, classifiers...)
	}
}

// NewAuditor creates an Auditor. Use NewDefaultAuditor for the built-in set.
func NewAuditor(opts ...AuditorOption) *Auditor {
	a := &Auditor{
		classifiers: make([]Classifier, 0),
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Policy is the configuration the built-in classifiers need.
type Policy struct {
	DevProdHosts        HostSet
	BlockedHosts        HostSet
	PlaceholderPatterns []string
	PlaceholderCap      int
	PlaceholderContext  int
}

// NewDefaultAuditor registers the built-in classifiers in their fixed order.
// resolver answers link-status lookups for the broken-link check.
func NewDefaultAuditor(policy Policy, resolver StatusResolver, opts ...AuditorOption) (*Auditor, error) {
	placeholder, err := NewPlaceholderClassifier(
		WithPatterns(policy.PlaceholderPatterns...),
		WithMaxMatches(policy.PlaceholderCap),
		WithContextWidth(policy.PlaceholderContext),
	)
	if err != nil {
		return nil, err
	}

	classifiers := []Classifier{
		NewDescriptionClassifier(),
		NewDevProdHostClassifier(policy.DevProdHosts),
		NewBlockedHostClassifier(policy.BlockedHosts),
		NewBrokenLinkClassifier(resolver),
		placeholder,
	}
	return NewAuditor(append([]AuditorOption{WithClassifiers(classifiers...)}, opts...)...), nil
}

// Register adds a classifier after the existing ones.
func (a *Auditor) Register(c Classifier) {
	a.classifiers = append(a.classifiers, c)
}

// Classifiers returns the registered classifiers in run order.
func (a *Auditor) Classifiers() []Classifier {
	out := make([]Classifier, len(a.classifiers))
	copy(out, a.classifiers)
	return out
}

// Classify runs the classifiers of the given stage and concatenates their issues.
// A classifier that fails for a reason other than cancellation is logged and
// skipped; cancellation stops the run and returns the issues found so far.
func (a *Auditor) Classify(ctx context.Context, stage Stage, data *PageData) ([]model.Issue, error) {
	issues := make([]model.Issue, 0)

	for _, c := range a.classifiers {
		if c.Stage() != stage {
			continue
		}
		if err := ctx.Err(); err != nil {
			return issues, err
		}

		found, err := c.Classify(ctx, data)
		if err != nil {
			if ctx.Err() != nil {
				return issues, ctx.Err()
			}
			a.logger.Warn("classifier failed",
				"classifier", c.Name(),
				"category", c.Category(),
				"url", data.Page.URL,
				"error", err)
			continue
		}
		issues = append(issues, found...)
	}

	return issues, nil
}
