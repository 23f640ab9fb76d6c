package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/nao1215/siteaudit/internal/audit"
	"github.com/nao1215/siteaudit/internal/crawler"
	"github.com/nao1215/siteaudit/internal/model"
)

// stubFetcher answers page fetches and link probes from maps.
type stubFetcher struct {
	outcomes map[string]model.FetchOutcome
	statuses map[string]int
	err      error
}

func (f *stubFetcher) Fetch(_ context.Context, url string) (model.FetchOutcome, error) {
	if f.err != nil {
		return model.FetchOutcome{}, f.err
	}
	outcome, ok := f.outcomes[url]
	if !ok {
		return model.FetchOutcome{Kind: model.FetchTransportError, Reason: "connection refused"}, nil
	}
	return outcome, nil
}

func (f *stubFetcher) Probe(_ context.Context, url string) (int, error) {
	status, ok := f.statuses[url]
	if !ok {
		return 0, errors.New("connection refused")
	}
	return status, nil
}

func TestFetchStep(t *testing.T) {
	t.Parallel()

	fetcher := &stubFetcher{outcomes: map[string]model.FetchOutcome{
		"https://s/ok":      {Kind: model.FetchOK, StatusCode: 200, Body: "<p>x</p>"},
		"https://s/missing": {Kind: model.FetchNotFound, StatusCode: 404},
		"https://s/error":   {Kind: model.FetchHTTPError, StatusCode: 500, Reason: "status 500"},
		"https://s/blank":   {Kind: model.FetchHTTPError, StatusCode: 502},
	}}

	testCases := []struct {
		url     string
		state   PageState
		kind    model.IssueKind
		snippet string
	}{
		{"https://s/ok", StateExtracting, 0, ""},
		{"https://s/missing", StateDone, model.Page404, "GET returned 404"},
		{"https://s/error", StateDone, model.FetchFailed, "status 500"},
		{"https://s/blank", StateDone, model.FetchFailed, "Unknown error"},
		{"https://s/down", StateDone, model.FetchFailed, "connection refused"},
	}

	for _, tc := range testCases {
		t.Run(tc.url, func(t *testing.T) {
			t.Parallel()

			a := NewPageAudit(0, model.PageDescriptor{URL: tc.url})
			if err := NewFetchStep(fetcher).Do(context.Background(), a); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if a.State != tc.state {
				t.Errorf("state = %v, expected %v", a.State, tc.state)
			}
			if tc.snippet == "" {
				if len(a.Issues) != 0 {
					t.Errorf("expected no issues, got %+v", a.Issues)
				}
				return
			}
			if len(a.Issues) != 1 || a.Issues[0].Kind != tc.kind || a.Issues[0].Snippet != tc.snippet {
				t.Errorf("unexpected issues %+v", a.Issues)
			}
		})
	}
}

func TestFetchStepError(t *testing.T) {
	t.Parallel()

	a := NewPageAudit(0, model.PageDescriptor{URL: "https://s/x"})
	err := NewFetchStep(&stubFetcher{err: errors.New("bad request")}).Do(context.Background(), a)
	if err == nil {
		t.Fatal("expected error")
	}
	if len(a.Issues) != 0 {
		t.Error("errors are converted by the batch processor, not the step")
	}
}

func TestExtractAndClassifySteps(t *testing.T) {
	t.Parallel()

	resolver := crawler.NewStatusCache(&stubFetcher{statuses: map[string]int{"https://site.example/ok": 200}})
	auditor, err := audit.NewDefaultAuditor(audit.Policy{BlockedHosts: audit.NewHostSet("blocked.org.au")}, resolver,
		audit.WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	a := NewPageAudit(0, model.PageDescriptor{URL: "https://site.example/page"})
	a.State = StateExtracting
	a.Outcome = model.FetchOutcome{Kind: model.FetchOK, Body: `<main>
		<a href="https://blocked.org.au/page">Home</a>
		<a href="/ok">Fine</a>
		<a href="/gone">Gone</a>
		<p>This is a lorem ipsum paragraph.</p>
	</main>`}

	if err := NewExtractStep(crawler.NewExtractor()).Do(context.Background(), a); err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if a.State != StateClassifying || a.Content == nil || len(a.Content.Links) != 3 {
		t.Fatalf("unexpected state after extract: %v %+v", a.State, a.Content)
	}
	if a.Outcome.Body != "" {
		t.Error("body should be released after extraction")
	}

	if err := NewClassifyStep(auditor, WithClassifyLogger(quietLogger())).Do(context.Background(), a); err != nil {
		t.Fatalf("classify failed: %v", err)
	}
	if a.State != StateDone {
		t.Errorf("state = %v", a.State)
	}

	want := []struct {
		kind    model.IssueKind
		snippet string
	}{
		{model.AbsoluteLinkBlockedHost, `"Home" -> https://blocked.org.au/page`},
		{model.BrokenLink, `"Gone" -> /gone (request failed)`},
		{model.PlaceholderText, `Found "lorem ipsum" in "Home Fine Gone This is a lorem ipsum paragraph."`},
	}
	if len(a.Issues) != len(want) {
		t.Fatalf("got %d issues: %+v", len(a.Issues), a.Issues)
	}
	for i, w := range want {
		if a.Issues[i].Kind != w.kind || a.Issues[i].Snippet != w.snippet {
			t.Errorf("issue %d = %+v, expected %v %q", i, a.Issues[i], w.kind, w.snippet)
		}
	}
}

func TestDescribeStep(t *testing.T) {
	t.Parallel()

	blank := ""
	auditor := audit.NewAuditor(audit.WithClassifiers(audit.NewDescriptionClassifier()))
	a := NewPageAudit(0, model.PageDescriptor{URL: "https://s/", Description: &blank})

	if err := NewDescribeStep(auditor).Do(context.Background(), a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(a.Issues) != 1 || a.Issues[0].Kind != model.MissingDescription {
		t.Errorf("unexpected issues %+v", a.Issues)
	}
	if a.State != StatePending {
		t.Errorf("describe step should not change state, got %v", a.State)
	}
}

func TestNewPagePipeline(t *testing.T) {
	t.Parallel()

	auditor := audit.NewAuditor()
	p := NewPagePipeline(&stubFetcher{}, crawler.NewExtractor(), auditor, 200, quietLogger())
	want := []string{"describe", "fetch", "extract", "classify"}
	names := p.StepNames()
	if len(names) != len(want) {
		t.Fatalf("steps = %v", names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("step %d = %q, expected %q", i, names[i], want[i])
		}
	}
}
