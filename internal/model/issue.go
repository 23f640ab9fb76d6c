package model

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultSnippetLimit is the maximum snippet length in runes.
const DefaultSnippetLimit = 200

// ellipsis marks a truncated snippet.
const ellipsis = "..."

// ErrUnknownIssueKind is returned when parsing a label that names no issue kind.
var ErrUnknownIssueKind = errors.New("unknown issue kind")

// IssueKind identifies the type of a finding.
// The zero value is MissingDescription. Kinds are ordered the way the
// classifiers run, which is also the order used for report grouping.
type IssueKind int

const (
	// MissingDescription means the manifest's description field is blank.
	MissingDescription IssueKind = iota

	// Page404 means the page itself returned HTTP 404.
	Page404

	// FetchFailed means the page could not be fetched at all, or returned
	// a non-2xx status other than 404.
	FetchFailed

	// AbsoluteLinkDevProd means an absolute link targets a staging or
	// internal deployment host.
	AbsoluteLinkDevProd

	// AbsoluteLinkBlockedHost means an absolute link targets an
	// organisation host that must be linked relatively.
	AbsoluteLinkBlockedHost

	// BrokenLink means a same-host link returned >= 400 or failed.
	BrokenLink

	// PlaceholderText means the visible text contains boilerplate filler.
	PlaceholderText
)

var issueKindLabels = [...]string{
	MissingDescription:      "Missing SEO description",
	Page404:                 "Page 404",
	FetchFailed:             "Fetch failed",
	AbsoluteLinkDevProd:     "Absolute link to dev/prod domain",
	AbsoluteLinkBlockedHost: "Absolute link to blocked host",
	BrokenLink:              "Broken link",
	PlaceholderText:         "Placeholder text",
}

// AllIssueKinds returns every issue kind in classifier order.
func AllIssueKinds() []IssueKind {
	kinds := make([]IssueKind, len(issueKindLabels))
	for i := range issueKindLabels {
		kinds[i] = IssueKind(i)
	}
	return kinds
}

// String returns the stable label of the kind.
func (k IssueKind) String() string {
	if k < 0 || int(k) >= len(issueKindLabels) {
		return fmt.Sprintf("IssueKind(%d)", int(k))
	}
	return issueKindLabels[k]
}

// MarshalText implements encoding.TextMarshaler.
func (k IssueKind) MarshalText() ([]byte, error) {
	if k < 0 || int(k) >= len(issueKindLabels) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownIssueKind, int(k))
	}
	return []byte(issueKindLabels[k]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *IssueKind) UnmarshalText(text []byte) error {
	parsed, err := ParseIssueKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseIssueKind returns the kind whose label matches s, ignoring case
// and surrounding whitespace.
func ParseIssueKind(s string) (IssueKind, error) {
	s = strings.TrimSpace(s)
	for i, label := range issueKindLabels {
		if strings.EqualFold(label, s) {
			return IssueKind(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownIssueKind, s)
}

// Issue is a single finding reported against a page.
type Issue struct {
	PageURL string    `json:"page_url"`
	Kind    IssueKind `json:"kind"`
	Snippet string    `json:"snippet"`
}

// NewIssue creates an issue with its snippet trimmed to DefaultSnippetLimit.
func NewIssue(pageURL string, kind IssueKind, snippet string) Issue {
	return Issue{
		PageURL: pageURL,
		Kind:    kind,
		Snippet: TrimSnippet(snippet, DefaultSnippetLimit),
	}
}

// TrimSnippet shortens text to at most limit runes. Longer text keeps its
// first limit-3 runes, loses trailing whitespace and gains "...".
// A limit below the ellipsis length disables trimming.
func TrimSnippet(text string, limit int) string {
	if limit <= len(ellipsis) {
		return text
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	head := strings.TrimRight(string(runes[:limit-len(ellipsis)]), " \t\r\n")
	return head + ellipsis
}
