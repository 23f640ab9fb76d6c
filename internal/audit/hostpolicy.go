package audit

import (
	"context"
	"strings"

	"github.com/nao1215/siteaudit/internal/model"
)

// HostSet is a set of lower-cased hosts.
type HostSet map[string]struct{}

// NewHostSet builds a HostSet, lower-casing and trimming every entry.
// Blank entries are ignored.
func NewHostSet(hosts ...string) HostSet {
	set := make(HostSet, len(hosts))
	for _, h := range hosts {
		h = strings.ToLower(strings.TrimSpace(h))
		if h != "" {
			set[h] = struct{}{}
		}
	}
	return set
}

// Contains reports whether host is in the set. The comparison ignores case.
func (s HostSet) Contains(host string) bool {
	_, ok := s[strings.ToLower(host)]
	return ok
}

// HostPolicyClassifier reports links written as absolute URLs whose host
// matches a predicate. Relative links never match, even when they resolve
// to a matching host.
type HostPolicyClassifier struct {
	name      string
	kind      model.IssueKind
	predicate func(host string) bool
}

// NewHostPolicyClassifier creates a classifier that emits kind for every
// absolute link whose host satisfies predicate.
func NewHostPolicyClassifier(name string, kind model.IssueKind, predicate func(host string) bool) *HostPolicyClassifier {
	return &HostPolicyClassifier{name: name, kind: kind, predicate: predicate}
}

// NewDevProdHostClassifier reports absolute links to staging or internal hosts.
func NewDevProdHostClassifier(hosts HostSet) *HostPolicyClassifier {
	return NewHostPolicyClassifier("dev-prod-host", model.AbsoluteLinkDevProd, hosts.Contains)
}

// NewBlockedHostClassifier reports absolute links to hosts that must be
// linked relatively.
func NewBlockedHostClassifier(hosts HostSet) *HostPolicyClassifier {
	return NewHostPolicyClassifier("blocked-host", model.AbsoluteLinkBlockedHost, hosts.Contains)
}

// Name returns the classifier name.
func (c *HostPolicyClassifier) Name() string { return c.name }

// Category returns the classifier category.
func (c *HostPolicyClassifier) Category() string { return CategoryLinkPolicy }

// Stage returns StageContent.
func (c *HostPolicyClassifier) Stage() Stage { return StageContent }

// Classify implements Classifier.
func (c *HostPolicyClassifier) Classify(_ context.Context, data *PageData) ([]model.Issue, error) {
	var issues []model.Issue
	for _, link := range data.Links {
		if !link.WasAbsolute {
			continue
		}
		if c.predicate(link.Host) {
			issues = append(issues, data.issue(c.kind, LinkSnippet(link, "")))
		}
	}
	return issues, nil
}
