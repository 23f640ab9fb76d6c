package model

import (
	"sort"
	"time"
)

// AuditReport is the result of one audit run.
// Issues are ordered by input page position and, within a page,
// by classifier order.
type AuditReport struct {
	// Input names the manifest the pages came from.
	Input string `json:"input,omitempty"`

	// Pages is the number of pages audited.
	Pages int `json:"pages"`

	// Issues is the flattened finding list.
	Issues []Issue `json:"issues"`

	// Outcomes counts pages by fetch outcome name (see FetchKind.String).
	Outcomes map[string]int `json:"outcomes,omitempty"`

	// LinksChecked is the number of distinct URLs probed for liveness.
	LinksChecked int `json:"links_checked"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// NewAuditReport creates an empty report for the given input.
func NewAuditReport(input string) *AuditReport {
	return &AuditReport{
		Input:     input,
		Issues:    []Issue{},
		Outcomes:  make(map[string]int),
		StartedAt: time.Now(),
	}
}

// HasIssues reports whether the run produced any finding.
func (r *AuditReport) HasIssues() bool {
	return len(r.Issues) > 0
}

// Duration returns how long the run took.
func (r *AuditReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// CountByKind returns the number of issues per kind.
func (r *AuditReport) CountByKind() map[IssueKind]int {
	counts := make(map[IssueKind]int)
	for _, issue := range r.Issues {
		counts[issue.Kind]++
	}
	return counts
}

// CountBySeverity returns the number of issues per severity.
func (r *AuditReport) CountBySeverity() map[Severity]int {
	counts := make(map[Severity]int)
	for _, issue := range r.Issues {
		counts[GetSeverity(issue.Kind)]++
	}
	return counts
}

// IssuesByKind groups issues by kind, keeping report order within each group.
func (r *AuditReport) IssuesByKind() map[IssueKind][]Issue {
	groups := make(map[IssueKind][]Issue)
	for _, issue := range r.Issues {
		groups[issue.Kind] = append(groups[issue.Kind], issue)
	}
	return groups
}

// AffectedPages returns the number of distinct pages with at least one issue.
func (r *AuditReport) AffectedPages() int {
	seen := make(map[string]struct{})
	for _, issue := range r.Issues {
		seen[issue.PageURL] = struct{}{}
	}
	return len(seen)
}

// KindCount pairs an issue kind with its number of occurrences.
type KindCount struct {
	Kind  IssueKind `json:"kind"`
	Count int       `json:"count"`
}

// Summary returns the non-zero kind counts, ordered by severity (highest
// first) and then by kind.
func (r *AuditReport) Summary() []KindCount {
	counts := r.CountByKind()
	summary := make([]KindCount, 0, len(counts))
	for _, kind := range AllIssueKinds() {
		if n := counts[kind]; n > 0 {
			summary = append(summary, KindCount{Kind: kind, Count: n})
		}
	}
	sort.SliceStable(summary, func(i, j int) bool {
		return GetSeverity(summary[i].Kind) > GetSeverity(summary[j].Kind)
	})
	return summary
}
