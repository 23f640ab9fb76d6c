package database

import "github.com/nao1215/siteaudit/internal/model"

// RunDiff lists what changed between two runs.
type RunDiff struct {
	OldRunID int64 `json:"old_run_id"`
	NewRunID int64 `json:"new_run_id"`

	// New are issues present only in the newer run.
	New []model.Issue `json:"new"`

	// Resolved are issues present only in the older run.
	Resolved []model.Issue `json:"resolved"`

	// Unchanged counts issues present in both.
	Unchanged int `json:"unchanged"`
}

type issueKey struct {
	page    string
	kind    model.IssueKind
	snippet string
}

func keyOf(issue model.Issue) issueKey {
	return issueKey{page: issue.PageURL, kind: issue.Kind, snippet: issue.Snippet}
}

// DiffIssues compares two issue lists as multisets keyed by page, kind and
// snippet. Output keeps the order of the input lists.
func DiffIssues(oldIssues, newIssues []model.Issue) RunDiff {
	remaining := make(map[issueKey]int, len(oldIssues))
	for _, issue := range oldIssues {
		remaining[keyOf(issue)]++
	}

	diff := RunDiff{New: []model.Issue{}, Resolved: []model.Issue{}}
	matched := make(map[issueKey]int)
	for _, issue := range newIssues {
		k := keyOf(issue)
		if remaining[k] > 0 {
			remaining[k]--
			matched[k]++
			diff.Unchanged++
			continue
		}
		diff.New = append(diff.New, issue)
	}

	for _, issue := range oldIssues {
		k := keyOf(issue)
		if matched[k] > 0 {
			matched[k]--
			continue
		}
		diff.Resolved = append(diff.Resolved, issue)
	}
	return diff
}

// HasChanges reports whether any issue was added or resolved.
func (d RunDiff) HasChanges() bool {
	return len(d.New) > 0 || len(d.Resolved) > 0
}
