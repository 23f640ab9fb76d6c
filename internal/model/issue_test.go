package model

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestIssueKindString(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		kind     IssueKind
		expected string
	}{
		{MissingDescription, "Missing SEO description"},
		{Page404, "Page 404"},
		{FetchFailed, "Fetch failed"},
		{AbsoluteLinkDevProd, "Absolute link to dev/prod domain"},
		{AbsoluteLinkBlockedHost, "Absolute link to blocked host"},
		{BrokenLink, "Broken link"},
		{PlaceholderText, "Placeholder text"},
		{IssueKind(42), "IssueKind(42)"},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			t.Parallel()
			if got := tc.kind.String(); got != tc.expected {
				t.Errorf("got %q, expected %q", got, tc.expected)
			}
		})
	}
}

func TestParseIssueKind(t *testing.T) {
	t.Parallel()

	t.Run("every label parses back to its kind", func(t *testing.T) {
		t.Parallel()
		for _, kind := range AllIssueKinds() {
			got, err := ParseIssueKind(kind.String())
			if err != nil {
				t.Fatalf("ParseIssueKind(%q) error: %v", kind, err)
			}
			if got != kind {
				t.Errorf("ParseIssueKind(%q) = %v", kind, got)
			}
		}
	})

	t.Run("case and whitespace are ignored", func(t *testing.T) {
		t.Parallel()
		got, err := ParseIssueKind("  broken LINK ")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != BrokenLink {
			t.Errorf("got %v, expected BrokenLink", got)
		}
	})

	t.Run("unknown label", func(t *testing.T) {
		t.Parallel()
		_, err := ParseIssueKind("Stale cache")
		if !errors.Is(err, ErrUnknownIssueKind) {
			t.Errorf("expected ErrUnknownIssueKind, got %v", err)
		}
	})
}

func TestIssueJSONUsesLabel(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(NewIssue("https://site/x", Page404, "GET returned 404"))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"kind":"Page 404"`) {
		t.Errorf("kind not rendered as label: %s", data)
	}

	if _, err := json.Marshal(Issue{Kind: IssueKind(-1)}); err == nil {
		t.Error("expected error marshaling an unknown kind")
	}
}

func TestTrimSnippet(t *testing.T) {
	t.Parallel()

	t.Run("short text is unchanged", func(t *testing.T) {
		t.Parallel()
		if got := TrimSnippet("short", 200); got != "short" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("text at the limit is unchanged", func(t *testing.T) {
		t.Parallel()
		text := strings.Repeat("a", 200)
		if got := TrimSnippet(text, 200); got != text {
			t.Errorf("got length %d", len(got))
		}
	})

	t.Run("long text keeps 197 runes plus ellipsis", func(t *testing.T) {
		t.Parallel()
		got := TrimSnippet(strings.Repeat("b", 250), 200)
		if len(got) != 200 {
			t.Errorf("got length %d, expected 200", len(got))
		}
		if !strings.HasSuffix(got, "...") {
			t.Errorf("missing ellipsis: %q", got)
		}
	})

	t.Run("trailing space before the cut is dropped", func(t *testing.T) {
		t.Parallel()
		text := strings.Repeat("c", 196) + "  tail that is cut off"
		got := TrimSnippet(text, 200)
		if got != strings.Repeat("c", 196)+"..." {
			t.Errorf("got %q", got)
		}
	})

	t.Run("counts runes not bytes", func(t *testing.T) {
		t.Parallel()
		text := strings.Repeat("é", 200)
		if got := TrimSnippet(text, 200); got != text {
			t.Error("multi-byte text at the limit should not be trimmed")
		}
	})

	t.Run("NewIssue applies the default limit", func(t *testing.T) {
		t.Parallel()
		issue := NewIssue("p", BrokenLink, strings.Repeat("d", 500))
		if n := len([]rune(issue.Snippet)); n != DefaultSnippetLimit {
			t.Errorf("snippet length %d", n)
		}
	})
}
