package model

import "testing"

func TestPageDescriptor(t *testing.T) {
	t.Parallel()

	blank := "   "
	filled := "About us"

	testCases := []struct {
		name       string
		page       PageDescriptor
		label      string
		hasField   bool
		blankField bool
	}{
		{"no description column", PageDescriptor{URL: "https://s/a"}, "https://s/a", false, false},
		{"blank description", PageDescriptor{URL: "https://s/a", DisplayURL: "/a", Description: &blank}, "/a", true, true},
		{"filled description", PageDescriptor{URL: "https://s/a", Description: &filled}, "https://s/a", true, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := tc.page.Label(); got != tc.label {
				t.Errorf("Label() = %q, expected %q", got, tc.label)
			}
			if got := tc.page.HasDescriptionField(); got != tc.hasField {
				t.Errorf("HasDescriptionField() = %v", got)
			}
			if got := tc.page.DescriptionIsBlank(); got != tc.blankField {
				t.Errorf("DescriptionIsBlank() = %v", got)
			}
		})
	}
}

func TestFetchKindString(t *testing.T) {
	t.Parallel()

	names := map[FetchKind]string{
		FetchOK:             "ok",
		FetchNotFound:       "not_found",
		FetchHTTPError:      "http_error",
		FetchTransportError: "transport_error",
		FetchKind(9):        "unknown",
	}
	for kind, want := range names {
		if got := kind.String(); got != want {
			t.Errorf("%d.String() = %q, expected %q", int(kind), got, want)
		}
	}
	if !(FetchOutcome{Kind: FetchOK}).OK() || (FetchOutcome{Kind: FetchNotFound}).OK() {
		t.Error("OK() mismatch")
	}
}
