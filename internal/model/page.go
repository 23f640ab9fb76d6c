package model

import "strings"

// PageDescriptor identifies a page to audit.
// Descriptors are supplied by the caller and never modified by the audit.
type PageDescriptor struct {
	// URL is the absolute URL that is fetched.
	URL string `json:"url"`

	// DisplayURL is the reference as it appeared in the source manifest.
	// Issues are reported against this value so they can be matched back
	// to the manifest row. Empty means URL is used.
	DisplayURL string `json:"display_url,omitempty"`

	// Description is the page's descriptive text from the manifest.
	// Nil means the manifest has no description column at all, in which
	// case the missing-description check does nothing.
	Description *string `json:"description,omitempty"`
}

// Label returns the page URL used in issues.
func (d PageDescriptor) Label() string {
	if d.DisplayURL != "" {
		return d.DisplayURL
	}
	return d.URL
}

// HasDescriptionField reports whether the caller supplied a description field.
func (d PageDescriptor) HasDescriptionField() bool {
	return d.Description != nil
}

// DescriptionIsBlank reports whether a supplied description is empty
// after trimming. It returns false when no description field exists.
func (d PageDescriptor) DescriptionIsBlank() bool {
	return d.Description != nil && strings.TrimSpace(*d.Description) == ""
}

// ResolvedLink is an anchor reference resolved against the page it was found on.
// Absolute never carries a fragment and Host is always lower-case and non-empty.
type ResolvedLink struct {
	// Raw is the href attribute as written, trimmed.
	Raw string `json:"raw"`

	// Absolute is the resolved URL with any fragment removed.
	Absolute string `json:"absolute"`

	// Host is the lower-cased host (including port, if any) of Absolute.
	Host string `json:"host"`

	// AnchorText is the visible text of the anchor with whitespace collapsed.
	AnchorText string `json:"anchor_text"`

	// WasAbsolute is true when Raw already carried a scheme and host,
	// or was protocol-relative.
	WasAbsolute bool `json:"was_absolute"`
}

// FetchKind classifies the result of fetching a page.
type FetchKind int

const (
	// FetchOK means the server answered with a 2xx status.
	FetchOK FetchKind = iota

	// FetchNotFound means the server answered 404.
	FetchNotFound

	// FetchHTTPError means the server answered with any other non-2xx status.
	FetchHTTPError

	// FetchTransportError means no HTTP response was received.
	FetchTransportError
)

// String returns the outcome name used in logs and metrics labels.
func (k FetchKind) String() string {
	switch k {
	case FetchOK:
		return "ok"
	case FetchNotFound:
		return "not_found"
	case FetchHTTPError:
		return "http_error"
	case FetchTransportError:
		return "transport_error"
	default:
		return "unknown"
	}
}

// FetchOutcome is the classified result of one page fetch.
// Body is set only for FetchOK, Reason only for the two error kinds.
type FetchOutcome struct {
	Kind       FetchKind
	StatusCode int
	Body       string
	Reason     string
}

// OK reports whether the fetch produced a usable body.
func (o FetchOutcome) OK() bool {
	return o.Kind == FetchOK
}
