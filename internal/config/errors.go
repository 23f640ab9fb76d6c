package config

import "errors"

// Configuration validation errors returned by Config.Validate and the loaders.
// Callers match them with errors.Is.
var (
	// ErrNoInput is returned when no manifest file is given.
	ErrNoInput = errors.New("no input specified: use --input to pass a CSV manifest")

	// ErrInvalidConcurrency is returned when concurrency is below 1.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be at least 1")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrMissingCredentials is returned when HTTP_USERNAME or HTTP_PASSWORD
	// is unset and --no-auth was not given.
	ErrMissingCredentials = errors.New("missing credentials: set HTTP_USERNAME and HTTP_PASSWORD or pass --no-auth")

	// ErrConflictingReportFormats is returned when --format disagrees with
	// the output file extension.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --format does not match the output file extension")

	// ErrUnknownFormat is returned for a --format value that is not supported.
	ErrUnknownFormat = errors.New("unknown report format: use csv, json, markdown, text or xlsx")

	// ErrInvalidSnippetLimit is returned when the snippet limit cannot hold an ellipsis.
	ErrInvalidSnippetLimit = errors.New("invalid snippet limit: must be greater than 3")

	// ErrInvalidRequestRate is returned when the request rate is negative.
	ErrInvalidRequestRate = errors.New("invalid request rate: must be non-negative")

	// ErrInvalidBaseURL is returned when BASE_URL is not an http(s) URL with a host.
	ErrInvalidBaseURL = errors.New("invalid BASE_URL: must be an http or https URL with a host")

	// ErrInvalidLimit is returned when --limit is negative.
	ErrInvalidLimit = errors.New("invalid limit: must be non-negative")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")
)
