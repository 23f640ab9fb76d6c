package crawler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"

	"github.com/nao1215/siteaudit/internal/model"
)

// DefaultMaxBodySize caps how much of a page body is read.
const DefaultMaxBodySize int64 = 5 * 1024 * 1024

// Fetch targets reported to a FetchObserver.
const (
	TargetPage = "page"
	TargetLink = "link"
)

// FetchObserver receives one call per completed request.
type FetchObserver interface {
	ObserveFetch(target string, kind model.FetchKind, elapsed time.Duration)
}

// Fetcher performs authenticated GET requests and classifies the result.
// It is safe for concurrent use.
type Fetcher struct {
	client      *http.Client
	username    string
	password    string
	maxBodySize int64
	limiter     *rate.Limiter
	logger      *slog.Logger
	observer    FetchObserver
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithCredentials sets the basic-auth credentials sent with every request.
func WithCredentials(username, password string) FetcherOption {
	return func(f *Fetcher) {
		f.username = username
		f.password = password
	}
}

// WithMaxBodySize sets the maximum number of body bytes read per page.
func WithMaxBodySize(size int64) FetcherOption {
	return func(f *Fetcher) {
		if size > 0 {
			f.maxBodySize = size
		}
	}
}

// WithRateLimit limits requests per second across page and link fetches.
// Zero or negative means unlimited.
func WithRateLimit(perSecond float64) FetcherOption {
	return func(f *Fetcher) {
		if perSecond > 0 {
			f.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// WithFetchLogger sets the logger for fetch diagnostics.
func WithFetchLogger(logger *slog.Logger) FetcherOption {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// WithFetchObserver sets an observer notified after each request.
func WithFetchObserver(observer FetchObserver) FetcherOption {
	return func(f *Fetcher) {
		f.observer = observer
	}
}

// NewFetcher creates a Fetcher using the given shared client.
func NewFetcher(client *http.Client, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		client:      client,
		maxBodySize: DefaultMaxBodySize,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch GETs pageURL and classifies the response.
// HTTP failures are outcomes, not errors: 404 is FetchNotFound, other non-2xx
// statuses are FetchHTTPError and network problems are FetchTransportError.
// An error is returned only when the request cannot be built or ctx is done.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (model.FetchOutcome, error) {
	start := time.Now()
	resp, err := f.do(ctx, pageURL)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return model.FetchOutcome{}, ctxErr
		}
		if isContractError(err) {
			return model.FetchOutcome{}, err
		}
		f.logger.Warn("page fetch failed", "url", pageURL, "error", err)
		f.observe(TargetPage, model.FetchTransportError, start)
		return model.FetchOutcome{Kind: model.FetchTransportError, Reason: err.Error()}, nil
	}
	defer resp.Body.Close()

	code := resp.StatusCode
	switch {
	case code == http.StatusNotFound:
		f.logger.Warn("page returned 404", "url", pageURL)
		f.observe(TargetPage, model.FetchNotFound, start)
		return model.FetchOutcome{Kind: model.FetchNotFound, StatusCode: code}, nil

	case code >= 200 && code < 300:
		body, err := f.readBody(resp)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return model.FetchOutcome{}, ctxErr
			}
			f.logger.Warn("page fetch failed", "url", pageURL, "error", err)
			f.observe(TargetPage, model.FetchTransportError, start)
			return model.FetchOutcome{Kind: model.FetchTransportError, StatusCode: code, Reason: err.Error()}, nil
		}
		f.logger.Debug("page fetched", "url", pageURL, "status", code, "bytes", len(body))
		f.observe(TargetPage, model.FetchOK, start)
		return model.FetchOutcome{Kind: model.FetchOK, StatusCode: code, Body: body}, nil

	default:
		reason := fmt.Sprintf("status %d", code)
		f.logger.Warn("page returned error status", "url", pageURL, "status", code)
		f.observe(TargetPage, model.FetchHTTPError, start)
		return model.FetchOutcome{Kind: model.FetchHTTPError, StatusCode: code, Reason: reason}, nil
	}
}

// Probe GETs linkURL and returns the status code, discarding the body.
// Any received response, error statuses included, yields its status code.
// A transport failure yields an error.
func (f *Fetcher) Probe(ctx context.Context, linkURL string) (int, error) {
	start := time.Now()
	resp, err := f.do(ctx, linkURL)
	if err != nil {
		if ctx.Err() == nil && !isContractError(err) {
			f.logger.Warn("linked URL fetch failed", "url", linkURL, "error", err)
			f.observe(TargetLink, model.FetchTransportError, start)
		}
		return 0, err
	}
	defer resp.Body.Close()

	// Drain a bounded amount so the connection can be reused.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, f.maxBodySize)) //nolint:errcheck

	kind := model.FetchOK
	switch {
	case resp.StatusCode == http.StatusNotFound:
		kind = model.FetchNotFound
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		kind = model.FetchHTTPError
	}
	f.logger.Debug("linked URL checked", "url", linkURL, "status", resp.StatusCode)
	f.observe(TargetLink, kind, start)
	return resp.StatusCode, nil
}

// contractError marks failures caused by the caller rather than the network.
type contractError struct {
	err error
}

func (e *contractError) Error() string { return e.err.Error() }
func (e *contractError) Unwrap() error { return e.err }

func isContractError(err error) bool {
	var ce *contractError
	return errors.As(err, &ce)
}

// do waits for the rate limiter and sends one GET.
func (f *Fetcher) do(ctx context.Context, target string) (*http.Response, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &contractError{err: fmt.Errorf("failed to create request: %w", err)}
	}
	if f.username != "" || f.password != "" {
		req.SetBasicAuth(f.username, f.password)
	}

	return f.client.Do(req)
}

// readBody reads at most maxBodySize bytes, decoding the declared charset to UTF-8.
func (f *Fetcher) readBody(resp *http.Response) (string, error) {
	limited := io.LimitReader(resp.Body, f.maxBodySize)

	reader, err := charset.NewReader(limited, resp.Header.Get("Content-Type"))
	if errors.Is(err, io.EOF) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read body: %w", err)
	}

	var b strings.Builder
	if _, err := io.Copy(&b, reader); err != nil {
		return "", fmt.Errorf("failed to read body: %w", err)
	}
	return b.String(), nil
}

func (f *Fetcher) observe(target string, kind model.FetchKind, start time.Time) {
	if f.observer != nil {
		f.observer.ObserveFetch(target, kind, time.Since(start))
	}
}
