package crawler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nao1215/siteaudit/internal/httpclient"
	"github.com/nao1215/siteaudit/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type recordingObserver struct {
	mu    sync.Mutex
	calls []string
}

func (r *recordingObserver) ObserveFetch(target string, kind model.FetchKind, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, target+":"+kind.String())
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/ok", func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "editor" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, "<main><p>hello</p></main>") //nolint:errcheck
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/boom", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	mux.HandleFunc("/moved", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/ok", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/big", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, strings.Repeat("x", 1000)) //nolint:errcheck
	})
	mux.HandleFunc("/latin1", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
		_, _ = w.Write([]byte{'c', 'a', 'f', 0xe9}) //nolint:errcheck
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestFetcherFetch(t *testing.T) {
	t.Parallel()

	server := newTestServer(t)

	testCases := []struct {
		path   string
		kind   model.FetchKind
		status int
		reason string
	}{
		{"/ok", model.FetchOK, http.StatusOK, ""},
		{"/moved", model.FetchOK, http.StatusOK, ""},
		{"/missing", model.FetchNotFound, http.StatusNotFound, ""},
		{"/boom", model.FetchHTTPError, http.StatusInternalServerError, "status 500"},
	}

	for _, tc := range testCases {
		t.Run(tc.path, func(t *testing.T) {
			t.Parallel()

			fetcher := NewFetcher(httpclient.New(), WithCredentials("editor", "secret"), WithFetchLogger(discardLogger()))
			outcome, err := fetcher.Fetch(context.Background(), server.URL+tc.path)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if outcome.Kind != tc.kind {
				t.Errorf("Kind = %v, expected %v", outcome.Kind, tc.kind)
			}
			if outcome.StatusCode != tc.status {
				t.Errorf("StatusCode = %d, expected %d", outcome.StatusCode, tc.status)
			}
			if outcome.Reason != tc.reason {
				t.Errorf("Reason = %q, expected %q", outcome.Reason, tc.reason)
			}
			if tc.kind == model.FetchOK && !strings.Contains(outcome.Body, "hello") {
				t.Errorf("unexpected body %q", outcome.Body)
			}
		})
	}
}

func TestFetcherWithoutCredentials(t *testing.T) {
	t.Parallel()

	server := newTestServer(t)
	fetcher := NewFetcher(httpclient.New(), WithFetchLogger(discardLogger()))

	outcome, err := fetcher.Fetch(context.Background(), server.URL+"/ok")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Kind != model.FetchHTTPError || outcome.Reason != "status 401" {
		t.Errorf("expected status 401 error, got %+v", outcome)
	}
}

func TestFetcherTransportError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.NotFoundHandler())
	target := server.URL + "/gone"
	server.Close()

	observer := &recordingObserver{}
	fetcher := NewFetcher(httpclient.New(httpclient.WithTimeout(2*time.Second)),
		WithFetchLogger(discardLogger()), WithFetchObserver(observer))

	outcome, err := fetcher.Fetch(context.Background(), target)
	if err != nil {
		t.Fatalf("transport failures must not be errors: %v", err)
	}
	if outcome.Kind != model.FetchTransportError || outcome.Reason == "" {
		t.Errorf("unexpected outcome %+v", outcome)
	}
	if len(observer.calls) != 1 || observer.calls[0] != "page:transport_error" {
		t.Errorf("observer calls = %v", observer.calls)
	}
}

func TestFetcherContractErrors(t *testing.T) {
	t.Parallel()

	fetcher := NewFetcher(httpclient.New(), WithFetchLogger(discardLogger()))

	t.Run("malformed URL", func(t *testing.T) {
		t.Parallel()
		if _, err := fetcher.Fetch(context.Background(), "http://[::1"); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()

		server := newTestServer(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := fetcher.Fetch(ctx, server.URL+"/ok")
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

func TestFetcherBody(t *testing.T) {
	t.Parallel()

	server := newTestServer(t)

	t.Run("body is capped", func(t *testing.T) {
		t.Parallel()

		fetcher := NewFetcher(httpclient.New(), WithMaxBodySize(100), WithFetchLogger(discardLogger()))
		outcome, err := fetcher.Fetch(context.Background(), server.URL+"/big")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(outcome.Body) != 100 {
			t.Errorf("body length = %d, expected 100", len(outcome.Body))
		}
	})

	t.Run("declared charset is decoded", func(t *testing.T) {
		t.Parallel()

		fetcher := NewFetcher(httpclient.New(), WithFetchLogger(discardLogger()))
		outcome, err := fetcher.Fetch(context.Background(), server.URL+"/latin1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if outcome.Body != "café" {
			t.Errorf("body = %q", outcome.Body)
		}
	})
}

func TestFetcherProbe(t *testing.T) {
	t.Parallel()

	server := newTestServer(t)
	observer := &recordingObserver{}
	fetcher := NewFetcher(httpclient.New(), WithCredentials("editor", "secret"),
		WithFetchLogger(discardLogger()), WithFetchObserver(observer))

	for path, want := range map[string]int{"/ok": 200, "/missing": 404, "/boom": 500} {
		status, err := fetcher.Probe(context.Background(), server.URL+path)
		if err != nil {
			t.Fatalf("Probe(%s) error: %v", path, err)
		}
		if status != want {
			t.Errorf("Probe(%s) = %d, expected %d", path, status, want)
		}
	}

	observer.mu.Lock()
	defer observer.mu.Unlock()
	if len(observer.calls) != 3 {
		t.Errorf("expected 3 observations, got %v", observer.calls)
	}
	for _, call := range observer.calls {
		if !strings.HasPrefix(call, TargetLink+":") {
			t.Errorf("probe observed as %q", call)
		}
	}
}

func TestFetcherRateLimit(t *testing.T) {
	t.Parallel()

	server := newTestServer(t)
	fetcher := NewFetcher(httpclient.New(), WithRateLimit(20), WithFetchLogger(discardLogger()))

	start := time.Now()
	for range 3 {
		if _, err := fetcher.Probe(context.Background(), server.URL+"/missing"); err != nil {
			t.Fatalf("Probe error: %v", err)
		}
	}
	// Burst of one at 20 rps: the 2nd and 3rd request each wait ~50ms.
	if elapsed := time.Since(start); elapsed < 80*time.Millisecond {
		t.Errorf("rate limit not applied, elapsed %v", elapsed)
	}
}
