package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"slices"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/nao1215/siteaudit/internal/model"
)

var (
	// ErrBaseURLRequired is returned when a row holds a relative reference
	// and no base URL was configured.
	ErrBaseURLRequired = errors.New("BASE_URL is required because some CSV rows do not include http:// or https:// (e.g. '/about')")

	// ErrEmptyURL is returned by Absolutize for a blank reference.
	ErrEmptyURL = errors.New("empty URL in the source CSV")
)

// URLFields are the accepted page URL column names, in priority order.
var URLFields = []string{"link", "url", "full-link", "full link", "page url", "page-url"}

// DescriptionFields are the accepted SEO description column names, in priority order.
var DescriptionFields = []string{
	"seo description",
	"seo-description",
	"seo_description",
	"seo desc",
	"seo-description text",
	"seo description text",
}

// Reader turns manifest rows into page descriptors.
type Reader struct {
	baseURL *url.URL
	limit   int
}

// Option configures a Reader.
type Option func(*Reader)

// WithLimit keeps only the first n pages. Zero or less keeps all of them.
func WithLimit(n int) Option {
	return func(r *Reader) {
		r.limit = n
	}
}

// NewReader creates a Reader. baseURL may be empty when every row is absolute.
func NewReader(baseURL string, opts ...Option) (*Reader, error) {
	r := &Reader{}
	if baseURL != "" {
		u, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("parse base URL: %w", err)
		}
		r.baseURL = u
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// LoadFile reads the manifest at path.
func (r *Reader) LoadFile(path string) ([]model.PageDescriptor, error) {
	f, err := os.Open(path) //nolint:gosec // user-provided path
	if err != nil {
		return nil, err
	}
	defer f.Close()

	pages, err := r.Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return pages, nil
}

// Read parses a manifest. Rows with no URL are skipped. A description
// column that exists but is empty yields a blank description; a manifest
// without any description column yields nil descriptions.
func (r *Reader) Read(in io.Reader) ([]model.PageDescriptor, error) {
	decoded := transform.NewReader(in, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	cr := csv.NewReader(decoded)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i := range header {
		header[i] = normalizeKey(header[i])
	}
	hasDescription := hasAnyField(header, DescriptionFields)

	var pages []model.PageDescriptor
	for {
		if r.limit > 0 && len(pages) >= r.limit {
			break
		}

		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}

		row := rowMap(header, record)
		raw := firstValue(row, URLFields)
		if raw == "" {
			continue
		}

		abs, err := Absolutize(raw, r.baseURL)
		if err != nil {
			return nil, err
		}

		page := model.PageDescriptor{URL: abs, DisplayURL: raw}
		if hasDescription {
			desc := firstValue(row, DescriptionFields)
			page.Description = &desc
		}
		pages = append(pages, page)
	}
	return pages, nil
}

// Absolutize turns a manifest reference into an absolute URL.
// http and https references are kept as written, "//host/path" gets the
// https scheme, and anything else is joined to base with leading slashes
// removed so it stays under the base path.
func Absolutize(raw string, base *url.URL) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrEmptyURL
	}

	if u, err := url.Parse(trimmed); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		return trimmed, nil
	}
	if strings.HasPrefix(trimmed, "//") {
		return "https:" + trimmed, nil
	}
	if base == nil {
		return "", ErrBaseURLRequired
	}

	ref, err := url.Parse(strings.TrimLeft(trimmed, "/"))
	if err != nil {
		return "", fmt.Errorf("parse %q: %w", trimmed, err)
	}
	return base.ResolveReference(ref).String(), nil
}

func normalizeKey(key string) string {
	return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(key)), "\ufeff")
}

func rowMap(header, record []string) map[string]string {
	row := make(map[string]string, len(header))
	for i, key := range header {
		var v string
		if i < len(record) {
			v = strings.TrimSpace(record[i])
		}
		row[key] = v
	}
	return row
}

func firstValue(row map[string]string, candidates []string) string {
	for _, c := range candidates {
		if v := row[c]; v != "" {
			return v
		}
	}
	return ""
}

func hasAnyField(header, candidates []string) bool {
	for _, c := range candidates {
		if slices.Contains(header, c) {
			return true
		}
	}
	return false
}
