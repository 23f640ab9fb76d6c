package config

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is used for XDG directory paths.
	AppName = "siteaudit"

	DefaultConcurrency = 5
	DefaultTimeout     = 30 * time.Second
	DefaultUserAgent   = "siteaudit/0.2 (+https://github.com/nao1215/siteaudit)"

	// DefaultMaxBodySize limits how much of each page is read.
	DefaultMaxBodySize = 5 * 1024 * 1024

	DefaultMaxRedirects       = 10
	DefaultSnippetLimit       = 200
	DefaultPlaceholderCap     = 20
	DefaultPlaceholderContext = 80
	DefaultContentSelector    = "main"

	// DefaultDBFile is the history database file name inside DBDir.
	DefaultDBFile = "history.db"
)

// Report formats.
const (
	FormatCSV      = "csv"
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
	FormatText     = "text"
	FormatXLSX     = "xlsx"
)

// Config holds every option of an audit run.
// It is filled from defaults, the policy file, the environment and flags,
// then passed down explicitly.
type Config struct {
	// InputFile is the CSV manifest listing the pages to audit.
	InputFile string

	// OutputFile is where the report goes. Empty means stdout.
	OutputFile string

	// Format is the report format. Empty means infer from OutputFile.
	Format string

	// Limit audits only the first N manifest rows. Zero means all.
	Limit int

	// Concurrency is the maximum number of pages in flight.
	Concurrency int

	// Timeout is the per-request timeout, redirects included.
	Timeout time.Duration

	// RequestRate caps requests per second across the run. Zero is unlimited.
	RequestRate float64

	UserAgent    string
	MaxBodySize  int64
	MaxRedirects int

	// SnippetLimit caps the length of issue snippets.
	SnippetLimit int

	PlaceholderCap     int
	PlaceholderContext int

	// ContentSelector is the CSS selector of the audited content region.
	ContentSelector string

	// Username and Password are the basic-auth credentials.
	Username string
	Password string

	// NoAuth disables the credential requirement.
	NoAuth bool

	// BaseURL resolves relative manifest references. It always ends with "/".
	BaseURL string

	// ConfigFilePath is an explicit policy file path.
	ConfigFilePath string

	// Policy is the loaded policy file, or nil when none was found.
	Policy *File

	// EnvFile is the dotenv file to load. Empty means ".env".
	EnvFile string

	// DBDir is where the history database lives.
	DBDir string

	// SaveHistory stores each run in the history database.
	SaveHistory bool

	// MetricsAddr serves Prometheus metrics during the run when set.
	MetricsAddr string

	// LogFile also writes logs to a rotating file when set.
	LogFile string

	// LogJSON switches log output to JSON.
	LogJSON bool

	// Verbose enables debug logging.
	Verbose bool
}

// NewConfig creates a Config with default values.
func NewConfig() *Config {
	return &Config{
		Concurrency:        DefaultConcurrency,
		Timeout:            DefaultTimeout,
		UserAgent:          DefaultUserAgent,
		MaxBodySize:        DefaultMaxBodySize,
		MaxRedirects:       DefaultMaxRedirects,
		SnippetLimit:       DefaultSnippetLimit,
		PlaceholderCap:     DefaultPlaceholderCap,
		PlaceholderContext: DefaultPlaceholderContext,
		ContentSelector:    DefaultContentSelector,
		DBDir:              XDGDataDir(),
		SaveHistory:        true,
	}
}

// XDGDataDir returns the XDG data directory for siteaudit.
// On Linux: ~/.local/share/siteaudit
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for siteaudit.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// DBPath returns the path of the history database.
func (c *Config) DBPath() string {
	return filepath.Join(c.DBDir, DefaultDBFile)
}

// Validate checks the configuration and returns the first problem found.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.InputFile) == "" {
		return ErrNoInput
	}
	if c.Concurrency < 1 {
		return ErrInvalidConcurrency
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.Limit < 0 {
		return ErrInvalidLimit
	}
	if c.RequestRate < 0 {
		return ErrInvalidRequestRate
	}
	if c.SnippetLimit <= 3 {
		return ErrInvalidSnippetLimit
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	if !c.NoAuth && (c.Username == "" || c.Password == "") {
		return ErrMissingCredentials
	}
	if _, err := c.ReportFormat(); err != nil {
		return err
	}
	return nil
}

// ReportFormat returns the effective report format.
// An explicit Format wins but must agree with a recognised output extension.
// Otherwise the format follows the extension; unknown extensions and stdout
// use CSV and text respectively.
func (c *Config) ReportFormat() (string, error) {
	inferred := FormatFromPath(c.OutputFile)

	if c.Format == "" {
		switch {
		case inferred != "":
			return inferred, nil
		case c.OutputFile == "":
			return FormatText, nil
		default:
			return FormatCSV, nil
		}
	}

	format := normalizeFormat(c.Format)
	if format == "" {
		return "", ErrUnknownFormat
	}
	if inferred != "" && inferred != format {
		return "", ErrConflictingReportFormats
	}
	return format, nil
}

// FormatFromPath infers a report format from a file extension.
// It returns "" for unknown extensions.
func FormatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV
	case ".json":
		return FormatJSON
	case ".md", ".markdown":
		return FormatMarkdown
	case ".txt":
		return FormatText
	case ".xlsx":
		return FormatXLSX
	default:
		return ""
	}
}

func normalizeFormat(format string) string {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatCSV:
		return FormatCSV
	case FormatJSON:
		return FormatJSON
	case FormatMarkdown, "md":
		return FormatMarkdown
	case FormatText, "txt", "simple":
		return FormatText
	case FormatXLSX, "excel":
		return FormatXLSX
	default:
		return ""
	}
}
