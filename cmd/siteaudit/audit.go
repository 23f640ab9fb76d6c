package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/nao1215/siteaudit/internal/audit"
	"github.com/nao1215/siteaudit/internal/config"
	"github.com/nao1215/siteaudit/internal/crawler"
	"github.com/nao1215/siteaudit/internal/database"
	"github.com/nao1215/siteaudit/internal/httpclient"
	auditlog "github.com/nao1215/siteaudit/internal/log"
	"github.com/nao1215/siteaudit/internal/metrics"
	"github.com/nao1215/siteaudit/internal/model"
	"github.com/nao1215/siteaudit/internal/pipeline"
	"github.com/nao1215/siteaudit/internal/report"
	"github.com/nao1215/siteaudit/internal/source"
)

// NewAuditCmd creates the audit command.
func NewAuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Audit the pages listed in a CSV manifest",
		Long: `Audit fetches each page listed in the manifest with HTTP basic auth and
reports:
- Missing SEO descriptions
- Pages that return 404 or fail to load
- Broken links to the same site
- Absolute links to dev/prod hosts or to blocked organisation hosts
- Placeholder text such as "lorem ipsum"

The manifest needs a URL column (link, url, full-link, full link, page url
or page-url) and may have an SEO description column. Relative URLs are
resolved against BASE_URL.

Examples:
  # Audit and write a CSV report
  siteaudit audit --input pages.csv --output results.csv

  # First 20 rows only, Markdown report
  siteaudit audit -i pages.csv -o report.md --limit 20

  # Public site, throttled to 2 requests per second
  siteaudit audit -i pages.csv -o results.xlsx --no-auth --rate 2`,
		Args: cobra.NoArgs,
		RunE: runAuditCmd,
	}

	cmd.Flags().StringP("input", "i", "", "CSV manifest listing the pages to audit")
	cmd.Flags().StringP("output", "o", "",
		"Report file path (default: text report on stdout)")
	cmd.Flags().StringP("format", "f", "",
		"Report format: csv, json, markdown, text or xlsx (default: from --output extension)")
	cmd.Flags().IntP("concurrency", "n", config.DefaultConcurrency,
		"Maximum number of pages audited at once")
	cmd.Flags().IntP("limit", "l", 0, "Audit only the first N manifest rows (0 = all)")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each request, redirects included")
	cmd.Flags().Float64P("rate", "r", 0, "Maximum requests per second (0 = unlimited)")
	cmd.Flags().StringP("config", "c", "",
		"Policy file path (default: .siteaudit in current or home directory)")
	cmd.Flags().String("env-file", "", "dotenv file with credentials (default: .env if present)")
	cmd.Flags().String("selector", "", "CSS selector of the content region (default: main)")
	cmd.Flags().String("user-agent", config.DefaultUserAgent, "User-Agent header")
	cmd.Flags().Int("snippet-limit", config.DefaultSnippetLimit, "Maximum snippet length")
	cmd.Flags().Bool("no-auth", false, "Do not require or send basic-auth credentials")
	cmd.Flags().Bool("no-history", false, "Do not save this run in the history database")
	cmd.Flags().String("db-dir", "", "History database directory (default: XDG data dir)")
	cmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address during the run")
	cmd.Flags().String("log-file", "", "Also write logs to this file (rotated)")
	cmd.Flags().Bool("log-json", false, "Write logs as JSON")

	return cmd
}

func runAuditCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger, closer, err := auditlog.NewLogger(cmd.ErrOrStderr(), auditlog.Options{
		Verbose: cfg.Verbose,
		JSON:    cfg.LogJSON,
		File:    cfg.LogFile,
	})
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	defer closer.Close()
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Warn("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return runAudit(ctx, cfg, cmd.OutOrStdout(), cmd.ErrOrStderr(), logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig merges defaults, the policy file, the environment and flags.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()
	var err error

	if cfg.InputFile, err = flags.GetString("input"); err != nil {
		return nil, err
	}
	if cfg.OutputFile, err = flags.GetString("output"); err != nil {
		return nil, err
	}
	if cfg.Format, err = flags.GetString("format"); err != nil {
		return nil, err
	}
	if cfg.Concurrency, err = flags.GetInt("concurrency"); err != nil {
		return nil, err
	}
	if cfg.Limit, err = flags.GetInt("limit"); err != nil {
		return nil, err
	}
	if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
		return nil, err
	}
	if cfg.RequestRate, err = flags.GetFloat64("rate"); err != nil {
		return nil, err
	}
	if cfg.UserAgent, err = flags.GetString("user-agent"); err != nil {
		return nil, err
	}
	if cfg.SnippetLimit, err = flags.GetInt("snippet-limit"); err != nil {
		return nil, err
	}
	if cfg.NoAuth, err = flags.GetBool("no-auth"); err != nil {
		return nil, err
	}
	noHistory, err := flags.GetBool("no-history")
	if err != nil {
		return nil, err
	}
	cfg.SaveHistory = !noHistory
	if dbDir, err := flags.GetString("db-dir"); err != nil {
		return nil, err
	} else if dbDir != "" {
		cfg.DBDir = dbDir
	}
	if cfg.MetricsAddr, err = flags.GetString("metrics-addr"); err != nil {
		return nil, err
	}
	if cfg.LogFile, err = flags.GetString("log-file"); err != nil {
		return nil, err
	}
	if cfg.LogJSON, err = flags.GetBool("log-json"); err != nil {
		return nil, err
	}
	if cfg.EnvFile, err = flags.GetString("env-file"); err != nil {
		return nil, err
	}
	cfg.Verbose = getVerboseFlag(cmd)

	// An explicit --config that does not exist is an error; a missing
	// default file is not.
	if cfg.ConfigFilePath, err = flags.GetString("config"); err != nil {
		return nil, err
	}
	if path := config.FindConfigFile(cfg.ConfigFilePath); path != "" {
		file, err := config.LoadConfigFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
		cfg.ApplyFile(file)
	} else if cfg.ConfigFilePath != "" {
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}

	selector, err := flags.GetString("selector")
	if err != nil {
		return nil, err
	}
	if selector != "" {
		cfg.ContentSelector = selector
	}

	if err := cfg.LoadEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}
	return cfg, nil
}

// auditPolicy converts the configured host lists into classifier policy.
func auditPolicy(cfg *config.Config) audit.Policy {
	return audit.Policy{
		DevProdHosts:        audit.NewHostSet(cfg.Policy.DevProdHostList()...),
		BlockedHosts:        audit.NewHostSet(cfg.Policy.BlockedHostList()...),
		PlaceholderPatterns: cfg.Policy.Patterns(),
		PlaceholderCap:      cfg.PlaceholderCap,
		PlaceholderContext:  cfg.PlaceholderContext,
	}
}

// runAudit performs one audit run. Progress and status lines go to status;
// the report goes to the output file or, without one, to stdout.
func runAudit(ctx context.Context, cfg *config.Config, stdout, stderr io.Writer, logger *slog.Logger) error {
	status := stdout
	if cfg.OutputFile == "" {
		status = stderr
	}

	reader, err := source.NewReader(cfg.BaseURL, source.WithLimit(cfg.Limit))
	if err != nil {
		return err
	}
	pages, err := reader.LoadFile(cfg.InputFile)
	if err != nil {
		return fmt.Errorf("failed to load manifest: %w", err)
	}
	fmt.Fprintf(status, "Loaded %d URLs from %s.\n", len(pages), cfg.InputFile)

	var m *metrics.Metrics
	if cfg.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		m = metrics.New(reg)
		srv, err := metrics.Listen(cfg.MetricsAddr, reg, logger)
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("failed to stop metrics server", "error", err)
			}
		}()
	}

	client := httpclient.New(
		httpclient.WithTimeout(cfg.Timeout),
		httpclient.WithMaxRedirects(cfg.MaxRedirects),
		httpclient.WithUserAgent(cfg.UserAgent),
		httpclient.WithCookie(cfg.Policy.RequestCookie()),
		httpclient.WithHeaders(cfg.Policy.RequestHeaders()),
	)

	fetcherOpts := []crawler.FetcherOption{
		crawler.WithMaxBodySize(cfg.MaxBodySize),
		crawler.WithRateLimit(cfg.RequestRate),
		crawler.WithFetchLogger(logger),
	}
	if !cfg.NoAuth {
		fetcherOpts = append(fetcherOpts, crawler.WithCredentials(cfg.Username, cfg.Password))
	}
	if m != nil {
		fetcherOpts = append(fetcherOpts, crawler.WithFetchObserver(m))
	}
	fetcher := crawler.NewFetcher(client, fetcherOpts...)

	var progressMu sync.Mutex
	runnerOpts := []pipeline.RunnerOption{
		pipeline.WithRunnerConcurrency(cfg.Concurrency),
		pipeline.WithPolicy(auditPolicy(cfg)),
		pipeline.WithExtractor(crawler.NewExtractor(crawler.WithContentSelector(cfg.ContentSelector))),
		pipeline.WithRunnerSnippetLimit(cfg.SnippetLimit),
		pipeline.WithRunnerLogger(logger),
		pipeline.WithRunnerProgress(func(index, total int, page model.PageDescriptor) {
			progressMu.Lock()
			defer progressMu.Unlock()
			fmt.Fprintf(status, "[%d/%d] Auditing %s\n", index, total, page.URL)
		}),
	}
	if m != nil {
		runnerOpts = append(runnerOpts, pipeline.WithRecorder(m))
	}

	result, err := pipeline.NewRunner(fetcher, runnerOpts...).Run(ctx, cfg.InputFile, pages)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("audit interrupted: %w", err)
		}
		return err
	}

	if err := writeReport(cfg, result, stdout); err != nil {
		return err
	}

	if cfg.SaveHistory {
		if err := saveHistory(ctx, cfg, result, logger); err != nil {
			logger.Error("failed to save audit history", "error", err)
		}
	}

	dest := cfg.OutputFile
	if dest == "" {
		dest = "stdout"
	}
	if result.HasIssues() {
		fmt.Fprintf(status, "Wrote %d issues to %s\n", len(result.Issues), dest)
	} else {
		fmt.Fprintf(status, "No issues found. Wrote empty report to %s\n", dest)
	}
	return nil
}

// writeReport writes the report in the configured format.
func writeReport(cfg *config.Config, result *model.AuditReport, stdout io.Writer) (err error) {
	format, err := cfg.ReportFormat()
	if err != nil {
		return err
	}

	output := stdout
	if cfg.OutputFile != "" {
		if dir := filepath.Dir(cfg.OutputFile); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}
		f, openErr := os.OpenFile(cfg.OutputFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if openErr != nil {
			return fmt.Errorf("failed to create output file: %w", openErr)
		}
		defer closeOutput(f, &err)
		output = f
	}

	w, err := report.NewWriter(format, output, getVersion())
	if err != nil {
		return err
	}
	if _, err := w.Write(result); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// closeOutput closes c and reports its error through err unless err is
// already set. A failed close can lose report data still in flight.
func closeOutput(c io.Closer, err *error) {
	if cerr := c.Close(); cerr != nil && *err == nil {
		*err = fmt.Errorf("failed to close output file: %w", cerr)
	}
}

func saveHistory(ctx context.Context, cfg *config.Config, result *model.AuditReport, logger *slog.Logger) error {
	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return err
	}
	defer db.Close()

	id, err := db.SaveRun(ctx, result)
	if err != nil {
		return err
	}
	logger.Info("audit run saved", "run_id", id, "db", db.Path())
	return nil
}
