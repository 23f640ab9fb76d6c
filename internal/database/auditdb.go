package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/siteaudit/internal/config"
	"github.com/nao1215/siteaudit/internal/model"
)

// ErrRunNotFound is returned when a run ID does not exist.
var ErrRunNotFound = errors.New("audit run not found")

// AuditDB provides SQLite-based storage for audit runs.
type AuditDB struct {
	db     *sql.DB
	dbPath string
}

// Options configures AuditDB behavior.
type Options struct {
	// CreateIfNotExists creates the directory and database file when missing.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the history database inside dbDir.
func Open(dbDir string, opts Options) (*AuditDB, error) {
	dbPath := filepath.Join(dbDir, config.DefaultDBFile)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	adb := &AuditDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}
	if _, err := db.ExecContext(context.Background(), "PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := adb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return adb, nil
}

// Path returns the database file path.
func (adb *AuditDB) Path() string {
	return adb.dbPath
}

// Close closes the database connection.
func (adb *AuditDB) Close() error {
	return adb.db.Close()
}

func (adb *AuditDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS audit_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		input TEXT NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		pages INTEGER NOT NULL DEFAULT 0,
		links_checked INTEGER NOT NULL DEFAULT 0,
		issue_count INTEGER NOT NULL DEFAULT 0,
		summary_json TEXT,
		outcomes_json TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_runs_input ON audit_runs(input);

	CREATE TABLE IF NOT EXISTS audit_issues (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES audit_runs(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		page_url TEXT NOT NULL,
		kind TEXT NOT NULL,
		snippet TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_issues_run ON audit_issues(run_id, position);
	`

	_, err := adb.db.ExecContext(context.Background(), schema)
	return err
}

// RunRecord is the stored metadata of one audit run.
type RunRecord struct {
	ID           int64          `json:"id"`
	Input        string         `json:"input"`
	StartedAt    time.Time      `json:"started_at"`
	FinishedAt   time.Time      `json:"finished_at"`
	Pages        int            `json:"pages"`
	LinksChecked int            `json:"links_checked"`
	IssueCount   int            `json:"issue_count"`
	Summary      map[string]int `json:"summary"`
	Outcomes     map[string]int `json:"outcomes,omitempty"`
}

// SaveRun stores a report and its issues in one transaction and returns the run ID.
func (adb *AuditDB) SaveRun(ctx context.Context, report *model.AuditReport) (int64, error) {
	summary := make(map[string]int)
	for kind, n := range report.CountByKind() {
		summary[kind.String()] = n
	}
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize summary: %w", err)
	}
	outcomesJSON, err := json.Marshal(report.Outcomes)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize outcomes: %w", err)
	}

	tx, err := adb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
	INSERT INTO audit_runs (input, started_at, finished_at, pages, links_checked, issue_count, summary_json, outcomes_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		report.Input,
		formatTimestamp(report.StartedAt),
		formatTimestamp(report.FinishedAt),
		report.Pages,
		report.LinksChecked,
		len(report.Issues),
		string(summaryJSON),
		string(outcomesJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save audit run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run ID: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO audit_issues (run_id, position, page_url, kind, snippet)
	VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare issue insert: %w", err)
	}
	defer stmt.Close()

	for i, issue := range report.Issues {
		if _, err := stmt.ExecContext(ctx, runID, i, issue.PageURL, issue.Kind.String(), issue.Snippet); err != nil {
			return 0, fmt.Errorf("failed to save issue %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit audit run: %w", err)
	}
	return runID, nil
}

// ListRuns returns stored runs, newest first. A limit of zero or less returns all.
func (adb *AuditDB) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	query := `
	SELECT id, input, started_at, finished_at, pages, links_checked, issue_count, summary_json, outcomes_json
	FROM audit_runs
	ORDER BY id DESC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := adb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRun returns one run's metadata.
func (adb *AuditDB) GetRun(ctx context.Context, id int64) (*RunRecord, error) {
	row := adb.db.QueryRowContext(ctx, `
	SELECT id, input, started_at, finished_at, pages, links_checked, issue_count, summary_json, outcomes_json
	FROM audit_runs
	WHERE id = ?
	`, id)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// GetRunIssues returns a run's issues in their original order.
func (adb *AuditDB) GetRunIssues(ctx context.Context, runID int64) ([]model.Issue, error) {
	if _, err := adb.GetRun(ctx, runID); err != nil {
		return nil, err
	}

	rows, err := adb.db.QueryContext(ctx, `
	SELECT page_url, kind, snippet
	FROM audit_issues
	WHERE run_id = ?
	ORDER BY position
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get run issues: %w", err)
	}
	defer rows.Close()

	issues := []model.Issue{}
	for rows.Next() {
		var issue model.Issue
		var kind string
		if err := rows.Scan(&issue.PageURL, &kind, &issue.Snippet); err != nil {
			return nil, fmt.Errorf("failed to scan issue: %w", err)
		}
		if issue.Kind, err = model.ParseIssueKind(kind); err != nil {
			return nil, fmt.Errorf("run %d: %w", runID, err)
		}
		issues = append(issues, issue)
	}
	return issues, rows.Err()
}

// LatestRunIDs returns up to n run IDs, newest first.
func (adb *AuditDB) LatestRunIDs(ctx context.Context, n int) ([]int64, error) {
	rows, err := adb.db.QueryContext(ctx, `SELECT id FROM audit_runs ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest runs: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan run ID: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CompareRuns diffs the issues of two runs.
func (adb *AuditDB) CompareRuns(ctx context.Context, oldID, newID int64) (*RunDiff, error) {
	oldIssues, err := adb.GetRunIssues(ctx, oldID)
	if err != nil {
		return nil, err
	}
	newIssues, err := adb.GetRunIssues(ctx, newID)
	if err != nil {
		return nil, err
	}
	diff := DiffIssues(oldIssues, newIssues)
	diff.OldRunID = oldID
	diff.NewRunID = newID
	return &diff, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (RunRecord, error) {
	var run RunRecord
	var started, finished string
	var summaryJSON, outcomesJSON sql.NullString

	if err := s.Scan(&run.ID, &run.Input, &started, &finished, &run.Pages,
		&run.LinksChecked, &run.IssueCount, &summaryJSON, &outcomesJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return run, err
		}
		return run, fmt.Errorf("failed to scan run: %w", err)
	}

	run.StartedAt = parseTimestamp(started)
	run.FinishedAt = parseTimestamp(finished)
	run.Summary = decodeCounts(summaryJSON)
	run.Outcomes = decodeCounts(outcomesJSON)
	return run, nil
}

// decodeCounts tolerates NULL and malformed JSON, returning an empty map.
func decodeCounts(ns sql.NullString) map[string]int {
	counts := make(map[string]int)
	if !ns.Valid || ns.String == "" {
		return counts
	}
	if err := json.Unmarshal([]byte(ns.String), &counts); err != nil {
		return make(map[string]int)
	}
	return counts
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// timestampFormats are tried in order when reading timestamps back.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// parseTimestamp returns the zero time when no format matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
