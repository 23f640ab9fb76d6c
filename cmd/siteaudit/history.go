package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nao1215/siteaudit/internal/config"
	"github.com/nao1215/siteaudit/internal/database"
	"github.com/nao1215/siteaudit/internal/model"
)

// errNotEnoughRuns is returned by --compare with fewer than two stored runs.
var errNotEnoughRuns = errors.New("at least two stored runs are needed to compare (run 'siteaudit audit' again)")

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show and compare past audit runs",
		Long: `History reads the runs saved by 'siteaudit audit'.

Without flags it lists the stored runs, newest first.

Examples:
  # List runs
  siteaudit history

  # Show the issues of run 3
  siteaudit history --run 3

  # Compare the latest two runs
  siteaudit history --compare

  # Compare two specific runs as JSON
  siteaudit history --compare --from 2 --to 5 --json`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().BoolP("list", "l", false, "List stored runs (default)")
	cmd.Flags().Int("max", 20, "Maximum runs to list (0 = all)")
	cmd.Flags().Int64P("run", "r", 0, "Show the issues of a run by ID")
	cmd.Flags().Bool("compare", false, "Compare two runs (default: the latest two)")
	cmd.Flags().Int64("from", 0, "Older run ID for --compare")
	cmd.Flags().Int64("to", 0, "Newer run ID for --compare")
	cmd.Flags().BoolP("json", "j", false, "Output JSON")
	cmd.Flags().String("db-dir", "", "History database directory (default: XDG data dir)")

	return cmd
}

type historyOptions struct {
	max     int
	runID   int64
	compare bool
	fromID  int64
	toID    int64
	jsonOut bool
	dbDir   string
}

func parseHistoryFlags(cmd *cobra.Command) (historyOptions, error) {
	var opts historyOptions
	var err error
	flags := cmd.Flags()

	if opts.max, err = flags.GetInt("max"); err != nil {
		return opts, err
	}
	if opts.runID, err = flags.GetInt64("run"); err != nil {
		return opts, err
	}
	if opts.compare, err = flags.GetBool("compare"); err != nil {
		return opts, err
	}
	if opts.fromID, err = flags.GetInt64("from"); err != nil {
		return opts, err
	}
	if opts.toID, err = flags.GetInt64("to"); err != nil {
		return opts, err
	}
	if opts.jsonOut, err = flags.GetBool("json"); err != nil {
		return opts, err
	}
	if opts.dbDir, err = flags.GetString("db-dir"); err != nil {
		return opts, err
	}
	if opts.dbDir == "" {
		opts.dbDir = config.XDGDataDir()
	}

	if opts.runID != 0 && opts.compare {
		return opts, errors.New("--run and --compare cannot be used together")
	}
	if (opts.fromID != 0 || opts.toID != 0) && !opts.compare {
		return opts, errors.New("--from and --to require --compare")
	}
	if (opts.fromID == 0) != (opts.toID == 0) {
		return opts, errors.New("--from and --to must be given together")
	}
	return opts, nil
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	// Flags are checked before the database is opened so a bad invocation
	// never creates one.
	opts, err := parseHistoryFlags(cmd)
	if err != nil {
		return err
	}

	db, err := database.Open(opts.dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	switch {
	case opts.compare:
		return showComparison(ctx, db, opts, out)
	case opts.runID != 0:
		return showRun(ctx, db, opts.runID, opts.jsonOut, out)
	default:
		return listRuns(ctx, db, opts.max, opts.jsonOut, out)
	}
}

func listRuns(ctx context.Context, db *database.AuditDB, limit int, jsonOut bool, out io.Writer) error {
	runs, err := db.ListRuns(ctx, limit)
	if err != nil {
		return err
	}
	if jsonOut {
		if runs == nil {
			runs = []database.RunRecord{}
		}
		return writeJSON(out, runs)
	}

	if len(runs) == 0 {
		fmt.Fprintln(out, "No audit runs stored yet.")
		return nil
	}

	fmt.Fprintf(out, "Audit runs (%d):\n\n", len(runs))
	fmt.Fprintf(out, "  %-6s  %-20s  %-6s  %-7s  %s\n", "ID", "Date", "Pages", "Issues", "Input")
	for _, run := range runs {
		fmt.Fprintf(out, "  %-6d  %-20s  %-6d  %-7d  %s\n",
			run.ID,
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			run.Pages,
			run.IssueCount,
			run.Input,
		)
	}
	return nil
}

func showRun(ctx context.Context, db *database.AuditDB, id int64, jsonOut bool, out io.Writer) error {
	run, err := db.GetRun(ctx, id)
	if err != nil {
		return err
	}
	issues, err := db.GetRunIssues(ctx, id)
	if err != nil {
		return err
	}

	if jsonOut {
		return writeJSON(out, struct {
			Run    *database.RunRecord `json:"run"`
			Issues []model.Issue       `json:"issues"`
		}{run, issues})
	}

	fmt.Fprintf(out, "Run %d: %s\n", run.ID, run.Input)
	fmt.Fprintf(out, "Date:   %s\n", run.StartedAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(out, "Pages:  %d\n", run.Pages)
	fmt.Fprintf(out, "Issues: %d\n", len(issues))
	if summary := formatSummary(run.Summary); summary != "" {
		fmt.Fprintf(out, "        %s\n", summary)
	}
	fmt.Fprintln(out)

	for _, issue := range issues {
		fmt.Fprintf(out, "  [%s] %s\n      %s\n", issue.Kind, issue.PageURL, issue.Snippet)
	}
	return nil
}

func showComparison(ctx context.Context, db *database.AuditDB, opts historyOptions, out io.Writer) error {
	oldID, newID := opts.fromID, opts.toID
	if oldID == 0 {
		ids, err := db.LatestRunIDs(ctx, 2)
		if err != nil {
			return err
		}
		if len(ids) < 2 {
			return errNotEnoughRuns
		}
		newID, oldID = ids[0], ids[1]
	}

	diff, err := db.CompareRuns(ctx, oldID, newID)
	if err != nil {
		return err
	}

	if opts.jsonOut {
		return writeJSON(out, diff)
	}

	fmt.Fprintf(out, "Comparing run %d -> run %d\n\n", diff.OldRunID, diff.NewRunID)
	if !diff.HasChanges() {
		fmt.Fprintf(out, "No changes (%d issues unchanged)\n", diff.Unchanged)
		return nil
	}

	if len(diff.New) > 0 {
		fmt.Fprintf(out, "New issues (%d):\n", len(diff.New))
		for _, issue := range diff.New {
			fmt.Fprintf(out, "  + [%s] %s: %s\n", issue.Kind, issue.PageURL, issue.Snippet)
		}
		fmt.Fprintln(out)
	}
	if len(diff.Resolved) > 0 {
		fmt.Fprintf(out, "Resolved issues (%d):\n", len(diff.Resolved))
		for _, issue := range diff.Resolved {
			fmt.Fprintf(out, "  - [%s] %s: %s\n", issue.Kind, issue.PageURL, issue.Snippet)
		}
		fmt.Fprintln(out)
	}
	fmt.Fprintf(out, "%d issues unchanged\n", diff.Unchanged)
	return nil
}

// formatSummary renders kind counts as "Kind: n, ..." sorted by kind label.
func formatSummary(summary map[string]int) string {
	if len(summary) == 0 {
		return ""
	}
	kinds := make([]string, 0, len(summary))
	for kind := range summary {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)

	parts := make([]string, len(kinds))
	for i, kind := range kinds {
		parts[i] = fmt.Sprintf("%s: %d", kind, summary[kind])
	}
	return strings.Join(parts, ", ")
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
