package report

import (
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/nao1215/siteaudit/internal/model"
)

// MarkdownWriter outputs reports in GitHub-flavoured Markdown with a
// mermaid pie chart of issues by kind.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(report *model.AuditReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeSummary(md, report)
	w.writeOutcomes(md, report)
	w.writeIssues(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.AuditReport) {
	md.H1("Site Audit Report")
	md.PlainText("")

	input := report.Input
	if input == "" {
		input = "-"
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Input", "`" + input + "`"},
			{"Started", report.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", report.Duration().Round(time.Millisecond).String()},
			{"Pages Audited", strconv.Itoa(report.Pages)},
			{"Links Checked", strconv.Itoa(report.LinksChecked)},
			{"Affected Pages", strconv.Itoa(report.AffectedPages())},
		},
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *model.AuditReport) {
	md.H2("Summary")
	md.PlainText("")

	summary := report.Summary()
	rows := make([][]string, 0, len(summary)+1)
	for _, kc := range summary {
		rows = append(rows, []string{
			kc.Kind.String(),
			severityBadge(model.GetSeverity(kc.Kind)),
			strconv.Itoa(kc.Count),
		})
	}
	rows = append(rows, []string{"**Total**", "", "**" + strconv.Itoa(len(report.Issues)) + "**"})

	md.Table(markdown.TableSet{
		Header: []string{"Issue Type", "Severity", "Count"},
		Rows:   rows,
	})
	md.PlainText("")

	if report.HasIssues() {
		w.writePieChart(md, summary)
	}
	w.writeAlert(md, report)
}

func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, summary []model.KindCount) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Issues by Type"),
		piechart.WithShowData(true),
	)
	for _, kc := range summary {
		chart.LabelAndIntValue(kc.Kind.String(), uint64(kc.Count)) //nolint:gosec // counts are non-negative
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, report *model.AuditReport) {
	counts := report.CountBySeverity()
	switch {
	case counts[model.SeverityHigh] > 0:
		md.Warningf(
			"%d issue(s) break pages or links for visitors and should be fixed first.",
			counts[model.SeverityHigh],
		)
	case counts[model.SeverityMedium] > 0:
		md.Importantf(
			"%d link policy violation(s) found.",
			counts[model.SeverityMedium],
		)
	case report.HasIssues():
		md.Note("Only content hygiene issues found.")
	default:
		md.Tip("No issues found.")
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeOutcomes(md *markdown.Markdown, report *model.AuditReport) {
	if len(report.Outcomes) == 0 {
		return
	}

	md.H2("Page Outcomes")
	md.PlainText("")

	names := make([]string, 0, len(report.Outcomes))
	for name := range report.Outcomes {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := make([][]string, len(names))
	for i, name := range names {
		rows[i] = []string{name, strconv.Itoa(report.Outcomes[name])}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Outcome", "Pages"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeIssues(md *markdown.Markdown, report *model.AuditReport) {
	md.H2("Issues")
	md.PlainText("")

	if !report.HasIssues() {
		md.PlainText("No issues found.")
		md.PlainText("")
		return
	}

	groups := report.IssuesByKind()
	for _, kc := range report.Summary() {
		md.H3(kc.Kind.String())
		md.PlainText("")

		if rec := model.GetKindInfo(kc.Kind).Recommendation; rec != "" {
			md.PlainText("*" + rec + "*")
			md.PlainText("")
		}

		issues := groups[kc.Kind]
		rows := make([][]string, len(issues))
		for i, issue := range issues {
			rows[i] = []string{escapeCell(issue.PageURL), escapeCell(issue.Snippet)}
		}
		md.Table(markdown.TableSet{
			Header: []string{"Page", "Snippet"},
			Rows:   rows,
		})
		md.PlainText("")
	}
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [siteaudit](https://github.com/nao1215/siteaudit)*")
}

func severityBadge(s model.Severity) string {
	switch s {
	case model.SeverityHigh:
		return "🟠 High"
	case model.SeverityMedium:
		return "🟡 Medium"
	case model.SeverityLow:
		return "🔵 Low"
	default:
		return "⚪ Info"
	}
}

// escapeCell keeps table cells on one line and stops pipes from splitting them.
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.Join(strings.Fields(s), " ")
}
