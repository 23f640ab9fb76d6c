package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/nao1215/siteaudit/internal/model"
)

// SimpleWriter outputs human-readable text reports for the terminal.
// It uses plain ASCII so output can be piped without escape codes.
type SimpleWriter struct {
	baseWriter

	// verbose adds per-kind recommendations.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the report in human-readable format.
func (w *SimpleWriter) Write(report *model.AuditReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeSummary(&sb, report)
	w.writeIssues(&sb, report)
	w.writeFooter(&sb)

	return io.WriteString(w.output, sb.String())
}

func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.AuditReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                        SITE AUDIT REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	if report.Input != "" {
		fmt.Fprintf(sb, "Input:          %s\n", report.Input)
	}
	fmt.Fprintf(sb, "Started:        %s\n", report.StartedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(sb, "Pages Audited:  %d\n", report.Pages)
	fmt.Fprintf(sb, "Links Checked:  %d\n", report.LinksChecked)

	if len(report.Outcomes) > 0 {
		names := make([]string, 0, len(report.Outcomes))
		for name := range report.Outcomes {
			names = append(names, name)
		}
		sort.Strings(names)
		parts := make([]string, len(names))
		for i, name := range names {
			parts[i] = fmt.Sprintf("%s=%d", name, report.Outcomes[name])
		}
		fmt.Fprintf(sb, "Outcomes:       %s\n", strings.Join(parts, " "))
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeSummary(sb *strings.Builder, report *model.AuditReport) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\nSUMMARY\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	for _, kc := range report.Summary() {
		fmt.Fprintf(sb, "  [%s] %-34s %d\n", indicator(model.GetSeverity(kc.Kind)), kc.Kind, kc.Count)
	}
	if report.HasIssues() {
		sb.WriteString("\n")
	}
	fmt.Fprintf(sb, "  TOTAL: %d issues on %d pages\n\n", len(report.Issues), report.AffectedPages())
}

func (w *SimpleWriter) writeIssues(sb *strings.Builder, report *model.AuditReport) {
	if !report.HasIssues() {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\nISSUES\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	groups := report.IssuesByKind()
	for _, kc := range report.Summary() {
		fmt.Fprintf(sb, "[%s] %s\n", indicator(model.GetSeverity(kc.Kind)), kc.Kind)
		if w.verbose {
			if rec := model.GetKindInfo(kc.Kind).Recommendation; rec != "" {
				fmt.Fprintf(sb, "    %s\n", rec)
			}
		}
		for _, issue := range groups[kc.Kind] {
			fmt.Fprintf(sb, "  * %s\n", issue.PageURL)
			fmt.Fprintf(sb, "    %s\n", issue.Snippet)
		}
		sb.WriteString("\n")
	}
}

func indicator(s model.Severity) string {
	switch s {
	case model.SeverityHigh:
		return "!!"
	case model.SeverityMedium:
		return "!"
	case model.SeverityLow:
		return "-"
	case model.SeverityInfo:
		return "i"
	default:
		return "?"
	}
}

func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\nReport generated by siteaudit\n")
	sb.WriteString("https://github.com/nao1215/siteaudit\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
