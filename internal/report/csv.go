package report

import (
	"encoding/csv"
	"io"

	"github.com/nao1215/siteaudit/internal/model"
)

// CSVHeader is the header row of the CSV report.
var CSVHeader = []string{"URL", "Issue Type", "Snippet"}

// CSVWriter writes one row per issue in report order.
// An empty report still gets the header row.
type CSVWriter struct {
	baseWriter
}

// NewCSVWriter creates a CSVWriter that outputs to the given writer.
func NewCSVWriter(output io.Writer) *CSVWriter {
	return &CSVWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the issues as CSV.
func (w *CSVWriter) Write(report *model.AuditReport) (int, error) {
	cw := &countingWriter{w: w.output}
	out := csv.NewWriter(cw)

	if err := out.Write(CSVHeader); err != nil {
		return cw.n, err
	}
	for _, issue := range report.Issues {
		if err := out.Write([]string{issue.PageURL, issue.Kind.String(), issue.Snippet}); err != nil {
			return cw.n, err
		}
	}
	out.Flush()
	return cw.n, out.Error()
}
