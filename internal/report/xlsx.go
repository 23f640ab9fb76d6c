package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/nao1215/siteaudit/internal/model"
)

// XLSXSheet is the worksheet holding the issues.
const XLSXSheet = "Issues"

// XLSXWriter writes the issues as a single-sheet workbook with the same
// columns as the CSV report plus severity.
type XLSXWriter struct {
	baseWriter
}

// NewXLSXWriter creates an XLSXWriter that outputs to the given writer.
func NewXLSXWriter(output io.Writer) *XLSXWriter {
	return &XLSXWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the report as an .xlsx workbook.
func (w *XLSXWriter) Write(report *model.AuditReport) (int, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", XLSXSheet); err != nil {
		return 0, err
	}

	header := append(append([]string{}, CSVHeader...), "Severity")
	for i, h := range header {
		if err := setCell(f, i+1, 1, h); err != nil {
			return 0, err
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return 0, err
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return 0, err
	}
	if err := f.SetCellStyle(XLSXSheet, "A1", last, bold); err != nil {
		return 0, err
	}

	for i, issue := range report.Issues {
		row := i + 2
		values := []string{
			issue.PageURL,
			issue.Kind.String(),
			issue.Snippet,
			model.GetSeverity(issue.Kind).String(),
		}
		for col, v := range values {
			if err := setCell(f, col+1, row, v); err != nil {
				return 0, err
			}
		}
	}

	if err := f.SetColWidth(XLSXSheet, "A", "A", 60); err != nil {
		return 0, err
	}
	if err := f.SetColWidth(XLSXSheet, "C", "C", 100); err != nil {
		return 0, err
	}

	n, err := f.WriteTo(w.output)
	return int(n), err
}

func setCell(f *excelize.File, col, row int, value string) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return fmt.Errorf("cell %d,%d: %w", col, row, err)
	}
	return f.SetCellValue(XLSXSheet, cell, value)
}
