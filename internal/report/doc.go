// Package report writes audit results.
//
// Writers:
//   - CSVWriter: URL,Issue Type,Snippet rows, one per issue
//   - JSONWriter: structured output for tool integration
//   - MarkdownWriter: summary tables and charts for sharing
//   - SimpleWriter: human-readable text for the terminal
//   - XLSXWriter: a spreadsheet for content editors
//
// Report data lives in the model package; this package only formats it.
// All writers implement Writer and are picked with NewWriter.
package report
