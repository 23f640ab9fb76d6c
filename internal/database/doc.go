// Package database stores audit history in SQLite.
//
// Each run of the audit command is saved as one audit_runs row with its
// issues in audit_issues, so later runs can be listed and compared to see
// which issues are new and which were resolved.
//
// The store uses modernc.org/sqlite, a CGO-free driver, with WAL enabled and
// a single open connection since SQLite has one writer.
package database
