// Package model defines the core data structures used throughout siteaudit.
//
// This package contains the following main types:
//   - PageDescriptor: One page to audit, as supplied by the caller
//   - ResolvedLink: An anchor on a page resolved against the page URL
//   - FetchOutcome: The classified result of fetching a page
//   - Issue: A single finding reported for a page
//   - AuditReport: The ordered, flattened result of a run
//
// The models live in their own package because the crawler, audit, pipeline,
// report and database packages all exchange them.
package model
