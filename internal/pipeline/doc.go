// Package pipeline drives the audit of every page.
//
// A Pipeline runs the steps for one page in sequence:
//
//	describe -> fetch -> extract -> classify
//
// Each page moves through the states Pending, Fetching, Extracting,
// Classifying and Done. A page that answers 404 or cannot be fetched is done
// after the fetch step with a single Page 404 or Fetch failed issue.
//
// BatchProcessor runs one pipeline per page under a concurrency limit using
// errgroup and keeps the results in input order. Runner wires both together
// for a whole run and owns the link status cache shared by all pages.
//
// Failures never cross page boundaries: an error from one page's pipeline
// becomes a Fetch failed issue for that page and the other pages carry on.
package pipeline
