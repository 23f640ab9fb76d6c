// Package main provides the entry point for the siteaudit CLI.
//
// siteaudit audits the pages listed in a CMS export for SEO and content
// problems: missing descriptions, pages that do not load, broken same-site
// links, absolute links to deployment or organisation hosts, and leftover
// placeholder text.
//
// Usage:
//
//	siteaudit audit --input pages.csv --output results.csv
//	siteaudit history --compare
//
// See --help for all available options.
package main

func main() {
	Execute()
}
