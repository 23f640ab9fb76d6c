// Package source reads the CSV manifest that lists the pages to audit.
//
// Header names are matched case-insensitively against a small set of
// aliases so exports from different CMS tools work unchanged. Relative page
// references are made absolute against BASE_URL.
package source
