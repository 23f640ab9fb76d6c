// Package httpclient builds the shared HTTP client used for page and link fetches.
//
// The client is read-only after construction and safe for concurrent use by
// every audit worker. A header-injecting RoundTripper adds the User-Agent and
// any configured headers to every request, redirects included.
//
// # Usage
//
//	client := httpclient.New(
//		httpclient.WithTimeout(30*time.Second),
//		httpclient.WithUserAgent("siteaudit/0.2"),
//	)
package httpclient
