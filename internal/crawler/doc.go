// Package crawler fetches pages and turns their HTML into resolved links and
// visible text.
//
// # Components
//
//   - ResolveHref: turns a raw href into a ResolvedLink, rejecting
//     non-navigable references
//   - Extractor: isolates the main content region and extracts links and text
//   - Fetcher: authenticated GET that classifies the result into a FetchOutcome
//   - StatusCache: run-wide memo of link statuses with one fetch per URL
//
// The crawler never follows links beyond the single status probe made for
// same-host links; it is not a general spider.
//
// # Usage
//
//	fetcher := crawler.NewFetcher(httpClient, crawler.WithCredentials(user, pass))
//	outcome, err := fetcher.Fetch(ctx, "https://site.example/page")
//	content, err := crawler.NewExtractor().Extract("https://site.example/page", strings.NewReader(outcome.Body))
package crawler
