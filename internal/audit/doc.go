// Package audit holds the issue classifiers run against every page.
//
// Each check is a Classifier registered with an Auditor. Classifiers are
// pure apart from BrokenLinkClassifier, which asks a StatusResolver for the
// status of same-host links. Classifiers run in registration order, and the
// issues of one page keep that order.
//
// # Stages
//
// Classifiers declare the stage they run in:
//
//   - StageDescriptor: needs only the manifest data (missing description).
//     Runs before the page is fetched, so it reports even for pages that
//     later turn out to be missing.
//   - StageContent: needs the extracted links and text. Runs only for pages
//     that were fetched successfully.
//
// # Built-in classifiers, in order
//
//  1. Missing SEO description
//  2. Absolute link to dev/prod domain
//  3. Absolute link to blocked host
//  4. Broken link
//  5. Placeholder text
package audit
