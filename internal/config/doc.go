// Package config holds the settings of an audit run.
//
// Settings come from three places, later ones winning:
//   - built-in defaults (NewConfig)
//   - the YAML policy file .siteaudit (host sets, placeholder patterns,
//     content selector, extra request headers)
//   - the environment and .env file (credentials and BASE_URL), then
//     command-line flags
//
// Validate is called once after everything is merged and returns one of
// the sentinel errors in errors.go.
package config
