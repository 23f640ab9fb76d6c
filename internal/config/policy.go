package config

// DefaultDevProdHosts are deployment hosts that must never be linked absolutely.
var DefaultDevProdHosts = []string{
	"lla-drupal-app-prod.salmonground-819df123.australiaeast.azurecontainerapps.io",
	"lla-drupal-app-uat.victoriouspond-08331c17.australiaeast.azurecontainerapps.io",
	"example.com",
}

// DefaultBlockedHosts are organisation hosts that content must link relatively.
var DefaultBlockedHosts = []string{
	"lifeline.org.au",
	"www.lifeline.org.au",
	"toolkit.lifeline.org.au",
}

// File is the structure of the .siteaudit policy file.
type File struct {
	// DevProdHosts replaces DefaultDevProdHosts when non-empty.
	DevProdHosts []string `yaml:"devProdHosts,omitempty"`

	// BlockedHosts replaces DefaultBlockedHosts when non-empty.
	BlockedHosts []string `yaml:"blockedHosts,omitempty"`

	// PlaceholderPatterns replaces the built-in placeholder patterns when non-empty.
	// Patterns are Go regular expressions matched case-insensitively.
	PlaceholderPatterns []string `yaml:"placeholderPatterns,omitempty"`

	// ContentSelector overrides the content region selector.
	ContentSelector string `yaml:"contentSelector,omitempty"`

	// Cookie is sent with every request.
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are added to every request.
	Headers map[string]string `yaml:"headers,omitempty"`
}

// DevProdHostList returns the configured dev/prod hosts or the defaults.
func (f *File) DevProdHostList() []string {
	if f == nil || len(f.DevProdHosts) == 0 {
		return DefaultDevProdHosts
	}
	return f.DevProdHosts
}

// BlockedHostList returns the configured blocked hosts or the defaults.
func (f *File) BlockedHostList() []string {
	if f == nil || len(f.BlockedHosts) == 0 {
		return DefaultBlockedHosts
	}
	return f.BlockedHosts
}

// Patterns returns the configured placeholder patterns; nil means use the defaults.
func (f *File) Patterns() []string {
	if f == nil {
		return nil
	}
	return f.PlaceholderPatterns
}

// RequestHeaders returns the extra headers, possibly nil.
func (f *File) RequestHeaders() map[string]string {
	if f == nil {
		return nil
	}
	return f.Headers
}

// RequestCookie returns the configured cookie, possibly empty.
func (f *File) RequestCookie() string {
	if f == nil {
		return ""
	}
	return f.Cookie
}

// ApplyFile merges a policy file into the config. Flags applied afterwards
// still win.
func (c *Config) ApplyFile(f *File) {
	c.Policy = f
	if f != nil && f.ContentSelector != "" {
		c.ContentSelector = f.ContentSelector
	}
}
