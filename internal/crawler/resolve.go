package crawler

import (
	"net/url"
	"strings"

	"github.com/nao1215/siteaudit/internal/model"
)

// excludedHrefPrefixes are references that never point at a fetchable page.
var excludedHrefPrefixes = []string{"mailto:", "tel:", "javascript:", "data:", "#"}

// ResolveHref resolves href against base.
// It returns false when href is blank, uses a non-navigable scheme, is a bare
// fragment, cannot be parsed or resolves to a URL without a host. A protocol-relative href is resolved under
// https and counts as absolute. The returned Absolute has no fragment.
func ResolveHref(base *url.URL, href string) (model.ResolvedLink, bool) {
	raw := strings.TrimSpace(href)
	if raw == "" || base == nil {
		return model.ResolvedLink{}, false
	}

	lowered := strings.ToLower(raw)
	for _, prefix := range excludedHrefPrefixes {
		if strings.HasPrefix(lowered, prefix) {
			return model.ResolvedLink{}, false
		}
	}

	var (
		target      *url.URL
		wasAbsolute bool
	)
	if strings.HasPrefix(raw, "//") {
		u, err := url.Parse("https:" + raw)
		if err != nil {
			return model.ResolvedLink{}, false
		}
		target = u
		wasAbsolute = true
	} else {
		ref, err := url.Parse(raw)
		if err != nil {
			return model.ResolvedLink{}, false
		}
		wasAbsolute = ref.Host != ""
		target = base.ResolveReference(ref)
	}

	target.Fragment = ""
	target.RawFragment = ""

	// A resolved URL without a host, such as file:///x or a bare "http://",
	// is not a page link.
	host := strings.ToLower(target.Host)
	if host == "" {
		return model.ResolvedLink{}, false
	}

	return model.ResolvedLink{
		Raw:         raw,
		Absolute:    target.String(),
		Host:        host,
		WasAbsolute: wasAbsolute,
	}, true
}

// HostOf returns the lower-cased host (with port) of rawURL, or "" when it
// cannot be parsed.
func HostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Host)
}
