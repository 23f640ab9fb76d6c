package crawler

import (
	"net/url"
	"strings"
	"testing"
)

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("failed to parse %q: %v", raw, err)
	}
	return u
}

func TestResolveHrefRejects(t *testing.T) {
	t.Parallel()

	base := mustParse(t, "https://site.example/about/team")
	hrefs := []string{
		"",
		"   ",
		"mailto:info@site.example",
		"MAILTO:info@site.example",
		"tel:+61000000",
		"javascript:void(0)",
		"  JavaScript:alert(1)",
		"data:text/plain;base64,SGVsbG8=",
		"#",
		"#contact",
		"http://[::1",
		"http://",
		"https:",
		"file:///etc/passwd",
		"urn:isbn:0451450523",
	}

	for _, href := range hrefs {
		t.Run(href, func(t *testing.T) {
			t.Parallel()
			if link, ok := ResolveHref(base, href); ok {
				t.Errorf("expected rejection, got %+v", link)
			}
		})
	}
}

func TestResolveHref(t *testing.T) {
	t.Parallel()

	base := mustParse(t, "https://Site.Example/about/team")

	testCases := []struct {
		name        string
		href        string
		absolute    string
		host        string
		wasAbsolute bool
	}{
		{"relative path", "contact", "https://Site.Example/about/contact", "site.example", false},
		{"root relative", "/news", "https://Site.Example/news", "site.example", false},
		{"fragment stripped", "/news#latest", "https://Site.Example/news", "site.example", false},
		{"absolute", "http://Other.Example/x?y=1", "http://Other.Example/x?y=1", "other.example", true},
		{"absolute with fragment", "https://other.example/x#top", "https://other.example/x", "other.example", true},
		{"protocol relative", "//cdn.example/lib.js", "https://cdn.example/lib.js", "cdn.example", true},
		{"host with port", "http://localhost:8080/a", "http://localhost:8080/a", "localhost:8080", true},
		{"surrounding whitespace", "  /trim  ", "https://Site.Example/trim", "site.example", false},
		{"query only", "?page=2", "https://Site.Example/about/team?page=2", "site.example", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			link, ok := ResolveHref(base, tc.href)
			if !ok {
				t.Fatalf("ResolveHref(%q) rejected", tc.href)
			}
			if link.Absolute != tc.absolute {
				t.Errorf("Absolute = %q, expected %q", link.Absolute, tc.absolute)
			}
			if link.Host != tc.host {
				t.Errorf("Host = %q, expected %q", link.Host, tc.host)
			}
			if link.WasAbsolute != tc.wasAbsolute {
				t.Errorf("WasAbsolute = %v, expected %v", link.WasAbsolute, tc.wasAbsolute)
			}
			if link.Raw != strings.TrimSpace(tc.href) {
				t.Errorf("Raw = %q", link.Raw)
			}
			if strings.Contains(link.Absolute, "#") {
				t.Errorf("Absolute still has a fragment: %q", link.Absolute)
			}
		})
	}
}

func TestResolveHrefIsIdempotent(t *testing.T) {
	t.Parallel()

	base := mustParse(t, "https://site.example/a/b")
	for _, href := range []string{"../c#x", "//host/path", "https://x.example", "d?e=f"} {
		first, ok1 := ResolveHref(base, href)
		second, ok2 := ResolveHref(base, href)
		if ok1 != ok2 || first != second {
			t.Errorf("ResolveHref(%q) not idempotent: %+v vs %+v", href, first, second)
		}
	}
}

func TestResolveHrefNilBase(t *testing.T) {
	t.Parallel()

	if _, ok := ResolveHref(nil, "/x"); ok {
		t.Error("expected rejection with nil base")
	}
}

func TestHostOf(t *testing.T) {
	t.Parallel()

	if got := HostOf("https://WWW.Site.Example:8443/x"); got != "www.site.example:8443" {
		t.Errorf("HostOf = %q", got)
	}
	if got := HostOf("http://[::1"); got != "" {
		t.Errorf("HostOf of invalid URL = %q", got)
	}
}
