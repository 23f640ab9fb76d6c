package crawler

import (
	"strings"
	"testing"
)

func TestExtractorLinks(t *testing.T) {
	t.Parallel()

	t.Run("uses main region only", func(t *testing.T) {
		t.Parallel()

		page := `<html><body>
			<nav><a href="/nav">Nav</a></nav>
			<main>
				<a href="/one">  First
					link </a>
				<a href="mailto:x@site.example">Mail</a>
				<a href="">Empty</a>
				<a>No href</a>
				<a href="https://Other.Example/two#frag"><span>Second</span> <b>link</b></a>
				<a href="/one">Again</a>
			</main>
			<footer><a href="/footer">Footer</a></footer>
		</body></html>`

		content, err := NewExtractor().Extract("https://site.example/page", strings.NewReader(page))
		if err != nil {
			t.Fatalf("Extract failed: %v", err)
		}

		if len(content.Links) != 3 {
			t.Fatalf("expected 3 links, got %d: %+v", len(content.Links), content.Links)
		}
		if content.Links[0].AnchorText != "First link" {
			t.Errorf("anchor text = %q", content.Links[0].AnchorText)
		}
		if content.Links[1].Absolute != "https://Other.Example/two" || !content.Links[1].WasAbsolute {
			t.Errorf("unexpected second link: %+v", content.Links[1])
		}
		if content.Links[1].AnchorText != "Second link" {
			t.Errorf("anchor text = %q", content.Links[1].AnchorText)
		}
		if content.Links[2].Raw != "/one" {
			t.Errorf("duplicate href should be kept, got %+v", content.Links[2])
		}
		if strings.Contains(content.Text, "Footer") || strings.Contains(content.Text, "Nav") {
			t.Errorf("text leaked outside main: %q", content.Text)
		}
	})

	t.Run("falls back to whole document", func(t *testing.T) {
		t.Parallel()

		page := `<html><body><div><a href="/a">A</a></div><footer><a href="/b">B</a></footer></body></html>`
		content, err := NewExtractor().Extract("https://site.example/", strings.NewReader(page))
		if err != nil {
			t.Fatalf("Extract failed: %v", err)
		}
		if len(content.Links) != 2 {
			t.Errorf("expected 2 links, got %d", len(content.Links))
		}
	})

	t.Run("custom selector", func(t *testing.T) {
		t.Parallel()

		page := `<html><body><a href="/out">Out</a><div id="content"><a href="/in">In</a></div></body></html>`
		content, err := NewExtractor(WithContentSelector("#content")).Extract("https://site.example/", strings.NewReader(page))
		if err != nil {
			t.Fatalf("Extract failed: %v", err)
		}
		if len(content.Links) != 1 || content.Links[0].Raw != "/in" {
			t.Errorf("unexpected links: %+v", content.Links)
		}
	})

	t.Run("invalid page URL", func(t *testing.T) {
		t.Parallel()

		if _, err := NewExtractor().Extract("http://[::1", strings.NewReader("<p>x</p>")); err == nil {
			t.Error("expected error")
		}
	})
}

func TestExtractorText(t *testing.T) {
	t.Parallel()

	page := `<html><head><style>.x{}</style></head><body><main>
		<h1>Title</h1>
		<script>var lorem = "ipsum";</script>
		<noscript>Enable JS</noscript>
		<template><p>hidden</p></template>
		<!-- placeholder comment -->
		<p>First   paragraph</p><p>Second</p>
		<p>ｐｌａｃｅｈｏｌｄｅｒ</p>
	</main></body></html>`

	content, err := NewExtractor().Extract("https://site.example/", strings.NewReader(page))
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	want := "Title First paragraph Second placeholder"
	if content.Text != want {
		t.Errorf("Text = %q, expected %q", content.Text, want)
	}
}

func TestCollapseWhitespace(t *testing.T) {
	t.Parallel()

	if got := CollapseWhitespace("  a \n\t b  c "); got != "a b c" {
		t.Errorf("got %q", got)
	}
	if got := CollapseWhitespace(" \n "); got != "" {
		t.Errorf("got %q", got)
	}
}
