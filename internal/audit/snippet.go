package audit

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/nao1215/siteaudit/internal/model"
)

// LinkSnippet describes a link as `"<text>" -> <target>` with an optional
// ` (<extra>)` suffix. The target is the href as written when present.
// The result is not trimmed; PageData.issue applies the page's cap.
func LinkSnippet(link model.ResolvedLink, extra string) string {
	text := link.AnchorText
	if text == "" {
		text = "<no text>"
	}
	target := link.Raw
	if target == "" {
		target = link.Absolute
	}
	snippet := `"` + text + `" -> ` + target
	if extra != "" {
		snippet = fmt.Sprintf("%s (%s)", snippet, extra)
	}
	return snippet
}

// textWindow returns text[start:end] widened by up to width runes on each
// side, trimmed of surrounding whitespace. start and end are byte offsets.
func textWindow(text string, start, end, width int) string {
	from := start
	for i := 0; i < width && from > 0; i++ {
		_, size := utf8.DecodeLastRuneInString(text[:from])
		from -= size
	}
	to := end
	for i := 0; i < width && to < len(text); i++ {
		_, size := utf8.DecodeRuneInString(text[to:])
		to += size
	}
	return strings.TrimSpace(text[from:to])
}
