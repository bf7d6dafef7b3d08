package resolve

import (
	"regexp"
	"strings"
)

// Provider passage content arrives as HTML fragments with inline verse
// numbers and a fixed set of entities. CleanContent reduces that to plain
// text.

var (
	// verseNumberMarkup matches the provider's inline verse-number spans,
	// e.g. <span data-number="16" class="v">16</span>.
	verseNumberMarkup = regexp.MustCompile(`<span[^>]*class="v"[^>]*>[^<]*</span>`)
	// anyTag matches any remaining markup tag.
	anyTag = regexp.MustCompile(`<[^>]+>`)
	// multiSpace collapses runs of whitespace left behind by tag removal.
	multiSpace = regexp.MustCompile(`\s+`)
)

// entityReplacer decodes the fixed entity set the provider emits. Anything
// outside this set is left as-is.
var entityReplacer = strings.NewReplacer(
	"&nbsp;", " ",
	"&quot;", `"`,
	"&#8220;", "“",
	"&#8221;", "”",
	"&#8216;", "‘",
	"&#8217;", "’",
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&#8211;", "–",
	"&#8212;", "—",
	"&ndash;", "–",
	"&mdash;", "—",
)

// CleanContent strips verse-number markup and tags from provider content
// and decodes the known entity set, returning trimmed plain text.
func CleanContent(content string) string {
	text := verseNumberMarkup.ReplaceAllString(content, " ")
	text = anyTag.ReplaceAllString(text, " ")
	text = entityReplacer.Replace(text)
	text = multiSpace.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
