package scripture

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Passage is the resolved text for a reference/translation pair.
// Immutable once produced.
type Passage struct {
	Reference   string `json:"reference"`
	Translation string `json:"translation"`
	Text        string `json:"text"`
	Copyright   string `json:"copyright,omitempty"`
}

// Reference is a decomposed passage reference. VerseEnd is zero for a
// single-verse reference and both verse fields are zero for a whole chapter.
type Reference struct {
	Book       string
	Chapter    int
	VerseStart int
	VerseEnd   int
}

// String formats the reference in the canonical "Book C:V-V" form.
func (r Reference) String() string {
	switch {
	case r.VerseStart == 0:
		return fmt.Sprintf("%s %d", r.Book, r.Chapter)
	case r.VerseEnd == 0 || r.VerseEnd == r.VerseStart:
		return fmt.Sprintf("%s %d:%d", r.Book, r.Chapter, r.VerseStart)
	default:
		return fmt.Sprintf("%s %d:%d-%d", r.Book, r.Chapter, r.VerseStart, r.VerseEnd)
	}
}

// Normalize canonicalizes a raw reference string for use as a cache or
// corpus key. Only surrounding whitespace is trimmed; case and internal
// spacing variants remain distinct keys.
func Normalize(ref string) string {
	return strings.TrimSpace(ref)
}

// looseRefPattern is the permissive shape check applied to model-recommended
// reference candidates: letters, a space, digits, a colon, digits, with an
// optional leading book number and trailing verse range.
var looseRefPattern = regexp.MustCompile(`^[1-3]? ?[A-Za-z][A-Za-z ]* \d{1,3}:\d{1,3}(-\d{1,3})?$`)

// LooksLikeReference reports whether a candidate string has the rough shape
// of a verse reference. It deliberately does not consult the canon; the
// resolver's fallback chain absorbs candidates that name unknown books.
func LooksLikeReference(candidate string) bool {
	return looseRefPattern.MatchString(Normalize(candidate))
}

type refVerses struct {
	Start int  `parser:"Colon @Int"`
	End   *int `parser:"( Dash @Int )?"`
}

type refAST struct {
	BookNum  *int       `parser:"@Int?"`
	BookName []string   `parser:"@Ident+"`
	Chapter  int        `parser:"@Int"`
	Verses   *refVerses `parser:"@@?"`
}

var (
	refLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Int", Pattern: `\d+`},
		{Name: "Ident", Pattern: `[A-Za-z]+`},
		{Name: "Colon", Pattern: `:`},
		{Name: "Dash", Pattern: `[-\x{2013}]`},
		{Name: "Whitespace", Pattern: `\s+`},
	})

	refParser = participle.MustBuild[refAST](
		participle.Lexer(refLexer),
		participle.Elide("Whitespace"),
	)
)

// Parse decomposes a reference string such as "1 John 3:16-18" into its
// book, chapter and verse parts.
func Parse(ref string) (Reference, error) {
	ast, err := refParser.ParseString("", Normalize(ref))
	if err != nil {
		return Reference{}, fmt.Errorf("parse reference %q: %w", ref, err)
	}

	book := strings.Join(ast.BookName, " ")
	if ast.BookNum != nil {
		book = fmt.Sprintf("%d %s", *ast.BookNum, book)
	}

	parsed := Reference{Book: book, Chapter: ast.Chapter}
	if ast.Verses != nil {
		parsed.VerseStart = ast.Verses.Start
		if ast.Verses.End != nil {
			parsed.VerseEnd = *ast.Verses.End
		}
	}
	return parsed, nil
}
