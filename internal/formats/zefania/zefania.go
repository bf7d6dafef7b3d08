// Package zefania parses Zefania XML Bible modules. Zefania is a simple
// XML interchange format: XMLBIBLE > BIBLEBOOK > CHAPTER > VERS, with
// books and chapters numbered by attribute.
package zefania

import (
	"io"
	"strings"

	"github.com/antchfx/xmlquery"

	apperrors "github.com/havenapps/selah/core/errors"
	"github.com/havenapps/selah/core/scripture"
)

// Verse is one verse of a parsed module.
type Verse struct {
	Book    string
	Chapter int
	Number  int
	Text    string
}

// Reference returns the verse's reference in canonical form.
func (v Verse) Reference() string {
	return scripture.Reference{Book: v.Book, Chapter: v.Chapter, VerseStart: v.Number}.String()
}

// Module is a parsed Zefania module.
type Module struct {
	Name   string
	Verses []Verse
}

// Parse reads a Zefania XML document. Books without a bname attribute
// and verses without text are skipped.
func Parse(r io.Reader) (*Module, error) {
	doc, err := xmlquery.Parse(r)
	if err != nil {
		return nil, apperrors.NewParse("zefania", err.Error())
	}

	root := xmlquery.FindOne(doc, "//XMLBIBLE")
	if root == nil {
		return nil, apperrors.NewParse("zefania", "no XMLBIBLE element")
	}

	module := &Module{Name: root.SelectAttr("biblename")}

	for _, book := range xmlquery.Find(root, "BIBLEBOOK") {
		name := book.SelectAttr("bname")
		if name == "" {
			continue
		}
		for _, chapter := range xmlquery.Find(book, "CHAPTER") {
			cnum := atoi(chapter.SelectAttr("cnumber"))
			if cnum <= 0 {
				continue
			}
			for _, vers := range xmlquery.Find(chapter, "VERS") {
				vnum := atoi(vers.SelectAttr("vnumber"))
				text := strings.TrimSpace(vers.InnerText())
				if vnum <= 0 || text == "" {
					continue
				}
				module.Verses = append(module.Verses, Verse{
					Book:    name,
					Chapter: cnum,
					Number:  vnum,
					Text:    collapseWhitespace(text),
				})
			}
		}
	}

	if len(module.Verses) == 0 {
		return nil, apperrors.NewParse("zefania", "no verses found")
	}
	return module, nil
}

func atoi(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	return n
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
