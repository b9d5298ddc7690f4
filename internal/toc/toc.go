// Package toc derives a table of contents from a parsed document.
package toc

import (
	"strings"
	"unicode"

	"mdtoc/internal/document"
)

// Entry points at one section: its title, nesting level and the
// URL-safe anchor derived from the title.
type Entry struct {
	Title  string
	Level  int
	Anchor string
}

// Collision is an advisory diagnostic: two sections produced the same
// anchor. Lookups resolve to the first occurrence; the duplicate is
// surfaced here instead of being disambiguated.
type Collision struct {
	Anchor     string
	FirstIndex int
	DupIndex   int
	DupTitle   string
}

// Table is the derived index over a document's sections. It is
// regenerated from the document on every Build call, never mutated.
type Table struct {
	Entries    []Entry
	Collisions []Collision

	byAnchor map[string]int
}

// Build scans sections in order and produces one entry per section.
// It never fails; an empty document yields an empty table.
func Build(doc *document.Document) Table {
	t := Table{
		Entries:  make([]Entry, 0, len(doc.Sections)),
		byAnchor: make(map[string]int, len(doc.Sections)),
	}
	for i, s := range doc.Sections {
		anchor := Anchor(s.Title)
		t.Entries = append(t.Entries, Entry{Title: s.Title, Level: s.Level, Anchor: anchor})
		if first, seen := t.byAnchor[anchor]; seen {
			t.Collisions = append(t.Collisions, Collision{
				Anchor:     anchor,
				FirstIndex: first,
				DupIndex:   i,
				DupTitle:   s.Title,
			})
			continue
		}
		t.byAnchor[anchor] = i
	}
	return t
}

// Lookup resolves an anchor to the index of its section in the
// document. First occurrence wins for duplicate anchors.
func (t Table) Lookup(anchor string) (int, bool) {
	i, ok := t.byAnchor[anchor]
	return i, ok
}

// Anchor derives a URL-safe identifier from a section title:
// lower-cased, whitespace runs collapsed to a single hyphen, every
// rune outside letters/digits/hyphen stripped.
func Anchor(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	var b strings.Builder
	pendingHyphen := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			pendingHyphen = true
			continue
		}
		if pendingHyphen {
			b.WriteByte('-')
			pendingHyphen = false
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
