package document

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Document is the parsed representation of a structured text file.
// Section order is significant and preserved exactly as authored.
// Content that appears before the first heading is kept in Preamble
// so that sections can hold the Level >= 1 invariant.
type Document struct {
	Preamble []Block
	Sections []Section
}

// Section is a titled, leveled subdivision of a Document. Sections are
// created at parse time and not mutated afterwards.
type Section struct {
	Title  string
	Level  int
	Blocks []Block
}

// Block is a unit of content within a section: prose or fenced code.
type Block interface {
	Kind() string
}

// ProseBlock holds one paragraph of free text. Lines inside the
// paragraph are joined with newlines.
type ProseBlock struct {
	Text string
}

func (ProseBlock) Kind() string { return "prose" }

// CodeBlock holds a fenced code sample. Content is opaque text; it is
// never executed or parsed as the tagged language.
type CodeBlock struct {
	Lang    string
	Content string
}

func (CodeBlock) Kind() string { return "code" }

// Equal reports whether two documents have the same structure: same
// sections in the same order with the same blocks.
func Equal(a, b *Document) bool {
	if a == nil || b == nil {
		return a == b
	}
	if !blocksEqual(a.Preamble, b.Preamble) {
		return false
	}
	if len(a.Sections) != len(b.Sections) {
		return false
	}
	for i := range a.Sections {
		if !sectionsEqual(a.Sections[i], b.Sections[i]) {
			return false
		}
	}
	return true
}

func sectionsEqual(a, b Section) bool {
	return a.Title == b.Title && a.Level == b.Level && blocksEqual(a.Blocks, b.Blocks)
}

func blocksEqual(a, b []Block) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// SectionHash returns a stable content hash for change detection in
// the document index.
func SectionHash(s Section) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(s.Title))
	b.WriteString("\n")
	for _, blk := range s.Blocks {
		b.WriteString(blk.Kind())
		b.WriteString("|")
		switch v := blk.(type) {
		case ProseBlock:
			b.WriteString(v.Text)
		case CodeBlock:
			b.WriteString(v.Lang)
			b.WriteString("|")
			b.WriteString(v.Content)
		}
		b.WriteString("\n")
	}
	sum := sha256.Sum256([]byte(b.String()))
	return "sha256:" + hex.EncodeToString(sum[:])
}
