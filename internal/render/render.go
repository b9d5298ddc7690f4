// Package render serializes a document back to structured text using
// the same convention the parser reads.
package render

import (
	"fmt"
	"strings"

	"mdtoc/internal/document"
	"mdtoc/internal/toc"
)

// Options controls rendering. MaxTOCLevel limits which sections appear
// in the contents block; zero means no limit.
type Options struct {
	IncludeTOC  bool
	MaxTOCLevel int
}

// DefaultOptions renders with a prepended table of contents.
func DefaultOptions() Options {
	return Options{IncludeTOC: true}
}

// Render serializes a document. Re-parsing the output without the
// contents block yields a structurally equal document; the generated
// contents block is additive front matter.
func Render(doc *document.Document, opts Options) string {
	var chunks []string

	if opts.IncludeTOC {
		if block := ContentsBlock(toc.Build(doc), opts.MaxTOCLevel); block != "" {
			chunks = append(chunks, block)
		}
	}

	for _, b := range doc.Preamble {
		chunks = append(chunks, renderBlock(b))
	}
	for _, s := range doc.Sections {
		chunks = append(chunks, strings.Repeat("#", s.Level)+" "+s.Title)
		for _, b := range s.Blocks {
			chunks = append(chunks, renderBlock(b))
		}
	}

	if len(chunks) == 0 {
		return ""
	}
	return strings.Join(chunks, "\n\n") + "\n"
}

// ContentsBlock renders the table of contents as one bullet per
// section, indented by nesting level, linking to each anchor.
func ContentsBlock(t toc.Table, maxLevel int) string {
	var lines []string
	for _, e := range t.Entries {
		if maxLevel > 0 && e.Level > maxLevel {
			continue
		}
		indent := strings.Repeat("  ", e.Level-1)
		lines = append(lines, fmt.Sprintf("%s- [%s](#%s)", indent, e.Title, e.Anchor))
	}
	return strings.Join(lines, "\n")
}

func renderBlock(b document.Block) string {
	switch v := b.(type) {
	case document.ProseBlock:
		return v.Text
	case document.CodeBlock:
		if v.Content == "" {
			return "```" + v.Lang + "\n```"
		}
		return "```" + v.Lang + "\n" + v.Content + "\n```"
	default:
		return ""
	}
}
