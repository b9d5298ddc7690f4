package render

import (
	"strings"
	"testing"

	"mdtoc/internal/document"
	"mdtoc/internal/parser"
	"mdtoc/internal/toc"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDocument() *document.Document {
	return &document.Document{
		Preamble: []document.Block{
			document.ProseBlock{Text: "A short guide."},
		},
		Sections: []document.Section{
			{
				Title: "Overview",
				Level: 1,
				Blocks: []document.Block{
					document.ProseBlock{Text: "What this is about."},
				},
			},
			{
				Title: "Examples",
				Level: 2,
				Blocks: []document.Block{
					document.ProseBlock{Text: "A snippet:"},
					document.CodeBlock{Lang: "python", Content: "x = 1\nprint(x)"},
				},
			},
		},
	}
}

func TestRender_RoundTrip(t *testing.T) {
	doc := sampleDocument()

	out := Render(doc, Options{IncludeTOC: false})
	reparsed, err := parser.Parse(out)
	require.NoError(t, err)

	assert.True(t, document.Equal(doc, reparsed), "round trip changed structure:\n%s", out)
}

func TestRender_RoundTripFromText(t *testing.T) {
	input := "Intro.\n\n\n# One\n\ntext here\n\n\n```go\nf()\n```\n\n## Two\n\nmore\n"

	doc, err := parser.Parse(input)
	require.NoError(t, err)

	out := Render(doc, Options{IncludeTOC: false})
	reparsed, err := parser.Parse(out)
	require.NoError(t, err)

	assert.True(t, document.Equal(doc, reparsed))
}

func TestRender_WithContentsBlock(t *testing.T) {
	out := Render(sampleDocument(), DefaultOptions())

	assert.True(t, strings.HasPrefix(out, "- [Overview](#overview)\n  - [Examples](#examples)\n"))
	assert.Contains(t, out, "# Overview")

	// The body after the contents block still parses to the same document.
	body := strings.SplitN(out, "\n\n", 2)[1]
	reparsed, err := parser.Parse(body)
	require.NoError(t, err)
	assert.True(t, document.Equal(sampleDocument(), reparsed))
}

func TestRender_EmptyDocument(t *testing.T) {
	assert.Equal(t, "", Render(&document.Document{}, DefaultOptions()))
}

func TestRender_EmptyCodeBlock(t *testing.T) {
	doc := &document.Document{
		Sections: []document.Section{
			{Title: "S", Level: 1, Blocks: []document.Block{
				document.CodeBlock{Lang: "sh", Content: ""},
			}},
		},
	}

	out := Render(doc, Options{IncludeTOC: false})
	assert.Equal(t, "# S\n\n```sh\n```\n", out)

	reparsed, err := parser.Parse(out)
	require.NoError(t, err)
	assert.True(t, document.Equal(doc, reparsed))
}

func TestContentsBlock_MaxLevelFilter(t *testing.T) {
	table := toc.Build(&document.Document{
		Sections: []document.Section{
			{Title: "Top", Level: 1},
			{Title: "Deep", Level: 3},
		},
	})

	block := ContentsBlock(table, 2)
	assert.Equal(t, "- [Top](#top)", block)

	all := ContentsBlock(table, 0)
	assert.Contains(t, all, "[Deep](#deep)")
}
