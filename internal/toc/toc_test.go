package toc

import (
	"testing"

	"mdtoc/internal/document"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_OneEntryPerSectionInOrder(t *testing.T) {
	doc := &document.Document{
		Sections: []document.Section{
			{Title: "Overview", Level: 1},
			{Title: "Getting Started", Level: 2},
			{Title: "Reference", Level: 1},
		},
	}

	table := Build(doc)

	require.Len(t, table.Entries, len(doc.Sections))
	assert.Equal(t, Entry{Title: "Overview", Level: 1, Anchor: "overview"}, table.Entries[0])
	assert.Equal(t, Entry{Title: "Getting Started", Level: 2, Anchor: "getting-started"}, table.Entries[1])
	assert.Equal(t, Entry{Title: "Reference", Level: 1, Anchor: "reference"}, table.Entries[2])
	assert.Empty(t, table.Collisions)
}

func TestBuild_DuplicateAnchorsFirstWins(t *testing.T) {
	doc := &document.Document{
		Sections: []document.Section{
			{Title: "Setup", Level: 1},
			{Title: "Usage", Level: 1},
			{Title: "Setup", Level: 2},
		},
	}

	table := Build(doc)

	require.Len(t, table.Entries, 3)
	assert.Equal(t, "setup", table.Entries[0].Anchor)
	assert.Equal(t, "setup", table.Entries[2].Anchor)

	require.Len(t, table.Collisions, 1)
	col := table.Collisions[0]
	assert.Equal(t, "setup", col.Anchor)
	assert.Equal(t, 0, col.FirstIndex)
	assert.Equal(t, 2, col.DupIndex)

	idx, ok := table.Lookup("setup")
	require.True(t, ok)
	assert.Equal(t, 0, idx)
}

func TestBuild_EmptyDocument(t *testing.T) {
	table := Build(&document.Document{})
	assert.Empty(t, table.Entries)
	assert.Empty(t, table.Collisions)

	_, ok := table.Lookup("anything")
	assert.False(t, ok)
}

func TestAnchor_Policy(t *testing.T) {
	cases := []struct {
		title string
		want  string
	}{
		{"Title", "title"},
		{"Setup", "setup"},
		{"Getting Started", "getting-started"},
		{"Hello, World!", "hello-world"},
		{"Go  1.22   Notes", "go-122-notes"},
		{"  Trimmed  ", "trimmed"},
		{"already-hyphenated", "already-hyphenated"},
		{"", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Anchor(tc.title), "title %q", tc.title)
	}
}

func TestAnchor_Deterministic(t *testing.T) {
	assert.Equal(t, Anchor("Some Long Title"), Anchor("Some Long Title"))
}
