package storage

import (
	"context"
	"path/filepath"
	"testing"

	"mdtoc/internal/document"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDoc() *document.Document {
	return &document.Document{
		Preamble: []document.Block{document.ProseBlock{Text: "Intro."}},
		Sections: []document.Section{
			{
				Title: "Setup",
				Level: 1,
				Blocks: []document.Block{
					document.ProseBlock{Text: "First setup."},
					document.CodeBlock{Lang: "sh", Content: "make"},
				},
			},
			{Title: "Usage", Level: 2, Blocks: []document.Block{document.ProseBlock{Text: "Run it."}}},
			{Title: "Setup", Level: 2, Blocks: []document.Block{document.ProseBlock{Text: "Second setup."}}},
		},
	}
}

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore_SaveLoadDocument(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	doc := testDoc()

	require.NoError(t, store.SaveDocument(ctx, "docs/guide.md", doc))

	loaded, err := store.LoadDocument(ctx, "docs/guide.md")
	require.NoError(t, err)
	assert.True(t, document.Equal(doc, loaded))
}

func TestSQLiteStore_SaveDocument_SnapshotSync(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveDocument(ctx, "a.md", testDoc()))

	// New snapshot drops two sections; stale rows must not survive.
	smaller := &document.Document{
		Sections: []document.Section{
			{Title: "Only", Level: 1, Blocks: []document.Block{document.ProseBlock{Text: "left"}}},
		},
	}
	require.NoError(t, store.SaveDocument(ctx, "a.md", smaller))

	loaded, err := store.LoadDocument(ctx, "a.md")
	require.NoError(t, err)
	assert.True(t, document.Equal(smaller, loaded))

	infos, err := store.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, 1, infos[0].SectionCount)
	assert.Equal(t, "Only", infos[0].Title)
}

func TestSQLiteStore_LoadDocument_NotIndexed(t *testing.T) {
	store := newTestStore(t)

	_, err := store.LoadDocument(context.Background(), "missing.md")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not indexed")
}

func TestSQLiteStore_FindSectionByAnchor_FirstWins(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveDocument(ctx, "guide.md", testDoc()))

	// Two sections produce anchor "setup"; the first occurrence wins.
	ref, err := store.FindSectionByAnchor(ctx, "setup")
	require.NoError(t, err)
	assert.Equal(t, "guide.md", ref.DocPath)
	assert.Equal(t, 0, ref.Order)
	assert.Equal(t, 1, ref.Level)

	_, err = store.FindSectionByAnchor(ctx, "nope")
	require.Error(t, err)
}

func TestSQLiteStore_ListDocuments_Ordered(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveDocument(ctx, "b.md", testDoc()))
	require.NoError(t, store.SaveDocument(ctx, "a.md", testDoc()))

	infos, err := store.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "a.md", infos[0].Path)
	assert.Equal(t, "b.md", infos[1].Path)
}
