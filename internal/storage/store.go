package storage

import (
	"context"

	"mdtoc/internal/document"
)

// DocumentInfo is one row of the index listing.
type DocumentInfo struct {
	ID           string
	Path         string
	Title        string
	ContentHash  string
	SectionCount int
	IndexedAt    string
}

// SectionRef locates a section inside an indexed document.
type SectionRef struct {
	DocPath string
	Order   int
	Title   string
	Level   int
	Anchor  string
}

// DocumentStore persists parsed documents so anchors can be resolved
// without re-parsing the source files.
type DocumentStore interface {
	SaveDocument(ctx context.Context, path string, doc *document.Document) error
	LoadDocument(ctx context.Context, path string) (*document.Document, error)
	ListDocuments(ctx context.Context) ([]DocumentInfo, error)
	FindSectionByAnchor(ctx context.Context, anchor string) (*SectionRef, error)
	Close() error
}
