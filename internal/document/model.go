package document

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "embed"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

const modelSchemaVersion = "v1"

//go:embed document.schema.json
var modelSchemaJSON string

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

// Model is the serialized form of a Document. Blocks carry a kind
// discriminator so prose and code survive a JSON round trip.
type Model struct {
	SchemaVersion string         `json:"schema_version"`
	Preamble      []ModelBlock   `json:"preamble,omitempty"`
	Sections      []ModelSection `json:"sections"`
	Meta          ModelMeta      `json:"meta"`
}

type ModelSection struct {
	Title  string       `json:"title"`
	Level  int          `json:"level"`
	Order  int          `json:"order"`
	Hash   string       `json:"hash"`
	Blocks []ModelBlock `json:"blocks"`
}

type ModelBlock struct {
	Kind string `json:"kind"`
	Lang string `json:"lang,omitempty"`
	Text string `json:"text"`
}

type ModelMeta struct {
	GeneratedAt      string `json:"generated_at"`
	GeneratorVersion string `json:"generator_version,omitempty"`
}

// ToModel converts a Document into its serialized form.
func ToModel(doc *Document) *Model {
	m := &Model{
		SchemaVersion: modelSchemaVersion,
		Preamble:      blocksToModel(doc.Preamble),
		Sections:      make([]ModelSection, 0, len(doc.Sections)),
		Meta: ModelMeta{
			GeneratedAt:      time.Now().UTC().Format(time.RFC3339),
			GeneratorVersion: "mdtoc-dev",
		},
	}
	for i, s := range doc.Sections {
		m.Sections = append(m.Sections, ModelSection{
			Title:  s.Title,
			Level:  s.Level,
			Order:  i,
			Hash:   SectionHash(s),
			Blocks: blocksToModel(s.Blocks),
		})
	}
	return m
}

// Document rebuilds the in-memory Document from its serialized form.
func (m *Model) Document() (*Document, error) {
	doc := &Document{}
	var err error
	if doc.Preamble, err = blocksFromModel(m.Preamble); err != nil {
		return nil, err
	}
	for _, s := range m.Sections {
		blocks, err := blocksFromModel(s.Blocks)
		if err != nil {
			return nil, err
		}
		doc.Sections = append(doc.Sections, Section{
			Title:  s.Title,
			Level:  s.Level,
			Blocks: blocks,
		})
	}
	return doc, nil
}

func blocksToModel(blocks []Block) []ModelBlock {
	out := make([]ModelBlock, 0, len(blocks))
	for _, b := range blocks {
		switch v := b.(type) {
		case ProseBlock:
			out = append(out, ModelBlock{Kind: "prose", Text: v.Text})
		case CodeBlock:
			out = append(out, ModelBlock{Kind: "code", Lang: v.Lang, Text: v.Content})
		}
	}
	return out
}

func blocksFromModel(blocks []ModelBlock) ([]Block, error) {
	var out []Block
	for _, b := range blocks {
		switch b.Kind {
		case "prose":
			out = append(out, ProseBlock{Text: b.Text})
		case "code":
			out = append(out, CodeBlock{Lang: b.Lang, Content: b.Text})
		default:
			return nil, fmt.Errorf("unknown block kind: %q", b.Kind)
		}
	}
	return out, nil
}

// SaveModel validates the model against the embedded schema and writes
// it as indented JSON.
func SaveModel(path string, doc *Document) error {
	m := ToModel(doc)
	if err := validateModel(m); err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	return os.WriteFile(path, b, 0644)
}

// LoadModel reads a serialized model and rebuilds the Document.
func LoadModel(path string) (*Document, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Model
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	if err := validateModel(&m); err != nil {
		return nil, err
	}
	return m.Document()
}

func validateModel(m *Model) error {
	schema, err := loadCompiledSchema()
	if err != nil {
		return fmt.Errorf("failed to compile document schema: %w", err)
	}

	var v any
	raw, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal model for schema validation: %w", err)
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("failed to normalize model for schema validation: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("document model schema validation failed: %w", err)
	}
	return nil
}

func loadCompiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("mdtoc://document.schema.json", strings.NewReader(modelSchemaJSON)); err != nil {
			schemaErr = err
			return
		}
		compiledSchema, schemaErr = compiler.Compile("mdtoc://document.schema.json")
	})
	return compiledSchema, schemaErr
}
