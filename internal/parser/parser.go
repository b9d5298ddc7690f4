// Package parser converts structured text into the document model.
// The input convention is a subset of markdown: `#` headings denote
// section nesting, blank lines separate prose paragraphs, and triple
// backtick fences delimit code samples.
package parser

import (
	"bufio"
	"fmt"
	"strings"

	"mdtoc/internal/document"
)

// ParseError reports a fenced code block that was opened but never
// closed before end of input. Line is the 1-based line number of the
// opening fence.
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at line %d: %s", e.Line, e.Msg)
}

const fenceMarker = "```"

// Parse converts raw text into a Document. It is a pure function:
// same input, same output, no side effects. Content before the first
// heading lands in the document preamble.
func Parse(text string) (*document.Document, error) {
	doc := &document.Document{}
	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var (
		current   *document.Section
		paragraph []string
		inFence   bool
		fenceLang string
		fenceBody []string
		fenceLine int
		lineNo    int
	)

	appendBlock := func(b document.Block) {
		if current == nil {
			doc.Preamble = append(doc.Preamble, b)
			return
		}
		current.Blocks = append(current.Blocks, b)
	}

	flushParagraph := func() {
		if len(paragraph) == 0 {
			return
		}
		appendBlock(document.ProseBlock{Text: strings.Join(paragraph, "\n")})
		paragraph = nil
	}

	flushSection := func() {
		flushParagraph()
		if current != nil {
			doc.Sections = append(doc.Sections, *current)
			current = nil
		}
	}

	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)

		if inFence {
			if trimmed == fenceMarker {
				appendBlock(document.CodeBlock{
					Lang:    fenceLang,
					Content: strings.Join(fenceBody, "\n"),
				})
				inFence = false
				fenceBody = nil
				continue
			}
			fenceBody = append(fenceBody, line)
			continue
		}

		if strings.HasPrefix(trimmed, fenceMarker) {
			flushParagraph()
			inFence = true
			fenceLang = strings.TrimSpace(trimmed[len(fenceMarker):])
			fenceLine = lineNo
			continue
		}

		if level, title, ok := headingLine(trimmed); ok {
			flushSection()
			current = &document.Section{Title: title, Level: level}
			continue
		}

		if trimmed == "" {
			flushParagraph()
			continue
		}
		paragraph = append(paragraph, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if inFence {
		return nil, &ParseError{Line: fenceLine, Msg: "unterminated code fence"}
	}

	flushSection()
	return doc, nil
}

// headingLine reports whether a trimmed line is a valid heading:
// one to six '#' runes followed by a space and a non-empty title.
func headingLine(trimmed string) (level int, title string, ok bool) {
	if !strings.HasPrefix(trimmed, "#") {
		return 0, "", false
	}
	for _, r := range trimmed {
		if r != '#' {
			break
		}
		level++
	}
	if level < 1 || level > 6 || len(trimmed) <= level || trimmed[level] != ' ' {
		return 0, "", false
	}
	title = strings.TrimSpace(trimmed[level:])
	if title == "" {
		return 0, "", false
	}
	return level, title, true
}
