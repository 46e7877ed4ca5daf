package healthguard

import (
	"archive/zip"
	"bufio"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// KnowledgeFormatVersion identifies the document convention below. Bump it when the
// way documents are split into question/answer pairs changes.
//
//   - Markdown: each heading is a question, the blocks up to the next heading its answer.
//   - DOCX and plain text: the document is a list of paragraphs (DOCX paragraphs, or text
//     blocks separated by blank lines). When any paragraph or line starts with "Q:", the
//     "Q:"/"A:" markers delimit pairs and unmarked paragraphs continue the current
//     answer. Otherwise paragraphs alternate question, answer.
const KnowledgeFormatVersion = 1

// KnowledgeEntry is one question/answer pair.
type KnowledgeEntry struct {
	Question string
	Answer   string
}

// KnowledgeBase maps canonical questions to answers. It is read-only after construction.
type KnowledgeBase struct {
	entries map[string]string
	keys    []string
	source  string
}

// NewKnowledgeBase builds a knowledge base from pairs. Blank questions or answers are
// skipped and the first answer of a repeated question wins.
func NewKnowledgeBase(pairs []KnowledgeEntry) *KnowledgeBase {
	kb := &KnowledgeBase{entries: make(map[string]string, len(pairs))}
	for _, p := range pairs {
		q := NormalizeText(p.Question)
		a := strings.TrimSpace(p.Answer)
		if q == "" || a == "" {
			continue
		}
		if _, exists := kb.entries[q]; exists {
			continue
		}
		kb.entries[q] = a
		kb.keys = append(kb.keys, q)
	}
	sort.Strings(kb.keys)
	return kb
}

// Len returns the number of questions.
func (kb *KnowledgeBase) Len() int {
	if kb == nil {
		return 0
	}
	return len(kb.keys)
}

// Keys returns the questions in sorted order.
func (kb *KnowledgeBase) Keys() []string {
	if kb == nil {
		return nil
	}
	out := make([]string, len(kb.keys))
	copy(out, kb.keys)
	return out
}

// Answer returns the answer stored for key.
func (kb *KnowledgeBase) Answer(key string) (string, bool) {
	if kb == nil {
		return "", false
	}
	a, ok := kb.entries[key]
	return a, ok
}

// Source returns the path the knowledge base was read from.
func (kb *KnowledgeBase) Source() string {
	if kb == nil {
		return ""
	}
	return kb.source
}

// LoadKnowledgeBase parses the document at path. On failure it returns an empty, usable
// knowledge base together with an error matching ErrKnowledgeBaseUnavailable.
func LoadKnowledgeBase(path string) (*KnowledgeBase, error) {
	empty := NewKnowledgeBase(nil)
	empty.source = path
	data, err := os.ReadFile(path)
	if err != nil {
		return empty, fmt.Errorf("%w: %v", ErrKnowledgeBaseUnavailable, err)
	}
	var entries []KnowledgeEntry
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		entries = parseMarkdownKnowledge(data)
	case ".docx":
		paragraphs, err := docxParagraphs(data)
		if err != nil {
			return empty, fmt.Errorf("%w: %s: %v", ErrKnowledgeBaseUnavailable, filepath.Base(path), err)
		}
		entries = pairParagraphs(paragraphs)
	default:
		entries = parseTextKnowledge(data)
	}
	kb := NewKnowledgeBase(entries)
	kb.source = path
	if kb.Len() == 0 {
		return kb, fmt.Errorf("%w: %s: no question/answer pairs", ErrKnowledgeBaseUnavailable, filepath.Base(path))
	}
	return kb, nil
}

func parseMarkdownKnowledge(src []byte) []KnowledgeEntry {
	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	var entries []KnowledgeEntry
	var question string
	var answer []string
	flush := func() {
		if question != "" {
			entries = append(entries, KnowledgeEntry{Question: question, Answer: strings.Join(answer, "\n")})
		}
		question = ""
		answer = nil
	}
	for node := doc.FirstChild(); node != nil; node = node.NextSibling() {
		if heading, ok := node.(*ast.Heading); ok {
			flush()
			question = nodeText(heading, src)
			continue
		}
		if question == "" {
			continue
		}
		if t := nodeText(node, src); t != "" {
			answer = append(answer, t)
		}
	}
	flush()
	return entries
}

func nodeText(n ast.Node, src []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(t.Value)
		case *ast.ListItem:
			if b.Len() > 0 {
				b.WriteByte('\n')
			}
			b.WriteString("- ")
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			lines := c.Lines()
			for i := 0; i < lines.Len(); i++ {
				line := lines.At(i)
				b.Write(line.Value(src))
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}

func parseTextKnowledge(data []byte) []KnowledgeEntry {
	var lines, blocks []string
	var current []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 2*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(strings.TrimPrefix(scanner.Text(), "\ufeff"))
		if line == "" {
			if len(current) > 0 {
				blocks = append(blocks, strings.Join(current, " "))
				current = nil
			}
			continue
		}
		lines = append(lines, line)
		current = append(current, line)
	}
	if len(current) > 0 {
		blocks = append(blocks, strings.Join(current, " "))
	}
	if hasQAMarkers(lines) {
		return pairMarked(lines)
	}
	return pairAlternating(blocks)
}

func pairParagraphs(paragraphs []string) []KnowledgeEntry {
	if hasQAMarkers(paragraphs) {
		return pairMarked(paragraphs)
	}
	return pairAlternating(paragraphs)
}

func hasQAMarkers(units []string) bool {
	for _, u := range units {
		if _, ok := cutMarker(u, "q:"); ok {
			return true
		}
	}
	return false
}

func cutMarker(s, marker string) (string, bool) {
	if len(s) < len(marker) || !strings.EqualFold(s[:len(marker)], marker) {
		return "", false
	}
	return strings.TrimSpace(s[len(marker):]), true
}

func pairMarked(units []string) []KnowledgeEntry {
	var entries []KnowledgeEntry
	var question string
	var answer []string
	flush := func() {
		if question != "" {
			entries = append(entries, KnowledgeEntry{Question: question, Answer: strings.Join(answer, "\n")})
		}
		question = ""
		answer = nil
	}
	for _, u := range units {
		if q, ok := cutMarker(u, "q:"); ok {
			flush()
			question = q
			continue
		}
		if question == "" {
			continue
		}
		if a, ok := cutMarker(u, "a:"); ok {
			u = a
		}
		if u != "" {
			answer = append(answer, u)
		}
	}
	flush()
	return entries
}

func pairAlternating(units []string) []KnowledgeEntry {
	entries := make([]KnowledgeEntry, 0, len(units)/2)
	for i := 0; i+1 < len(units); i += 2 {
		entries = append(entries, KnowledgeEntry{Question: units[i], Answer: units[i+1]})
	}
	return entries
}

// docxParagraphs extracts the non-empty paragraphs of word/document.xml.
func docxParagraphs(data []byte) ([]string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open docx: %w", err)
	}
	var doc *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			doc = f
			break
		}
	}
	if doc == nil {
		return nil, errors.New("docx has no word/document.xml")
	}
	rc, err := doc.Open()
	if err != nil {
		return nil, fmt.Errorf("open document.xml: %w", err)
	}
	defer rc.Close()

	var paragraphs []string
	var b strings.Builder
	inText := false
	dec := xml.NewDecoder(rc)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode document.xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				b.Reset()
			case "t":
				inText = true
			case "tab", "br":
				b.WriteByte(' ')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if p := NormalizeText(b.String()); p != "" {
					paragraphs = append(paragraphs, p)
				}
				b.Reset()
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}
	return paragraphs, nil
}
