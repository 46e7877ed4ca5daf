package healthguard

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const markdownKB = `# Medical knowledge

Intro text that belongs to no question.

## Foods to avoid for diabetes

Limit sugary drinks, white bread and processed snacks.

- Sugary drinks
- White rice

## What is HbA1c?

HbA1c reflects average blood sugar over **three months**.

## Foods to avoid for diabetes

Duplicate heading that must be ignored.

## Empty heading
`

func TestLoadKnowledgeBase_Markdown(t *testing.T) {
	path := writeFile(t, t.TempDir(), "kb.md", markdownKB)
	kb, err := LoadKnowledgeBase(path)
	require.NoError(t, err)
	require.Equal(t, path, kb.Source())
	require.Equal(t, []string{"Foods to avoid for diabetes", "Medical knowledge", "What is HbA1c?"}, kb.Keys())

	answer, ok := kb.Answer("Foods to avoid for diabetes")
	require.True(t, ok)
	require.True(t, strings.HasPrefix(answer, "Limit sugary drinks"))
	require.Contains(t, answer, "- Sugary drinks\n- White rice")
	require.NotContains(t, answer, "Duplicate")

	answer, ok = kb.Answer("What is HbA1c?")
	require.True(t, ok)
	require.Equal(t, "HbA1c reflects average blood sugar over three months.", answer)

	_, ok = kb.Answer("Empty heading")
	require.False(t, ok)
}

func TestLoadKnowledgeBase_TextMarkers(t *testing.T) {
	path := writeFile(t, t.TempDir(), "kb.txt", "Medical FAQ\n\nQ: What is diabetes?\nA: A chronic condition\naffecting blood sugar.\n\nq: What is a normal blood pressure?\na: Around 120/80 mmHg.\n")
	kb, err := LoadKnowledgeBase(path)
	require.NoError(t, err)
	require.Equal(t, 2, kb.Len())

	answer, ok := kb.Answer("What is diabetes?")
	require.True(t, ok)
	require.Equal(t, "A chronic condition\naffecting blood sugar.", answer)
	answer, _ = kb.Answer("What is a normal blood pressure?")
	require.Equal(t, "Around 120/80 mmHg.", answer)
}

func TestLoadKnowledgeBase_TextAlternating(t *testing.T) {
	path := writeFile(t, t.TempDir(), "kb.txt", "How to prevent heart disease\n\nExercise regularly and\nstop smoking.\n\nDangling question\n")
	kb, err := LoadKnowledgeBase(path)
	require.NoError(t, err)
	require.Equal(t, []string{"How to prevent heart disease"}, kb.Keys())
	answer, _ := kb.Answer("How to prevent heart disease")
	require.Equal(t, "Exercise regularly and stop smoking.", answer)
}

func writeDocx(t *testing.T, dir string, paragraphs ...string) string {
	t.Helper()
	var body strings.Builder
	for _, p := range paragraphs {
		body.WriteString(`<w:p><w:r><w:t xml:space="preserve">`)
		body.WriteString(p)
		body.WriteString(`</w:t></w:r></w:p>`)
	}
	doc := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		body.String() + `</w:body></w:document>`

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(doc))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	path := filepath.Join(dir, "kb.docx")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func TestLoadKnowledgeBase_Docx(t *testing.T) {
	path := writeDocx(t, t.TempDir(),
		"What is diabetes",
		"A chronic condition affecting blood sugar.",
		"",
		"Foods to avoid for diabetes",
		"Sugary drinks &amp; white bread.",
	)
	kb, err := LoadKnowledgeBase(path)
	require.NoError(t, err)
	require.Equal(t, 2, kb.Len())
	answer, ok := kb.Answer("Foods to avoid for diabetes")
	require.True(t, ok)
	require.Equal(t, "Sugary drinks & white bread.", answer)
}

func TestLoadKnowledgeBase_DocxMarkers(t *testing.T) {
	path := writeDocx(t, t.TempDir(),
		"Q: What is HbA1c?",
		"A: Average blood sugar over three months.",
		"Ask your doctor for details.",
	)
	kb, err := LoadKnowledgeBase(path)
	require.NoError(t, err)
	answer, ok := kb.Answer("What is HbA1c?")
	require.True(t, ok)
	require.Equal(t, "Average blood sugar over three months.\nAsk your doctor for details.", answer)
}

func TestLoadKnowledgeBase_Unavailable(t *testing.T) {
	dir := t.TempDir()
	for name, path := range map[string]string{
		"missing":    filepath.Join(dir, "nope.md"),
		"corrupt":    writeFile(t, dir, "broken.docx", "not a zip archive"),
		"no pairs":   writeFile(t, dir, "empty.md", "just text, no headings\n"),
		"blank text": writeFile(t, dir, "blank.txt", "\n\n"),
	} {
		t.Run(name, func(t *testing.T) {
			kb, err := LoadKnowledgeBase(path)
			require.ErrorIs(t, err, ErrKnowledgeBaseUnavailable)
			require.NotNil(t, kb)
			require.Equal(t, 0, kb.Len())
		})
	}
}

func TestNewKnowledgeBase_FirstAnswerWins(t *testing.T) {
	kb := NewKnowledgeBase([]KnowledgeEntry{
		{Question: "  b  question ", Answer: "first"},
		{Question: "b question", Answer: "second"},
		{Question: "a question", Answer: "  "},
		{Question: "", Answer: "orphan"},
	})
	require.Equal(t, []string{"b question"}, kb.Keys())
	answer, _ := kb.Answer("b question")
	require.Equal(t, "first", answer)

	var nilKB *KnowledgeBase
	require.Equal(t, 0, nilKB.Len())
	require.Nil(t, nilKB.Keys())
}
