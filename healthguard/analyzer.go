package healthguard

import (
	"fmt"
	"strings"
	"sync"

	"github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
)

// Analyzer splits normalized text into the tokens used by the token-based ratios.
type Analyzer interface {
	Tokens(text string) []string
}

// WordAnalyzer splits on whitespace after lower-casing and dropping punctuation.
type WordAnalyzer struct{}

// Tokens implements Analyzer.
func (WordAnalyzer) Tokens(text string) []string {
	return strings.Fields(normalizeQuery(text))
}

// TokenizerAnalyzer tokenizes with a Hugging Face tokenizer.json definition.
type TokenizerAnalyzer struct {
	mu sync.Mutex
	tk *tokenizer.Tokenizer
}

// NewTokenizerAnalyzer loads the tokenizer definition at path.
func NewTokenizerAnalyzer(path string) (*TokenizerAnalyzer, error) {
	tk, err := pretrained.FromFile(path)
	if err != nil {
		return nil, fmt.Errorf("load tokenizer %s: %w", path, err)
	}
	return &TokenizerAnalyzer{tk: tk}, nil
}

// Tokens implements Analyzer. Subword markers are stripped, special tokens dropped and
// word-piece continuations glued back to the preceding piece.
func (a *TokenizerAnalyzer) Tokens(text string) []string {
	normalized := normalizeQuery(text)
	if normalized == "" {
		return nil
	}
	a.mu.Lock()
	enc, err := a.tk.EncodeSingle(normalized, false)
	a.mu.Unlock()
	if err != nil {
		return WordAnalyzer{}.Tokens(normalized)
	}
	return assembleTokens(enc.GetTokens())
}

// assembleTokens turns subword pieces back into lower-cased words.
func assembleTokens(pieces []string) []string {
	var out []string
	for _, tok := range pieces {
		if isSpecialToken(tok) {
			continue
		}
		if strings.HasPrefix(tok, "##") && len(out) > 0 {
			out[len(out)-1] += strings.ToLower(strings.TrimPrefix(tok, "##"))
			continue
		}
		tok = strings.TrimLeft(tok, "▁Ġ")
		tok = strings.ToLower(strings.TrimSpace(tok))
		if tok == "" {
			continue
		}
		out = append(out, tok)
	}
	return out
}

func isSpecialToken(tok string) bool {
	return len(tok) > 2 &&
		((strings.HasPrefix(tok, "[") && strings.HasSuffix(tok, "]")) ||
			(strings.HasPrefix(tok, "<") && strings.HasSuffix(tok, ">")))
}
