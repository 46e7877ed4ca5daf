package healthguard

import (
	"math"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"
)

// Answer is the matcher's reply to one query. Matched is false when the fallback was used.
type Answer struct {
	Query   string
	Key     string
	Text    string
	Score   float64
	Matched bool
}

// MatcherOptions tunes a Matcher. Zero values take the package defaults; a nil MinScore
// means DefaultMinScore and an explicit 0 answers every non-empty query.
type MatcherOptions struct {
	MinScore *float64
	Fallback string
	Analyzer Analyzer
	MemoSize int
	MemoTTL  time.Duration
}

// Matcher answers free-text queries from a knowledge base.
type Matcher struct {
	kb       *KnowledgeBase
	minScore float64
	fallback string
	analyzer Analyzer
	memo     *expirable.LRU[string, Answer]
	logger   *zap.Logger
}

// NewMatcher builds a matcher over kb. A nil kb behaves like an empty one.
func NewMatcher(kb *KnowledgeBase, opts MatcherOptions, logger *zap.Logger) *Matcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	minScore := DefaultMinScore
	if opts.MinScore != nil {
		minScore = math.Min(math.Max(*opts.MinScore, 0), 100)
	}
	if strings.TrimSpace(opts.Fallback) == "" {
		opts.Fallback = DefaultFallback
	}
	if opts.Analyzer == nil {
		opts.Analyzer = WordAnalyzer{}
	}
	m := &Matcher{
		kb:       kb,
		minScore: minScore,
		fallback: opts.Fallback,
		analyzer: opts.Analyzer,
		logger:   logger,
	}
	if opts.MemoSize > 0 && opts.MemoTTL > 0 {
		m.memo = expirable.NewLRU[string, Answer](opts.MemoSize, nil, opts.MemoTTL)
	}
	return m
}

// Match returns the answer of the best scoring key, or the fallback when no key reaches
// the threshold. Ties go to the lexicographically lowest key.
func (m *Matcher) Match(query string) Answer {
	normalized := normalizeQuery(query)
	if normalized == "" || m.kb.Len() == 0 {
		return Answer{Query: query, Text: m.fallback}
	}
	if m.memo != nil {
		if cached, ok := m.memo.Get(normalized); ok {
			cached.Query = query
			return cached
		}
	}

	var bestKey string
	bestScore := -1.0
	for _, key := range m.kb.keys {
		score := Similarity(normalized, key, m.analyzer)
		if score > bestScore {
			bestKey, bestScore = key, score
		}
	}

	ans := Answer{Query: query, Key: bestKey, Score: bestScore}
	if bestScore >= m.minScore {
		ans.Text, _ = m.kb.Answer(bestKey)
		ans.Matched = true
	} else {
		ans.Text = m.fallback
	}
	m.logger.Debug("chat query matched",
		zap.String("query", normalized),
		zap.String("key", bestKey),
		zap.Float64("score", bestScore),
		zap.Bool("matched", ans.Matched),
	)
	if m.memo != nil {
		m.memo.Add(normalized, ans)
	}
	return ans
}

// KnowledgeBase returns the base the matcher searches.
func (m *Matcher) KnowledgeBase() *KnowledgeBase {
	return m.kb
}
