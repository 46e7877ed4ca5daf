package healthguard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func sampleKB() *KnowledgeBase {
	return NewKnowledgeBase([]KnowledgeEntry{
		{Question: "foods to avoid for diabetes", Answer: "Avoid sugary drinks and refined carbs."},
		{Question: "what is diabetes", Answer: "A chronic condition affecting blood sugar."},
		{Question: "what are the symptoms of diabetes", Answer: "Thirst, fatigue and frequent urination."},
		{Question: "how to prevent heart disease", Answer: "Exercise and eat a balanced diet."},
		{Question: "what is a normal blood pressure", Answer: "Around 120/80 mmHg."},
	})
}

func TestMatcher_AnswersParaphrase(t *testing.T) {
	m := NewMatcher(sampleKB(), MatcherOptions{}, nil)
	ans := m.Match("What foods should diabetics avoid?")
	require.True(t, ans.Matched)
	require.Equal(t, "foods to avoid for diabetes", ans.Key)
	require.Equal(t, "Avoid sugary drinks and refined carbs.", ans.Text)
	require.Equal(t, "What foods should diabetics avoid?", ans.Query)
	require.GreaterOrEqual(t, ans.Score, DefaultMinScore)
}

func TestMatcher_FallbackBelowThreshold(t *testing.T) {
	m := NewMatcher(sampleKB(), MatcherOptions{}, nil)
	ans := m.Match("what is the weather today")
	require.False(t, ans.Matched)
	require.Equal(t, DefaultFallback, ans.Text)
	require.Less(t, ans.Score, DefaultMinScore)
}

func TestMatcher_CustomThresholdAndFallback(t *testing.T) {
	m := NewMatcher(sampleKB(), MatcherOptions{MinScore: Score(99), Fallback: "Please ask a doctor."}, nil)
	ans := m.Match("What foods should diabetics avoid?")
	require.False(t, ans.Matched)
	require.Equal(t, "Please ask a doctor.", ans.Text)

	ans = m.Match("what is diabetes")
	require.True(t, ans.Matched)
}

func TestMatcher_TieGoesToLowestKey(t *testing.T) {
	m := NewMatcher(sampleKB(), MatcherOptions{}, nil)
	// Both "what are the symptoms of diabetes" and "what is diabetes" contain every content word.
	ans := m.Match("symptoms of diabetes")
	require.True(t, ans.Matched)
	require.Equal(t, "what are the symptoms of diabetes", ans.Key)

	kb := NewKnowledgeBase([]KnowledgeEntry{
		{Question: "beta", Answer: "b"},
		{Question: "alpha", Answer: "a"},
	})
	ans = NewMatcher(kb, MatcherOptions{MinScore: Score(1)}, nil).Match("zzzzz")
	require.Equal(t, "alpha", ans.Key)
}

func TestMatcher_EmptyKnowledgeBaseOrQuery(t *testing.T) {
	for _, kb := range []*KnowledgeBase{nil, NewKnowledgeBase(nil)} {
		ans := NewMatcher(kb, MatcherOptions{}, nil).Match("what is diabetes")
		require.False(t, ans.Matched)
		require.Equal(t, DefaultFallback, ans.Text)
	}
	ans := NewMatcher(sampleKB(), MatcherOptions{}, nil).Match("  ?? ")
	require.False(t, ans.Matched)
	require.Equal(t, DefaultFallback, ans.Text)
}

func TestMatcher_Idempotent(t *testing.T) {
	for _, opts := range []MatcherOptions{{}, {MemoSize: 8, MemoTTL: time.Minute}} {
		m := NewMatcher(sampleKB(), opts, nil)
		first := m.Match("How can I prevent heart disease?")
		second := m.Match("how can i prevent heart disease")
		require.Equal(t, first.Key, second.Key)
		require.Equal(t, first.Text, second.Text)
		require.Equal(t, first.Score, second.Score)
		require.Equal(t, "how can i prevent heart disease", second.Query)
	}
}

func TestMatcher_MemoStoresNormalizedQuery(t *testing.T) {
	m := NewMatcher(sampleKB(), MatcherOptions{MemoSize: 4, MemoTTL: time.Minute}, nil)
	m.Match("What is diabetes?")
	cached, ok := m.memo.Get("what is diabetes")
	require.True(t, ok)
	require.Equal(t, "what is diabetes", cached.Key)
}

func TestNewMatcher_ClampsThreshold(t *testing.T) {
	require.Equal(t, DefaultMinScore, NewMatcher(nil, MatcherOptions{}, nil).minScore)
	require.Equal(t, 100.0, NewMatcher(nil, MatcherOptions{MinScore: Score(250)}, nil).minScore)
	require.Equal(t, 0.0, NewMatcher(nil, MatcherOptions{MinScore: Score(-3)}, nil).minScore)
}

func TestMatcher_ZeroThresholdAlwaysAnswers(t *testing.T) {
	m := NewMatcher(sampleKB(), MatcherOptions{MinScore: Score(0)}, nil)
	require.Equal(t, 0.0, m.minScore)

	ans := m.Match("what is the weather today")
	require.True(t, ans.Matched)
	require.NotEqual(t, DefaultFallback, ans.Text)

	ans = m.Match("  ")
	require.False(t, ans.Matched)
}
