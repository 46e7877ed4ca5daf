package healthguard

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// tokenWeight scales the token ratios so an exact character match still wins a tie.
const tokenWeight = 0.95

var stopWords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(`a about am an and any are as at be been by can could
		did do does for from had has have how i if in into is it its me my of on or our
		should so some tell that the there these this those to was we were what when where
		which who whom will with would you your`) {
		stopWords[w] = struct{}{}
	}
}

// Similarity scores how alike a and b are on a 0-100 scale. A nil analyzer falls back
// to WordAnalyzer.
func Similarity(a, b string, analyzer Analyzer) float64 {
	if analyzer == nil {
		analyzer = WordAnalyzer{}
	}
	na, nb := normalizeQuery(a), normalizeQuery(b)
	score := ratio(na, nb)
	ta := contentTokens(analyzer.Tokens(na))
	tb := contentTokens(analyzer.Tokens(nb))
	if s := tokenWeight * tokenSortRatio(ta, tb); s > score {
		score = s
	}
	if s := tokenWeight * tokenSetRatio(ta, tb); s > score {
		score = s
	}
	return score
}

// ratio is the normalized Levenshtein similarity over runes.
func ratio(a, b string) float64 {
	la, lb := len([]rune(a)), len([]rune(b))
	if la == 0 && lb == 0 {
		return 0
	}
	maxLen := la
	if lb > maxLen {
		maxLen = lb
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 100 * (1 - float64(dist)/float64(maxLen))
}

func tokenSortRatio(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	return ratio(sortedJoin(a), sortedJoin(b))
}

func tokenSetRatio(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	setA, setB := toSet(a), toSet(b)
	var inter, onlyA, onlyB []string
	for w := range setA {
		if _, ok := setB[w]; ok {
			inter = append(inter, w)
		} else {
			onlyA = append(onlyA, w)
		}
	}
	for w := range setB {
		if _, ok := setA[w]; !ok {
			onlyB = append(onlyB, w)
		}
	}
	base := sortedJoin(inter)
	withA := joinNonEmpty(base, sortedJoin(onlyA))
	withB := joinNonEmpty(base, sortedJoin(onlyB))

	best := ratio(withA, withB)
	if base != "" {
		if s := ratio(base, withA); s > best {
			best = s
		}
		if s := ratio(base, withB); s > best {
			best = s
		}
	}
	return best
}

// contentTokens drops stop words. If nothing else is left the tokens are kept as-is.
func contentTokens(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if _, stop := stopWords[t]; !stop {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return tokens
	}
	return out
}

func toSet(tokens []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}

func sortedJoin(tokens []string) string {
	cp := make([]string, len(tokens))
	copy(cp, tokens)
	sort.Strings(cp)
	return strings.Join(cp, " ")
}

func joinNonEmpty(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + " " + b
	}
}
