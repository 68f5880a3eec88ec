package resolver

import (
	"regexp"
	"strings"
)

// Confidence tiers. Each matcher's output stays inside its own band so
// adding a matcher never disturbs the precedence of the others.
const (
	postcodeConfidence  = 1.0
	exactConfidence     = 0.95
	tokenBandFloor      = 0.5
	tokenBandWidth      = 0.35 // token scores span 0.5..0.85
	editDistanceCeiling = 0.45
	cityBoost           = 0.1
)

// genericWords are retail terms too common to carry matching signal.
var genericWords = map[string]bool{
	"shopping": true,
	"centre":   true,
	"center":   true,
	"retail":   true,
	"park":     true,
	"outlet":   true,
	"the":      true,
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9 ]+`)
var spaces = regexp.MustCompile(`\s+`)

// normalizeName strips case, punctuation and generic retail words so
// "Queensgate Shopping Centre" and "queensgate" compare equal.
func normalizeName(name string) string {
	s := strings.ToLower(name)
	s = nonAlnum.ReplaceAllString(s, " ")
	words := strings.Fields(s)
	kept := words[:0]
	for _, w := range words {
		if !genericWords[w] {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}

// normalizePostcode strips whitespace and case-folds.
func normalizePostcode(pc string) string {
	return strings.ToUpper(spaces.ReplaceAllString(strings.TrimSpace(pc), ""))
}

// significantTokens returns the tokens of a name worth matching on:
// longer than 3 characters and not a generic retail word.
func significantTokens(name string) []string {
	s := strings.ToLower(name)
	s = nonAlnum.ReplaceAllString(s, " ")
	var tokens []string
	for _, w := range strings.Fields(s) {
		if len(w) > 3 && !genericWords[w] {
			tokens = append(tokens, w)
		}
	}
	return tokens
}

// query is the pre-normalized form of a search string.
type query struct {
	raw        string
	normalized string
	postcode   string
	tokens     []string
}

func newQuery(raw string) query {
	return query{
		raw:        raw,
		normalized: normalizeName(raw),
		postcode:   normalizePostcode(raw),
		tokens:     significantTokens(raw),
	}
}

// target is the pre-normalized form of a candidate record.
type target struct {
	normalized string
	postcode   string
	tokens     []string
}

// matcher is one tier of the resolution cascade. Score returns 0 for no
// match, otherwise a confidence inside the matcher's band.
type matcher interface {
	name() string
	score(q query, t target) float64
}

// postcodeMatcher: normalized postcode equality is the strongest signal a
// voice transcript can carry.
type postcodeMatcher struct{}

func (postcodeMatcher) name() string { return "postcode" }

func (postcodeMatcher) score(q query, t target) float64 {
	if t.postcode == "" || q.postcode == "" {
		return 0
	}
	if q.postcode == t.postcode {
		return postcodeConfidence
	}
	return 0
}

// exactNameMatcher: full-string equality after normalization.
type exactNameMatcher struct{}

func (exactNameMatcher) name() string { return "exact-name" }

func (exactNameMatcher) score(q query, t target) float64 {
	if q.normalized != "" && q.normalized == t.normalized {
		return exactConfidence
	}
	return 0
}

// tokenMatcher: every significant token of the candidate name must appear
// as a substring of the query, or every query token in the candidate name.
// Confidence scales with the token-overlap ratio.
type tokenMatcher struct{}

func (tokenMatcher) name() string { return "token-containment" }

func (tokenMatcher) score(q query, t target) float64 {
	if len(t.tokens) == 0 || q.normalized == "" {
		return 0
	}

	if containsAll(q.normalized, t.tokens) {
		return tokenBandFloor + tokenBandWidth*overlapRatio(q.tokens, t.tokens)
	}
	if len(q.tokens) > 0 && containsAll(t.normalized, q.tokens) {
		return tokenBandFloor + tokenBandWidth*overlapRatio(q.tokens, t.tokens)
	}
	return 0
}

func containsAll(haystack string, tokens []string) bool {
	for _, tok := range tokens {
		if !strings.Contains(haystack, tok) {
			return false
		}
	}
	return true
}

// overlapRatio is shared tokens over the larger token set.
func overlapRatio(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]bool, len(a))
	for _, t := range a {
		set[t] = true
	}
	shared := 0
	for _, t := range b {
		if set[t] {
			shared++
		}
	}
	larger := len(a)
	if len(b) > larger {
		larger = len(b)
	}
	return float64(shared) / float64(larger)
}

// editDistanceMatcher: Levenshtein-similarity fallback for transcription
// noise. Capped below the token tier so it only decides when nothing
// stronger fired.
type editDistanceMatcher struct{}

func (editDistanceMatcher) name() string { return "edit-distance" }

func (editDistanceMatcher) score(q query, t target) float64 {
	if q.normalized == "" || t.normalized == "" {
		return 0
	}
	sim := similarity(q.normalized, t.normalized)
	if sim < 0.6 {
		return 0
	}
	return editDistanceCeiling * sim
}

// similarity converts Levenshtein distance into a 0..1 score.
func similarity(a, b string) float64 {
	longer, shorter := a, b
	if len(b) > len(a) {
		longer, shorter = b, a
	}
	if len(longer) == 0 {
		return 1.0
	}
	d := levenshtein(longer, shorter)
	return float64(len(longer)-d) / float64(len(longer))
}

func levenshtein(a, b string) int {
	m, n := len(a), len(b)
	prev := make([]int, n+1)
	curr := make([]int, n+1)

	for j := 0; j <= n; j++ {
		prev[j] = j
	}
	for i := 1; i <= m; i++ {
		curr[0] = i
		for j := 1; j <= n; j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1]
			} else {
				curr[j] = min3(prev[j]+1, curr[j-1]+1, prev[j-1]+1)
			}
		}
		prev, curr = curr, prev
	}
	return prev[n]
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
