// Package resolver maps free-text (often voice-transcribed) location names
// to canonical records. Matching is a cascade of independent strategies:
// postcode equality, normalized name equality, token containment, and an
// edit-distance fallback, each confined to its own confidence band, with
// city disambiguation applied across the ranked result.
package resolver

import (
	"errors"
	"regexp"
	"sort"
	"strings"

	"retail-intel/internal/models"
)

// ErrNoMatch is returned when no candidate scores above the floor.
var ErrNoMatch = errors.New("no location found")

const (
	// minScore drops candidates with no meaningful signal.
	minScore = 0.3
	// ambiguityWindow: top candidates this close are considered tied.
	ambiguityWindow = 0.05
	// ambiguityPenalty reduces confidence when a tie cannot be broken.
	ambiguityPenalty = 0.1
)

// cityPattern extracts a trailing city from phrases like
// "queensgate in peterborough".
var cityPattern = regexp.MustCompile(`(?i)\bin\s+([a-z][a-z\s]*?)\s*$`)

// Resolver matches queries against a fixed candidate snapshot. It is a pure
// function of (query, city hint, candidates): no randomness, ties broken by
// candidate insertion order.
type Resolver struct {
	candidates []models.LocationRef
	targets    []target
	matchers   []matcher
}

// New builds a resolver over the candidate snapshot.
func New(candidates []models.LocationRef) *Resolver {
	targets := make([]target, len(candidates))
	for i, c := range candidates {
		targets[i] = target{
			normalized: normalizeName(c.Name),
			postcode:   normalizePostcode(c.Postcode),
			tokens:     significantTokens(c.Name),
		}
	}
	return &Resolver{
		candidates: candidates,
		targets:    targets,
		matchers: []matcher{
			postcodeMatcher{},
			exactNameMatcher{},
			tokenMatcher{},
			editDistanceMatcher{},
		},
	}
}

// Search returns up to limit candidates ranked by confidence.
func (r *Resolver) Search(text string, limit int, cityHint string) []models.LocationMatch {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	if cityHint == "" {
		text, cityHint = splitCityPhrase(text)
	}
	q := newQuery(text)
	hint := strings.ToLower(strings.TrimSpace(cityHint))

	matches := make([]models.LocationMatch, 0)
	for i, t := range r.targets {
		score := r.bestScore(q, t)
		if score == 0 {
			continue
		}

		c := r.candidates[i]
		if hint != "" && cityMatches(c, hint) {
			score = clamp1(score + cityBoost)
		}
		if score < minScore {
			continue
		}

		matches = append(matches, models.LocationMatch{
			LocationID: c.ID,
			Name:       c.Name,
			City:       c.City,
			County:     c.County,
			Confidence: score,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Confidence > matches[j].Confidence
	})

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

// Resolve returns the best match for the query, or ErrNoMatch when nothing
// scores. An unbroken tie between the top candidates is returned as the
// first of them with reduced confidence and the Ambiguous flag set; the
// caller decides whether a low-confidence match is acceptable.
func (r *Resolver) Resolve(text string, cityHint string) (models.LocationMatch, error) {
	matches := r.Search(text, 0, cityHint)
	if len(matches) == 0 {
		return models.LocationMatch{}, ErrNoMatch
	}

	top := matches[0]
	if len(matches) > 1 && matches[0].Confidence-matches[1].Confidence < ambiguityWindow {
		top.Confidence -= ambiguityPenalty
		if top.Confidence < 0 {
			top.Confidence = 0
		}
		top.Ambiguous = true
	}
	return top, nil
}

// ResolveMany resolves each name independently, collecting the matches that
// succeed. Per-item failures are isolated so one bad name does not void the
// rest of a competitor list.
func (r *Resolver) ResolveMany(names []string, cityHint string) []models.LocationMatch {
	matches := make([]models.LocationMatch, 0, len(names))
	for _, name := range names {
		if m, err := r.Resolve(name, cityHint); err == nil {
			matches = append(matches, m)
		}
	}
	return matches
}

// bestScore runs the cascade in tier order; a confident hit short-circuits.
func (r *Resolver) bestScore(q query, t target) float64 {
	best := 0.0
	for _, m := range r.matchers {
		s := m.score(q, t)
		if s >= exactConfidence {
			return s
		}
		if s > best {
			best = s
		}
	}
	return best
}

func cityMatches(c models.LocationRef, hint string) bool {
	city := strings.ToLower(c.City)
	county := strings.ToLower(c.County)
	return (city != "" && (strings.Contains(city, hint) || strings.Contains(hint, city))) ||
		(county != "" && strings.Contains(county, hint))
}

// splitCityPhrase strips a trailing "in <City>" clause from free text and
// returns it as a hint.
func splitCityPhrase(text string) (string, string) {
	loc := cityPattern.FindStringSubmatchIndex(text)
	if loc == nil {
		return text, ""
	}
	city := strings.TrimSpace(text[loc[2]:loc[3]])
	rest := strings.TrimSpace(text[:loc[0]])
	if rest == "" {
		// the whole query was "in <city>"; keep it as a name query
		return text, ""
	}
	return rest, city
}

func clamp1(v float64) float64 {
	if v > 1 {
		return 1
	}
	return v
}
