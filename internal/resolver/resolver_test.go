package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retail-intel/internal/models"
)

func testCandidates() []models.LocationRef {
	return []models.LocationRef{
		{ID: "queensgate", Name: "Queensgate Shopping Centre", City: "Peterborough", County: "Cambridgeshire", Postcode: "PE1 1NT"},
		{ID: "queensgate-glasgow", Name: "Queensgate Centre", City: "Glasgow", County: "Glasgow City", Postcode: "G64 2TS"},
		{ID: "rivergate", Name: "Rivergate Shopping Centre", City: "Peterborough", County: "Cambridgeshire", Postcode: "PE1 1EL"},
		{ID: "serpentine", Name: "Serpentine Green Shopping Centre", City: "Peterborough", County: "Cambridgeshire", Postcode: "PE7 8BE"},
		{ID: "grand-arcade", Name: "Grand Arcade", City: "Cambridge", County: "Cambridgeshire", Postcode: "CB2 3BJ"},
	}
}

func TestResolveExactName(t *testing.T) {
	r := New(testCandidates())

	match, err := r.Resolve("Rivergate Shopping Centre", "")
	require.NoError(t, err)
	assert.Equal(t, "rivergate", match.LocationID)
	assert.GreaterOrEqual(t, match.Confidence, 0.95)
}

func TestResolveNormalizedEquality(t *testing.T) {
	r := New(testCandidates())

	// Generic retail words and punctuation carry no signal.
	match, err := r.Resolve("the RIVERGATE centre", "")
	require.NoError(t, err)
	assert.Equal(t, "rivergate", match.LocationID)
	assert.GreaterOrEqual(t, match.Confidence, 0.95)
}

func TestPostcodeOutranksEverything(t *testing.T) {
	// A second candidate whose name equals the query exactly must still
	// lose to the postcode match.
	candidates := []models.LocationRef{
		{ID: "name-match", Name: "PE1 1NT", City: "Elsewhere"},
		{ID: "postcode-match", Name: "Queensgate Shopping Centre", City: "Peterborough", Postcode: "PE1 1NT"},
	}

	for _, order := range [][]models.LocationRef{candidates, {candidates[1], candidates[0]}} {
		r := New(order)
		matches := r.Search("PE1 1NT", 0, "")
		require.NotEmpty(t, matches)
		assert.Equal(t, "postcode-match", matches[0].LocationID)
		assert.InDelta(t, 1.0, matches[0].Confidence, 1e-9)
	}
}

func TestResolveCityPhraseDisambiguates(t *testing.T) {
	r := New(testCandidates())

	match, err := r.Resolve("Queensgate in Peterborough", "")
	require.NoError(t, err)
	assert.Equal(t, "queensgate", match.LocationID)
	assert.GreaterOrEqual(t, match.Confidence, 0.9)
	assert.False(t, match.Ambiguous)
}

func TestResolveCityHintParameter(t *testing.T) {
	r := New(testCandidates())

	match, err := r.Resolve("Queensgate", "Glasgow")
	require.NoError(t, err)
	assert.Equal(t, "queensgate-glasgow", match.LocationID)
}

func TestResolveAmbiguousTie(t *testing.T) {
	r := New(testCandidates())

	// Without a city both Queensgates normalize to "queensgate".
	match, err := r.Resolve("Queensgate", "")
	require.NoError(t, err)
	assert.True(t, match.Ambiguous)
	assert.InDelta(t, 0.85, match.Confidence, 1e-9)
	// Tie breaks by candidate order.
	assert.Equal(t, "queensgate", match.LocationID)
}

func TestResolveTokenContainment(t *testing.T) {
	r := New(testCandidates())

	match, err := r.Resolve("serpentine green", "")
	require.NoError(t, err)
	assert.Equal(t, "serpentine", match.LocationID)
}

func TestResolveTranscriptionNoise(t *testing.T) {
	r := New(testCandidates())

	// "rivargate" is one substitution away from "rivergate".
	matches := r.Search("rivargate", 0, "")
	require.NotEmpty(t, matches)
	assert.Equal(t, "rivergate", matches[0].LocationID)
	assert.Less(t, matches[0].Confidence, 0.5)
}

func TestResolveNoMatch(t *testing.T) {
	r := New(testCandidates())

	_, err := r.Resolve("completely unrelated text zzz", "")
	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestResolveEmptyQuery(t *testing.T) {
	r := New(testCandidates())

	_, err := r.Resolve("   ", "")
	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestSearchLimit(t *testing.T) {
	r := New(testCandidates())

	matches := r.Search("shopping centre peterborough queensgate rivergate serpentine", 2, "")
	assert.LessOrEqual(t, len(matches), 2)
}

func TestSearchRankedDescending(t *testing.T) {
	r := New(testCandidates())

	matches := r.Search("queensgate", 0, "")
	for i := 1; i < len(matches); i++ {
		assert.GreaterOrEqual(t, matches[i-1].Confidence, matches[i].Confidence)
	}
}

func TestResolveManyIsolatesFailures(t *testing.T) {
	r := New(testCandidates())

	matches := r.ResolveMany([]string{
		"Rivergate Shopping Centre",
		"no such place whatsoever qqq",
		"Grand Arcade",
	}, "")

	require.Len(t, matches, 2)
	assert.Equal(t, "rivergate", matches[0].LocationID)
	assert.Equal(t, "grand-arcade", matches[1].LocationID)
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "queensgate", normalizeName("The Queensgate Shopping Centre"))
	assert.Equal(t, "serpentine green", normalizeName("Serpentine Green Shopping Centre"))
	assert.Equal(t, "", normalizeName("The Shopping Centre"))
}

func TestSignificantTokens(t *testing.T) {
	// Short and generic words drop out.
	assert.Equal(t, []string{"serpentine", "green"}, significantTokens("The Serpentine Green Shopping Centre"))
	assert.Nil(t, significantTokens("the fox"))
}
