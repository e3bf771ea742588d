package fuzzy

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMatchCorrectsTypo(t *testing.T) {
	c := DefaultCatalog(0.6)

	matches := c.Match("pacietes")
	require.NotEmpty(t, matches)
	require.Equal(t, "pacientes", matches[0].MatchedTerm)
	require.Equal(t, "clinic.pacientes", matches[0].Table)
	require.GreaterOrEqual(t, matches[0].Similarity, 0.6)
}

func TestMatchExactTermScoresOne(t *testing.T) {
	c := DefaultCatalog(0.6)

	matches := c.Match("citas")
	require.NotEmpty(t, matches)
	require.Equal(t, "citas", matches[0].MatchedTerm)
	require.Equal(t, 1.0, matches[0].Similarity)
}

func TestMatchUnknownTerm(t *testing.T) {
	c := DefaultCatalog(0.6)
	require.Empty(t, c.Match("zzqqxx"))
}

func TestMatchEmptyTerm(t *testing.T) {
	c := DefaultCatalog(0.6)
	require.Empty(t, c.Match("   "))
}

func TestMatchThresholdFiltersWeakHits(t *testing.T) {
	strict := NewCatalog([]Term{{Value: "tratamientos", Table: "clinic.tratamientos"}}, 0.99)
	require.Empty(t, strict.Match("trat"))

	loose := NewCatalog([]Term{{Value: "tratamientos", Table: "clinic.tratamientos"}}, 0.3)
	require.NotEmpty(t, loose.Match("trat"))
}

func TestSuggestionsCappedAtThree(t *testing.T) {
	c := DefaultCatalog(0.6)

	matches, suggestions := c.Suggestions([]string{"pacientes", "citas", "pagos", "gastos"})
	require.GreaterOrEqual(t, len(matches), 4)
	require.Len(t, suggestions, 3)
}

func TestSuggestionsDeduplicates(t *testing.T) {
	c := DefaultCatalog(0.6)

	_, suggestions := c.Suggestions([]string{"citas", "citas"})
	require.Equal(t, []string{"citas"}, suggestions)
}
