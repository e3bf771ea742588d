// Package fuzzy builds "did you mean" suggestions when an extracted entity
// does not resolve against the known schema vocabulary.
package fuzzy

import (
	"sort"
	"strings"

	"github.com/SalvadorCordova96/ProJect-Medical/internal/agent/model"
	"github.com/sahilm/fuzzy"
)

// Term is one known vocabulary entry with its schema location.
type Term struct {
	Value  string
	Table  string
	Column string
}

// Catalog holds the searchable vocabulary for suggestion matching.
type Catalog struct {
	terms     []Term
	values    []string
	threshold float64
}

// NewCatalog builds a catalog from the given terms. Threshold is the minimum
// similarity (0 to 1) a candidate must reach to be suggested.
func NewCatalog(terms []Term, threshold float64) *Catalog {
	values := make([]string, len(terms))
	for i, t := range terms {
		values[i] = t.Value
	}
	return &Catalog{terms: terms, values: values, threshold: threshold}
}

// DefaultCatalog covers the table and column vocabulary of the three logical
// databases, so misspelled entity names can be corrected.
func DefaultCatalog(threshold float64) *Catalog {
	terms := []Term{
		{Value: "pacientes", Table: "clinic.pacientes"},
		{Value: "tratamientos", Table: "clinic.tratamientos"},
		{Value: "evoluciones", Table: "clinic.evoluciones"},
		{Value: "evidencias", Table: "clinic.evidencias"},
		{Value: "citas", Table: "ops.citas"},
		{Value: "podologos", Table: "ops.podologos"},
		{Value: "pagos", Table: "ops.pagos"},
		{Value: "gastos", Table: "ops.gastos"},
		{Value: "prospectos", Table: "ops.prospectos"},
		{Value: "catalogo_servicios", Table: "ops.catalogo_servicios"},
		{Value: "nombre", Table: "clinic.pacientes", Column: "nombre"},
		{Value: "apellido", Table: "clinic.pacientes", Column: "apellido"},
		{Value: "telefono", Table: "clinic.pacientes", Column: "telefono"},
		{Value: "fecha_cita", Table: "ops.citas", Column: "fecha_cita"},
		{Value: "diagnostico", Table: "clinic.tratamientos", Column: "diagnostico"},
	}
	return NewCatalog(terms, threshold)
}

// Match returns the vocabulary entries similar to the given term, best
// first, filtered by the catalog threshold.
func (c *Catalog) Match(term string) []model.FuzzyMatch {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return nil
	}

	results := fuzzy.Find(term, c.values)
	matches := make([]model.FuzzyMatch, 0, len(results))
	for _, r := range results {
		sim := similarity(term, r)
		if sim < c.threshold {
			continue
		}
		t := c.terms[r.Index]
		matches = append(matches, model.FuzzyMatch{
			OriginalTerm: term,
			MatchedTerm:  t.Value,
			Similarity:   sim,
			Table:        t.Table,
			Column:       t.Column,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})
	return matches
}

// Suggestions flattens the best matches for a set of terms into the
// user-facing alternative list, capped at three.
func (c *Catalog) Suggestions(terms []string) ([]model.FuzzyMatch, []string) {
	var all []model.FuzzyMatch
	var suggestions []string
	seen := map[string]bool{}

	for _, term := range terms {
		for _, m := range c.Match(term) {
			all = append(all, m)
			if !seen[m.MatchedTerm] && len(suggestions) < 3 {
				seen[m.MatchedTerm] = true
				suggestions = append(suggestions, m.MatchedTerm)
			}
		}
	}
	return all, suggestions
}

// similarity normalises a fuzzy match into [0, 1]: the fraction of the
// candidate's characters covered by the pattern. An exact match scores 1.
func similarity(pattern string, m fuzzy.Match) float64 {
	if len(m.Str) == 0 {
		return 0
	}
	return float64(len(m.MatchedIndexes)) / float64(len([]rune(m.Str)))
}
