// Package review supports the manual-review workflow for unmatched listings:
// near-miss suggestions and a search index over the review queue. Nothing in
// it feeds back into the matching engine, which stays exact-match only.
package review

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/xrash/smetrics"

	"github.com/chivocasa/listing-locator/app/models"
	"github.com/chivocasa/listing-locator/internal/hierarchy"
	"github.com/chivocasa/listing-locator/internal/normalizer"
)

const (
	// minSimilarity is the Jaro-Winkler floor for a suggestion. Below it the
	// names are too far apart to help a reviewer.
	minSimilarity = 0.85

	// maxEditDistance additionally caps how many edits away a suggestion may
	// be, so long names with high token overlap but different heads drop out.
	maxEditDistance = 3

	jaroWinklerBoost  = 0.7
	jaroWinklerPrefix = 4
)

// Suggestion is one near-miss hierarchy node offered to a reviewer.
type Suggestion struct {
	Level       int     `json:"level"`
	ID          int64   `json:"id"`
	DisplayName string  `json:"display_name"`
	Matched     string  `json:"matched"`
	Similarity  float64 `json:"similarity"`
}

// Suggester ranks hierarchy names by similarity to free text. It only looks
// at municipalities and colonias; departments are few enough that a reviewer
// does not need help with them.
type Suggester struct {
	index *hierarchy.Index
}

// NewSuggester builds a suggester over a finished index.
func NewSuggester(index *hierarchy.Index) *Suggester {
	return &Suggester{index: index}
}

// Suggest returns up to limit candidate nodes whose names are close to some
// word window of text, best first.
func (s *Suggester) Suggest(text string, limit int) []Suggestion {
	words := strings.Fields(normalizer.Normalize(text))
	if len(words) == 0 {
		return nil
	}

	var out []Suggestion
	for _, level := range []int{models.LevelMunicipality, models.LevelColonia} {
		for _, node := range s.index.NodesAt(level) {
			if node.NormalizedName == "" {
				continue
			}
			window, sim := bestWindow(words, node.NormalizedName)
			if sim < minSimilarity {
				continue
			}
			if levenshtein.ComputeDistance(window, node.NormalizedName) > maxEditDistance {
				continue
			}
			out = append(out, Suggestion{
				Level:       level,
				ID:          node.ID,
				DisplayName: node.DisplayName,
				Matched:     window,
				Similarity:  sim,
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Similarity > out[j].Similarity })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// bestWindow slides a window as wide as the name over the text words and
// returns the most similar window.
func bestWindow(words []string, name string) (string, float64) {
	width := len(strings.Fields(name))
	if width == 0 || width > len(words) {
		return "", 0
	}

	bestText := ""
	bestSim := 0.0
	for i := 0; i+width <= len(words); i++ {
		window := strings.Join(words[i:i+width], " ")
		sim := smetrics.JaroWinkler(window, name, jaroWinklerBoost, jaroWinklerPrefix)
		if sim > bestSim {
			bestText, bestSim = window, sim
		}
	}
	return bestText, bestSim
}
