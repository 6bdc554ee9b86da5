// Package matcher implements candidate scoring against the location index and
// the multi-level strategies that resolve one listing to a hierarchy chain.
package matcher

import (
	"fmt"
	"strings"

	"github.com/chivocasa/listing-locator/app/models"
	"github.com/chivocasa/listing-locator/internal/normalizer"
)

// Candidate is one scored node. Score is the value the acceptance threshold
// is applied to: the source-weighted score in weighted lookups, the raw base
// score in prioritized lookups (where priority only breaks ties).
type Candidate struct {
	Node        *models.LocationNode
	Score       float64
	MatchedText string
	Source      normalizer.TextSource
}

// Engine scores candidate pools against per-source texts. It is stateless
// beyond its config and safe for concurrent use.
type Engine struct {
	cfg Config
}

// New builds an engine with the given scoring config.
func New(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// NewDefault builds an engine with the production scoring constants.
func NewDefault() *Engine {
	return New(DefaultConfig())
}

// Accepted reports whether a candidate clears the acceptance threshold.
// A nil candidate never does.
func (e *Engine) Accepted(c *Candidate) bool {
	return c != nil && c.Score >= e.cfg.Threshold
}

// FindBestWeighted returns the best candidate in pool using multiplicative
// source weighting. Sources are scanned most-trusted first and only a strictly
// higher weighted score displaces the current best, so ties keep the first
// find. Returns nil when nothing in the pool matches any text.
func (e *Engine) FindBestWeighted(texts normalizer.SourceTexts, pool []*models.LocationNode) *Candidate {
	var best *Candidate

	for _, src := range normalizer.SourcesByPriority {
		text := texts.Get(src)
		if text == "" {
			continue
		}
		weight := e.cfg.SourceWeights[src]

		for _, node := range pool {
			base, matched, ok := scoreName(node, text)
			if !ok {
				continue
			}
			weighted := base * weight
			if best == nil || weighted > best.Score {
				best = &Candidate{Node: node, Score: weighted, MatchedText: matched, Source: src}
			}
		}
	}

	return best
}

// FindBestPrioritized returns the best candidate in pool comparing raw base
// scores nudged by source priority (priority × step). The nudge orders
// location > title > details > description between equal base scores but
// never discounts a score; the reported Score stays the raw base value.
func (e *Engine) FindBestPrioritized(texts normalizer.SourceTexts, pool []*models.LocationNode) *Candidate {
	var best *Candidate
	bestAdjusted := 0.0

	for _, node := range pool {
		for _, src := range normalizer.SourcesByPriority {
			text := texts.Get(src)
			if text == "" {
				continue
			}
			base, matched, ok := scoreName(node, text)
			if !ok {
				continue
			}
			adjusted := base + float64(e.cfg.SourcePriorities[src])*e.cfg.TieBreakStep
			if best == nil || adjusted > bestAdjusted {
				best = &Candidate{Node: node, Score: base, MatchedText: matched, Source: src}
				bestAdjusted = adjusted
			}
		}
	}

	return best
}

// scoreName scores one node against one normalized text. The substring scan
// is only a cheap pre-filter; the decision is the word-boundary pattern, which
// keeps "cuscatlan" from matching inside "antiguo cuscatlan". Nodes with an
// empty normalized name never score.
func scoreName(node *models.LocationNode, text string) (score float64, matchedText string, ok bool) {
	if node.NormalizedName == "" {
		return 0, "", false
	}

	if !substringPrefilter(node, text) {
		return 0, "", false
	}

	if node.NamePattern != nil && node.NamePattern.MatchString(text) {
		return scoreExactName, node.DisplayName, true
	}
	if node.NoPrefixPattern != nil && node.NoPrefixName != node.NormalizedName &&
		node.NoPrefixPattern.MatchString(text) {
		return scoreNoPrefixName, fmt.Sprintf("%s (via %s)", node.DisplayName, node.NoPrefixName), true
	}
	for i, alt := range node.AlternateNames {
		if node.AltPatterns[i] != nil && node.AltPatterns[i].MatchString(text) {
			return scoreAlternate, fmt.Sprintf("%s (%s)", node.DisplayName, alt), true
		}
	}

	return 0, "", false
}

func substringPrefilter(node *models.LocationNode, text string) bool {
	if strings.Contains(text, node.NormalizedName) {
		return true
	}
	if node.NoPrefixName != "" && strings.Contains(text, node.NoPrefixName) {
		return true
	}
	for _, alt := range node.AlternateNames {
		if alt != "" && strings.Contains(text, alt) {
			return true
		}
	}
	return false
}
