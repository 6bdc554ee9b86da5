package matcher

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/chivocasa/listing-locator/internal/normalizer"
)

// Base scores for the three ways a candidate name can appear in a text.
const (
	scoreExactName    = 1.0
	scoreNoPrefixName = 0.95
	scoreAlternate    = 0.9
)

// Config carries the scoring constants. Defaults are the production values;
// a matcher.yaml can override them for offline tuning runs.
type Config struct {
	// Threshold is the minimum score ever accepted as a match. Anything
	// below it is reported as no-match, never as a weak match.
	Threshold float64 `yaml:"threshold"`

	// SourceWeights discount a hit multiplicatively by the text source it
	// came from. Used by the scoped, level-by-level lookups.
	SourceWeights map[normalizer.TextSource]float64 `yaml:"source_weights"`

	// SourcePriorities order sources for the additive tie-break used by
	// global level probes: higher priority wins between equal base scores
	// without discounting either.
	SourcePriorities map[normalizer.TextSource]int `yaml:"source_priorities"`

	// TieBreakStep is the per-priority-unit additive nudge. Small enough
	// that it can never bridge two distinct base scores.
	TieBreakStep float64 `yaml:"tie_break_step"`
}

// DefaultConfig returns the production scoring constants.
func DefaultConfig() Config {
	return Config{
		Threshold: 0.9,
		SourceWeights: map[normalizer.TextSource]float64{
			normalizer.SourceLocation:    1.0,
			normalizer.SourceTitle:       1.0,
			normalizer.SourceDetails:     0.85,
			normalizer.SourceDescription: 0.75,
		},
		SourcePriorities: map[normalizer.TextSource]int{
			normalizer.SourceLocation:    4,
			normalizer.SourceTitle:       3,
			normalizer.SourceDetails:     2,
			normalizer.SourceDescription: 1,
		},
		TieBreakStep: 0.001,
	}
}

// LoadConfig reads a matcher.yaml, filling unset fields from the defaults.
// An empty path means run on defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read matcher config: %w", err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse matcher config: %w", err)
	}

	if cfg.Threshold <= 0 {
		cfg.Threshold = DefaultConfig().Threshold
	}
	if cfg.TieBreakStep <= 0 {
		cfg.TieBreakStep = DefaultConfig().TieBreakStep
	}
	for src, w := range DefaultConfig().SourceWeights {
		if _, ok := cfg.SourceWeights[src]; !ok {
			if cfg.SourceWeights == nil {
				cfg.SourceWeights = make(map[normalizer.TextSource]float64)
			}
			cfg.SourceWeights[src] = w
		}
	}
	for src, p := range DefaultConfig().SourcePriorities {
		if _, ok := cfg.SourcePriorities[src]; !ok {
			if cfg.SourcePriorities == nil {
				cfg.SourcePriorities = make(map[normalizer.TextSource]int)
			}
			cfg.SourcePriorities[src] = p
		}
	}

	return cfg, nil
}
