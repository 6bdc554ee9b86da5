package matcher

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/chivocasa/listing-locator/app/models"
	"github.com/chivocasa/listing-locator/internal/hierarchy"
	"github.com/chivocasa/listing-locator/internal/normalizer"
)

// Strategy selects which level a listing is probed at first. The two
// strategies trade off different false positives and are deliberately kept
// separate; see DESIGN.md.
type Strategy string

const (
	// StrategyDepartmentFirst resolves the department globally, then
	// descends into its scoped levels, most specific first. Used by the
	// offline backfill runs.
	StrategyDepartmentFirst Strategy = "department-first"

	// StrategyMunicipalityFirst probes municipalities globally before
	// departments. Municipality names are more discriminating, which avoids
	// department names matching inside distinct municipality names. Used by
	// the ingestion-time matcher.
	StrategyMunicipalityFirst Strategy = "municipality-first"
)

// ParseStrategy maps a config string to a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategyDepartmentFirst, StrategyMunicipalityFirst:
		return Strategy(s), nil
	}
	return "", fmt.Errorf("unknown match strategy %q", s)
}

// Orchestrator runs one strategy over one listing's texts and produces a
// finished match record. It holds only read-only references and is safe for
// concurrent use across listings.
type Orchestrator struct {
	index    *hierarchy.Index
	engine   *Engine
	scopes   *hierarchy.ScopeResolver
	chains   *hierarchy.ChainResolver
	strategy Strategy
	logger   *zap.Logger
}

// NewOrchestrator wires an orchestrator over a finished index.
func NewOrchestrator(index *hierarchy.Index, engine *Engine, strategy Strategy, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		index:    index,
		engine:   engine,
		scopes:   hierarchy.NewScopeResolver(index),
		chains:   hierarchy.NewChainResolver(index),
		strategy: strategy,
		logger:   logger,
	}
}

// Match resolves one listing. The returned record is complete: either a
// consistent chain from the matched level up to the department, or all-null
// for a legitimate no-match. Data-quality problems never surface as errors.
func (o *Orchestrator) Match(externalID int64, texts normalizer.SourceTexts) models.MatchRecord {
	if texts.Empty() {
		return models.MatchRecord{ExternalID: externalID}
	}

	var record models.MatchRecord
	switch o.strategy {
	case StrategyMunicipalityFirst:
		record = o.matchMunicipalityFirst(texts)
	default:
		record = o.matchDepartmentFirst(texts)
	}
	record.ExternalID = externalID

	if record.Matched() {
		o.logger.Debug("listing matched",
			zap.Int64("external_id", externalID),
			zap.Intp("level", record.MatchLevel),
			zap.Float64p("score", record.MatchScore))
	} else {
		o.logger.Debug("listing unmatched", zap.Int64("external_id", externalID))
	}
	return record
}

// matchDepartmentFirst is the scoped-descent strategy: department globally,
// then its descendants at levels 2, 3, 4 (most specific wins), with global
// municipality and colonia probes as fallbacks when no department matched.
// Every lookup uses the multiplicative source weighting.
func (o *Orchestrator) matchDepartmentFirst(texts normalizer.SourceTexts) models.MatchRecord {
	dept := o.engine.FindBestWeighted(texts, o.index.NodesAt(models.LevelDepartment))
	if o.engine.Accepted(dept) {
		record := o.buildRecord(dept, models.LevelDepartment)
		if lower, lowerLevel := o.scopedDescent(texts, dept.Node.ID); lower != nil {
			record = o.buildRecord(lower, lowerLevel)
		}
		return record
	}

	if muni := o.engine.FindBestWeighted(texts, o.index.NodesAt(models.LevelMunicipality)); o.engine.Accepted(muni) {
		record := o.buildRecord(muni, models.LevelMunicipality)
		o.upgradeToColonia(&record, texts, muni.Node.ID, o.engine.FindBestWeighted)
		return record
	}

	if colonia := o.engine.FindBestWeighted(texts, o.index.NodesAt(models.LevelColonia)); o.engine.Accepted(colonia) {
		return o.buildRecord(colonia, models.LevelColonia)
	}

	return models.MatchRecord{}
}

// matchMunicipalityFirst probes municipalities globally first, using the
// additive source tie-break for the global probes. A matched municipality is
// refined with a colonia search among its children; otherwise the department
// route runs with the same scoped descent as the department-first strategy,
// and a global colonia probe is the last resort.
func (o *Orchestrator) matchMunicipalityFirst(texts normalizer.SourceTexts) models.MatchRecord {
	if muni := o.engine.FindBestPrioritized(texts, o.index.NodesAt(models.LevelMunicipality)); o.engine.Accepted(muni) {
		record := o.buildRecord(muni, models.LevelMunicipality)
		o.upgradeToColonia(&record, texts, muni.Node.ID, o.engine.FindBestPrioritized)
		return record
	}

	if dept := o.engine.FindBestPrioritized(texts, o.index.NodesAt(models.LevelDepartment)); o.engine.Accepted(dept) {
		record := o.buildRecord(dept, models.LevelDepartment)
		if lower, lowerLevel := o.scopedDescent(texts, dept.Node.ID); lower != nil {
			record = o.buildRecord(lower, lowerLevel)
		}
		return record
	}

	if colonia := o.engine.FindBestPrioritized(texts, o.index.NodesAt(models.LevelColonia)); o.engine.Accepted(colonia) {
		return o.buildRecord(colonia, models.LevelColonia)
	}

	return models.MatchRecord{}
}

// scopedDescent searches levels 2, 3 and 4 restricted to descendants of the
// matched department, most specific level first. Among accepted candidates
// the lowest level wins; within a level, the higher score. Returns nil when
// no scoped level clears the threshold.
func (o *Orchestrator) scopedDescent(texts normalizer.SourceTexts, deptID int64) (*Candidate, int) {
	var best *Candidate
	bestLevel := models.LevelDepartment

	for _, level := range []int{models.LevelColonia, models.LevelMunicipality, models.LevelRegion} {
		scope := o.scopes.DescendantsAtLevel(level, deptID)
		if len(scope) == 0 {
			continue
		}
		pool := o.filterByScope(level, scope)

		cand := o.engine.FindBestWeighted(texts, pool)
		if !o.engine.Accepted(cand) {
			continue
		}
		switch {
		case level < bestLevel:
			best, bestLevel = cand, level
		case level == bestLevel && cand.Score > best.Score:
			best = cand
		}
	}

	if best == nil {
		return nil, 0
	}
	return best, bestLevel
}

// upgradeToColonia refines a municipality-level record with a colonia search
// restricted to that municipality's children. The municipality chain is kept;
// only the colonia slot and the match provenance change on success.
func (o *Orchestrator) upgradeToColonia(record *models.MatchRecord, texts normalizer.SourceTexts,
	muniID int64, lookup func(normalizer.SourceTexts, []*models.LocationNode) *Candidate) {

	pool := o.index.ChildrenOf(models.LevelColonia, muniID)
	if len(pool) == 0 {
		return
	}
	colonia := lookup(texts, pool)
	if !o.engine.Accepted(colonia) {
		return
	}

	record.SetLocGroup(models.LevelColonia, colonia.Node.ID)
	level := models.LevelColonia
	record.MatchLevel = &level
	score := models.RoundScore(colonia.Score)
	record.MatchScore = &score
	src := string(colonia.Source)
	record.MatchSource = &src
	text := models.TruncateMatchedText(colonia.MatchedText)
	record.MatchedText = &text
}

// filterByScope keeps the level's load order while restricting it to the
// scoped id set, so tie behavior matches the global pools.
func (o *Orchestrator) filterByScope(level int, scope map[int64]struct{}) []*models.LocationNode {
	pool := make([]*models.LocationNode, 0, len(scope))
	for _, node := range o.index.NodesAt(level) {
		if _, ok := scope[node.ID]; ok {
			pool = append(pool, node)
		}
	}
	return pool
}

// buildRecord assembles the final record for an accepted candidate: the full
// parent chain from the matched level upward plus the match provenance.
func (o *Orchestrator) buildRecord(c *Candidate, level int) models.MatchRecord {
	var record models.MatchRecord

	chain := o.chains.ParentChain(c.Node.ID, level)
	chain.Apply(&record)

	lv := level
	record.MatchLevel = &lv
	score := models.RoundScore(c.Score)
	record.MatchScore = &score
	src := string(c.Source)
	record.MatchSource = &src
	text := models.TruncateMatchedText(c.MatchedText)
	record.MatchedText = &text

	return record
}
