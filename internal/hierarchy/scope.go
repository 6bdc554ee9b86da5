package hierarchy

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/chivocasa/listing-locator/app/models"
)

// scopeCacheSize comfortably covers every (level, department) pair in the
// country; the LRU only bounds memory if the hierarchy grows unexpectedly.
const scopeCacheSize = 256

type scopeKey struct {
	level  int
	deptID int64
}

// ScopeResolver computes the descendant id set of a department at a target
// level by walking parent links downward. Results are memoized per
// (level, department) for the duration of a batch run; the cache is
// thread-safe so concurrent workers share it.
type ScopeResolver struct {
	index *Index
	cache *lru.Cache[scopeKey, map[int64]struct{}]
}

// NewScopeResolver builds a resolver over a finished index.
func NewScopeResolver(index *Index) *ScopeResolver {
	cache, _ := lru.New[scopeKey, map[int64]struct{}](scopeCacheSize)
	return &ScopeResolver{index: index, cache: cache}
}

// DescendantsAtLevel returns the ids of every node at targetLevel whose
// ancestor chain leads to the given department. Callers must treat the
// returned set as read-only.
func (sr *ScopeResolver) DescendantsAtLevel(targetLevel int, deptID int64) map[int64]struct{} {
	key := scopeKey{level: targetLevel, deptID: deptID}
	if cached, ok := sr.cache.Get(key); ok {
		return cached
	}

	set := sr.compute(targetLevel, deptID)
	sr.cache.Add(key, set)
	return set
}

func (sr *ScopeResolver) compute(targetLevel int, deptID int64) map[int64]struct{} {
	switch targetLevel {
	case models.LevelRegion:
		return sr.childSet(models.LevelRegion, map[int64]struct{}{deptID: {}})
	case models.LevelMunicipality:
		regions := sr.DescendantsAtLevel(models.LevelRegion, deptID)
		return sr.childSet(models.LevelMunicipality, regions)
	case models.LevelColonia:
		municipalities := sr.DescendantsAtLevel(models.LevelMunicipality, deptID)
		return sr.childSet(models.LevelColonia, municipalities)
	}
	return map[int64]struct{}{}
}

// childSet collects the ids at level whose parent is in parents.
func (sr *ScopeResolver) childSet(level int, parents map[int64]struct{}) map[int64]struct{} {
	set := make(map[int64]struct{})
	for _, node := range sr.index.NodesAt(level) {
		if node.ParentID == nil {
			continue
		}
		if _, ok := parents[*node.ParentID]; ok {
			set[node.ID] = struct{}{}
		}
	}
	return set
}
