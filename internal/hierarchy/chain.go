package hierarchy

import "github.com/chivocasa/listing-locator/app/models"

// maxChainSteps bounds the upward walk. The hierarchy is four levels deep;
// anything longer means broken data and the walk stops rather than loops.
const maxChainSteps = 4

// Chain holds the resolved ancestor ids of one matched node, levels 2 through
// 5. Levels below the matched node stay nil; levels above are nil only when a
// parent link is missing or broken.
type Chain struct {
	LocGroup2ID *int64
	LocGroup3ID *int64
	LocGroup4ID *int64
	LocGroup5ID *int64
}

// set stores id at the chain slot for level.
func (c *Chain) set(level int, id int64) {
	v := id
	switch level {
	case models.LevelColonia:
		c.LocGroup2ID = &v
	case models.LevelMunicipality:
		c.LocGroup3ID = &v
	case models.LevelRegion:
		c.LocGroup4ID = &v
	case models.LevelDepartment:
		c.LocGroup5ID = &v
	}
}

// Apply copies the chain into a match record's loc group fields.
func (c Chain) Apply(record *models.MatchRecord) {
	record.LocGroup2ID = c.LocGroup2ID
	record.LocGroup3ID = c.LocGroup3ID
	record.LocGroup4ID = c.LocGroup4ID
	record.LocGroup5ID = c.LocGroup5ID
}

// ChainResolver derives full parent chains from the index.
type ChainResolver struct {
	index *Index
}

// NewChainResolver builds a resolver over a finished index.
func NewChainResolver(index *Index) *ChainResolver {
	return &ChainResolver{index: index}
}

// ParentChain records the node at its own level, then steps up one level at a
// time until level 5. A missing node or absent parent link ends the walk
// early; upper levels simply stay nil. It never returns an error.
func (cr *ChainResolver) ParentChain(nodeID int64, level int) Chain {
	var chain Chain
	chain.set(level, nodeID)

	currentID := nodeID
	currentLevel := level
	for step := 0; step < maxChainSteps && currentLevel < models.LevelDepartment; step++ {
		node := cr.index.Node(currentLevel, currentID)
		if node == nil || node.ParentID == nil {
			break
		}
		parentID := *node.ParentID
		parentLevel := currentLevel + 1

		// A parent id pointing at nothing is broken data; the id is not
		// recorded and the walk ends.
		if cr.index.Node(parentLevel, parentID) == nil {
			break
		}
		chain.set(parentLevel, parentID)
		currentID = parentID
		currentLevel = parentLevel
	}

	return chain
}
