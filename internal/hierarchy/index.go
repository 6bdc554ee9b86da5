// Package hierarchy holds the in-memory location index built once per
// matching run, plus the scope and chain resolvers that walk its parent links.
// The index is read-only after Build and safe to share across workers.
package hierarchy

import (
	"regexp"

	"go.uber.org/zap"

	"github.com/chivocasa/listing-locator/app/models"
	"github.com/chivocasa/listing-locator/internal/normalizer"
)

// Index maps each hierarchy level (2..5) to its nodes. Per level it keeps both
// an id lookup and the load-ordered slice lookup loops iterate; that slice
// order is the documented "first wins" tie order.
type Index struct {
	byID    map[int]map[int64]*models.LocationNode
	ordered map[int][]*models.LocationNode
}

// Build indexes raw hierarchy rows, precomputing every node's normalized
// name, prefix-stripped name, alternate names and word-boundary patterns.
// Rows without a usable name are still indexed so parent chains resolve, but
// their empty names never score. Missing levels degrade to empty maps.
func Build(rowsByLevel map[int][]models.HierarchyRow, logger *zap.Logger) *Index {
	idx := &Index{
		byID:    make(map[int]map[int64]*models.LocationNode, len(models.Levels)),
		ordered: make(map[int][]*models.LocationNode, len(models.Levels)),
	}

	for _, level := range models.Levels {
		rows := rowsByLevel[level]
		idx.byID[level] = make(map[int64]*models.LocationNode, len(rows))
		idx.ordered[level] = make([]*models.LocationNode, 0, len(rows))

		for _, row := range rows {
			node := buildNode(level, row)
			idx.byID[level][node.ID] = node
			idx.ordered[level] = append(idx.ordered[level], node)
		}

		logger.Info("indexed hierarchy level",
			zap.Int("level", level),
			zap.String("tier", models.LevelName(level)),
			zap.Int("nodes", len(rows)))
	}

	return idx
}

func buildNode(level int, row models.HierarchyRow) *models.LocationNode {
	searchName := row.SearchName
	if searchName == "" {
		searchName = row.DisplayName
	}

	node := &models.LocationNode{
		ID:             row.ID,
		Level:          level,
		DisplayName:    row.DisplayName,
		NormalizedName: normalizer.Normalize(searchName),
		NoPrefixName:   normalizer.StripPrefixes(row.DisplayName),
		ParentID:       row.ParentID,
	}

	// The free-text details column often carries a historic name, e.g.
	// "Nueva San Salvador" for Santa Tecla. Both its normalized and
	// prefix-stripped forms become alternates.
	if row.DetailsText != "" {
		alt := normalizer.Normalize(row.DetailsText)
		altNoPrefix := normalizer.StripPrefixes(row.DetailsText)
		node.AlternateNames = append(node.AlternateNames, alt)
		if altNoPrefix != alt {
			node.AlternateNames = append(node.AlternateNames, altNoPrefix)
		}
	}

	node.NamePattern = wholeWordPattern(node.NormalizedName)
	node.NoPrefixPattern = wholeWordPattern(node.NoPrefixName)
	for _, alt := range node.AlternateNames {
		node.AltPatterns = append(node.AltPatterns, wholeWordPattern(alt))
	}

	return node
}

// wholeWordPattern compiles the single reusable "contains as whole word"
// predicate used by every match site. The boundary check is what keeps
// "cuscatlan" from matching inside "antiguo cuscatlan".
func wholeWordPattern(name string) *regexp.Regexp {
	if name == "" {
		return nil
	}
	return regexp.MustCompile(`\b` + regexp.QuoteMeta(name) + `\b`)
}

// Node returns the node with the given id at level, or nil.
func (idx *Index) Node(level int, id int64) *models.LocationNode {
	return idx.byID[level][id]
}

// NodesAt returns the load-ordered nodes at a level. Callers must not mutate
// the returned slice.
func (idx *Index) NodesAt(level int) []*models.LocationNode {
	return idx.ordered[level]
}

// ChildrenOf returns the nodes at level whose parent is parentID, preserving
// load order.
func (idx *Index) ChildrenOf(level int, parentID int64) []*models.LocationNode {
	var children []*models.LocationNode
	for _, node := range idx.ordered[level] {
		if node.ParentID != nil && *node.ParentID == parentID {
			children = append(children, node)
		}
	}
	return children
}

// LevelSize returns the node count at a level.
func (idx *Index) LevelSize(level int) int {
	return len(idx.ordered[level])
}

// Size returns the total node count across all levels.
func (idx *Index) Size() int {
	total := 0
	for _, nodes := range idx.ordered {
		total += len(nodes)
	}
	return total
}
