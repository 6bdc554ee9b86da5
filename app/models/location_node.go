package models

import "regexp"

// Hierarchy levels, from most general to most specific. Level 1 (country)
// is implicit: everything belongs to El Salvador.
const (
	LevelDepartment   = 5
	LevelRegion       = 4
	LevelMunicipality = 3
	LevelColonia      = 2
)

// Levels lists all hierarchy levels in general-to-specific order.
var Levels = []int{LevelDepartment, LevelRegion, LevelMunicipality, LevelColonia}

// HierarchyRow is one raw row from an sv_loc_group{level} table, before any
// normalization.
type HierarchyRow struct {
	ID          int64   `json:"id"`
	DisplayName string  `json:"loc_name"`
	SearchName  string  `json:"loc_name_search,omitempty"`
	DetailsText string  `json:"details,omitempty"`
	ParentID    *int64  `json:"parent_loc_group,omitempty"`
}

// LocationNode is one indexed hierarchy entry with its precomputed matching
// material. Nodes are owned exclusively by the LocationIndex; everything else
// holds them by reference and never mutates them after Build.
type LocationNode struct {
	ID             int64
	Level          int
	DisplayName    string
	NormalizedName string
	NoPrefixName   string
	AlternateNames []string
	ParentID       *int64

	// Word-boundary patterns compiled once at index build time, aligned with
	// NormalizedName, NoPrefixName and AlternateNames. A nil entry means the
	// corresponding name is empty and never matches.
	NamePattern     *regexp.Regexp
	NoPrefixPattern *regexp.Regexp
	AltPatterns     []*regexp.Regexp
}

// LevelName returns the Spanish tier name used in logs and review tooling.
func LevelName(level int) string {
	switch level {
	case LevelDepartment:
		return "departamento"
	case LevelRegion:
		return "region"
	case LevelMunicipality:
		return "municipio"
	case LevelColonia:
		return "colonia"
	default:
		return "unknown"
	}
}
