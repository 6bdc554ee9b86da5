package models

import (
	"math"
	"unicode/utf8"
)

// MatchedTextLimit caps the matched display text persisted with a record.
const MatchedTextLimit = 255

// MatchRecord is the per-listing output of the matching engine: the resolved
// hierarchy chain plus the provenance of the winning candidate. All four
// LocGroup ids are nil together, or populated from MatchLevel up to level 5.
// A record is built once by the orchestrator and never mutated afterwards.
type MatchRecord struct {
	ExternalID  int64    `json:"externalId" bson:"external_id"`
	LocGroup2ID *int64   `json:"locGroup2Id" bson:"loc_group2_id,omitempty"`
	LocGroup3ID *int64   `json:"locGroup3Id" bson:"loc_group3_id,omitempty"`
	LocGroup4ID *int64   `json:"locGroup4Id" bson:"loc_group4_id,omitempty"`
	LocGroup5ID *int64   `json:"locGroup5Id" bson:"loc_group5_id,omitempty"`
	MatchLevel  *int     `json:"matchLevel" bson:"match_level,omitempty"`
	MatchScore  *float64 `json:"matchScore" bson:"match_score,omitempty"`
	MatchSource *string  `json:"matchSource" bson:"match_source,omitempty"`
	MatchedText *string  `json:"matchedText" bson:"matched_text,omitempty"`
}

// Matched reports whether the record resolved any level of the hierarchy.
func (r *MatchRecord) Matched() bool {
	return r.LocGroup2ID != nil || r.LocGroup3ID != nil ||
		r.LocGroup4ID != nil || r.LocGroup5ID != nil
}

// SetLocGroup stores id at the given hierarchy level.
func (r *MatchRecord) SetLocGroup(level int, id int64) {
	v := id
	switch level {
	case LevelColonia:
		r.LocGroup2ID = &v
	case LevelMunicipality:
		r.LocGroup3ID = &v
	case LevelRegion:
		r.LocGroup4ID = &v
	case LevelDepartment:
		r.LocGroup5ID = &v
	}
}

// LocGroup returns the id stored at the given level, or nil.
func (r *MatchRecord) LocGroup(level int) *int64 {
	switch level {
	case LevelColonia:
		return r.LocGroup2ID
	case LevelMunicipality:
		return r.LocGroup3ID
	case LevelRegion:
		return r.LocGroup4ID
	case LevelDepartment:
		return r.LocGroup5ID
	}
	return nil
}

// RoundScore rounds a match score to two decimals for persistence.
func RoundScore(score float64) float64 {
	return math.Round(score*100) / 100
}

// TruncateMatchedText trims text to the persisted column limit, backing up
// to a rune boundary so accented names never persist as broken UTF-8.
func TruncateMatchedText(text string) string {
	if len(text) <= MatchedTextLimit {
		return text
	}
	cut := MatchedTextLimit
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}
