package normalizer

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/chivocasa/listing-locator/app/models"
)

// TextSource names one of the four listing fields a candidate can match in.
type TextSource string

const (
	SourceTitle       TextSource = "title"
	SourceLocation    TextSource = "location"
	SourceDetails     TextSource = "details"
	SourceDescription TextSource = "description"
)

// SourcesByPriority lists sources most-trusted first. Lookup loops follow this
// order, which is what makes "first wins among equal scores" deterministic.
var SourcesByPriority = []TextSource{SourceLocation, SourceTitle, SourceDetails, SourceDescription}

// SourceTexts carries one normalized string per text source. Absent fields are
// empty strings and contribute no candidates.
type SourceTexts struct {
	Title       string
	Location    string
	Details     string
	Description string
}

// Get returns the normalized text for a source.
func (t SourceTexts) Get(src TextSource) string {
	switch src {
	case SourceTitle:
		return t.Title
	case SourceLocation:
		return t.Location
	case SourceDetails:
		return t.Details
	case SourceDescription:
		return t.Description
	}
	return ""
}

// Fingerprint hashes the four normalized texts into a stable cache key.
// Listings re-scraped with identical text resolve to the same match without
// re-running the engine.
func (t SourceTexts) Fingerprint() string {
	h := sha256.New()
	for _, src := range SourcesByPriority {
		h.Write([]byte(t.Get(src)))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Empty reports whether no source carries any text.
func (t SourceTexts) Empty() bool {
	return t.Title == "" && t.Location == "" && t.Details == "" && t.Description == ""
}

// locationKeys are the structured-location fields scraped by some sites, in
// the order they are concatenated into the location line.
var locationKeys = []string{"municipio_detectado", "direccion", "departamento", "zona"}

// BuildSourceTexts reduces a raw listing to one normalized string per source.
// Location and details may arrive as JSON objects; objects are flattened to
// text rather than rejected.
func BuildSourceTexts(listing models.Listing) SourceTexts {
	return SourceTexts{
		Title:       Normalize(listing.Title),
		Location:    Normalize(flattenLocation(listing.Location)),
		Details:     Normalize(flattenRaw(listing.Details)),
		Description: Normalize(listing.Description),
	}
}

// flattenLocation extracts the known location fields from a structured
// location object, falling back to the raw string for plain-text sources.
func flattenLocation(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err == nil {
		parts := make([]string, 0, len(locationKeys))
		for _, key := range locationKeys {
			if v, ok := obj[key].(string); ok && v != "" {
				parts = append(parts, v)
			}
		}
		return strings.Join(parts, " ")
	}
	return flattenRaw(raw)
}

// flattenRaw turns a string-or-object JSON value into searchable text. Objects
// keep their serialized form; word-boundary matching is unaffected by the
// surrounding punctuation.
func flattenRaw(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
