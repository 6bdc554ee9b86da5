package models

import "encoding/json"

// Listing is one scraped real-estate record as handed over by the scraper.
// Location and Details arrive either as plain strings or as JSON objects
// depending on the source site, so both are kept raw until text extraction.
type Listing struct {
	ExternalID  int64           `json:"external_id"`
	Title       string          `json:"title"`
	Location    json.RawMessage `json:"location,omitempty"`
	Details     json.RawMessage `json:"details,omitempty"`
	Description string          `json:"description"`
	URL         string          `json:"url,omitempty"`
	Source      string          `json:"source,omitempty"`
}

// UnmatchedListing is the review-queue row written for listings that cleared
// no level of the hierarchy. It carries enough context for manual review.
type UnmatchedListing struct {
	ExternalID   int64           `json:"external_id" bson:"external_id"`
	Title        string          `json:"title" bson:"title"`
	LocationData json.RawMessage `json:"location_data,omitempty" bson:"location_data,omitempty"`
	URL          string          `json:"url,omitempty" bson:"url,omitempty"`
	SearchedText string          `json:"searched_text" bson:"searched_text"`
	Source       string          `json:"source" bson:"source"`
	Status       string          `json:"status" bson:"status"`
}

// Review queue statuses.
const (
	ReviewStatusPending  = "pending"
	ReviewStatusResolved = "resolved"
	ReviewStatusIgnored  = "ignored"
)
