package requests

import "github.com/chivocasa/listing-locator/app/models"

// MatchListingRequest resolves a single listing synchronously.
type MatchListingRequest struct {
	Listing  models.Listing `json:"listing" binding:"required"`
	Strategy string         `json:"strategy,omitempty"`
	UseCache *bool          `json:"use_cache,omitempty"`
}

// BatchMatchRequest queues a batch of listings as a background job.
type BatchMatchRequest struct {
	Listings []models.Listing `json:"listings" binding:"required,min=1,max=20000"`
	Strategy string           `json:"strategy,omitempty"`
}
