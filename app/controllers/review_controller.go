package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/chivocasa/listing-locator/app/models"
	"github.com/chivocasa/listing-locator/app/responses"
	"github.com/chivocasa/listing-locator/app/services"
	"github.com/chivocasa/listing-locator/internal/hierarchy"
)

// ReviewController serves the manual review tooling: near-miss suggestions
// and hierarchy lookups.
type ReviewController struct {
	matching *services.MatchingService
	index    *hierarchy.Index
	chains   *hierarchy.ChainResolver
	logger   *zap.Logger
}

// NewReviewController wires the controller.
func NewReviewController(matching *services.MatchingService, index *hierarchy.Index, logger *zap.Logger) *ReviewController {
	return &ReviewController{
		matching: matching,
		index:    index,
		chains:   hierarchy.NewChainResolver(index),
		logger:   logger,
	}
}

// Suggest returns fuzzy hierarchy candidates for free text.
func (rc *ReviewController) Suggest(c *gin.Context) {
	text := c.Query("text")
	if text == "" {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{
			Error:   "MISSING_TEXT",
			Message: "query parameter 'text' is required",
		})
		return
	}

	limit := 5
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 50 {
			c.JSON(http.StatusBadRequest, responses.ErrorResponse{
				Error:   "INVALID_LIMIT",
				Message: "limit must be an integer between 1 and 50",
			})
			return
		}
		limit = parsed
	}

	c.JSON(http.StatusOK, responses.SuggestResponse{
		Text:        text,
		Suggestions: rc.matching.Suggest(text, limit),
	})
}

// GetLocation returns one hierarchy node with its full parent chain.
func (rc *ReviewController) GetLocation(c *gin.Context) {
	level, err := strconv.Atoi(c.Param("level"))
	if err != nil || level < models.LevelColonia || level > models.LevelDepartment {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{
			Error:   "INVALID_LEVEL",
			Message: "level must be between 2 and 5",
		})
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{
			Error:   "INVALID_ID",
			Message: "id must be an integer",
		})
		return
	}

	node := rc.index.Node(level, id)
	if node == nil {
		c.JSON(http.StatusNotFound, responses.ErrorResponse{
			Error:   "LOCATION_NOT_FOUND",
			Message: "no location at that level with that id",
		})
		return
	}

	var parentChain models.MatchRecord
	rc.chains.ParentChain(node.ID, node.Level).Apply(&parentChain)

	c.JSON(http.StatusOK, responses.LocationResponse{
		Level:       node.Level,
		LevelName:   models.LevelName(node.Level),
		ID:          node.ID,
		DisplayName: node.DisplayName,
		SearchName:  node.NormalizedName,
		Alternates:  node.AlternateNames,
		ParentChain: parentChain,
	})
}
