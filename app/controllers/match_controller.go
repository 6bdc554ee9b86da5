package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/chivocasa/listing-locator/app/models"
	"github.com/chivocasa/listing-locator/app/requests"
	"github.com/chivocasa/listing-locator/app/responses"
	"github.com/chivocasa/listing-locator/app/services"
	"github.com/chivocasa/listing-locator/internal/hierarchy"
)

// MatchController handles listing resolution requests.
type MatchController struct {
	matching *services.MatchingService
	index    *hierarchy.Index
	logger   *zap.Logger
}

// NewMatchController wires the controller.
func NewMatchController(matching *services.MatchingService, index *hierarchy.Index, logger *zap.Logger) *MatchController {
	return &MatchController{matching: matching, index: index, logger: logger}
}

// MatchListing resolves a single listing synchronously.
func (mc *MatchController) MatchListing(c *gin.Context) {
	var req requests.MatchListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{
			Error:   "INVALID_REQUEST",
			Message: "invalid request body: " + err.Error(),
		})
		return
	}

	strategy, err := mc.matching.ResolveStrategy(req.Strategy)
	if err != nil {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{
			Error:   "UNKNOWN_STRATEGY",
			Message: err.Error(),
		})
		return
	}

	start := time.Now()
	var record models.MatchRecord
	var cacheHit bool
	if req.UseCache != nil && !*req.UseCache {
		record, err = mc.matching.MatchListingNoCache(c.Request.Context(), req.Listing, strategy)
	} else {
		record, cacheHit, err = mc.matching.MatchListing(c.Request.Context(), req.Listing, strategy)
	}
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, responses.ErrorResponse{
			Error:   "MATCH_FAILED",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, responses.MatchListingResponse{
		Result:           record,
		Strategy:         string(strategy),
		CacheHit:         cacheHit,
		ProcessingTimeMs: time.Since(start).Milliseconds(),
	})
}

// BatchMatch queues a batch of listings as a background job.
func (mc *MatchController) BatchMatch(c *gin.Context) {
	var req requests.BatchMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{
			Error:   "INVALID_REQUEST",
			Message: "invalid request body: " + err.Error(),
		})
		return
	}

	strategy, err := mc.matching.ResolveStrategy(req.Strategy)
	if err != nil {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{
			Error:   "UNKNOWN_STRATEGY",
			Message: err.Error(),
		})
		return
	}

	jobID := mc.matching.SubmitBatch(req.Listings, strategy)
	mc.logger.Info("batch job accepted",
		zap.String("job_id", jobID), zap.Int("listings", len(req.Listings)))

	c.JSON(http.StatusAccepted, responses.BatchMatchResponse{
		JobID:         jobID,
		TotalListings: len(req.Listings),
		Message:       "job accepted",
	})
}

// GetJobStatus reports a batch job's progress.
func (mc *MatchController) GetJobStatus(c *gin.Context) {
	job, err := mc.matching.JobStatus(c.Param("jobID"))
	if err != nil {
		c.JSON(http.StatusNotFound, responses.ErrorResponse{
			Error:   "JOB_NOT_FOUND",
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, job)
}

// GetJobResults returns the records of a finished job.
func (mc *MatchController) GetJobResults(c *gin.Context) {
	jobID := c.Param("jobID")
	results, err := mc.matching.JobResults(jobID)
	if err != nil {
		c.JSON(http.StatusNotFound, responses.ErrorResponse{
			Error:   "RESULTS_NOT_AVAILABLE",
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, responses.JobResultsResponse{
		JobID:   jobID,
		Results: results,
		Total:   len(results),
	})
}

// GetStats reports hierarchy sizes, cache counters and uptime.
func (mc *MatchController) GetStats(c *gin.Context) {
	resp := responses.StatsResponse{
		UptimeSeconds: mc.matching.Uptime().Seconds(),
		HierarchySize: make(map[string]int, len(models.Levels)),
	}
	for _, level := range models.Levels {
		resp.HierarchySize[models.LevelName(level)] = mc.index.LevelSize(level)
	}

	if stats, err := mc.matching.CacheStats(c.Request.Context()); err != nil {
		mc.logger.Warn("cache stats unavailable", zap.Error(err))
	} else if stats != nil {
		resp.Cache = &responses.CacheStats{
			TotalHits:  stats.TotalHits,
			TotalMiss:  stats.TotalMiss,
			TotalItems: stats.TotalItems,
			HitRate:    stats.HitRate,
		}
	}

	c.JSON(http.StatusOK, resp)
}

// HealthCheck is the liveness probe.
func (mc *MatchController) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, responses.HealthResponse{
		Status:        "ok",
		UptimeSeconds: mc.matching.Uptime().Seconds(),
		Locations:     mc.index.Size(),
	})
}
