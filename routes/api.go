package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/chivocasa/listing-locator/app/controllers"
)

// SetupAPIRoutes registers the /api/v1 route group.
func SetupAPIRoutes(router *gin.Engine, matchController *controllers.MatchController, reviewController *controllers.ReviewController) {
	v1 := router.Group("/api/v1")
	{
		v1.POST("/match", matchController.MatchListing)

		jobs := v1.Group("/jobs")
		{
			jobs.POST("", matchController.BatchMatch)
			jobs.GET("/:jobID/status", matchController.GetJobStatus)
			jobs.GET("/:jobID/results", matchController.GetJobResults)
		}

		review := v1.Group("/review")
		{
			review.GET("/suggest", reviewController.Suggest)
		}

		v1.GET("/locations/:level/:id", reviewController.GetLocation)
		v1.GET("/stats", matchController.GetStats)
	}
}

// SetupHealthRoutes registers the probe endpoints.
func SetupHealthRoutes(router *gin.Engine, matchController *controllers.MatchController) {
	router.GET("/health", matchController.HealthCheck)
	router.GET("/ready", matchController.HealthCheck)
	router.GET("/live", matchController.HealthCheck)
}
