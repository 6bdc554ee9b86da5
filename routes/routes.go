package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/chivocasa/listing-locator/app/controllers"
)

// SetupAllRoutes wires middleware and every route group onto the router.
func SetupAllRoutes(router *gin.Engine, matchController *controllers.MatchController, reviewController *controllers.ReviewController) {
	setupMiddleware(router)

	SetupHealthRoutes(router, matchController)
	SetupAPIRoutes(router, matchController, reviewController)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(404, gin.H{
			"error":  "route not found",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})
}

func setupMiddleware(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
}
