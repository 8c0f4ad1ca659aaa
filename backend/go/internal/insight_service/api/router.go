package api

import (
	"github.com/gin-gonic/gin"

	"Travel_Companion/backend/go/internal/auth"
)

// RegisterRoutes registers all the routes for the insight service.
func RegisterRoutes(router *gin.Engine, api *API, jwtSecret string) {
	router.GET("/health", api.Health)

	authMiddleware := auth.Middleware(jwtSecret)

	v1 := router.Group("/api/v1")
	v1.Use(authMiddleware)
	{
		v1.POST("/travel-dna/analyze", api.AnalyzeDNAHandler)
		v1.GET("/travel-dna/:user_id", api.GetDNAHandler)

		v1.POST("/recommendations/generate", api.RecommendHandler)
		v1.GET("/recommendations", api.RecommendationHistoryHandler)

		v1.POST("/models/train", api.SubmitJobHandler)
		v1.GET("/models/jobs", api.GetJobsHandler)
		v1.GET("/models/jobs/:id", api.GetJobHandler)
	}

	ws := router.Group("/ws")
	ws.Use(authMiddleware)
	{
		ws.GET("/jobs", api.WebSocketHandler)
	}
}
