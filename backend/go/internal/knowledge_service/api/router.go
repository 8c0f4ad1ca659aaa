package api

import (
	"github.com/gin-gonic/gin"

	"Travel_Companion/backend/go/internal/auth"
)

// SetupRouter 配置和返回一个 Gin 引擎实例。
func SetupRouter(h *Handler, jwtSecret string) *gin.Engine {
	// 使用默认中间件 (logger, recovery) 创建一个 Gin 引擎。
	r := gin.Default()

	r.GET("/health", h.Health)

	authMiddleware := auth.Middleware(jwtSecret)

	apiV1 := r.Group("/api/v1")
	{
		knowledge := apiV1.Group("/knowledge")
		knowledge.Use(authMiddleware)
		{
			knowledge.POST("/pois", h.UpsertPOI)
			knowledge.GET("/pois", h.ListPOIs)
			knowledge.GET("/pois/:id", h.GetPOI)
			knowledge.DELETE("/pois/:id", h.DeletePOI)
			knowledge.GET("/search", h.Search)
			knowledge.POST("/ingest", h.Ingest)
			knowledge.POST("/ingest/url", h.IngestURL)
		}
	}

	return r
}
