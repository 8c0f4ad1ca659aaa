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
		chat := apiV1.Group("/chat")
		chat.Use(authMiddleware)
		{
			chat.POST("", h.Chat)
			chat.GET("/history", h.History)
			chat.GET("/memories", h.Memories)
			chat.GET("/facts", h.Facts)
			chat.GET("/stats", h.Stats)
			chat.DELETE("/sessions/:session_id", h.ClearSession)
		}

		// 运维端点，部署时应只暴露给内网。
		admin := apiV1.Group("/admin")
		admin.Use(authMiddleware)
		{
			admin.POST("/memory/expire", h.Expire)
		}
	}

	return r
}
