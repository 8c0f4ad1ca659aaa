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

	// 使用 v1 版本对 API 进行分组
	apiV1 := r.Group("/api/v1")
	{
		// 用户认证路由组
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", h.Register)
			authGroup.POST("/login", h.Login)
		}

		// 用户资料与权限管理路由组
		users := apiV1.Group("/users")
		users.Use(authMiddleware)
		{
			users.GET("/me", h.Me)
			users.PUT("/me", h.UpdateProfile)
			users.GET("/me/persona", h.GetPersona)
			users.PUT("/me/persona", h.UpdatePersona)
			users.POST("/me/device-tokens", h.RegisterDeviceToken)
			users.DELETE("/me/device-tokens", h.RemoveDeviceToken)
			users.POST("/:id/roles", h.AssignRoleToUser)
		}
	}

	return r
}
