package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"Travel_Companion/backend/go/internal/auth"
	"Travel_Companion/backend/go/internal/chat_service/service"
	"Travel_Companion/backend/go/internal/models"
)

// Handler 封装了聊天服务所有 API endpoint 的处理函数。
type Handler struct {
	service *service.Service
}

// NewHandler 创建一个新的 Handler 实例。
func NewHandler(s *service.Service) *Handler {
	return &Handler{service: s}
}

// ChatRequest 定义了聊天请求的 JSON 结构。context 整体可省略。
type ChatRequest struct {
	Message   string                 `json:"message" binding:"required"`
	SessionID string                 `json:"session_id"`
	Context   *models.AmbientContext `json:"context"`
}

// Chat 处理一次聊天回合。
func (h *Handler) Chat(c *gin.Context) {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "未认证的请求"})
		return
	}

	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.service.Chat(c.Request.Context(), &service.ChatRequest{
		UserID:    userID,
		SessionID: req.SessionID,
		Message:   req.Message,
		Context:   req.Context,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// History 返回时间正序的最近对话。
func (h *Handler) History(c *gin.Context) {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "未认证的请求"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	turns, err := h.service.History(c.Request.Context(), userID, c.Query("session_id"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"turns": turns, "count": len(turns)})
}

// Memories 返回与查询最相关的记忆。
func (h *Handler) Memories(c *gin.Context) {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "未认证的请求"})
		return
	}

	query := c.Query("query")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "缺少 query 参数"})
		return
	}
	topK, _ := strconv.Atoi(c.DefaultQuery("top_k", "0"))

	hits, err := h.service.Memories(c.Request.Context(), userID, query, topK)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"memories": hits, "count": len(hits)})
}

// Facts 返回该用户的全部事实。
func (h *Handler) Facts(c *gin.Context) {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "未认证的请求"})
		return
	}

	facts, err := h.service.Facts(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"facts": facts, "count": len(facts)})
}

// ClearSession 删除一个会话的全部记录。
func (h *Handler) ClearSession(c *gin.Context) {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "未认证的请求"})
		return
	}

	removed, err := h.service.ClearSession(c.Request.Context(), userID, c.Param("session_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "会话已清除", "removed": removed})
}

// Stats 返回该用户的记忆存量统计。
func (h *Handler) Stats(c *gin.Context) {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "未认证的请求"})
		return
	}

	stats, err := h.service.Stats(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// ExpireRequest 定义了手动过期清扫请求的 JSON 结构。
// max_age_hours 为 0 表示清空全部记录。
type ExpireRequest struct {
	MaxAgeHours int `json:"max_age_hours"`
}

// Expire 立即执行一次过期清扫，运维端点。
func (h *Handler) Expire(c *gin.Context) {
	var req ExpireRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	removed, err := h.service.Expire(c.Request.Context(), req.MaxAgeHours)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

// Health 是存活探针。
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
