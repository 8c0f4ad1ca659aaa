package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"Travel_Companion/backend/go/internal/knowledge_service/service"
	"Travel_Companion/backend/go/internal/models"
)

// Handler 封装了知识服务所有 API endpoint 的处理函数。
type Handler struct {
	pois     *service.Service
	ingestor *service.Ingestor // 可为 nil，此时摄取端点返回 503
}

// NewHandler 创建一个新的 Handler 实例。
func NewHandler(pois *service.Service, ingestor *service.Ingestor) *Handler {
	return &Handler{pois: pois, ingestor: ingestor}
}

// UpsertPOIRequest 定义了景点写入请求的 JSON 结构。poi_id 省略时
// 自动生成。
type UpsertPOIRequest struct {
	POIID       string `json:"poi_id"`
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Tips        string `json:"tips"`
}

// UpsertPOI 写入或整行替换一个景点。
func (h *Handler) UpsertPOI(c *gin.Context) {
	var req UpsertPOIRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.POIID == "" {
		req.POIID = uuid.New().String()
	}

	record := &models.POIRecord{
		ID:          req.POIID,
		Name:        req.Name,
		Description: req.Description,
		Tips:        req.Tips,
	}
	if err := h.pois.Upsert(c.Request.Context(), record); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "景点已写入", "poi_id": record.ID})
}

// GetPOI 按 ID 读取一个景点。
func (h *Handler) GetPOI(c *gin.Context) {
	record, err := h.pois.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if record == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "景点不存在"})
		return
	}

	c.JSON(http.StatusOK, record)
}

// ListPOIs 分页返回景点。
func (h *Handler) ListPOIs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	records, err := h.pois.List(c.Request.Context(), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"pois": records, "count": len(records)})
}

// DeletePOI 删除一个景点。
func (h *Handler) DeletePOI(c *gin.Context) {
	if err := h.pois.Delete(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "景点已删除"})
}

// Search 语义检索景点。
func (h *Handler) Search(c *gin.Context) {
	query := c.Query("query")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "缺少 query 参数"})
		return
	}
	topK, _ := strconv.Atoi(c.DefaultQuery("top_k", "0"))

	hits, err := h.pois.Search(c.Request.Context(), query, topK)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"hits": hits, "count": len(hits)})
}

// IngestRequest 定义了批量摄取请求的 JSON 结构。
type IngestRequest struct {
	Pattern string `json:"pattern"` // 对象名的 glob 匹配模式，为空摄取全部
}

// Ingest 摄取存储桶中的指南文档。
func (h *Handler) Ingest(c *gin.Context) {
	if h.ingestor == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "对象存储未配置"})
		return
	}

	var req IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report, err := h.ingestor.IngestBucket(c.Request.Context(), req.Pattern)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, report)
}

// IngestURLRequest 定义了网页摄取请求的 JSON 结构。
type IngestURLRequest struct {
	URL string `json:"url" binding:"required,url"`
}

// IngestURL 抓取并摄取一个网页。
func (h *Handler) IngestURL(c *gin.Context) {
	if h.ingestor == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "对象存储未配置"})
		return
	}

	var req IngestURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report, err := h.ingestor.IngestWebPage(c.Request.Context(), req.URL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, report)
}

// Health 是存活探针。
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
