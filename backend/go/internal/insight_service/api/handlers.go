package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"Travel_Companion/backend/go/internal/auth"
	"Travel_Companion/backend/go/internal/insight_service/service"
	"Travel_Companion/backend/go/internal/models"
	"Travel_Companion/backend/go/pkg/logger"
)

// API provides handlers for the insight service.
type API struct {
	service  *service.Service
	logger   *logger.Logger
	upgrader websocket.Upgrader
}

// NewAPI creates a new API handler.
func NewAPI(service *service.Service, logger *logger.Logger) *API {
	return &API{
		service: service,
		logger:  logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // In production, implement a proper origin check.
			},
		},
	}
}

// userID extracts the authenticated user's ID as the string form used by the
// insight store.
func userID(c *gin.Context) (string, bool) {
	id, ok := auth.UserIDFromContext(c)
	if !ok {
		return "", false
	}
	return strconv.FormatUint(uint64(id), 10), true
}

// AnalyzeDNAHandler scores a submitted quiz and returns the resulting profile.
func (a *API) AnalyzeDNAHandler(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	var req struct {
		Answers models.QuizAnswers `json:"answers" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	profile, err := a.service.AnalyzeDNA(c.Request.Context(), uid, req.Answers)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to analyze quiz"})
		return
	}

	c.JSON(http.StatusOK, profile)
}

// GetDNAHandler returns the stored DNA profile of the requested user. Users
// can only read their own profile.
func (a *API) GetDNAHandler(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	if c.Param("user_id") != uid {
		c.JSON(http.StatusForbidden, gin.H{"error": "cannot read another user's profile"})
		return
	}

	profile, err := a.service.GetDNA(c.Request.Context(), uid)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve profile"})
		return
	}
	if profile == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No DNA profile yet"})
		return
	}

	c.JSON(http.StatusOK, profile)
}

// RecommendHandler generates a fresh recommendation set for the current user.
func (a *API) RecommendHandler(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	var req struct {
		Location string `json:"location"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	rec, err := a.service.Recommend(c.Request.Context(), uid, req.Location)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, rec)
}

// RecommendationHistoryHandler lists previously generated recommendations.
func (a *API) RecommendationHistoryHandler(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	recs, err := a.service.RecommendationHistory(c.Request.Context(), uid, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve recommendations"})
		return
	}

	c.JSON(http.StatusOK, recs)
}

// SubmitJobHandler submits a new training job.
func (a *API) SubmitJobHandler(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	var req struct {
		Kind string `json:"kind" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	job, err := a.service.SubmitJob(c.Request.Context(), uid, req.Kind)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to submit job"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"job_id": job.ID})
}

// GetJobHandler returns a single training job by ID.
func (a *API) GetJobHandler(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	job, err := a.service.GetJobByID(c.Request.Context(), c.Param("id"), uid)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve job"})
		return
	}
	if job == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Job not found or not authorized"})
		return
	}

	c.JSON(http.StatusOK, job)
}

// GetJobsHandler lists the current user's training jobs.
func (a *API) GetJobsHandler(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	jobs, err := a.service.GetUserJobs(c.Request.Context(), uid, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve jobs"})
		return
	}

	c.JSON(http.StatusOK, jobs)
}

// WebSocketHandler upgrades the connection and streams job updates to the
// user until the peer goes away.
func (a *API) WebSocketHandler(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	conn, err := a.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		a.logger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Failed to upgrade WebSocket connection")
		return
	}

	a.service.AddConnection(uid, conn)

	go func() {
		defer a.service.RemoveConnection(uid)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				break
			}
		}
	}()
}

// Health is the liveness probe.
func (a *API) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
