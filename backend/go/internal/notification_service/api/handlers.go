package api

import (
	"encoding/json"
	"net/http"

	"Travel_Companion/backend/go/internal/models"
	"Travel_Companion/backend/go/internal/notification_service/service"
	pkghttp "Travel_Companion/backend/go/pkg/http"
	"Travel_Companion/backend/go/pkg/logger"
)

// Handler 提供推送服务的 HTTP 处理函数。该服务不走 gin，
// 直接挂在带限流和熔断中间件的共享 HTTP Server 上。
type Handler struct {
	service *service.Service
	logger  *logger.Logger
}

// NewHandler 创建一个新的 Handler。
func NewHandler(s *service.Service, logger *logger.Logger) *Handler {
	return &Handler{service: s, logger: logger}
}

// Register 把所有路由注册到共享 Server 上。
func (h *Handler) Register(srv *pkghttp.Server) {
	srv.HandleFunc("/api/v1/notifications/send", h.Send)
	srv.HandleFunc("/api/v1/notifications/send-multiple", h.SendMultiple)
	srv.HandleFunc("/health", h.Health)
}

// Send 处理单条通知（单设备或主题）的下发请求。
func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var n models.PushNotification
	if err := json.NewDecoder(r.Body).Decode(&n); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request payload"})
		return
	}

	result, err := h.service.Push(r.Context(), &n)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// SendMultipleRequest 定义了多播请求的 JSON 结构。
type SendMultipleRequest struct {
	Tokens []string          `json:"tokens"`
	Title  string            `json:"title"`
	Body   string            `json:"body"`
	Data   map[string]string `json:"data,omitempty"`
}

// SendMultiple 处理多设备下发请求。
func (h *Handler) SendMultiple(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req SendMultipleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request payload"})
		return
	}

	summary, err := h.service.PushMulticast(r.Context(), req.Tokens, req.Title, req.Body, req.Data)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// Health 是存活探针。
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
