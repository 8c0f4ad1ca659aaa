package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"

	"Travel_Companion/backend/go/internal/config"
	pkghttp "Travel_Companion/backend/go/pkg/http"
)

// Handler implements the travel companion MCP tools by calling the HTTP
// services through the circuit-breaker client. All calls carry the JWT of
// the user the agent host acts for.
type Handler struct {
	chatURL      string
	knowledgeURL string
	token        string
	client       *pkghttp.Client
}

// New creates a Handler. chatURL and knowledgeURL are the base addresses of
// the chat and knowledge services, token is a user JWT.
func New(chatURL, knowledgeURL, token string, breakerCfg config.CircuitBreakerConfig) (*Handler, error) {
	client, err := pkghttp.NewClient(breakerCfg)
	if err != nil {
		return nil, err
	}
	return &Handler{
		chatURL:      chatURL,
		knowledgeURL: knowledgeURL,
		token:        token,
		client:       client,
	}, nil
}

// SearchPOIs handles the search_pois tool: semantic POI search against the
// knowledge service.
func (h *Handler) SearchPOIs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	topK := request.GetInt("top_k", 5)

	endpoint := fmt.Sprintf("%s/api/v1/knowledge/search?query=%s&top_k=%s",
		h.knowledgeURL, url.QueryEscape(query), strconv.Itoa(topK))

	body, err := h.get(ctx, endpoint)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("POI search failed: %v", err)), nil
	}
	return mcp.NewToolResultText(string(body)), nil
}

// chatResponse mirrors the fields of the chat endpoint the tools care about.
type chatResponse struct {
	Response    string   `json:"response"`
	Suggestions []string `json:"suggestions"`
}

// Chat handles the chat tool: one full conversation turn with the companion.
func (h *Handler) Chat(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	message, err := request.RequireString("message")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	sessionID := request.GetString("session_id", "")

	resp, err := h.chat(ctx, message, sessionID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("chat failed: %v", err)), nil
	}
	return mcp.NewToolResultText(resp.Response), nil
}

// GetSuggestions handles the get_suggestions tool: follow-up prompts the
// companion offers for a message.
func (h *Handler) GetSuggestions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	message, err := request.RequireString("message")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	resp, err := h.chat(ctx, message, "")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("suggestion lookup failed: %v", err)), nil
	}

	out, err := json.Marshal(resp.Suggestions)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (h *Handler) chat(ctx context.Context, message, sessionID string) (*chatResponse, error) {
	payload, err := json.Marshal(map[string]string{
		"message":    message,
		"session_id": sessionID,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.chatURL+"/api/v1/chat", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	body, err := h.do(req)
	if err != nil {
		return nil, err
	}

	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (h *Handler) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	return h.do(req)
}

func (h *Handler) do(req *http.Request) ([]byte, error) {
	req.Header.Set("Authorization", "Bearer "+h.token)

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, body)
	}
	return body, nil
}
