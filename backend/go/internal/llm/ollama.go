package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	olla "github.com/ollama/ollama/api"

	"Travel_Companion/backend/go/internal/models"
)

// Ollama 是一个用于本地 Ollama 服务的 LLM 客户端。
type Ollama struct {
	client *olla.Client // Ollama 客户端实例。
	model  string       // 要使用的模型名称。
}

// NewOllama 创建一个新的 Ollama 客户端。
// baseURL 为空时默认为 "http://localhost:11434"。
func NewOllama(model, baseURL string) (*Ollama, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}

	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	hc := &http.Client{
		Timeout: 120 * time.Second,
	}

	return &Ollama{client: olla.NewClient(parsedURL, hc), model: model}, nil
}

// Complete 提交一段对话并返回模型的回复文本。
func (o *Ollama) Complete(ctx context.Context, messages []models.ChatMessage) (string, error) {
	chatMessages := make([]olla.Message, 0, len(messages))
	for _, m := range messages {
		chatMessages = append(chatMessages, olla.Message{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	stream := false
	var sb strings.Builder
	err := o.client.Chat(ctx, &olla.ChatRequest{
		Model:    o.model,
		Messages: chatMessages,
		Stream:   &stream,
	}, func(resp olla.ChatResponse) error {
		sb.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to chat with ollama: %w", err)
	}
	return sb.String(), nil
}
