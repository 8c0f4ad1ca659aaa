package llm

import (
	"context"
	"fmt"
	"math"
	"time"

	"Travel_Companion/backend/go/internal/config"
	"Travel_Companion/backend/go/internal/models"
)

// LLM 定义了所有大型语言模型客户端必须实现的通用接口。
// 聊天编排只需要一次完整的补全，流式输出由客户端侧自行处理。
type LLM interface {
	// Complete 提交一段对话并返回模型的回复文本。
	Complete(ctx context.Context, messages []models.ChatMessage) (string, error)
}

// 对话消息的角色常量，与各提供商的 wire 格式对齐。
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

const defaultMaxRetries = 3

// NewClient 是一个工厂函数，根据配置创建并返回一个实现了 LLM 接口的客户端。
// 返回的客户端自带对瞬时故障的指数退避重试。
func NewClient(ctx context.Context, cfg config.LLMConfig) (LLM, error) {
	var (
		inner LLM
		err   error
	)
	switch cfg.Provider {
	case "gemini":
		inner, err = NewGemini(ctx, cfg.Gemini.Model, cfg.Gemini.APIKey)
	case "openai":
		inner, err = NewOpenAI(cfg.OpenAI.Model, cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL)
	case "ollama":
		inner, err = NewOllama(cfg.Ollama.Model, cfg.Ollama.BaseURL)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	return &retryClient{inner: inner, maxRetries: defaultMaxRetries}, nil
}

// retryClient 用指数退避包装底层客户端。补全接口偶发的 5xx 和
// 限流错误大多在一两次重试内自愈。
type retryClient struct {
	inner      LLM
	maxRetries int
}

func (r *retryClient) Complete(ctx context.Context, messages []models.ChatMessage) (string, error) {
	var lastErr error
	for attempt := 0; attempt < r.maxRetries; attempt++ {
		reply, err := r.inner.Complete(ctx, messages)
		if err == nil {
			return reply, nil
		}
		lastErr = err
		if attempt < r.maxRetries-1 {
			wait := time.Duration(math.Pow(2, float64(attempt))) * time.Second
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
	}
	return "", lastErr
}
