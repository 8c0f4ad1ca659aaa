package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"Travel_Companion/backend/go/internal/models"
)

// Gemini 是一个用于 Google Gemini API 的 LLM 客户端。
type Gemini struct {
	client    *genai.Client // Gemini 客户端实例。
	modelName string        // 要使用的模型名称。
}

// NewGemini 创建一个新的 Gemini 客户端。
func NewGemini(ctx context.Context, model, apiKey string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &Gemini{client: client, modelName: model}, nil
}

// Complete 提交一段对话并返回模型的回复文本。
// system 消息映射为 SystemInstruction，其余消息按 Gemini 的
// user/model 角色进入会话历史，最后一条作为本次提问发出。
func (g *Gemini) Complete(ctx context.Context, messages []models.ChatMessage) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("no messages to complete")
	}

	model := g.client.GenerativeModel(g.modelName)

	var chat []models.ChatMessage
	for _, m := range messages {
		if m.Role == RoleSystem {
			model.SystemInstruction = &genai.Content{
				Parts: []genai.Part{genai.Text(m.Content)},
			}
			continue
		}
		chat = append(chat, m)
	}
	if len(chat) == 0 {
		return "", fmt.Errorf("no user messages to complete")
	}

	session := model.StartChat()
	for _, m := range chat[:len(chat)-1] {
		role := "user"
		if m.Role == RoleAssistant {
			role = "model"
		}
		session.History = append(session.History, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(m.Content)},
		})
	}

	resp, err := session.SendMessage(ctx, genai.Text(chat[len(chat)-1].Content))
	if err != nil {
		return "", fmt.Errorf("failed to generate content with gemini: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("gemini returned no candidates")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return sb.String(), nil
}

// Close 释放底层的 Gemini 客户端。
func (g *Gemini) Close() error {
	return g.client.Close()
}
