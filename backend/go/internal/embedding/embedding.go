package embedding

import (
	"fmt"

	"Travel_Companion/backend/go/internal/config"
)

// NewFromConfig 根据配置创建并返回一个 Embedding 模型实例。
// 对话记录、查询文本和 POI 描述都经由同一个实例生成向量，
// 保证整个系统的向量空间一致。
func NewFromConfig(cfg config.EmbeddingConfig) (Embedding, error) {
	switch cfg.Provider {
	case "gemini":
		return NewGoogleModel(cfg.Gemini.APIKey, cfg.Gemini.Model)
	case "openai":
		return NewOpenAIModel(cfg.OpenAI.APIKey, cfg.OpenAI.Model)
	case "ollama":
		return NewOllamaModel(cfg.Ollama.Model, cfg.Ollama.BaseURL)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
}
