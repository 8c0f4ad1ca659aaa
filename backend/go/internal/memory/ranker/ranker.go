package ranker

import (
	"context"
	"math"
	"sort"
	"time"

	"Travel_Companion/backend/go/internal/config"
	"Travel_Companion/backend/go/internal/embedding"
	"Travel_Companion/backend/go/internal/models"
	"Travel_Companion/backend/go/pkg/logger"
	"Travel_Companion/backend/go/pkg/util"
)

// Ranker 对扫描窗口内的记忆做相关性排序。
// 最终分数 = similarityWeight * 余弦相似度 + importanceWeight * 重要性。
type Ranker struct {
	embedder   embedding.Embedding
	cfg        config.MemoryConfig
	queryCache *util.LRUCache[string, []float32]
	log        *logger.Logger
}

// New 创建一个 Ranker。查询向量用 LRU 缓存，相同问题在短时间内
// 反复出现时不再重复调用嵌入服务。
func New(embedder embedding.Embedding, cfg config.MemoryConfig) *Ranker {
	cache, _ := util.NewWithConfig(util.CacheConfig[string, []float32]{
		Capacity: 256,
		TTL:      10 * time.Minute,
	})
	return &Ranker{
		embedder:   embedder,
		cfg:        cfg,
		queryCache: cache,
		log:        logger.New("memory_ranker", "", ""),
	}
}

// Rank 返回与查询最相关的至多 topK 条记忆，分数降序。
// 嵌入服务失败时返回空结果而不是错误：检索是聊天链路的增强项，
// 不能因为它不可用而阻断对话。
func (r *Ranker) Rank(ctx context.Context, query string, turns []models.ConversationTurn, topK int) []models.MemoryHit {
	if len(turns) == 0 || query == "" {
		return nil
	}
	if topK <= 0 {
		topK = r.cfg.TopK
	}

	queryVec, err := r.embedQuery(ctx, query)
	if err != nil {
		r.log.WithError(models.ErrorInfo{Message: err.Error(), Type: "embedding_error"}).
			Warn("查询嵌入失败，本次检索退化为空结果")
		return nil
	}

	hits := make([]models.MemoryHit, 0, len(turns))
	for i := range turns {
		turn := &turns[i]
		vec, err := turn.EmbeddingVector()
		if err != nil {
			// 单条记录损坏只跳过该行，不中断整批计算。
			r.log.WithPayload(map[string]interface{}{"turn_id": turn.ID}).
				Warn("跳过损坏的嵌入向量")
			continue
		}
		if vec == nil {
			continue
		}

		score := r.cfg.SimilarityWeight*cosineSimilarity(queryVec, vec) +
			r.cfg.ImportanceWeight*turn.ImportanceScore
		if score <= r.cfg.RelevanceFloor {
			continue
		}

		hits = append(hits, models.MemoryHit{
			Content:   turn.Content,
			Score:     score,
			Timestamp: turn.CreatedAt,
		})
	}

	// 稳定排序：同分记忆保持扫描窗口内的相对顺序（新的在前）。
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})

	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits
}

// embedQuery 带缓存地生成查询向量。
func (r *Ranker) embedQuery(ctx context.Context, query string) ([]float32, error) {
	if vec, ok := r.queryCache.Get(query); ok {
		return vec, nil
	}
	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	r.queryCache.Put(query, vec, 1)
	return vec, nil
}

// cosineSimilarity 计算两个向量的余弦相似度。
// 维度不一致或任一向量为零向量时返回 0。
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
