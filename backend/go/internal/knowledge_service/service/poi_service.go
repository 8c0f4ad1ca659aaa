package service

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"Travel_Companion/backend/go/internal/database/milvus"
	"Travel_Companion/backend/go/internal/embedding"
	"Travel_Companion/backend/go/internal/models"
	"Travel_Companion/backend/go/pkg/logger"
)

// VectorIndex 是 POI 服务对向量库的依赖面。生产环境由 Milvus
// 客户端实现，测试时注入假实现。
type VectorIndex interface {
	UpsertPOI(ctx context.Context, poiID string, vector []float32) error
	InsertBatch(ctx context.Context, poiIDs []string, vectors [][]float32) error
	DeletePOI(ctx context.Context, poiID string) error
	SearchPOI(ctx context.Context, vector []float32, topK int) ([]milvus.POIMatch, error)
}

// Service 维护景点知识库：可读元数据在 MySQL，嵌入向量在 Milvus。
// 两边都以 POI ID 为键，写入是幂等的。
type Service struct {
	db       *gorm.DB
	vectors  VectorIndex
	embedder embedding.Embedding
	log      *logger.Logger
}

// New 组装 POI 服务并迁移知识库表结构。
func New(db *gorm.DB, vectors VectorIndex, embedder embedding.Embedding) (*Service, error) {
	if err := db.AutoMigrate(&models.POIRecord{}); err != nil {
		return nil, fmt.Errorf("迁移知识库表结构失败: %w", err)
	}
	return &Service{
		db:       db,
		vectors:  vectors,
		embedder: embedder,
		log:      logger.New("knowledge_service", "", ""),
	}, nil
}

// Upsert 写入或整行替换一个景点。嵌入尽力而为：嵌入或向量库写入
// 失败时元数据仍然落库，该景点只是暂时无法被语义检索命中。
func (s *Service) Upsert(ctx context.Context, record *models.POIRecord) error {
	if record.ID == "" {
		return fmt.Errorf("POI 缺少 ID")
	}
	if record.Name == "" {
		return fmt.Errorf("POI %s 缺少名称", record.ID)
	}

	if err := s.db.WithContext(ctx).Save(record).Error; err != nil {
		return fmt.Errorf("写入 POI 元数据失败: %w", err)
	}

	vector, err := s.embedder.Embed(ctx, record.EmbeddingText())
	if err != nil {
		s.log.WithError(models.ErrorInfo{Message: err.Error(), Type: "embedding_error"}).
			Warn("POI 嵌入失败，该景点暂不参与语义检索")
		return nil
	}
	if err := s.vectors.UpsertPOI(ctx, record.ID, vector); err != nil {
		s.log.WithError(models.ErrorInfo{Message: err.Error(), Type: "milvus_error"}).
			Warn("POI 向量写入失败，该景点暂不参与语义检索")
	}
	return nil
}

// Get 按 ID 读取一个景点。不存在时返回 (nil, nil)。
func (s *Service) Get(ctx context.Context, poiID string) (*models.POIRecord, error) {
	var record models.POIRecord
	err := s.db.WithContext(ctx).First(&record, "id = ?", poiID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("读取 POI 失败: %w", err)
	}
	return &record, nil
}

// List 分页返回景点，按名称排序保证输出稳定。
func (s *Service) List(ctx context.Context, limit, offset int) ([]models.POIRecord, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var records []models.POIRecord
	err := s.db.WithContext(ctx).
		Order("name").
		Limit(limit).
		Offset(offset).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("读取 POI 列表失败: %w", err)
	}
	return records, nil
}

// Delete 删除一个景点的元数据和向量。
func (s *Service) Delete(ctx context.Context, poiID string) error {
	if err := s.db.WithContext(ctx).Delete(&models.POIRecord{}, "id = ?", poiID).Error; err != nil {
		return fmt.Errorf("删除 POI 元数据失败: %w", err)
	}
	if err := s.vectors.DeletePOI(ctx, poiID); err != nil {
		return fmt.Errorf("删除 POI 向量失败: %w", err)
	}
	return nil
}

// Search 语义检索景点。向量库命中后按 ID 回表补全元数据；
// 元数据缺失的命中（两边短暂不一致）被跳过。
func (s *Service) Search(ctx context.Context, query string, topK int) ([]models.POIHit, error) {
	if topK <= 0 {
		topK = 5
	}

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("查询嵌入失败: %w", err)
	}

	matches, err := s.vectors.SearchPOI(ctx, vector, topK)
	if err != nil {
		return nil, fmt.Errorf("向量检索失败: %w", err)
	}

	hits := make([]models.POIHit, 0, len(matches))
	for _, match := range matches {
		record, err := s.Get(ctx, match.ID)
		if err != nil {
			return nil, err
		}
		if record == nil {
			s.log.WithPayload(map[string]interface{}{"poi_id": match.ID}).
				Warn("向量命中但元数据缺失，跳过")
			continue
		}
		hits = append(hits, models.POIHit{POIRecord: *record, Score: float64(match.Score)})
	}
	return hits, nil
}
