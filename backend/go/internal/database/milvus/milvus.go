package milvus

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"

	"Travel_Companion/backend/go/internal/config"
)

var (
	instance *MilvusClient
	once     sync.Once
	initErr  error
)

// MilvusClient 包装了景点知识库使用的 Milvus 客户端。
// 集合中只存 POI ID 和嵌入向量，可读的元数据在 MySQL 里，
// 语义检索命中后由调用方按 ID 回表。
type MilvusClient struct {
	Client client.Client        // Milvus 客户端实例。
	Config *config.MilvusConfig // Milvus 配置。
	// 用于控制后台自动刷新协程的取消函数。
	cancelAutoFlush context.CancelFunc
}

// POIMatch 是一次向量检索命中的 POI ID 及其相似度分数。
type POIMatch struct {
	ID    string
	Score float32
}

// GetClient 使用单例模式创建并返回一个 Milvus 客户端实例。
func GetClient(ctx context.Context, cfg *config.MilvusConfig) (*MilvusClient, error) {
	once.Do(func() {
		c, err := client.NewClient(ctx, client.Config{Address: cfg.Address})
		if err != nil {
			initErr = fmt.Errorf("无法连接到 Milvus: %w", err)
			return
		}
		log.Println("✅ 成功连接到 Milvus!")
		instance = &MilvusClient{Client: c, Config: cfg}
	})
	return instance, initErr
}

// Close 安全地关闭与 Milvus 的连接。
func (c *MilvusClient) Close() {
	if c.Client != nil {
		c.StopAutoFlush(context.Background()) // 使用一个独立的上下文来停止自动刷新。
		c.Client.Close()
		log.Println("ℹ️ 已安全关闭 Milvus 连接。")
	}
}

// HealthCheck 检查 Milvus 连接的健康状况。
func (c *MilvusClient) HealthCheck(ctx context.Context) error {
	if c.Client == nil {
		return fmt.Errorf("Milvus client is nil")
	}
	_, err := c.Client.ListCollections(ctx)
	if err != nil {
		return fmt.Errorf("Milvus health check failed: %w", err)
	}
	return nil
}

// UpsertPOI 以 POI ID 为键写入向量。先按 ID 删除旧向量再插入，
// 保证同一 POI 重复摄取时整行替换而不是累积重复条目。
func (c *MilvusClient) UpsertPOI(ctx context.Context, poiID string, vector []float32) error {
	collName := c.Config.Schema.CollectionName

	expr := fmt.Sprintf("%s == \"%s\"", c.primaryField(), poiID)
	if err := c.Client.Delete(ctx, collName, "", expr); err != nil {
		return fmt.Errorf("删除 POI '%s' 的旧向量失败: %w", poiID, err)
	}

	idCol := entity.NewColumnVarChar(c.primaryField(), []string{poiID})
	vectorCol := entity.NewColumnFloatVector(c.Config.Schema.VectorField, len(vector), [][]float32{vector})

	if _, err := c.Client.Insert(ctx, collName, "", idCol, vectorCol); err != nil {
		return fmt.Errorf("插入 POI '%s' 的向量失败: %w", poiID, err)
	}
	return nil
}

// InsertBatch 批量写入多个 POI 的向量，用于指南文档摄取管道。
func (c *MilvusClient) InsertBatch(ctx context.Context, poiIDs []string, vectors [][]float32) error {
	if len(poiIDs) != len(vectors) {
		return fmt.Errorf("POI 数量 (%d) 与向量数量 (%d) 不一致", len(poiIDs), len(vectors))
	}
	if len(poiIDs) == 0 {
		return nil
	}

	collName := c.Config.Schema.CollectionName
	idCol := entity.NewColumnVarChar(c.primaryField(), poiIDs)
	vectorCol := entity.NewColumnFloatVector(c.Config.Schema.VectorField, len(vectors[0]), vectors)

	if _, err := c.Client.Insert(ctx, collName, "", idCol, vectorCol); err != nil {
		return fmt.Errorf("批量插入 POI 向量失败: %w", err)
	}
	log.Printf("✅ 成功向集合 '%s' 批量写入 %d 条向量。", collName, len(poiIDs))
	return nil
}

// DeletePOI 按 ID 删除一个 POI 的向量。
func (c *MilvusClient) DeletePOI(ctx context.Context, poiID string) error {
	expr := fmt.Sprintf("%s == \"%s\"", c.primaryField(), poiID)
	if err := c.Client.Delete(ctx, c.Config.Schema.CollectionName, "", expr); err != nil {
		return fmt.Errorf("删除 POI '%s' 失败: %w", poiID, err)
	}
	return nil
}

// SearchPOI 执行向量相似度搜索，返回命中的 POI ID 及分数。
func (c *MilvusClient) SearchPOI(ctx context.Context, vector []float32, topK int) ([]POIMatch, error) {
	collName := c.Config.Schema.CollectionName

	if err := c.Client.LoadCollection(ctx, collName, false); err != nil {
		return nil, fmt.Errorf("加载集合 '%s' 失败: %w", collName, err)
	}

	sp, _ := entity.NewIndexIvfFlatSearchParam(10)
	searchVectors := []entity.Vector{entity.FloatVector(vector)}

	results, err := c.Client.Search(
		ctx,
		collName,
		nil,
		"",
		[]string{c.primaryField()},
		searchVectors,
		c.Config.Schema.VectorField,
		entity.MetricType(c.Config.Schema.Index.MetricType),
		topK,
		sp,
	)
	if err != nil {
		return nil, fmt.Errorf("POI 向量检索失败: %w", err)
	}

	var matches []POIMatch
	for _, result := range results {
		idCol, ok := result.IDs.(*entity.ColumnVarChar)
		if !ok {
			return nil, fmt.Errorf("意外的主键列类型: %T", result.IDs)
		}
		for i := 0; i < result.ResultCount; i++ {
			id, err := idCol.ValueByIdx(i)
			if err != nil {
				return nil, fmt.Errorf("读取第 %d 个命中的 ID 失败: %w", i, err)
			}
			matches = append(matches, POIMatch{ID: id, Score: result.Scores[i]})
		}
	}
	return matches, nil
}

// primaryField 返回配置中标记为主键的字段名，缺省为 "poi_id"。
func (c *MilvusClient) primaryField() string {
	for _, f := range c.Config.Schema.Fields {
		if f.IsPrimaryKey {
			return f.Name
		}
	}
	return "poi_id"
}

// FlushCollection 手动触发一次刷新操作，将内存中的数据写入磁盘。
func (c *MilvusClient) FlushCollection(ctx context.Context) error {
	collName := c.Config.Schema.CollectionName
	log.Printf("⏳ 正在手动刷新集合 '%s'…", collName)
	if err := c.Client.Flush(ctx, collName, false); err != nil {
		return fmt.Errorf("刷新集合 '%s' 失败: %w", collName, err)
	}
	log.Printf("✅ 集合 '%s' 刷新成功！", collName)
	return nil
}

// StartAutoFlush 启动后台自动刷新任务。
func (c *MilvusClient) StartAutoFlush(interval time.Duration) {
	if c.cancelAutoFlush != nil {
		log.Println("⚠️ 自动刷新任务已在运行中，无需重复启动。")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.cancelAutoFlush = cancel
	collName := c.Config.Schema.CollectionName

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		log.Printf("🚀 已启动后台自动刷新任务，每隔 %s 刷新一次集合 '%s'。", interval, collName)

		for {
			select {
			case <-ctx.Done():
				log.Println("ℹ️ 自动刷新任务已停止。")
				return
			case <-ticker.C:
				flushCtx, flushCancel := context.WithTimeout(context.Background(), 10*time.Second)
				if err := c.Client.Flush(flushCtx, collName, false); err != nil {
					log.Printf("❌ 自动刷新集合 '%s' 失败: %v", collName, err)
				}
				flushCancel()
			}
		}
	}()
}

// StopAutoFlush 停止后台自动刷新任务，并执行最后一次刷新以确保数据一致性。
func (c *MilvusClient) StopAutoFlush(ctx context.Context) {
	if c.cancelAutoFlush != nil {
		c.cancelAutoFlush()
		c.cancelAutoFlush = nil

		log.Println("⏳ 正在执行最后一次刷新以确保数据同步...")
		if err := c.FlushCollection(ctx); err != nil {
			log.Printf("❌ 停止自动刷新时，最终刷新失败: %v", err)
		}
	}
}

// EnsureCollection 确保 Milvus 集合存在并进行 Schema 迁移。
func (c *MilvusClient) EnsureCollection(ctx context.Context) error {
	collName := c.Config.Schema.CollectionName
	exists, err := c.Client.HasCollection(ctx, collName)
	if err != nil {
		return fmt.Errorf("检查集合是否存在时出错: %w", err)
	}
	if !exists {
		schemaFields := make([]*entity.Field, 0, len(c.Config.Schema.Fields))
		for _, fieldCfg := range c.Config.Schema.Fields {
			field := entity.NewField().WithName(fieldCfg.Name)

			if fieldCfg.IsPrimaryKey {
				field = field.WithIsPrimaryKey(true)
			}
			if fieldCfg.IsAutoID {
				field = field.WithIsAutoID(true)
			}

			switch fieldCfg.DataType {
			case "Int64":
				field = field.WithDataType(entity.FieldTypeInt64)
			case "VarChar":
				field = field.WithDataType(entity.FieldTypeVarChar).WithMaxLength(int64(fieldCfg.MaxLength))
			case "FloatVector":
				field = field.WithDataType(entity.FieldTypeFloatVector).WithDim(int64(fieldCfg.Dim))
			case "BinaryVector":
				field = field.WithDataType(entity.FieldTypeBinaryVector).WithDim(int64(fieldCfg.Dim))
			case "Float":
				field = field.WithDataType(entity.FieldTypeFloat)
			case "Double":
				field = field.WithDataType(entity.FieldTypeDouble)
			case "Bool":
				field = field.WithDataType(entity.FieldTypeBool)
			default:
				return fmt.Errorf("不支持的数据类型: %s", fieldCfg.DataType)
			}

			schemaFields = append(schemaFields, field)
		}

		schema := entity.NewSchema().
			WithName(collName).
			WithDescription(c.Config.Schema.Description)

		for _, field := range schemaFields {
			schema = schema.WithField(field)
		}

		if err := c.Client.CreateCollection(ctx, schema, entity.DefaultShardNumber); err != nil {
			return fmt.Errorf("创建集合失败: %w", err)
		}
		idx, err := c.buildIndexFromConfig()
		if err != nil {
			return err
		}
		if err := c.Client.CreateIndex(ctx, collName, c.Config.Schema.Index.FieldName, idx, false); err != nil {
			return fmt.Errorf("为字段 '%s' 创建索引失败: %w", c.Config.Schema.Index.FieldName, err)
		}
	}

	err = c.Client.LoadCollection(ctx, collName, false)
	if err != nil {
		return fmt.Errorf("加载 Milvus 集合 '%s' 失败: %w", collName, err)
	}

	return nil
}

// buildIndexFromConfig 从配置构建索引实体。
func (c *MilvusClient) buildIndexFromConfig() (entity.Index, error) {
	indexCfg := c.Config.Schema.Index
	metricType := entity.MetricType(indexCfg.MetricType)

	switch indexCfg.IndexType {
	case "IVF_FLAT":
		nlist, ok := indexCfg.Params["nlist"].(int)
		if !ok {
			nlist = 128
		}
		return entity.NewIndexIvfFlat(metricType, nlist)
	case "HNSW":
		M, ok := indexCfg.Params["M"].(int)
		if !ok {
			M = 8
		}
		efConstruction, ok := indexCfg.Params["efConstruction"].(int)
		if !ok {
			efConstruction = 96
		}
		return entity.NewIndexHNSW(metricType, M, efConstruction)
	case "IVF_SQ8":
		nlist, ok := indexCfg.Params["nlist"].(int)
		if !ok {
			nlist = 128
		}
		return entity.NewIndexIvfSQ8(metricType, nlist)
	case "IVF_PQ":
		nlist, ok := indexCfg.Params["nlist"].(int)
		if !ok {
			nlist = 128
		}
		m, ok := indexCfg.Params["m"].(int)
		if !ok {
			m = 16
		}
		nbits, ok := indexCfg.Params["nbits"].(int)
		if !ok {
			nbits = 8
		}
		return entity.NewIndexIvfPQ(metricType, nlist, m, nbits)
	case "AUTOINDEX":
		return entity.NewIndexAUTOINDEX(metricType)
	default:
		return nil, fmt.Errorf("不支持的索引类型: %s", indexCfg.IndexType)
	}
}
