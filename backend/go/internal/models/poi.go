package models

import (
	"strings"
	"time"
)

// POIRecord 是景点知识库中的一条记录，与具体用户无关。
// 以 POI ID 为主键做幂等 upsert：同一 ID 重复写入时整行替换。
// 向量存放在 Milvus 中，这里只保留可读的元数据。
type POIRecord struct {
	ID          string    `gorm:"primarykey;size:64" json:"poi_id"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Tips        string    `gorm:"type:text" json:"tips"`
	Source      string    `gorm:"size:255" json:"source,omitempty"` // 人工录入为空；指南摄取时记录来源文件
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (POIRecord) TableName() string {
	return "poi_knowledge"
}

// EmbeddingText 拼出用于生成嵌入向量的文本。
func (p *POIRecord) EmbeddingText() string {
	parts := make([]string, 0, 3)
	for _, s := range []string{p.Name, p.Description, p.Tips} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

// POIHit 是一次语义检索命中的景点及其相似度分数。
type POIHit struct {
	POIRecord
	Score float64 `json:"score"`
}
