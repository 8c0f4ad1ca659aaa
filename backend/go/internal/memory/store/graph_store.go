package store

import (
	"context"
	"fmt"

	neo4jdriver "github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"Travel_Companion/backend/go/internal/database/neo4j"
	"Travel_Companion/backend/go/internal/models"
)

// 事实类别到图谱边类型的映射。
var factEdges = map[models.FactKind]string{
	models.FactPreference: "LIKES",
	models.FactDislike:    "DISLIKES",
	models.FactExperience: "VISITED",
	models.FactPlan:       "PLANS",
}

// GraphStore 把抽取出的旅行者事实投影到 Neo4j 图谱。
// 图谱是事实表的派生视图，由 Kafka 消费者异步维护，
// 丢失后可从 MySQL 的事实表整体重建。
type GraphStore struct {
	client *neo4j.Neo4jClient
}

// NewGraphStore 创建一个图谱投影存储。
func NewGraphStore(client *neo4j.Neo4jClient) *GraphStore {
	return &GraphStore{client: client}
}

// RecordFact 把一条事实写入图谱：MERGE 旅行者节点与主题节点，
// 再按事实类别建立对应的边。重复投影是幂等的。
func (g *GraphStore) RecordFact(ctx context.Context, userID string, fact models.UserFact) error {
	edge, ok := factEdges[fact.Kind]
	if !ok {
		return fmt.Errorf("未知的事实类别: %s", fact.Kind)
	}

	// 边类型来自上面的白名单，不存在注入风险。
	query := fmt.Sprintf(`
		MERGE (t:Traveler {id: $userID})
		MERGE (s:Topic {content: $content})
		MERGE (t)-[r:%s]->(s)
		SET r.confidence = $confidence, r.source = $source, r.updated_at = datetime()
	`, edge)

	_, err := g.client.ExecuteWrite(ctx, func(tx neo4jdriver.ManagedTransaction) (interface{}, error) {
		return tx.Run(ctx, query, map[string]interface{}{
			"userID":     userID,
			"content":    fact.Content,
			"confidence": fact.Confidence,
			"source":     fact.Source,
		})
	})
	if err != nil {
		return fmt.Errorf("投影事实到图谱失败: %w", err)
	}
	return nil
}

// TravelerTopics 按边类型返回该旅行者关联的主题内容，供洞察服务
// 生成推荐时参考。
func (g *GraphStore) TravelerTopics(ctx context.Context, userID string) (map[string][]string, error) {
	result, err := g.client.ExecuteRead(ctx, func(tx neo4jdriver.ManagedTransaction) (interface{}, error) {
		res, err := tx.Run(ctx, `
			MATCH (t:Traveler {id: $userID})-[r]->(s:Topic)
			RETURN type(r) AS edge, s.content AS content
		`, map[string]interface{}{"userID": userID})
		if err != nil {
			return nil, err
		}

		topics := make(map[string][]string)
		for res.Next(ctx) {
			record := res.Record()
			edge, _ := record.Get("edge")
			content, _ := record.Get("content")
			edgeStr, ok1 := edge.(string)
			contentStr, ok2 := content.(string)
			if ok1 && ok2 {
				topics[edgeStr] = append(topics[edgeStr], contentStr)
			}
		}
		return topics, res.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("读取旅行者图谱失败: %w", err)
	}
	return result.(map[string][]string), nil
}
