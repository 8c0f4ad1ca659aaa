package config

import (
	"fmt"
	"gopkg.in/yaml.v3"
	"os"
)

// FieldConfig 定义了 Milvus 集合中字段的配置。
type FieldConfig struct {
	Name         string `yaml:"name"`                // 字段名称
	DataType     string `yaml:"dataType"`            // 字段数据类型 (例如: "Int64", "VarChar", "FloatVector")
	IsPrimaryKey bool   `yaml:"isPrimaryKey"`        // 是否为主键
	IsAutoID     bool   `yaml:"isAutoID"`            // 是否自动生成ID
	Dim          int    `yaml:"dim,omitempty"`       // 向量维度 (仅适用于向量类型)
	MaxLength    int    `yaml:"maxLength,omitempty"` // 最大长度 (仅适用于VarChar类型)
}

// IndexConfig 定义了 Milvus 集合中索引的配置。
type IndexConfig struct {
	FieldName  string                 `yaml:"fieldName"`  // 要创建索引的字段名称
	IndexType  string                 `yaml:"indexType"`  // 索引类型 (例如: "IVF_FLAT", "HNSW")
	MetricType string                 `yaml:"metricType"` // 相似度度量类型 (例如: "L2", "COSINE")
	Params     map[string]interface{} `yaml:"params"`     // 索引参数 (例如: {"nlist": 128})
}

// SchemaConfig 定义了 Milvus 集合的 Schema 配置。
type SchemaConfig struct {
	CollectionName string        `yaml:"collectionName"` // 集合名称
	Description    string        `yaml:"description"`    // 集合描述
	VectorField    string        `yaml:"vectorField"`    // 向量字段名称
	Fields         []FieldConfig `yaml:"fields"`         // 字段配置列表
	Index          IndexConfig   `yaml:"index"`          // 索引配置
}

// MilvusConfig 定义了 Milvus 数据库的连接和 Schema 配置。
type MilvusConfig struct {
	Address string       `yaml:"address"` // Milvus 服务地址
	Schema  SchemaConfig `yaml:"schema"`  // POI 知识库集合的 Schema 配置
}

// RedisConfig 定义了 Redis 数据库的连接配置。
type RedisConfig struct {
	Address  string `yaml:"address"`  // Redis 服务器地址 (例如: "localhost:6379")
	Password string `yaml:"password"` // Redis 密码
	DB       int    `yaml:"db"`       // Redis 数据库编号
}

// MySQLConfig 定义了 MySQL 数据库的连接配置。
type MySQLConfig struct {
	Address         string `yaml:"address"`         // MySQL 服务器地址
	Username        string `yaml:"username"`        // 用户名
	Password        string `yaml:"password"`        // 密码
	Database        string `yaml:"database"`        // 数据库名称
	MaxOpenConns    int    `yaml:"maxOpenConns"`    // 最大打开连接数
	MaxIdleConns    int    `yaml:"maxIdleConns"`    // 最大空闲连接数
	ConnMaxLifetime int    `yaml:"connMaxLifetime"` // 连接最大生命周期 (秒)
}

// MinIOConfig 定义了 MinIO 对象存储的连接配置。
type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"`  // MinIO 服务端点
	AccessKey string `yaml:"accessKey"` // 访问密钥
	SecretKey string `yaml:"secretKey"` // Secret 密钥
	Bucket    string `yaml:"bucket"`    // 旅行指南文档所在的存储桶
	Secure    bool   `yaml:"secure"`    // 是否使用HTTPS
}

// MongoConfig 定义了 MongoDB 数据库的连接配置。
type MongoConfig struct {
	Address  string `yaml:"address"`  // MongoDB 服务器地址
	Username string `yaml:"username"` // 用户名
	Password string `yaml:"password"` // 密码
	Database string `yaml:"database"` // 数据库名称
}

// Neo4jConfig 定义了 Neo4j 图数据库的连接配置。
type Neo4jConfig struct {
	Uri      string `yaml:"uri"`      // Neo4j 数据库URI (例如: "bolt://localhost:7687")
	Username string `yaml:"username"` // 用户名
	Password string `yaml:"password"` // 密码
	Database string `yaml:"database"` // 数据库名称
}

// EtcdConfig 定义了 Etcd 服务发现的连接配置。
type EtcdConfig struct {
	Endpoints []string `yaml:"endpoints"` // Etcd 节点地址列表
	Username  string   `yaml:"username"`  // 用户名
	Password  string   `yaml:"password"`  // 密码
}

// AuthConfig 用于配置认证方法和相关设置。
type AuthConfig struct {
	JwtSecret string `yaml:"jwtSecret"` // JWT 密钥
	TokenTTL  int    `yaml:"tokenTTL"`  // JWT 令牌的有效期（秒）
}

// KafkaTopics 列出各条业务管道使用的主题名称。
type KafkaTopics struct {
	Turns         string `yaml:"turns"`         // 对话事件（chat_service -> memory consumer）
	Notifications string `yaml:"notifications"` // 异步推送请求
	Jobs          string `yaml:"jobs"`          // 训练任务派发
	JobResults    string `yaml:"jobResults"`    // 训练任务结果回传
	Logs          string `yaml:"logs"`          // 结构化日志外送（可选）
}

// All 返回所有已配置（非空）的主题名称，供客户端初始化时批量建主题。
func (t KafkaTopics) All() []string {
	var names []string
	for _, name := range []string{t.Turns, t.Notifications, t.Jobs, t.JobResults, t.Logs} {
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}

// KafkaConfig 定义了 Kafka 消息队列的连接配置。
type KafkaConfig struct {
	Brokers []string    `yaml:"brokers"` // Kafka Broker 地址列表
	GroupID string      `yaml:"groupID"` // 消费者组ID
	Topics  KafkaTopics `yaml:"topics"`  // 各业务管道的主题
}

// DatabaseConfigs 包含所有数据库的配置。
type DatabaseConfigs struct {
	Milvus  MilvusConfig `yaml:"milvus"`  // Milvus 数据库配置
	Redis   RedisConfig  `yaml:"redis"`   // Redis 数据库配置
	MySQL   MySQLConfig  `yaml:"mysql"`   // MySQL 数据库配置
	MinIO   MinIOConfig  `yaml:"minio"`   // MinIO 对象存储配置
	MongoDB MongoConfig  `yaml:"mongodb"` // MongoDB 数据库配置
	Neo4j   Neo4jConfig  `yaml:"neo4j"`   // Neo4j 数据库配置
	Etcd    EtcdConfig   `yaml:"etcd"`    // Etcd 服务发现配置
	Kafka   KafkaConfig  `yaml:"kafka"`   // Kafka 消息队列配置
}

// AppInfo 对应 'app' 部分，包含应用程序的基本信息。
type AppInfo struct {
	Name        string `yaml:"name"`        // 应用程序名称
	Version     string `yaml:"version"`     // 应用程序版本
	Environment string `yaml:"environment"` // 运行环境 (例如: "development", "production")
}

// LoggerConfig 定义了日志记录器的配置。
type LoggerConfig struct {
	Level       string `yaml:"level"`       // 日志级别 (例如: "info", "debug", "warn", "error")
	KafkaExport bool   `yaml:"kafkaExport"` // 是否将日志异步写入 Kafka
}

// ServerConfig 列出各个服务进程的监听地址。
type ServerConfig struct {
	Chat         string `yaml:"chat"`         // chat_service HTTP 地址
	User         string `yaml:"user"`         // user_service HTTP 地址
	Knowledge    string `yaml:"knowledge"`    // knowledge_service HTTP 地址
	Insight      string `yaml:"insight"`      // insight_service HTTP 地址
	Notification string `yaml:"notification"` // notification_service HTTP 地址
	ChatGRPC     string `yaml:"chatGRPC"`     // chat_service 的 gRPC 健康检查地址
}

// MemoryConfig 是记忆子系统的可调参数。相关性检索只扫描最近
// ScanWindow 条带向量的记录，这是有意的召回上限，不是缺陷。
type MemoryConfig struct {
	ScanWindow       int     `yaml:"scanWindow"`       // 相关性检索的扫描窗口 (默认 50)
	RelevanceFloor   float64 `yaml:"relevanceFloor"`   // 低于等于该分数的记忆被丢弃 (默认 0.3)
	SimilarityWeight float64 `yaml:"similarityWeight"` // 余弦相似度权重 (默认 0.7)
	ImportanceWeight float64 `yaml:"importanceWeight"` // 重要性分数权重 (默认 0.3)
	TopK             int     `yaml:"topK"`             // 默认返回的记忆条数 (默认 5)
	HistoryLimit     int     `yaml:"historyLimit"`     // 聊天回放的历史条数 (默认 10)
	TTLHours         int     `yaml:"ttlHours"`         // 对话记录的默认存活时长 (默认 168)
	SweepInterval    string  `yaml:"sweepInterval"`    // 过期清扫周期 (例如: "1h")
}

// WeatherConfig 定义了天气查询客户端的配置。
type WeatherConfig struct {
	Enabled bool   `yaml:"enabled"` // 是否在上下文缺失时补查天气
	BaseURL string `yaml:"baseURL"` // 天气服务基础 URL
	APIKey  string `yaml:"apiKey"`  // 天气服务 API 密钥
}

// FirebaseConfig 定义了 FCM 推送所需的凭证配置。
type FirebaseConfig struct {
	CredentialsFile string `yaml:"credentialsFile"` // 服务账号凭证文件路径
	DryRun          bool   `yaml:"dryRun"`          // 只校验不真正下发
	DedupeState     string `yaml:"dedupeState"`     // 去重过滤器的持久化文件路径
}

// AppConfig 是整个 YAML 文件的根结构，包含了应用程序的所有配置。
type AppConfig struct {
	App        AppInfo          `yaml:"app"`        // 应用程序信息
	Server     ServerConfig     `yaml:"server"`     // 各服务监听地址
	Auth       AuthConfig       `yaml:"auth"`       // 认证配置
	LLM        LLMConfig        `yaml:"llm"`        // LLM 配置部分
	Embedding  EmbeddingConfig  `yaml:"embedding"`  // Embedding 配置部分
	Memory     MemoryConfig     `yaml:"memory"`     // 记忆子系统参数
	Weather    WeatherConfig    `yaml:"weather"`    // 天气客户端配置
	Firebase   FirebaseConfig   `yaml:"firebase"`   // FCM 推送配置
	Logger     LoggerConfig     `yaml:"logger"`     // 日志记录器配置
	Databases  DatabaseConfigs  `yaml:"databases"`  // 数据库配置
	Middleware MiddlewareConfig `yaml:"middleware"` // 中间件配置
}

// GeminiConfig 包含了 Gemini 模型的配置。
type GeminiConfig struct {
	APIKey string `yaml:"apiKey"` // Gemini API 密钥
	Model  string `yaml:"model"`  // Gemini 模型名称
}

// OpenAIConfig 包含了 OpenAI 兼容服务的配置。
type OpenAIConfig struct {
	APIKey  string `yaml:"apiKey"`  // API 密钥
	Model   string `yaml:"model"`   // 模型名称
	BaseURL string `yaml:"baseURL"` // 服务基础 URL，为空时使用官方地址
}

// OllamaConfig 包含了本地 Ollama 服务的配置。
type OllamaConfig struct {
	Model   string `yaml:"model"`   // 模型名称
	BaseURL string `yaml:"baseURL"` // 服务基础 URL (默认 "http://localhost:11434")
}

// LLMConfig 包含了不同LLM提供商的配置。
type LLMConfig struct {
	Provider string       `yaml:"provider"` // LLM提供商 ("gemini", "openai", "ollama")
	Gemini   GeminiConfig `yaml:"gemini"`   // Gemini 模型配置
	OpenAI   OpenAIConfig `yaml:"openai"`   // OpenAI 模型配置
	Ollama   OllamaConfig `yaml:"ollama"`   // Ollama 模型配置
}

// EmbeddingConfig 包含了不同Embedding提供商的配置。
type EmbeddingConfig struct {
	Provider string       `yaml:"provider"` // Embedding提供商 ("gemini", "openai", "ollama")
	Gemini   GeminiConfig `yaml:"gemini"`   // Gemini 模型配置
	OpenAI   OpenAIConfig `yaml:"openai"`   // OpenAI 模型配置
	Ollama   OllamaConfig `yaml:"ollama"`   // Ollama 模型配置
	Dim      int          `yaml:"dim"`      // 向量维度，需与 Milvus Schema 一致
}

// MiddlewareConfig 包含所有中间件的配置。
type MiddlewareConfig struct {
	RateLimiter    RateLimiterConfig    `yaml:"rateLimiter"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuitBreaker"`
}

// RateLimiterConfig 定义了限流器的配置。
type RateLimiterConfig struct {
	Enabled        bool                 `yaml:"enabled"`
	Algorithm      string               `yaml:"algorithm"` // 支持: "fixedWindow", "slidingLog", "slidingCounter", "leakyBucket", "tokenBucket"
	FixedWindow    FixedWindowConfig    `yaml:"fixedWindow"`
	SlidingLog     SlidingLogConfig     `yaml:"slidingLog"`
	SlidingCounter SlidingCounterConfig `yaml:"slidingCounter"`
	LeakyBucket    LeakyBucketConfig    `yaml:"leakyBucket"`
	TokenBucket    TokenBucketConfig    `yaml:"tokenBucket"`
}

// FixedWindowConfig 定义了固定窗口计数器算法的配置。
type FixedWindowConfig struct {
	Limit  int    `yaml:"limit"`
	Window string `yaml:"window"` // 例如: "1m", "30s"
}

// SlidingLogConfig 定义了滑动窗口日志算法的配置。
type SlidingLogConfig struct {
	Limit  int    `yaml:"limit"`
	Window string `yaml:"window"`
}

// SlidingCounterConfig 定义了滑动窗口计数器算法的配置。
type SlidingCounterConfig struct {
	Limit      int    `yaml:"limit"`
	Window     string `yaml:"window"`
	NumBuckets int    `yaml:"numBuckets"`
}

// LeakyBucketConfig 定义了漏桶算法的配置。
type LeakyBucketConfig struct {
	Rate     float64 `yaml:"rate"` // 每秒速率
	Capacity int     `yaml:"capacity"`
}

// TokenBucketConfig 定义了令牌桶算法的配置。
type TokenBucketConfig struct {
	Rate     float64 `yaml:"rate"` // 每秒速率
	Capacity int     `yaml:"capacity"`
}

// CircuitBreakerConfig 定义了熔断器的配置。
type CircuitBreakerConfig struct {
	Enabled          bool   `yaml:"enabled"`
	FailureThreshold uint32 `yaml:"failureThreshold"`
	SuccessThreshold uint32 `yaml:"successThreshold"`
	Timeout          string `yaml:"timeout"` // 例如: "30s"
}

// LoadConfig 函数从指定路径加载并解析 YAML 配置文件。
//
// 参数:
//
//	path: YAML 配置文件的路径。
//
// 返回值:
//
//	*AppConfig: 解析后的应用程序配置结构体。
//	error: 如果文件读取或解析失败，则返回错误。
func LoadConfig(path string) (*AppConfig, error) {
	// 读取 YAML 文件内容。
	yamlFile, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("无法读取 YAML 文件 '%s': %w", path, err)
	}
	var cfg AppConfig // 声明一个AppConfig变量用于存储解析后的配置。
	// 将 YAML 内容解析到 cfg 结构体中。
	err = yaml.Unmarshal(yamlFile, &cfg)
	if err != nil {
		return nil, fmt.Errorf("解析 YAML 文件失败: %w", err)
	}
	applyMemoryDefaults(&cfg.Memory)
	return &cfg, nil // 返回解析后的配置和nil错误。
}

// applyMemoryDefaults 为缺省的记忆参数填入默认值，保证零配置可用。
func applyMemoryDefaults(m *MemoryConfig) {
	if m.ScanWindow <= 0 {
		m.ScanWindow = 50
	}
	if m.RelevanceFloor == 0 {
		m.RelevanceFloor = 0.3
	}
	if m.SimilarityWeight == 0 {
		m.SimilarityWeight = 0.7
	}
	if m.ImportanceWeight == 0 {
		m.ImportanceWeight = 0.3
	}
	if m.TopK <= 0 {
		m.TopK = 5
	}
	if m.HistoryLimit <= 0 {
		m.HistoryLimit = 10
	}
	if m.TTLHours <= 0 {
		m.TTLHours = 168
	}
	if m.SweepInterval == "" {
		m.SweepInterval = "1h"
	}
}
