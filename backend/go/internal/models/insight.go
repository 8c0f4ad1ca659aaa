package models

import "time"

// DNAType 是旅行 DNA 画像的五种固定类型之一。
type DNAType string

const (
	DNAExplorer         DNAType = "explorer"
	DNACultureSeeker    DNAType = "culture_seeker"
	DNALuxuryTraveler   DNAType = "luxury_traveler"
	DNABudgetBackpacker DNAType = "budget_backpacker"
	DNARelaxationSeeker DNAType = "relaxation_seeker"
)

// QuizAnswers 是问卷题目编号到所选选项的映射。
type QuizAnswers map[string]string

// TravelDNAProfile 是一次问卷分析得出的旅行 DNA 画像，存 Mongo。
type TravelDNAProfile struct {
	UserID      string             `bson:"_id" json:"user_id"`
	PrimaryType DNAType            `bson:"primary_type" json:"primary_type"`
	Scores      map[string]float64 `bson:"scores" json:"scores"`
	Confidence  float64            `bson:"confidence" json:"confidence"`
	Description string             `bson:"description" json:"description"`
	Keywords    []string           `bson:"keywords" json:"keywords"`
	AnalyzedAt  time.Time          `bson:"analyzed_at" json:"analyzed_at"`
}

// RecommendationItem 是推荐结果中的一个条目。
type RecommendationItem struct {
	Name     string  `bson:"name" json:"name"`
	Category string  `bson:"category" json:"category"`
	Reason   string  `bson:"reason" json:"reason"`
	Score    float64 `bson:"score" json:"score"`
}

// Recommendation 是一次推荐生成的完整记录，存 Mongo 以便回溯。
type Recommendation struct {
	ID          string               `bson:"_id" json:"id"`
	UserID      string               `bson:"user_id" json:"user_id"`
	Location    string               `bson:"location" json:"location,omitempty"`
	BasedOn     []string             `bson:"based_on" json:"based_on"` // 参与决策的信号来源
	Items       []RecommendationItem `bson:"items" json:"items"`
	GeneratedAt time.Time            `bson:"generated_at" json:"generated_at"`
}

// JobStatus 是训练任务的生命周期状态。
type JobStatus string

const (
	JobStatusPending JobStatus = "pending"
	JobStatusRunning JobStatus = "running"
	JobStatusSuccess JobStatus = "success"
	JobStatusFailed  JobStatus = "failed"
)

// TrainingJob 是一个异步的模型训练任务记录。任务经 Kafka 派发给
// 工作协程执行，状态变化通过 WebSocket 推送给提交者。
type TrainingJob struct {
	ID          string    `bson:"_id" json:"id"`
	UserID      string    `bson:"user_id" json:"user_id"`
	Kind        string    `bson:"kind" json:"kind"` // 例如 "dna_refresh"、"reranker"
	Status      JobStatus `bson:"status" json:"status"`
	Stage       string    `bson:"stage" json:"stage,omitempty"`
	Progress    int       `bson:"progress" json:"progress"` // 0-100
	Error       string    `bson:"error" json:"error,omitempty"`
	SubmittedAt time.Time `bson:"submitted_at" json:"submitted_at"`
	CompletedAt time.Time `bson:"completed_at" json:"completed_at,omitempty"`
}
