package models

// PushNotification 是一条待投递的推送消息。Token 与 Topic 至少填一个；
// 两者都填时按单设备投递处理。
type PushNotification struct {
	Token string            `json:"token,omitempty"`
	Topic string            `json:"topic,omitempty"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

// PushResult 是单个目标的投递结果。
type PushResult struct {
	Token     string `json:"token,omitempty"`
	MessageID string `json:"message_id,omitempty"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
}

// MulticastSummary 汇总一次多设备投递的成功与失败数量。
type MulticastSummary struct {
	SuccessCount int          `json:"success_count"`
	FailureCount int          `json:"failure_count"`
	Results      []PushResult `json:"results"`
}

// NotificationEvent 是其他服务经 Kafka 发来的异步推送请求。
type NotificationEvent struct {
	UserID string            `json:"user_id,omitempty"`
	Tokens []string          `json:"tokens,omitempty"`
	Topic  string            `json:"topic,omitempty"`
	Title  string            `json:"title"`
	Body   string            `json:"body"`
	Data   map[string]string `json:"data,omitempty"`
}
