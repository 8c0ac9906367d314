package model

// EsMessageDoc 是写入 Elasticsearch 消息索引的文档结构。
type EsMessageDoc struct {
	MessageID string `json:"message_id"`
	ProfileID string `json:"profile_id"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"`
}
