// Package repository 提供了数据访问层的实现。
package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/jeswinjoss/Velvet-ai-companion-app/internal/model"
)

// HistoryRepository 定义了聊天历史记录的操作接口。
type HistoryRepository interface {
	GetHistory(ctx context.Context, profileID string) ([]model.Message, error)
	SaveHistory(ctx context.Context, profileID string, messages []model.Message) error
	DeleteHistory(ctx context.Context, profileID string) error
}

type redisHistoryRepository struct {
	redisClient *redis.Client
	maxMessages int
}

// NewHistoryRepository 创建一个新的 HistoryRepository 实例。
// maxMessages 是每个角色保留的最大消息条数，写入时裁剪旧消息。
func NewHistoryRepository(redisClient *redis.Client, maxMessages int) HistoryRepository {
	return &redisHistoryRepository{redisClient: redisClient, maxMessages: maxMessages}
}

func historyKey(profileID string) string {
	return fmt.Sprintf("velvet:chat:history:%s", profileID)
}

// GetHistory 从 Redis 获取某个角色的聊天历史记录。
func (r *redisHistoryRepository) GetHistory(ctx context.Context, profileID string) ([]model.Message, error) {
	jsonData, err := r.redisClient.Get(ctx, historyKey(profileID)).Result()
	if err == redis.Nil {
		return []model.Message{}, nil // No history yet
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get chat history: %w", err)
	}
	var messages []model.Message
	if err := json.Unmarshal([]byte(jsonData), &messages); err != nil {
		return nil, fmt.Errorf("failed to unmarshal chat history: %w", err)
	}
	return messages, nil
}

// SaveHistory 在 Redis 中保存聊天历史记录，超出上限时保留最近的消息。
func (r *redisHistoryRepository) SaveHistory(ctx context.Context, profileID string, messages []model.Message) error {
	if r.maxMessages > 0 && len(messages) > r.maxMessages {
		messages = messages[len(messages)-r.maxMessages:]
	}
	jsonData, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("failed to marshal chat history: %w", err)
	}
	if err := r.redisClient.Set(ctx, historyKey(profileID), jsonData, 0).Err(); err != nil {
		return fmt.Errorf("failed to set chat history: %w", err)
	}
	return nil
}

// DeleteHistory 删除某个角色的全部聊天历史（角色删除级联）。
func (r *redisHistoryRepository) DeleteHistory(ctx context.Context, profileID string) error {
	if err := r.redisClient.Del(ctx, historyKey(profileID)).Err(); err != nil {
		return fmt.Errorf("failed to delete chat history: %w", err)
	}
	return nil
}
