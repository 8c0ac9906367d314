package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/jeswinjoss/Velvet-ai-companion-app/internal/model"
)

// usageRecordKey 用量记录在 Redis 中的存储键。全局单条记录。
const usageRecordKey = "velvet:usage:record"

// UsageRepository 持久化用量记录。
type UsageRepository interface {
	Load(ctx context.Context) (*model.UsageRecord, error)
	Save(ctx context.Context, record *model.UsageRecord) error
}

type redisUsageRepository struct {
	redisClient *redis.Client
}

// NewUsageRepository 创建一个新的 UsageRepository 实例。
func NewUsageRepository(redisClient *redis.Client) UsageRepository {
	return &redisUsageRepository{redisClient: redisClient}
}

// Load 从 Redis 读取用量记录，不存在时返回空记录。
func (r *redisUsageRepository) Load(ctx context.Context) (*model.UsageRecord, error) {
	jsonData, err := r.redisClient.Get(ctx, usageRecordKey).Result()
	if err == redis.Nil {
		return &model.UsageRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get usage record: %w", err)
	}
	var record model.UsageRecord
	if err := json.Unmarshal([]byte(jsonData), &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal usage record: %w", err)
	}
	return &record, nil
}

// Save 将用量记录写回 Redis。
func (r *redisUsageRepository) Save(ctx context.Context, record *model.UsageRecord) error {
	jsonData, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal usage record: %w", err)
	}
	if err := r.redisClient.Set(ctx, usageRecordKey, jsonData, 0).Err(); err != nil {
		return fmt.Errorf("failed to set usage record: %w", err)
	}
	return nil
}
