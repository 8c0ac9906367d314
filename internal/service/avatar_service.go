package service

import (
	"github.com/jeswinjoss/Velvet-ai-companion-app/internal/model"
	"github.com/jeswinjoss/Velvet-ai-companion-app/pkg/kafka"
	"github.com/jeswinjoss/Velvet-ai-companion-app/pkg/tasks"
)

// AvatarService 负责头像生成任务的入队与占位头像。
// 实际生成在 Kafka 消费端完成（见 pipeline.AvatarProcessor）。
type AvatarService interface {
	EnqueueGeneration(profile *model.CharacterProfile) error
	FallbackURL(name string) string
}

type avatarService struct {
	produce func(task tasks.AvatarGenerationTask) error
}

// NewAvatarService 创建一个新的 AvatarService 实例。
func NewAvatarService() AvatarService {
	return &avatarService{produce: kafka.ProduceAvatarTask}
}

// EnqueueGeneration 发送头像生成任务到 Kafka。
func (s *avatarService) EnqueueGeneration(profile *model.CharacterProfile) error {
	return s.produce(tasks.AvatarGenerationTask{
		ProfileID:    profile.ID,
		Name:         profile.Name,
		Relationship: profile.Relationship,
		Traits:       profile.Traits,
	})
}

// FallbackURL 返回基于名字的占位头像地址。
func (s *avatarService) FallbackURL(name string) string {
	return fallbackAvatarURL(name)
}
