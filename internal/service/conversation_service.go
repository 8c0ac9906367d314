package service

import (
	"context"
	"fmt"

	"github.com/jeswinjoss/Velvet-ai-companion-app/internal/model"
	"github.com/jeswinjoss/Velvet-ai-companion-app/internal/repository"
)

// ConversationService 提供聊天历史的读取、重置与表情回应操作。
type ConversationService interface {
	GetHistory(ctx context.Context, profileID string) ([]model.Message, error)
	ClearHistory(ctx context.Context, profileID string) error
	ToggleReaction(ctx context.Context, profileID, messageID, emoji string) (*model.Message, error)
}

type conversationService struct {
	historyRepo repository.HistoryRepository
}

// NewConversationService 创建一个新的 ConversationService 实例。
func NewConversationService(historyRepo repository.HistoryRepository) ConversationService {
	return &conversationService{historyRepo: historyRepo}
}

func (s *conversationService) GetHistory(ctx context.Context, profileID string) ([]model.Message, error) {
	return s.historyRepo.GetHistory(ctx, profileID)
}

func (s *conversationService) ClearHistory(ctx context.Context, profileID string) error {
	return s.historyRepo.DeleteHistory(ctx, profileID)
}

// ToggleReaction 切换某条消息上的表情回应并持久化，返回更新后的消息。
func (s *conversationService) ToggleReaction(ctx context.Context, profileID, messageID, emoji string) (*model.Message, error) {
	history, err := s.historyRepo.GetHistory(ctx, profileID)
	if err != nil {
		return nil, err
	}

	for i := range history {
		if history[i].ID == messageID {
			history[i].ToggleReaction(emoji)
			if err := s.historyRepo.SaveHistory(ctx, profileID, history); err != nil {
				return nil, err
			}
			return &history[i], nil
		}
	}
	return nil, fmt.Errorf("message %s not found in profile %s history", messageID, profileID)
}
