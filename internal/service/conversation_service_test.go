package service

import (
	"context"
	"testing"

	"github.com/jeswinjoss/Velvet-ai-companion-app/internal/model"
)

func TestToggleReactionAddAndRemove(t *testing.T) {
	repo := newMemHistoryRepo()
	svc := NewConversationService(repo)
	ctx := context.Background()

	msg := model.NewMessage(model.RoleModel, "hey")
	if err := repo.SaveHistory(ctx, "p1", []model.Message{msg}); err != nil {
		t.Fatalf("SaveHistory: %v", err)
	}

	updated, err := svc.ToggleReaction(ctx, "p1", msg.ID, "❤️")
	if err != nil {
		t.Fatalf("ToggleReaction: %v", err)
	}
	if len(updated.Reactions) != 1 || updated.Reactions[0] != "❤️" {
		t.Fatalf("expected reaction added, got %v", updated.Reactions)
	}

	// 再次切换移除
	updated, err = svc.ToggleReaction(ctx, "p1", msg.ID, "❤️")
	if err != nil {
		t.Fatalf("ToggleReaction: %v", err)
	}
	if len(updated.Reactions) != 0 {
		t.Fatalf("expected reaction removed, got %v", updated.Reactions)
	}

	// 变更已持久化
	history, _ := repo.GetHistory(ctx, "p1")
	if len(history[0].Reactions) != 0 {
		t.Fatalf("expected persisted removal, got %v", history[0].Reactions)
	}
}

func TestToggleReactionUnknownMessage(t *testing.T) {
	repo := newMemHistoryRepo()
	svc := NewConversationService(repo)

	if _, err := svc.ToggleReaction(context.Background(), "p1", "nope", "🔥"); err == nil {
		t.Fatal("expected error for unknown message")
	}
}

func TestClearHistory(t *testing.T) {
	repo := newMemHistoryRepo()
	svc := NewConversationService(repo)
	ctx := context.Background()

	if err := repo.SaveHistory(ctx, "p1", []model.Message{model.NewMessage(model.RoleUser, "hi")}); err != nil {
		t.Fatalf("SaveHistory: %v", err)
	}
	if err := svc.ClearHistory(ctx, "p1"); err != nil {
		t.Fatalf("ClearHistory: %v", err)
	}
	history, err := svc.GetHistory(ctx, "p1")
	if err != nil {
		t.Fatalf("GetHistory: %v", err)
	}
	if len(history) != 0 {
		t.Fatalf("expected empty history, got %d", len(history))
	}
}
