package repository

import (
	"context"
	"fmt"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/jeswinjoss/Velvet-ai-companion-app/internal/model"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestHistoryRepositoryRoundTrip(t *testing.T) {
	client := newTestRedis(t)
	repo := NewHistoryRepository(client, 50)
	ctx := context.Background()

	// 无历史时返回空切片而不是错误
	got, err := repo.GetHistory(ctx, "p1")
	if err != nil {
		t.Fatalf("GetHistory: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty history, got %d messages", len(got))
	}

	messages := []model.Message{
		model.NewMessage(model.RoleUser, "hey"),
		model.NewMessage(model.RoleModel, "hey yourself"),
	}
	if err := repo.SaveHistory(ctx, "p1", messages); err != nil {
		t.Fatalf("SaveHistory: %v", err)
	}

	got, err = repo.GetHistory(ctx, "p1")
	if err != nil {
		t.Fatalf("GetHistory: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(got))
	}
	if got[0].Content != "hey" || got[1].Content != "hey yourself" {
		t.Fatalf("history content mismatch: %+v", got)
	}
	if got[0].Role != model.RoleUser || got[1].Role != model.RoleModel {
		t.Fatalf("history role mismatch: %+v", got)
	}
}

func TestHistoryRepositoryCapsAtLimit(t *testing.T) {
	client := newTestRedis(t)
	repo := NewHistoryRepository(client, 5)
	ctx := context.Background()

	var messages []model.Message
	for i := 0; i < 8; i++ {
		messages = append(messages, model.NewMessage(model.RoleUser, fmt.Sprintf("msg-%d", i)))
	}
	if err := repo.SaveHistory(ctx, "p1", messages); err != nil {
		t.Fatalf("SaveHistory: %v", err)
	}

	got, err := repo.GetHistory(ctx, "p1")
	if err != nil {
		t.Fatalf("GetHistory: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("expected history capped at 5, got %d", len(got))
	}
	// 保留的是最新的 5 条
	if got[0].Content != "msg-3" || got[4].Content != "msg-7" {
		t.Fatalf("expected newest messages kept, got first=%q last=%q", got[0].Content, got[4].Content)
	}
}

func TestHistoryRepositoryDelete(t *testing.T) {
	client := newTestRedis(t)
	repo := NewHistoryRepository(client, 50)
	ctx := context.Background()

	if err := repo.SaveHistory(ctx, "p1", []model.Message{model.NewMessage(model.RoleUser, "hi")}); err != nil {
		t.Fatalf("SaveHistory: %v", err)
	}
	if err := repo.DeleteHistory(ctx, "p1"); err != nil {
		t.Fatalf("DeleteHistory: %v", err)
	}

	got, err := repo.GetHistory(ctx, "p1")
	if err != nil {
		t.Fatalf("GetHistory: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty history after delete, got %d", len(got))
	}
}

func TestHistoryRepositoryIsolatedPerProfile(t *testing.T) {
	client := newTestRedis(t)
	repo := NewHistoryRepository(client, 50)
	ctx := context.Background()

	if err := repo.SaveHistory(ctx, "p1", []model.Message{model.NewMessage(model.RoleUser, "for p1")}); err != nil {
		t.Fatalf("SaveHistory: %v", err)
	}

	got, err := repo.GetHistory(ctx, "p2")
	if err != nil {
		t.Fatalf("GetHistory: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected p2 history empty, got %d", len(got))
	}
}
