package repository

import (
	"context"
	"testing"

	"github.com/jeswinjoss/Velvet-ai-companion-app/internal/model"
)

func TestUsageRepositoryEmptyLoad(t *testing.T) {
	client := newTestRedis(t)
	repo := NewUsageRepository(client)

	record, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(record.Timestamps) != 0 || record.DailyCount != 0 || record.CooldownUntil != 0 {
		t.Fatalf("expected zero-value record, got %+v", record)
	}
}

func TestUsageRepositoryRoundTrip(t *testing.T) {
	client := newTestRedis(t)
	repo := NewUsageRepository(client)
	ctx := context.Background()

	in := &model.UsageRecord{
		Timestamps:    []int64{1700000000000, 1700000001000},
		DailyCount:    42,
		LastDate:      "2025-06-01",
		CooldownUntil: 1700000060000,
	}
	if err := repo.Save(ctx, in); err != nil {
		t.Fatalf("Save: %v", err)
	}

	out, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(out.Timestamps) != 2 || out.Timestamps[1] != 1700000001000 {
		t.Fatalf("timestamps mismatch: %+v", out.Timestamps)
	}
	if out.DailyCount != 42 || out.LastDate != "2025-06-01" || out.CooldownUntil != 1700000060000 {
		t.Fatalf("record mismatch: %+v", out)
	}
}
