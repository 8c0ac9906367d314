package guard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jeswinjoss/Velvet-ai-companion-app/internal/config"
	"github.com/jeswinjoss/Velvet-ai-companion-app/internal/model"
)

type memStore struct {
	record  *model.UsageRecord
	loadErr error
}

func (m *memStore) Load(ctx context.Context) (*model.UsageRecord, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if m.record == nil {
		return &model.UsageRecord{}, nil
	}
	return m.record, nil
}

func (m *memStore) Save(ctx context.Context, record *model.UsageRecord) error {
	m.record = record
	return nil
}

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func testLimits() config.LimitsConfig {
	return config.LimitsConfig{
		RequestsPerMinute: 3,
		RequestsPerDay:    5,
		CooldownSeconds:   60,
	}
}

func newTestGuard(store *memStore, clock *fakeClock) *UsageGuard {
	return NewUsageGuardWithClock(store, testLimits(), clock.Now)
}

func TestGuardAllowsUnderLimit(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	g := newTestGuard(&memStore{}, clock)

	stats := g.Check(context.Background())
	if stats.Blocked {
		t.Fatal("fresh guard should not block")
	}
	if stats.ActiveCount != 0 || stats.DailyCount != 0 {
		t.Fatalf("expected zero counts, got %+v", stats)
	}
}

func TestGuardBlocksAtMinuteLimit(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	g := newTestGuard(&memStore{}, clock)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := g.RecordRequest(ctx); err != nil {
			t.Fatalf("RecordRequest: %v", err)
		}
		clock.Advance(time.Second)
	}

	stats := g.Check(ctx)
	if !stats.Blocked {
		t.Fatal("expected block at minute limit")
	}
	if stats.ActiveCount != 3 {
		t.Fatalf("expected 3 active, got %d", stats.ActiveCount)
	}
}

func TestGuardSlidingWindowPrune(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	g := newTestGuard(&memStore{}, clock)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := g.RecordRequest(ctx); err != nil {
			t.Fatalf("RecordRequest: %v", err)
		}
	}
	if !g.Check(ctx).Blocked {
		t.Fatal("expected block before window elapsed")
	}

	// 61 秒后窗口内的时间戳全部过期
	clock.Advance(61 * time.Second)
	stats := g.Check(ctx)
	if stats.Blocked {
		t.Fatal("expected unblock after window elapsed")
	}
	if stats.ActiveCount != 0 {
		t.Fatalf("expected pruned window, got %d", stats.ActiveCount)
	}
	// 日计数不随窗口滑动重置
	if stats.DailyCount != 3 {
		t.Fatalf("expected dailyCount 3, got %d", stats.DailyCount)
	}
}

func TestGuardDailyLimitAndRollover(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 6, 1, 23, 0, 0, 0, time.UTC)}
	g := newTestGuard(&memStore{}, clock)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := g.RecordRequest(ctx); err != nil {
			t.Fatalf("RecordRequest: %v", err)
		}
		clock.Advance(2 * time.Minute)
	}

	if !g.Check(ctx).Blocked {
		t.Fatal("expected block at daily limit")
	}

	// 跨天后日计数重置
	clock.Advance(2 * time.Hour)
	stats := g.Check(ctx)
	if stats.Blocked {
		t.Fatal("expected unblock after day rollover")
	}
	if stats.DailyCount != 0 {
		t.Fatalf("expected dailyCount reset, got %d", stats.DailyCount)
	}
}

func TestGuardCooldown(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	g := newTestGuard(&memStore{}, clock)
	ctx := context.Background()

	if err := g.TriggerCooldown(ctx, 60); err != nil {
		t.Fatalf("TriggerCooldown: %v", err)
	}

	stats := g.Check(ctx)
	if !stats.Blocked {
		t.Fatal("expected block during cooldown")
	}
	if stats.CooldownRemaining != 60 {
		t.Fatalf("expected 60s remaining, got %d", stats.CooldownRemaining)
	}

	clock.Advance(30 * time.Second)
	if got := g.Check(ctx).CooldownRemaining; got != 30 {
		t.Fatalf("expected 30s remaining, got %d", got)
	}

	clock.Advance(31 * time.Second)
	stats = g.Check(ctx)
	if stats.Blocked {
		t.Fatal("expected unblock after cooldown expiry")
	}
	if stats.CooldownRemaining != 0 {
		t.Fatalf("expected no cooldown, got %d", stats.CooldownRemaining)
	}
}

func TestGuardCooldownRemainingRoundsUp(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	g := newTestGuard(&memStore{}, clock)
	ctx := context.Background()

	if err := g.TriggerCooldown(ctx, 10); err != nil {
		t.Fatalf("TriggerCooldown: %v", err)
	}
	clock.Advance(9500 * time.Millisecond)

	if got := g.Check(ctx).CooldownRemaining; got != 1 {
		t.Fatalf("expected 500ms to round up to 1s, got %d", got)
	}
}

func TestGuardLoadFailureFallsBackToFresh(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	store := &memStore{loadErr: errors.New("redis down")}
	g := newTestGuard(store, clock)

	stats := g.Check(context.Background())
	if stats.Blocked {
		t.Fatal("load failure should degrade to an empty record, not block")
	}
}
