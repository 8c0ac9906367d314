// Package guard 实现本地用量准入控制：滑动窗口限速、日配额与冷却期。
package guard

import (
	"context"
	"sync"
	"time"

	"github.com/jeswinjoss/Velvet-ai-companion-app/internal/config"
	"github.com/jeswinjoss/Velvet-ai-companion-app/internal/model"
	"github.com/jeswinjoss/Velvet-ai-companion-app/pkg/log"
)

// slidingWindow 滑动窗口长度，固定为一分钟
const slidingWindow = time.Minute

// RecordStore 持久化用量记录。实现见 repository.UsageRepository。
type RecordStore interface {
	Load(ctx context.Context) (*model.UsageRecord, error)
	Save(ctx context.Context, record *model.UsageRecord) error
}

// Stats 是对外暴露的用量快照。
type Stats struct {
	ActiveCount       int   `json:"activeCount"`
	ActiveLimit       int   `json:"activeLimit"`
	DailyCount        int   `json:"dailyCount"`
	DailyLimit        int   `json:"dailyLimit"`
	CooldownRemaining int64 `json:"cooldownRemaining"`
	Blocked           bool  `json:"blocked"`
}

// UsageGuard 在每次发起上游请求前做本地准入检查。
// 所有读改写都在互斥锁内完成，记录本身存放在 RecordStore 里。
type UsageGuard struct {
	mu    sync.Mutex
	store RecordStore
	cfg   config.LimitsConfig
	now   func() time.Time
}

func NewUsageGuard(store RecordStore, cfg config.LimitsConfig) *UsageGuard {
	return &UsageGuard{
		store: store,
		cfg:   cfg,
		now:   time.Now,
	}
}

// NewUsageGuardWithClock 允许注入时钟，便于测试。
func NewUsageGuardWithClock(store RecordStore, cfg config.LimitsConfig, now func() time.Time) *UsageGuard {
	return &UsageGuard{
		store: store,
		cfg:   cfg,
		now:   now,
	}
}

// load 读取记录并完成窗口修剪与跨天重置。存储读失败时降级为全新记录。
func (g *UsageGuard) load(ctx context.Context) *model.UsageRecord {
	record, err := g.store.Load(ctx)
	if err != nil {
		log.Errorf("读取用量记录失败，使用空记录继续: %v", err)
		record = &model.UsageRecord{}
	}

	now := g.now()
	cutoff := now.Add(-slidingWindow).UnixMilli()

	// 修剪滑动窗口外的时间戳
	kept := record.Timestamps[:0]
	for _, ts := range record.Timestamps {
		if ts > cutoff {
			kept = append(kept, ts)
		}
	}
	record.Timestamps = kept

	// 跨天重置日计数
	today := now.Format("2006-01-02")
	if record.LastDate != today {
		record.LastDate = today
		record.DailyCount = 0
	}

	return record
}

// Check 返回当前是否允许发起请求。不修改记录。
func (g *UsageGuard) Check(ctx context.Context) Stats {
	g.mu.Lock()
	defer g.mu.Unlock()

	record := g.load(ctx)
	return g.stats(record)
}

// RecordRequest 在准入通过后登记一次请求。每个逻辑轮次只调用一次，
// 重试不重复计数。
func (g *UsageGuard) RecordRequest(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	record := g.load(ctx)
	record.Timestamps = append(record.Timestamps, g.now().UnixMilli())
	record.DailyCount++
	return g.store.Save(ctx, record)
}

// TriggerCooldown 在上游确认配额耗尽后进入冷却期。
func (g *UsageGuard) TriggerCooldown(ctx context.Context, seconds int) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	record := g.load(ctx)
	record.CooldownUntil = g.now().Add(time.Duration(seconds) * time.Second).UnixMilli()
	log.Warnf("进入冷却期 %d 秒", seconds)
	return g.store.Save(ctx, record)
}

// Status 返回当前用量快照，供前端展示。
func (g *UsageGuard) Status(ctx context.Context) Stats {
	return g.Check(ctx)
}

func (g *UsageGuard) stats(record *model.UsageRecord) Stats {
	now := g.now().UnixMilli()

	var cooldownRemaining int64
	if record.CooldownUntil > now {
		// 向上取整到秒
		cooldownRemaining = (record.CooldownUntil - now + 999) / 1000
	}

	blocked := cooldownRemaining > 0 ||
		len(record.Timestamps) >= g.cfg.RequestsPerMinute ||
		record.DailyCount >= g.cfg.RequestsPerDay

	return Stats{
		ActiveCount:       len(record.Timestamps),
		ActiveLimit:       g.cfg.RequestsPerMinute,
		DailyCount:        record.DailyCount,
		DailyLimit:        g.cfg.RequestsPerDay,
		CooldownRemaining: cooldownRemaining,
		Blocked:           blocked,
	}
}
