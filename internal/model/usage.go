package model

// UsageRecord 是跨进程重启持久化的用量记录，由 UsageGuard 独占管理。
type UsageRecord struct {
	// Timestamps 保存最近请求的毫秒时间戳，插入顺序即时间顺序。
	// 读取时惰性裁剪掉 60 秒窗口之外的条目。
	Timestamps []int64 `json:"timestamps"`
	// DailyCount 是自 LastDate 以来的请求计数。
	DailyCount int `json:"dailyCount"`
	// LastDate 为本地时区的日历日期（2006-01-02），跨天后计数清零。
	LastDate string `json:"lastDate"`
	// CooldownUntil 为冷却期截止的毫秒时间戳，0 表示没有生效中的冷却。
	CooldownUntil int64 `json:"cooldownUntil"`
}
