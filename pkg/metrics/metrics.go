// Package metrics 定义了服务的 Prometheus 指标。
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ChatTurnsTotal 按结果统计对话轮次（delivered/admission_denied/quota_exhausted/empty_response/fatal）。
	ChatTurnsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "velvet_chat_turns_total",
		Help: "Total chat turns by outcome",
	}, []string{"outcome"})

	// RetryAttemptsTotal 统计因瞬时错误触发的重试次数。
	RetryAttemptsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "velvet_retry_attempts_total",
		Help: "Total transient-failure retries performed by the request executor",
	})

	// QuotaCooldownsTotal 统计远端确认配额耗尽后触发的本地冷却次数。
	QuotaCooldownsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "velvet_quota_cooldowns_total",
		Help: "Total cooldowns triggered by confirmed quota exhaustion",
	})

	// AdmissionBlockedTotal 统计在本地准入检查阶段被拒绝的请求数。
	AdmissionBlockedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "velvet_admission_blocked_total",
		Help: "Total requests rejected by the local usage guard",
	})
)
