package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jeswinjoss/Velvet-ai-companion-app/internal/config"
	"github.com/jeswinjoss/Velvet-ai-companion-app/pkg/llm"
	"github.com/jeswinjoss/Velvet-ai-companion-app/pkg/log"
	"github.com/jeswinjoss/Velvet-ai-companion-app/pkg/metrics"
)

// AdmissionGuard 是执行器需要的用量登记与冷却触发能力。
type AdmissionGuard interface {
	RecordRequest(ctx context.Context) error
	TriggerCooldown(ctx context.Context, seconds int) error
}

// Attempt 发起一次上游请求并返回响应流。
type Attempt func(ctx context.Context) (llm.Stream, error)

// RequestExecutor 带超时与指数退避重试地执行上游请求。
// 用量在进入重试循环前登记一次，重试不重复计数。
type RequestExecutor struct {
	guard           AdmissionGuard
	maxAttempts     int
	timeout         time.Duration
	cooldownSeconds int
	sleep           func(time.Duration)
}

func NewRequestExecutor(guard AdmissionGuard, retryCfg config.RetryConfig, limitsCfg config.LimitsConfig) *RequestExecutor {
	return &RequestExecutor{
		guard:           guard,
		maxAttempts:     retryCfg.MaxAttempts,
		timeout:         time.Duration(retryCfg.TimeoutMs) * time.Millisecond,
		cooldownSeconds: limitsCfg.CooldownSeconds,
		sleep:           time.Sleep,
	}
}

// Execute 执行请求直到成功、不可重试或尝试次数耗尽。
// 返回的错误总是 *TurnError。
func (e *RequestExecutor) Execute(ctx context.Context, attempt Attempt) (llm.Stream, error) {
	if err := e.guard.RecordRequest(ctx); err != nil {
		// 登记失败只记录日志，不阻断请求
		log.Errorf("登记用量失败: %v", err)
	}

	var lastErr error
	for i := 0; i < e.maxAttempts; i++ {
		stream, err := e.runOnce(ctx, attempt)
		if err == nil {
			return stream, nil
		}
		lastErr = err

		switch classifyError(err) {
		case FailureQuotaExhausted:
			// 上游确认配额耗尽：触发冷却，不再重试
			log.Warnf("上游配额耗尽，进入冷却期: %v", err)
			metrics.QuotaCooldownsTotal.Inc()
			if cdErr := e.guard.TriggerCooldown(ctx, e.cooldownSeconds); cdErr != nil {
				log.Errorf("触发冷却期失败: %v", cdErr)
			}
			return nil, &TurnError{Kind: FailureQuotaExhausted, Cause: err}
		case FailureTransient:
			if i == e.maxAttempts-1 {
				break
			}
			// 指数退避: 1s, 2s, 4s...
			delay := time.Duration(1<<uint(i)) * time.Second
			log.Warnf("瞬时错误，%v 后重试 (第 %d/%d 次): %v", delay, i+1, e.maxAttempts-1, err)
			metrics.RetryAttemptsTotal.Inc()
			e.sleep(delay)
		default:
			return nil, &TurnError{Kind: FailureFatal, Cause: err}
		}
	}

	// 重试次数耗尽后按不可重试处理
	return nil, &TurnError{Kind: FailureFatal, Cause: fmt.Errorf("all %d attempts failed: %w", e.maxAttempts, lastErr)}
}

// runOnce 执行单次尝试，超时则取消并返回超时哨兵错误。
func (e *RequestExecutor) runOnce(ctx context.Context, attempt Attempt) (llm.Stream, error) {
	attemptCtx, cancel := context.WithCancel(ctx)

	type result struct {
		stream llm.Stream
		err    error
	}
	done := make(chan result, 1)
	go func() {
		stream, err := attempt(attemptCtx)
		done <- result{stream: stream, err: err}
	}()

	timer := time.NewTimer(e.timeout)
	defer timer.Stop()

	select {
	case r := <-done:
		if r.err != nil {
			cancel()
			return nil, r.err
		}
		// 流在此之后接管 attemptCtx 的生命周期
		return &cancelStream{Stream: r.stream, cancel: cancel}, nil
	case <-timer.C:
		cancel()
		return nil, ErrRequestTimeout
	case <-ctx.Done():
		cancel()
		return nil, ctx.Err()
	}
}

// cancelStream 在流关闭时释放底层请求的 context。
type cancelStream struct {
	llm.Stream
	cancel context.CancelFunc
}

func (s *cancelStream) Close() error {
	err := s.Stream.Close()
	s.cancel()
	return err
}
