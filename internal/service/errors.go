package service

import (
	"errors"
	"fmt"
	"strings"
)

// ErrRequestTimeout 单次尝试超时的哨兵错误。分类时按瞬时错误处理。
var ErrRequestTimeout = errors.New("REQUEST_TIMEOUT")

// ErrTurnInFlight 同一角色已有未完成的轮次。
var ErrTurnInFlight = errors.New("a turn is already in flight for this profile")

// FailureKind 区分轮次失败的类别，决定用户可见的回复模板。
type FailureKind int

const (
	FailureAdmissionDenied FailureKind = iota // 本地准入拒绝
	FailureQuotaExhausted                     // 上游确认配额耗尽
	FailureTransient                          // 可重试的瞬时错误
	FailureEmptyResponse                      // 流结束但没有任何内容
	FailureFatal                              // 不可重试的错误
)

// TurnError 携带失败类别与底层原因。
type TurnError struct {
	Kind  FailureKind
	Cause error
}

func (e *TurnError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("turn failed (kind=%d)", e.Kind)
	}
	return fmt.Sprintf("turn failed (kind=%d): %v", e.Kind, e.Cause)
}

func (e *TurnError) Unwrap() error { return e.Cause }

// classifyError 根据错误文本中的标记对上游错误分类。
// 配额标记优先于瞬时标记判断。
func classifyError(err error) FailureKind {
	if err == nil {
		return FailureFatal
	}
	msg := err.Error()

	for _, marker := range []string{"quota", "RESOURCE_EXHAUSTED", "429"} {
		if strings.Contains(msg, marker) {
			return FailureQuotaExhausted
		}
	}
	if errors.Is(err, ErrRequestTimeout) {
		return FailureTransient
	}
	for _, marker := range []string{"503", "500", "fetch failed", "REQUEST_TIMEOUT"} {
		if strings.Contains(msg, marker) {
			return FailureTransient
		}
	}
	return FailureFatal
}
