package common

import (
	"errors"
	"fmt"
	"time"
)

// AppError 应用级错误结构
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WrapError 包装错误
func WrapError(code, message string, err error) error {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NewError 创建新错误
func NewError(code, message string) error {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// 错误码常量
const (
	ErrCodeRateLimited  = "RATE_LIMITED"
	ErrCodeUpstream     = "UPSTREAM_ERROR"
	ErrCodeTransport    = "TRANSPORT_ERROR"
	ErrCodeDatabase     = "DATABASE_ERROR"
	ErrCodeInvalidInput = "INVALID_INPUT"
	ErrCodeInternal     = "INTERNAL_ERROR"
)

// RateLimitError GitHub 配额耗尽 (403/429 且带有 rate-limit 头)
type RateLimitError struct {
	Reset time.Time
	Err   error
}

func (e *RateLimitError) Error() string {
	if e.Reset.IsZero() {
		return "GitHub API rate limit exceeded"
	}
	return fmt.Sprintf("GitHub API rate limit exceeded. Resets at %s (retry in %s)",
		e.Reset.Local().Format("15:04:05"), e.RetryAfter().Round(time.Second))
}

func (e *RateLimitError) Unwrap() error {
	return e.Err
}

// RetryAfter 距离配额重置还需等待多久，已过期返回 0
func (e *RateLimitError) RetryAfter() time.Duration {
	d := time.Until(e.Reset)
	if d < 0 {
		return 0
	}
	return d
}

// Code 实现 coder 接口
func (e *RateLimitError) Code() string { return ErrCodeRateLimited }

// UpstreamError 非 2xx 且不是限流的响应
type UpstreamError struct {
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("GitHub API error: status %d", e.StatusCode)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

func (e *UpstreamError) Code() string { return ErrCodeUpstream }

// TransportError 网络层失败 (DNS、连接重置、超时等)
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("GitHub API transport error: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func (e *TransportError) Code() string { return ErrCodeTransport }

// ErrorCode 提取错误码，未知错误返回 INTERNAL_ERROR
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	var coder interface{ Code() string }
	if errors.As(err, &coder) {
		return coder.Code()
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternal
}

// IsRateLimited 判断是否为限流错误
func IsRateLimited(err error) bool {
	var rle *RateLimitError
	return errors.As(err, &rle)
}

// IsRetryable 限流、上游 5xx 和网络错误都可以让用户重试
func IsRetryable(err error) bool {
	switch ErrorCode(err) {
	case ErrCodeRateLimited, ErrCodeTransport:
		return true
	case ErrCodeUpstream:
		var ue *UpstreamError
		if errors.As(err, &ue) {
			return ue.StatusCode >= 500 || ue.StatusCode == 202
		}
	}
	return false
}
