package ratelimit

import (
	"log"
	"sync"
	"time"

	"github-repo-radar/internal/domain"
)

// Tracker 记录最近一次 GitHub 响应里的配额信息，实现 port.RateLimitReader。
// 只在内存中，不落盘。
type Tracker struct {
	mu        sync.RWMutex
	state     domain.RateLimitState
	warnedLow bool
}

// NewTracker 在拿到第一次真实响应之前，先假设配额是满的
func NewTracker(initialLimit int) *Tracker {
	return &Tracker{
		state: domain.RateLimitState{
			Remaining: initialLimit,
			Limit:     initialLimit,
		},
	}
}

// Record 无条件覆盖当前状态 (后写者胜)
func (t *Tracker) Record(remaining, limit int, reset time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.state = domain.RateLimitState{Remaining: remaining, Limit: limit, Reset: reset}

	// 配额不足 10% 时只提醒一次，恢复到 20% 以上再重新计
	if limit > 0 && remaining < limit/10 && !t.warnedLow {
		log.Printf("[RateLimit] ⚠️ 配额即将耗尽: %d/%d，重置时间 %s",
			remaining, limit, reset.Format(time.RFC3339))
		t.warnedLow = true
	} else if remaining > limit/5 {
		t.warnedLow = false
	}
}

// Current 当前配额状态
func (t *Tracker) Current() domain.RateLimitState {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}

// Info 对外视图，附带是否为认证配额
func (t *Tracker) Info() domain.RateLimitInfo {
	return t.Current().Info()
}
