package ratelimit

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github-repo-radar/internal/common"
	"github-repo-radar/internal/domain"

	"github.com/google/go-github/v53/github"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

const (
	// AnonymousMinInterval 匿名访问时两次请求之间的最小间隔
	AnonymousMinInterval = time.Second
	// ElevatedMinInterval 认证访问时不做额外节流
	ElevatedMinInterval = 0
	// DefaultCallTimeout 单次上游调用的最长时间，超时按网络错误处理
	DefaultCallTimeout = time.Minute
)

// Thunk 真正发往 GitHub 的调用。返回的 *github.Response 用于读取配额头，可以为 nil。
type Thunk func(ctx context.Context) (interface{}, *github.Response, error)

// Gate 所有对外请求的唯一出口:
// 相同 key 的并发请求合并成一次，不同请求之间保持最小间隔，并把错误翻译成统一的类型。
type Gate struct {
	group       singleflight.Group
	limiter     *rate.Limiter
	tracker     *Tracker
	floor       time.Duration // 非认证配额下的最小间隔
	callTimeout atomic.Int64
	dispatched  atomic.Int64
	nowFunc     func() time.Time
}

// NewGate 创建请求闸门。
// minInterval 是非认证配额下的最小间隔 (0 表示不节流)；tracker 已是认证配额时先不节流，
// 之后每次响应都按实际上报的配额重新调整。
func NewGate(tracker *Tracker, minInterval time.Duration) *Gate {
	initial := minInterval
	if tracker != nil && tracker.Info().HasElevatedQuota {
		initial = ElevatedMinInterval
	}
	g := &Gate{
		limiter: rate.NewLimiter(intervalLimit(initial), 1),
		tracker: tracker,
		floor:   minInterval,
		nowFunc: time.Now,
	}
	g.callTimeout.Store(int64(DefaultCallTimeout))
	return g
}

// SetCallTimeout 调整单次上游调用的超时，d <= 0 时忽略
func (g *Gate) SetCallTimeout(d time.Duration) {
	if d > 0 {
		g.callTimeout.Store(int64(d))
	}
}

func intervalLimit(d time.Duration) rate.Limit {
	if d <= 0 {
		return rate.Inf
	}
	return rate.Every(d)
}

// SetMinInterval 运行时调整最小间隔 (例如发现拿到了认证配额)
func (g *Gate) SetMinInterval(d time.Duration) {
	g.limiter.SetLimit(intervalLimit(d))
}

// Dispatched 实际发往上游的请求数 (合并掉的不算)
func (g *Gate) Dispatched() int64 {
	return g.dispatched.Load()
}

// Execute 执行 key 对应的请求。
//
// 同一个 key 已经在途时，调用方直接等待那次请求的结果 (成功或失败都共享)，
// 完成后 key 立即从在途集合移除。请求一旦发出就不会被取消:
// 共享调用运行在 context.WithoutCancel 之下，发起者离开不影响其他等待者；
// 但每次调用仍受 callTimeout 约束，卡住的上游不会让 key 永远停留在在途集合里。
func (g *Gate) Execute(ctx context.Context, key string, fn Thunk) (interface{}, error) {
	v, err, _ := g.group.Do(key, func() (interface{}, error) {
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Duration(g.callTimeout.Load()))
		defer cancel()

		if err := g.limiter.Wait(callCtx); err != nil {
			return nil, &common.TransportError{Err: err}
		}
		g.dispatched.Add(1)

		value, resp, err := fn(callCtx)
		g.observe(resp)
		if err != nil {
			translated := g.translate(err)
			log.Printf("[Gate] 请求 %s 失败: %v", key, translated)
			return nil, translated
		}
		return value, nil
	})
	return v, err
}

// observe 有配额头的响应都更新 tracker，并按上报的配额调整节流间隔
func (g *Gate) observe(resp *github.Response) {
	if resp == nil || resp.Rate.Limit <= 0 {
		return
	}
	if g.tracker != nil {
		g.tracker.Record(resp.Rate.Remaining, resp.Rate.Limit, resp.Rate.Reset.Time)
	}
	if resp.Rate.Limit >= domain.ElevatedQuotaLimit {
		g.SetMinInterval(ElevatedMinInterval)
	} else {
		g.SetMinInterval(g.floor)
	}
}

// translate 把 go-github 的错误映射为 RateLimitError / UpstreamError / TransportError
func (g *Gate) translate(err error) error {
	var rle *github.RateLimitError
	if errors.As(err, &rle) {
		return &common.RateLimitError{Reset: rle.Rate.Reset.Time, Err: err}
	}

	var abuse *github.AbuseRateLimitError
	if errors.As(err, &abuse) {
		reset := g.nowFunc().Add(time.Minute)
		if abuse.RetryAfter != nil {
			reset = g.nowFunc().Add(*abuse.RetryAfter)
		}
		return &common.RateLimitError{Reset: reset, Err: err}
	}

	var accepted *github.AcceptedError
	if errors.As(err, &accepted) {
		// 统计类接口在后台计算时返回 202
		return &common.UpstreamError{StatusCode: http.StatusAccepted, Err: err}
	}

	var errResp *github.ErrorResponse
	if errors.As(err, &errResp) && errResp.Response != nil {
		status := errResp.Response.StatusCode
		if status == http.StatusForbidden || status == http.StatusTooManyRequests {
			if reset, ok := parseResetHeader(errResp.Response.Header); ok {
				return &common.RateLimitError{Reset: reset, Err: err}
			}
		}
		return &common.UpstreamError{StatusCode: status, Err: err}
	}

	return &common.TransportError{Err: err}
}

func parseResetHeader(h http.Header) (time.Time, bool) {
	raw := h.Get("X-RateLimit-Reset")
	if raw == "" {
		return time.Time{}, false
	}
	epoch, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.Unix(epoch, 0), true
}
