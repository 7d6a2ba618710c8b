package enricher

import (
	"context"
	"log"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github-repo-radar/internal/adapter/cache"
	"github-repo-radar/internal/domain"
	"github-repo-radar/internal/port"
)

const (
	fieldContributors    = "contributors"
	fieldPullRequests    = "active PRs"
	fieldGoodFirstIssues = "good first issues"
	fieldCommits         = "commit activity"
)

// Enricher 实现了 port.Enricher 接口。
// 辅助指标任何一项失败都只会退化成估算值，Enrich 本身永远不返回错误。
type Enricher struct {
	fetcher     port.MetricsFetcher
	cache       port.Cache
	quota       port.RateLimitReader
	itemTimeout time.Duration
	nowFunc     func() time.Time

	randMu sync.Mutex
	rng    *rand.Rand
}

// Option 富化器配置项
type Option func(*Enricher)

// WithRand 指定 issue 趋势使用的随机源，固定种子即可得到可复现的结果
func WithRand(r *rand.Rand) Option {
	return func(e *Enricher) {
		if r != nil {
			e.rng = r
		}
	}
}

// WithClock 注入当前时间
func WithClock(now func() time.Time) Option {
	return func(e *Enricher) {
		if now != nil {
			e.nowFunc = now
		}
	}
}

// WithItemTimeout 单个仓库 full 富化的最长等待时间
func WithItemTimeout(d time.Duration) Option {
	return func(e *Enricher) {
		if d > 0 {
			e.itemTimeout = d
		}
	}
}

// NewEnricher 创建富化器。cache 为 nil 时 lazy 模式总是退化为估算；quota 为 nil 时视为匿名配额。
func NewEnricher(fetcher port.MetricsFetcher, c port.Cache, quota port.RateLimitReader, opts ...Option) *Enricher {
	now := time.Now()
	e := &Enricher{
		fetcher:     fetcher,
		cache:       c,
		quota:       quota,
		itemTimeout: 30 * time.Second,
		nowFunc:     time.Now,
		rng:         rand.New(rand.NewPCG(uint64(now.UnixNano()), uint64(now.Unix()))),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// EstimateContributors 贡献者人数的启发式估算: max(watchers/10, forks/20, 1)
func EstimateContributors(s domain.RepositorySummary) int {
	n := 1
	if w := s.Watchers / 10; w > n {
		n = w
	}
	if f := s.Forks / 20; f > n {
		n = f
	}
	return n
}

// metrics 富化过程中收集到的辅助指标
type metrics struct {
	contributors    int
	activePRs       int
	goodFirstIssues int
	commits         domain.CommitActivity
}

// Enrich 按指定模式富化单个仓库，未知模式按 estimateOnly 处理
func (e *Enricher) Enrich(ctx context.Context, s domain.RepositorySummary, mode domain.EnrichMode) domain.EnrichedRepository {
	switch mode {
	case domain.ModeFull:
		return e.full(ctx, s)
	case domain.ModeLazy:
		return e.lazy(s)
	default:
		return e.estimate(s)
	}
}

// BatchEnrich 前 fullCount 个 full，其余 lazy。两部分同时进行，结果顺序与输入一致。
func (e *Enricher) BatchEnrich(ctx context.Context, summaries []domain.RepositorySummary, fullCount int) []domain.EnrichedRepository {
	out := make([]domain.EnrichedRepository, len(summaries))

	var wg sync.WaitGroup
	for i, s := range summaries {
		mode := domain.ModeLazy
		if i < fullCount {
			mode = domain.ModeFull
		}
		wg.Add(1)
		go func(i int, s domain.RepositorySummary, mode domain.EnrichMode) {
			defer wg.Done()
			out[i] = e.Enrich(ctx, s, mode)
		}(i, s, mode)
	}
	wg.Wait()

	return out
}

func (e *Enricher) estimate(s domain.RepositorySummary) domain.EnrichedRepository {
	return e.build(s, metrics{contributors: EstimateContributors(s)}, domain.ModeEstimateOnly)
}

// lazy 只读缓存。贡献者和 PR 任何一项未命中都整体退化为估算，不会混用缓存值和估算值。
func (e *Enricher) lazy(s domain.RepositorySummary) domain.EnrichedRepository {
	if e.cache == nil {
		return e.estimate(s)
	}

	var m metrics
	if !e.cache.Get(cache.ContributorsKey(s.Owner, s.Name), port.TTLContributors, &m.contributors) ||
		!e.cache.Get(cache.PullRequestsKey(s.Owner, s.Name), port.TTLRepoDetails, &m.activePRs) {
		return e.estimate(s)
	}

	// 下面两项只有认证配额时才会被抓取，命中就用，没有就是 0
	if !e.cache.Get(cache.GoodFirstIssuesKey(s.Owner, s.Name), port.TTLRepoDetails, &m.goodFirstIssues) {
		m.goodFirstIssues = 0
	}
	if !e.cache.Get(cache.CommitActivityKey(s.Owner, s.Name), port.TTLRepoDetails, &m.commits) {
		m.commits = domain.CommitActivity{}
	}

	return e.build(s, m, domain.ModeLazy)
}

type fieldResult struct {
	field string
	value interface{}
	err   error
}

type fetchFunc func(ctx context.Context) (interface{}, error)

// full 并发抓取辅助指标。贡献者和 PR 数总是抓取；新手 issue 和提交活跃度只在认证配额下抓取。
func (e *Enricher) full(ctx context.Context, s domain.RepositorySummary) domain.EnrichedRepository {
	ctx, cancel := context.WithTimeout(ctx, e.itemTimeout)
	defer cancel()

	owner, name := s.Owner, s.Name
	fetches := map[string]fetchFunc{
		fieldContributors: func(ctx context.Context) (interface{}, error) {
			return e.fetcher.ContributorCount(ctx, owner, name)
		},
		fieldPullRequests: func(ctx context.Context) (interface{}, error) {
			return e.fetcher.OpenPullRequestCount(ctx, owner, name)
		},
	}
	if e.elevated() {
		fetches[fieldGoodFirstIssues] = func(ctx context.Context) (interface{}, error) {
			return e.fetcher.GoodFirstIssueCount(ctx, owner, name)
		}
		fetches[fieldCommits] = func(ctx context.Context) (interface{}, error) {
			return e.fetcher.CommitActivity(ctx, owner, name)
		}
	}

	// 缓冲区足够大，超时后仍在运行的抓取不会阻塞
	results := make(chan fieldResult, len(fetches))
	for field, fetch := range fetches {
		go func(field string, fetch fetchFunc) {
			v, err := fetch(ctx)
			results <- fieldResult{field: field, value: v, err: err}
		}(field, fetch)
	}

	got := make(map[string]interface{}, len(fetches))
collect:
	for received := 0; received < len(fetches); received++ {
		select {
		case r := <-results:
			if r.err != nil {
				log.Printf("[Enricher] %s 的 %s 获取失败，使用估算值: %v", s.FullName, r.field, r.err)
				continue
			}
			got[r.field] = r.value
		case <-ctx.Done():
			log.Printf("[Enricher] %s 富化超时，剩余 %d 项使用估算值", s.FullName, len(fetches)-received)
			break collect
		}
	}

	m := metrics{contributors: EstimateContributors(s)}
	if v, ok := got[fieldContributors].(int); ok {
		m.contributors = v
	}
	if v, ok := got[fieldPullRequests].(int); ok {
		m.activePRs = v
	}
	if v, ok := got[fieldGoodFirstIssues].(int); ok {
		m.goodFirstIssues = v
	}
	if v, ok := got[fieldCommits].(domain.CommitActivity); ok {
		m.commits = v
	}

	return e.build(s, m, domain.ModeFull)
}

func (e *Enricher) elevated() bool {
	return e.quota != nil && e.quota.Info().HasElevatedQuota
}

func (e *Enricher) build(s domain.RepositorySummary, m metrics, mode domain.EnrichMode) domain.EnrichedRepository {
	return domain.EnrichedRepository{
		RepositorySummary: s,
		Contributors:      m.contributors,
		ActivePRs:         m.activePRs,
		GoodFirstIssues:   m.goodFirstIssues,
		IssueHistory:      e.issueTrend(s.OpenIssues),
		Commits:           m.commits,
		Health:            domain.Score(domain.HealthInputFor(s, m.commits, e.nowFunc())),
		Mode:              mode,
	}
}

// issueTrend 12 个月的 issue 数近似曲线，仅供可视化。
// 起点在当前值的 50%~150% 之间随机，线性逼近当前值并叠加 ±15% 的噪声，最后一个点固定为当前值。
func (e *Enricher) issueTrend(current int) []int {
	if current < 0 {
		current = 0
	}

	e.randMu.Lock()
	defer e.randMu.Unlock()

	n := domain.IssueHistoryPoints
	points := make([]int, n)
	target := float64(current)
	start := target * (0.5 + e.rng.Float64())

	for i := 0; i < n-1; i++ {
		progress := float64(i) / float64(n-1)
		base := start + (target-start)*progress
		noise := base * (e.rng.Float64()*0.3 - 0.15)
		points[i] = int(math.Max(0, math.Round(base+noise)))
	}
	points[n-1] = current

	return points
}
