package port

import (
	"context"
	"time"

	"github-repo-radar/internal/domain"
)

// Searcher (搜索客户端): 把查询发给 GitHub 搜索接口
type Searcher interface {
	Search(ctx context.Context, query string, pageSize, page int, sortKey string) (*domain.SearchResult, error)
}

// MetricsFetcher (指标抓取): 每个仓库的辅助指标，都要额外消耗 API 配额
type MetricsFetcher interface {
	ContributorCount(ctx context.Context, owner, repo string) (int, error)
	OpenPullRequestCount(ctx context.Context, owner, repo string) (int, error)
	GoodFirstIssueCount(ctx context.Context, owner, repo string) (int, error)
	CommitActivity(ctx context.Context, owner, repo string) (domain.CommitActivity, error)
}

// Enricher (富化器): 为搜索结果补充辅助指标和健康分，永远不会因为辅助数据失败而失败
type Enricher interface {
	Enrich(ctx context.Context, summary domain.RepositorySummary, mode domain.EnrichMode) domain.EnrichedRepository
	BatchEnrich(ctx context.Context, summaries []domain.RepositorySummary, fullCount int) []domain.EnrichedRepository
}

// Filter 查询拼装、上游排序映射，以及上游无法表达的过滤和排序
type Filter interface {
	BuildQuery(query string, filters domain.FilterSet) string
	UpstreamSort(key domain.SortKey) (upstream string, clientSort bool)
	Apply(repos []domain.EnrichedRepository, filters domain.FilterSet) []domain.EnrichedRepository
	Sort(repos []domain.EnrichedRepository, key domain.SortKey, order domain.SortOrder) []domain.EnrichedRepository
}

// RateLimitReader 只读的配额视图
type RateLimitReader interface {
	Current() domain.RateLimitState
	Info() domain.RateLimitInfo
}

// TTLClass 缓存时长策略
type TTLClass string

const (
	TTLSearch       TTLClass = "search"
	TTLTrending     TTLClass = "trending"
	TTLPopular      TTLClass = "popular"
	TTLRepoDetails  TTLClass = "repo-details"
	TTLContributors TTLClass = "contributors"
	TTLDefault      TTLClass = "default"
)

// Cache 两级缓存对外的接口。写入永远不返回错误。
type Cache interface {
	// Get 命中且未过期时把值解码进 out 并返回 true
	Get(key string, class TTLClass, out interface{}) bool
	Set(key string, value interface{}, class TTLClass)
	Delete(key string)
	Clear()
}

// PersistedEntry 持久层中的一条缓存记录
type PersistedEntry struct {
	Key       string
	Value     []byte
	Class     TTLClass
	StoredAt  time.Time
	ExpiresAt time.Time
}

// PersistentStore (持久层): 字符串 key 的 KV 存储，每个 key 自带过期时间。
// 可能不可用或写满，调用方必须容忍它的所有错误。
type PersistentStore interface {
	// Load 返回所有未过期的记录，用于启动时回填内存层
	Load(ctx context.Context) ([]PersistedEntry, error)
	Put(ctx context.Context, entry PersistedEntry) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

// Notifier 把新发现的仓库推送到外部渠道 (例如飞书群)
type Notifier interface {
	Notify(ctx context.Context, repo domain.EnrichedRepository) error
}
