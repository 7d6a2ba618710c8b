package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github-repo-radar/internal/adapter/cache"
	"github-repo-radar/internal/adapter/filter"
	"github-repo-radar/internal/common"
	"github-repo-radar/internal/domain"
	"github-repo-radar/internal/port"
)

const (
	// FullEnrichWindow 每页只有前几个结果做 full 富化，其余走 lazy
	FullEnrichWindow = 10
	// MaxPageSize GitHub 搜索接口单页上限
	MaxPageSize = 100
	// DefaultListLimit 热门/趋势列表默认条数
	DefaultListLimit = 6
)

// SearchService 搜索编排: 拼查询 → 搜索 → 富化 → 过滤排序
type SearchService struct {
	searcher port.Searcher
	enricher port.Enricher
	filter   port.Filter
	cache    port.Cache
	quota    port.RateLimitReader
	nowFunc  func() time.Time
}

// NewSearchService 创建新的搜索服务
func NewSearchService(
	searcher port.Searcher,
	enricher port.Enricher,
	filter port.Filter,
	cache port.Cache,
	quota port.RateLimitReader,
) *SearchService {
	return &SearchService{
		searcher: searcher,
		enricher: enricher,
		filter:   filter,
		cache:    cache,
		quota:    quota,
		nowFunc:  time.Now,
	}
}

// SearchWithFilters 按条件搜索一页仓库。
// 限流等上游错误原样返回，调用方可以用 common.IsRateLimited / common.IsRetryable 判断。
func (s *SearchService) SearchWithFilters(ctx context.Context, query string, filters domain.FilterSet, page, pageSize int) (*domain.SearchPage, error) {
	if err := filters.Validate(); err != nil {
		return nil, common.WrapError(common.ErrCodeInvalidInput, "过滤条件不合法", err)
	}
	if page < 1 {
		return nil, common.NewError(common.ErrCodeInvalidInput, fmt.Sprintf("页码必须从 1 开始，收到 %d", page))
	}
	if pageSize < 1 || pageSize > MaxPageSize {
		return nil, common.NewError(common.ErrCodeInvalidInput, fmt.Sprintf("每页条数必须在 1 到 %d 之间，收到 %d", MaxPageSize, pageSize))
	}

	upstreamQuery := s.filter.BuildQuery(query, filters)
	upstreamSort, clientSort := s.filter.UpstreamSort(filters.SortBy)

	raw, err := s.searcher.Search(ctx, upstreamQuery, pageSize, page, upstreamSort)
	if err != nil {
		return nil, err
	}

	enriched := s.enricher.BatchEnrich(ctx, raw.Items, FullEnrichWindow)
	results := s.filter.Apply(enriched, filters)

	// 上游只支持降序，升序请求也需要本地重排
	if filters.SortBy != domain.SortNone && (clientSort || filters.Order() == domain.OrderAsc) {
		results = s.filter.Sort(results, filters.SortBy, filters.Order())
	}

	log.Printf("[Search] %q 第 %d 页: 上游返回 %d 条，过滤后 %d 条", upstreamQuery, page, len(raw.Items), len(results))

	return &domain.SearchPage{
		Results:    results,
		HasMore:    len(raw.Items) == pageSize,
		TotalCount: raw.TotalCount,
		Query:      upstreamQuery,
	}, nil
}

// Trending 最近一个月创建、star 最多的仓库
func (s *SearchService) Trending(ctx context.Context, limit int) ([]domain.EnrichedRepository, error) {
	return s.list(ctx, cache.TrendingKey, port.TTLTrending, filter.TrendingQuery(s.nowFunc()), limit)
}

// Popular star 超过五万的仓库
func (s *SearchService) Popular(ctx context.Context, limit int) ([]domain.EnrichedRepository, error) {
	return s.list(ctx, cache.PopularKey, port.TTLPopular, filter.PopularQuery, limit)
}

// list 趋势/热门列表共用的流程，结果整体缓存，只做 lazy 富化
func (s *SearchService) list(ctx context.Context, keyFor func(int) string, class port.TTLClass, query string, limit int) ([]domain.EnrichedRepository, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxPageSize {
		return nil, common.NewError(common.ErrCodeInvalidInput, fmt.Sprintf("条数不能超过 %d，收到 %d", MaxPageSize, limit))
	}

	key := keyFor(limit)
	var cached []domain.EnrichedRepository
	if s.cache.Get(key, class, &cached) {
		return cached, nil
	}

	raw, err := s.searcher.Search(ctx, query, limit, 1, "stars")
	if err != nil {
		return nil, err
	}
	items := raw.Items
	if len(items) > limit {
		items = items[:limit]
	}

	enriched := s.enricher.BatchEnrich(ctx, items, 0)
	s.cache.Set(key, enriched, class)
	return enriched, nil
}

// ClearCache 清空两级缓存
func (s *SearchService) ClearCache() {
	s.cache.Clear()
	log.Println("[Search] 缓存已清空")
}

// RateLimitInfo 当前配额
func (s *SearchService) RateLimitInfo() domain.RateLimitInfo {
	return s.quota.Info()
}
