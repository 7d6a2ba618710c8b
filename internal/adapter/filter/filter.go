package filter

import (
	"math"
	"sort"
	"strings"
	"time"

	"github-repo-radar/internal/domain"
)

// RepoFilter 在富化之后执行 GitHub 搜索无法表达的过滤和排序
type RepoFilter struct {
	nowFunc func() time.Time
}

// NewRepoFilter 创建新的过滤器实例
func NewRepoFilter() *RepoFilter {
	return &RepoFilter{nowFunc: time.Now}
}

// Apply 按条件过滤，保持原有顺序，不修改入参
func (f *RepoFilter) Apply(repos []domain.EnrichedRepository, filters domain.FilterSet) []domain.EnrichedRepository {
	current := time.Now()
	if f != nil && f.nowFunc != nil {
		current = f.nowFunc()
	}

	filtered := make([]domain.EnrichedRepository, 0, len(repos))
	for _, repo := range repos {
		if matches(repo, filters, current) {
			filtered = append(filtered, repo)
		}
	}
	return filtered
}

func matches(repo domain.EnrichedRepository, filters domain.FilterSet, now time.Time) bool {
	if filters.MinHealthScore > 0 && repo.Health.Value < filters.MinHealthScore {
		return false
	}
	if filters.MinGoodFirstIssues > 0 && repo.GoodFirstIssues < filters.MinGoodFirstIssues {
		return false
	}
	if filters.MaxStars > 0 && repo.Stars > filters.MaxStars {
		return false
	}
	if filters.MinForks > 0 && repo.Forks < filters.MinForks {
		return false
	}
	if filters.MaxOpenIssues > 0 && repo.OpenIssues > filters.MaxOpenIssues {
		return false
	}
	if filters.MinActivePRs > 0 && repo.ActivePRs < filters.MinActivePRs {
		return false
	}
	if filters.MaxDaysSinceLastPush > 0 && daysSincePush(repo, now) > float64(filters.MaxDaysSinceLastPush) {
		return false
	}
	if len(filters.Topics) > 0 && !hasAnyTopic(repo.Topics, filters.Topics) {
		return false
	}
	return true
}

// daysSincePush 没有推送记录视为无穷久
func daysSincePush(repo domain.EnrichedRepository, now time.Time) float64 {
	if repo.PushedAt.IsZero() {
		return math.Inf(1)
	}
	return math.Floor(now.Sub(repo.PushedAt).Hours() / 24)
}

// hasAnyTopic 任一条件是任一仓库 topic 的子串即可 (忽略大小写)
func hasAnyTopic(repoTopics, wanted []string) bool {
	for _, w := range wanted {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		for _, t := range repoTopics {
			if strings.Contains(strings.ToLower(t), w) {
				return true
			}
		}
	}
	return false
}

// BuildQuery 见包级 BuildQuery
func (f *RepoFilter) BuildQuery(query string, filters domain.FilterSet) string {
	return BuildQuery(query, filters)
}

// UpstreamSort 见包级 UpstreamSort
func (f *RepoFilter) UpstreamSort(key domain.SortKey) (string, bool) {
	return UpstreamSort(key)
}

// Sort 见包级 Sort
func (f *RepoFilter) Sort(repos []domain.EnrichedRepository, key domain.SortKey, order domain.SortOrder) []domain.EnrichedRepository {
	return Sort(repos, key, order)
}

// Sort 稳定排序，返回新切片
func Sort(repos []domain.EnrichedRepository, key domain.SortKey, order domain.SortOrder) []domain.EnrichedRepository {
	sorted := make([]domain.EnrichedRepository, len(repos))
	copy(sorted, repos)

	value := sortValue(key)
	if value == nil {
		return sorted
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := value(sorted[i]), value(sorted[j])
		if order == domain.OrderAsc {
			return a < b
		}
		return a > b
	})
	return sorted
}

func sortValue(key domain.SortKey) func(domain.EnrichedRepository) int64 {
	switch key {
	case domain.SortStars:
		return func(r domain.EnrichedRepository) int64 { return int64(r.Stars) }
	case domain.SortForks:
		return func(r domain.EnrichedRepository) int64 { return int64(r.Forks) }
	case domain.SortIssues:
		return func(r domain.EnrichedRepository) int64 { return int64(r.OpenIssues) }
	case domain.SortPRs:
		return func(r domain.EnrichedRepository) int64 { return int64(r.ActivePRs) }
	case domain.SortGoodFirstIssues:
		return func(r domain.EnrichedRepository) int64 { return int64(r.GoodFirstIssues) }
	case domain.SortHealthScore:
		return func(r domain.EnrichedRepository) int64 { return int64(r.Health.Value) }
	case domain.SortContributors:
		return func(r domain.EnrichedRepository) int64 { return int64(r.Contributors) }
	case domain.SortLastCommit:
		// 没有推送记录的排在最旧
		return func(r domain.EnrichedRepository) int64 {
			if r.PushedAt.IsZero() {
				return math.MinInt64
			}
			return r.PushedAt.Unix()
		}
	default:
		return nil
	}
}
