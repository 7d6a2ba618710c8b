package domain

import "time"

// RepositorySummary 搜索接口直接返回的仓库信息，构造后不再修改
type RepositorySummary struct {
	ID          int64     `json:"id"`
	Owner       string    `json:"owner"`
	Name        string    `json:"name"`
	FullName    string    `json:"full_name"` // 例如 "golang/go"
	URL         string    `json:"url"`
	Description string    `json:"description"`
	Language    string    `json:"language"`
	License     string    `json:"license"`
	Topics      []string  `json:"topics"`
	Stars       int       `json:"stars"`
	Forks       int       `json:"forks"`
	Watchers    int       `json:"watchers"`
	OpenIssues  int       `json:"open_issues"`
	PushedAt    time.Time `json:"pushed_at"` // 零值表示未知
}

// CommitActivity 最近一周/一个月的提交总数
type CommitActivity struct {
	LastWeek  int `json:"last_week"`
	LastMonth int `json:"last_month"`
}

// EnrichMode 富化模式
type EnrichMode string

const (
	// ModeFull 并发请求辅助指标，失败的字段回退到估算值
	ModeFull EnrichMode = "full"
	// ModeEstimateOnly 不发任何网络请求，全部使用启发式估算
	ModeEstimateOnly EnrichMode = "estimateOnly"
	// ModeLazy 只读缓存；缺任何一项就整体退化为 estimateOnly
	ModeLazy EnrichMode = "lazy"
)

// IssueHistoryPoints 月度 issue 趋势的点数
const IssueHistoryPoints = 12

// EnrichedRepository 富化后的仓库。重新富化会生成新的值，而不是修改旧值。
type EnrichedRepository struct {
	RepositorySummary

	Contributors    int            `json:"contributors"`
	ActivePRs       int            `json:"active_prs"`
	GoodFirstIssues int            `json:"good_first_issues"`
	IssueHistory    []int          `json:"issue_history"` // 仅用于可视化的近似值
	Commits         CommitActivity `json:"commits"`
	Health          HealthScore    `json:"health"`

	// Mode 实际生效的富化模式 (lazy 未命中缓存时会是 estimateOnly)
	Mode EnrichMode `json:"mode"`
}

// RateLimitState 最近一次响应头里的配额信息
type RateLimitState struct {
	Remaining int       `json:"remaining"`
	Limit     int       `json:"limit"`
	Reset     time.Time `json:"reset"`
}

// ElevatedQuotaLimit 认证用户每小时 5000 次，匿名只有 60 次
const ElevatedQuotaLimit = 5000

// RateLimitInfo 暴露给调用方的配额视图
type RateLimitInfo struct {
	Remaining        int       `json:"remaining"`
	Limit            int       `json:"limit"`
	ResetDate        time.Time `json:"reset_date"`
	HasElevatedQuota bool      `json:"has_elevated_quota"`
}

// Info 把原始状态转换成对外视图
func (s RateLimitState) Info() RateLimitInfo {
	return RateLimitInfo{
		Remaining:        s.Remaining,
		Limit:            s.Limit,
		ResetDate:        s.Reset,
		HasElevatedQuota: s.Limit >= ElevatedQuotaLimit,
	}
}

// SearchResult 一页原始搜索结果
type SearchResult struct {
	Items      []RepositorySummary `json:"items"`
	TotalCount int                 `json:"total_count"`
}

// SearchPage searchWithFilters 的返回值
type SearchPage struct {
	Results []EnrichedRepository `json:"results"`

	// HasMore 原始页是否正好是满页。这只是启发式判断:
	// 恰好在最后一页满页时会误报，也不参考 TotalCount。
	HasMore bool `json:"has_more"`

	TotalCount int    `json:"total_count"`
	Query      string `json:"query"` // 实际发给上游的查询串
}
