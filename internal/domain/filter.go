package domain

import "fmt"

// SortKey 用户可选的排序字段
type SortKey string

const (
	SortNone            SortKey = ""
	SortStars           SortKey = "stars"
	SortForks           SortKey = "forks"
	SortLastCommit      SortKey = "lastCommit"
	SortGoodFirstIssues SortKey = "goodFirstIssues"
	SortHealthScore     SortKey = "healthScore"
	SortContributors    SortKey = "contributors"
	SortIssues          SortKey = "issues"
	SortPRs             SortKey = "prs"
)

// SortOrder 客户端排序方向，默认降序
type SortOrder string

const (
	OrderDesc SortOrder = "desc"
	OrderAsc  SortOrder = "asc"
)

// FilterSet 结构化的搜索条件。由调用方构造并按值传入，核心层从不修改它。
//
// 零值表示"不限制"。Languages/Licenses/MinStars/HasGoodFirstIssues 会被拼进上游查询；
// 其余字段 GitHub 搜索无法表达，在富化之后于客户端过滤。
type FilterSet struct {
	Languages            []string  `json:"languages"`
	Licenses             []string  `json:"licenses"`
	MinStars             int       `json:"min_stars"`
	HasGoodFirstIssues   bool      `json:"has_good_first_issues"`
	MinHealthScore       int       `json:"min_health_score"`
	MinGoodFirstIssues   int       `json:"min_good_first_issues"`
	Topics               []string  `json:"topics"`
	MaxStars             int       `json:"max_stars"`
	MinForks             int       `json:"min_forks"`
	MaxOpenIssues        int       `json:"max_open_issues"`
	MinActivePRs         int       `json:"min_active_prs"`
	MaxDaysSinceLastPush int       `json:"max_days_since_last_push"`
	SortBy               SortKey   `json:"sort_by"`
	SortOrder            SortOrder `json:"sort_order"`
}

var knownSortKeys = map[SortKey]bool{
	SortNone: true, SortStars: true, SortForks: true, SortLastCommit: true,
	SortGoodFirstIssues: true, SortHealthScore: true, SortContributors: true,
	SortIssues: true, SortPRs: true,
}

// Validate 在编排层入口校验过滤条件
func (f FilterSet) Validate() error {
	if !knownSortKeys[f.SortBy] {
		return fmt.Errorf("unknown sort key %q", f.SortBy)
	}
	if f.SortOrder != "" && f.SortOrder != OrderAsc && f.SortOrder != OrderDesc {
		return fmt.Errorf("unknown sort order %q", f.SortOrder)
	}
	if f.MinHealthScore < 0 || f.MinHealthScore > 100 {
		return fmt.Errorf("min health score must be within [0, 100], got %d", f.MinHealthScore)
	}

	nonNegative := map[string]int{
		"min stars":                f.MinStars,
		"max stars":                f.MaxStars,
		"min good first issues":    f.MinGoodFirstIssues,
		"min forks":                f.MinForks,
		"max open issues":          f.MaxOpenIssues,
		"min active PRs":           f.MinActivePRs,
		"max days since last push": f.MaxDaysSinceLastPush,
	}
	for name, v := range nonNegative {
		if v < 0 {
			return fmt.Errorf("%s must not be negative, got %d", name, v)
		}
	}
	if f.MaxStars > 0 && f.MaxStars < f.MinStars {
		return fmt.Errorf("max stars (%d) is below min stars (%d)", f.MaxStars, f.MinStars)
	}
	return nil
}

// Order 返回生效的排序方向
func (f FilterSet) Order() SortOrder {
	if f.SortOrder == OrderAsc {
		return OrderAsc
	}
	return OrderDesc
}
