package filter

import (
	"fmt"
	"strings"
	"time"

	"github-repo-radar/internal/domain"
)

const (
	// DefaultQuery 没有任何条件时搜索热门仓库
	DefaultQuery = "stars:>1000"
	// PopularQuery 长期热门仓库
	PopularQuery = "stars:>50000"
)

// BuildQuery 把自由文本和结构化条件拼成 GitHub 搜索语法。
// 各项以空格连接成 AND 的限定词；同一字段出现多个限定词时如何匹配由 GitHub 服务端决定。
func BuildQuery(query string, filters domain.FilterSet) string {
	parts := []string{strings.TrimSpace(query)}

	for _, lang := range filters.Languages {
		if lang = strings.TrimSpace(lang); lang != "" {
			parts = append(parts, "language:"+lang)
		}
	}

	if filters.MinStars > 0 {
		parts = append(parts, fmt.Sprintf("stars:>=%d", filters.MinStars))
	}

	if filters.HasGoodFirstIssues {
		parts = append(parts, "good-first-issues:>0")
	}

	for _, license := range filters.Licenses {
		if license = strings.TrimSpace(license); license != "" {
			parts = append(parts, "license:"+strings.ToLower(license))
		}
	}

	var nonEmpty []string
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	if len(nonEmpty) == 0 {
		return DefaultQuery
	}
	return strings.Join(nonEmpty, " ")
}

// UpstreamSort 把排序字段映射为 GitHub 的 sort 参数。
// GitHub 无法排序的字段按 stars 请求，clientSort 为 true 表示结果还需要本地排序。
func UpstreamSort(key domain.SortKey) (upstream string, clientSort bool) {
	switch key {
	case domain.SortStars, domain.SortNone:
		return "stars", false
	case domain.SortForks:
		return "forks", false
	case domain.SortLastCommit:
		return "updated", false
	case domain.SortGoodFirstIssues:
		return "help-wanted-issues", false
	default:
		return "stars", true
	}
}

// TrendingQuery 最近一个月内创建的仓库
func TrendingQuery(now time.Time) string {
	return "created:>" + now.AddDate(0, -1, 0).Format("2006-01-02")
}
