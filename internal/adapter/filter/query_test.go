package filter

import (
	"testing"
	"time"

	"github-repo-radar/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestBuildQuery(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		filters  domain.FilterSet
		expected string
	}{
		{
			name:     "没有任何条件",
			expected: "stars:>1000",
		},
		{
			name:     "只有空白",
			query:    "   ",
			expected: "stars:>1000",
		},
		{
			name:     "自由文本原样保留",
			query:    "react hooks",
			expected: "react hooks",
		},
		{
			name:     "语言和最低 star",
			filters:  domain.FilterSet{Languages: []string{"TypeScript"}, MinStars: 1000},
			expected: "language:TypeScript stars:>=1000",
		},
		{
			name:  "全部条件",
			query: "orm",
			filters: domain.FilterSet{
				Languages:          []string{"Go", "Rust"},
				MinStars:           50,
				HasGoodFirstIssues: true,
				Licenses:           []string{"MIT", "Apache-2.0"},
			},
			expected: "orm language:Go language:Rust stars:>=50 good-first-issues:>0 license:mit license:apache-2.0",
		},
		{
			name:     "客户端条件不进入查询",
			filters:  domain.FilterSet{MinHealthScore: 80, Topics: []string{"cli"}, MaxStars: 10},
			expected: "stars:>1000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, BuildQuery(tt.query, tt.filters))
		})
	}
}

func TestUpstreamSort(t *testing.T) {
	tests := []struct {
		key        domain.SortKey
		upstream   string
		clientSort bool
	}{
		{domain.SortNone, "stars", false},
		{domain.SortStars, "stars", false},
		{domain.SortForks, "forks", false},
		{domain.SortLastCommit, "updated", false},
		{domain.SortGoodFirstIssues, "help-wanted-issues", false},
		{domain.SortHealthScore, "stars", true},
		{domain.SortContributors, "stars", true},
		{domain.SortIssues, "stars", true},
		{domain.SortPRs, "stars", true},
	}

	for _, tt := range tests {
		t.Run(string(tt.key), func(t *testing.T) {
			upstream, clientSort := UpstreamSort(tt.key)
			assert.Equal(t, tt.upstream, upstream)
			assert.Equal(t, tt.clientSort, clientSort)
		})
	}
}

func TestTrendingQuery(t *testing.T) {
	now := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, "created:>2024-02-15", TrendingQuery(now))
}
