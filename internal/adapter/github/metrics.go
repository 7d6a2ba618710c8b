package github

import (
	"context"
	"fmt"
	"strings"

	"github-repo-radar/internal/adapter/cache"
	"github-repo-radar/internal/adapter/ratelimit"
	"github-repo-radar/internal/domain"
	"github-repo-radar/internal/port"

	"github.com/google/go-github/v53/github"
)

// GoodFirstIssueLabels 视为"新手友好"的标签
var GoodFirstIssueLabels = []string{
	"good first issue",
	"good-first-issue",
	"beginner",
	"beginner-friendly",
	"first-timers-only",
}

// ContributorCount 贡献者人数。
// 每页只取 1 条，分页头里的最后一页页码就是总人数；没有分页头时直接数列表长度。
func (c *Client) ContributorCount(ctx context.Context, owner, repo string) (int, error) {
	return c.cachedCount(ctx, cache.ContributorsKey(owner, repo), port.TTLContributors,
		fmt.Sprintf("GET /repos/%s/%s/contributors?per_page=1", owner, repo),
		func(ctx context.Context) (interface{}, *github.Response, error) {
			opts := &github.ListContributorsOptions{ListOptions: github.ListOptions{PerPage: 1}}
			list, resp, err := c.gh.Repositories.ListContributors(ctx, owner, repo, opts)
			if err != nil {
				return nil, resp, err
			}
			if resp != nil && resp.LastPage > 0 {
				return resp.LastPage, resp, nil
			}
			return len(list), resp, nil
		})
}

// OpenPullRequestCount 仓库内处于打开状态的 PR 数
func (c *Client) OpenPullRequestCount(ctx context.Context, owner, repo string) (int, error) {
	query := fmt.Sprintf("repo:%s/%s is:pr is:open", owner, repo)
	return c.cachedCount(ctx, cache.PullRequestsKey(owner, repo), port.TTLRepoDetails,
		"GET /search/issues?q="+query,
		c.issueTotal(query))
}

// GoodFirstIssueCount 带新手标签的打开 issue 数
func (c *Client) GoodFirstIssueCount(ctx context.Context, owner, repo string) (int, error) {
	query := fmt.Sprintf(`repo:%s/%s is:issue is:open label:"%s"`, owner, repo, strings.Join(GoodFirstIssueLabels, `","`))
	return c.cachedCount(ctx, cache.GoodFirstIssuesKey(owner, repo), port.TTLRepoDetails,
		"GET /search/issues?q="+query,
		c.issueTotal(query))
}

// CommitActivity 最近一周和最近四周的提交数。
// 统计接口首次访问时 GitHub 会返回 202 并在后台计算，这种情况按上游错误返回。
func (c *Client) CommitActivity(ctx context.Context, owner, repo string) (domain.CommitActivity, error) {
	key := cache.CommitActivityKey(owner, repo)

	var cached domain.CommitActivity
	if c.cache.Get(key, port.TTLRepoDetails, &cached) {
		return cached, nil
	}

	v, err := c.gate.Execute(ctx, fmt.Sprintf("GET /repos/%s/%s/stats/commit_activity", owner, repo), func(ctx context.Context) (interface{}, *github.Response, error) {
		weeks, resp, err := c.gh.Repositories.ListCommitActivity(ctx, owner, repo)
		if err != nil {
			return nil, resp, err
		}
		return summarizeWeeks(weeks), resp, nil
	})
	if err != nil {
		return domain.CommitActivity{}, err
	}

	activity := v.(domain.CommitActivity)
	if activity != (domain.CommitActivity{}) {
		c.cache.Set(key, activity, port.TTLRepoDetails)
	}
	return activity, nil
}

// summarizeWeeks GitHub 返回最近 52 周，按时间升序
func summarizeWeeks(weeks []*github.WeeklyCommitActivity) domain.CommitActivity {
	if len(weeks) == 0 {
		return domain.CommitActivity{}
	}
	activity := domain.CommitActivity{LastWeek: weeks[len(weeks)-1].GetTotal()}
	start := len(weeks) - 4
	if start < 0 {
		start = 0
	}
	for _, w := range weeks[start:] {
		activity.LastMonth += w.GetTotal()
	}
	return activity
}

func (c *Client) issueTotal(query string) ratelimit.Thunk {
	return func(ctx context.Context) (interface{}, *github.Response, error) {
		opts := &github.SearchOptions{ListOptions: github.ListOptions{PerPage: 1}}
		res, resp, err := c.gh.Search.Issues(ctx, query, opts)
		if err != nil {
			return nil, resp, err
		}
		return res.GetTotal(), resp, nil
	}
}

// cachedCount 计数类指标的通用流程: 查缓存 → 经 Gate 请求 → 写缓存
func (c *Client) cachedCount(ctx context.Context, key string, class port.TTLClass, requestKey string, fn ratelimit.Thunk) (int, error) {
	var cached int
	if c.cache.Get(key, class, &cached) {
		return cached, nil
	}

	v, err := c.gate.Execute(ctx, requestKey, fn)
	if err != nil {
		return 0, err
	}

	count := v.(int)
	c.cache.Set(key, count, class)
	return count, nil
}
