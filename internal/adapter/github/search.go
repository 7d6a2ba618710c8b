package github

import (
	"context"
	"fmt"
	"strings"

	"github-repo-radar/internal/adapter/cache"
	"github-repo-radar/internal/adapter/filter"
	"github-repo-radar/internal/domain"
	"github-repo-radar/internal/port"

	"github.com/google/go-github/v53/github"
)

const (
	noDescription = "No description available"
	noLicense     = "No License"
	noLanguage    = "Unknown"
)

// Search 搜索仓库。缓存 key 使用调用方传入的原始查询。
func (c *Client) Search(ctx context.Context, query string, pageSize, page int, sortKey string) (*domain.SearchResult, error) {
	key := cache.SearchKey(query, pageSize, page, sortKey)

	var cached domain.SearchResult
	if c.cache.Get(key, port.TTLSearch, &cached) {
		return &cached, nil
	}

	q := strings.TrimSpace(query)
	if q == "" {
		q = filter.DefaultQuery
	}
	opts := &github.SearchOptions{
		Sort:  sortKey,
		Order: "desc",
		ListOptions: github.ListOptions{
			PerPage: pageSize,
			Page:    page,
		},
	}

	requestKey := fmt.Sprintf("GET /search/repositories?q=%s&per_page=%d&page=%d&sort=%s", q, pageSize, page, sortKey)
	v, err := c.gate.Execute(ctx, requestKey, func(ctx context.Context) (interface{}, *github.Response, error) {
		res, resp, err := c.gh.Search.Repositories(ctx, q, opts)
		if err != nil {
			return nil, resp, err
		}
		items := make([]domain.RepositorySummary, 0, len(res.Repositories))
		for _, item := range res.Repositories {
			items = append(items, toSummary(item))
		}
		return domain.SearchResult{Items: items, TotalCount: res.GetTotal()}, resp, nil
	})
	if err != nil {
		return nil, err
	}

	result := v.(domain.SearchResult)
	c.cache.Set(key, result, port.TTLSearch)
	return &result, nil
}

// Repository 单个仓库的详细信息
func (c *Client) Repository(ctx context.Context, owner, repo string) (domain.RepositorySummary, error) {
	key := cache.RepositoryKey(owner, repo)

	var cached domain.RepositorySummary
	if c.cache.Get(key, port.TTLRepoDetails, &cached) {
		return cached, nil
	}

	v, err := c.gate.Execute(ctx, fmt.Sprintf("GET /repos/%s/%s", owner, repo), func(ctx context.Context) (interface{}, *github.Response, error) {
		r, resp, err := c.gh.Repositories.Get(ctx, owner, repo)
		if err != nil {
			return nil, resp, err
		}
		return toSummary(r), resp, nil
	})
	if err != nil {
		return domain.RepositorySummary{}, err
	}

	summary := v.(domain.RepositorySummary)
	c.cache.Set(key, summary, port.TTLRepoDetails)
	return summary, nil
}

// toSummary 将 GitHub 的数据结构转换为我们的 Domain 实体 (DTO 转换)
func toSummary(item *github.Repository) domain.RepositorySummary {
	description := item.GetDescription()
	if description == "" {
		description = noDescription
	}
	language := item.GetLanguage()
	if language == "" {
		language = noLanguage
	}

	var topics []string
	if len(item.Topics) > 0 {
		topics = append(topics, item.Topics...)
	}

	return domain.RepositorySummary{
		ID:          item.GetID(),
		Owner:       item.GetOwner().GetLogin(),
		Name:        item.GetName(),
		FullName:    item.GetFullName(),
		URL:         item.GetHTMLURL(),
		Description: description,
		Language:    language,
		License:     licenseName(item.GetLicense()),
		Topics:      topics,
		Stars:       item.GetStargazersCount(),
		Forks:       item.GetForksCount(),
		Watchers:    item.GetWatchersCount(),
		OpenIssues:  item.GetOpenIssuesCount(),
		PushedAt:    item.GetPushedAt().Time,
	}
}

// licenseName SPDX 标识优先，其次许可证名称
func licenseName(l *github.License) string {
	if id := l.GetSPDXID(); id != "" {
		return id
	}
	if name := l.GetName(); name != "" {
		return name
	}
	return noLicense
}
