package github

import (
	"context"
	"net/url"

	"github-repo-radar/internal/adapter/ratelimit"
	"github-repo-radar/internal/port"

	"github.com/google/go-github/v53/github"
	"golang.org/x/oauth2"
)

// Client 实现了 port.Searcher 和 port.MetricsFetcher 接口。
// 所有请求都先查缓存，未命中再经过 Gate 发往 GitHub。
type Client struct {
	gh    *github.Client
	cache port.Cache
	gate  *ratelimit.Gate
}

// ClientOption 客户端配置项
type ClientOption func(*Client)

// WithBaseURL 指向其他 API 地址 (GitHub Enterprise 或测试服务器)，地址需以 / 结尾
func WithBaseURL(u *url.URL) ClientOption {
	return func(c *Client) {
		if u != nil {
			c.gh.BaseURL = u
		}
	}
}

// NewClient 初始化 GitHub 客户端
// token: GitHub Personal Access Token (如果是空字符串，就是匿名访问，限制 60次/小时)
func NewClient(token string, cache port.Cache, gate *ratelimit.Gate, opts ...ClientOption) *Client {
	var gh *github.Client

	if token == "" {
		gh = github.NewClient(nil)
	} else {
		ts := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: token},
		)
		tc := oauth2.NewClient(context.Background(), ts)
		gh = github.NewClient(tc)
	}

	c := &Client{gh: gh, cache: cache, gate: gate}
	for _, opt := range opts {
		opt(c)
	}
	return c
}
