package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github-repo-radar/internal/adapter/cache"
	"github-repo-radar/internal/adapter/enricher"
	"github-repo-radar/internal/adapter/feishu"
	"github-repo-radar/internal/adapter/filter"
	"github-repo-radar/internal/adapter/github"
	"github-repo-radar/internal/adapter/ratelimit"
	"github-repo-radar/internal/adapter/repository"
	"github-repo-radar/internal/common"
	"github-repo-radar/internal/domain"
	"github-repo-radar/internal/port"
	"github-repo-radar/internal/service"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

const (
	anonymousQuota     = 60
	authenticatedQuota = domain.ElevatedQuotaLimit
)

// config 运行配置，来自环境变量 (可由 .env 提供)
type config struct {
	GitHubToken   string
	DSN           string
	FeishuWebhook string
}

func loadConfig() config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("⚠️ 读取 .env 失败: %v", err)
	}
	return config{
		GitHubToken:   strings.TrimSpace(os.Getenv("GITHUB_TOKEN")),
		DSN:           strings.TrimSpace(os.Getenv("RADAR_DSN")),
		FeishuWebhook: strings.TrimSpace(os.Getenv("FEISHU_WEBHOOK")),
	}
}

type app struct {
	service  *service.SearchService
	tracker  *ratelimit.Tracker
	store    *repository.PostgresStore
	notifier port.Notifier // 没有配置 Webhook 时为 nil
}

// newApp 组装所有组件。没有 DSN 时只用内存缓存。
func newApp(ctx context.Context, cfg config) (*app, error) {
	quota := anonymousQuota
	if cfg.GitHubToken != "" {
		quota = authenticatedQuota
	} else {
		fmt.Println("⚠️ 未设置 GITHUB_TOKEN，以匿名身份访问 (60 次/小时)")
	}

	var opts []cache.Option
	var store *repository.PostgresStore
	if cfg.DSN != "" {
		var err error
		store, err = repository.NewPostgresStore(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		opts = append(opts, cache.WithPersistentStore(store))
	}

	tracker := ratelimit.NewTracker(quota)
	gate := ratelimit.NewGate(tracker, ratelimit.AnonymousMinInterval)
	memory := cache.NewStore(opts...)
	client := github.NewClient(cfg.GitHubToken, memory, gate)
	e := enricher.NewEnricher(client, memory, tracker)

	var notifier port.Notifier
	if cfg.FeishuWebhook != "" {
		notifier = feishu.NewNotifier(cfg.FeishuWebhook)
	}

	return &app{
		service:  service.NewSearchService(client, e, filter.NewRepoFilter(), memory, tracker),
		tracker:  tracker,
		store:    store,
		notifier: notifier,
	}, nil
}

// parseList 逗号分隔的参数
func parseList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// pageSearcher 搜索模式依赖的最小接口
type pageSearcher interface {
	SearchWithFilters(ctx context.Context, query string, filters domain.FilterSet, page, pageSize int) (*domain.SearchPage, error)
}

var retryInitialDelay = time.Second

// shouldRetry 网络错误和上游 5xx 自动重试；限流重试也没用，直接把重置时间告诉用户
func shouldRetry(err error) bool {
	return common.IsRetryable(err) && !common.IsRateLimited(err)
}

func runSearch(ctx context.Context, svc pageSearcher, w io.Writer, query string, filters domain.FilterSet, page, pageSize int) error {
	_, err := searchAndPrint(ctx, svc, w, query, filters, page, pageSize)
	return err
}

// searchAndPrint 带重试地搜索一页并打印，返回结果供 watch 模式继续处理
func searchAndPrint(ctx context.Context, svc pageSearcher, w io.Writer, query string, filters domain.FilterSet, page, pageSize int) (*domain.SearchPage, error) {
	fmt.Fprintf(w, "🔍 正在搜索 %q (第 %d 页)...\n", query, page)

	var result *domain.SearchPage
	err := common.Do(ctx, func() error {
		var searchErr error
		result, searchErr = svc.SearchWithFilters(ctx, query, filters, page, pageSize)
		return searchErr
	},
		common.WithMaxRetries(2),
		common.WithInitialDelay(retryInitialDelay),
		common.WithRetryIf(shouldRetry),
	)
	if err != nil {
		if common.IsRateLimited(err) {
			fmt.Fprintln(w, "⏳ 配额已用完，可以稍后重试，或设置 GITHUB_TOKEN 提升配额")
		}
		return nil, err
	}

	printPage(w, result)
	return result, nil
}

func runList(ctx context.Context, w io.Writer, title string, fetch func(context.Context, int) ([]domain.EnrichedRepository, error), limit int) error {
	repos, err := fetch(ctx, limit)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "\n================ [ %s ] ================\n", title)
	printRepos(w, repos)
	return nil
}

// newScheduler 校验 cron 表达式并注册任务
func newScheduler(schedule string, job func()) (*cron.Cron, error) {
	c := cron.New()
	if _, err := c.AddFunc(schedule, job); err != nil {
		return nil, common.WrapError(common.ErrCodeInvalidInput, fmt.Sprintf("cron 表达式 %q 不合法", schedule), err)
	}
	return c, nil
}

func printPage(w io.Writer, page *domain.SearchPage) {
	fmt.Fprintf(w, "\n================ [ %s ] ================\n", page.Query)
	if len(page.Results) == 0 {
		fmt.Fprintln(w, "📭 没有符合条件的仓库")
	} else {
		printRepos(w, page.Results)
	}
	fmt.Fprintf(w, "共约 %d 个结果", page.TotalCount)
	if page.HasMore {
		fmt.Fprint(w, "，可能还有下一页")
	}
	fmt.Fprintln(w)
}

func printRepos(w io.Writer, repos []domain.EnrichedRepository) {
	for i, r := range repos {
		fmt.Fprintf(w, "%2d. %s  ⭐ %d  🍴 %d  👥 %d  🩺 %d (%s)\n",
			i+1, r.FullName, r.Stars, r.Forks, r.Contributors, r.Health.Value, r.Health.Label)
		fmt.Fprintf(w, "    %s | %s | 新手 issue %d | 打开 PR %d\n", r.Language, r.License, r.GoodFirstIssues, r.ActivePRs)
		if r.Description != "" {
			fmt.Fprintf(w, "    %s\n", r.Description)
		}
	}
}

func printRateLimit(w io.Writer, info domain.RateLimitInfo) {
	fmt.Fprintf(w, "📊 剩余 %d / %d 次", info.Remaining, info.Limit)
	if !info.ResetDate.IsZero() {
		fmt.Fprintf(w, "，%s 重置", info.ResetDate.Local().Format("15:04:05"))
	}
	if info.HasElevatedQuota {
		fmt.Fprint(w, " (认证配额)")
	}
	fmt.Fprintln(w)
}
