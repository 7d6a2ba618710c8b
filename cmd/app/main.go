package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github-repo-radar/internal/domain"
)

func main() {
	// 1. 定义命令行参数
	mode := flag.String("mode", "search", "运行模式: search / trending / popular / watch / clear / purge / ratelimit")
	query := flag.String("q", "", "搜索关键词，可以直接写 GitHub 搜索语法")
	languages := flag.String("lang", "", "语言，多个用逗号分隔，例如 Go,Rust")
	licenses := flag.String("license", "", "许可证，多个用逗号分隔，例如 MIT,Apache-2.0")
	topics := flag.String("topic", "", "topic 关键词，多个用逗号分隔 (本地过滤)")
	minStars := flag.Int("min-stars", 0, "最低 star 数")
	maxStars := flag.Int("max-stars", 0, "最高 star 数 (本地过滤)")
	minHealth := flag.Int("min-health", 0, "最低健康分 0-100 (本地过滤)")
	goodFirst := flag.Bool("good-first", false, "只要有新手 issue 的仓库")
	maxDays := flag.Int("max-days", 0, "最近 N 天内有推送 (本地过滤)")
	sortBy := flag.String("sort", "", "排序: stars / forks / lastCommit / goodFirstIssues / healthScore / contributors / issues / prs")
	order := flag.String("order", "desc", "排序方向: desc / asc")
	page := flag.Int("page", 1, "页码")
	pageSize := flag.Int("page-size", 30, "每页条数 (最大 100)")
	limit := flag.Int("limit", 6, "trending / popular 模式的条数")
	schedule := flag.String("cron", "*/30 * * * *", "watch 模式的 cron 表达式")
	notifyMinHealth := flag.Int("notify-min-health", 80, "watch 模式下健康分达到多少才推送飞书")
	flag.Parse()

	// 2. 读取配置 (.env 可选)
	cfg := loadConfig()

	ctx := context.Background()
	radar, err := newApp(ctx, cfg)
	if err != nil {
		log.Fatalf("❌ 初始化失败: %v", err)
	}

	filters := domain.FilterSet{
		Languages:            parseList(*languages),
		Licenses:             parseList(*licenses),
		Topics:               parseList(*topics),
		MinStars:             *minStars,
		MaxStars:             *maxStars,
		MinHealthScore:       *minHealth,
		HasGoodFirstIssues:   *goodFirst,
		MaxDaysSinceLastPush: *maxDays,
		SortBy:               domain.SortKey(*sortBy),
		SortOrder:            domain.SortOrder(*order),
	}

	// 3. 根据模式分流
	switch *mode {
	case "search":
		err = runSearch(ctx, radar.service, os.Stdout, *query, filters, *page, *pageSize)
	case "trending":
		err = runList(ctx, os.Stdout, "🔥 最近一个月的新星", radar.service.Trending, *limit)
	case "popular":
		err = runList(ctx, os.Stdout, "⭐ 长期热门", radar.service.Popular, *limit)
	case "watch":
		w := newWatcher(radar.service, radar.notifier, os.Stdout, *query, filters, *pageSize, *notifyMinHealth)
		err = runWatch(w, *schedule)
	case "clear":
		radar.service.ClearCache()
		fmt.Println("🧹 缓存已清空")
	case "purge":
		err = runPurge(ctx, radar)
	case "ratelimit":
		printRateLimit(os.Stdout, radar.service.RateLimitInfo())
	default:
		fmt.Println("❌ 未知模式，请使用 -mode=search / trending / popular / watch / clear / purge / ratelimit")
		os.Exit(2)
	}

	if err != nil {
		log.Fatalf("❌ %v", err)
	}
}

// runPurge 删除持久层中已过期的记录
func runPurge(ctx context.Context, a *app) error {
	if a.store == nil {
		fmt.Println("⚠️ 未配置 RADAR_DSN，没有持久层需要清理")
		return nil
	}
	n, err := a.store.PurgeExpired(ctx)
	if err != nil {
		return fmt.Errorf("清理过期缓存失败: %w", err)
	}
	fmt.Printf("🧹 已删除 %d 条过期缓存\n", n)
	return nil
}
