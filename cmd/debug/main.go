package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github-repo-radar/internal/adapter/cache"
	"github-repo-radar/internal/adapter/enricher"
	"github-repo-radar/internal/adapter/github"
	"github-repo-radar/internal/adapter/ratelimit"
	"github-repo-radar/internal/domain"

	"github.com/joho/godotenv"
)

// 调试单个仓库: 拉取详情、full 富化，并把每一项指标和健康分拆解打印出来
func main() {
	target := flag.String("repo", "golang/go", "owner/name")
	flag.Parse()

	if err := loadEnv(); err != nil {
		log.Printf("⚠️ 读取 .env 失败: %v", err)
	}
	githubToken := os.Getenv("GITHUB_TOKEN")

	owner, name, ok := strings.Cut(*target, "/")
	if !ok || owner == "" || name == "" {
		log.Fatalf("❌ -repo 需要 owner/name 格式，收到 %q", *target)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	// 初始化组件
	quota := 60
	if githubToken != "" {
		quota = domain.ElevatedQuotaLimit
	}
	tracker := ratelimit.NewTracker(quota)
	gate := ratelimit.NewGate(tracker, ratelimit.AnonymousMinInterval)
	store := cache.NewStore()
	client := github.NewClient(githubToken, store, gate)
	e := enricher.NewEnricher(client, store, tracker)

	fmt.Printf("🔍 调试模式：%s/%s\n", owner, name)

	// 1. 仓库详情
	summary, err := client.Repository(ctx, owner, name)
	if err != nil {
		log.Fatalf("❌ 获取仓库失败: %v", err)
	}
	fmt.Printf("✅ 仓库详情: ⭐ %d  🍴 %d  👀 %d  打开 issue %d  最近推送 %s\n",
		summary.Stars, summary.Forks, summary.Watchers, summary.OpenIssues, summary.PushedAt.Format("2006-01-02"))

	// 2. 三种模式对比
	estimate := e.Enrich(ctx, summary, domain.ModeEstimateOnly)
	full := e.Enrich(ctx, summary, domain.ModeFull)
	lazy := e.Enrich(ctx, summary, domain.ModeLazy)

	for _, r := range []domain.EnrichedRepository{estimate, full, lazy} {
		fmt.Printf("   [%-12s] 贡献者 %-6d PR %-5d 新手 issue %-4d 提交(周/月) %d/%d  🩺 %d (%s)\n",
			r.Mode, r.Contributors, r.ActivePRs, r.GoodFirstIssues, r.Commits.LastWeek, r.Commits.LastMonth, r.Health.Value, r.Health.Label)
	}

	// 3. 健康分输入
	input := domain.SanitizeHealthInput(domain.HealthInputFor(summary, full.Commits, time.Now()))
	fmt.Printf("🧮 评分输入: 月提交 %.0f, star %.0f, 打开 issue %.0f, 距上次推送 %.0f 天\n",
		input.MonthlyCommits, input.Stars, input.OpenIssues, input.DaysSinceLastPush)
	fmt.Printf("📈 issue 趋势 (近似): %v\n", full.IssueHistory)

	// 4. 配额
	info := tracker.Info()
	fmt.Printf("📊 配额: 剩余 %d / %d，实际请求 %d 次\n", info.Remaining, info.Limit, gate.Dispatched())

	out, err := json.MarshalIndent(full, "", "  ")
	if err != nil {
		log.Fatalf("❌ 序列化富化结果失败: %v", err)
	}
	fmt.Println("\n================ [ full 富化结果 ] ================")
	fmt.Println(string(out))
}

// loadEnv 读取 .env，文件不存在不算错误
func loadEnv(filenames ...string) error {
	if err := godotenv.Load(filenames...); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
