package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github-repo-radar/internal/domain"
	"github-repo-radar/internal/port"
)

// watcher 定时重复同一个搜索，并把第一次出现的健康仓库推送出去
type watcher struct {
	svc       pageSearcher
	notifier  port.Notifier
	out       io.Writer
	query     string
	filters   domain.FilterSet
	pageSize  int
	minHealth int

	mu   sync.Mutex
	seen map[string]bool
}

func newWatcher(svc pageSearcher, notifier port.Notifier, out io.Writer, query string, filters domain.FilterSet, pageSize, minHealth int) *watcher {
	return &watcher{
		svc:       svc,
		notifier:  notifier,
		out:       out,
		query:     query,
		filters:   filters,
		pageSize:  pageSize,
		minHealth: minHealth,
		seen:      make(map[string]bool),
	}
}

// tick 执行一轮搜索，返回本轮成功推送的仓库数
func (w *watcher) tick(ctx context.Context) (int, error) {
	page, err := searchAndPrint(ctx, w.svc, w.out, w.query, w.filters, 1, w.pageSize)
	if err != nil {
		return 0, err
	}
	if w.notifier == nil {
		return 0, nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	sent := 0
	for _, repo := range page.Results {
		if w.seen[repo.FullName] || repo.Health.Value < w.minHealth {
			continue
		}
		if err := w.notifier.Notify(ctx, repo); err != nil {
			// 下一轮再试
			log.Printf("❌ 推送 %s 失败: %v", repo.FullName, err)
			continue
		}
		w.seen[repo.FullName] = true
		sent++
	}
	if sent > 0 {
		fmt.Fprintf(w.out, "📨 已推送 %d 个新仓库\n", sent)
	}
	return sent, nil
}

// runWatch 按 cron 表达式定时执行，Ctrl+C 优雅退出
func runWatch(w *watcher, schedule string) error {
	job := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if _, err := w.tick(ctx); err != nil {
			log.Printf("❌ 定时搜索失败: %v", err)
		}
	}

	scheduler, err := newScheduler(schedule, job)
	if err != nil {
		return err
	}

	fmt.Printf("⏰ 定时执行模式已启动，计划: %s\n", schedule)
	if w.notifier == nil {
		fmt.Println("⚠️ 未设置 FEISHU_WEBHOOK，只在终端打印结果")
	}
	fmt.Println("按下 Ctrl+C 可以优雅停止程序")

	// 立即执行一次
	job()
	scheduler.Start()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	fmt.Println("\n👋 收到停止信号，等待正在执行的任务结束...")
	<-scheduler.Stop().Done()
	return nil
}
