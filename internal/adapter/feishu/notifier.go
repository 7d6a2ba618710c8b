package feishu

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github-repo-radar/internal/common"
	"github-repo-radar/internal/domain"
)

// Notifier 实现了 port.Notifier 接口，把仓库推送到飞书群机器人
type Notifier struct {
	webhookURL string
	httpClient *http.Client
}

func NewNotifier(webhook string) *Notifier {
	if webhook == "" {
		log.Println("⚠️ 警告: 飞书 Webhook 为空，推送功能将无法工作！")
	}
	return &Notifier{
		webhookURL: webhook,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Notify 发送飞书卡片消息 (Schema 2.0)
func (n *Notifier) Notify(ctx context.Context, repo domain.EnrichedRepository) error {
	if n.webhookURL == "" {
		return common.NewError(common.ErrCodeInvalidInput, "Webhook URL 为空")
	}

	body, err := json.Marshal(buildCard(repo))
	if err != nil {
		return common.WrapError(common.ErrCodeInternal, "构造飞书消息失败", err)
	}

	// 发送请求 (带重试机制)
	err = common.Do(ctx, func() error {
		req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
		if reqErr != nil {
			return reqErr
		}
		req.Header.Set("Content-Type", "application/json")

		resp, postErr := n.httpClient.Do(req)
		if postErr != nil {
			return postErr
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("飞书 API 报错: 状态码 %d", resp.StatusCode)
		}
		return nil
	},
		common.WithMaxRetries(3),
		common.WithInitialDelay(500*time.Millisecond),
	)
	if err != nil {
		return fmt.Errorf("发送请求失败: %w", err)
	}

	return nil
}

func buildCard(repo domain.EnrichedRepository) map[string]interface{} {
	title := fmt.Sprintf("📡 发现健康仓库: %s", repo.FullName)

	pushed := "未知"
	if !repo.PushedAt.IsZero() {
		pushed = repo.PushedAt.Format("2006-01-02")
	}
	topics := "无"
	if len(repo.Topics) > 0 {
		topics = strings.Join(repo.Topics, ", ")
	}

	mdContent := fmt.Sprintf(`**⭐ Stars:** %d  |  **🍴 Forks:** %d  |  **语言:** %s  |  **许可证:** %s
**🩺 健康分:** %d/100 (%s)
**👥 贡献者:** %d  |  **🔀 打开 PR:** %d  |  **🌱 新手 issue:** %d
**🕒 最近推送:** %s  |  **🏷️ Topics:** %s

**📝 项目描述:**
%s
`,
		repo.Stars, repo.Forks, repo.Language, repo.License,
		repo.Health.Value, repo.Health.Label,
		repo.Contributors, repo.ActivePRs, repo.GoodFirstIssues,
		pushed, topics,
		repo.Description)

	template := "blue"
	if repo.Health.Value >= 90 {
		template = "green"
	}

	return map[string]interface{}{
		"msg_type": "interactive",
		"card": map[string]interface{}{
			"schema": "2.0",
			"config": map[string]interface{}{
				"update_multi": true,
			},
			"header": map[string]interface{}{
				"title": map[string]interface{}{
					"tag":     "plain_text",
					"content": title,
				},
				"template": template,
			},
			"body": map[string]interface{}{
				"direction": "vertical",
				"elements": []map[string]interface{}{
					{
						"tag":       "markdown",
						"content":   mdContent,
						"text_size": "normal",
					},
					{
						"tag": "button",
						"text": map[string]interface{}{
							"tag":     "plain_text",
							"content": "🔗 查看仓库",
						},
						"type": "primary",
						"behaviors": []map[string]interface{}{
							{
								"type":        "open_url",
								"default_url": repo.URL,
							},
						},
					},
				},
			},
		},
	}
}
