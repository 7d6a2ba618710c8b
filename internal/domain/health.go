package domain

import (
	"math"
	"time"
)

// HealthScore 0-100 的健康分和对应标签
type HealthScore struct {
	Value int    `json:"value"`
	Label string `json:"label"`
}

// HealthInput 计算健康分需要的全部输入
type HealthInput struct {
	MonthlyCommits    float64
	Stars             float64
	OpenIssues        float64
	DaysSinceLastPush float64 // NaN 或 +Inf 表示没有推送记录
}

const (
	activityWeight   = 30.0
	popularityWeight = 25.0
	issueWeight      = 20.0
	freshnessWeight  = 25.0

	activityFullCommits = 50.0
	popularityFullStars = 50000.0
)

// SanitizeHealthInput 统一的数值清洗:
// 计数类字段 NaN/Inf/负数 → 0；推送天数 NaN/+Inf → +Inf (视为很久没推送)，负数 → 0。
func SanitizeHealthInput(in HealthInput) HealthInput {
	return HealthInput{
		MonthlyCommits:    sanitizeCount(in.MonthlyCommits),
		Stars:             sanitizeCount(in.Stars),
		OpenIssues:        sanitizeCount(in.OpenIssues),
		DaysSinceLastPush: sanitizeDays(in.DaysSinceLastPush),
	}
}

func sanitizeCount(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

func sanitizeDays(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 1) {
		return math.Inf(1)
	}
	if v < 0 {
		return 0
	}
	return v
}

// Score 纯函数，相同输入永远得到相同结果
func Score(in HealthInput) HealthScore {
	in = SanitizeHealthInput(in)

	total := activityScore(in.MonthlyCommits) +
		popularityScore(in.Stars) +
		issueScore(in.OpenIssues, in.Stars) +
		freshnessScore(in.DaysSinceLastPush)

	value := int(math.Round(math.Max(0, math.Min(100, total))))
	return HealthScore{Value: value, Label: HealthLabel(value)}
}

func activityScore(monthlyCommits float64) float64 {
	return math.Min(activityWeight, monthlyCommits/activityFullCommits*activityWeight)
}

func popularityScore(stars float64) float64 {
	return math.Min(popularityWeight, stars/popularityFullStars*popularityWeight)
}

// issueScore 按 openIssues / (stars/100) 分档。
// 0 star 的仓库没有可参照的用户基数，这一项不给分。
func issueScore(openIssues, stars float64) float64 {
	if stars == 0 {
		return 0
	}
	ratio := openIssues / math.Max(1, stars/100)
	switch {
	case ratio <= 0.5:
		return issueWeight
	case ratio <= 1:
		return 15
	case ratio <= 2:
		return 10
	case ratio <= 5:
		return 5
	default:
		return 0
	}
}

func freshnessScore(days float64) float64 {
	switch {
	case days <= 7:
		return freshnessWeight
	case days <= 30:
		return 20
	case days <= 90:
		return 12
	case days <= 180:
		return 6
	default:
		return 0
	}
}

// HealthLabel 分数对应的文字标签
func HealthLabel(score int) string {
	switch {
	case score >= 90:
		return "Excellent"
	case score >= 75:
		return "Good"
	case score >= 60:
		return "Fair"
	case score >= 40:
		return "Poor"
	default:
		return "Critical"
	}
}

// HealthInputFor 从仓库摘要和提交活跃度构造评分输入
func HealthInputFor(repo RepositorySummary, commits CommitActivity, now time.Time) HealthInput {
	days := math.Inf(1)
	if !repo.PushedAt.IsZero() {
		days = math.Floor(now.Sub(repo.PushedAt).Hours() / 24)
	}
	return HealthInput{
		MonthlyCommits:    float64(commits.LastMonth),
		Stars:             float64(repo.Stars),
		OpenIssues:        float64(repo.OpenIssues),
		DaysSinceLastPush: days,
	}
}
