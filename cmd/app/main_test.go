package main

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github-repo-radar/internal/common"
	"github-repo-radar/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockPageSearcher 模拟搜索服务
type MockPageSearcher struct {
	mock.Mock
}

func (m *MockPageSearcher) SearchWithFilters(ctx context.Context, query string, filters domain.FilterSet, page, pageSize int) (*domain.SearchPage, error) {
	args := m.Called(ctx, query, filters, page, pageSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SearchPage), args.Error(1)
}

func init() {
	retryInitialDelay = 10 * time.Millisecond
}

func samplePage() *domain.SearchPage {
	return &domain.SearchPage{
		Query:      "cli language:Go",
		TotalCount: 120,
		HasMore:    true,
		Results: []domain.EnrichedRepository{{
			RepositorySummary: domain.RepositorySummary{
				FullName:    "spf13/cobra",
				Description: "A Commander for modern Go CLI interactions",
				Language:    "Go",
				License:     "Apache-2.0",
				Stars:       36000,
				Forks:       2800,
			},
			Contributors: 250,
			Health:       domain.HealthScore{Value: 88, Label: "Good"},
		}},
	}
}

func TestParseList(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected []string
	}{
		{"空字符串", "", nil},
		{"单个", "Go", []string{"Go"}},
		{"去掉空白和空项", " Go, ,Rust ,", []string{"Go", "Rust"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseList(tt.raw))
		})
	}
}

func TestRunSearch(t *testing.T) {
	filters := domain.FilterSet{Languages: []string{"Go"}}

	tests := []struct {
		name        string
		setupMock   func(*MockPageSearcher)
		expectError bool
		calls       int
		verify      func(*testing.T, string, error)
	}{
		{
			name: "成功并打印结果",
			setupMock: func(m *MockPageSearcher) {
				m.On("SearchWithFilters", mock.Anything, "cli", filters, 1, 30).Return(samplePage(), nil).Once()
			},
			calls: 1,
			verify: func(t *testing.T, out string, err error) {
				require.NoError(t, err)
				assert.Contains(t, out, "spf13/cobra")
				assert.Contains(t, out, "88 (Good)")
				assert.Contains(t, out, "可能还有下一页")
			},
		},
		{
			name: "网络错误自动重试",
			setupMock: func(m *MockPageSearcher) {
				m.On("SearchWithFilters", mock.Anything, "cli", filters, 1, 30).
					Return(nil, &common.TransportError{Err: errors.New("connection reset")}).Once()
				m.On("SearchWithFilters", mock.Anything, "cli", filters, 1, 30).Return(samplePage(), nil).Once()
			},
			calls: 2,
			verify: func(t *testing.T, out string, err error) {
				require.NoError(t, err)
				assert.Contains(t, out, "spf13/cobra")
			},
		},
		{
			name: "限流不重试",
			setupMock: func(m *MockPageSearcher) {
				m.On("SearchWithFilters", mock.Anything, "cli", filters, 1, 30).
					Return(nil, &common.RateLimitError{Reset: time.Now().Add(time.Hour)})
			},
			calls: 1,
			verify: func(t *testing.T, out string, err error) {
				assert.True(t, common.IsRateLimited(err))
				assert.Contains(t, out, "配额已用完")
			},
		},
		{
			name: "参数错误不重试",
			setupMock: func(m *MockPageSearcher) {
				m.On("SearchWithFilters", mock.Anything, "cli", filters, 1, 30).
					Return(nil, common.NewError(common.ErrCodeInvalidInput, "bad"))
			},
			calls: 1,
			verify: func(t *testing.T, out string, err error) {
				assert.Equal(t, common.ErrCodeInvalidInput, common.ErrorCode(err))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := new(MockPageSearcher)
			tt.setupMock(m)
			var out bytes.Buffer

			err := runSearch(context.Background(), m, &out, "cli", filters, 1, 30)

			tt.verify(t, out.String(), err)
			m.AssertNumberOfCalls(t, "SearchWithFilters", tt.calls)
		})
	}
}

func TestRunList(t *testing.T) {
	var out bytes.Buffer
	fetch := func(ctx context.Context, limit int) ([]domain.EnrichedRepository, error) {
		assert.Equal(t, 6, limit)
		return samplePage().Results, nil
	}

	require.NoError(t, runList(context.Background(), &out, "热门", fetch, 6))
	assert.Contains(t, out.String(), "[ 热门 ]")
	assert.Contains(t, out.String(), "spf13/cobra")

	failing := func(ctx context.Context, limit int) ([]domain.EnrichedRepository, error) {
		return nil, &common.UpstreamError{StatusCode: 502}
	}
	assert.Error(t, runList(context.Background(), &out, "热门", failing, 6))
}

func TestNewScheduler(t *testing.T) {
	s, err := newScheduler("*/30 * * * *", func() {})
	require.NoError(t, err)
	assert.Len(t, s.Entries(), 1)

	_, err = newScheduler("every thirty minutes", func() {})
	assert.Equal(t, common.ErrCodeInvalidInput, common.ErrorCode(err))
}

func TestPrintRateLimit(t *testing.T) {
	var out bytes.Buffer
	printRateLimit(&out, domain.RateLimitInfo{Remaining: 4990, Limit: 5000, HasElevatedQuota: true})
	assert.Contains(t, out.String(), "4990 / 5000")
	assert.Contains(t, out.String(), "认证配额")
}

func TestPrintPage_Empty(t *testing.T) {
	var out bytes.Buffer
	printPage(&out, &domain.SearchPage{Query: "stars:>1000"})
	assert.Contains(t, out.String(), "没有符合条件的仓库")
	assert.NotContains(t, out.String(), "下一页")
}

func TestNewApp_Anonymous(t *testing.T) {
	radar, err := newApp(context.Background(), config{})
	require.NoError(t, err)

	assert.Nil(t, radar.store)
	assert.Nil(t, radar.notifier)
	info := radar.service.RateLimitInfo()
	assert.Equal(t, 60, info.Limit)
	assert.False(t, info.HasElevatedQuota)
}

func TestNewApp_WithToken(t *testing.T) {
	radar, err := newApp(context.Background(), config{GitHubToken: "ghp_test", FeishuWebhook: "https://open.feishu.cn/hook/x"})
	require.NoError(t, err)

	assert.NotNil(t, radar.notifier)

	assert.True(t, radar.service.RateLimitInfo().HasElevatedQuota)
}
