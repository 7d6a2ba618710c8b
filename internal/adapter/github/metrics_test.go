package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"

	"github-repo-radar/internal/common"
	"github-repo-radar/internal/domain"

	"github.com/google/go-github/v53/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_ContributorCount(t *testing.T) {
	tests := []struct {
		name     string
		handler  http.HandlerFunc
		expected int
	}{
		{
			name: "从分页头读取总数",
			handler: func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/repos/golang/go/contributors", r.URL.Path)
				assert.Equal(t, "1", r.URL.Query().Get("per_page"))
				base := "http://" + r.Host + r.URL.Path
				w.Header().Set("Link", fmt.Sprintf(`<%s?per_page=1&page=2>; rel="next", <%s?per_page=1&page=314>; rel="last"`, base, base))
				writeJSON(t, w, []*github.Contributor{{Login: github.String("rsc")}})
			},
			expected: 314,
		},
		{
			name: "没有分页头时数列表",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeJSON(t, w, []*github.Contributor{{Login: github.String("solo")}})
			},
			expected: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := setupMockGitHubServer(t, tt.handler)

			count, err := client.ContributorCount(context.Background(), "golang", "go")

			require.NoError(t, err)
			assert.Equal(t, tt.expected, count)
		})
	}
}

func TestClient_ContributorCountIsCached(t *testing.T) {
	var requests atomic.Int32
	client, _ := setupMockGitHubServer(t, func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		writeJSON(t, w, []*github.Contributor{})
	})

	for i := 0; i < 3; i++ {
		count, err := client.ContributorCount(context.Background(), "tiny", "repo")
		require.NoError(t, err)
		assert.Equal(t, 0, count)
	}
	assert.Equal(t, int32(1), requests.Load())
}

func TestClient_OpenPullRequestCount(t *testing.T) {
	client, _ := setupMockGitHubServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/issues", r.URL.Path)
		assert.Equal(t, "repo:golang/go is:pr is:open", r.URL.Query().Get("q"))
		writeJSON(t, w, &github.IssuesSearchResult{Total: github.Int(12)})
	})

	count, err := client.OpenPullRequestCount(context.Background(), "golang", "go")

	require.NoError(t, err)
	assert.Equal(t, 12, count)
}

func TestClient_GoodFirstIssueCount(t *testing.T) {
	client, _ := setupMockGitHubServer(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		assert.True(t, strings.HasPrefix(q, "repo:golang/go is:issue is:open "))
		assert.Contains(t, q, `label:"good first issue","good-first-issue","beginner","beginner-friendly","first-timers-only"`)
		writeJSON(t, w, &github.IssuesSearchResult{Total: github.Int(7)})
	})

	count, err := client.GoodFirstIssueCount(context.Background(), "golang", "go")

	require.NoError(t, err)
	assert.Equal(t, 7, count)
}

func TestClient_CommitActivity(t *testing.T) {
	tests := []struct {
		name        string
		handler     http.HandlerFunc
		expected    domain.CommitActivity
		expectCode  string
		expectState int
	}{
		{
			name: "汇总最近一周和四周",
			handler: func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/repos/golang/go/stats/commit_activity", r.URL.Path)
				weeks := make([]*github.WeeklyCommitActivity, 0, 6)
				for i := 1; i <= 6; i++ {
					weeks = append(weeks, &github.WeeklyCommitActivity{Total: github.Int(i)})
				}
				writeJSON(t, w, weeks)
			},
			expected: domain.CommitActivity{LastWeek: 6, LastMonth: 18},
		},
		{
			name: "不足四周",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeJSON(t, w, []*github.WeeklyCommitActivity{{Total: github.Int(3)}, {Total: github.Int(4)}})
			},
			expected: domain.CommitActivity{LastWeek: 4, LastMonth: 7},
		},
		{
			name: "统计尚未生成",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusAccepted)
				fmt.Fprint(w, `{}`)
			},
			expectCode:  common.ErrCodeUpstream,
			expectState: http.StatusAccepted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := setupMockGitHubServer(t, tt.handler)

			activity, err := client.CommitActivity(context.Background(), "golang", "go")

			if tt.expectCode != "" {
				require.Error(t, err)
				assert.Equal(t, tt.expectCode, common.ErrorCode(err))
				var ue *common.UpstreamError
				require.True(t, errors.As(err, &ue))
				assert.Equal(t, tt.expectState, ue.StatusCode)
				assert.True(t, common.IsRetryable(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, activity)
		})
	}
}

func TestSummarizeWeeks_Empty(t *testing.T) {
	assert.Equal(t, domain.CommitActivity{}, summarizeWeeks(nil))
}
