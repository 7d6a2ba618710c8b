package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimitState_Info(t *testing.T) {
	reset := time.Unix(1700000000, 0)

	tests := []struct {
		name     string
		state    RateLimitState
		elevated bool
	}{
		{"匿名配额", RateLimitState{Remaining: 42, Limit: 60, Reset: reset}, false},
		{"认证配额", RateLimitState{Remaining: 4999, Limit: 5000, Reset: reset}, true},
		{"企业配额", RateLimitState{Remaining: 100, Limit: 15000, Reset: reset}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := tt.state.Info()
			assert.Equal(t, tt.state.Remaining, info.Remaining)
			assert.Equal(t, tt.state.Limit, info.Limit)
			assert.Equal(t, reset, info.ResetDate)
			assert.Equal(t, tt.elevated, info.HasElevatedQuota)
		})
	}
}

func TestEnrichedRepository_EmbedsSummary(t *testing.T) {
	repo := EnrichedRepository{
		RepositorySummary: RepositorySummary{
			FullName: "golang/go",
			Stars:    120000,
		},
		Contributors: 2000,
		Mode:         ModeFull,
	}

	assert.Equal(t, "golang/go", repo.FullName)
	assert.Equal(t, 120000, repo.Stars)
	assert.Equal(t, ModeFull, repo.Mode)
}
