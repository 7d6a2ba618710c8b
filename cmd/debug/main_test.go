package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()

	valid := filepath.Join(dir, "valid.env")
	require.NoError(t, os.WriteFile(valid, []byte("RADAR_DEBUG_TEST_TOKEN=ghp_from_file\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("RADAR_DEBUG_TEST_TOKEN") })

	tests := []struct {
		name        string
		file        string
		expectError bool
	}{
		{"文件不存在不算错误", filepath.Join(dir, "missing.env"), false},
		{"正常读取", valid, false},
		{"路径是目录", dir, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := loadEnv(tt.file)
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	assert.Equal(t, "ghp_from_file", os.Getenv("RADAR_DEBUG_TEST_TOKEN"))
}
