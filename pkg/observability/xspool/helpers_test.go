package xspool

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// testConfig 返回位于临时目录的 count 方案配置
func testConfig(t *testing.T, capacity int) Config {
	t.Helper()
	cfg := DefaultConfig(filepath.Join(t.TempDir(), "app.log"))
	cfg.BufferCapacity = capacity
	return cfg
}

// runStopped 以已取消的 ctx 运行 Writer：一次排空后关闭并返回。
func runStopped(t *testing.T, w *Writer) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, w.Run(ctx))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

