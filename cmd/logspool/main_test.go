package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		// xrun 的信号监听通过 signal.Notify 启动常驻 goroutine
		goleak.IgnoreTopFunction("os/signal.signal_recv"),
	)
}

// appTimeout 单次 CLI 运行的上限，命令不能自行退出时测试立即失败
const appTimeout = 20 * time.Second

// runApp 以 stdin 为输入运行 CLI，返回退出码与输出
func runApp(t *testing.T, stdin string, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errOut syncBuffer
	done := make(chan int, 1)
	go func() {
		done <- run(append([]string{"logspool"}, args...), streams{
			in:  strings.NewReader(stdin),
			out: &out,
			err: &errOut,
		})
	}()

	select {
	case code = <-done:
	case <-time.After(appTimeout):
		t.Fatalf("logspool %v did not exit within %s\nstderr:\n%s", args, appTimeout, errOut.String())
	}
	return code, out.String(), errOut.String()
}

func readLog(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestRun_Version(t *testing.T) {
	code, out, _ := runApp(t, "", "--version")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, Version)
}

func TestRun_UsageErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")

	tests := []struct {
		name string
		args []string
		msg  string
	}{
		{"unknown scheme", []string{"-p", path, "--scheme", "weekly", "pipe"}, "unknown"},
		{"buffer too small", []string{"-p", path, "--buffer-capacity", "48", "pipe"}, "buffer"},
		{"zero max files", []string{"-p", path, "--max-files", "0", "pipe"}, "max"},
		{"bad log level", []string{"-p", path, "--log-level", "loud", "pipe"}, "loud"},
		{"bad log format", []string{"-p", path, "--log-format", "xml", "pipe"}, "xml"},
		{"missing config file", []string{"-c", filepath.Join(dir, "none.yaml"), "pipe"}, "load config"},
		{"zero producers", []string{"-p", path, "stress", "--producers", "0"}, "producers"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := runApp(t, "", tt.args...)
			assert.Equal(t, 2, code)
			assert.Contains(t, stderr, "参数错误")
			assert.Contains(t, strings.ToLower(stderr), tt.msg)
		})
	}
}

func TestRun_UnknownFlag(t *testing.T) {
	code, _, _ := runApp(t, "", "--no-such-flag", "pipe")
	assert.Equal(t, 2, code)
}

func TestIsCLIUsageError(t *testing.T) {
	assert.True(t, isCLIUsageError(assertError("flag provided but not defined: -x")))
	assert.True(t, isCLIUsageError(assertError(`invalid value "a" for flag -max-files`)))
	assert.False(t, isCLIUsageError(assertError("disk full")))
}

type assertError string

func (e assertError) Error() string { return string(e) }
