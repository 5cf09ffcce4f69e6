package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/omeyang/logspool/pkg/config/xconf"
	"github.com/omeyang/logspool/pkg/observability/xlog"
	"github.com/omeyang/logspool/pkg/observability/xspool"
)

// loadWithArgs 用全局 flag 解析 args 并加载配置
func loadWithArgs(t *testing.T, args ...string) (*loadedConfig, error) {
	t.Helper()
	var (
		lc  *loadedConfig
		err error
	)
	cmd := &cli.Command{
		Name:  "test",
		Flags: globalFlags(),
		Action: func(_ context.Context, cmd *cli.Command) error {
			lc, err = loadConfig(cmd)
			return nil
		},
	}
	require.NoError(t, cmd.Run(context.Background(), append([]string{"test"}, args...)))
	return lc, err
}

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "logspool.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	lc, err := loadWithArgs(t)
	require.NoError(t, err)

	assert.Nil(t, lc.file)
	assert.Equal(t, defaultAppConfig(), lc.app)
	assert.Equal(t, xspool.DefaultBufferCapacity, lc.app.Spool.BufferCapacity)
}

func TestLoadConfig_FileThenFlags(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, `
log:
  level: warn
  format: json
spool:
  path: `+filepath.Join(dir, "from-file.log")+`
  max_files: 5
  max_file_size: 4096
  buffer_capacity: 1024
`)

	lc, err := loadWithArgs(t, "-c", cfgPath, "--max-files", "2")
	require.NoError(t, err)
	require.NotNil(t, lc.file)

	assert.Equal(t, "warn", lc.app.Log.Level)
	assert.Equal(t, "json", lc.app.Log.Format)
	assert.Equal(t, filepath.Join(dir, "from-file.log"), lc.app.Spool.Path)
	assert.Equal(t, 2, lc.app.Spool.MaxFiles, "flag overrides file")
	assert.Equal(t, int64(4096), lc.app.Spool.MaxFileSize)
	assert.Equal(t, 1024, lc.app.Spool.BufferCapacity)
	// 文件未设置的字段保留默认值
	assert.Equal(t, xspool.SchemeCount, lc.app.Spool.Scheme)
}

func TestLoadConfig_InvalidFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, "spool: [unclosed\n")

	_, err := loadWithArgs(t, "-c", cfgPath)
	require.Error(t, err)
	var usageErr *usageError
	assert.ErrorAs(t, err, &usageErr)
}

func TestWatchLogLevel(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, "log:\n  level: info\n")

	cfg, err := xconf.New(cfgPath)
	require.NoError(t, err)

	var sink syncBuffer
	logger, err := newDiagLogger(logConfig{Level: "info"}, &sink)
	require.NoError(t, err)

	stop, err := watchLogLevel(context.Background(), cfg, logger)
	require.NoError(t, err)
	defer stop()

	require.NoError(t, os.WriteFile(cfgPath, []byte("log:\n  level: debug\n"), 0o600))

	assert.Eventually(t, func() bool {
		return logger.GetLevel() == xlog.LevelDebug
	}, 5*time.Second, 20*time.Millisecond)
	assert.Eventually(t, func() bool {
		return sink.Contains("log level reloaded")
	}, 5*time.Second, 20*time.Millisecond)
}

func TestWatchLogLevel_InvalidLevelKeepsCurrent(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, "log:\n  level: warn\n")

	cfg, err := xconf.New(cfgPath)
	require.NoError(t, err)

	var sink syncBuffer
	logger, err := newDiagLogger(logConfig{Level: "warn"}, &sink)
	require.NoError(t, err)

	stop, err := watchLogLevel(context.Background(), cfg, logger)
	require.NoError(t, err)
	defer stop()

	require.NoError(t, os.WriteFile(cfgPath, []byte("log:\n  level: loud\n"), 0o600))

	assert.Eventually(t, func() bool {
		return sink.Contains("ignore invalid log level")
	}, 5*time.Second, 20*time.Millisecond)
	assert.Equal(t, xlog.LevelWarn, logger.GetLevel())
}

func TestWatchLogLevel_NoFile(t *testing.T) {
	stop, err := watchLogLevel(context.Background(), nil, nil)
	require.NoError(t, err)
	stop()
}

func TestGlobalFlags_SchemeUsageNotesRotations(t *testing.T) {
	for _, f := range globalFlags() {
		sf, ok := f.(*cli.StringFlag)
		if !ok || sf.Name != flagScheme {
			continue
		}
		assert.Contains(t, sf.Usage, "rotations")
		return
	}
	t.Fatalf("flag --%s not found", flagScheme)
}

func TestProducerLoggerCleanup(t *testing.T) {
	// SetOutput 构建的 logger 的 cleanup 为空操作，重复调用也安全
	_, cleanup, err := xlog.New().SetOutput(&syncBuffer{}).Build()
	require.NoError(t, err)
	assert.NoError(t, cleanup())
	assert.NoError(t, cleanup())
}
