package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/omeyang/logspool/pkg/config/xconf"
	"github.com/omeyang/logspool/pkg/observability/xlog"
	"github.com/omeyang/logspool/pkg/observability/xspool"
)

// defaultLogPath 未配置时的活动日志文件路径
const defaultLogPath = "logs/logspool.log"

// logConfig logspool 自身诊断日志配置，level 支持热更新
type logConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// appConfig 配置文件结构
//
//	log:
//	  level: info
//	  format: text
//	spool:
//	  path: /var/log/app/app.log
//	  max_files: 3
//	  max_file_size: 10485760
//	  buffer_capacity: 32768
//	  scheme: count
type appConfig struct {
	Log   logConfig     `koanf:"log"`
	Spool xspool.Config `koanf:"spool"`
}

func defaultAppConfig() appConfig {
	return appConfig{
		Log:   logConfig{Level: "info", Format: "text"},
		Spool: xspool.DefaultConfig(defaultLogPath),
	}
}

// 全局 flag 名称
const (
	flagConfig         = "config"
	flagPath           = "path"
	flagMaxFiles       = "max-files"
	flagMaxFileSize    = "max-file-size"
	flagBufferCapacity = "buffer-capacity"
	flagScheme         = "scheme"
	flagLogLevel       = "log-level"
	flagLogFormat      = "log-format"
)

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    flagConfig,
			Aliases: []string{"c"},
			Usage:   "配置文件路径（YAML/JSON）",
		},
		&cli.StringFlag{
			Name:    flagPath,
			Aliases: []string{"p"},
			Usage:   "活动日志文件路径",
			Value:   defaultLogPath,
		},
		&cli.IntFlag{
			Name:  flagMaxFiles,
			Usage: "保留的归档数量",
			Value: xspool.DefaultMaxFiles,
		},
		&cli.Int64Flag{
			Name:  flagMaxFileSize,
			Usage: "单个文件最大字节数",
			Value: xspool.DefaultMaxFileSize,
		},
		&cli.IntFlag{
			Name:  flagBufferCapacity,
			Usage: "共享缓冲区容量（字节）",
			Value: xspool.DefaultBufferCapacity,
		},
		&cli.StringFlag{
			Name:  flagScheme,
			Usage: "轮转方案（count/timestamp），timestamp 方案不统计轮转次数（rotations 恒为 0）",
			Value: xspool.SchemeCount,
		},
		&cli.StringFlag{
			Name:  flagLogLevel,
			Usage: "诊断日志级别（debug/info/warn/error）",
			Value: "info",
		},
		&cli.StringFlag{
			Name:  flagLogFormat,
			Usage: "日志格式（text/json）",
			Value: "text",
		},
	}
}

// loadedConfig 合并后的配置，file 仅在指定 --config 时非 nil
type loadedConfig struct {
	app  appConfig
	file xconf.Config
}

// loadConfig 按"默认值 < 配置文件 < 命令行参数"合并配置并校验。
// 所有错误都包装为 usageError。
func loadConfig(cmd *cli.Command) (*loadedConfig, error) {
	lc := &loadedConfig{app: defaultAppConfig()}

	if path := cmd.String(flagConfig); path != "" {
		cfg, err := xconf.New(path)
		if err != nil {
			return nil, &usageError{err: fmt.Errorf("load config: %w", err)}
		}
		if err := cfg.Unmarshal("", &lc.app); err != nil {
			return nil, &usageError{err: fmt.Errorf("decode config %s: %w", path, err)}
		}
		lc.file = cfg
	}

	applyFlags(cmd, &lc.app)

	if err := lc.app.Spool.Validate(); err != nil {
		return nil, &usageError{err: err}
	}
	if _, err := xlog.ParseLevel(lc.app.Log.Level); err != nil {
		return nil, &usageError{err: err}
	}
	return lc, nil
}

// applyFlags 用显式设置的 flag 覆盖配置
func applyFlags(cmd *cli.Command, app *appConfig) {
	if cmd.IsSet(flagPath) {
		app.Spool.Path = cmd.String(flagPath)
	}
	if cmd.IsSet(flagMaxFiles) {
		app.Spool.MaxFiles = cmd.Int(flagMaxFiles)
	}
	if cmd.IsSet(flagMaxFileSize) {
		app.Spool.MaxFileSize = cmd.Int64(flagMaxFileSize)
	}
	if cmd.IsSet(flagBufferCapacity) {
		app.Spool.BufferCapacity = cmd.Int(flagBufferCapacity)
	}
	if cmd.IsSet(flagScheme) {
		app.Spool.Scheme = cmd.String(flagScheme)
	}
	if cmd.IsSet(flagLogLevel) {
		app.Log.Level = cmd.String(flagLogLevel)
	}
	if cmd.IsSet(flagLogFormat) {
		app.Log.Format = cmd.String(flagLogFormat)
	}
}

// newDiagLogger 创建写到 w 的诊断日志，不经过 spool
func newDiagLogger(cfg logConfig, w io.Writer) (xlog.LoggerWithLevel, error) {
	logger, _, err := xlog.New().
		SetOutput(w).
		SetLevelString(cfg.Level).
		SetFormat(cfg.Format).
		SetAttrs(xlog.Component("logspool")).
		Build()
	if err != nil {
		return nil, &usageError{err: err}
	}
	return logger, nil
}

// watchLogLevel 监视配置文件，变更后热更新 logger 级别。
// 未使用配置文件时返回空操作的 stop。
func watchLogLevel(ctx context.Context, cfg xconf.Config, logger xlog.LoggerWithLevel) (stop func(), err error) {
	if cfg == nil {
		return func() {}, nil
	}

	w, err := xconf.Watch(cfg, func(c xconf.Config, err error) {
		if err != nil {
			logger.Warn(ctx, "config reload failed", xlog.Err(err))
			return
		}
		var lc logConfig
		if err := c.Unmarshal("log", &lc); err != nil {
			logger.Warn(ctx, "decode log config failed", xlog.Err(err))
			return
		}
		if lc.Level == "" {
			return
		}
		level, err := xlog.ParseLevel(lc.Level)
		if err != nil {
			logger.Warn(ctx, "ignore invalid log level", xlog.Err(err))
			return
		}
		logger.SetLevel(level)
		logger.Info(ctx, "log level reloaded",
			slog.String("level", level.String()),
			slog.Uint64("version", c.Version()),
		)
	})
	if err != nil {
		return nil, err
	}
	w.StartAsync()
	return func() { _ = w.Stop() }, nil
}
