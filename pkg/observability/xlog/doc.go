// Package xlog 基于 log/slog 的结构化日志。
//
// # 创建 Logger
//
//	logger, cleanup, err := xlog.New().
//		SetOutput(sink).          // 任意 io.Writer，常用 xspool.Sink
//		SetLevelString("info").
//		SetFormat("json").
//		SetAttrs(xlog.RunID(id)).
//		SetOnError(func(err error) { ... }).
//		Build()
//
// Builder 为一次性使用，first-error-wins。[Builder.SetRotation] 用于不经过
// 异步管道、直接同步写 lumberjack 文件的场景。
//
// # 写入语义
//
// 每条记录由 slog Handler 编码后调用一次 Write。输出为 xspool.Sink 时：
// 队列满返回的错误计入 [LoggerWithLevel.ErrorCount] 并交给 OnError 回调；
// 短写不产生错误，记录在文件中被截断。日志调用从不向调用方返回错误。
//
// # 级别
//
// LevelDebug(-4)、LevelInfo(0)、LevelWarn(4)、LevelError(8)，可运行时通过
// [Leveler.SetLevel] 调整，派生 logger 同步生效。[Level] 实现
// encoding.TextUnmarshaler，可直接从 xconf 配置反序列化。
//
// 包内没有全局 Logger，句柄显式传递。
package xlog
