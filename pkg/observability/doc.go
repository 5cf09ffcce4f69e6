// Package observability 提供日志落盘与可观测性相关的子包。
//
// 子包列表：
//   - xspool: 异步日志管道，有界共享缓冲区 + 唯一后台 Writer
//   - xrotate: 日志文件轮转（按编号归档 / lumberjack 时间戳归档）
//   - xlog: 结构化日志，基于 log/slog 扩展，可直接写入 xspool
//   - xmetrics: 基于 OpenTelemetry 的管道指标
//
// 依赖方向：xlog、xmetrics 依赖 xspool，xspool 依赖 xrotate，反向不成立。
package observability
