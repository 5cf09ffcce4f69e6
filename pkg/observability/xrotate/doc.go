// Package xrotate 提供日志文件轮转功能。
//
// Rotator 接口定义了轮转器的核心行为（Write/Close/Rotate），所有实现并发安全。
//
// # 当前实现
//
//   - [NewAppendCount]: 按字节数轮转，归档为 path.1、path.2 …… path.N，
//     path.1 最新，超出 N 的最旧归档被删除，不压缩
//   - [NewLumberjack]: 基于 lumberjack v2，归档名带时间戳，按 MB 轮转，
//     可选 gzip 压缩与按天清理
//
// # 轮转边界
//
// NewAppendCount 在边界处精确切分：单次写入跨越上限时，先写满当前文件，
// 轮转后再把剩余字节写入新文件。因此每个文件的大小恰好不超过上限。
//
// # 错误
//
// 写入、重命名、删除失败均直接返回给调用方，不做重试。
// Close 之后的 Write/Rotate 返回 [ErrClosed]。
package xrotate
