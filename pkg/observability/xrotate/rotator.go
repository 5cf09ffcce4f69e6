package xrotate

import "io"

// 编译时断言：Rotator 接口是 io.WriteCloser 的超集
var _ io.WriteCloser = (Rotator)(nil)

// Rotator 日志轮转器接口
//
// 隐式实现 [io.WriteCloser]，可直接作为 xspool Writer 的落盘目标，
// 也可作为 xlog 的同步输出。
//
// 实现约定：
//   - Write 必须是并发安全的
//   - Close 后调用 Write 或 Rotate 返回 [ErrClosed]
//   - Rotate 可以在任意时刻调用
type Rotator interface {
	// Write 写入数据，达到轮转条件时自动轮转
	Write(p []byte) (n int, err error)

	// Close 关闭当前文件，重复调用返回 [ErrClosed]
	Close() error

	// Rotate 手动触发轮转：归档当前文件并打开新文件
	Rotate() error
}
