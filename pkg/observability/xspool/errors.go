package xspool

import "errors"

// 配置校验错误
var (
	// ErrEmptyPath 日志文件路径为空
	ErrEmptyPath = errors.New("xspool: path is required")

	// ErrInvalidMaxFiles MaxFiles 必须 >= 1
	ErrInvalidMaxFiles = errors.New("xspool: invalid MaxFiles")

	// ErrInvalidMaxFileSize MaxFileSize 必须 >= 1
	ErrInvalidMaxFileSize = errors.New("xspool: invalid MaxFileSize")

	// ErrInvalidBufferCapacity BufferCapacity 必须大于 len(OverflowNotice)
	ErrInvalidBufferCapacity = errors.New("xspool: invalid BufferCapacity")

	// ErrUnknownScheme 未知的轮转方案
	ErrUnknownScheme = errors.New("xspool: unknown rotation scheme")
)

// 运行期错误
var (
	// ErrQueueFull 缓冲区已满，本次写入被丢弃（非致命，相当于 "would block"）
	//
	// 调用方（通常是日志门面）可以直接丢弃该条日志，无需其他处理。
	ErrQueueFull = errors.New("xspool: log message queue is full")

	// ErrWriteFailed 落盘失败（致命），Writer 终止
	ErrWriteFailed = errors.New("xspool: failed to write logs")

	// ErrWriterPanic 落盘目标 panic（致命），Writer 终止
	ErrWriterPanic = errors.New("xspool: writer panicked")

	// ErrAlreadyStarted Writer.Run 被重复调用
	ErrAlreadyStarted = errors.New("xspool: writer already started")
)
