package xlog

import (
	"log/slog"
	"time"
)

// 常用属性 Key
const (
	KeyError     = "error"
	KeyStack     = "stack"
	KeyDuration  = "duration"
	KeyCount     = "count"
	KeyComponent = "component"
	KeyOperation = "operation"

	// KeyRunID 一次运行（进程或压测）的唯一标识
	KeyRunID = "run_id"

	// KeyProducer 并发生产者编号
	KeyProducer = "producer"

	// KeyPath 文件路径
	KeyPath = "path"

	// KeyBytes 字节数
	KeyBytes = "bytes"
)

// Err 创建错误属性，err 为 nil 时返回空属性（slog 会忽略）
//
//	if err != nil {
//	    logger.Error(ctx, "rotate failed", xlog.Err(err))
//	}
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// Duration 创建耗时属性，输出人类可读格式（如 "1.5s"）
func Duration(d time.Duration) slog.Attr {
	return slog.String(KeyDuration, d.String())
}

// Component 创建组件名属性
func Component(name string) slog.Attr {
	return slog.String(KeyComponent, name)
}

// Operation 创建操作名属性
func Operation(name string) slog.Attr {
	return slog.String(KeyOperation, name)
}

// Count 创建计数属性
func Count(n int64) slog.Attr {
	return slog.Int64(KeyCount, n)
}

// RunID 创建运行标识属性
func RunID(id string) slog.Attr {
	return slog.String(KeyRunID, id)
}

// Producer 创建生产者编号属性
func Producer(n int) slog.Attr {
	return slog.Int(KeyProducer, n)
}

// Path 创建文件路径属性
func Path(p string) slog.Attr {
	return slog.String(KeyPath, p)
}

// Bytes 创建字节数属性
func Bytes(n uint64) slog.Attr {
	return slog.Uint64(KeyBytes, n)
}
