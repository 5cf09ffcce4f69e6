package xspool

import (
	"fmt"

	"github.com/omeyang/logspool/pkg/observability/xrotate"
)

// OverflowNotice 缓冲区满时写入缓冲区末尾的固定标记（48 字节）
const OverflowNotice = "\nERROR: logger queue is full, dropping messages\n"

// 轮转方案
const (
	// SchemeCount 按编号归档：path.1 …… path.N（默认）
	SchemeCount = "count"

	// SchemeTimestamp 按时间戳归档（lumberjack），大小粒度为 MB
	SchemeTimestamp = "timestamp"
)

// 默认配置值
const (
	// DefaultMaxFiles 默认保留的归档数量
	DefaultMaxFiles = 3

	// DefaultMaxFileSize 默认单个文件最大字节数（10 MiB）
	DefaultMaxFileSize = 10 * 1024 * 1024

	// DefaultBufferCapacity 默认缓冲区容量（32 KiB）
	DefaultBufferCapacity = 32 * 1024
)

// Config 管道配置，构造后不可变
type Config struct {
	// Path 活动日志文件路径
	Path string `koanf:"path"`

	// MaxFiles 保留的归档数量，>= 1
	MaxFiles int `koanf:"max_files"`

	// MaxFileSize 单个文件最大字节数，>= 1
	MaxFileSize int64 `koanf:"max_file_size"`

	// BufferCapacity 共享缓冲区容量（字节），必须大于 len(OverflowNotice)
	BufferCapacity int `koanf:"buffer_capacity"`

	// Scheme 轮转方案，空值等价于 SchemeCount
	Scheme string `koanf:"scheme"`
}

// DefaultConfig 返回默认配置：3 个归档、每个 10 MiB、32 KiB 缓冲区。
func DefaultConfig(path string) Config {
	return Config{
		Path:           path,
		MaxFiles:       DefaultMaxFiles,
		MaxFileSize:    DefaultMaxFileSize,
		BufferCapacity: DefaultBufferCapacity,
		Scheme:         SchemeCount,
	}
}

// Validate 校验配置
func (c Config) Validate() error {
	if c.Path == "" {
		return ErrEmptyPath
	}
	if c.MaxFiles < 1 {
		return fmt.Errorf("%w: got %d, want >= 1", ErrInvalidMaxFiles, c.MaxFiles)
	}
	if c.MaxFileSize < 1 {
		return fmt.Errorf("%w: got %d, want >= 1", ErrInvalidMaxFileSize, c.MaxFileSize)
	}
	if c.BufferCapacity <= len(OverflowNotice) {
		return fmt.Errorf("%w: got %d, want > %d", ErrInvalidBufferCapacity, c.BufferCapacity, len(OverflowNotice))
	}

	switch c.scheme() {
	case SchemeCount:
	case SchemeTimestamp:
		// lumberjack 拒绝超过 MaxSize 的单次写入，一次交换的数据量不能超过它
		if limit := int64(xrotate.MegabytesCeil(c.MaxFileSize)) << 20; int64(c.BufferCapacity) > limit {
			return fmt.Errorf("%w: got %d, want <= %d for scheme %q",
				ErrInvalidBufferCapacity, c.BufferCapacity, limit, SchemeTimestamp)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownScheme, c.Scheme)
	}
	return nil
}

func (c Config) scheme() string {
	if c.Scheme == "" {
		return SchemeCount
	}
	return c.Scheme
}
