package xconf

import "errors"

var (
	ErrEmptyPath         = errors.New("xconf: empty config path")
	ErrUnsupportedFormat = errors.New("xconf: unsupported config format")
	ErrLoadFailed        = errors.New("xconf: failed to load config")
	ErrParseFailed       = errors.New("xconf: failed to parse config")
	ErrUnmarshalFailed   = errors.New("xconf: failed to unmarshal config")

	// ErrNotFileBacked 从字节数据创建的 Config 不支持 Reload 和 Watch
	ErrNotFileBacked = errors.New("xconf: config is not backed by a file")

	// ErrUnsupportedConfig Watch 只接受本包创建的 Config
	ErrUnsupportedConfig = errors.New("xconf: unsupported config implementation")
)
