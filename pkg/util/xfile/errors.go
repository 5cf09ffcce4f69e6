package xfile

import "errors"

var (
	// ErrEmptyPath 表示必需的路径参数为空。
	ErrEmptyPath = errors.New("xfile: path is required")

	// ErrInvalidPath 表示路径格式无效（如目录路径）。
	ErrInvalidPath = errors.New("xfile: invalid path")

	// ErrPathTraversal 表示相对路径中出现 ".." 路径段。
	ErrPathTraversal = errors.New("xfile: path traversal detected")

	// ErrNullByte 表示路径中包含空字节（\x00）。
	// 内核会在空字节处截断路径，Go 代码与系统看到的文件不一致。
	ErrNullByte = errors.New("xfile: path contains null byte")

	// ErrInvalidPerm 表示目录权限缺少所有者执行位，目录无法遍历。
	ErrInvalidPerm = errors.New("xfile: invalid directory permission")

	// ErrInvalidIndex 表示归档编号小于 1。
	ErrInvalidIndex = errors.New("xfile: archive index must be positive")
)
