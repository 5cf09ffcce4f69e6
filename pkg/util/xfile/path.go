package xfile

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

func containsNullByte(path string) bool {
	return strings.ContainsRune(path, 0)
}

// hasDotDotSegment 检测路径中是否有恰好为 ".." 的路径段。
// '/' 和 '\' 都视为分隔符；"app..log" 这类文件名不会被误判。
func hasDotDotSegment(path string) bool {
	i := 0
	for i < len(path) {
		if path[i] == '/' || path[i] == '\\' {
			i++
			continue
		}
		j := i
		for j < len(path) && path[j] != '/' && path[j] != '\\' {
			j++
		}
		if j-i == 2 && path[i] == '.' && path[i+1] == '.' {
			return true
		}
		i = j
	}
	return false
}

// SanitizePath 对日志文件路径做格式检查和规范化
//
// 规则：
//   - 拒绝空路径和包含空字节的路径
//   - 拒绝以 "/" 或 "\" 结尾的目录路径
//   - 规范化后仍含 ".." 段的相对路径视为穿越
//
// 本函数只做格式净化，不把路径限制在某个目录内。
func SanitizePath(filename string) (string, error) {
	if filename == "" {
		return "", fmt.Errorf("filename is required: %w", ErrEmptyPath)
	}
	if containsNullByte(filename) {
		return "", fmt.Errorf("filename contains null byte: %w", ErrNullByte)
	}
	// 必须在 Clean 之前检查，Clean 会去掉尾部分隔符
	if strings.HasSuffix(filename, "/") || strings.HasSuffix(filename, "\\") {
		return "", fmt.Errorf("path is a directory: %w", ErrInvalidPath)
	}

	cleaned := filepath.Clean(filename)
	if hasDotDotSegment(cleaned) {
		return "", fmt.Errorf("path traversal in filename: %w", ErrPathTraversal)
	}

	base := filepath.Base(cleaned)
	if base == "." || base == string(filepath.Separator) {
		return "", fmt.Errorf("no file name specified: %w", ErrInvalidPath)
	}
	return cleaned, nil
}

// IndexedPath 返回第 index 代归档文件名 "path.index"。
//
//	IndexedPath("/var/log/app.log", 2) // "/var/log/app.log.2"
func IndexedPath(path string, index int) (string, error) {
	if index < 1 {
		return "", fmt.Errorf("%w: got %d", ErrInvalidIndex, index)
	}
	return path + "." + strconv.Itoa(index), nil
}
