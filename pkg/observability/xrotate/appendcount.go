package xrotate

import (
	"fmt"
	"os"
	"sync"

	"github.com/omeyang/logspool/pkg/util/xfile"
)

// AppendCount 默认配置值
const (
	// DefaultMaxBytes 默认单个日志文件最大字节数（10 MiB）
	DefaultMaxBytes = 10 * 1024 * 1024

	// DefaultMaxFiles 默认保留的归档数量
	DefaultMaxFiles = 3

	// DefaultFileMode 默认日志文件权限
	DefaultFileMode os.FileMode = 0o640

	// maxFiles 归档数量上限
	maxFiles = 1024
)

// appendCountConfig 按编号归档的轮转器配置
type appendCountConfig struct {
	// MaxBytes 单个文件最大字节数，写满后轮转
	MaxBytes int64

	// MaxFiles 保留的归档数量，超出时删除最旧归档
	MaxFiles int

	// FileMode 新建日志文件的权限
	FileMode os.FileMode

	// OnRotate 每次轮转成功后调用，参数为新归档（path.1）的路径
	//
	// 回调不得向同一 Rotator 写入数据，否则会死锁。
	OnRotate func(archived string)
}

// AppendCountOption 按编号归档轮转器的配置选项
type AppendCountOption func(*appendCountConfig)

// WithMaxBytes 设置单个日志文件最大字节数
func WithMaxBytes(n int64) AppendCountOption {
	return func(c *appendCountConfig) {
		c.MaxBytes = n
	}
}

// WithMaxFiles 设置保留的归档数量
func WithMaxFiles(n int) AppendCountOption {
	return func(c *appendCountConfig) {
		c.MaxFiles = n
	}
}

// WithFilePerm 设置新建日志文件的权限
func WithFilePerm(mode os.FileMode) AppendCountOption {
	return func(c *appendCountConfig) {
		c.FileMode = mode
	}
}

// WithOnRotate 设置轮转回调
func WithOnRotate(fn func(archived string)) AppendCountOption {
	return func(c *appendCountConfig) {
		c.OnRotate = fn
	}
}

// appendCountRotator 按编号归档的 Rotator 实现
//
// 文件布局：path 为活动文件，path.1 为最近一次归档，path.N 为最旧归档。
type appendCountRotator struct {
	mu       sync.Mutex
	path     string
	maxBytes int64
	maxFiles int
	fileMode os.FileMode
	onRotate func(string)

	file   *os.File // 延迟到首次写入时打开
	size   int64    // 当前活动文件的累计字节数
	closed bool
}

// NewAppendCount 创建按编号归档的日志轮转器
//
// 参数:
//   - filename: 活动日志文件路径（必需），父目录不存在时自动创建
//   - opts: 可选配置项
//
// 活动文件以追加模式打开，已有内容计入大小上限，进程重启后继续写入。
func NewAppendCount(filename string, opts ...AppendCountOption) (Rotator, error) {
	if filename == "" {
		return nil, ErrEmptyFilename
	}

	cfg := appendCountConfig{
		MaxBytes: DefaultMaxBytes,
		MaxFiles: DefaultMaxFiles,
		FileMode: DefaultFileMode,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if err := validateAppendCountConfig(&cfg); err != nil {
		return nil, err
	}

	safePath, err := xfile.SanitizePath(filename)
	if err != nil {
		return nil, err
	}
	if err := xfile.EnsureDir(safePath); err != nil {
		return nil, err
	}

	return &appendCountRotator{
		path:     safePath,
		maxBytes: cfg.MaxBytes,
		maxFiles: cfg.MaxFiles,
		fileMode: cfg.FileMode,
		onRotate: cfg.OnRotate,
	}, nil
}

func validateAppendCountConfig(cfg *appendCountConfig) error {
	if cfg.MaxBytes < 1 {
		return fmt.Errorf("%w: got %d, want >= 1", ErrInvalidMaxBytes, cfg.MaxBytes)
	}
	if cfg.MaxFiles < 1 || cfg.MaxFiles > maxFiles {
		return fmt.Errorf("%w: got %d, want 1~%d", ErrInvalidMaxFiles, cfg.MaxFiles, maxFiles)
	}
	if cfg.FileMode&^os.FileMode(0o777) != 0 {
		return fmt.Errorf("%w: got %04o, only permission bits (0000~0777) allowed",
			ErrInvalidFileMode, cfg.FileMode)
	}
	return nil
}

// Write 实现 io.Writer 接口
//
// 写入跨越大小上限时在边界处切分：先写满当前文件，轮转，再继续写剩余部分。
func (r *appendCountRotator) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return 0, ErrClosed
	}
	if len(p) == 0 {
		return 0, nil
	}
	if r.file == nil {
		if err := r.openExisting(); err != nil {
			return 0, err
		}
	}

	written := 0
	for int64(len(p)) > r.maxBytes-r.size {
		// 续写的已有文件可能超过上限，此时 room 为 0，直接轮转
		room := max(r.maxBytes-r.size, 0)
		n, err := r.file.Write(p[:room])
		written += n
		r.size += int64(n)
		if err != nil {
			return written, err
		}
		if err := r.rotate(); err != nil {
			return written, err
		}
		p = p[room:]
	}

	n, err := r.file.Write(p)
	written += n
	r.size += int64(n)
	return written, err
}

// Rotate 手动触发轮转
func (r *appendCountRotator) Rotate() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}
	if r.file == nil {
		if err := r.openExisting(); err != nil {
			return err
		}
	}
	return r.rotate()
}

// Close 实现 io.Closer 接口
func (r *appendCountRotator) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}
	r.closed = true
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}

// openExisting 以追加模式打开活动文件，并清理编号超出上限的旧归档。
// 调用方必须持有 r.mu。
func (r *appendCountRotator) openExisting() error {
	//#nosec G304 -- 路径已经过 SanitizePath
	f, err := os.OpenFile(r.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, r.fileMode)
	if err != nil {
		return err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return err
	}
	r.file = f
	r.size = info.Size()
	return r.pruneStale()
}

// pruneStale 删除 path.(N+1) 起连续存在的归档（上次运行时 MaxFiles 更大）。
func (r *appendCountRotator) pruneStale() error {
	for i := r.maxFiles + 1; i <= maxFiles+1; i++ {
		name, err := xfile.IndexedPath(r.path, i)
		if err != nil {
			return err
		}
		ok, err := xfile.Exists(name)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if err := xfile.RemoveIfExists(name); err != nil {
			return err
		}
	}
	return nil
}

// rotate 关闭活动文件，逐级后移归档，打开新的空文件。
// 调用方必须持有 r.mu，且 r.file 非 nil。
func (r *appendCountRotator) rotate() error {
	err := r.file.Close()
	r.file = nil
	if err != nil {
		return err
	}

	oldest, err := xfile.IndexedPath(r.path, r.maxFiles)
	if err != nil {
		return err
	}
	if err := xfile.RemoveIfExists(oldest); err != nil {
		return err
	}
	for i := r.maxFiles - 1; i >= 1; i-- {
		from, _ := xfile.IndexedPath(r.path, i)
		to, _ := xfile.IndexedPath(r.path, i+1)
		if _, err := xfile.RenameIfExists(from, to); err != nil {
			return err
		}
	}
	archived, _ := xfile.IndexedPath(r.path, 1)
	if _, err := xfile.RenameIfExists(r.path, archived); err != nil {
		return err
	}

	//#nosec G304 -- 路径已经过 SanitizePath
	f, err := os.OpenFile(r.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, r.fileMode)
	if err != nil {
		return err
	}
	r.file = f
	r.size = 0
	r.notifyRotate(archived)
	return nil
}

// notifyRotate 调用轮转回调，回调 panic 被隔离。
func (r *appendCountRotator) notifyRotate(archived string) {
	if r.onRotate == nil {
		return
	}
	defer func() { recover() }() //nolint:errcheck // recover 返回值无需检查
	r.onRotate(archived)
}
