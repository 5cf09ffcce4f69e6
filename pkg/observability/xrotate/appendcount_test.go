package xrotate

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/omeyang/logspool/pkg/util/xfile"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// listLogFiles 返回目录下的文件名（排序后）
func listLogFiles(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

// =============================================================================
// 配置验证测试
// =============================================================================

func TestNewAppendCount_ConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		opts    []AppendCountOption
		wantErr error
	}{
		{name: "空文件名", file: "", wantErr: ErrEmptyFilename},
		{name: "MaxBytes 为零", file: "/tmp/a.log", opts: []AppendCountOption{WithMaxBytes(0)}, wantErr: ErrInvalidMaxBytes},
		{name: "MaxFiles 为零", file: "/tmp/a.log", opts: []AppendCountOption{WithMaxFiles(0)}, wantErr: ErrInvalidMaxFiles},
		{name: "MaxFiles 超过上限", file: "/tmp/a.log", opts: []AppendCountOption{WithMaxFiles(1025)}, wantErr: ErrInvalidMaxFiles},
		{name: "FileMode 包含 setuid 位", file: "/tmp/a.log", opts: []AppendCountOption{WithFilePerm(os.ModeSetuid | 0o644)}, wantErr: ErrInvalidFileMode},
		{name: "路径穿越", file: "../escape.log", wantErr: xfile.ErrPathTraversal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewAppendCount(tt.file, tt.opts...)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNewAppendCount_NilOption(t *testing.T) {
	r, err := NewAppendCount(filepath.Join(t.TempDir(), "nil.log"), nil, WithMaxBytes(16), nil)
	require.NoError(t, err)
	defer r.Close()

	n, err := r.Write([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}

func TestNewAppendCount_CreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "app.log")
	r, err := NewAppendCount(path)
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Write([]byte("x"))
	require.NoError(t, err)
	assert.Equal(t, "x", readFile(t, path))
}

// =============================================================================
// 轮转行为测试
// =============================================================================

// TestAppendCount_SplitAtBoundary 写入 MaxBytes+1 字节产生恰好两个文件
func TestAppendCount_SplitAtBoundary(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")

	r, err := NewAppendCount(path, WithMaxBytes(10), WithMaxFiles(3))
	require.NoError(t, err)
	defer r.Close()

	payload := []byte("0123456789X")
	n, err := r.Write(payload)
	require.NoError(t, err)
	assert.Equal(t, len(payload), n)

	assert.Equal(t, []string{"app.log", "app.log.1"}, listLogFiles(t, dir))
	assert.Equal(t, "0123456789", readFile(t, path+".1"))
	assert.Equal(t, "X", readFile(t, path))
}

// TestAppendCount_ExactFillDoesNotRotate 恰好写满时不轮转，下一字节才轮转
func TestAppendCount_ExactFillDoesNotRotate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")

	r, err := NewAppendCount(path, WithMaxBytes(4), WithMaxFiles(2))
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Write([]byte("abcd"))
	require.NoError(t, err)
	assert.Equal(t, []string{"app.log"}, listLogFiles(t, dir))

	_, err = r.Write([]byte("e"))
	require.NoError(t, err)
	assert.Equal(t, "abcd", readFile(t, path+".1"))
	assert.Equal(t, "e", readFile(t, path))
}

// TestAppendCount_LargeWriteSpansFiles 单次写入跨越多个文件
func TestAppendCount_LargeWriteSpansFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")

	r, err := NewAppendCount(path, WithMaxBytes(3), WithMaxFiles(5))
	require.NoError(t, err)
	defer r.Close()

	n, err := r.Write([]byte("aaabbbcccd"))
	require.NoError(t, err)
	assert.Equal(t, 10, n)

	assert.Equal(t, "aaa", readFile(t, path+".3"))
	assert.Equal(t, "bbb", readFile(t, path+".2"))
	assert.Equal(t, "ccc", readFile(t, path+".1"))
	assert.Equal(t, "d", readFile(t, path))
}

// TestAppendCount_Retention 产生 MaxFiles+2 次轮转后仅保留 MaxFiles 个归档
func TestAppendCount_Retention(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")
	const keep = 2

	var rotations []string
	r, err := NewAppendCount(path,
		WithMaxBytes(4),
		WithMaxFiles(keep),
		WithOnRotate(func(archived string) { rotations = append(rotations, archived) }),
	)
	require.NoError(t, err)
	defer r.Close()

	// 第一个块不触发轮转，之后每个块触发一次
	for i := 0; i < keep+3; i++ {
		_, err := r.Write(bytes.Repeat([]byte{byte('0' + i)}, 4))
		require.NoError(t, err)
	}

	assert.Len(t, rotations, keep+2)
	assert.Equal(t, []string{"app.log", "app.log.1", "app.log.2"}, listLogFiles(t, dir))
	assert.Equal(t, "4444", readFile(t, path))
	assert.Equal(t, "3333", readFile(t, path+".1"))
	assert.Equal(t, "2222", readFile(t, path+".2"))
}

// TestAppendCount_ResumeExisting 已有活动文件的大小计入上限
func TestAppendCount_ResumeExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o600))

	r, err := NewAppendCount(path, WithMaxBytes(5), WithMaxFiles(1))
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Write([]byte("xyz"))
	require.NoError(t, err)

	assert.Equal(t, "oldxy", readFile(t, path+".1"))
	assert.Equal(t, "z", readFile(t, path))
}

// TestAppendCount_PruneStaleArchives MaxFiles 缩小后首次打开时删除多余归档
func TestAppendCount_PruneStaleArchives(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")
	for i := 1; i <= 4; i++ {
		require.NoError(t, os.WriteFile(fmt.Sprintf("%s.%d", path, i), []byte("old"), 0o600))
	}

	r, err := NewAppendCount(path, WithMaxFiles(2))
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Write([]byte("new"))
	require.NoError(t, err)
	assert.Equal(t, []string{"app.log", "app.log.1", "app.log.2"}, listLogFiles(t, dir))
}

// TestAppendCount_ManualRotate 手动轮转
func TestAppendCount_ManualRotate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")

	r, err := NewAppendCount(path)
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Write([]byte("before"))
	require.NoError(t, err)
	require.NoError(t, r.Rotate())
	_, err = r.Write([]byte("after"))
	require.NoError(t, err)

	assert.Equal(t, "before", readFile(t, path+".1"))
	assert.Equal(t, "after", readFile(t, path))
}

func TestAppendCount_OnRotatePanicIsolated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	r, err := NewAppendCount(path, WithMaxBytes(1), WithOnRotate(func(string) { panic("boom") }))
	require.NoError(t, err)
	defer r.Close()

	assert.NotPanics(t, func() {
		_, err = r.Write([]byte("ab"))
	})
	assert.NoError(t, err)
}

// =============================================================================
// 关闭与错误测试
// =============================================================================

func TestAppendCount_Close(t *testing.T) {
	r, err := NewAppendCount(filepath.Join(t.TempDir(), "app.log"))
	require.NoError(t, err)

	// 未写入也可关闭
	require.NoError(t, r.Close())
	assert.ErrorIs(t, r.Close(), ErrClosed)

	_, err = r.Write([]byte("x"))
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, r.Rotate(), ErrClosed)
}

func TestAppendCount_EmptyWrite(t *testing.T) {
	dir := t.TempDir()
	r, err := NewAppendCount(filepath.Join(dir, "app.log"))
	require.NoError(t, err)
	defer r.Close()

	n, err := r.Write(nil)
	assert.NoError(t, err)
	assert.Equal(t, 0, n)
	// 空写入不创建文件
	assert.Empty(t, listLogFiles(t, dir))
}

// TestAppendCount_RotateFailure 归档重命名失败时错误返回给调用方
func TestAppendCount_RotateFailure(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root 用户忽略目录权限")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")

	r, err := NewAppendCount(path, WithMaxBytes(2))
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Write([]byte("ab"))
	require.NoError(t, err)

	require.NoError(t, os.Chmod(dir, 0o500))
	t.Cleanup(func() { _ = os.Chmod(dir, 0o750) })

	_, err = r.Write([]byte("c"))
	assert.Error(t, err)
}

// =============================================================================
// 并发测试
// =============================================================================

func TestAppendCount_ConcurrentWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")

	r, err := NewAppendCount(path, WithMaxBytes(64), WithMaxFiles(64))
	require.NoError(t, err)

	const goroutines, perG = 8, 20
	line := []byte("0123456789abcdef")

	var wg sync.WaitGroup
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range perG {
				_, err := r.Write(line)
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()
	require.NoError(t, r.Close())

	var total int64
	for _, name := range listLogFiles(t, dir) {
		info, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err)
		assert.LessOrEqual(t, info.Size(), int64(64))
		total += info.Size()
	}
	assert.Equal(t, int64(goroutines*perG*len(line)), total)
}
