package xspool

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/omeyang/logspool/pkg/observability/xrotate"
)

// Writer 唯一消费者
//
// scratch 为私有缓冲区，只在 Writer 所在 goroutine 访问，无需同步。
type Writer struct {
	st      *state
	out     xrotate.Rotator
	scratch []byte
	onError func(error)
	started atomic.Bool
}

// Run 运行落盘循环，阻塞直到 ctx 取消或发生致命错误
//
// 每轮：持锁等待"缓冲区非空或已停止"（每次唤醒都重新检查条件），
// 与私有缓冲区交换后立即解锁，锁外把数据全部写入落盘目标。
//
// ctx 取消后把缓冲区剩余数据写出，关闭落盘目标并返回 nil（关闭失败时返回该错误）。
// 写入失败或落盘目标 panic 时关闭落盘目标，调用 OnError 回调，返回包装了
// [ErrWriteFailed] 或 [ErrWriterPanic] 的错误。
//
// Run 只能调用一次，重复调用返回 [ErrAlreadyStarted]。
func (w *Writer) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}
	if ctx == nil {
		ctx = context.Background()
	}

	unregister := context.AfterFunc(ctx, w.st.stop)
	defer unregister()

	st := w.st
	for {
		st.mu.Lock()
		for len(st.buf) == 0 && !st.stopped {
			st.cond.Wait()
		}
		stopping := st.stopped
		st.buf, w.scratch = w.scratch, st.buf
		st.mu.Unlock()

		if len(w.scratch) > 0 {
			if err := w.flush(); err != nil {
				return w.fail(err)
			}
			w.scratch = w.scratch[:0]
		}

		if stopping {
			if err := w.out.Close(); err != nil && !errors.Is(err, xrotate.ErrClosed) {
				return fmt.Errorf("xspool: close log file: %w", err)
			}
			return nil
		}
	}
}

// WriteLogs 运行落盘循环直到发生致命错误，等价于 Run(context.Background())
func (w *Writer) WriteLogs() error {
	return w.Run(context.Background())
}

// Stats 返回管道统计快照
func (w *Writer) Stats() Stats {
	return w.st.stats()
}

// flush 把私有缓冲区全部写入落盘目标，panic 转为错误
func (w *Writer) flush() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrWriterPanic, r)
		}
	}()

	n, err := w.out.Write(w.scratch)
	if n > 0 {
		w.st.persisted.Add(uint64(n))
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	if n < len(w.scratch) {
		return fmt.Errorf("%w: %w", ErrWriteFailed, io.ErrShortWrite)
	}
	return nil
}

// fail 处理致命错误：尽力关闭落盘目标并通知回调
func (w *Writer) fail(err error) error {
	if closeErr := w.closeQuietly(); closeErr != nil {
		err = errors.Join(err, closeErr)
	}
	if w.onError != nil {
		func() {
			defer func() { recover() }() //nolint:errcheck // 回调 panic 不扩散
			w.onError(err)
		}()
	}
	return err
}

func (w *Writer) closeQuietly() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: close: %v", ErrWriterPanic, r)
		}
	}()
	if err := w.out.Close(); err != nil && !errors.Is(err, xrotate.ErrClosed) {
		return err
	}
	return nil
}
