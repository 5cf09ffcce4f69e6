package xspool

import (
	"io"
	"log"
)

var _ io.Writer = (*Sink)(nil)

// Sink 生产者侧句柄
//
// 可被任意多个 goroutine 并发使用，所有调用通过同一把互斥锁串行化。
// Write 只在短暂持锁期间阻塞，从不等待磁盘 I/O。
type Sink struct {
	st *state
}

// Write 实现 io.Writer 接口
//
// 返回值：
//   - (len(p), nil): 全部接受
//   - (n < len(p), nil): 剩余容量不足，只接受前 n 字节（短写）
//   - (0, ErrQueueFull): 缓冲区已满，末尾被覆盖为 OverflowNotice，不追加任何字节
func (s *Sink) Write(p []byte) (int, error) {
	st := s.st
	st.mu.Lock()
	defer st.mu.Unlock()

	remaining := st.cfg.BufferCapacity - len(st.buf)
	if remaining == 0 {
		copy(st.buf[len(st.buf)-len(OverflowNotice):], OverflowNotice)
		st.dropped.Add(1)
		return 0, ErrQueueFull
	}
	if len(p) == 0 {
		return 0, nil
	}
	if remaining < len(p) {
		p = p[:remaining]
		st.short.Add(1)
	}

	st.buf = append(st.buf, p...)
	st.accepted.Add(uint64(len(p)))
	st.cond.Signal()
	return len(p), nil
}

// Flush 空操作，落盘由 Writer 异步完成
func (s *Sink) Flush() error {
	return nil
}

// Len 返回缓冲区当前已用字节数
func (s *Sink) Len() int {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	return len(s.st.buf)
}

// Cap 返回缓冲区容量
func (s *Sink) Cap() int {
	return s.st.cfg.BufferCapacity
}

// Stats 返回管道统计快照
func (s *Sink) Stats() Stats {
	return s.st.stats()
}

// StdLogger 返回以 Sink 为输出的标准库 *log.Logger
//
// log.Logger 每条消息只调用一次 Write，消息在文件中保持连续。
func (s *Sink) StdLogger(prefix string, flag int) *log.Logger {
	return log.New(s, prefix, flag)
}
