package xspool

import (
	"sync"
	"sync/atomic"
)

// state Sink 与 Writer 共享的状态
//
// buf 只在持有 mu 时修改；len(buf) <= cfg.BufferCapacity 恒成立。
type state struct {
	mu      sync.Mutex
	cond    *sync.Cond // L == &mu
	buf     []byte
	stopped bool // Writer 收到停止请求，受 mu 保护
	cfg     Config

	accepted  atomic.Uint64 // Sink 接受的字节数
	short     atomic.Uint64 // 截断写次数
	dropped   atomic.Uint64 // 队列满丢弃次数
	persisted atomic.Uint64 // Writer 写入落盘目标的字节数
	rotations atomic.Uint64 // 轮转次数（仅内置轮转器统计）
}

func newState(cfg Config) *state {
	st := &state{
		buf: make([]byte, 0, cfg.BufferCapacity),
		cfg: cfg,
	}
	st.cond = sync.NewCond(&st.mu)
	return st
}

// stop 标记停止并唤醒 Writer
func (st *state) stop() {
	st.mu.Lock()
	st.stopped = true
	st.mu.Unlock()
	st.cond.Broadcast()
}

// Stats 管道运行统计快照
type Stats struct {
	// AcceptedBytes Sink 接受的字节总数
	AcceptedBytes uint64
	// PersistedBytes Writer 写入落盘目标的字节总数
	PersistedBytes uint64
	// ShortWrites 因剩余容量不足被截断的写入次数
	ShortWrites uint64
	// DroppedWrites 因队列满被丢弃的写入次数
	DroppedWrites uint64
	// Rotations 内置轮转器完成的轮转次数；注入自定义 Rotator 时恒为 0
	Rotations uint64
	// BufferUsed 当前缓冲区已用字节数
	BufferUsed int
	// BufferCapacity 缓冲区容量
	BufferCapacity int
}

func (st *state) stats() Stats {
	st.mu.Lock()
	used := len(st.buf)
	st.mu.Unlock()

	return Stats{
		AcceptedBytes:  st.accepted.Load(),
		PersistedBytes: st.persisted.Load(),
		ShortWrites:    st.short.Load(),
		DroppedWrites:  st.dropped.Load(),
		Rotations:      st.rotations.Load(),
		BufferUsed:     used,
		BufferCapacity: st.cfg.BufferCapacity,
	}
}
