package xspool

import (
	"github.com/omeyang/logspool/pkg/observability/xrotate"
)

// New 创建共享状态，返回生产者句柄和消费者句柄
//
// 未通过 WithRotator 注入落盘目标时，按 cfg.Scheme 构建轮转器：
//   - SchemeCount: xrotate.NewAppendCount，不压缩
//   - SchemeTimestamp: xrotate.NewLumberjack，不压缩，MaxFileSize 向上取整到 MB
//
// 轮转器延迟到首次写入时才打开文件。
func New(cfg Config, opts ...Option) (*Sink, *Writer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	o := &options{}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}

	st := newState(cfg)

	out := o.rotator
	if out == nil {
		var err error
		out, err = newRotator(st)
		if err != nil {
			return nil, nil, err
		}
	}

	w := &Writer{
		st:      st,
		out:     out,
		scratch: make([]byte, 0, cfg.BufferCapacity),
		onError: o.onError,
	}
	return &Sink{st: st}, w, nil
}

func newRotator(st *state) (xrotate.Rotator, error) {
	cfg := st.cfg
	if cfg.scheme() == SchemeTimestamp {
		return xrotate.NewLumberjack(cfg.Path,
			xrotate.WithMaxSize(xrotate.MegabytesCeil(cfg.MaxFileSize)),
			xrotate.WithMaxBackups(cfg.MaxFiles),
			xrotate.WithMaxAge(0),
			xrotate.WithCompress(false),
		)
	}
	return xrotate.NewAppendCount(cfg.Path,
		xrotate.WithMaxBytes(cfg.MaxFileSize),
		xrotate.WithMaxFiles(cfg.MaxFiles),
		xrotate.WithOnRotate(func(string) { st.rotations.Add(1) }),
	)
}
