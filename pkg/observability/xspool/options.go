package xspool

import "github.com/omeyang/logspool/pkg/observability/xrotate"

// Option 配置 New 的选项函数
type Option func(*options)

type options struct {
	rotator xrotate.Rotator
	onError func(error)
}

// WithRotator 使用自定义落盘目标替代按 Config 构建的轮转器
//
// Writer 退出时会关闭该 Rotator。
func WithRotator(r xrotate.Rotator) Option {
	return func(o *options) {
		if r != nil {
			o.rotator = r
		}
	}
}

// WithOnError 设置致命错误回调
//
// Writer 因 I/O 失败或 panic 终止时调用一次，参数与 Run 的返回值相同。
// 回调不得向同一 Sink 写入：Writer 已停止，写入只会填满缓冲区。
func WithOnError(fn func(error)) Option {
	return func(o *options) {
		o.onError = fn
	}
}
