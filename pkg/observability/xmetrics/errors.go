package xmetrics

import "errors"

var (
	// ErrNilMeter RegisterSpool 传入 nil Meter
	ErrNilMeter = errors.New("xmetrics: nil meter")

	// ErrNilSource RegisterSpool 传入 nil 统计来源
	ErrNilSource = errors.New("xmetrics: nil stats source")

	// ErrCreateInstrument 创建 OTel 异步仪表失败
	ErrCreateInstrument = errors.New("xmetrics: create instrument failed")

	// ErrRegisterCallback 注册采集回调失败
	ErrRegisterCallback = errors.New("xmetrics: register callback failed")
)
