package xmetrics

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// InstrumentationName 默认的 instrumentation scope 名称
const InstrumentationName = "github.com/omeyang/logspool/xmetrics"

// Option RegisterSpool 选项
type Option func(*spoolConfig)

type spoolConfig struct {
	attrs []attribute.KeyValue
}

// WithAttributes 为所有观测值附加固定属性，例如区分多个管道的 path
func WithAttributes(attrs ...attribute.KeyValue) Option {
	return func(c *spoolConfig) {
		c.attrs = append(c.attrs, attrs...)
	}
}

// Meter 从 provider 获取本包使用的 Meter，provider 为 nil 时使用全局 MeterProvider
func Meter(provider metric.MeterProvider) metric.Meter {
	if provider == nil {
		provider = otel.GetMeterProvider()
	}
	return provider.Meter(InstrumentationName)
}
