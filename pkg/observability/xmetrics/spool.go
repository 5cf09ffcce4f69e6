package xmetrics

import (
	"context"
	"fmt"
	"math"

	"github.com/omeyang/logspool/pkg/observability/xspool"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// 指标名称
const (
	MetricBytesAccepted  = "logspool.bytes.accepted"
	MetricBytesPersisted = "logspool.bytes.persisted"
	MetricWritesShort    = "logspool.writes.short"
	MetricWritesDropped  = "logspool.writes.dropped"
	MetricRotations      = "logspool.rotations"
	MetricBufferUsed     = "logspool.buffer.used"
)

// StatsSource 提供管道统计快照，xspool.Sink 与 xspool.Writer 均满足
type StatsSource interface {
	Stats() xspool.Stats
}

var (
	_ StatsSource = (*xspool.Sink)(nil)
	_ StatsSource = (*xspool.Writer)(nil)
)

type spoolInstruments struct {
	accepted  metric.Int64ObservableCounter
	persisted metric.Int64ObservableCounter
	short     metric.Int64ObservableCounter
	dropped   metric.Int64ObservableCounter
	rotations metric.Int64ObservableCounter
	used      metric.Int64ObservableGauge
}

// RegisterSpool 注册异步仪表，采集时读取 source.Stats()
//
// 计数器为单调累计值；logspool.buffer.used 为当前已用字节数，
// 附带 logspool.buffer.capacity 属性。返回的 Registration 用于注销回调。
func RegisterSpool(meter metric.Meter, source StatsSource, opts ...Option) (metric.Registration, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	cfg := &spoolConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}

	ins, err := newSpoolInstruments(meter)
	if err != nil {
		return nil, err
	}

	base := cfg.attrs
	reg, err := meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		s := source.Stats()
		set := metric.WithAttributeSet(attribute.NewSet(base...))

		o.ObserveInt64(ins.accepted, clamp(s.AcceptedBytes), set)
		o.ObserveInt64(ins.persisted, clamp(s.PersistedBytes), set)
		o.ObserveInt64(ins.short, clamp(s.ShortWrites), set)
		o.ObserveInt64(ins.dropped, clamp(s.DroppedWrites), set)
		o.ObserveInt64(ins.rotations, clamp(s.Rotations), set)

		usedAttrs := append(base[:len(base):len(base)],
			attribute.Int("logspool.buffer.capacity", s.BufferCapacity))
		o.ObserveInt64(ins.used, int64(s.BufferUsed), metric.WithAttributes(usedAttrs...))
		return nil
	}, ins.accepted, ins.persisted, ins.short, ins.dropped, ins.rotations, ins.used)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRegisterCallback, err)
	}
	return reg, nil
}

func newSpoolInstruments(meter metric.Meter) (*spoolInstruments, error) {
	var (
		ins spoolInstruments
		err error
	)
	counters := []struct {
		dst  *metric.Int64ObservableCounter
		name string
		desc string
		unit string
	}{
		{&ins.accepted, MetricBytesAccepted, "bytes accepted into the spool buffer", "By"},
		{&ins.persisted, MetricBytesPersisted, "bytes written to the log file", "By"},
		{&ins.short, MetricWritesShort, "writes truncated because the buffer was nearly full", "{write}"},
		{&ins.dropped, MetricWritesDropped, "writes rejected because the buffer was full", "{write}"},
		{&ins.rotations, MetricRotations, "log file rotations", "{rotation}"},
	}
	for _, c := range counters {
		*c.dst, err = meter.Int64ObservableCounter(c.name,
			metric.WithDescription(c.desc),
			metric.WithUnit(c.unit),
		)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrCreateInstrument, c.name, err)
		}
	}

	ins.used, err = meter.Int64ObservableGauge(MetricBufferUsed,
		metric.WithDescription("bytes currently held in the spool buffer"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCreateInstrument, MetricBufferUsed, err)
	}
	return &ins, nil
}

func clamp(v uint64) int64 {
	if v > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(v)
}
