package xmetrics

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/omeyang/logspool/pkg/observability/xspool"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

type fixedSource struct{ stats xspool.Stats }

func (f fixedSource) Stats() xspool.Stats { return f.stats }

func newTestMeterProvider(t *testing.T) (*sdkmetric.MeterProvider, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	return mp, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func sumValue(t *testing.T, m metricdata.Metrics) int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "%s is %T, want Sum[int64]", m.Name, m.Data)
	require.True(t, sum.IsMonotonic)
	require.Len(t, sum.DataPoints, 1)
	return sum.DataPoints[0].Value
}

func TestRegisterSpool(t *testing.T) {
	mp, reader := newTestMeterProvider(t)
	src := fixedSource{stats: xspool.Stats{
		AcceptedBytes:  1000,
		PersistedBytes: 900,
		ShortWrites:    2,
		DroppedWrites:  3,
		Rotations:      4,
		BufferUsed:     100,
		BufferCapacity: 32768,
	}}

	reg, err := RegisterSpool(Meter(mp), src, WithAttributes(attribute.String("path", "/var/log/app.log")))
	require.NoError(t, err)
	defer func() { assert.NoError(t, reg.Unregister()) }()

	got := collect(t, reader)
	assert.Equal(t, int64(1000), sumValue(t, got[MetricBytesAccepted]))
	assert.Equal(t, int64(900), sumValue(t, got[MetricBytesPersisted]))
	assert.Equal(t, int64(2), sumValue(t, got[MetricWritesShort]))
	assert.Equal(t, int64(3), sumValue(t, got[MetricWritesDropped]))
	assert.Equal(t, int64(4), sumValue(t, got[MetricRotations]))
	assert.Equal(t, "By", got[MetricBytesAccepted].Unit)

	gauge, ok := got[MetricBufferUsed].Data.(metricdata.Gauge[int64])
	require.True(t, ok)
	require.Len(t, gauge.DataPoints, 1)
	dp := gauge.DataPoints[0]
	assert.Equal(t, int64(100), dp.Value)

	capacity, ok := dp.Attributes.Value("logspool.buffer.capacity")
	require.True(t, ok)
	assert.Equal(t, int64(32768), capacity.AsInt64())
	path, ok := dp.Attributes.Value("path")
	require.True(t, ok)
	assert.Equal(t, "/var/log/app.log", path.AsString())
}

func TestRegisterSpool_LiveSink(t *testing.T) {
	mp, reader := newTestMeterProvider(t)

	cfg := xspool.DefaultConfig(filepath.Join(t.TempDir(), "app.log"))
	cfg.BufferCapacity = 64
	sink, writer, err := xspool.New(cfg)
	require.NoError(t, err)

	reg, err := RegisterSpool(Meter(mp), sink)
	require.NoError(t, err)
	defer func() { _ = reg.Unregister() }()

	_, err = sink.Write(make([]byte, 100))
	require.NoError(t, err)
	_, err = sink.Write([]byte("x"))
	require.ErrorIs(t, err, xspool.ErrQueueFull)

	got := collect(t, reader)
	assert.Equal(t, int64(64), sumValue(t, got[MetricBytesAccepted]))
	assert.Equal(t, int64(0), sumValue(t, got[MetricBytesPersisted]))
	assert.Equal(t, int64(1), sumValue(t, got[MetricWritesShort]))
	assert.Equal(t, int64(1), sumValue(t, got[MetricWritesDropped]))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, writer.Run(ctx))

	got = collect(t, reader)
	assert.Equal(t, int64(64), sumValue(t, got[MetricBytesPersisted]))
	gauge := got[MetricBufferUsed].Data.(metricdata.Gauge[int64])
	assert.Equal(t, int64(0), gauge.DataPoints[0].Value)
}

func TestRegisterSpool_Unregister(t *testing.T) {
	mp, reader := newTestMeterProvider(t)

	reg, err := RegisterSpool(Meter(mp), fixedSource{})
	require.NoError(t, err)
	require.NoError(t, reg.Unregister())

	got := collect(t, reader)
	for name, m := range got {
		if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
			assert.Empty(t, sum.DataPoints, name)
		}
	}
}

func TestRegisterSpool_Errors(t *testing.T) {
	_, err := RegisterSpool(nil, fixedSource{})
	assert.ErrorIs(t, err, ErrNilMeter)

	_, err = RegisterSpool(noop.NewMeterProvider().Meter("test"), nil)
	assert.ErrorIs(t, err, ErrNilSource)
}

type failingMeter struct {
	noop.Meter
	counterErr  error
	callbackErr error
}

func (m failingMeter) Int64ObservableCounter(name string, opts ...metric.Int64ObservableCounterOption) (metric.Int64ObservableCounter, error) {
	if m.counterErr != nil {
		return nil, m.counterErr
	}
	return m.Meter.Int64ObservableCounter(name, opts...)
}

func (m failingMeter) RegisterCallback(f metric.Callback, instruments ...metric.Observable) (metric.Registration, error) {
	if m.callbackErr != nil {
		return nil, m.callbackErr
	}
	return m.Meter.RegisterCallback(f, instruments...)
}

func TestRegisterSpool_MeterFailures(t *testing.T) {
	boom := errors.New("boom")

	_, err := RegisterSpool(failingMeter{counterErr: boom}, fixedSource{})
	assert.ErrorIs(t, err, ErrCreateInstrument)
	assert.ErrorIs(t, err, boom)

	_, err = RegisterSpool(failingMeter{callbackErr: boom}, fixedSource{})
	assert.ErrorIs(t, err, ErrRegisterCallback)
	assert.ErrorIs(t, err, boom)
}

func TestClamp(t *testing.T) {
	assert.Equal(t, int64(7), clamp(7))
	assert.Equal(t, int64(math.MaxInt64), clamp(math.MaxUint64))
}

func TestMeter_Global(t *testing.T) {
	assert.NotNil(t, Meter(nil))
}
