// Package xmetrics 把 xspool 管道统计导出为 OpenTelemetry 指标。
//
//	reg, err := xmetrics.RegisterSpool(xmetrics.Meter(provider), sink,
//		xmetrics.WithAttributes(attribute.String("path", cfg.Path)))
//	if err != nil {
//		return err
//	}
//	defer reg.Unregister()
//
// 全部为异步仪表，只在采集时读取一次 Stats，不在写入热路径上增加开销。
//
// 指标：
//   - logspool.bytes.accepted / logspool.bytes.persisted（计数器，By）
//   - logspool.writes.short / logspool.writes.dropped（计数器）
//   - logspool.rotations（计数器，仅内置轮转器）
//   - logspool.buffer.used（仪表，By，属性 logspool.buffer.capacity）
package xmetrics
