// Package xrun 基于 errgroup 的服务生命周期管理。
//
// [Group] 并发运行一组服务，任一失败即取消其余；[Run] 与 [RunServices]
// 额外监听 SIGHUP/SIGINT/SIGTERM/SIGQUIT，收到信号时取消所有服务并返回
// [*SignalError]（errors.Is(err, ErrSignal) 为 true）。
//
// 典型用法是把 xspool.Writer 作为命名服务运行，信号到达后 Writer 排空
// 缓冲区、关闭文件再退出：
//
//	err := xrun.RunServicesWithOptions(ctx,
//		[]xrun.Option{xrun.WithLogger(logger), xrun.WithName("logspool")},
//		xrun.NamedService{Name: "writer", Service: xrun.ServiceFunc(writer.Run)},
//	)
//	if err != nil && !errors.Is(err, xrun.ErrSignal) {
//		return err
//	}
//
// [Ticker] 用于周期任务，如定期输出管道统计。
package xrun
