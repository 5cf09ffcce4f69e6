package xrun

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"

	"github.com/omeyang/logspool/pkg/observability/xlog"

	"golang.org/x/sync/errgroup"
)

// Group 基于 errgroup 管理一组服务的并发运行和协调关闭
//
// 任一服务返回错误、Cancel 被调用或父 context 取消时，所有服务的 ctx 被取消。
// Go、GoWithName、Cancel 可并发调用；Wait 只应调用一次。
//
//	g, ctx := xrun.NewGroup(ctx, xrun.WithName("logspool"))
//	g.GoWithName("writer", writer.Run)
//	g.GoWithName("reader", readStdin)
//	err := g.Wait()
type Group struct {
	eg       *errgroup.Group
	ctx      context.Context
	causeCtx context.Context
	cancel   context.CancelCauseFunc
	opts     *groupOptions
}

// NewGroup 创建 Group，返回的 ctx 在任一服务失败时取消。nil ctx 视为 Background。
func NewGroup(ctx context.Context, opts ...Option) (*Group, context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}

	options := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(options)
		}
	}

	causeCtx, cancel := context.WithCancelCause(ctx)
	eg, egCtx := errgroup.WithContext(causeCtx)

	return &Group{
		eg:       eg,
		ctx:      egCtx,
		causeCtx: causeCtx,
		cancel:   cancel,
		opts:     options,
	}, egCtx
}

// Go 启动 fn，fn 应在 ctx.Done() 后尽快返回
func (g *Group) Go(fn func(ctx context.Context) error) {
	g.eg.Go(func() error {
		if fn == nil {
			return ErrNilFunc
		}
		return fn(g.ctx)
	})
}

// GoWithName 同 Go，额外记录服务的启动与退出
func (g *Group) GoWithName(name string, fn func(ctx context.Context) error) {
	log := g.opts.logger.With(slog.String("group", g.opts.name), slog.String("service", name))

	g.eg.Go(func() error {
		if fn == nil {
			return ErrNilFunc
		}
		log.Debug(g.ctx, "service starting")
		err := fn(g.ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Warn(g.ctx, "service exited with error", xlog.Err(err))
		} else {
			log.Debug(g.ctx, "service stopped")
		}
		return err
	})
}

// Wait 等待所有服务退出
//
// 返回第一个非取消类错误。服务因 Group 被取消而返回 context.Canceled 时，
// 返回 Cancel 设置的原因（如 *SignalError）；没有显式原因则返回 nil。
// 服务全部返回 nil 时，显式原因同样会被返回。
func (g *Group) Wait() error {
	defer g.cancel(nil)

	err := g.eg.Wait()

	cause := g.explicitCause()
	switch {
	case err == nil:
		return cause
	case errors.Is(err, context.Canceled) && g.causeCtx.Err() != nil:
		return cause
	default:
		// context.Canceled 来自服务内部时原样返回
		return err
	}
}

// explicitCause 返回非 context.Canceled 的取消原因
func (g *Group) explicitCause() error {
	if g.causeCtx.Err() == nil {
		return nil
	}
	if cause := context.Cause(g.causeCtx); cause != nil && !errors.Is(cause, context.Canceled) {
		return cause
	}
	return nil
}

// Cancel 取消所有服务，cause 作为 Wait 的返回值
//
// cause 不应包装 context.Canceled，否则会被视为普通取消。
func (g *Group) Cancel(cause error) {
	g.cancel(cause)
}

// Context 返回 Group 的 context
func (g *Group) Context() context.Context {
	return g.ctx
}

// runGroup 注册信号服务后执行 setup，再 Wait
func runGroup(ctx context.Context, opts []Option, setup func(g *Group)) error {
	g, _ := NewGroup(ctx, opts...)

	if !g.opts.noSignalHandler {
		signals := g.opts.signals
		// signal.Notify 不带信号参数会订阅全部信号
		if len(signals) == 0 {
			signals = DefaultSignals()
		}
		g.Go(func(ctx context.Context) error {
			return g.waitSignal(ctx, signals)
		})
	}

	setup(g)
	return g.Wait()
}

func (g *Group) waitSignal(ctx context.Context, signals []os.Signal) error {
	testc := testSigChan(ctx)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, signals...)
	defer signal.Stop(sigCh)

	var sig os.Signal
	select {
	case sig = <-testc:
	case sig = <-sigCh:
	case <-ctx.Done():
		return ctx.Err()
	}

	g.opts.logger.Info(ctx, "received signal",
		slog.String("group", g.opts.name),
		slog.String("signal", sig.String()),
	)
	g.cancel(&SignalError{Signal: sig})
	return nil
}

// Run 监听 DefaultSignals 并运行服务，收到信号时返回 *SignalError
//
// 信号监听本身也是一个服务，只在收到信号或 ctx 取消时返回：服务全部返回 nil
// 不会让 Run 返回。任务型服务结束后需由调用方取消 ctx：
//
//	ctx, stop := context.WithCancel(ctx)
//	defer stop()
//	err := xrun.Run(ctx, func(ctx context.Context) error {
//		defer stop()
//		return work(ctx)
//	})
//
// 常驻服务的一般用法：
//
//	err := xrun.Run(ctx, writer.Run)
//	if errors.Is(err, xrun.ErrSignal) {
//		// 正常退出
//	}
func Run(ctx context.Context, services ...func(ctx context.Context) error) error {
	return RunWithOptions(ctx, nil, services...)
}

// RunWithOptions 同 Run，支持配置选项
//
// 使用 WithoutSignalHandler 时不注册信号监听，服务全部返回后即返回。
func RunWithOptions(ctx context.Context, opts []Option, services ...func(ctx context.Context) error) error {
	return runGroup(ctx, opts, func(g *Group) {
		for _, svc := range services {
			g.Go(svc)
		}
	})
}

// Service 可由 RunServices 管理的服务，Run 阻塞直到 ctx 取消或出错
type Service interface {
	Run(ctx context.Context) error
}

// ServiceFunc 将函数适配为 Service
type ServiceFunc func(ctx context.Context) error

func (f ServiceFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// NamedService 为 Service 附加名称，RunServices 以 GoWithName 启动它
type NamedService struct {
	Name    string
	Service Service
}

func (n NamedService) Run(ctx context.Context) error {
	if n.Service == nil {
		return ErrNilService
	}
	return n.Service.Run(ctx)
}

// RunServices 监听信号并运行多个 Service，返回条件同 Run
func RunServices(ctx context.Context, services ...Service) error {
	return RunServicesWithOptions(ctx, nil, services...)
}

// RunServicesWithOptions 同 RunServices，支持配置选项
func RunServicesWithOptions(ctx context.Context, opts []Option, services ...Service) error {
	return runGroup(ctx, opts, func(g *Group) {
		for _, svc := range services {
			switch s := svc.(type) {
			case nil:
				g.Go(func(context.Context) error { return ErrNilService })
			case NamedService:
				g.GoWithName(s.Name, s.Run)
			default:
				g.Go(svc.Run)
			}
		}
	})
}
