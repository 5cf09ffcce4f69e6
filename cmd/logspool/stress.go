package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v3"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/omeyang/logspool/pkg/lifecycle/xrun"
	"github.com/omeyang/logspool/pkg/observability/xlog"
	"github.com/omeyang/logspool/pkg/observability/xmetrics"
	"github.com/omeyang/logspool/pkg/observability/xspool"
)

// stressOptions stress 命令参数
type stressOptions struct {
	producers int
	messages  int
	interval  time.Duration
	metrics   bool
}

func createStressCommand(s streams) *cli.Command {
	return &cli.Command{
		Name:  "stress",
		Usage: "并发生产者压测，结束后打印统计",
		Description: `启动 --producers 个 goroutine，每个通过 xlog 写入 --messages 条日志，
所有日志携带相同的 run_id。生产者结束后 Writer 写出剩余数据，随后打印统计。
--metrics 打印通过 OpenTelemetry 采集的管道指标。`,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "producers",
				Usage: "并发生产者数量",
				Value: 4,
			},
			&cli.IntFlag{
				Name:  "messages",
				Usage: "每个生产者写入的日志条数",
				Value: 1000,
			},
			&cli.DurationFlag{
				Name:  "report-interval",
				Usage: "周期打印统计的间隔，0 表示不打印",
			},
			&cli.BoolFlag{
				Name:  "metrics",
				Usage: "结束时打印 OpenTelemetry 指标",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			opts := stressOptions{
				producers: cmd.Int("producers"),
				messages:  cmd.Int("messages"),
				interval:  cmd.Duration("report-interval"),
				metrics:   cmd.Bool("metrics"),
			}
			if opts.producers < 1 || opts.messages < 0 {
				return &usageError{err: fmt.Errorf("producers must be >= 1 and messages >= 0, got %d and %d",
					opts.producers, opts.messages)}
			}
			return runStress(ctx, cmd, s, opts)
		},
	}
}

func runStress(ctx context.Context, cmd *cli.Command, s streams, opts stressOptions) error {
	lc, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	diag, err := newDiagLogger(lc.app.Log, s.err)
	if err != nil {
		return err
	}

	sink, writer, err := xspool.New(lc.app.Spool, xspool.WithOnError(func(err error) {
		fmt.Fprintf(s.err, "Failed to write logs: %v\n", err)
	}))
	if err != nil {
		return &usageError{err: err}
	}
	fmt.Fprintf(s.out, "Log directory: %s\n", filepath.Dir(lc.app.Spool.Path))

	runID := uuid.NewString()
	producer, closeProducer, err := xlog.New().
		SetOutput(sink).
		SetFormat(lc.app.Log.Format).
		SetAttrs(xlog.RunID(runID)).
		Build()
	if err != nil {
		return &usageError{err: err}
	}
	defer func() { _ = closeProducer() }()

	var collect func(context.Context) (metricdata.ResourceMetrics, error)
	if opts.metrics {
		reader := sdkmetric.NewManualReader()
		provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
		defer func() { _ = provider.Shutdown(context.Background()) }()

		reg, err := xmetrics.RegisterSpool(xmetrics.Meter(provider), sink,
			xmetrics.WithAttributes(attribute.String("run_id", runID)))
		if err != nil {
			return err
		}
		defer func() { _ = reg.Unregister() }()

		collect = func(ctx context.Context) (metricdata.ResourceMetrics, error) {
			var rm metricdata.ResourceMetrics
			err := reader.Collect(ctx, &rm)
			return rm, err
		}
	}

	// 信号监听只在 ctx 取消时返回，压测结束后取消 runCtx 让 RunWithOptions 返回
	runCtx, stop := context.WithCancel(ctx)
	defer stop()

	start := time.Now()
	err = xrun.RunWithOptions(runCtx,
		[]xrun.Option{xrun.WithLogger(diag), xrun.WithName("stress")},
		func(ctx context.Context) error {
			defer stop()
			return stress(ctx, diag, producer, sink, writer, opts)
		},
	)
	elapsed := time.Since(start)

	if err != nil && !errors.Is(err, xrun.ErrSignal) {
		if errors.Is(err, xspool.ErrWriteFailed) || errors.Is(err, xspool.ErrWriterPanic) {
			return &exitError{code: 1}
		}
		return err
	}

	fmt.Fprintf(s.out, "run id:          %s\n", runID)
	fmt.Fprintf(s.out, "producers:       %d x %d messages\n", opts.producers, opts.messages)
	fmt.Fprintf(s.out, "elapsed:         %s\n", elapsed.Round(time.Millisecond))
	printStats(s.out, sink.Stats())
	fmt.Fprintf(s.out, "logger errors:   %d\n", producer.ErrorCount())

	if collect != nil {
		rm, err := collect(ctx)
		if err != nil {
			return fmt.Errorf("collect metrics: %w", err)
		}
		printMetrics(s.out, rm)
	}
	return nil
}

// stress 运行 Writer 与生产者；生产者全部结束后停止 Writer
func stress(ctx context.Context, diag xlog.Logger, producer xlog.Logger, sink *xspool.Sink, writer *xspool.Writer, opts stressOptions) error {
	g, gctx := xrun.NewGroup(ctx, xrun.WithLogger(diag), xrun.WithName("stress"))

	writerCtx, stopWriter := context.WithCancel(gctx)
	defer stopWriter()

	g.GoWithName("writer", func(context.Context) error {
		return writer.Run(writerCtx)
	})

	if opts.interval > 0 {
		report := xrun.Ticker(opts.interval, false, func(ctx context.Context) error {
			st := sink.Stats()
			diag.Info(ctx, "spool stats",
				slog.Uint64("accepted", st.AcceptedBytes),
				slog.Uint64("persisted", st.PersistedBytes),
				slog.Uint64("dropped", st.DroppedWrites),
				slog.Int("buffer_used", st.BufferUsed),
			)
			return nil
		})
		g.GoWithName("reporter", func(context.Context) error {
			if err := report(writerCtx); !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	g.GoWithName("producers", func(ctx context.Context) error {
		defer stopWriter()
		produce(ctx, producer, opts.producers, opts.messages)
		return nil
	})

	return g.Wait()
}

// produce 启动 n 个生产者，每个写 messages 条日志；ctx 取消后提前结束
func produce(ctx context.Context, logger xlog.Logger, n, messages int) {
	var wg sync.WaitGroup
	for i := range n {
		wg.Go(func() {
			l := logger.With(xlog.Producer(i))
			for j := range messages {
				if ctx.Err() != nil {
					return
				}
				l.Info(ctx, "stress message", xlog.Count(int64(j)))
			}
		})
	}
	wg.Wait()
}

// printMetrics 打印 int64 Sum 与 Gauge 类型的数据点
func printMetrics(w io.Writer, rm metricdata.ResourceMetrics) {
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					fmt.Fprintf(w, "%s %d\n", m.Name, dp.Value)
				}
			case metricdata.Gauge[int64]:
				for _, dp := range data.DataPoints {
					fmt.Fprintf(w, "%s %d\n", m.Name, dp.Value)
				}
			}
		}
	}
}
