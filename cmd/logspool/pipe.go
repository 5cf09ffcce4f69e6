package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/omeyang/logspool/pkg/lifecycle/xrun"
	"github.com/omeyang/logspool/pkg/observability/xlog"
	"github.com/omeyang/logspool/pkg/observability/xspool"
)

func createPipeCommand(s streams) *cli.Command {
	return &cli.Command{
		Name:  "pipe",
		Usage: "逐行读取标准输入并写入日志文件",
		Description: `标准输入按行写入共享缓冲区，后台 Writer 批量落盘并按配置轮转。
缓冲区写满时丢弃后续行并在日志中留下溢出标记。
标准输入 EOF 或收到 SIGINT/SIGTERM 后写出剩余数据再退出。`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "stats",
				Usage: "退出时向标准错误打印统计",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runPipe(ctx, cmd, s)
		},
	}
}

func runPipe(ctx context.Context, cmd *cli.Command, s streams) error {
	lc, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := newDiagLogger(lc.app.Log, s.err)
	if err != nil {
		return err
	}
	stopWatch, err := watchLogLevel(ctx, lc.file, logger)
	if err != nil {
		return err
	}
	defer stopWatch()

	sink, writer, err := xspool.New(lc.app.Spool, xspool.WithOnError(func(err error) {
		fmt.Fprintf(s.err, "Failed to write logs: %v\n", err)
	}))
	if err != nil {
		return &usageError{err: err}
	}
	fmt.Fprintf(s.out, "Log directory: %s\n", filepath.Dir(lc.app.Spool.Path))

	// 读完输入后取消 runCtx，Writer 写出剩余数据后退出
	runCtx, stop := context.WithCancel(ctx)
	defer stop()

	// 读取结束与 Writer 失败可能同时发生，Group 只保留先返回的错误
	var writeErr error
	err = xrun.RunServicesWithOptions(runCtx,
		[]xrun.Option{xrun.WithLogger(logger), xrun.WithName("pipe")},
		xrun.NamedService{Name: "writer", Service: xrun.ServiceFunc(func(ctx context.Context) error {
			writeErr = writer.Run(ctx)
			return writeErr
		})},
		xrun.NamedService{Name: "reader", Service: xrun.ServiceFunc(func(ctx context.Context) error {
			defer stop()
			return pump(ctx, s.in, sink)
		})},
	)

	if writeErr != nil {
		err = writeErr
	}
	if cmd.Bool("stats") {
		printStats(s.err, sink.Stats())
	}

	switch {
	case err == nil, errors.Is(err, xrun.ErrSignal):
		logger.Debug(ctx, "pipe finished", xlog.Path(lc.app.Spool.Path))
		return nil
	case errors.Is(err, xspool.ErrWriteFailed), errors.Is(err, xspool.ErrWriterPanic):
		// OnError 已输出
		return &exitError{code: 1}
	default:
		return err
	}
}

// pump 把 r 中的每一行（含换行符）写入 w，直到 EOF 或 ctx 取消。
//
// 读取在单独的 goroutine 中进行：阻塞在读取上的 r 无法被 ctx 打断。
// 缓冲区满或部分写入只影响当前行，不中断读取。
func pump(ctx context.Context, r io.Reader, w io.Writer) error {
	lines := make(chan []byte)
	errc := make(chan error, 1)

	go func() {
		br := bufio.NewReader(r)
		for {
			line, err := br.ReadBytes('\n')
			if len(line) > 0 {
				select {
				case lines <- line:
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				if errors.Is(err, io.EOF) {
					err = nil
				}
				errc <- err
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line := <-lines:
			if _, err := w.Write(line); err != nil && !errors.Is(err, xspool.ErrQueueFull) {
				return err
			}
		case err := <-errc:
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}
			return nil
		}
	}
}

// printStats 以 key: value 形式打印统计
func printStats(w io.Writer, st xspool.Stats) {
	fmt.Fprintf(w, "accepted bytes:  %d\n", st.AcceptedBytes)
	fmt.Fprintf(w, "persisted bytes: %d\n", st.PersistedBytes)
	fmt.Fprintf(w, "short writes:    %d\n", st.ShortWrites)
	fmt.Fprintf(w, "dropped writes:  %d\n", st.DroppedWrites)
	fmt.Fprintf(w, "rotations:       %d\n", st.Rotations)
	fmt.Fprintf(w, "buffer:          %d/%d\n", st.BufferUsed, st.BufferCapacity)
}
