// logspool 把标准输入或压测日志经异步缓冲写入带轮转的日志文件。
//
// 用法:
//
//	logspool [全局选项] <命令> [命令参数]
//
// 全局选项:
//
//	-c, --config           配置文件路径（YAML/JSON，可选）
//	-p, --path             活动日志文件路径
//	    --max-files        保留的归档数量
//	    --max-file-size    单个文件最大字节数
//	    --buffer-capacity  共享缓冲区容量（字节）
//	    --scheme           轮转方案（count/timestamp）
//	    --log-level        logspool 自身诊断日志级别
//	    --log-format       日志格式（text/json）
//
// 优先级：命令行参数 > 配置文件 > 默认值。
//
// 命令:
//
//	pipe     逐行读取标准输入并写入日志文件，EOF 或收到信号后落盘退出
//	stress   并发生产者压测，结束后打印统计
//
// 退出码:
//
//	0: 执行成功（含收到 SIGINT/SIGTERM 后的正常退出）
//	1: 落盘失败或其他运行错误
//	2: 参数错误（未知命令、无效配置等）
//
// 示例:
//
//	app 2>&1 | logspool pipe -p /var/log/app/app.log
//	logspool -c /etc/logspool.yaml pipe
//	logspool stress -p /tmp/stress.log --producers 16 --messages 10000 --metrics
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v3"
)

// 版本信息（可通过 -ldflags 注入，例如:
//
//	go build -ldflags "-X main.Version=1.0.0 -X main.GitCommit=$(git rev-parse --short HEAD)"
//
// ）。
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// streams 命令使用的标准输入输出，测试时替换为内存缓冲
type streams struct {
	in  io.Reader
	out io.Writer
	err io.Writer
}

func main() {
	os.Exit(run(os.Args, streams{in: os.Stdin, out: os.Stdout, err: os.Stderr}))
}

// createApp 创建 CLI 应用。
func createApp(s streams) *cli.Command {
	return &cli.Command{
		Name:      "logspool",
		Usage:     "异步日志落盘工具",
		Version:   fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildTime),
		Flags:     globalFlags(),
		Commands:  []*cli.Command{createPipeCommand(s), createStressCommand(s)},
		Reader:    s.in,
		Writer:    s.out,
		ErrWriter: s.err,
		// 禁止 urfave/cli 直接调用 os.Exit，由 run() 统一映射退出码
		ExitErrHandler: func(_ context.Context, _ *cli.Command, err error) {
			if _, ok := err.(cli.ExitCoder); ok {
				fmt.Fprintln(s.err, err)
			}
		},
	}
}

func run(args []string, s streams) int {
	app := createApp(s)

	err := app.Run(context.Background(), args)
	if err == nil {
		return 0
	}

	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}
	var usageErr *usageError
	if errors.As(err, &usageErr) {
		fmt.Fprintf(s.err, "参数错误: %v\n", usageErr)
		return 2
	}
	var coder cli.ExitCoder
	if errors.As(err, &coder) || isCLIUsageError(err) {
		// ExitErrHandler 或 flag 解析器已输出错误详情
		return 2
	}
	fmt.Fprintf(s.err, "错误: %v\n", err)
	return 1
}

// cliUsageMarkers urfave/cli 参数解析错误的消息片段
var cliUsageMarkers = []string{
	"flag provided but not defined",
	"invalid value",
	"flag needs an argument",
	"Required flag",
	"No help topic",
}

func isCLIUsageError(err error) bool {
	msg := err.Error()
	for _, m := range cliUsageMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

// exitError 已向用户报告过的错误，只携带退出码
type exitError struct {
	code int
}

func (e *exitError) Error() string { return "" }

// usageError 参数或配置错误，退出码 2
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }
