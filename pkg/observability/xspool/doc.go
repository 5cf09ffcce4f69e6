// Package xspool 提供异步日志落盘管道：有界共享缓冲区 + 单一后台写入者。
//
// # 组成
//
//   - [Sink]: 生产者侧句柄，实现 [io.Writer]，任意 goroutine 并发调用，永不长时间阻塞
//   - [Writer]: 唯一消费者，阻塞等待数据，在锁内 O(1) 交换缓冲区，锁外写入轮转文件
//   - 共享状态: 互斥锁 + 条件变量 + 字节缓冲区 + 不可变 [Config]
//
// 数据流：生产者 → Sink.Write → 共享缓冲区 → Writer 被唤醒 → 交换 → 文件 I/O → 轮转。
//
// # 容量策略
//
// 缓冲区长度任何时刻都不超过 Config.BufferCapacity：
//   - 剩余容量不足时截断为短写，返回实际接受的字节数，err 为 nil
//   - 剩余容量为 0 时，用 [OverflowNotice] 覆盖缓冲区末尾，返回 [ErrQueueFull]，
//     不追加任何字节。溢出标记随日志一起落盘，读日志即可看到丢弃发生的位置
//
// # 顺序
//
// 单次 Write 的字节在文件中连续；不同 goroutine 之间按获取互斥锁的顺序交错。
// 需要原子多段消息的调用方应先拼好完整消息再调用一次 Write（slog handler 即如此）。
//
// # 生命周期
//
//	sink, writer, err := xspool.New(xspool.DefaultConfig("/var/log/app/app.log"))
//	if err != nil {
//	    return err
//	}
//	go func() {
//	    if err := writer.Run(ctx); err != nil {
//	        fmt.Fprintf(os.Stderr, "Failed to write logs: %v\n", err)
//	    }
//	}()
//	logger := slog.New(slog.NewTextHandler(sink, nil))
//
// ctx 取消后 Writer 把缓冲区剩余数据全部写出、关闭文件并返回 nil。
// 文件 I/O 失败是致命错误：Run 返回包装了 [ErrWriteFailed] 的错误，不做重试。
//
// # 前置条件
//
// 每个共享状态只能运行一个 Writer。并发运行多个 Writer 属于误用（文件写入交错未定义），
// 本包不做防护。
//
// # panic 策略
//
// Go 的互斥锁没有"中毒"语义。Sink 在持锁期间只做有界切片操作且解锁由 defer 完成，
// 缓冲区不会处于不一致状态。落盘目标在 Writer 中 panic 时被 recover，
// 按致命错误处理，Run 返回包装了 [ErrWriterPanic] 的错误。
package xspool
