package xrun

import (
	"errors"
	"fmt"
	"os"
)

var (
	// ErrSignal 因收到系统信号而终止，用 errors.Is 判断
	ErrSignal = errors.New("received signal")

	// ErrNilFunc Go/GoWithName/Ticker 传入 nil 函数
	ErrNilFunc = errors.New("xrun: nil function")

	// ErrNilService RunServices 传入 nil Service
	ErrNilService = errors.New("xrun: nil service")

	// ErrInvalidInterval Ticker 间隔必须为正数
	ErrInvalidInterval = errors.New("xrun: interval must be positive")
)

// SignalError 携带触发退出的信号
//
//	var sigErr *xrun.SignalError
//	if errors.As(err, &sigErr) {
//		fmt.Println(sigErr.Signal)
//	}
type SignalError struct {
	Signal os.Signal
}

func (e *SignalError) Error() string {
	if e.Signal == nil {
		return "received signal <nil>"
	}
	return fmt.Sprintf("received signal %s", e.Signal)
}

// Unwrap 返回 ErrSignal，使 errors.Is(err, ErrSignal) 成立
func (e *SignalError) Unwrap() error {
	return ErrSignal
}
