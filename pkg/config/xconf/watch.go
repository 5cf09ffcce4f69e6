package xconf

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce 默认防抖时间
const DefaultDebounce = 100 * time.Millisecond

// WatchCallback 配置变更回调，err 非 nil 表示重载失败（旧配置仍生效）或监视出错
type WatchCallback func(cfg Config, err error)

// Watcher 配置文件监视器
//
// 监视文件所在目录而非文件本身：编辑器常以"写临时文件再 rename"方式保存。
type Watcher struct {
	cfg      *koanfConfig
	fs       *fsnotify.Watcher
	callback WatchCallback
	debounce time.Duration
	filename string

	mu       sync.Mutex
	started  bool
	stopped  bool
	timer    *time.Timer
	inflight sync.WaitGroup // 正在执行的重载回调
	done     chan struct{}  // 事件循环退出后关闭
}

// WatchOption 监视器选项
type WatchOption func(*Watcher)

// WithDebounce 设置防抖时间，窗口内的多次变更只触发一次重载
func WithDebounce(d time.Duration) WatchOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// Watch 创建配置文件监视器，需调用 Start 或 StartAsync 开始监视
//
//	w, err := xconf.Watch(cfg, func(c xconf.Config, err error) {
//		if err != nil {
//			return
//		}
//		logger.SetLevel(...)
//	})
//	if err != nil {
//		return err
//	}
//	w.StartAsync()
//	defer w.Stop()
func Watch(cfg Config, callback WatchCallback, opts ...WatchOption) (*Watcher, error) {
	kc, ok := cfg.(*koanfConfig)
	if !ok {
		return nil, ErrUnsupportedConfig
	}
	if kc.path == "" {
		return nil, ErrNotFileBacked
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("xconf: create watcher: %w", err)
	}
	dir := filepath.Dir(kc.path)
	if err := fsw.Add(dir); err != nil {
		return nil, errors.Join(fmt.Errorf("xconf: watch directory %s: %w", dir, err), fsw.Close())
	}

	w := &Watcher{
		cfg:      kc,
		fs:       fsw,
		callback: callback,
		debounce: DefaultDebounce,
		filename: filepath.Base(kc.path),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	return w, nil
}

// Start 阻塞运行事件循环，直到 Stop
func (w *Watcher) Start() {
	if w.markStarted() {
		w.run()
	}
}

// StartAsync 在后台 goroutine 中运行事件循环
func (w *Watcher) StartAsync() {
	if w.markStarted() {
		go w.run()
	}
}

func (w *Watcher) markStarted() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started || w.stopped {
		return false
	}
	w.started = true
	return true
}

// Stop 停止监视，返回前等待事件循环和正在执行的回调退出
//
// 不得在回调中调用 Stop。重复调用返回 nil。
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	started := w.started
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.mu.Unlock()

	err := w.fs.Close()
	if started {
		<-w.done
	}
	w.inflight.Wait()
	return err
}

func (w *Watcher) run() {
	defer close(w.done)
	for {
		select {
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.notify(fmt.Errorf("xconf: watch error: %w", err))
		}
	}
}

// handleEvent 只关心目标文件的 Write/Create/Rename 事件
func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Base(event.Name) != w.filename {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.reload)
}

func (w *Watcher) reload() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.inflight.Add(1)
	w.mu.Unlock()
	defer w.inflight.Done()

	w.notify(w.cfg.Reload())
}

func (w *Watcher) notify(err error) {
	if w.callback != nil {
		w.callback(w.cfg, err)
	}
}
