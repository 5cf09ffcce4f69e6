package xconf

import "github.com/knadh/koanf/v2"

// Format 配置文件格式
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// Config 配置接口
//
// 只提供加载、反序列化和热重载，其余读取操作直接使用 Client()。
type Config interface {
	// Client 返回当前配置快照，Reload 后旧快照仍可用但不再更新
	Client() *koanf.Koanf

	// Unmarshal 将 path 下的配置反序列化到 target，path 为空时反序列化整个配置
	Unmarshal(path string, target any) error

	// Reload 重新读取配置文件，解析失败时保留旧配置
	Reload() error

	// Path 返回配置文件路径，从字节数据创建时为空
	Path() string

	Format() Format

	// Version 每次成功加载后递增，初始为 1
	Version() uint64
}

// MustUnmarshal 同 Config.Unmarshal，失败时 panic，用于启动阶段的必要配置
func MustUnmarshal(cfg Config, path string, target any) {
	if err := cfg.Unmarshal(path, target); err != nil {
		panic(err)
	}
}
