// Package xconf 基于 koanf 的配置加载器。
//
// 负责 YAML/JSON 文件或字节数据的加载、反序列化和热重载，
// 不做字段校验和默认值注入，由使用方在 Unmarshal 后处理。
//
//	cfg, err := xconf.New("/etc/logspool/config.yaml")
//	if err != nil {
//		return err
//	}
//	spoolCfg := xspool.DefaultConfig("")
//	if err := cfg.Unmarshal("spool", &spoolCfg); err != nil {
//		return err
//	}
//
// # 并发
//
// 所有方法并发安全。Reload 串行执行，解析成功后原子替换 koanf 快照；
// 解析失败时旧配置继续生效。Client 返回的快照在 Reload 后不会更新，
// 需要最新值时重新调用 Client。
//
// # 监视
//
// [Watch] 基于 fsnotify 监视文件所在目录，内置防抖，兼容原子写入保存。
// 从字节数据创建的 Config 不支持 Reload 和 Watch。
package xconf
