// Package xfile 提供日志落盘所需的文件系统工具。
//
// # 路径净化
//
// [SanitizePath] 规范化日志文件路径，拒绝空路径、空字节、目录路径以及
// 相对路径中的 ".." 段。绝对路径中的 ".." 由 filepath.Clean 正常解析。
//
// # 目录准备
//
// [EnsureDir] 创建文件的父目录（默认 0750）。底层使用 os.MkdirAll，
// 会跟随符号链接。
//
// # 编号归档
//
// [IndexedPath] 生成 "path.N" 形式的归档文件名，[RemoveIfExists] 和
// [RenameIfExists] 把"文件不存在"视为成功，便于轮转时逐级移动归档。
//
// 预定义错误变量支持 [errors.Is] 判断。
package xfile
