// Package util 提供通用工具相关的子包。
//
// 子包列表：
//   - xfile: 文件操作工具，路径校验、目录创建、编号归档路径
//
// 设计原则：
//   - 安全处理路径遍历
//   - 跨平台兼容
package util
