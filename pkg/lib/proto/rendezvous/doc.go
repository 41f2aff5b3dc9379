// Package rendezvous 定义 Rendezvous 协议的线上消息
//
// 消息结构与 rendezvous.proto 中的定义一一对应。
// 编解码直接基于 protowire 实现，字段编号与 .proto 保持一致，
// 线上格式与 protoc 生成代码完全兼容，仓库检出后无需运行 protoc。
package rendezvous
