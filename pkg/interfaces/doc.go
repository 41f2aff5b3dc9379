// Package interfaces 定义 go-rendezvous 的公共接口
//
// 协议引擎只依赖这里定义的连接层边界：
// 连接层负责传输、多路复用与身份认证，向引擎交付
// "已认证的远端身份 + 分帧字节流"。
package interfaces
