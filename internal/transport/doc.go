// Package transport 提供 Rendezvous 的连接层实现
//
// 连接栈：TCP + Ed25519 双向身份握手 + yamux 多路复用。
//
// 握手在裸连接上完成：双方交换公钥与随机 nonce，
// 各自对带角色标签的对端 nonce 签名，验证通过后
// 以公钥哈希作为对端身份。身份随连接对象交给上层，
// 协议引擎对授权判断只使用这个身份。
//
// 入站流接受受令牌桶限速（golang.org/x/time/rate），
// 防止单个对端用高频开流占满会话处理能力。
package transport
