// Package crypto 提供 go-rendezvous 的身份密钥支持
//
// 仅支持 Ed25519 密钥：
//   - 密钥对生成与序列化
//   - 密钥文件加载/保存（明文种子格式）
//   - PeerID 派生：Base58(SHA256(公钥))
//
// 本包只负责"稳定的本地身份密钥"，不负责传输加密。
package crypto
