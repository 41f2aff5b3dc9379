package interfaces

import (
	"context"
	"io"

	"github.com/dep2p/go-rendezvous/pkg/types"
)

// ════════════════════════════════════════════════════════════════════════════
// 连接层边界
// ════════════════════════════════════════════════════════════════════════════

// Stream 一条分帧字节流
//
// 每条流承载一个请求/响应会话，由协议状态机独占，
// 解码/编码缓冲永远不跨流共享。
type Stream interface {
	io.Reader
	io.Writer
	io.Closer
}

// Conn 一条已认证的对端连接
//
// 连接层保证 RemotePeer 返回的身份经过认证；
// 协议引擎对授权判断只使用这个身份，绝不信任载荷中的身份字段。
type Conn interface {
	// RemotePeer 返回对端的认证身份
	RemotePeer() types.PeerID

	// AcceptStream 接受对端打开的下一条流
	//
	// 连接关闭或丢失时返回错误，这是连接丢失通知：
	// 调用方在此之后必须触发该对端的注册清理。
	AcceptStream() (Stream, error)

	// OpenStream 向对端打开一条新流
	OpenStream(ctx context.Context) (Stream, error)

	// Close 关闭连接及其全部流
	Close() error

	// LocalAddr 本端地址（诊断用）
	LocalAddr() string

	// RemoteAddr 对端地址（诊断用）
	RemoteAddr() string
}

// Listener 入站连接监听器
type Listener interface {
	// Accept 等待并返回下一条入站连接
	//
	// 返回的连接已完成身份认证。
	Accept(ctx context.Context) (Conn, error)

	// Close 关闭监听器
	Close() error

	// Addr 返回实际监听地址
	Addr() string
}

// Dialer 出站连接发起方
type Dialer interface {
	// Dial 连接指定地址并完成身份握手
	Dial(ctx context.Context, addr string) (Conn, error)
}
