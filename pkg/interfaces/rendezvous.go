// 本文件定义 Rendezvous 接口，对应 internal/rendezvous/ 实现。
package interfaces

import (
	"context"
	"time"

	"github.com/dep2p/go-rendezvous/pkg/types"
)

// ════════════════════════════════════════════════════════════════════════════
// RendezvousPoint 接口（服务端）
// ════════════════════════════════════════════════════════════════════════════

// RendezvousPoint 定义 Rendezvous Point 服务端接口
//
// Rendezvous Point 是协议的服务端，负责：
// - 存储节点注册信息
// - 处理发现请求
// - 过期清理
type RendezvousPoint interface {
	// Start 启动服务
	Start(ctx context.Context) error

	// Stop 停止服务
	Stop() error

	// Stats 返回统计信息
	Stats() RendezvousPointStats
}

// RendezvousPointStats Rendezvous Point 统计信息
type RendezvousPointStats struct {
	// TotalRegistrations 当前驻留的注册数
	TotalRegistrations int

	// TotalNamespaces 当前命名空间数
	TotalNamespaces int

	// RegistersReceived 收到的注册请求数
	RegistersReceived uint64

	// UnregistersReceived 收到的取消注册请求数
	UnregistersReceived uint64

	// DiscoversReceived 收到的发现请求数
	DiscoversReceived uint64

	// RegistrationsSwept 被清扫的过期注册总数
	RegistrationsSwept uint64
}

// ════════════════════════════════════════════════════════════════════════════
// RendezvousClient 接口（客户端）
// ════════════════════════════════════════════════════════════════════════════

// Discovered 发现结果中的一条注册
type Discovered struct {
	// Peer 注册节点身份
	Peer types.PeerID

	// Addrs 节点广播的传输地址
	Addrs []string

	// TTL 剩余有效期
	TTL time.Duration
}

// RendezvousClient 定义 Rendezvous 客户端接口
type RendezvousClient interface {
	// Register 在命名空间注册本节点，返回实际生效的 TTL
	Register(ctx context.Context, ns string, addrs []string, ttl time.Duration) (time.Duration, error)

	// Unregister 取消命名空间注册
	Unregister(ctx context.Context, ns string) error

	// Discover 发现命名空间中的节点
	//
	// cookie 为上一页返回的游标，nil 表示从头开始。
	// 返回的 cookie 用于取下一页；空页表示没有更多结果。
	Discover(ctx context.Context, ns string, limit int, cookie []byte) ([]Discovered, []byte, error)

	// Close 关闭客户端连接并停止续约
	Close() error
}
