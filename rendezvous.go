// Package gorendezvous 是 go-rendezvous 的顶层入口
//
// 对外暴露 Rendezvous Point 服务端与客户端的构造入口，
// 内部实现位于 internal/ 下，外部代码通过本包使用它们。
//
// 服务端：
//
//	key, _ := gorendezvous.LoadOrCreateKey("rendezvous.key")
//	tr, _ := gorendezvous.NewTransport(key, gorendezvous.DefaultTransportConfig())
//	ln, _ := tr.Listen("0.0.0.0:4001")
//	point, _ := gorendezvous.NewPoint(gorendezvous.DefaultPointConfig(), ln)
//	point.Start(ctx)
//
// 客户端：
//
//	client, _ := gorendezvous.NewClient(gorendezvous.DefaultClientConfig(), tr, "server:4001")
//	ttl, _ := client.Register(ctx, "my-app", addrs, 0)
package gorendezvous

import (
	"github.com/dep2p/go-rendezvous/internal/rendezvous"
	"github.com/dep2p/go-rendezvous/internal/transport"
	"github.com/dep2p/go-rendezvous/pkg/interfaces"
	"github.com/dep2p/go-rendezvous/pkg/lib/crypto"
)

// 核心类型
type (
	// Point Rendezvous 服务端
	Point = rendezvous.Point

	// Client Rendezvous 客户端
	Client = rendezvous.Client

	// PointConfig 服务端配置
	PointConfig = rendezvous.PointConfig

	// ClientConfig 客户端配置
	ClientConfig = rendezvous.ClientConfig

	// Transport TCP + yamux 连接层
	Transport = transport.Transport

	// TransportConfig 连接层配置
	TransportConfig = transport.Config

	// Discovered 发现结果中的一条注册
	Discovered = interfaces.Discovered
)

// 默认配置
var (
	DefaultPointConfig     = rendezvous.DefaultPointConfig
	DefaultClientConfig    = rendezvous.DefaultClientConfig
	DefaultTransportConfig = transport.DefaultConfig
)

// LoadOrCreateKey 加载身份密钥文件，不存在时生成并保存
func LoadOrCreateKey(path string) (*crypto.PrivateKey, error) {
	return crypto.LoadOrCreateKeyFile(path)
}

// NewTransport 创建连接层
func NewTransport(key *crypto.PrivateKey, cfg TransportConfig) (*Transport, error) {
	return transport.New(key, cfg)
}

// NewPoint 创建 Rendezvous Point
func NewPoint(cfg PointConfig, listener interfaces.Listener) (*Point, error) {
	return rendezvous.NewPoint(cfg, listener, nil)
}

// NewClient 创建客户端
func NewClient(cfg ClientConfig, dialer interfaces.Dialer, addr string) (*Client, error) {
	return rendezvous.NewClient(cfg, dialer, addr, nil)
}
