package transport

import (
	"go.uber.org/fx"

	"github.com/dep2p/go-rendezvous/config"
	pkgif "github.com/dep2p/go-rendezvous/pkg/interfaces"
	"github.com/dep2p/go-rendezvous/pkg/lib/crypto"
)

// Module 连接层模块
var Module = fx.Module("transport",
	fx.Provide(
		NewFromParams,
	),
)

// Params 连接层依赖参数
type Params struct {
	fx.In

	Key        *crypto.PrivateKey
	UnifiedCfg *config.Config `optional:"true"`
}

// Result 连接层导出结果
type Result struct {
	fx.Out

	Transport *Transport
	Listener  pkgif.Listener
	Dialer    pkgif.Dialer
}

// ConfigFromUnified 从统一配置创建连接层配置
func ConfigFromUnified(cfg *config.Config) Config {
	if cfg == nil {
		return DefaultConfig()
	}
	return Config{
		HandshakeTimeout: cfg.Transport.HandshakeTimeout.Duration(),
		StreamsPerSecond: cfg.Transport.StreamsPerSecond,
		StreamBurst:      cfg.Transport.StreamBurst,
	}
}

// NewFromParams 从 Fx 参数创建连接层
//
// 监听地址取自统一配置，未提供配置时使用默认地址。
func NewFromParams(p Params) (Result, error) {
	cfg := ConfigFromUnified(p.UnifiedCfg)
	t, err := New(p.Key, cfg)
	if err != nil {
		return Result{}, err
	}

	listen := "0.0.0.0:4001"
	if p.UnifiedCfg != nil {
		listen = p.UnifiedCfg.Server.Listen
	}
	ln, err := t.Listen(listen)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Transport: t,
		Listener:  ln,
		Dialer:    t,
	}, nil
}
