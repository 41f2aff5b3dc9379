package rendezvous

import (
	"context"

	"go.uber.org/fx"

	"github.com/dep2p/go-rendezvous/config"
	pkgif "github.com/dep2p/go-rendezvous/pkg/interfaces"
)

// Module Rendezvous 模块
var Module = fx.Module("rendezvous",
	fx.Provide(
		NewFromParams,
	),
	fx.Invoke(registerLifecycle),
)

// Params Rendezvous 依赖参数
type Params struct {
	fx.In

	Listener   pkgif.Listener
	UnifiedCfg *config.Config `optional:"true"`
}

// Result Rendezvous 导出结果
type Result struct {
	fx.Out

	Point      *Point
	Rendezvous pkgif.RendezvousPoint
}

// ConfigFromUnified 从统一配置创建 Point 配置
func ConfigFromUnified(cfg *config.Config) PointConfig {
	if cfg == nil {
		return DefaultPointConfig()
	}
	rc := cfg.Rendezvous
	return PointConfig{
		Store: StoreConfig{
			MinTTL:               rc.MinTTL.Duration(),
			MaxTTL:               rc.MaxTTL.Duration(),
			DefaultTTL:           rc.DefaultTTL.Duration(),
			MaxNamespaceLength:   rc.MaxNamespaceLength,
			MaxAddresses:         rc.MaxAddresses,
			MaxAddressLength:     rc.MaxAddressLength,
			MaxRegistrations:     rc.MaxRegistrations,
			MaxDiscoverLimit:     rc.MaxDiscoverLimit,
			DefaultDiscoverLimit: rc.DefaultDiscoverLimit,
		},
		SweepInterval: rc.SweepInterval.Duration(),
	}
}

// NewFromParams 从 Fx 参数创建 Point
func NewFromParams(p Params) (Result, error) {
	cfg := ConfigFromUnified(p.UnifiedCfg)
	point, err := NewPoint(cfg, p.Listener, nil)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Point:      point,
		Rendezvous: point,
	}, nil
}

// registerLifecycle 将 Point 挂接到 Fx 生命周期
func registerLifecycle(lc fx.Lifecycle, point *Point) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return point.Start(ctx)
		},
		OnStop: func(ctx context.Context) error {
			return point.Stop()
		},
	})
}
