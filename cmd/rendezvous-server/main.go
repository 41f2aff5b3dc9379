// Package main 提供独立的 Rendezvous 服务器
//
// Rendezvous 服务器为节点提供基于命名空间的注册与发现服务。
//
// 使用方法:
//
//	go run main.go -listen 0.0.0.0:4001 -key rendezvous.key
//
// 或使用配置文件:
//
//	go run main.go -config config.json
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/fx"

	"github.com/dep2p/go-rendezvous/config"
	"github.com/dep2p/go-rendezvous/internal/rendezvous"
	"github.com/dep2p/go-rendezvous/internal/transport"
	"github.com/dep2p/go-rendezvous/pkg/interfaces"
	"github.com/dep2p/go-rendezvous/pkg/lib/crypto"
	"github.com/dep2p/go-rendezvous/pkg/lib/log"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// 解析命令行参数
	configPath := flag.String("config", "", "配置文件路径 (JSON)")
	listen := flag.String("listen", "", "监听地址 (host:port)")
	keyFile := flag.String("key", "", "身份密钥文件路径")
	logLevel := flag.String("log-level", "", "日志级别 (debug/info/warn/error)")
	jsonLog := flag.Bool("json-log", false, "输出 JSON 格式日志")
	flag.Parse()

	// 加载配置，命令行参数覆盖配置文件
	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	if *listen != "" {
		cfg.Server.Listen = *listen
	}
	if *keyFile != "" {
		cfg.Server.KeyFile = *keyFile
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if *jsonLog {
		cfg.Log.JSON = true
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	setupLogging(cfg.Log)

	// 加载或生成身份密钥
	key, err := crypto.LoadOrCreateKeyFile(cfg.Server.KeyFile)
	if err != nil {
		return fmt.Errorf("加载身份密钥失败: %w", err)
	}
	fmt.Printf("peer id: %s\n", key.PeerID())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app := fx.New(
		fx.NopLogger,
		fx.Supply(cfg, key),
		transport.Module,
		rendezvous.Module,
		fx.Invoke(func(lc fx.Lifecycle, ln interfaces.Listener, point *rendezvous.Point) {
			lc.Append(fx.Hook{
				OnStart: func(context.Context) error {
					fmt.Printf("listening on %s\n", ln.Addr())
					if interval := cfg.Server.StatsInterval.Duration(); interval > 0 {
						go reportStats(ctx, point, interval)
					}
					return nil
				},
			})
		}),
	)
	if err := app.Err(); err != nil {
		return err
	}

	if err := app.Start(ctx); err != nil {
		return fmt.Errorf("启动失败: %w", err)
	}

	// 等待中断信号
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-signalCh
	fmt.Printf("收到信号 %v，正在关闭...\n", sig)
	cancel()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer stopCancel()
	return app.Stop(stopCtx)
}

// loadConfig 加载配置文件，未指定时使用默认配置
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.NewConfig(), nil
	}
	return config.LoadFile(path)
}

// setupLogging 根据配置初始化日志输出
func setupLogging(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = log.LevelDebug
	case "warn":
		level = log.LevelWarn
	case "error":
		level = log.LevelError
	default:
		level = log.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.JSON {
		log.SetDefault(log.NewJSON(os.Stderr, opts))
	} else {
		log.SetDefault(log.New(os.Stderr, opts))
	}
}

// reportStats 定期报告统计信息
func reportStats(ctx context.Context, point *rendezvous.Point, interval time.Duration) {
	logger := log.Logger("stats")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := point.Stats()
			logger.Info("服务统计",
				"registrations", stats.TotalRegistrations,
				"namespaces", stats.TotalNamespaces,
				"registersReceived", stats.RegistersReceived,
				"unregistersReceived", stats.UnregistersReceived,
				"discoversReceived", stats.DiscoversReceived,
				"swept", stats.RegistrationsSwept)
		}
	}
}
