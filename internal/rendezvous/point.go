package rendezvous

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/benbjohnson/clock"

	"github.com/dep2p/go-rendezvous/pkg/interfaces"
	"github.com/dep2p/go-rendezvous/pkg/lib/log"
)

var pointLog = log.Logger("rendezvous/point")

// ============================================================================
//                              Rendezvous Point
// ============================================================================

// Point Rendezvous 服务端
//
// 持有注册存储、过期清扫器与连接接入循环。
// 每条入站连接上的每条流由独立的会话循环处理，
// 连接丢失时移除该对端在全部命名空间下的注册。
type Point struct {
	config   PointConfig
	listener interfaces.Listener
	store    *Store
	sweeper  *Sweeper
	metrics  sessionMetrics

	started atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	connsMu sync.Mutex
	conns   map[interfaces.Conn]struct{}
}

// 确保 Point 实现 RendezvousPoint 接口
var _ interfaces.RendezvousPoint = (*Point)(nil)

// NewPoint 创建 Rendezvous Point
//
// clk 为 nil 时使用真实时钟。
func NewPoint(config PointConfig, listener interfaces.Listener, clk clock.Clock) (*Point, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if clk == nil {
		clk = clock.New()
	}

	store := NewStore(config.Store, clk)
	p := &Point{
		config:   config,
		listener: listener,
		store:    store,
		conns:    make(map[interfaces.Conn]struct{}),
	}
	p.sweeper = NewSweeper(store, clk, config.SweepInterval)
	return p, nil
}

// Store 返回底层存储（测试与诊断用）
func (p *Point) Store() *Store {
	return p.store
}

// ============================================================================
//                              生命周期
// ============================================================================

// Start 启动服务
func (p *Point) Start(ctx context.Context) error {
	if !p.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.sweeper.Start()

	p.wg.Add(1)
	go p.acceptLoop(ctx)

	pointLog.Info("Rendezvous Point 已启动",
		"addr", p.listener.Addr(),
		"sweepInterval", p.config.SweepInterval)
	return nil
}

// Stop 停止服务
//
// 关闭监听器与全部在途连接，等待会话循环退出。
func (p *Point) Stop() error {
	if !p.started.CompareAndSwap(true, false) {
		return ErrNotStarted
	}

	p.cancel()
	p.sweeper.Stop()
	err := p.listener.Close()

	// 关闭在途连接，否则会话循环阻塞在 AcceptStream 上不退出
	p.connsMu.Lock()
	for conn := range p.conns {
		conn.Close()
	}
	p.connsMu.Unlock()

	p.wg.Wait()

	pointLog.Info("Rendezvous Point 已停止")
	return err
}

// ============================================================================
//                              连接处理
// ============================================================================

// acceptLoop 接入循环
func (p *Point) acceptLoop(ctx context.Context) {
	defer p.wg.Done()

	for {
		conn, err := p.listener.Accept(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return
			}
			pointLog.Warn("接受连接失败", "err", err)
			return
		}

		p.wg.Add(1)
		go p.serveConn(ctx, conn)
	}
}

// serveConn 处理一条入站连接
//
// AcceptStream 返回错误即视为连接丢失，
// 此时移除该对端的全部注册（显式取消注册之外的唯一清理路径）。
func (p *Point) serveConn(ctx context.Context, conn interfaces.Conn) {
	defer p.wg.Done()

	peer := conn.RemotePeer()
	pointLog.Debug("连接建立",
		"peer", peer.ShortString(),
		"remoteAddr", conn.RemoteAddr())

	p.connsMu.Lock()
	p.conns[conn] = struct{}{}
	p.connsMu.Unlock()

	defer func() {
		p.connsMu.Lock()
		delete(p.conns, conn)
		p.connsMu.Unlock()

		conn.Close()
		removed := p.store.RemoveAllForPeer(peer)
		pointLog.Debug("连接断开",
			"peer", peer.ShortString(),
			"registrationsRemoved", removed)
	}()

	var streams sync.WaitGroup
	defer streams.Wait()

	for {
		stream, err := conn.AcceptStream()
		if err != nil {
			return
		}
		if ctx.Err() != nil {
			stream.Close()
			return
		}

		sess := newSession(p.store, peer, stream, &p.metrics)
		streams.Add(1)
		go func() {
			defer streams.Done()
			sess.serve()
		}()
	}
}

// ============================================================================
//                              统计
// ============================================================================

// Stats 返回统计信息
func (p *Point) Stats() interfaces.RendezvousPointStats {
	ss := p.store.Stats()
	return interfaces.RendezvousPointStats{
		TotalRegistrations:  ss.TotalRegistrations,
		TotalNamespaces:     ss.TotalNamespaces,
		RegistersReceived:   p.metrics.registers.Load(),
		UnregistersReceived: p.metrics.unregisters.Load(),
		DiscoversReceived:   p.metrics.discovers.Load(),
		RegistrationsSwept:  ss.RegistrationsSwept,
	}
}
