package rendezvous

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/dep2p/go-rendezvous/pkg/interfaces"
	"github.com/dep2p/go-rendezvous/pkg/lib/log"
	pb "github.com/dep2p/go-rendezvous/pkg/lib/proto/rendezvous"
	"github.com/dep2p/go-rendezvous/pkg/types"
)

var clientLog = log.Logger("rendezvous/client")

// ============================================================================
//                              客户端
// ============================================================================

// localRegistration 客户端侧记录的注册，用于续约
type localRegistration struct {
	addrs []string
	ttl   time.Duration
}

// Client Rendezvous 客户端
//
// 惰性建连：首个请求时拨号，流错误后丢弃连接、下次请求重新拨号。
// 已注册的命名空间按 RenewalInterval 周期性续约；
// 重连后的首轮续约会恢复因连接丢失被服务端移除的注册。
type Client struct {
	config ClientConfig
	dialer interfaces.Dialer
	addr   string
	clock  clock.Clock

	mu            sync.Mutex
	conn          interfaces.Conn
	registrations map[string]localRegistration
	closed        bool

	done chan struct{}
	wg   sync.WaitGroup
}

// 确保 Client 实现 RendezvousClient 接口
var _ interfaces.RendezvousClient = (*Client)(nil)

// NewClient 创建客户端并启动续约循环
//
// clk 为 nil 时使用真实时钟。
func NewClient(config ClientConfig, dialer interfaces.Dialer, addr string, clk clock.Clock) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if clk == nil {
		clk = clock.New()
	}

	c := &Client{
		config:        config,
		dialer:        dialer,
		addr:          addr,
		clock:         clk,
		registrations: make(map[string]localRegistration),
		done:          make(chan struct{}),
	}

	c.wg.Add(1)
	go c.renewalLoop()
	return c, nil
}

// ============================================================================
//                              请求
// ============================================================================

// Register 在命名空间注册本节点
//
// 返回服务端实际生效的 TTL（可能被钳制）。
// 成功后该命名空间进入续约集合。
func (c *Client) Register(ctx context.Context, ns string, addrs []string, ttl time.Duration) (time.Duration, error) {
	if ttl <= 0 {
		ttl = c.config.DefaultTTL
	}

	granted, err := c.register(ctx, ns, addrs, ttl)
	if err != nil {
		return 0, err
	}

	c.mu.Lock()
	if !c.closed {
		c.registrations[ns] = localRegistration{addrs: addrs, ttl: ttl}
	}
	c.mu.Unlock()

	return granted, nil
}

// register 发送一次注册请求
func (c *Client) register(ctx context.Context, ns string, addrs []string, ttl time.Duration) (time.Duration, error) {
	resp, err := c.roundTrip(ctx, NewRegisterRequest(ns, addrs, ttl))
	if err != nil {
		return 0, err
	}
	if resp.Type != pb.Message_REGISTER_RESPONSE || resp.RegisterResponse == nil {
		return 0, fmt.Errorf("%w: %s", ErrUnexpectedMessage, resp.Type.String())
	}

	r := resp.RegisterResponse
	if err := StatusToError(r.Status, r.StatusText); err != nil {
		return 0, err
	}
	return time.Duration(r.Ttl) * time.Second, nil
}

// Unregister 取消命名空间注册
func (c *Client) Unregister(ctx context.Context, ns string) error {
	c.mu.Lock()
	delete(c.registrations, ns)
	c.mu.Unlock()

	// 不携带 id，服务端直接采用连接身份
	resp, err := c.roundTrip(ctx, NewUnregisterRequest(ns, types.EmptyPeerID))
	if err != nil {
		return err
	}
	if resp.Type != pb.Message_UNREGISTER_RESPONSE || resp.UnregisterResponse == nil {
		return fmt.Errorf("%w: %s", ErrUnexpectedMessage, resp.Type.String())
	}

	r := resp.UnregisterResponse
	return StatusToError(r.Status, r.StatusText)
}

// Discover 发现命名空间中的节点
func (c *Client) Discover(ctx context.Context, ns string, limit int, cookie []byte) ([]interfaces.Discovered, []byte, error) {
	resp, err := c.roundTrip(ctx, NewDiscoverRequest(ns, limit, cookie))
	if err != nil {
		return nil, nil, err
	}
	if resp.Type != pb.Message_DISCOVER_RESPONSE || resp.DiscoverResponse == nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrUnexpectedMessage, resp.Type.String())
	}

	r := resp.DiscoverResponse
	if err := StatusToError(r.Status, r.StatusText); err != nil {
		return nil, nil, err
	}

	found := make([]interfaces.Discovered, 0, len(r.Registrations))
	for _, reg := range r.Registrations {
		peer, err := types.PeerIDFromBytes(reg.Id)
		if err != nil {
			clientLog.Warn("丢弃身份非法的发现结果", "namespace", reg.Ns)
			continue
		}
		found = append(found, interfaces.Discovered{
			Peer:  peer,
			Addrs: reg.Addrs,
			TTL:   time.Duration(reg.Ttl) * time.Second,
		})
	}
	return found, r.Cookie, nil
}

// DiscoverAll 翻页取回命名空间中的全部存活注册
func (c *Client) DiscoverAll(ctx context.Context, ns string) ([]interfaces.Discovered, error) {
	var all []interfaces.Discovered
	var cookie []byte
	for {
		found, next, err := c.Discover(ctx, ns, 0, cookie)
		if err != nil {
			return nil, err
		}
		if len(found) == 0 {
			return all, nil
		}
		all = append(all, found...)
		cookie = next
	}
}

// Close 关闭客户端连接并停止续约
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	close(c.done)
	c.wg.Wait()

	if conn != nil {
		return conn.Close()
	}
	return nil
}

// ============================================================================
//                              连接管理
// ============================================================================

// roundTrip 在独立的流上完成一次请求/响应
func (c *Client) roundTrip(ctx context.Context, req *pb.Message) (*pb.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.RequestTimeout)
	defer cancel()

	conn, err := c.ensureConn(ctx)
	if err != nil {
		return nil, err
	}

	stream, err := conn.OpenStream(ctx)
	if err != nil {
		c.dropConn(conn)
		return nil, fmt.Errorf("failed to open stream: %w", err)
	}
	defer stream.Close()

	if err := WriteMessage(stream, req); err != nil {
		c.dropConn(conn)
		return nil, err
	}
	resp, err := ReadMessage(stream)
	if err != nil {
		c.dropConn(conn)
		return nil, err
	}
	return resp, nil
}

// ensureConn 返回现有连接，必要时拨号
func (c *Client) ensureConn(ctx context.Context) (interfaces.Conn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrClientClosed
	}
	if c.conn != nil {
		return c.conn, nil
	}

	conn, err := c.dialer.Dial(ctx, c.addr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", c.addr, err)
	}
	c.conn = conn
	return conn, nil
}

// dropConn 丢弃出错的连接，下次请求重新拨号
func (c *Client) dropConn(conn interfaces.Conn) {
	c.mu.Lock()
	if c.conn == conn {
		c.conn = nil
	}
	c.mu.Unlock()
	conn.Close()
}

// ============================================================================
//                              续约
// ============================================================================

// renewalLoop 周期性重新注册全部已注册命名空间
func (c *Client) renewalLoop() {
	defer c.wg.Done()

	ticker := c.clock.Ticker(c.config.RenewalInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.renewAll()
		case <-c.done:
			return
		}
	}
}

// renewAll 续约全部注册
func (c *Client) renewAll() {
	c.mu.Lock()
	pending := make(map[string]localRegistration, len(c.registrations))
	for ns, reg := range c.registrations {
		pending[ns] = reg
	}
	c.mu.Unlock()

	for ns, reg := range pending {
		ctx, cancel := context.WithTimeout(context.Background(), c.config.RequestTimeout)
		_, err := c.register(ctx, ns, reg.addrs, reg.ttl)
		cancel()
		if err != nil {
			clientLog.Warn("续约失败", "namespace", ns, "err", err)
			continue
		}
		clientLog.Debug("续约成功", "namespace", ns)
	}
}
