package transport

import (
	"context"
	"fmt"
	"net"

	"github.com/hashicorp/yamux"
	"golang.org/x/time/rate"

	"github.com/dep2p/go-rendezvous/pkg/interfaces"
	"github.com/dep2p/go-rendezvous/pkg/types"
)

// ============================================================================
//                              连接封装
// ============================================================================

// Conn 封装 yamux.Session，实现 interfaces.Conn
//
// 对端身份在握手阶段确定，连接存续期内不变。
// 入站流接受受令牌桶限速，超速的对端被延迟而不是断开。
type Conn struct {
	session *yamux.Session
	remote  types.PeerID
	limiter *rate.Limiter
}

// 确保实现 interfaces.Conn 接口
var _ interfaces.Conn = (*Conn)(nil)

// newConn 从已完成握手的 yamux.Session 创建连接
func newConn(session *yamux.Session, remote types.PeerID, cfg Config) *Conn {
	return &Conn{
		session: session,
		remote:  remote,
		limiter: rate.NewLimiter(rate.Limit(cfg.StreamsPerSecond), cfg.StreamBurst),
	}
}

// RemotePeer 返回对端的认证身份
func (c *Conn) RemotePeer() types.PeerID {
	return c.remote
}

// AcceptStream 接受对端打开的下一条流
func (c *Conn) AcceptStream() (interfaces.Stream, error) {
	if c.session.IsClosed() {
		return nil, ErrConnClosed
	}

	s, err := c.session.AcceptStream()
	if err != nil {
		return nil, fmt.Errorf("failed to accept stream: %w", err)
	}

	// 限速在接受之后生效：流已经建立，只是延迟交给会话处理
	if err := c.limiter.Wait(context.Background()); err != nil {
		s.Close()
		return nil, fmt.Errorf("%w: %v", ErrStreamRateLimited, err)
	}
	return s, nil
}

// OpenStream 向对端打开一条新流
//
// yamux 的 OpenStream 不支持 context，在独立 goroutine 中处理。
func (c *Conn) OpenStream(ctx context.Context) (interfaces.Stream, error) {
	if c.session.IsClosed() {
		return nil, ErrConnClosed
	}

	type result struct {
		stream *yamux.Stream
		err    error
	}
	resultCh := make(chan result, 1)

	go func() {
		s, err := c.session.OpenStream()
		select {
		case resultCh <- result{stream: s, err: err}:
		default:
			// context 已取消，关闭孤立的流以防止泄漏
			if s != nil {
				_ = s.Close()
			}
		}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-resultCh:
		if r.err != nil {
			return nil, fmt.Errorf("failed to open stream: %w", r.err)
		}
		return r.stream, nil
	}
}

// Close 关闭连接及其全部流
func (c *Conn) Close() error {
	return c.session.Close()
}

// LocalAddr 本端地址
func (c *Conn) LocalAddr() string {
	return addrString(c.session.LocalAddr())
}

// RemoteAddr 对端地址
func (c *Conn) RemoteAddr() string {
	return addrString(c.session.RemoteAddr())
}

func addrString(addr net.Addr) string {
	if addr == nil {
		return ""
	}
	return addr.String()
}
