package transport

import (
	"context"
	"fmt"
	"io"
	"net"

	"github.com/hashicorp/yamux"

	"github.com/dep2p/go-rendezvous/pkg/interfaces"
	"github.com/dep2p/go-rendezvous/pkg/lib/crypto"
	"github.com/dep2p/go-rendezvous/pkg/lib/log"
)

var transportLog = log.Logger("transport")

// ============================================================================
//                              Transport
// ============================================================================

// Transport TCP + 身份握手 + yamux 多路复用的连接层
//
// 监听与拨号共用同一份本地身份，握手成功后对端身份
// 随连接对象一起交给上层。
type Transport struct {
	key    *crypto.PrivateKey
	config Config
}

// 确保实现 Dialer 接口
var _ interfaces.Dialer = (*Transport)(nil)

// New 创建连接层
func New(key *crypto.PrivateKey, config Config) (*Transport, error) {
	if key == nil {
		return nil, crypto.ErrNilKey
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Transport{key: key, config: config}, nil
}

// yamuxConfig 返回 yamux 会话配置
func yamuxConfig() *yamux.Config {
	cfg := yamux.DefaultConfig()
	cfg.LogOutput = io.Discard
	return cfg
}

// ============================================================================
//                              拨号
// ============================================================================

// Dial 连接指定地址并完成身份握手
func (t *Transport) Dial(ctx context.Context, addr string) (interfaces.Conn, error) {
	var d net.Dialer
	raw, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", addr, err)
	}

	remote, err := Handshake(raw, t.key, true, t.config.HandshakeTimeout)
	if err != nil {
		raw.Close()
		return nil, err
	}

	session, err := yamux.Client(raw, yamuxConfig())
	if err != nil {
		raw.Close()
		return nil, fmt.Errorf("failed to create muxer: %w", err)
	}

	transportLog.Debug("出站连接建立",
		"addr", addr,
		"peer", remote.ShortString())
	return newConn(session, remote, t.config), nil
}

// ============================================================================
//                              监听
// ============================================================================

// Listener TCP 监听器，接受的连接已完成身份认证
type Listener struct {
	transport *Transport
	ln        net.Listener
}

// 确保实现 Listener 接口
var _ interfaces.Listener = (*Listener)(nil)

// Listen 在指定地址开始监听
func (t *Transport) Listen(addr string) (*Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return &Listener{transport: t, ln: ln}, nil
}

// Accept 等待并返回下一条已认证的入站连接
//
// 握手失败的连接被丢弃并继续等待下一条，
// 不会把单个对端的失败上抛给接入循环。
func (l *Listener) Accept(ctx context.Context) (interfaces.Conn, error) {
	for {
		raw, err := l.acceptRaw(ctx)
		if err != nil {
			return nil, err
		}

		remote, err := Handshake(raw, l.transport.key, false, l.transport.config.HandshakeTimeout)
		if err != nil {
			transportLog.Debug("入站握手失败",
				"remoteAddr", raw.RemoteAddr().String(),
				"err", err)
			raw.Close()
			continue
		}

		session, err := yamux.Server(raw, yamuxConfig())
		if err != nil {
			transportLog.Debug("创建入站 muxer 失败", "err", err)
			raw.Close()
			continue
		}

		return newConn(session, remote, l.transport.config), nil
	}
}

// acceptRaw 接受一条裸 TCP 连接，支持 context 取消
func (l *Listener) acceptRaw(ctx context.Context) (net.Conn, error) {
	type result struct {
		conn net.Conn
		err  error
	}
	resultCh := make(chan result, 1)

	go func() {
		conn, err := l.ln.Accept()
		select {
		case resultCh <- result{conn: conn, err: err}:
		default:
			if conn != nil {
				conn.Close()
			}
		}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-resultCh:
		if r.err != nil {
			return nil, fmt.Errorf("%w: %v", ErrListenerClosed, r.err)
		}
		return r.conn, nil
	}
}

// Close 关闭监听器
func (l *Listener) Close() error {
	return l.ln.Close()
}

// Addr 返回实际监听地址
func (l *Listener) Addr() string {
	return l.ln.Addr().String()
}
