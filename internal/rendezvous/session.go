package rendezvous

import (
	"errors"
	"io"
	"sync/atomic"
	"time"

	"github.com/dep2p/go-rendezvous/pkg/interfaces"
	"github.com/dep2p/go-rendezvous/pkg/lib/log"
	pb "github.com/dep2p/go-rendezvous/pkg/lib/proto/rendezvous"
	"github.com/dep2p/go-rendezvous/pkg/types"
)

var sessionLog = log.Logger("rendezvous/session")

// ============================================================================
//                              请求计数
// ============================================================================

// sessionMetrics 请求计数器，由同一 Point 下的全部会话共享
type sessionMetrics struct {
	registers   atomic.Uint64
	unregisters atomic.Uint64
	discovers   atomic.Uint64
}

// ============================================================================
//                              会话
// ============================================================================

// session 单条流上的请求/响应循环
//
// 会话身份在创建时绑定为连接层认证的对端身份，
// 之后全部授权判断只使用这个身份，载荷里的 id 字段仅作校验。
type session struct {
	store   *Store
	peer    types.PeerID
	stream  interfaces.Stream
	metrics *sessionMetrics
}

func newSession(store *Store, peer types.PeerID, stream interfaces.Stream, metrics *sessionMetrics) *session {
	return &session{
		store:   store,
		peer:    peer,
		stream:  stream,
		metrics: metrics,
	}
}

// serve 运行会话循环直到流关闭或协议违例
//
// 语义错误（非法命名空间、存储已满等）通过结构化错误响应返回，
// 会话继续；帧损坏或非预期的消息类型则直接终止会话。
func (s *session) serve() {
	defer s.stream.Close()

	for {
		msg, err := ReadMessage(s.stream)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				sessionLog.Debug("会话结束",
					"peer", s.peer.ShortString(),
					"err", err)
			}
			return
		}

		var resp *pb.Message
		switch msg.Type {
		case pb.Message_REGISTER:
			resp = s.handleRegister(msg.Register)
		case pb.Message_UNREGISTER:
			resp = s.handleUnregister(msg.Unregister)
		case pb.Message_DISCOVER:
			resp = s.handleDiscover(msg.Discover)
		default:
			sessionLog.Warn("收到非预期的消息类型，终止会话",
				"peer", s.peer.ShortString(),
				"type", msg.Type.String())
			return
		}

		if err := WriteMessage(s.stream, resp); err != nil {
			sessionLog.Debug("写入响应失败",
				"peer", s.peer.ShortString(),
				"err", err)
			return
		}
	}
}

// handleRegister 处理注册请求
func (s *session) handleRegister(req *pb.Message_Register) *pb.Message {
	s.metrics.registers.Add(1)

	if req == nil {
		req = &pb.Message_Register{}
	}

	requestedTTL := time.Duration(req.Ttl) * time.Second
	_, ttl, err := s.store.Register(s.peer, req.Ns, req.Addrs, requestedTTL)
	if err != nil {
		sessionLog.Debug("注册被拒绝",
			"peer", s.peer.ShortString(),
			"namespace", req.Ns,
			"err", err)
		return NewRegisterResponse(ErrorToStatus(err), err.Error(), 0)
	}

	sessionLog.Debug("注册成功",
		"peer", s.peer.ShortString(),
		"namespace", req.Ns,
		"ttl", ttl)
	return NewRegisterResponse(pb.Message_OK, "", ttl)
}

// handleUnregister 处理取消注册请求
func (s *session) handleUnregister(req *pb.Message_Unregister) *pb.Message {
	s.metrics.unregisters.Add(1)

	if req == nil {
		req = &pb.Message_Unregister{}
	}

	// 载荷允许携带 id，但只接受与连接身份一致的值
	if len(req.Id) > 0 {
		id, err := types.PeerIDFromBytes(req.Id)
		if err != nil || !id.Equal(s.peer) {
			sessionLog.Warn("取消注册身份不匹配",
				"peer", s.peer.ShortString(),
				"namespace", req.Ns)
			return NewUnregisterResponse(pb.Message_E_NOT_AUTHORIZED,
				ErrNotAuthorized.Error())
		}
	}

	if err := s.store.ValidateNamespace(req.Ns); err != nil {
		return NewUnregisterResponse(ErrorToStatus(err), err.Error())
	}

	s.store.Unregister(s.peer, req.Ns)
	return NewUnregisterResponse(pb.Message_OK, "")
}

// handleDiscover 处理发现请求
func (s *session) handleDiscover(req *pb.Message_Discover) *pb.Message {
	s.metrics.discovers.Add(1)

	if req == nil {
		req = &pb.Message_Discover{}
	}

	if err := s.store.ValidateNamespace(req.Ns); err != nil {
		return NewDiscoverResponse(ErrorToStatus(err), err.Error(), nil, nil)
	}

	cursor, err := DecodeCursor(req.Cookie)
	if err != nil {
		return NewDiscoverResponse(ErrorToStatus(err), err.Error(), nil, nil)
	}

	page, next := s.store.Discover(req.Ns, cursor, int(req.Limit))

	regs := make([]*pb.Message_Registration, 0, len(page))
	now := s.store.clock.Now()
	for i := range page {
		regs = append(regs, RegistrationToWire(&page[i], now))
	}

	return NewDiscoverResponse(pb.Message_OK, "", regs, EncodeCursor(next))
}
