package rendezvous

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	pb "github.com/dep2p/go-rendezvous/pkg/lib/proto/rendezvous"
	"github.com/dep2p/go-rendezvous/pkg/types"
)

// ============================================================================
//                              协议常量
// ============================================================================

const (
	// MaxMessageSize 最大消息大小 (1MB)
	MaxMessageSize = 1 << 20

	// ProtocolID Rendezvous 协议 ID
	ProtocolID = "/rendezvous/1.0.0"
)

// ============================================================================
//                              消息编解码
// ============================================================================

// WriteMessage 写入消息到 writer
//
// 帧格式：4 字节大端长度前缀 + protobuf 消息体。
func WriteMessage(w io.Writer, msg *pb.Message) error {
	data, err := msg.Marshal()
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	if len(data) > MaxMessageSize {
		return ErrMessageTooLarge
	}

	buf := make([]byte, 4+len(data))
	binary.BigEndian.PutUint32(buf, uint32(len(data)))
	copy(buf[4:], data)

	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	return nil
}

// ReadMessage 从 reader 读取消息
func ReadMessage(r io.Reader) (*pb.Message, error) {
	lenBuf := make([]byte, 4)
	if _, err := io.ReadFull(r, lenBuf); err != nil {
		return nil, fmt.Errorf("failed to read length: %w", err)
	}

	length := binary.BigEndian.Uint32(lenBuf)
	if length > MaxMessageSize {
		return nil, ErrMessageTooLarge
	}

	data := make([]byte, length)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, fmt.Errorf("failed to read message: %w", err)
	}

	msg := &pb.Message{}
	if err := msg.Unmarshal(data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal message: %w", err)
	}
	return msg, nil
}

// ============================================================================
//                              请求构造器
// ============================================================================

// NewRegisterRequest 创建注册请求
func NewRegisterRequest(namespace string, addrs []string, ttl time.Duration) *pb.Message {
	return &pb.Message{
		Type: pb.Message_REGISTER,
		Register: &pb.Message_Register{
			Ns:    namespace,
			Addrs: addrs,
			Ttl:   uint64(ttl.Seconds()),
		},
	}
}

// NewUnregisterRequest 创建取消注册请求
//
// peer 为空时不携带 id 字段，服务端直接采用连接身份。
func NewUnregisterRequest(namespace string, peer types.PeerID) *pb.Message {
	req := &pb.Message_Unregister{Ns: namespace}
	if !peer.IsEmpty() {
		req.Id = peer.Bytes()
	}
	return &pb.Message{
		Type:       pb.Message_UNREGISTER,
		Unregister: req,
	}
}

// NewDiscoverRequest 创建发现请求
func NewDiscoverRequest(namespace string, limit int, cookie []byte) *pb.Message {
	return &pb.Message{
		Type: pb.Message_DISCOVER,
		Discover: &pb.Message_Discover{
			Ns:     namespace,
			Limit:  uint64(limit),
			Cookie: cookie,
		},
	}
}

// ============================================================================
//                              响应构造器
// ============================================================================

// NewRegisterResponse 创建注册响应
func NewRegisterResponse(status pb.Message_ResponseStatus, statusText string, ttl time.Duration) *pb.Message {
	return &pb.Message{
		Type: pb.Message_REGISTER_RESPONSE,
		RegisterResponse: &pb.Message_RegisterResponse{
			Status:     status,
			StatusText: statusText,
			Ttl:        uint64(ttl.Seconds()),
		},
	}
}

// NewUnregisterResponse 创建取消注册响应
func NewUnregisterResponse(status pb.Message_ResponseStatus, statusText string) *pb.Message {
	return &pb.Message{
		Type: pb.Message_UNREGISTER_RESPONSE,
		UnregisterResponse: &pb.Message_UnregisterResponse{
			Status:     status,
			StatusText: statusText,
		},
	}
}

// NewDiscoverResponse 创建发现响应
func NewDiscoverResponse(status pb.Message_ResponseStatus, statusText string, registrations []*pb.Message_Registration, cookie []byte) *pb.Message {
	return &pb.Message{
		Type: pb.Message_DISCOVER_RESPONSE,
		DiscoverResponse: &pb.Message_DiscoverResponse{
			Registrations: registrations,
			Cookie:        cookie,
			Status:        status,
			StatusText:    statusText,
		},
	}
}

// ============================================================================
//                              类型转换
// ============================================================================

// RegistrationToWire 将存储记录转换为线上 Registration
func RegistrationToWire(reg *Registration, now time.Time) *pb.Message_Registration {
	return &pb.Message_Registration{
		Ns:    reg.Namespace,
		Id:    reg.Peer.Bytes(),
		Addrs: reg.Addrs,
		Ttl:   uint64(reg.RemainingTTL(now).Seconds()),
	}
}

// ErrorToStatus 将存储错误映射为响应状态
func ErrorToStatus(err error) pb.Message_ResponseStatus {
	switch {
	case err == nil:
		return pb.Message_OK
	case errors.Is(err, ErrInvalidNamespace):
		return pb.Message_E_INVALID_NAMESPACE
	case errors.Is(err, ErrInvalidAddresses):
		return pb.Message_E_INVALID_ADDRESSES
	case errors.Is(err, ErrInvalidTTL):
		return pb.Message_E_INVALID_TTL
	case errors.Is(err, ErrInvalidCookie):
		return pb.Message_E_INVALID_COOKIE
	case errors.Is(err, ErrNotAuthorized):
		return pb.Message_E_NOT_AUTHORIZED
	case errors.Is(err, ErrStoreFull):
		return pb.Message_E_STORE_FULL
	case errors.Is(err, ErrUnavailable):
		return pb.Message_E_UNAVAILABLE
	default:
		return pb.Message_E_INTERNAL_ERROR
	}
}

// StatusToError 将响应状态转换为错误
func StatusToError(status pb.Message_ResponseStatus, statusText string) error {
	switch status {
	case pb.Message_OK:
		return nil
	case pb.Message_E_INVALID_NAMESPACE:
		return fmt.Errorf("%w: %s", ErrInvalidNamespace, statusText)
	case pb.Message_E_INVALID_ADDRESSES:
		return fmt.Errorf("%w: %s", ErrInvalidAddresses, statusText)
	case pb.Message_E_INVALID_TTL:
		return fmt.Errorf("%w: %s", ErrInvalidTTL, statusText)
	case pb.Message_E_INVALID_COOKIE:
		return fmt.Errorf("%w: %s", ErrInvalidCookie, statusText)
	case pb.Message_E_NOT_AUTHORIZED:
		return fmt.Errorf("%w: %s", ErrNotAuthorized, statusText)
	case pb.Message_E_STORE_FULL:
		return fmt.Errorf("%w: %s", ErrStoreFull, statusText)
	case pb.Message_E_UNAVAILABLE:
		return fmt.Errorf("%w: %s", ErrUnavailable, statusText)
	case pb.Message_E_INTERNAL_ERROR:
		return fmt.Errorf("%w: %s", ErrInternalError, statusText)
	default:
		return fmt.Errorf("unknown status: %v", status)
	}
}
