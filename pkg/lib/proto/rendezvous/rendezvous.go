package rendezvous

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// ============================================================================
//                              枚举
// ============================================================================

// Message_MessageType 消息类型
type Message_MessageType int32

const (
	Message_REGISTER            Message_MessageType = 0
	Message_REGISTER_RESPONSE   Message_MessageType = 1
	Message_UNREGISTER          Message_MessageType = 2
	Message_DISCOVER            Message_MessageType = 3
	Message_DISCOVER_RESPONSE   Message_MessageType = 4
	Message_UNREGISTER_RESPONSE Message_MessageType = 5
)

// String 返回消息类型名称
func (t Message_MessageType) String() string {
	switch t {
	case Message_REGISTER:
		return "REGISTER"
	case Message_REGISTER_RESPONSE:
		return "REGISTER_RESPONSE"
	case Message_UNREGISTER:
		return "UNREGISTER"
	case Message_DISCOVER:
		return "DISCOVER"
	case Message_DISCOVER_RESPONSE:
		return "DISCOVER_RESPONSE"
	case Message_UNREGISTER_RESPONSE:
		return "UNREGISTER_RESPONSE"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int32(t))
	}
}

// Message_ResponseStatus 响应状态
type Message_ResponseStatus int32

const (
	Message_OK                  Message_ResponseStatus = 0
	Message_E_INVALID_NAMESPACE Message_ResponseStatus = 100
	Message_E_INVALID_ADDRESSES Message_ResponseStatus = 101
	Message_E_INVALID_TTL       Message_ResponseStatus = 102
	Message_E_INVALID_COOKIE    Message_ResponseStatus = 103
	Message_E_NOT_AUTHORIZED    Message_ResponseStatus = 200
	Message_E_STORE_FULL        Message_ResponseStatus = 201
	Message_E_INTERNAL_ERROR    Message_ResponseStatus = 300
	Message_E_UNAVAILABLE       Message_ResponseStatus = 400
)

// String 返回状态名称
func (s Message_ResponseStatus) String() string {
	switch s {
	case Message_OK:
		return "OK"
	case Message_E_INVALID_NAMESPACE:
		return "E_INVALID_NAMESPACE"
	case Message_E_INVALID_ADDRESSES:
		return "E_INVALID_ADDRESSES"
	case Message_E_INVALID_TTL:
		return "E_INVALID_TTL"
	case Message_E_INVALID_COOKIE:
		return "E_INVALID_COOKIE"
	case Message_E_NOT_AUTHORIZED:
		return "E_NOT_AUTHORIZED"
	case Message_E_STORE_FULL:
		return "E_STORE_FULL"
	case Message_E_INTERNAL_ERROR:
		return "E_INTERNAL_ERROR"
	case Message_E_UNAVAILABLE:
		return "E_UNAVAILABLE"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int32(s))
	}
}

// ============================================================================
//                              消息结构
// ============================================================================

// Message Rendezvous 协议外层消息
type Message struct {
	Type               Message_MessageType
	Register           *Message_Register
	RegisterResponse   *Message_RegisterResponse
	Unregister         *Message_Unregister
	UnregisterResponse *Message_UnregisterResponse
	Discover           *Message_Discover
	DiscoverResponse   *Message_DiscoverResponse
}

// Message_Register 注册请求
//
// 注册者身份来自连接层，不在载荷中出现。
type Message_Register struct {
	Ns    string
	Addrs []string
	Ttl   uint64 // 秒
}

// Message_RegisterResponse 注册响应
type Message_RegisterResponse struct {
	Status     Message_ResponseStatus
	StatusText string
	Ttl        uint64 // 实际生效的 TTL（秒）
}

// Message_Unregister 取消注册请求
type Message_Unregister struct {
	Ns string
	Id []byte // 可选；出现时必须与连接身份一致
}

// Message_UnregisterResponse 取消注册响应
type Message_UnregisterResponse struct {
	Status     Message_ResponseStatus
	StatusText string
}

// Message_Discover 发现请求
type Message_Discover struct {
	Ns     string
	Limit  uint64
	Cookie []byte
}

// Message_Registration 发现结果中的注册记录
type Message_Registration struct {
	Ns    string
	Id    []byte
	Addrs []string
	Ttl   uint64 // 剩余 TTL（秒）
}

// Message_DiscoverResponse 发现响应
type Message_DiscoverResponse struct {
	Registrations []*Message_Registration
	Cookie        []byte
	Status        Message_ResponseStatus
	StatusText    string
}

// ============================================================================
//                              序列化
// ============================================================================

// Marshal 序列化消息
//
// 与 proto3 约定一致：零值字段不编码。
func (m *Message) Marshal() ([]byte, error) {
	var b []byte
	if m.Type != 0 {
		b = protowire.AppendTag(b, 1, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(m.Type))
	}
	if m.Register != nil {
		b = appendSubmessage(b, 2, m.Register.encode())
	}
	if m.RegisterResponse != nil {
		b = appendSubmessage(b, 3, m.RegisterResponse.encode())
	}
	if m.Unregister != nil {
		b = appendSubmessage(b, 4, m.Unregister.encode())
	}
	if m.UnregisterResponse != nil {
		b = appendSubmessage(b, 5, m.UnregisterResponse.encode())
	}
	if m.Discover != nil {
		b = appendSubmessage(b, 6, m.Discover.encode())
	}
	if m.DiscoverResponse != nil {
		b = appendSubmessage(b, 7, m.DiscoverResponse.encode())
	}
	return b, nil
}

func appendSubmessage(b []byte, num protowire.Number, sub []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, sub)
}

func appendString(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendBytes(b []byte, num protowire.Number, v []byte) []byte {
	if len(v) == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

func appendUint64(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendStrings(b []byte, num protowire.Number, vs []string) []byte {
	for _, s := range vs {
		b = protowire.AppendTag(b, num, protowire.BytesType)
		b = protowire.AppendString(b, s)
	}
	return b
}

func (m *Message_Register) encode() []byte {
	var b []byte
	b = appendString(b, 1, m.Ns)
	b = appendStrings(b, 2, m.Addrs)
	b = appendUint64(b, 3, m.Ttl)
	return b
}

func (m *Message_RegisterResponse) encode() []byte {
	var b []byte
	b = appendUint64(b, 1, uint64(m.Status))
	b = appendString(b, 2, m.StatusText)
	b = appendUint64(b, 3, m.Ttl)
	return b
}

func (m *Message_Unregister) encode() []byte {
	var b []byte
	b = appendString(b, 1, m.Ns)
	b = appendBytes(b, 2, m.Id)
	return b
}

func (m *Message_UnregisterResponse) encode() []byte {
	var b []byte
	b = appendUint64(b, 1, uint64(m.Status))
	b = appendString(b, 2, m.StatusText)
	return b
}

func (m *Message_Discover) encode() []byte {
	var b []byte
	b = appendString(b, 1, m.Ns)
	b = appendUint64(b, 2, m.Limit)
	b = appendBytes(b, 3, m.Cookie)
	return b
}

func (m *Message_Registration) encode() []byte {
	var b []byte
	b = appendString(b, 1, m.Ns)
	b = appendBytes(b, 2, m.Id)
	b = appendStrings(b, 3, m.Addrs)
	b = appendUint64(b, 4, m.Ttl)
	return b
}

func (m *Message_DiscoverResponse) encode() []byte {
	var b []byte
	for _, reg := range m.Registrations {
		b = appendSubmessage(b, 1, reg.encode())
	}
	b = appendBytes(b, 2, m.Cookie)
	b = appendUint64(b, 3, uint64(m.Status))
	b = appendString(b, 4, m.StatusText)
	return b
}

// ============================================================================
//                              反序列化
// ============================================================================

// fieldFunc 处理一个已定位的字段；返回错误时终止解析
type fieldFunc func(num protowire.Number, typ protowire.Type, payload []byte) error

// walkFields 遍历消息的全部字段
//
// payload 对 varint 字段是原始剩余字节（由回调自行消费），
// 对 bytes 字段是已经解出的内容。未知字段跳过。
func walkFields(b []byte, f fieldFunc) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		switch typ {
		case protowire.VarintType:
			_, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			if err := f(num, typ, b[:n]); err != nil {
				return err
			}
			b = b[n:]

		case protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			if err := f(num, typ, v); err != nil {
				return err
			}
			b = b[n:]

		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			b = b[n:]
		}
	}
	return nil
}

func consumeUint64(payload []byte) (uint64, error) {
	v, n := protowire.ConsumeVarint(payload)
	if n < 0 {
		return 0, protowire.ParseError(n)
	}
	return v, nil
}

// Unmarshal 反序列化消息
func (m *Message) Unmarshal(b []byte) error {
	return walkFields(b, func(num protowire.Number, typ protowire.Type, payload []byte) error {
		switch {
		case num == 1 && typ == protowire.VarintType:
			v, err := consumeUint64(payload)
			if err != nil {
				return err
			}
			m.Type = Message_MessageType(v)
		case num == 2 && typ == protowire.BytesType:
			m.Register = new(Message_Register)
			return m.Register.decode(payload)
		case num == 3 && typ == protowire.BytesType:
			m.RegisterResponse = new(Message_RegisterResponse)
			return m.RegisterResponse.decode(payload)
		case num == 4 && typ == protowire.BytesType:
			m.Unregister = new(Message_Unregister)
			return m.Unregister.decode(payload)
		case num == 5 && typ == protowire.BytesType:
			m.UnregisterResponse = new(Message_UnregisterResponse)
			return m.UnregisterResponse.decode(payload)
		case num == 6 && typ == protowire.BytesType:
			m.Discover = new(Message_Discover)
			return m.Discover.decode(payload)
		case num == 7 && typ == protowire.BytesType:
			m.DiscoverResponse = new(Message_DiscoverResponse)
			return m.DiscoverResponse.decode(payload)
		}
		return nil
	})
}

func (m *Message_Register) decode(b []byte) error {
	return walkFields(b, func(num protowire.Number, typ protowire.Type, payload []byte) error {
		switch {
		case num == 1 && typ == protowire.BytesType:
			m.Ns = string(payload)
		case num == 2 && typ == protowire.BytesType:
			m.Addrs = append(m.Addrs, string(payload))
		case num == 3 && typ == protowire.VarintType:
			v, err := consumeUint64(payload)
			if err != nil {
				return err
			}
			m.Ttl = v
		}
		return nil
	})
}

func (m *Message_RegisterResponse) decode(b []byte) error {
	return walkFields(b, func(num protowire.Number, typ protowire.Type, payload []byte) error {
		switch {
		case num == 1 && typ == protowire.VarintType:
			v, err := consumeUint64(payload)
			if err != nil {
				return err
			}
			m.Status = Message_ResponseStatus(v)
		case num == 2 && typ == protowire.BytesType:
			m.StatusText = string(payload)
		case num == 3 && typ == protowire.VarintType:
			v, err := consumeUint64(payload)
			if err != nil {
				return err
			}
			m.Ttl = v
		}
		return nil
	})
}

func (m *Message_Unregister) decode(b []byte) error {
	return walkFields(b, func(num protowire.Number, typ protowire.Type, payload []byte) error {
		switch {
		case num == 1 && typ == protowire.BytesType:
			m.Ns = string(payload)
		case num == 2 && typ == protowire.BytesType:
			m.Id = append([]byte(nil), payload...)
		}
		return nil
	})
}

func (m *Message_UnregisterResponse) decode(b []byte) error {
	return walkFields(b, func(num protowire.Number, typ protowire.Type, payload []byte) error {
		switch {
		case num == 1 && typ == protowire.VarintType:
			v, err := consumeUint64(payload)
			if err != nil {
				return err
			}
			m.Status = Message_ResponseStatus(v)
		case num == 2 && typ == protowire.BytesType:
			m.StatusText = string(payload)
		}
		return nil
	})
}

func (m *Message_Discover) decode(b []byte) error {
	return walkFields(b, func(num protowire.Number, typ protowire.Type, payload []byte) error {
		switch {
		case num == 1 && typ == protowire.BytesType:
			m.Ns = string(payload)
		case num == 2 && typ == protowire.VarintType:
			v, err := consumeUint64(payload)
			if err != nil {
				return err
			}
			m.Limit = v
		case num == 3 && typ == protowire.BytesType:
			m.Cookie = append([]byte(nil), payload...)
		}
		return nil
	})
}

func (m *Message_Registration) decode(b []byte) error {
	return walkFields(b, func(num protowire.Number, typ protowire.Type, payload []byte) error {
		switch {
		case num == 1 && typ == protowire.BytesType:
			m.Ns = string(payload)
		case num == 2 && typ == protowire.BytesType:
			m.Id = append([]byte(nil), payload...)
		case num == 3 && typ == protowire.BytesType:
			m.Addrs = append(m.Addrs, string(payload))
		case num == 4 && typ == protowire.VarintType:
			v, err := consumeUint64(payload)
			if err != nil {
				return err
			}
			m.Ttl = v
		}
		return nil
	})
}

func (m *Message_DiscoverResponse) decode(b []byte) error {
	return walkFields(b, func(num protowire.Number, typ protowire.Type, payload []byte) error {
		switch {
		case num == 1 && typ == protowire.BytesType:
			reg := new(Message_Registration)
			if err := reg.decode(payload); err != nil {
				return err
			}
			m.Registrations = append(m.Registrations, reg)
		case num == 2 && typ == protowire.BytesType:
			m.Cookie = append([]byte(nil), payload...)
		case num == 3 && typ == protowire.VarintType:
			v, err := consumeUint64(payload)
			if err != nil {
				return err
			}
			m.Status = Message_ResponseStatus(v)
		case num == 4 && typ == protowire.BytesType:
			m.StatusText = string(payload)
		}
		return nil
	})
}
