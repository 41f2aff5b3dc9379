package rendezvous

import (
	"errors"
)

// 预定义错误
var (
	// ErrInvalidNamespace 无效的命名空间
	ErrInvalidNamespace = errors.New("rendezvous: invalid namespace")

	// ErrInvalidAddresses 无效的地址列表
	ErrInvalidAddresses = errors.New("rendezvous: invalid addresses")

	// ErrInvalidTTL 无效的 TTL
	ErrInvalidTTL = errors.New("rendezvous: invalid TTL")

	// ErrInvalidCookie 无效的分页 cookie
	ErrInvalidCookie = errors.New("rendezvous: invalid cookie")

	// ErrNotAuthorized 未授权
	ErrNotAuthorized = errors.New("rendezvous: not authorized")

	// ErrStoreFull 存储已达注册上限
	ErrStoreFull = errors.New("rendezvous: store full")

	// ErrInternalError 内部错误
	ErrInternalError = errors.New("rendezvous: internal error")

	// ErrUnavailable 服务不可用
	ErrUnavailable = errors.New("rendezvous: service unavailable")

	// ErrMessageTooLarge 消息过大
	ErrMessageTooLarge = errors.New("rendezvous: message too large")

	// ErrUnexpectedMessage 收到非预期的消息类型
	ErrUnexpectedMessage = errors.New("rendezvous: unexpected message type")

	// ErrAlreadyStarted 已启动
	ErrAlreadyStarted = errors.New("rendezvous: already started")

	// ErrNotStarted 未启动
	ErrNotStarted = errors.New("rendezvous: not started")

	// ErrClientClosed 客户端已关闭
	ErrClientClosed = errors.New("rendezvous: client closed")
)
